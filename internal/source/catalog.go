package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Tejasvaidya10/laplens/internal/models"
)

// EventFileName необязательный файл с описанием этапа в каталоге этапа
const EventFileName = "event.json"

// sessionTypes известные сессии уик-энда в порядке проведения
var sessionTypes = []struct {
	name        string
	sessionType string
}{
	{"FP1", "practice"},
	{"FP2", "practice"},
	{"FP3", "practice"},
	{"Q", "qualifying"},
	{"SQ", "sprint_qualifying"},
	{"S", "sprint"},
	{"R", "race"},
}

// Seasons возвращает сезоны из каталога данных, новые первыми
func (s *FileSource) Seasons(ctx context.Context) ([]models.Season, error) {
	dirs, err := s.listDirs(ctx, s.dir)
	if err != nil {
		return nil, err
	}

	seasons := make([]models.Season, 0, len(dirs))
	for _, name := range dirs {
		year, err := strconv.Atoi(name)
		if err != nil || ValidateSeason(year) != nil {
			continue
		}
		seasons = append(seasons, models.Season{Year: year, Name: fmt.Sprintf("%d Season", year)})
	}
	sort.Slice(seasons, func(i, j int) bool {
		return seasons[i].Year > seasons[j].Year
	})
	return seasons, nil
}

// Events возвращает этапы сезона. Без event.json номер этапа берется по порядку каталогов.
func (s *FileSource) Events(ctx context.Context, season int) ([]models.Event, error) {
	if err := ValidateSeason(season); err != nil {
		return nil, err
	}
	seasonDir := filepath.Join(s.dir, strconv.Itoa(season))
	dirs, err := s.listDirs(ctx, seasonDir)
	if err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(dirs))
	for i, name := range dirs {
		event := models.Event{RoundNumber: i + 1, EventName: strings.ReplaceAll(name, "_", " ")}
		if err := readEventFile(filepath.Join(seasonDir, name, EventFileName), &event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].RoundNumber < events[j].RoundNumber
	})
	return events, nil
}

// Sessions возвращает сессии этапа в порядке проведения
func (s *FileSource) Sessions(ctx context.Context, season int, event string) ([]models.Session, error) {
	if err := ValidateSeason(season); err != nil {
		return nil, err
	}
	if strings.TrimSpace(event) == "" {
		return nil, fmt.Errorf("%w: event is required", ErrInvalidKey)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	eventDir := filepath.Join(s.dir, strconv.Itoa(season), sanitize(event))
	entries, err := os.ReadDir(eventDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.Session{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	found := make(map[string]bool)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == EventFileName || filepath.Ext(name) != ".json" {
			continue
		}
		found[strings.TrimSuffix(name, ".json")] = true
	}

	sessions := make([]models.Session, 0, len(found))
	for _, t := range sessionTypes {
		if !found[t.name] {
			continue
		}
		delete(found, t.name)
		sessions = append(sessions, s.session(eventDir, t.name, t.sessionType))
	}

	rest := make([]string, 0, len(found))
	for name := range found {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	for _, name := range rest {
		sessions = append(sessions, s.session(eventDir, name, "other"))
	}
	return sessions, nil
}

func (s *FileSource) session(eventDir, name, sessionType string) models.Session {
	sess := models.Session{Name: name, SessionType: sessionType}
	if f, err := ReadSessionFile(filepath.Join(eventDir, name+".json")); err == nil {
		sess.Date = f.Date
	}
	return sess
}

// listDirs возвращает отсортированные имена подкаталогов; отсутствующий каталог пуст
func (s *FileSource) listDirs(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func readEventFile(path string, event *models.Event) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read event file: %w", err)
	}
	if err := json.Unmarshal(data, event); err != nil {
		return fmt.Errorf("failed to parse event file %s: %w", path, err)
	}
	return nil
}
