// Package source описывает поставщика исходных данных сессии (хронометраж и телеметрия)
// и реализует его поверх JSON-файлов на диске
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Tejasvaidya10/laplens/internal/models"
)

const (
	// MinSeason первый сезон с телеметрией
	MinSeason = 2018
	// MaxSeason последний допустимый сезон
	MaxSeason = 2030
)

var (
	// ErrNotFound сессия, пилот или круг не найдены
	ErrNotFound = errors.New("not found")
	// ErrInvalidKey некорректный ключ сессии
	ErrInvalidKey = errors.New("invalid session key")
)

// SessionKey идентифицирует сессию: сезон, этап, тип сессии
type SessionKey struct {
	Season  int
	Event   string
	Session string
}

// ValidateSeason проверяет, что сезон в допустимом диапазоне
func ValidateSeason(season int) error {
	if season < MinSeason || season > MaxSeason {
		return fmt.Errorf("%w: season %d outside %d..%d", ErrInvalidKey, season, MinSeason, MaxSeason)
	}
	return nil
}

// Validate проверяет ключ сессии
func (k SessionKey) Validate() error {
	if err := ValidateSeason(k.Season); err != nil {
		return err
	}
	if strings.TrimSpace(k.Event) == "" || strings.TrimSpace(k.Session) == "" {
		return fmt.Errorf("%w: event and session are required", ErrInvalidKey)
	}
	return nil
}

// Source поставщик данных сессии
type Source interface {
	Seasons(ctx context.Context) ([]models.Season, error)
	Events(ctx context.Context, season int) ([]models.Event, error)
	Sessions(ctx context.Context, season int, event string) ([]models.Session, error)
	Drivers(ctx context.Context, key SessionKey) ([]models.Driver, error)
	Laps(ctx context.Context, key SessionKey) ([]models.LapRecord, error)
	LapTrace(ctx context.Context, key SessionKey, driver string, lap int) (models.LapTrace, error)
}

// SessionFile формат файла сессии на диске
type SessionFile struct {
	Date      string             `json:"date,omitempty"`
	Drivers   []models.Driver    `json:"drivers"`
	Laps      []models.LapRecord `json:"laps"`
	Telemetry []models.LapTrace  `json:"telemetry"`
}

// FileSource читает сессии из <dir>/<season>/<event>/<session>.json
type FileSource struct {
	dir string
}

// NewFileSource создает поставщика поверх каталога
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Path возвращает путь к файлу сессии
func (s *FileSource) Path(key SessionKey) string {
	return filepath.Join(s.dir, strconv.Itoa(key.Season), sanitize(key.Event), sanitize(key.Session)+".json")
}

// Drivers возвращает пилотов сессии
func (s *FileSource) Drivers(ctx context.Context, key SessionKey) ([]models.Driver, error) {
	f, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return f.Drivers, nil
}

// Laps возвращает круги всех пилотов сессии
func (s *FileSource) Laps(ctx context.Context, key SessionKey) ([]models.LapRecord, error) {
	f, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	for i := range f.Laps {
		f.Laps[i].Compound = models.NormalizeCompound(string(f.Laps[i].Compound))
	}
	return f.Laps, nil
}

// LapTrace возвращает телеметрию круга пилота
func (s *FileSource) LapTrace(ctx context.Context, key SessionKey, driver string, lap int) (models.LapTrace, error) {
	f, err := s.load(ctx, key)
	if err != nil {
		return models.LapTrace{}, err
	}
	for _, trace := range f.Telemetry {
		if trace.Driver == driver && trace.LapNumber == lap {
			return trace, nil
		}
	}
	return models.LapTrace{}, fmt.Errorf("%w: telemetry for %s lap %d", ErrNotFound, driver, lap)
}

// ReadSessionFile читает и разбирает файл сессии
func ReadSessionFile(path string) (*SessionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: session file %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var f SessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", path, err)
	}
	return &f, nil
}

func (s *FileSource) load(ctx context.Context, key SessionKey) (*SessionFile, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadSessionFile(s.Path(key))
}

// sanitize убирает из имени разделители путей
func sanitize(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	name = strings.ReplaceAll(name, "..", "")
	return name
}
