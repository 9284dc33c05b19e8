// Package savedanalyses хранит сохраненные пользователями конфигурации анализа в SQLite
package savedanalyses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Tejasvaidya10/laplens/internal/models"
)

// ErrNotFound анализ не найден или принадлежит другому пользователю
var ErrNotFound = errors.New("saved analysis not found")

// ErrInvalidInput некорректные данные анализа
var ErrInvalidInput = errors.New("invalid saved analysis")

const createTable = `CREATE TABLE IF NOT EXISTS saved_analyses (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	season INTEGER NOT NULL,
	event TEXT NOT NULL,
	session TEXT NOT NULL,
	driver_a TEXT NOT NULL,
	driver_b TEXT NOT NULL,
	lap_a INTEGER,
	lap_b INTEGER,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL);`

const createIndex = `CREATE INDEX IF NOT EXISTS idx_saved_analyses_user ON saved_analyses(user_id, created_at);`

// timeLayout фиксированная ширина сохраняет порядок сортировки строк
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

const selectFields = `id, user_id, name, season, event, session, driver_a, driver_b, lap_a, lap_b, created_at, updated_at`

// Store хранилище сохраненных анализов
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open открывает базу SQLite по пути и создает схему
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite допускает одного писателя
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{createTable, createIndex} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close закрывает базу
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping проверяет соединение с базой
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Create сохраняет новый анализ пользователя
func (s *Store) Create(ctx context.Context, userID string, in models.SavedAnalysisCreate) (models.SavedAnalysis, error) {
	if err := validate(in); err != nil {
		return models.SavedAnalysis{}, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	a := models.SavedAnalysis{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      in.Name,
		Season:    in.Season,
		Event:     in.Event,
		Session:   in.Session,
		DriverA:   in.DriverA,
		DriverB:   in.DriverB,
		LapA:      in.LapA,
		LapB:      in.LapB,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_analyses (`+selectFields+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, a.Season, a.Event, a.Session, a.DriverA, a.DriverB,
		nullInt(a.LapA), nullInt(a.LapB), formatTime(a.CreatedAt), formatTime(a.UpdatedAt))
	if err != nil {
		return models.SavedAnalysis{}, fmt.Errorf("failed to insert saved analysis: %w", err)
	}
	return a, nil
}

// List возвращает анализы пользователя, новые первыми
func (s *Store) List(ctx context.Context, userID string) ([]models.SavedAnalysis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectFields+` FROM saved_analyses WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved analyses: %w", err)
	}
	defer rows.Close()

	out := make([]models.SavedAnalysis, 0)
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list saved analyses: %w", err)
	}
	return out, nil
}

// Get возвращает анализ пользователя по идентификатору
func (s *Store) Get(ctx context.Context, id, userID string) (models.SavedAnalysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectFields+` FROM saved_analyses WHERE id = ? AND user_id = ?`, id, userID)
	a, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SavedAnalysis{}, ErrNotFound
	}
	return a, err
}

// Delete удаляет анализ пользователя
func (s *Store) Delete(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_analyses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete saved analysis: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete saved analysis: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scan(row scanner) (models.SavedAnalysis, error) {
	var a models.SavedAnalysis
	var lapA, lapB sql.NullInt64
	var createdAt, updatedAt string
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Season, &a.Event, &a.Session,
		&a.DriverA, &a.DriverB, &lapA, &lapB, &createdAt, &updatedAt)
	if err != nil {
		return a, err
	}

	a.LapA = intPtr(lapA)
	a.LapB = intPtr(lapB)
	if a.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return a, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if a.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return a, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return a, nil
}

func validate(in models.SavedAnalysisCreate) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Event == "" || in.Session == "" || in.DriverA == "" || in.DriverB == "" {
		return fmt.Errorf("%w: event, session and both drivers are required", ErrInvalidInput)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
