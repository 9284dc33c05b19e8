package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// KeyPrefix префикс всех ключей сервиса
	KeyPrefix = "pitlane:"
	// MaxKeyLength ключи длиннее хэшируются
	MaxKeyLength = 200
	// DefaultTTL время жизни артефакта по умолчанию
	DefaultTTL = 24 * time.Hour
)

// JSONCache кэш артефактов в JSON поверх Store
type JSONCache struct {
	store Store
	ttl   time.Duration
}

// NewJSONCache создает кэш артефактов; ttl <= 0 заменяется на DefaultTTL
func NewJSONCache(store Store, ttl time.Duration) *JSONCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &JSONCache{store: store, ttl: ttl}
}

// GetJSON читает и декодирует значение; ok=false при промахе
func (c *JSONCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, ok, err := c.store.Get(ctx, HashKey(key))
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON кодирует и сохраняет значение; ttl <= 0 означает время жизни по умолчанию
func (c *JSONCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	return c.store.Set(ctx, HashKey(key), string(data), ttl)
}

// Delete удаляет артефакт
func (c *JSONCache) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, HashKey(key))
}

// Key собирает ключ из частей с префиксом сервиса
func Key(parts ...string) string {
	return KeyPrefix + strings.Join(parts, ":")
}

// HashKey заменяет слишком длинный ключ на sha256
func HashKey(key string) string {
	if len(key) <= MaxKeyLength {
		return key
	}
	sum := sha256.Sum256([]byte(key))
	return KeyPrefix + "hash:" + hex.EncodeToString(sum[:])
}

// TelemetryKey ключ сравнения телеметрии; пустой круг означает самый быстрый
func TelemetryKey(season int, event, session, driverA, driverB string, lapA, lapB *int) string {
	return Key("telemetry", strconv.Itoa(season), event, session, driverA, driverB, lapOrFastest(lapA), lapOrFastest(lapB))
}

// StrategyKey ключ стратегии сессии
func StrategyKey(season int, event, session string) string {
	return Key("strategy", strconv.Itoa(season), event, session)
}

// PositionsKey ключ истории позиций
func PositionsKey(season int, event, session string) string {
	return Key("positions", strconv.Itoa(season), event, session)
}

// TrackEvolutionKey ключ эволюции трассы
func TrackEvolutionKey(season int, event, session string) string {
	return Key("track_evolution", strconv.Itoa(season), event, session)
}

// DriversKey ключ списка пилотов
func DriversKey(season int, event, session string) string {
	return Key("drivers", strconv.Itoa(season), event, session)
}

// EventsKey ключ списка этапов сезона
func EventsKey(season int) string {
	return Key("events", strconv.Itoa(season))
}

// SessionsKey ключ списка сессий этапа
func SessionsKey(season int, event string) string {
	return Key("sessions", strconv.Itoa(season), event)
}

// RacePaceKey ключ темпа; порядок пилотов значим, он определяет порядок ответа
func RacePaceKey(season int, event, session string, drivers []string) string {
	return Key("race_pace", strconv.Itoa(season), event, session, strings.Join(drivers, ","))
}

func lapOrFastest(lap *int) string {
	if lap == nil {
		return "fastest"
	}
	return strconv.Itoa(*lap)
}
