package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func newTestMemoryCache() (*MemoryCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)}
	m := NewMemoryCache()
	m.now = clock.now
	return m, clock
}

func TestMemoryCache_GetSetExpiry(t *testing.T) {
	m, clock := newTestMemoryCache()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	clock.t = clock.t.Add(time.Minute)
	_, ok, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "forever", "v", 0))
	clock.t = clock.t.Add(365 * 24 * time.Hour)
	_, ok, _ = m.Get(ctx, "forever")
	assert.True(t, ok)

	require.NoError(t, m.Delete(ctx, "forever"))
	_, ok, _ = m.Get(ctx, "forever")
	assert.False(t, ok)
}

func TestMemoryCache_IncrAndExpire(t *testing.T) {
	m, clock := newTestMemoryCache()
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, err := m.Incr(ctx, "counter")
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	require.NoError(t, m.Expire(ctx, "counter", 10*time.Second))
	n, err := m.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	clock.t = clock.t.Add(11 * time.Second)
	n, err = m.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "expired counter restarts")

	require.NoError(t, m.Set(ctx, "text", "abc", 0))
	_, err = m.Incr(ctx, "text")
	assert.Error(t, err)

	assert.NoError(t, m.Expire(ctx, "missing", time.Second))
}

func TestJSONCache_RoundTripAndMiss(t *testing.T) {
	m, _ := newTestMemoryCache()
	c := NewJSONCache(m, 0)
	ctx := context.Background()

	type artifact struct {
		Laps []int `json:"laps"`
	}

	var got artifact
	ok, err := c.GetJSON(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetJSON(ctx, StrategyKey(2023, "Monza", "R"), artifact{Laps: []int{1, 2}}, 0))
	ok, err = c.GetJSON(ctx, StrategyKey(2023, "Monza", "R"), &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int{1, 2}, got.Laps)

	require.NoError(t, m.Set(ctx, "broken", "{", 0))
	_, err = c.GetJSON(ctx, "broken", &got)
	assert.Error(t, err)

	require.NoError(t, c.Delete(ctx, "broken"))
	ok, err = c.GetJSON(ctx, "broken", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeys(t *testing.T) {
	lap := 12
	assert.Equal(t, "pitlane:telemetry:2023:Monza:R:VER:HAM:12:fastest",
		TelemetryKey(2023, "Monza", "R", "VER", "HAM", &lap, nil))
	assert.Equal(t, "pitlane:strategy:2023:Monza:R", StrategyKey(2023, "Monza", "R"))
	assert.Equal(t, "pitlane:positions:2023:Monza:R", PositionsKey(2023, "Monza", "R"))
	assert.Equal(t, "pitlane:track_evolution:2023:Monza:R", TrackEvolutionKey(2023, "Monza", "R"))
	assert.Equal(t, "pitlane:drivers:2023:Monza:R", DriversKey(2023, "Monza", "R"))
	assert.Equal(t, "pitlane:events:2023", EventsKey(2023))
	assert.Equal(t, "pitlane:sessions:2023:Monza", SessionsKey(2023, "Monza"))
	assert.Equal(t, "pitlane:race_pace:2023:Monza:R:VER,HAM", RacePaceKey(2023, "Monza", "R", []string{"VER", "HAM"}))
}

func TestHashKey(t *testing.T) {
	short := Key("x")
	assert.Equal(t, short, HashKey(short))

	long := Key(strings.Repeat("a", 250))
	hashed := HashKey(long)
	assert.True(t, strings.HasPrefix(hashed, "pitlane:hash:"))
	assert.Len(t, hashed, len("pitlane:hash:")+64)
	assert.Equal(t, hashed, HashKey(long))
}
