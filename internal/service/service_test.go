package service

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tejasvaidya10/laplens/internal/analytics"
	"github.com/Tejasvaidya10/laplens/internal/cache"
	"github.com/Tejasvaidya10/laplens/internal/metrics"
	"github.com/Tejasvaidya10/laplens/internal/models"
	"github.com/Tejasvaidya10/laplens/internal/source"
	"github.com/Tejasvaidya10/laplens/internal/source/sourcetest"
)

// memoryArtifacts ArtifactStore в памяти
type memoryArtifacts struct {
	mu      sync.Mutex
	objects map[string]models.TelemetryComparison
	uploads int
}

func newMemoryArtifacts() *memoryArtifacts {
	return &memoryArtifacts{objects: make(map[string]models.TelemetryComparison)}
}

func (m *memoryArtifacts) UploadJSON(_ context.Context, key string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = value.(models.TelemetryComparison)
	m.uploads++
	return nil
}

func (m *memoryArtifacts) DownloadJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.objects[key]
	if !ok {
		return false, nil
	}
	*dest.(*models.TelemetryComparison) = v
	return true, nil
}

func newTestService(t *testing.T, store ArtifactStore) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	sourcetest.Write(t, dir)
	svc := New(Options{
		Source:    source.NewFileSource(dir),
		Cache:     cache.NewJSONCache(cache.NewMemoryCache(), 0),
		Storage:   store,
		MaxPoints: 5,
	})
	return svc, dir
}

func compareRequest() models.TelemetryCompareRequest {
	k := sourcetest.Key
	return models.TelemetryCompareRequest{Season: k.Season, Event: k.Event, Session: k.Session, DriverA: "ver", DriverB: "HAM"}
}

func TestService_CompareFastestLaps(t *testing.T) {
	artifacts := newMemoryArtifacts()
	svc, _ := newTestService(t, artifacts)

	cmp, err := svc.Compare(context.Background(), compareRequest())
	require.NoError(t, err)

	assert.Equal(t, 2, cmp.DriverA.LapNumber)
	assert.Equal(t, 3, cmp.DriverB.LapNumber)
	require.NotNil(t, cmp.DriverA.LapTime)
	assert.Equal(t, 90.0, *cmp.DriverA.LapTime)
	assert.Len(t, cmp.DriverA.Samples, 5)
	assert.Len(t, cmp.DriverB.Samples, 5)

	require.Len(t, cmp.Delta, 5)
	assert.Equal(t, 0.0, cmp.Delta[0].Distance)
	assert.Equal(t, 1000.0, cmp.Delta[4].Distance)
	assert.InDelta(t, 0.5, cmp.Summary.FinalDelta, 1e-9)
	assert.Equal(t, "VER", cmp.Summary.Leader)
	require.NotNil(t, cmp.SectorsA.Sector1)
	assert.InDelta(t, 30.0, *cmp.SectorsA.Sector1, 1e-9)
	assert.Nil(t, cmp.SectorsA.Sector2)

	assert.Equal(t, 1, artifacts.uploads)
}

func TestService_CompareServedFromCacheAndStorage(t *testing.T) {
	artifacts := newMemoryArtifacts()
	svc, dir := newTestService(t, artifacts)
	ctx := context.Background()

	first, err := svc.Compare(ctx, compareRequest())
	require.NoError(t, err)

	// после удаления исходных данных ответ приходит из кэша
	require.NoError(t, os.RemoveAll(dir))
	cached, err := svc.Compare(ctx, compareRequest())
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	// новый сервис без кэша читает артефакт из хранилища
	fresh := New(Options{Source: source.NewFileSource(dir), Storage: artifacts, MaxPoints: 5})
	stored, err := fresh.Compare(ctx, compareRequest())
	require.NoError(t, err)
	assert.Equal(t, first, stored)
	assert.Equal(t, 1, artifacts.uploads)
}

func TestService_CompareErrors(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	req := compareRequest()
	req.DriverB = ""
	_, err := svc.Compare(ctx, req)
	assert.True(t, errors.Is(err, analytics.ErrInvalidArgument))

	req = compareRequest()
	req.Season = 1999
	_, err = svc.Compare(ctx, req)
	assert.True(t, errors.Is(err, source.ErrInvalidKey))

	req = compareRequest()
	lap := 4
	req.LapA = &lap
	_, err = svc.Compare(ctx, req)
	assert.True(t, errors.Is(err, source.ErrNotFound), "lap 4 has no telemetry")

	req = compareRequest()
	req.DriverB = "LEC"
	_, err = svc.Compare(ctx, req)
	assert.True(t, errors.Is(err, source.ErrNotFound))
}

func TestService_Strategy(t *testing.T) {
	svc, _ := newTestService(t, nil)

	data, err := svc.Strategy(context.Background(), sourcetest.Key)
	require.NoError(t, err)

	assert.Equal(t, 4, data.TotalLaps)
	require.Len(t, data.Stints, 3)
	assert.Equal(t, models.CompoundHard, data.Stints[1].Compound)
	require.Len(t, data.PitStops, 1)
	assert.Equal(t, models.PitStopEvent{Driver: "VER", Lap: 4}, data.PitStops[0])
}

func TestService_RacePace(t *testing.T) {
	svc, _ := newTestService(t, nil)
	analyzer := analytics.NewPaceAnalyzer(8)
	analyzer.Start(2)
	defer analyzer.Stop()
	svc.analyzer = analyzer

	pace, err := svc.RacePace(context.Background(), sourcetest.Key, []string{"ham", "VER"})
	require.NoError(t, err)

	require.Len(t, pace.Drivers, 2)
	assert.Equal(t, "HAM", pace.Drivers[0].Driver)
	assert.Equal(t, "Mercedes", pace.Drivers[0].Team)
	assert.Equal(t, "VER", pace.Drivers[1].Driver)
	assert.Len(t, pace.Drivers[1].Stints, 2)
	assert.InDelta(t, 368.0, pace.Drivers[1].TotalRaceTime, 1e-9)
	assert.Equal(t, 4, pace.TotalLaps)
	assert.NotNil(t, pace.SafetyCarLaps)
	assert.Empty(t, pace.VSCLaps)

	all, err := svc.RacePace(context.Background(), sourcetest.Key, nil)
	require.NoError(t, err)
	require.Len(t, all.Drivers, 2)
	assert.Equal(t, "VER", all.Drivers[0].Driver)

	// пилот без кругов в сессии пропускается
	partial, err := svc.RacePace(context.Background(), sourcetest.Key, []string{"LEC", "VER"})
	require.NoError(t, err)
	require.Len(t, partial.Drivers, 1)
	assert.Equal(t, "VER", partial.Drivers[0].Driver)
}

func telemetrySamples(t *testing.T) uint64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, metrics.AnalysisLatency.WithLabelValues("telemetry").(prometheus.Histogram).Write(m))
	return m.GetHistogram().GetSampleCount()
}

func TestService_CompareObservesLatency(t *testing.T) {
	svc, _ := newTestService(t, nil)

	before := telemetrySamples(t)
	_, err := svc.Compare(context.Background(), compareRequest())
	require.NoError(t, err)
	assert.Equal(t, before+1, telemetrySamples(t))

	// неудачное сравнение тоже попадает в гистограмму
	svc.maxPoints = -1
	_, err = svc.compareTraces(compareRequest(), models.LapRecord{}, models.LapRecord{}, models.LapTrace{}, models.LapTrace{})
	assert.True(t, errors.Is(err, analytics.ErrInvalidArgument))
	assert.Equal(t, before+2, telemetrySamples(t))
}

func TestService_EvictsCorruptCacheEntry(t *testing.T) {
	dir := t.TempDir()
	sourcetest.Write(t, dir)
	store := cache.NewMemoryCache()
	svc := New(Options{Source: source.NewFileSource(dir), Cache: cache.NewJSONCache(store, 0)})
	ctx := context.Background()

	k := sourcetest.Key
	key := cache.HashKey(cache.StrategyKey(k.Season, k.Event, k.Session))
	require.NoError(t, store.Set(ctx, key, "{not json", 0))

	data, err := svc.Strategy(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, 4, data.TotalLaps)

	raw, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok, "recomputed artifact is cached again")
	assert.NotEqual(t, "{not json", raw)
}

func TestService_Catalog(t *testing.T) {
	svc, dir := newTestService(t, nil)
	ctx := context.Background()
	k := sourcetest.Key

	seasons, err := svc.Seasons(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Season{{Year: 2023, Name: "2023 Season"}}, seasons)

	events, err := svc.Events(ctx, k.Season)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, k.Event, events[0].EventName)
	assert.Equal(t, 1, events[0].RoundNumber)

	sessions, err := svc.Sessions(ctx, k.Season, k.Event)
	require.NoError(t, err)
	assert.Equal(t, []models.Session{{Name: "R", SessionType: "race"}}, sessions)

	// после удаления данных непустые списки приходят из кэша
	require.NoError(t, os.RemoveAll(dir))
	events, err = svc.Events(ctx, k.Season)
	require.NoError(t, err)
	assert.Len(t, events, 1)
	sessions, err = svc.Sessions(ctx, k.Season, k.Event)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	empty, err := svc.Events(ctx, 2019)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = svc.Events(ctx, 2017)
	assert.True(t, errors.Is(err, source.ErrInvalidKey))
	_, err = svc.Sessions(ctx, 2031, k.Event)
	assert.True(t, errors.Is(err, source.ErrInvalidKey))
	_, err = svc.Sessions(ctx, k.Season, "")
	assert.True(t, errors.Is(err, source.ErrInvalidKey))
}

func TestService_PositionsEvolutionDrivers(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	positions, err := svc.Positions(ctx, sourcetest.Key)
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Len(t, positions[0].Positions, 4)

	evolution, err := svc.TrackEvolution(ctx, sourcetest.Key)
	require.NoError(t, err)
	require.NotEmpty(t, evolution.Points)
	assert.Equal(t, 90.0, evolution.Points[len(evolution.Points)-1].BestTime)

	drivers, err := svc.Drivers(ctx, sourcetest.Key)
	require.NoError(t, err)
	assert.Len(t, drivers, 2)

	_, err = svc.Drivers(ctx, source.SessionKey{Season: 2023, Event: "Nowhere", Session: "R"})
	assert.True(t, errors.Is(err, source.ErrNotFound))
}
