// Package service собирает артефакты аналитики: кэш -> хранилище -> источник -> движок
package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Tejasvaidya10/laplens/internal/analytics"
	"github.com/Tejasvaidya10/laplens/internal/cache"
	"github.com/Tejasvaidya10/laplens/internal/metrics"
	"github.com/Tejasvaidya10/laplens/internal/models"
	"github.com/Tejasvaidya10/laplens/internal/source"
	"github.com/Tejasvaidya10/laplens/internal/storage"
)

// DefaultMaxPoints число точек в ответе сравнения по умолчанию
const DefaultMaxPoints = 1000

// ArtifactStore хранилище тяжелых артефактов
type ArtifactStore interface {
	UploadJSON(ctx context.Context, key string, value interface{}) error
	DownloadJSON(ctx context.Context, key string, dest interface{}) (bool, error)
}

// Options зависимости сервиса. Cache и Storage необязательны.
type Options struct {
	Source    source.Source
	Cache     *cache.JSONCache
	Storage   ArtifactStore
	Analyzer  *analytics.PaceAnalyzer
	MaxPoints int
}

// Service сервис аналитики сессий
type Service struct {
	source    source.Source
	cache     *cache.JSONCache
	storage   ArtifactStore
	analyzer  *analytics.PaceAnalyzer
	maxPoints int
}

// New создает сервис
func New(opts Options) *Service {
	if opts.MaxPoints <= 0 {
		opts.MaxPoints = DefaultMaxPoints
	}
	if opts.Analyzer == nil {
		opts.Analyzer = analytics.NewPaceAnalyzer(0)
	}
	return &Service{
		source:    opts.Source,
		cache:     opts.Cache,
		storage:   opts.Storage,
		analyzer:  opts.Analyzer,
		maxPoints: opts.MaxPoints,
	}
}

// Compare сравнивает телеметрию двух кругов. Без номера круга берется самый быстрый круг пилота.
func (s *Service) Compare(ctx context.Context, req models.TelemetryCompareRequest) (models.TelemetryComparison, error) {
	var out models.TelemetryComparison

	key := source.SessionKey{Season: req.Season, Event: req.Event, Session: req.Session}
	if err := key.Validate(); err != nil {
		return out, err
	}
	req.DriverA = strings.ToUpper(strings.TrimSpace(req.DriverA))
	req.DriverB = strings.ToUpper(strings.TrimSpace(req.DriverB))
	if req.DriverA == "" || req.DriverB == "" {
		return out, fmt.Errorf("%w: driverA and driverB are required", analytics.ErrInvalidArgument)
	}

	cacheKey := cache.TelemetryKey(req.Season, req.Event, req.Session, req.DriverA, req.DriverB, req.LapA, req.LapB)
	if s.getCached(ctx, "telemetry", cacheKey, &out) {
		return out, nil
	}

	storageKey := storage.TelemetryKey(req.Season, req.Event, req.Session, req.DriverA, req.DriverB, req.LapA, req.LapB)
	if s.storage != nil {
		ok, err := s.storage.DownloadJSON(ctx, storageKey, &out)
		if err != nil {
			log.Printf("Storage read failed for %s: %v", storageKey, err)
		}
		metrics.ObserveStorage(ok)
		if ok {
			s.setCached(ctx, cacheKey, out)
			return out, nil
		}
	}

	laps, err := s.source.Laps(ctx, key)
	if err != nil {
		return out, err
	}
	lapA, err := pickLap(laps, req.DriverA, req.LapA)
	if err != nil {
		return out, err
	}
	lapB, err := pickLap(laps, req.DriverB, req.LapB)
	if err != nil {
		return out, err
	}

	traceA, err := s.trace(ctx, key, lapA)
	if err != nil {
		return out, err
	}
	traceB, err := s.trace(ctx, key, lapB)
	if err != nil {
		return out, err
	}

	out, err = s.compareTraces(req, lapA, lapB, traceA, traceB)
	if err != nil {
		return out, err
	}

	if s.storage != nil {
		if err := s.storage.UploadJSON(ctx, storageKey, out); err != nil {
			log.Printf("Storage write failed for %s: %v", storageKey, err)
		}
	}
	s.setCached(ctx, cacheKey, out)
	return out, nil
}

// compareTraces считает дельту по полным трассам и прореживает трассы для ответа
func (s *Service) compareTraces(req models.TelemetryCompareRequest, lapA, lapB models.LapRecord, traceA, traceB models.LapTrace) (models.TelemetryComparison, error) {
	timer := prometheus.NewTimer(metrics.AnalysisLatency.WithLabelValues("telemetry"))
	defer timer.ObserveDuration()

	delta, err := analytics.ComputeDelta(traceA, traceB, s.maxPoints)
	if err != nil {
		return models.TelemetryComparison{}, err
	}
	if traceA.Samples, err = analytics.DownsampleSamples(traceA.Samples, s.maxPoints); err != nil {
		return models.TelemetryComparison{}, err
	}
	if traceB.Samples, err = analytics.DownsampleSamples(traceB.Samples, s.maxPoints); err != nil {
		return models.TelemetryComparison{}, err
	}

	return models.TelemetryComparison{
		DriverA:  traceA,
		DriverB:  traceB,
		Delta:    delta,
		Summary:  analytics.SummarizeDelta(req.DriverA, req.DriverB, delta),
		SectorsA: lapA.Sectors(),
		SectorsB: lapB.Sectors(),
	}, nil
}

// Strategy возвращает отрезки и пит-стопы всех пилотов
func (s *Service) Strategy(ctx context.Context, key source.SessionKey) (models.StrategyData, error) {
	return cached(ctx, s, key, "strategy", cache.StrategyKey(key.Season, key.Event, key.Session), func() (models.StrategyData, error) {
		laps, err := s.source.Laps(ctx, key)
		if err != nil {
			return models.StrategyData{}, err
		}
		return analytics.Strategy(laps), nil
	})
}

// RacePace анализирует темп пилотов; пустой список означает всех пилотов сессии.
// Пилоты без кругов в сессии пропускаются.
func (s *Service) RacePace(ctx context.Context, key source.SessionKey, drivers []string) (models.RacePace, error) {
	drivers = normalizeDrivers(drivers)
	return cached(ctx, s, key, "race_pace", cache.RacePaceKey(key.Season, key.Event, key.Session, drivers), func() (models.RacePace, error) {
		laps, err := s.source.Laps(ctx, key)
		if err != nil {
			return models.RacePace{}, err
		}

		paces, err := s.analyzer.Analyze(ctx, analytics.PaceInputs(laps, drivers))
		if err != nil {
			return models.RacePace{}, fmt.Errorf("failed to analyze race pace: %w", err)
		}

		s.attachTeams(ctx, key, paces)
		for _, p := range paces {
			for _, lap := range p.Laps {
				if lap.IsOutlier {
					metrics.OutliersDetected.Inc()
				}
			}
		}

		return models.RacePace{
			Drivers:       paces,
			TotalLaps:     analytics.TotalLaps(laps),
			SafetyCarLaps: []int{},
			VSCLaps:       []int{},
		}, nil
	})
}

// Positions возвращает историю позиций по кругам
func (s *Service) Positions(ctx context.Context, key source.SessionKey) ([]models.PositionData, error) {
	return cached(ctx, s, key, "positions", cache.PositionsKey(key.Season, key.Event, key.Session), func() ([]models.PositionData, error) {
		laps, err := s.source.Laps(ctx, key)
		if err != nil {
			return nil, err
		}
		return analytics.PositionHistory(laps), nil
	})
}

// TrackEvolution возвращает прогресс лучшего времени сессии
func (s *Service) TrackEvolution(ctx context.Context, key source.SessionKey) (models.TrackEvolution, error) {
	return cached(ctx, s, key, "track_evolution", cache.TrackEvolutionKey(key.Season, key.Event, key.Session), func() (models.TrackEvolution, error) {
		laps, err := s.source.Laps(ctx, key)
		if err != nil {
			return models.TrackEvolution{}, err
		}
		return analytics.TrackEvolution(laps), nil
	})
}

// Drivers возвращает пилотов сессии
func (s *Service) Drivers(ctx context.Context, key source.SessionKey) ([]models.Driver, error) {
	return cached(ctx, s, key, "drivers", cache.DriversKey(key.Season, key.Event, key.Session), func() ([]models.Driver, error) {
		return s.source.Drivers(ctx, key)
	})
}

// Seasons возвращает сезоны, для которых есть данные, новые первыми
func (s *Service) Seasons(ctx context.Context) ([]models.Season, error) {
	return s.source.Seasons(ctx)
}

// Events возвращает этапы сезона. Пустой список не кэшируется.
func (s *Service) Events(ctx context.Context, season int) ([]models.Event, error) {
	if err := source.ValidateSeason(season); err != nil {
		return nil, err
	}

	var events []models.Event
	key := cache.EventsKey(season)
	if s.getCached(ctx, "events", key, &events) {
		return events, nil
	}

	events, err := s.source.Events(ctx, season)
	if err != nil {
		return nil, err
	}
	if len(events) > 0 {
		s.setCached(ctx, key, events)
	}
	return events, nil
}

// Sessions возвращает сессии этапа. Пустой список не кэшируется.
func (s *Service) Sessions(ctx context.Context, season int, event string) ([]models.Session, error) {
	if err := source.ValidateSeason(season); err != nil {
		return nil, err
	}
	if strings.TrimSpace(event) == "" {
		return nil, fmt.Errorf("%w: event is required", source.ErrInvalidKey)
	}

	var sessions []models.Session
	key := cache.SessionsKey(season, event)
	if s.getCached(ctx, "sessions", key, &sessions) {
		return sessions, nil
	}

	sessions, err := s.source.Sessions(ctx, season, event)
	if err != nil {
		return nil, err
	}
	if len(sessions) > 0 {
		s.setCached(ctx, key, sessions)
	}
	return sessions, nil
}

// cached реализует cache-aside: промах кэша вычисляет артефакт и сохраняет его
func cached[T any](ctx context.Context, s *Service, session source.SessionKey, artifact, key string, compute func() (T, error)) (T, error) {
	var out T
	if err := session.Validate(); err != nil {
		return out, err
	}
	if s.getCached(ctx, artifact, key, &out) {
		return out, nil
	}

	start := time.Now()
	out, err := compute()
	if err != nil {
		return out, err
	}
	metrics.AnalysisLatency.WithLabelValues(artifact).Observe(time.Since(start).Seconds())

	s.setCached(ctx, key, out)
	return out, nil
}

func (s *Service) getCached(ctx context.Context, artifact, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		log.Printf("Cache read failed for %s: %v", key, err)
		// битая запись вытесняется, артефакт будет пересчитан
		if err := s.cache.Delete(ctx, key); err != nil {
			log.Printf("Cache evict failed for %s: %v", key, err)
		}
	}
	metrics.ObserveCache(artifact, ok)
	return ok
}

func (s *Service) setCached(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, 0); err != nil {
		log.Printf("Cache write failed for %s: %v", key, err)
	}
}

// trace загружает телеметрию круга и дополняет ее временем круга из хронометража
func (s *Service) trace(ctx context.Context, key source.SessionKey, lap models.LapRecord) (models.LapTrace, error) {
	t, err := s.source.LapTrace(ctx, key, lap.Driver, lap.LapNumber)
	if err != nil {
		return t, err
	}
	if t.LapTime == nil {
		t.LapTime = lap.LapTime
	}
	return t, nil
}

func (s *Service) attachTeams(ctx context.Context, key source.SessionKey, paces []models.DriverPace) {
	drivers, err := s.Drivers(ctx, key)
	if err != nil {
		log.Printf("Failed to load drivers for %d/%s/%s: %v", key.Season, key.Event, key.Session, err)
		return
	}
	byCode := make(map[string]models.Driver, len(drivers))
	for _, d := range drivers {
		byCode[d.Code] = d
	}
	for i := range paces {
		if d, ok := byCode[paces[i].Driver]; ok {
			paces[i].Team = d.Team
			paces[i].TeamColor = d.TeamColor
		}
	}
}

// pickLap выбирает указанный круг пилота или его самый быстрый круг
func pickLap(laps []models.LapRecord, driver string, lap *int) (models.LapRecord, error) {
	_, byDriver := analytics.GroupByDriver(laps)
	own := byDriver[driver]
	if lap == nil {
		best, ok := analytics.FastestLap(own)
		if !ok {
			return best, fmt.Errorf("%w: no timed laps for %s", source.ErrNotFound, driver)
		}
		return best, nil
	}
	for _, l := range own {
		if l.LapNumber == *lap {
			return l, nil
		}
	}
	return models.LapRecord{}, fmt.Errorf("%w: lap %d for %s", source.ErrNotFound, *lap, driver)
}

func normalizeDrivers(drivers []string) []string {
	out := make([]string, 0, len(drivers))
	for _, d := range drivers {
		if d = strings.ToUpper(strings.TrimSpace(d)); d != "" {
			out = append(out, d)
		}
	}
	return out
}
