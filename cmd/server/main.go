// Package main запускает сервис аналитики телеметрии LapLens
// Сервис реализует:
// - сравнение телеметрии двух кругов (LTTB-прореживание и дельта по дистанции)
// - стратегию по шинам, темп гонки с деградацией, позиции и эволюцию трассы
// - кэширование в Redis и хранение тяжелых артефактов в S3
// - сохраненные анализы пользователей в SQLite с JWT-аутентификацией
// - экспорт метрик в Prometheus
package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tejasvaidya10/laplens/internal/analytics"
	"github.com/Tejasvaidya10/laplens/internal/auth"
	"github.com/Tejasvaidya10/laplens/internal/cache"
	"github.com/Tejasvaidya10/laplens/internal/config"
	"github.com/Tejasvaidya10/laplens/internal/handlers"
	"github.com/Tejasvaidya10/laplens/internal/metrics"
	"github.com/Tejasvaidya10/laplens/internal/ratelimit"
	"github.com/Tejasvaidya10/laplens/internal/savedanalyses"
	"github.com/Tejasvaidya10/laplens/internal/service"
	"github.com/Tejasvaidya10/laplens/internal/source"
	"github.com/Tejasvaidya10/laplens/internal/storage"
)

func main() {
	log.Println("Starting LapLens...")
	log.Printf("Go version: %s", runtime.Version())
	log.Printf("NumCPU: %d", runtime.NumCPU())

	// Загружаем конфигурацию
	cfg := config.Load()

	// Инициализируем анализатор темпа
	analyzer := analytics.NewPaceAnalyzer(cfg.BufferSize)
	analyzer.Start(cfg.WorkerCount)
	log.Printf("Pace analyzer started with %d workers", cfg.WorkerCount)

	// Инициализируем кэш: Redis с повторами, иначе память процесса
	store := connectCache(cfg)

	// Объектное хранилище включается только при заданном бакете
	var artifacts service.ArtifactStore
	storageEnabled := false
	if cfg.S3Bucket != "" {
		s3Storage, err := storage.NewS3Storage(cfg.AWSRegion, cfg.S3Bucket)
		if err != nil {
			log.Printf("Warning: S3 storage disabled: %v", err)
		} else {
			artifacts = s3Storage
			storageEnabled = true
			log.Printf("S3 storage enabled: bucket %s", s3Storage.Bucket())
		}
	}

	// Сохраненные анализы
	var saved *savedanalyses.Store
	if cfg.SQLitePath != "" {
		var err error
		saved, err = savedanalyses.Open(cfg.SQLitePath)
		if err != nil {
			log.Printf("Warning: saved analyses disabled: %v", err)
		} else {
			log.Printf("Saved analyses database at %s", cfg.SQLitePath)
		}
	}

	verifier := auth.NewVerifier(cfg.JWTSecret)
	if !verifier.Enabled() {
		log.Printf("Warning: JWT_SECRET is not set, authenticated endpoints will reject all requests")
	}

	svc := service.New(service.Options{
		Source:    source.NewFileSource(cfg.DataDir),
		Cache:     cache.NewJSONCache(store, cfg.CacheTTL),
		Storage:   artifacts,
		Analyzer:  analyzer,
		MaxPoints: cfg.MaxPoints,
	})

	// Создаем обработчики
	handler := handlers.NewHandler(handlers.Options{
		Service:        svc,
		Cache:          store,
		Saved:          saved,
		Verifier:       verifier,
		StorageEnabled: storageEnabled,
	})

	limiter := ratelimit.New(rateBackend(store), verifier, ratelimit.Config{
		Requests:              cfg.RateLimitRequests,
		AuthenticatedRequests: cfg.RateLimitAuthenticatedRequests,
		Window:                cfg.RateLimitWindow,
	})

	// Настраиваем маршруты
	router := newRouter(handler, limiter, cfg.CORSOrigins)

	// Создаем HTTP сервер с настройками таймаутов
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Запускаем горутину для обновления метрик
	go updateMetricsLoop(analyzer)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Server listening on %s", cfg.ServerAddr)
		log.Printf("Endpoints:")
		log.Printf("  GET    /health              - Health check")
		log.Printf("  GET    /seasons             - Seasons with data")
		log.Printf("  GET    /events              - Season events")
		log.Printf("  GET    /sessions            - Event sessions")
		log.Printf("  GET    /drivers             - Session drivers")
		log.Printf("  POST   /telemetry/compare   - Compare two laps")
		log.Printf("  GET    /strategy            - Tyre strategy")
		log.Printf("  GET    /race-pace           - Race pace and degradation")
		log.Printf("  GET    /positions           - Position history")
		log.Printf("  GET    /track-evolution     - Track evolution")
		log.Printf("  *      /saved-analyses      - Saved analyses (auth)")
		log.Printf("  GET    /prometheus          - Prometheus metrics")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	<-stop
	log.Println("Shutting down server...")

	// Контекст с таймаутом для завершения
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Завершаем HTTP сервер
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	// Останавливаем анализатор
	analyzer.Stop()

	if saved != nil {
		saved.Close()
	}
	store.Close()

	log.Println("Server stopped")
}

// connectCache подключается к Redis с повторами; при неудаче возвращает кэш в памяти
func connectCache(cfg config.Config) cache.Store {
	var redisCache *cache.RedisCache
	var err error

	for i := 0; i < 5; i++ {
		redisCache, err = cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err == nil {
			log.Printf("Connected to Redis at %s", cfg.RedisAddr)
			return redisCache
		}
		log.Printf("Redis connection attempt %d failed: %v", i+1, err)
		if i < 4 {
			time.Sleep(time.Duration(i+1) * time.Second)
		}
	}

	log.Printf("Warning: Failed to connect to Redis, using in-memory cache: %v", err)
	return cache.NewMemoryCache()
}

// newRouter собирает маршруты API с middleware. CORS оборачивает весь роутер,
// чтобы preflight-запросы отвечались без совпадения маршрута.
func newRouter(handler *handlers.Handler, limiter *ratelimit.Limiter, origins []string) http.Handler {
	router := mux.NewRouter()
	handler.Register(router)

	// Prometheus метрики
	router.Handle("/prometheus", promhttp.Handler())

	// pprof для профилирования
	router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)

	// Middleware для логирования, метрик и лимитов
	router.Use(loggingMiddleware)
	router.Use(metricsMiddleware)
	router.Use(limiter.Middleware)

	return ghandlers.CORS(
		ghandlers.AllowedOrigins(origins),
		ghandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		ghandlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		ghandlers.OptionStatusCode(http.StatusNoContent),
	)(router)
}

// rateBackend выбирает бэкенд лимитов: GCRA в Redis или окно в памяти
func rateBackend(store cache.Store) ratelimit.Backend {
	if rc, ok := store.(*cache.RedisCache); ok {
		return ratelimit.NewRedisBackend(rc.Client())
	}
	return ratelimit.NewWindowBackend(store)
}

// loggingMiddleware логирует HTTP запросы
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// metricsMiddleware обновляет метрику горутин для каждого запроса
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.ActiveGoroutines.Set(float64(runtime.NumGoroutine()))
		next.ServeHTTP(w, r)
	})
}

// updateMetricsLoop периодически обновляет метрики Prometheus
func updateMetricsLoop(analyzer *analytics.PaceAnalyzer) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		processed, _ := analyzer.GetStats()
		metrics.DriversAnalyzed.Set(float64(processed))
		metrics.ActiveGoroutines.Set(float64(runtime.NumGoroutine()))
	}
}
