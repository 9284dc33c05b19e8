// Package metrics реализует экспорт метрик в Prometheus
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus метрики
var (
	// RequestsTotal общее количество запросов
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laplens_requests_total",
			Help: "Total number of requests processed",
		},
		[]string{"endpoint", "method", "status"},
	)

	// RequestDuration длительность запросов
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "laplens_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"endpoint", "method"},
	)

	// CacheHits попадания в кэш
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laplens_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"artifact"},
	)

	// CacheMisses промахи кэша
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laplens_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"artifact"},
	)

	// StorageHits артефакты, найденные в объектном хранилище
	StorageHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "laplens_storage_hits_total",
			Help: "Total number of artifacts served from object storage",
		},
	)

	// StorageMisses артефакты, отсутствующие в объектном хранилище
	StorageMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "laplens_storage_misses_total",
			Help: "Total number of object storage misses",
		},
	)

	// AnalysisLatency время вычисления артефакта
	AnalysisLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "laplens_analysis_latency_seconds",
			Help:    "Analysis computation latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .5},
		},
		[]string{"artifact"},
	)

	// RateLimited отклоненные лимитером запросы
	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "laplens_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	// OutliersDetected круги, помеченные как выбросы
	OutliersDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "laplens_outlier_laps_total",
			Help: "Total number of laps classified as outliers",
		},
	)

	// DriversAnalyzed пилоты, обработанные анализатором темпа
	DriversAnalyzed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "laplens_drivers_analyzed",
			Help: "Drivers processed by the pace analyzer since start",
		},
	)

	// ActiveGoroutines количество активных горутин
	ActiveGoroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "laplens_active_goroutines",
			Help: "Number of active goroutines",
		},
	)
)

// ObserveCache учитывает попадание или промах кэша для артефакта
func ObserveCache(artifact string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(artifact).Inc()
		return
	}
	CacheMisses.WithLabelValues(artifact).Inc()
}

// ObserveStorage учитывает попадание или промах объектного хранилища
func ObserveStorage(hit bool) {
	if hit {
		StorageHits.Inc()
		return
	}
	StorageMisses.Inc()
}
