// Package handlers содержит HTTP обработчики для API
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Tejasvaidya10/laplens/internal/analytics"
	"github.com/Tejasvaidya10/laplens/internal/auth"
	"github.com/Tejasvaidya10/laplens/internal/cache"
	"github.com/Tejasvaidya10/laplens/internal/metrics"
	"github.com/Tejasvaidya10/laplens/internal/models"
	"github.com/Tejasvaidya10/laplens/internal/savedanalyses"
	"github.com/Tejasvaidya10/laplens/internal/service"
	"github.com/Tejasvaidya10/laplens/internal/source"
)

// Version версия API в ответе /health
const Version = "1.0.0"

// maxBodyBytes ограничение тела запроса
const maxBodyBytes = 1 << 20

// errServiceDisabled зависимость не настроена
var errServiceDisabled = errors.New("service not configured")

// Options зависимости обработчиков. Cache, Saved и Verifier необязательны.
type Options struct {
	Service        *service.Service
	Cache          cache.Store
	Saved          *savedanalyses.Store
	Verifier       *auth.Verifier
	StorageEnabled bool
}

// Handler содержит зависимости для HTTP обработчиков
type Handler struct {
	service        *service.Service
	cache          cache.Store
	saved          *savedanalyses.Store
	verifier       *auth.Verifier
	storageEnabled bool
	startTime      time.Time
}

// NewHandler создает новый обработчик
func NewHandler(opts Options) *Handler {
	if opts.Verifier == nil {
		opts.Verifier = auth.NewVerifier("")
	}
	return &Handler{
		service:        opts.Service,
		cache:          opts.Cache,
		saved:          opts.Saved,
		verifier:       opts.Verifier,
		storageEnabled: opts.StorageEnabled,
		startTime:      time.Now(),
	}
}

// Register регистрирует маршруты API
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/health", h.HealthHandler).Methods("GET")
	router.HandleFunc("/seasons", h.SeasonsHandler).Methods("GET")
	router.HandleFunc("/events", h.EventsHandler).Methods("GET")
	router.HandleFunc("/sessions", h.SessionsHandler).Methods("GET")
	router.HandleFunc("/drivers", h.DriversHandler).Methods("GET")
	router.HandleFunc("/telemetry/compare", h.CompareHandler).Methods("POST")
	router.HandleFunc("/strategy", h.StrategyHandler).Methods("GET")
	router.HandleFunc("/race-pace", h.RacePaceHandler).Methods("GET")
	router.HandleFunc("/positions", h.PositionsHandler).Methods("GET")
	router.HandleFunc("/track-evolution", h.TrackEvolutionHandler).Methods("GET")

	saved := router.PathPrefix("/saved-analyses").Subrouter()
	saved.Use(h.verifier.Require)
	saved.HandleFunc("", h.CreateSavedHandler).Methods("POST")
	saved.HandleFunc("", h.ListSavedHandler).Methods("GET")
	saved.HandleFunc("/{id}", h.GetSavedHandler).Methods("GET")
	saved.HandleFunc("/{id}", h.DeleteSavedHandler).Methods("DELETE")
}

// HealthHandler обрабатывает GET /health - проверка здоровья
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	redisStatus := "disconnected"
	if h.cache != nil && h.cache.Ping(ctx) == nil {
		redisStatus = "connected"
	}
	if _, ok := h.cache.(*cache.MemoryCache); ok {
		redisStatus = "memory"
	}

	storageStatus := "disabled"
	if h.storageEnabled {
		storageStatus = "enabled"
	}

	dbStatus := "disabled"
	if h.saved != nil {
		dbStatus = "connected"
		if err := h.saved.Ping(ctx); err != nil {
			dbStatus = "disconnected"
		}
	}

	status := models.HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   Version,
		Redis:     redisStatus,
		Storage:   storageStatus,
		Database:  dbStatus,
		Uptime:    time.Since(h.startTime).String(),
	}

	h.respondJSON(w, status, http.StatusOK)
}

// SeasonsHandler обрабатывает GET /seasons - сезоны с данными
func (h *Handler) SeasonsHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/seasons", r.Method))
	defer timer.ObserveDuration()

	seasons, err := h.service.Seasons(r.Context())
	if err != nil {
		h.fail(w, r, "/seasons", err)
		return
	}
	h.ok(w, r, "/seasons", seasons)
}

// EventsHandler обрабатывает GET /events?season= - этапы сезона
func (h *Handler) EventsHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/events", r.Method))
	defer timer.ObserveDuration()

	season, err := seasonParam(r)
	if err != nil {
		h.fail(w, r, "/events", err)
		return
	}

	events, err := h.service.Events(r.Context(), season)
	if err != nil {
		h.fail(w, r, "/events", err)
		return
	}
	h.ok(w, r, "/events", events)
}

// SessionsHandler обрабатывает GET /sessions?season=&event= - сессии этапа
func (h *Handler) SessionsHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/sessions", r.Method))
	defer timer.ObserveDuration()

	season, err := seasonParam(r)
	if err != nil {
		h.fail(w, r, "/sessions", err)
		return
	}
	event := r.URL.Query().Get("event")
	if strings.TrimSpace(event) == "" {
		h.fail(w, r, "/sessions", badRequest("event is required"))
		return
	}

	sessions, err := h.service.Sessions(r.Context(), season, event)
	if err != nil {
		h.fail(w, r, "/sessions", err)
		return
	}
	h.ok(w, r, "/sessions", sessions)
}

// DriversHandler обрабатывает GET /drivers - пилоты сессии
func (h *Handler) DriversHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/drivers", r.Method))
	defer timer.ObserveDuration()

	key, err := sessionKey(r)
	if err != nil {
		h.fail(w, r, "/drivers", err)
		return
	}

	drivers, err := h.service.Drivers(r.Context(), key)
	if err != nil {
		h.fail(w, r, "/drivers", err)
		return
	}
	h.ok(w, r, "/drivers", drivers)
}

// CompareHandler обрабатывает POST /telemetry/compare - сравнение телеметрии двух кругов
func (h *Handler) CompareHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/telemetry/compare", r.Method))
	defer timer.ObserveDuration()

	var req models.TelemetryCompareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, "/telemetry/compare", err)
		return
	}

	cmp, err := h.service.Compare(r.Context(), req)
	if err != nil {
		h.fail(w, r, "/telemetry/compare", err)
		return
	}
	h.ok(w, r, "/telemetry/compare", cmp)
}

// StrategyHandler обрабатывает GET /strategy - стратегия по шинам
func (h *Handler) StrategyHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/strategy", r.Method))
	defer timer.ObserveDuration()

	key, err := sessionKey(r)
	if err != nil {
		h.fail(w, r, "/strategy", err)
		return
	}

	data, err := h.service.Strategy(r.Context(), key)
	if err != nil {
		h.fail(w, r, "/strategy", err)
		return
	}
	h.ok(w, r, "/strategy", data)
}

// RacePaceHandler обрабатывает GET /race-pace?drivers=A,B - темп гонки
func (h *Handler) RacePaceHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/race-pace", r.Method))
	defer timer.ObserveDuration()

	key, err := sessionKey(r)
	if err != nil {
		h.fail(w, r, "/race-pace", err)
		return
	}

	var drivers []string
	if raw := r.URL.Query().Get("drivers"); raw != "" {
		drivers = strings.Split(raw, ",")
	}

	pace, err := h.service.RacePace(r.Context(), key, drivers)
	if err != nil {
		h.fail(w, r, "/race-pace", err)
		return
	}
	h.ok(w, r, "/race-pace", pace)
}

// PositionsHandler обрабатывает GET /positions - история позиций
func (h *Handler) PositionsHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/positions", r.Method))
	defer timer.ObserveDuration()

	key, err := sessionKey(r)
	if err != nil {
		h.fail(w, r, "/positions", err)
		return
	}

	positions, err := h.service.Positions(r.Context(), key)
	if err != nil {
		h.fail(w, r, "/positions", err)
		return
	}
	h.ok(w, r, "/positions", positions)
}

// TrackEvolutionHandler обрабатывает GET /track-evolution - эволюция трассы
func (h *Handler) TrackEvolutionHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/track-evolution", r.Method))
	defer timer.ObserveDuration()

	key, err := sessionKey(r)
	if err != nil {
		h.fail(w, r, "/track-evolution", err)
		return
	}

	evolution, err := h.service.TrackEvolution(r.Context(), key)
	if err != nil {
		h.fail(w, r, "/track-evolution", err)
		return
	}
	h.ok(w, r, "/track-evolution", evolution)
}

// CreateSavedHandler обрабатывает POST /saved-analyses
func (h *Handler) CreateSavedHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/saved-analyses", r.Method))
	defer timer.ObserveDuration()

	user, err := h.savedUser(r)
	if err != nil {
		h.fail(w, r, "/saved-analyses", err)
		return
	}

	var in models.SavedAnalysisCreate
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, "/saved-analyses", err)
		return
	}

	a, err := h.saved.Create(r.Context(), user.ID, in)
	if err != nil {
		h.fail(w, r, "/saved-analyses", err)
		return
	}
	metrics.RequestsTotal.WithLabelValues("/saved-analyses", r.Method, "201").Inc()
	h.respondJSON(w, a, http.StatusCreated)
}

// ListSavedHandler обрабатывает GET /saved-analyses
func (h *Handler) ListSavedHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/saved-analyses", r.Method))
	defer timer.ObserveDuration()

	user, err := h.savedUser(r)
	if err != nil {
		h.fail(w, r, "/saved-analyses", err)
		return
	}

	list, err := h.saved.List(r.Context(), user.ID)
	if err != nil {
		h.fail(w, r, "/saved-analyses", err)
		return
	}
	h.ok(w, r, "/saved-analyses", list)
}

// GetSavedHandler обрабатывает GET /saved-analyses/{id}
func (h *Handler) GetSavedHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/saved-analyses/{id}", r.Method))
	defer timer.ObserveDuration()

	user, err := h.savedUser(r)
	if err != nil {
		h.fail(w, r, "/saved-analyses/{id}", err)
		return
	}

	a, err := h.saved.Get(r.Context(), mux.Vars(r)["id"], user.ID)
	if err != nil {
		h.fail(w, r, "/saved-analyses/{id}", err)
		return
	}
	h.ok(w, r, "/saved-analyses/{id}", a)
}

// DeleteSavedHandler обрабатывает DELETE /saved-analyses/{id}
func (h *Handler) DeleteSavedHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/saved-analyses/{id}", r.Method))
	defer timer.ObserveDuration()

	user, err := h.savedUser(r)
	if err != nil {
		h.fail(w, r, "/saved-analyses/{id}", err)
		return
	}

	if err := h.saved.Delete(r.Context(), mux.Vars(r)["id"], user.ID); err != nil {
		h.fail(w, r, "/saved-analyses/{id}", err)
		return
	}
	metrics.RequestsTotal.WithLabelValues("/saved-analyses/{id}", r.Method, "204").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// savedUser проверяет, что хранилище включено, и возвращает пользователя запроса
func (h *Handler) savedUser(r *http.Request) (auth.User, error) {
	if h.saved == nil {
		return auth.User{}, errServiceDisabled
	}
	user, ok := auth.FromContext(r.Context())
	if !ok {
		return auth.User{}, auth.ErrUnauthorized
	}
	return user, nil
}

// sessionKey разбирает season, event и session из строки запроса
func seasonParam(r *http.Request) (int, error) {
	season, err := strconv.Atoi(r.URL.Query().Get("season"))
	if err != nil {
		return 0, badRequest("season must be an integer")
	}
	return season, source.ValidateSeason(season)
}

func sessionKey(r *http.Request) (source.SessionKey, error) {
	q := r.URL.Query()
	season, err := strconv.Atoi(q.Get("season"))
	if err != nil {
		return source.SessionKey{}, badRequest("season must be an integer")
	}
	key := source.SessionKey{Season: season, Event: q.Get("event"), Session: q.Get("session")}
	return key, key.Validate()
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dest); err != nil {
		return badRequest("Invalid JSON: " + err.Error())
	}
	return nil
}

func badRequest(msg string) error {
	return &requestError{msg: msg}
}

// requestError ошибка разбора запроса
type requestError struct {
	msg string
}

func (e *requestError) Error() string {
	return e.msg
}

// statusFor сопоставляет ошибку с HTTP статусом
func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr),
		errors.Is(err, analytics.ErrInvalidArgument),
		errors.Is(err, source.ErrInvalidKey),
		errors.Is(err, savedanalyses.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, source.ErrNotFound),
		errors.Is(err, savedanalyses.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errServiceDisabled),
		errors.Is(err, analytics.ErrAnalyzerStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ok отправляет успешный ответ и учитывает запрос
func (h *Handler) ok(w http.ResponseWriter, r *http.Request, endpoint string, data interface{}) {
	metrics.RequestsTotal.WithLabelValues(endpoint, r.Method, "200").Inc()
	h.respondJSON(w, data, http.StatusOK)
}

// fail отправляет ошибку со статусом по ее типу и учитывает запрос
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	status := statusFor(err)
	metrics.RequestsTotal.WithLabelValues(endpoint, r.Method, strconv.Itoa(status)).Inc()

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", r.Method, endpoint, err)
		message = "internal server error"
	}
	h.respondError(w, message, status)
}

// respondJSON отправляет JSON ответ
func (h *Handler) respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError отправляет ошибку в JSON формате
func (h *Handler) respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
