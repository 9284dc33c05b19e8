// Package ratelimit ограничивает число запросов клиента за окно
package ratelimit

import (
	"encoding/json"
	"log"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Tejasvaidya10/laplens/internal/auth"
	"github.com/Tejasvaidya10/laplens/internal/metrics"
)

// Config лимиты на окно
type Config struct {
	Requests              int
	AuthenticatedRequests int
	Window                time.Duration
}

// Limiter ограничитель запросов поверх Backend
type Limiter struct {
	backend  Backend
	verifier *auth.Verifier
	cfg      Config
	exempt   map[string]bool
	now      func() time.Time
}

// New создает ограничитель. verifier может быть nil, тогда все клиенты анонимные.
func New(backend Backend, verifier *auth.Verifier, cfg Config) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &Limiter{
		backend:  backend,
		verifier: verifier,
		cfg:      cfg,
		exempt:   map[string]bool{"/health": true, "/prometheus": true},
		now:      time.Now,
	}
}

// Middleware возвращает http middleware ограничителя
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.exempt[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		client, limit := l.identify(r)
		if limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		d, err := l.backend.Allow(r.Context(), "ratelimit:"+client, limit, l.cfg.Window)
		if err != nil {
			log.Printf("Rate limit check failed for %s: %v", client, err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(l.now().Add(d.ResetAfter).Unix(), 10))

		if !d.Allowed {
			metrics.RateLimited.Inc()
			w.Header().Set("Retry-After", strconv.FormatInt(seconds(d.RetryAfter), 10))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// seconds округляет длительность вверх до целых секунд, не меньше 1
func seconds(d time.Duration) int64 {
	s := int64(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// identify возвращает идентификатор клиента и его лимит
func (l *Limiter) identify(r *http.Request) (string, int) {
	if l.verifier != nil {
		if u, ok := l.verifier.UserFromRequest(r); ok {
			return "user:" + u.ID, l.cfg.AuthenticatedRequests
		}
	}
	return "ip:" + ClientIP(r), l.cfg.Requests
}

// ClientIP адрес клиента: первый из X-Forwarded-For или хост RemoteAddr
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
