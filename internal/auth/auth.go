// Package auth проверяет JWT-токены пользователей (HS256)
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Audience ожидаемая аудитория токена
const Audience = "authenticated"

// ErrUnauthorized токен отсутствует или невалиден
var ErrUnauthorized = errors.New("unauthorized")

// User аутентифицированный пользователь
type User struct {
	ID    string
	Email string
}

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type contextKey struct{}

// Verifier проверяет подписи токенов общим секретом
type Verifier struct {
	secret []byte
}

// NewVerifier создает верификатор. С пустым секретом отклоняется любой токен.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Enabled сообщает, настроен ли секрет
func (v *Verifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// Verify разбирает и проверяет токен
func (v *Verifier) Verify(token string) (User, error) {
	if !v.Enabled() {
		return User{}, fmt.Errorf("%w: authentication not configured", ErrUnauthorized)
	}

	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(Audience),
	)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if c.Subject == "" {
		return User{}, fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return User{ID: c.Subject, Email: c.Email}, nil
}

// UserFromRequest возвращает пользователя из заголовка Authorization, если токен валиден
func (v *Verifier) UserFromRequest(r *http.Request) (User, bool) {
	if u, ok := FromContext(r.Context()); ok {
		return u, true
	}
	token, ok := bearerToken(r)
	if !ok {
		return User{}, false
	}
	u, err := v.Verify(token)
	if err != nil {
		return User{}, false
	}
	return u, true
}

// Require middleware, пропускающий только запросы с валидным токеном
func (v *Verifier) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			unauthorized(w, "missing bearer token")
			return
		}
		u, err := v.Verify(token)
		if err != nil {
			unauthorized(w, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// WithUser кладет пользователя в контекст
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// FromContext достает пользователя из контекста
func FromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(contextKey{}).(User)
	return u, ok
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
