package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"

	"github.com/Tejasvaidya10/laplens/internal/cache"
)

// Decision результат проверки лимита
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	ResetAfter time.Duration
}

// Backend считает запросы клиента и решает, пропускать ли очередной
type Backend interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

// RedisBackend лимит по GCRA в Redis
type RedisBackend struct {
	limiter *redis_rate.Limiter
}

// NewRedisBackend создает бэкенд поверх клиента Redis
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{limiter: redis_rate.NewLimiter(client)}
}

// Allow учитывает запрос; limit запросов за window с тем же запасом
func (b *RedisBackend) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	res, err := b.limiter.Allow(ctx, key, redis_rate.Limit{Rate: limit, Burst: limit, Period: window})
	if err != nil {
		return Decision{}, fmt.Errorf("failed to check rate limit: %w", err)
	}
	d := Decision{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		ResetAfter: res.ResetAfter,
	}
	if !d.Allowed {
		d.RetryAfter = res.RetryAfter
	}
	return d, nil
}

// WindowBackend фиксированное окно на счетчиках Store.
// Работает с кэшем в памяти, где нет скриптов Redis.
type WindowBackend struct {
	store cache.Store
	now   func() time.Time
}

// NewWindowBackend создает бэкенд фиксированного окна
func NewWindowBackend(store cache.Store) *WindowBackend {
	return &WindowBackend{store: store, now: time.Now}
}

// Allow увеличивает счетчик текущего окна
func (b *WindowBackend) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	windowSec := int64(window / time.Second)
	if windowSec <= 0 {
		windowSec = 1
	}
	now := b.now().Unix()
	current := now / windowSec
	resetAfter := time.Duration((current+1)*windowSec-now) * time.Second

	counter := fmt.Sprintf("%s:%d", key, current)
	count, err := b.store.Incr(ctx, counter)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to increment rate counter: %w", err)
	}
	if count == 1 {
		if err := b.store.Expire(ctx, counter, window); err != nil {
			return Decision{}, fmt.Errorf("failed to set rate counter expiry: %w", err)
		}
	}

	remaining := int64(limit) - count
	if remaining < 0 {
		remaining = 0
	}
	d := Decision{Allowed: count <= int64(limit), Remaining: int(remaining), ResetAfter: resetAfter}
	if !d.Allowed {
		d.RetryAfter = resetAfter
	}
	return d, nil
}
