package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/remisiones-api/internal/application/billing"
	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/pkg/config"
)

const keyPrefix = "remisiones:"

// Key devuelve la clave Redis del candado; el llamador ya la trae calificada ("invoice:shipment:7").
func Key(name string) string {
	return keyPrefix + name
}

// RedisLocker candado distribuido de facturación sobre Redis (SET NX con TTL).
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

var _ billing.Locker = (*RedisLocker)(nil)

// NewRedisClient abre el cliente y verifica la conexión con un PING.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// NewRedisLocker crea el candado. ttl debe cubrir el timeout de timbrado.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl}
}

// Acquire obtiene el candado sin reintentos; si otro proceso lo tiene devuelve ErrInvoicingInProgress.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	lk, err := l.client.Obtain(ctx, Key(key), l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, domain.ErrInvoicingInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func(ctx context.Context) error {
		if err := lk.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		return nil
	}, nil
}

// NoopLocker no coordina nada; el reclamo en base de datos sigue siendo la garantía.
type NoopLocker struct{}

var _ billing.Locker = NoopLocker{}

func (NoopLocker) Acquire(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
