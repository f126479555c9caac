package lock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisBookingLocker serializes booking attempts per barber across instances.
// The database guard stays authoritative: when redis is unreachable the
// attempt proceeds unlocked.
type RedisBookingLocker struct {
	client *redis.Client
	script *redis.Script
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
	log    *zap.Logger
}

func NewRedisBookingLocker(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisBookingLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisBookingLocker{
		client: client,
		script: redis.NewScript(releaseScript),
		ttl:    ttl,
		wait:   2 * time.Second,
		retry:  50 * time.Millisecond,
		log:    log,
	}
}

func Key(barberID uuid.UUID) string {
	return "booking:barber:" + barberID.String()
}

// Lock returns booking_busy when the lock is still held after the wait window.
func (l *RedisBookingLocker) Lock(ctx context.Context, barberID uuid.UUID) (func(), error) {
	key := Key(barberID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			l.log.Warn("booking lock unavailable, continuing without it",
				zap.String("barber_id", barberID.String()),
				zap.Error(err),
			)
			return func() {}, nil
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		if time.Now().After(deadline) {
			return nil, httperr.ErrBusiness("booking_busy")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

func (l *RedisBookingLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := l.script.Run(ctx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
		l.log.Warn("booking lock release failed", zap.String("key", key), zap.Error(err))
	}
}

// NewClient parses a redis:// URL.
func NewClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}

var _ domain.BookingLocker = (*RedisBookingLocker)(nil)
