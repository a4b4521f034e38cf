package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"pasmino/internal/config"
)

func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker hands out short-lived exclusive locks so that only one instance runs
// a periodic job per tick.
type Locker struct {
	rdb redis.UniversalClient
}

func NewLocker(rdb redis.UniversalClient) *Locker {
	return &Locker{rdb: rdb}
}

// TryLock returns a release func when the lock was acquired, or nil when
// another holder owns it.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	token := uuid.New().String()

	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring lock %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}

	return func(ctx context.Context) error {
		err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("releasing lock %s: %w", key, err)
		}
		return nil
	}, nil
}

// Deduper remembers keys for a TTL.
type Deduper struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewDeduper(rdb redis.UniversalClient, prefix string) *Deduper {
	return &Deduper{rdb: rdb, prefix: prefix}
}

// FirstSeen reports true only for the first call with key within ttl.
func (d *Deduper) FirstSeen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, d.prefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check %s: %w", key, err)
	}
	return ok, nil
}
