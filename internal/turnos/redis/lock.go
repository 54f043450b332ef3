package redis

import (
	"context"
	"fmt"
	"time"

	"ms-turnos/internal/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	defaultLockTTL       = 5 * time.Second
	defaultRetryInterval = 20 * time.Millisecond
)

// unlockScript deletes the key only while it still holds our token, so a
// holder whose lock expired cannot release someone else's.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Sequencer serializes ticket issuance per date across every process that
// shares the same redis.
type Sequencer struct {
	Client        *redis.Client
	TTL           time.Duration
	RetryInterval time.Duration
	Logger        *logger.Logger
}

func NewSequencer(client *redis.Client, ttl time.Duration, log *logger.Logger) *Sequencer {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Sequencer{
		Client:        client,
		TTL:           ttl,
		RetryInterval: defaultRetryInterval,
		Logger:        log,
	}
}

func lockKey(date string) string {
	return "turno_lock:" + date
}

// Acquire spins on SETNX until the date lock is free or ctx ends.
func (s *Sequencer) Acquire(ctx context.Context, date string) (func(), error) {
	key := lockKey(date)
	token := uuid.NewString()

	for {
		ok, err := s.Client.SetNX(ctx, key, token, s.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.RetryInterval):
		}
	}

	return func() {
		if err := s.unlock(key, token); err != nil {
			s.Logger.Error("REDIS", fmt.Sprintf("Failed to release %s: %v", key, err))
		}
	}, nil
}

func (s *Sequencer) unlock(key, token string) error {
	// Released even when the request context is already cancelled
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return unlockScript.Run(ctx, s.Client, []string{key}, token).Err()
}

// Ping checks the connection at startup.
func (s *Sequencer) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}
