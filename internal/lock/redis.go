package lock

import (
	"context"
	"fmt"
	"time"

	"roomstay/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serialises writers for a room across processes sharing a
// Redis instance. The key expires after ttl so a crashed holder cannot
// block the room forever.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
	logger *zerolog.Logger
}

func NewRedisLocker(client *redis.Client, ttl, wait time.Duration, logger *zerolog.Logger) *RedisLocker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &RedisLocker{
		client: client,
		prefix: "roomstay:lock:room:",
		ttl:    ttl,
		wait:   wait,
		retry:  25 * time.Millisecond,
		logger: logger,
	}
}

func (l *RedisLocker) key(roomID int64) string {
	return fmt.Sprintf("%s%d", l.prefix, roomID)
}

func (l *RedisLocker) Lock(ctx context.Context, roomID int64) (func(), error) {
	key := l.key(roomID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire room lock: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("room %d: %w", roomID, domain.ErrLockNotAcquired)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("room %d: %w", roomID, domain.ErrLockNotAcquired)
		case <-time.After(l.retry):
		}
	}

	return func() {
		// release on a fresh context so a cancelled request still frees the room
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn().Err(err).Int64("room_id", roomID).Msg("failed to release room lock")
		}
	}, nil
}

var _ domain.RoomLocker = (*RedisLocker)(nil)
