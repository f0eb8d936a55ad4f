package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"roomstay/internal/config"
	"roomstay/internal/models"

	"github.com/redis/go-redis/v9"
)

// incrementAttemptsScript bumps the attempt counter only while the ticket
// exists and keeps the counter's expiry aligned with the ticket's.
var incrementAttemptsScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
local n = redis.call('INCR', KEYS[2])
local ttl = redis.call('PTTL', KEYS[1])
if ttl > 0 then
	redis.call('PEXPIRE', KEYS[2], ttl)
end
return n
`)

// RedisTicketRepository keeps verification tickets as JSON values. Keys live
// for the retention window past ExpiresAt; the attempt count is a separate
// counter key so it can be incremented atomically.
type RedisTicketRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisClient builds a Redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisTicketRepository(client *redis.Client) *RedisTicketRepository {
	return &RedisTicketRepository{
		client: client,
		prefix: "roomstay:ticket:",
	}
}

func (r *RedisTicketRepository) key(id string) string {
	return r.prefix + id
}

func (r *RedisTicketRepository) attemptsKey(id string) string {
	return r.prefix + id + ":attempts"
}

// GetTicket returns nil, nil when the ticket does not exist. A ticket past
// ExpiresAt is still returned until the retention window runs out.
func (r *RedisTicketRepository) GetTicket(ctx context.Context, id string) (*models.VerificationTicket, error) {
	if r.client == nil {
		return nil, errors.New("redis client is nil")
	}
	vals, err := r.client.MGet(ctx, r.key(id), r.attemptsKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket from redis: %w", err)
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, nil
	}

	var ticket models.VerificationTicket
	if err := json.Unmarshal([]byte(raw), &ticket); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ticket: %w", err)
	}
	if counter, ok := vals[1].(string); ok {
		attempts, err := strconv.Atoi(counter)
		if err != nil {
			return nil, fmt.Errorf("invalid attempt counter for ticket %s: %w", id, err)
		}
		ticket.Attempts = attempts
	}
	return &ticket, nil
}

func (r *RedisTicketRepository) SaveTicket(ctx context.Context, ticket *models.VerificationTicket) error {
	if r.client == nil {
		return errors.New("redis client is nil")
	}
	ttl := time.Until(ticket.ExpiresAt) + expiredRetention
	if ttl <= 0 {
		return r.DeleteTicket(ctx, ticket.ID)
	}

	data, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(ticket.ID), data, ttl)
		pipe.Set(ctx, r.attemptsKey(ticket.ID), ticket.Attempts, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set ticket in redis: %w", err)
	}
	return nil
}

// IncrementAttempts returns 0 when the ticket does not exist.
func (r *RedisTicketRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	if r.client == nil {
		return 0, errors.New("redis client is nil")
	}
	n, err := incrementAttemptsScript.Run(ctx, r.client, []string{r.key(id), r.attemptsKey(id)}).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to increment ticket attempts: %w", err)
	}
	return n, nil
}

func (r *RedisTicketRepository) DeleteTicket(ctx context.Context, id string) error {
	if r.client == nil {
		return errors.New("redis client is nil")
	}
	if err := r.client.Del(ctx, r.key(id), r.attemptsKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete ticket from redis: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
