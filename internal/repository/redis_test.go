package repository

import (
	"context"
	"testing"
	"time"

	"roomstay/internal/config"
	"roomstay/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisTicketRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer client.Close()

	repo := NewRedisTicketRepository(client)
	ctx := context.Background()

	t.Run("SaveAndGetTicket", func(t *testing.T) {
		ticket := &models.VerificationTicket{
			ID:        "t-1",
			Email:     "ada@example.com",
			CodeHash:  "hash",
			ExpiresAt: time.Now().Add(10 * time.Minute),
		}
		require.NoError(t, repo.SaveTicket(ctx, ticket))

		got, err := repo.GetTicket(ctx, "t-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "ada@example.com", got.Email)
		assert.Equal(t, "hash", got.CodeHash)

		ttl := s.TTL("roomstay:ticket:t-1")
		lower := 10*time.Minute + expiredRetention - time.Minute
		assert.True(t, ttl > lower && ttl <= 10*time.Minute+expiredRetention, "ttl %s", ttl)
	})

	t.Run("IncrementAttempts", func(t *testing.T) {
		for want := 1; want <= 2; want++ {
			n, err := repo.IncrementAttempts(ctx, "t-1")
			require.NoError(t, err)
			assert.Equal(t, want, n)
		}
		got, err := repo.GetTicket(ctx, "t-1")
		require.NoError(t, err)
		assert.Equal(t, 2, got.Attempts)
		assert.Equal(t, s.TTL("roomstay:ticket:t-1"), s.TTL("roomstay:ticket:t-1:attempts"))

		n, err := repo.IncrementAttempts(ctx, "missing")
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.False(t, s.Exists("roomstay:ticket:missing:attempts"))
	})

	t.Run("ExpiredTicketKeptForRetention", func(t *testing.T) {
		s.FastForward(11 * time.Minute)
		got, err := repo.GetTicket(ctx, "t-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 2, got.Attempts)
	})

	t.Run("TicketEvictedAfterRetention", func(t *testing.T) {
		s.FastForward(expiredRetention)
		got, err := repo.GetTicket(ctx, "t-1")
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.False(t, s.Exists("roomstay:ticket:t-1:attempts"))
	})

	t.Run("GetNonExistentTicket", func(t *testing.T) {
		got, err := repo.GetTicket(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("DeleteTicket", func(t *testing.T) {
		ticket := &models.VerificationTicket{ID: "t-2", ExpiresAt: time.Now().Add(time.Minute)}
		require.NoError(t, repo.SaveTicket(ctx, ticket))
		require.NoError(t, repo.DeleteTicket(ctx, "t-2"))
		assert.False(t, s.Exists("roomstay:ticket:t-2"))
		assert.False(t, s.Exists("roomstay:ticket:t-2:attempts"))
	})

	t.Run("SaveLongExpiredTicketDeletes", func(t *testing.T) {
		require.NoError(t, repo.SaveTicket(ctx, &models.VerificationTicket{ID: "t-3", ExpiresAt: time.Now().Add(time.Minute)}))
		require.NoError(t, repo.SaveTicket(ctx, &models.VerificationTicket{ID: "t-3", ExpiresAt: time.Now().Add(-expiredRetention - time.Second)}))
		assert.False(t, s.Exists("roomstay:ticket:t-3"))
	})

	t.Run("CorruptedValue", func(t *testing.T) {
		require.NoError(t, s.Set("roomstay:ticket:bad", "{not json"))
		_, err := repo.GetTicket(ctx, "bad")
		assert.Error(t, err)
	})
}

func TestRedisTicketRepository_NilClient(t *testing.T) {
	repo := NewRedisTicketRepository(nil)
	ctx := context.Background()

	_, err := repo.GetTicket(ctx, "x")
	assert.Error(t, err)
	assert.Error(t, repo.SaveTicket(ctx, &models.VerificationTicket{ID: "x", ExpiresAt: time.Now().Add(time.Minute)}))
	assert.Error(t, repo.DeleteTicket(ctx, "x"))
	_, err = repo.IncrementAttempts(ctx, "x")
	assert.Error(t, err)
}

func TestPingAndClose(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})

	assert.NoError(t, Ping(context.Background(), client))
	assert.NoError(t, Close(client))
	assert.NoError(t, Close(nil))
}
