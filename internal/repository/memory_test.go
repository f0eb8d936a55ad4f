package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"roomstay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTicketRepository(t *testing.T) {
	repo := NewMemoryTicketRepository()
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("SaveAndGetTicket", func(t *testing.T) {
		ticket := &models.VerificationTicket{ID: "a", Email: "a@example.com", ExpiresAt: now.Add(time.Minute)}
		require.NoError(t, repo.SaveTicket(ctx, ticket))

		got, err := repo.GetTicket(ctx, "a")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "a@example.com", got.Email)

		// callers get a copy
		got.Attempts = 3
		again, _ := repo.GetTicket(ctx, "a")
		assert.Zero(t, again.Attempts)
	})

	t.Run("DeleteTicket", func(t *testing.T) {
		require.NoError(t, repo.DeleteTicket(ctx, "a"))
		got, err := repo.GetTicket(ctx, "a")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ExpiredTicketIsStillReturned", func(t *testing.T) {
		require.NoError(t, repo.SaveTicket(ctx, &models.VerificationTicket{ID: "b", ExpiresAt: now.Add(time.Minute)}))
		now = now.Add(2 * time.Minute)
		got, err := repo.GetTicket(ctx, "b")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Expired(now))
		require.NoError(t, repo.DeleteTicket(ctx, "b"))
	})

	t.Run("IncrementAttempts", func(t *testing.T) {
		require.NoError(t, repo.SaveTicket(ctx, &models.VerificationTicket{ID: "e", ExpiresAt: now.Add(time.Minute)}))
		for want := 1; want <= 3; want++ {
			n, err := repo.IncrementAttempts(ctx, "e")
			require.NoError(t, err)
			assert.Equal(t, want, n)
		}
		got, _ := repo.GetTicket(ctx, "e")
		assert.Equal(t, 3, got.Attempts)

		n, err := repo.IncrementAttempts(ctx, "missing")
		require.NoError(t, err)
		assert.Zero(t, n)
		require.NoError(t, repo.DeleteTicket(ctx, "e"))
	})

	t.Run("Sweep", func(t *testing.T) {
		require.NoError(t, repo.SaveTicket(ctx, &models.VerificationTicket{ID: "c", ExpiresAt: now.Add(-expiredRetention - time.Second)}))
		require.NoError(t, repo.SaveTicket(ctx, &models.VerificationTicket{ID: "recent", ExpiresAt: now.Add(-time.Second)}))
		require.NoError(t, repo.SaveTicket(ctx, &models.VerificationTicket{ID: "d", ExpiresAt: now.Add(time.Hour)}))
		assert.Equal(t, 1, repo.Sweep())

		got, _ := repo.GetTicket(ctx, "d")
		assert.NotNil(t, got)
		got, _ = repo.GetTicket(ctx, "recent")
		assert.NotNil(t, got)
	})
}

func TestMemoryTicketRepository_ConcurrentIncrements(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()
	require.NoError(t, repo.SaveTicket(ctx, &models.VerificationTicket{ID: "x", ExpiresAt: time.Now().Add(time.Minute)}))

	const workers = 50
	seen := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := repo.IncrementAttempts(ctx, "x")
			assert.NoError(t, err)
			seen <- n
		}()
	}
	wg.Wait()
	close(seen)

	counts := make(map[int]bool)
	for n := range seen {
		assert.False(t, counts[n], "count %d handed out twice", n)
		counts[n] = true
	}
	assert.Len(t, counts, workers)
}
