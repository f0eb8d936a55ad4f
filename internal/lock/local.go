// Package lock provides per-room mutual exclusion for booking writes.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"roomstay/internal/domain"
)

// LocalLocker serialises writers for a room within one process.
type LocalLocker struct {
	mu    sync.Mutex
	rooms map[int64]*roomSlot
	wait  time.Duration
}

type roomSlot struct {
	sem  chan struct{}
	refs int
}

// NewLocalLocker returns a locker that waits up to wait for a busy room;
// zero waits until the caller's context is done.
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{
		rooms: make(map[int64]*roomSlot),
		wait:  wait,
	}
}

func (l *LocalLocker) acquireSlot(roomID int64) *roomSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.rooms[roomID]
	if !ok {
		slot = &roomSlot{sem: make(chan struct{}, 1)}
		l.rooms[roomID] = slot
	}
	slot.refs++
	return slot
}

func (l *LocalLocker) releaseSlot(roomID int64, slot *roomSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.rooms, roomID)
	}
}

func (l *LocalLocker) Lock(ctx context.Context, roomID int64) (func(), error) {
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	slot := l.acquireSlot(roomID)
	select {
	case slot.sem <- struct{}{}:
	case <-ctx.Done():
		l.releaseSlot(roomID, slot)
		return nil, fmt.Errorf("room %d: %w", roomID, domain.ErrLockNotAcquired)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.sem
			l.releaseSlot(roomID, slot)
		})
	}, nil
}

var _ domain.RoomLocker = (*LocalLocker)(nil)
