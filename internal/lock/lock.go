// Package lock serialises bookings per participant.
//
// Keys are acquired in sorted order so that two bookings sharing
// participants can never deadlock.
package lock

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

var ErrNotAcquired = errors.New("lock not acquired")

type Unlock func()

type Locker interface {
	Lock(ctx context.Context, keys ...string) (Unlock, error)
}

func ParticipantKey(id int64) string {
	return fmt.Sprintf("participant:%d", id)
}

// ParticipantKeys maps ids to lock keys in the given order.
func ParticipantKeys(ids []int64) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, ParticipantKey(id))
	}
	return keys
}

func normalize(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}

// Local is an in-process Locker.
type Local struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocal() *Local {
	return &Local{slots: map[string]chan struct{}{}}
}

func (l *Local) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

func (l *Local) Lock(ctx context.Context, keys ...string) (Unlock, error) {
	var held []chan struct{}
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	for _, key := range normalize(keys) {
		ch := l.slot(key)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-ctx.Done():
			release()
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}
