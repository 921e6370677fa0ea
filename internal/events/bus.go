// Package events carries post-commit change notifications to the subscribers
// that keep cached views fresh.
package events

import (
	"context"
	"log/slog"
	"sync"
)

// Change names the logical paths whose views are stale after a commit.
type Change struct {
	Paths []string `json:"paths"`
	// Origin identifies the instance that committed the change.
	Origin string `json:"origin,omitempty"`
}

type Bus interface {
	Publish(ctx context.Context, ch Change) error
	// Subscribe returns a channel of changes and a function that ends the
	// subscription and closes the channel.
	Subscribe() (<-chan Change, func())
}

// subscriberBuffer bounds how far a slow subscriber may fall behind before
// changes addressed to it are dropped.
const subscriberBuffer = 64

// MemoryBus fans changes out to in-process subscribers. Publish never blocks:
// a subscriber whose buffer is full misses the change.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[int]chan Change
	nextID int
	logger *slog.Logger
}

func NewMemoryBus(logger *slog.Logger) *MemoryBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryBus{subs: make(map[int]chan Change), logger: logger}
}

func (b *MemoryBus) Publish(_ context.Context, ch Change) error {
	if len(ch.Paths) == 0 {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, sub := range b.subs {
		select {
		case sub <- ch:
		default:
			b.logger.Warn("dropping change for slow subscriber", "subscriber", id, "paths", ch.Paths)
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe() (<-chan Change, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	sub := make(chan Change, subscriberBuffer)
	b.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(sub)
		})
	}
	return sub, cancel
}

// Publisher returns a commit hook that publishes the touched paths. Delivery
// failures are logged and never reach the committed mutation.
func Publisher(bus Bus, logger *slog.Logger) func(ctx context.Context, paths []string) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, paths []string) {
		if err := bus.Publish(ctx, Change{Paths: paths}); err != nil {
			logger.Warn("cache invalidation failed", "paths", paths, "err", err)
		}
	}
}
