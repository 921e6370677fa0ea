package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusFansOut(t *testing.T) {
	bus := NewMemoryBus(nil)
	a, cancelA := bus.Subscribe()
	defer cancelA()
	b, cancelB := bus.Subscribe()
	defer cancelB()

	require.NoError(t, bus.Publish(context.Background(), Change{Paths: []string{"/questions/1"}}))

	assert.Equal(t, []string{"/questions/1"}, (<-a).Paths)
	assert.Equal(t, []string{"/questions/1"}, (<-b).Paths)
}

func TestMemoryBusSkipsEmptyChanges(t *testing.T) {
	bus := NewMemoryBus(nil)
	sub, cancel := bus.Subscribe()
	defer cancel()

	require.NoError(t, bus.Publish(context.Background(), Change{}))

	select {
	case ch := <-sub:
		t.Fatalf("unexpected change %v", ch)
	default:
	}
}

func TestMemoryBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewMemoryBus(nil)
	sub, cancel := bus.Subscribe()
	defer cancel()

	for range subscriberBuffer + 5 {
		require.NoError(t, bus.Publish(context.Background(), Change{Paths: []string{"/"}}))
	}
	assert.Len(t, sub, subscriberBuffer)
}

func TestCancelClosesSubscription(t *testing.T) {
	bus := NewMemoryBus(nil)
	sub, cancel := bus.Subscribe()
	cancel()
	cancel()

	_, ok := <-sub
	assert.False(t, ok)
	require.NoError(t, bus.Publish(context.Background(), Change{Paths: []string{"/"}}))
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "/questions/3", QuestionPath(3))
	assert.Equal(t, "/tags/4", TagPath(4))
	assert.Equal(t, "/profile/5", ProfilePath(5))
}

type failingBus struct{}

func (failingBus) Publish(context.Context, Change) error { return assert.AnError }

func (failingBus) Subscribe() (<-chan Change, func()) { return nil, func() {} }

func TestPublisher(t *testing.T) {
	bus := NewMemoryBus(nil)
	sub, cancel := bus.Subscribe()
	defer cancel()

	Publisher(bus, nil)(context.Background(), []string{"/a", "/b"})
	assert.Equal(t, []string{"/a", "/b"}, (<-sub).Paths)

	assert.NotPanics(t, func() {
		Publisher(failingBus{}, nil)(context.Background(), []string{"/a"})
	})
}
