package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/devflow/backend/internal/database/dbtest"
	"github.com/emilythestrangee/devflow/backend/internal/events"
)

var pg *dbtest.Instance

func TestMain(m *testing.M) {
	dbtest.Main(m, &pg)
}

func TestListenerRelaysRemoteChanges(t *testing.T) {
	db := dbtest.Require(t, pg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Two instances sharing one database.
	remote := events.NewNotifier(events.NewMemoryBus(nil), db, "devflow_test")
	localBus := events.NewMemoryBus(nil)
	local := events.NewNotifier(localBus, db, "devflow_test")

	sub, unsubscribe := localBus.Subscribe()
	defer unsubscribe()

	listener := events.NewListener(pg.DSN, "devflow_test", local.Origin(), localBus, nil)
	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()

	// LISTEN is registered asynchronously; keep publishing until it arrives.
	require.Eventually(t, func() bool {
		_ = remote.Publish(ctx, events.Change{Paths: []string{"/questions/9"}})
		select {
		case ch := <-sub:
			return len(ch.Paths) == 1 && ch.Paths[0] == "/questions/9"
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestListenerIgnoresOwnChanges(t *testing.T) {
	db := dbtest.Require(t, pg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewMemoryBus(nil)
	notifier := events.NewNotifier(bus, db, "devflow_self")
	sub, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	go func() { _ = events.NewListener(pg.DSN, "devflow_self", notifier.Origin(), bus, nil).Run(ctx) }()
	time.Sleep(time.Second)

	require.NoError(t, notifier.Publish(ctx, events.Change{Paths: []string{"/"}}))

	// Exactly the local delivery, no echo from the listener.
	assert.Equal(t, []string{"/"}, (<-sub).Paths)
	select {
	case ch := <-sub:
		t.Fatalf("unexpected echo %v", ch)
	case <-time.After(500 * time.Millisecond):
	}
}
