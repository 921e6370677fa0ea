package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Notifier publishes locally and through Postgres NOTIFY so every API
// instance sharing the database sees the change.
type Notifier struct {
	local   Bus
	db      *gorm.DB
	channel string
	origin  string
}

func NewNotifier(local Bus, db *gorm.DB, channel string) *Notifier {
	return &Notifier{local: local, db: db, channel: channel, origin: uuid.NewString()}
}

// Origin identifies this instance in outgoing notifications.
func (n *Notifier) Origin() string { return n.origin }

func (n *Notifier) Publish(ctx context.Context, ch Change) error {
	if len(ch.Paths) == 0 {
		return nil
	}
	if err := n.local.Publish(ctx, ch); err != nil {
		return err
	}

	ch.Origin = n.origin
	payload, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	if err := n.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", n.channel, string(payload)).Error; err != nil {
		return fmt.Errorf("notify %s: %w", n.channel, err)
	}
	return nil
}

func (n *Notifier) Subscribe() (<-chan Change, func()) {
	return n.local.Subscribe()
}

// Listener relays notifications from other instances onto the local bus.
type Listener struct {
	dsn     string
	channel string
	origin  string
	local   Bus
	logger  *slog.Logger
}

// NewListener returns a listener that ignores notifications sent by origin.
func NewListener(dsn, channel, origin string, local Bus, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{dsn: dsn, channel: channel, origin: origin, local: local, logger: logger}
}

// Run listens until ctx is done.
func (l *Listener) Run(ctx context.Context) error {
	listener := pq.NewListener(l.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			l.logger.Warn("notification listener event", "event", ev, "err", err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(l.channel); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.logger.Info("listening for change notifications", "channel", l.channel)

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect; changes sent meanwhile are lost
			if n == nil {
				continue
			}
			l.relay(ctx, n.Extra)
		case <-ping.C:
			if err := listener.Ping(); err != nil {
				l.logger.Warn("notification listener ping failed", "err", err)
			}
		}
	}
}

func (l *Listener) relay(ctx context.Context, payload string) {
	var ch Change
	if err := json.Unmarshal([]byte(payload), &ch); err != nil {
		l.logger.Warn("discarding malformed change notification", "err", err)
		return
	}
	if ch.Origin == l.origin {
		return
	}
	if err := l.local.Publish(ctx, ch); err != nil {
		l.logger.Warn("relay change notification", "err", err)
	}
}
