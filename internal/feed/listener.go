package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
)

// Listener relays Postgres NOTIFY payloads on one channel to a Hub. The
// payload is the topic name.
type Listener struct {
	connStr string
	channel string
	hub     *Hub
}

func NewListener(connStr, channel string, hub *Hub) *Listener {
	return &Listener{connStr: connStr, channel: channel, hub: hub}
}

// Run listens until ctx is done, reconnecting with exponential backoff.
// Every (re)connect publishes all topics, since notifications sent while
// disconnected are lost.
func (l *Listener) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0
	b.MaxInterval = 30 * time.Second

	for {
		err := l.listen(ctx, b.Reset)
		if ctx.Err() != nil {
			return nil
		}

		wait := b.NextBackOff()
		slog.Warn("change feed disconnected", "error", err, "retry_in", wait)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

func (l *Listener) listen(ctx context.Context, onConnected func()) error {
	conn, err := pgx.Connect(ctx, l.connStr)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listening on %s: %w", l.channel, err)
	}

	onConnected()
	slog.Debug("change feed connected", "channel", l.channel)

	for _, topic := range Topics {
		l.hub.Publish(topic)
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("waiting for notification: %w", err)
		}

		l.hub.Publish(n.Payload)
	}
}
