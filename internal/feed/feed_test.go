package feed_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/manekat/internal/feed"
)

func TestHub_Coalesces(t *testing.T) {
	hub := feed.NewHub()
	ch, cancel := hub.Subscribe(feed.TopicMaster)
	defer cancel()

	hub.Publish(feed.TopicMaster)
	hub.Publish(feed.TopicMaster)
	hub.Publish(feed.TopicTransactions)

	select {
	case <-ch:
	default:
		t.Fatal("expected a pending signal")
	}

	select {
	case <-ch:
		t.Fatal("signals should coalesce")
	default:
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := feed.NewHub()
	ch, cancel := hub.Subscribe(feed.TopicTransactions)

	cancel()
	cancel()
	hub.Publish(feed.TopicTransactions)

	select {
	case <-ch:
		t.Fatal("unsubscribed channel received a signal")
	default:
	}
}

func TestMirror_ReloadsOnChange(t *testing.T) {
	hub := feed.NewHub()

	var calls atomic.Int64

	mirror := feed.NewMirror(hub, feed.TopicTransactions, func(context.Context) (int64, error) {
		return calls.Add(1), nil
	})

	updates, cancel := mirror.Subscribe()
	defer cancel()

	_, ok := mirror.Current()
	assert.False(t, ok)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, mirror.Run(ctx))
	}()

	waitSignal(t, updates)

	v, ok := mirror.Current()
	require.True(t, ok)
	assert.Equal(t, int64(1), v)

	hub.Publish(feed.TopicTransactions)
	waitSignal(t, updates)

	v, _ = mirror.Current()
	assert.Equal(t, int64(2), v)

	stop()
	<-done
}

func TestMirror_KeepsSnapshotOnError(t *testing.T) {
	hub := feed.NewHub()

	var fail atomic.Bool

	mirror := feed.NewMirror(hub, feed.TopicMaster, func(context.Context) (string, error) {
		if fail.Load() {
			return "", errors.New("db down")
		}

		return "v1", nil
	})

	mirror.Refresh(context.Background())
	fail.Store(true)
	mirror.Refresh(context.Background())

	v, ok := mirror.Current()
	require.True(t, ok)
	assert.Equal(t, "v1", v)
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
}
