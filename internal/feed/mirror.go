package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

const loadTimeout = 10 * time.Second

// Loader reads the full current value of a topic from the store.
type Loader[T any] func(ctx context.Context) (T, error)

// Mirror holds the latest snapshot of one topic. Each change signal triggers
// a full reload that replaces the snapshot wholesale; a failed reload keeps
// the previous snapshot.
type Mirror[T any] struct {
	topic   string
	load    Loader[T]
	hub     *Hub
	updates *Hub
	current atomic.Pointer[T]
}

func NewMirror[T any](hub *Hub, topic string, load Loader[T]) *Mirror[T] {
	return &Mirror[T]{topic: topic, load: load, hub: hub, updates: NewHub()}
}

func (m *Mirror[T]) Run(ctx context.Context) error {
	changes, cancel := m.hub.Subscribe(m.topic)
	defer cancel()

	m.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			m.Refresh(ctx)
		}
	}
}

// Refresh reloads the snapshot immediately.
func (m *Mirror[T]) Refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	v, err := m.load(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("failed to reload snapshot", "topic", m.topic, "error", err)
		}

		return
	}

	m.current.Store(&v)
	m.updates.Publish(m.topic)
}

// Current returns the latest snapshot; ok is false until the first load.
func (m *Mirror[T]) Current() (v T, ok bool) {
	p := m.current.Load()
	if p == nil {
		return v, false
	}

	return *p, true
}

// Subscribe signals after every snapshot replacement.
func (m *Mirror[T]) Subscribe() (<-chan struct{}, func()) {
	return m.updates.Subscribe(m.topic)
}

// Get returns the current snapshot, loading it synchronously when the mirror
// has not completed its first load yet.
func (m *Mirror[T]) Get(ctx context.Context) (T, error) {
	if v, ok := m.Current(); ok {
		return v, nil
	}

	v, err := m.load(ctx)
	if err != nil {
		return v, err
	}

	m.current.CompareAndSwap(nil, &v)

	return v, nil
}
