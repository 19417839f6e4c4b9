package master

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MrJamesThe3rd/manekat/internal/database"
)

//go:generate mockgen -source=manager.go -destination=repository_mock.go -package=master
type Repository interface {
	Get(ctx context.Context) (*Config, error)
	Exists(ctx context.Context) (bool, error)
	// CreateIfAbsent writes defaults unless the document already exists and
	// reports whether this call created it.
	CreateIfAbsent(ctx context.Context, defaults Config) (bool, error)
	AddValue(ctx context.Context, field Field, value string) error
	RemoveValue(ctx context.Context, field Field, value string) error
	SetMinTransfer(ctx context.Context, value int64) error
}

type Manager struct {
	repo     Repository
	defaults Config
	retry    database.RetryPolicy
}

type Option func(*Manager)

// WithRetry bounds every store call with the given policy.
func WithRetry(p database.RetryPolicy) Option {
	return func(m *Manager) { m.retry = p }
}

func NewManager(repo Repository, defaults Config, opts ...Option) *Manager {
	m := &Manager{repo: repo, defaults: defaults.Clone()}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Bootstrap creates the configuration document from defaults when absent.
// Two processes racing here is harmless: the insert is conditional and the
// defaults are identical.
func (m *Manager) Bootstrap(ctx context.Context) error {
	exists, err := m.repo.Exists(ctx)
	if err != nil {
		return fmt.Errorf("checking master configuration: %w", err)
	}

	if exists {
		return nil
	}

	var created bool

	err = m.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		created, err = m.repo.CreateIfAbsent(ctx, m.defaults)

		return err
	})
	if err != nil {
		return fmt.Errorf("bootstrapping master configuration: %w", err)
	}

	if !created {
		slog.DebugContext(ctx, "master configuration created concurrently")
		return nil
	}

	slog.InfoContext(ctx, "master configuration bootstrapped",
		"categories", m.defaults.Categories.Len(),
		"members", m.defaults.Members.Len(),
		"min_transfer", m.defaults.MinTransfer)

	return nil
}

// Current returns the live configuration, bootstrapping it first if needed.
func (m *Manager) Current(ctx context.Context) (Config, error) {
	cfg, err := m.repo.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		if err := m.Bootstrap(ctx); err != nil {
			return Config{}, err
		}

		cfg, err = m.repo.Get(ctx)
	}

	if err != nil {
		return Config{}, fmt.Errorf("loading master configuration: %w", err)
	}

	return *cfg, nil
}

func (m *Manager) AddToSet(ctx context.Context, field Field, value string) error {
	if !field.IsSet() {
		return ErrUnsupportedField
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return ErrEmptyValue
	}

	return m.retry.Do(ctx, func(ctx context.Context) error {
		return m.repo.AddValue(ctx, field, value)
	})
}

// RemoveFromSet is a no-op when value is absent. It refuses to empty the set.
func (m *Manager) RemoveFromSet(ctx context.Context, field Field, value string) error {
	if !field.IsSet() {
		return ErrUnsupportedField
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return ErrEmptyValue
	}

	cfg, err := m.Current(ctx)
	if err != nil {
		return err
	}

	set := cfg.set(field)
	if !set.Contains(value) {
		return nil
	}

	if set.Len() == 1 {
		return ErrWouldEmpty
	}

	return m.retry.Do(ctx, func(ctx context.Context) error {
		return m.repo.RemoveValue(ctx, field, value)
	})
}

func (m *Manager) SetScalar(ctx context.Context, field Field, value int64) error {
	if field != FieldMinTransfer {
		return ErrUnsupportedField
	}

	if value < 0 {
		return ErrNegative
	}

	return m.retry.Do(ctx, func(ctx context.Context) error {
		return m.repo.SetMinTransfer(ctx, value)
	})
}
