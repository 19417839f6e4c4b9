package transaction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/manekat/internal/database"
	"github.com/MrJamesThe3rd/manekat/internal/master"
	"github.com/MrJamesThe3rd/manekat/internal/proof"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	// CreateTransaction inserts tx with its preassigned ID. Inserting the same
	// ID twice is a no-op.
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)
	// UpdateStatus moves a pending record to status and reports whether the
	// row was still pending.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, decidedBy string, decidedAt time.Time) (bool, error)
	PurgeRejected(ctx context.Context, decidedBefore time.Time) (int64, error)
}

type ConfigSource interface {
	Current(ctx context.Context) (master.Config, error)
}

type Service struct {
	repo   Repository
	config ConfigSource
	retry  database.RetryPolicy
	now    func() time.Time
}

type Option func(*Service)

func WithRetry(p database.RetryPolicy) Option {
	return func(s *Service) { s.retry = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, config ConfigSource, opts ...Option) *Service {
	s := &Service{repo: repo, config: config, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

type ListFilter struct {
	Status    *Status
	Type      *Type
	Member    *string
	StartDate *time.Time
	EndDate   *time.Time
}

// Submit validates c against the live master configuration and persists it
// as a pending record. Nothing is written when validation fails.
func (s *Service) Submit(ctx context.Context, c Candidate) (*Transaction, error) {
	cfg, err := s.config.Current(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := Validate(c, cfg, s.now().UTC())
	if err != nil {
		return nil, err
	}

	tx.ID = uuid.New()

	err = s.retry.Do(ctx, func(ctx context.Context) error {
		return s.repo.CreateTransaction(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "transaction submitted",
		"id", tx.ID, "type", tx.Type, "amount", tx.Amount, "member", tx.Member)

	return tx, nil
}

func (s *Service) Approve(ctx context.Context, id uuid.UUID, actor string) (*Transaction, error) {
	return s.decide(ctx, id, StatusApproved, actor)
}

func (s *Service) Reject(ctx context.Context, id uuid.UUID, actor string) (*Transaction, error) {
	return s.decide(ctx, id, StatusRejected, actor)
}

// decide applies a terminal status. Repeating the decision a record already
// carries returns it unchanged; the opposite decision fails with
// ErrInvalidTransition. Concurrent deciders are serialized by the store's
// conditional update, so the first one wins.
func (s *Service) decide(ctx context.Context, id uuid.UUID, to Status, actor string) (*Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	if tx.Status == to {
		return tx, nil
	}

	if !tx.Status.CanTransition(to) {
		return nil, ErrInvalidTransition
	}

	now := s.now().UTC()

	var applied bool

	err = s.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		applied, err = s.repo.UpdateStatus(ctx, id, to, actor, now)

		return err
	})
	if err != nil {
		return nil, err
	}

	if !applied {
		current, err := s.repo.GetTransaction(ctx, id)
		if err != nil {
			return nil, err
		}

		if current.Status != to {
			return nil, ErrInvalidTransition
		}

		return current, nil
	}

	tx.Status = to
	tx.DecidedAt = &now
	tx.DecidedBy = actor

	slog.InfoContext(ctx, "transaction decided", "id", id, "status", to, "by", actor)

	return tx, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *Service) GetProof(ctx context.Context, id uuid.UUID) (proof.Image, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return proof.Image{}, err
	}

	img, err := proof.ParseDataURI(tx.ProofImage)
	if err != nil {
		return proof.Image{}, fmt.Errorf("decoding stored proof for %s: %w", id, err)
	}

	return img, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

// All returns every record, the full set a mirror replaces wholesale.
func (s *Service) All(ctx context.Context) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, ListFilter{})
}

// PurgeRejected deletes rejected records decided more than olderThan ago.
// A non-positive olderThan keeps rejected records forever.
func (s *Service) PurgeRejected(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, nil
	}

	cutoff := s.now().UTC().Add(-olderThan)

	var n int64

	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.repo.PurgeRejected(ctx, cutoff)

		return err
	})
	if err != nil {
		return 0, fmt.Errorf("purging rejected transactions: %w", err)
	}

	if n > 0 {
		slog.InfoContext(ctx, "purged rejected transactions", "count", n, "cutoff", cutoff)
	}

	return n, nil
}
