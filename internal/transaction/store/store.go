package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/manekat/internal/database"
	"github.com/MrJamesThe3rd/manekat/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// listColumns omits proof_image: list reads feed mirrors and reports, which
// never render the image.
var listColumns = []string{
	"id", "type", "amount", "description", "category", "member", "submitted_by",
	"submitter_id", "date", "created_at", "status", "decided_at", "decided_by",
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner, extra ...any) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	var typeStr, statusStr string

	var decidedAt sql.NullTime

	dest := []any{
		&tx.ID, &typeStr, &tx.Amount, &tx.Description, &tx.Category, &tx.Member, &tx.SubmittedBy,
		&tx.SubmitterID, &tx.Date, &tx.CreatedAt, &statusStr, &decidedAt, &tx.DecidedBy,
	}

	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	tx.Type = transaction.Type(typeStr)
	tx.Status = transaction.Status(statusStr)
	tx.Date = transaction.DateOf(tx.Date)

	if decidedAt.Valid {
		t := decidedAt.Time
		tx.DecidedAt = &t
	}

	return &tx, nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	query, args, err := psql.Insert("transactions").
		Columns(
			"id", "type", "amount", "description", "category", "member", "submitted_by",
			"submitter_id", "date", "proof_image", "status", "created_at",
		).
		Values(
			tx.ID, tx.Type, tx.Amount, tx.Description, tx.Category, tx.Member, tx.SubmittedBy,
			tx.SubmitterID, tx.Date, tx.ProofImage, tx.Status, tx.CreatedAt,
		).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return database.Wrap("creating transaction", err)
	}

	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query, args, err := psql.Select(listColumns...).
		Column("proof_image").
		From("transactions").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var proofImage string

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, args...), &proofImage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, database.Wrap("getting transaction", err)
	}

	tx.ProofImage = proofImage

	return tx, nil
}

// ListTransactions returns matching records newest date first, ties in
// submission order.
func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	q := psql.Select(listColumns...).
		From("transactions").
		OrderBy("date DESC", "created_at ASC")

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}

	if filter.Member != nil {
		q = q.Where(squirrel.Eq{"member": *filter.Member})
	}

	if filter.StartDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.StartDate})
	}

	if filter.EndDate != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.EndDate})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, database.Wrap("listing transactions", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, database.Wrap("scanning transaction", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, database.Wrap("iterating transactions", err)
	}

	return txs, nil
}

// UpdateStatus only touches rows that are still pending, so of two
// concurrent decisions exactly one reports applied.
func (s *Store) UpdateStatus(
	ctx context.Context, id uuid.UUID, status transaction.Status, decidedBy string, decidedAt time.Time,
) (bool, error) {
	query, args, err := psql.Update("transactions").
		Set("status", status).
		Set("decided_at", decidedAt).
		Set("decided_by", decidedBy).
		Where(squirrel.Eq{"id": id, "status": transaction.StatusPending}).
		ToSql()
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, database.Wrap("updating status", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, database.Wrap("updating status", err)
	}

	return n == 1, nil
}

func (s *Store) PurgeRejected(ctx context.Context, decidedBefore time.Time) (int64, error) {
	query, args, err := psql.Delete("transactions").
		Where(squirrel.Eq{"status": transaction.StatusRejected}).
		Where(squirrel.Lt{"decided_at": decidedBefore}).
		ToSql()
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, database.Wrap("purging rejected transactions", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, database.Wrap("purging rejected transactions", err)
	}

	return n, nil
}
