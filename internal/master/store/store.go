package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/manekat/internal/database"
	"github.com/MrJamesThe3rd/manekat/internal/master"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context) (*master.Config, error) {
	var cfg master.Config

	err := s.db.QueryRowContext(ctx, `SELECT min_transfer FROM master_settings WHERE id = 1`).
		Scan(&cfg.MinTransfer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, master.ErrNotFound
		}

		return nil, database.Wrap("getting master settings", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT field, value FROM master_values ORDER BY position ASC`)
	if err != nil {
		return nil, database.Wrap("listing master values", err)
	}
	defer rows.Close()

	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, database.Wrap("scanning master value", err)
		}

		switch master.Field(field) {
		case master.FieldCategories:
			cfg.Categories.Add(value)
		case master.FieldMembers:
			cfg.Members.Add(value)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, database.Wrap("iterating master values", err)
	}

	return &cfg, nil
}

func (s *Store) Exists(ctx context.Context) (bool, error) {
	var exists bool

	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM master_settings WHERE id = 1)`).Scan(&exists)
	if err != nil {
		return false, database.Wrap("checking master settings", err)
	}

	return exists, nil
}

// CreateIfAbsent writes the settings row and default values in one database
// transaction. The settings row doubles as the existence marker, so a
// concurrent bootstrap either inserts nothing or everything.
func (s *Store) CreateIfAbsent(ctx context.Context, defaults master.Config) (bool, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, database.Wrap("beginning bootstrap", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx, `
		INSERT INTO master_settings (id, min_transfer, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO NOTHING
	`, defaults.MinTransfer)
	if err != nil {
		return false, database.Wrap("inserting master settings", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, database.Wrap("inserting master settings", err)
	}

	if n == 0 {
		return false, nil
	}

	insert := `
		INSERT INTO master_values (field, value)
		VALUES ($1, $2)
		ON CONFLICT (field, value) DO NOTHING
	`

	for _, group := range []struct {
		field  master.Field
		values []string
	}{
		{master.FieldCategories, defaults.Categories.Values()},
		{master.FieldMembers, defaults.Members.Values()},
	} {
		for _, v := range group.values {
			if _, err := dbTx.ExecContext(ctx, insert, group.field, v); err != nil {
				return false, database.Wrap(fmt.Sprintf("inserting default %s", group.field), err)
			}
		}
	}

	if err := dbTx.Commit(); err != nil {
		return false, database.Wrap("committing bootstrap", err)
	}

	return true, nil
}

func (s *Store) AddValue(ctx context.Context, field master.Field, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO master_values (field, value)
		VALUES ($1, $2)
		ON CONFLICT (field, value) DO NOTHING
	`, field, value)
	if err != nil {
		return database.Wrap("adding master value", err)
	}

	return nil
}

func (s *Store) RemoveValue(ctx context.Context, field master.Field, value string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM master_values WHERE field = $1 AND value = $2`, field, value)
	if err != nil {
		return database.Wrap("removing master value", err)
	}

	return nil
}

func (s *Store) SetMinTransfer(ctx context.Context, value int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE master_settings
		SET min_transfer = $1, updated_at = NOW()
		WHERE id = 1
	`, value)
	if err != nil {
		return database.Wrap("updating min transfer", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return database.Wrap("updating min transfer", err)
	}

	if n == 0 {
		return master.ErrNotFound
	}

	return nil
}
