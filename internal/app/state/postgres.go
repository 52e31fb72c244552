package state

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"livesync/internal/app/db"
)

// Querier is the part of *pgxpool.Pool the PostgresStore uses.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	getSQL    = `SELECT value FROM client_state WHERE key = $1`
	upsertSQL = `INSERT INTO client_state (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	deleteSQL = `DELETE FROM client_state WHERE key = $1`
)

// PostgresStore keeps pairs in the client_state table.
type PostgresStore struct {
	q Querier
}

func NewPostgresStore(q Querier) *PostgresStore {
	return &PostgresStore{q: q}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	if err := s.q.QueryRow(ctx, getSQL, key).Scan(&v); err != nil {
		if db.IsNoRows(err) {
			return "", false, nil
		}
		if db.IsUndefinedTable(err) {
			return "", false, errors.Wrap(err, "client_state table missing, migrations not applied")
		}
		return "", false, errors.Wrapf(err, "get state %q", key)
	}

	return v, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	_, err := s.q.Exec(ctx, upsertSQL, key, value)
	return errors.Wrapf(err, "set state %q", key)
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	_, err := s.q.Exec(ctx, deleteSQL, key)
	return errors.Wrapf(err, "delete state %q", key)
}
