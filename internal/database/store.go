package database

import (
	"context"
	"database/sql"
	"fmt"

	sqldb "github.com/kolam-ikan/kolam/internal/database/sqlc"
	"github.com/kolam-ikan/kolam/internal/store"
)

var _ store.Store = (*SQLStore)(nil)

// SQLStore implements store.Store on top of the sqlc queries.
type SQLStore struct {
	ctx *Context
	q   *sqldb.Queries
	tx  *sql.Tx
}

// NewSQLStore creates a store bound to dbCtx.
func NewSQLStore(dbCtx *Context) *SQLStore {
	return &SQLStore{ctx: dbCtx, q: queriesFromContext(dbCtx)}
}

// Atomic runs fn in a transaction. Calls made on the tx store inside fn share
// it; calls on the outer store would wait for the single connection.
func (s *SQLStore) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	if s.ctx == nil || s.ctx.DB == nil {
		return fmt.Errorf("sql store: missing database context")
	}

	tx, err := s.ctx.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	child := &SQLStore{ctx: s.ctx, q: s.q.WithTx(tx), tx: tx}
	if err := fn(child); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback error: %w)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLStore) queries() (*sqldb.Queries, error) {
	if s.q == nil {
		return nil, fmt.Errorf("sql store: missing database context")
	}
	return s.q, nil
}

func expectOne(op string, affected int64, err error) error {
	if err != nil {
		return translate(op, err)
	}
	if affected == 0 {
		return notFound(op)
	}
	return nil
}
