package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager exposes explicit transaction control so a repository can
// scope multi-statement writes (a document header plus its items and lots)
// to a single commit.
type TransactionManager interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context) (pgx.Tx, error)

	// Commit commits the given transaction.
	Commit(ctx context.Context, tx pgx.Tx) error

	// Rollback rolls back the given transaction. Safe to defer after Begin;
	// rolling back a committed transaction is a no-op.
	Rollback(ctx context.Context, tx pgx.Tx) error
}

// RepositoryWithTx marks repositories whose writes run under caller-visible
// transactions.
type RepositoryWithTx interface {
	TransactionManager
}
