package pgsql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opmecontrol/opme_backend/internal/apperrors"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// Begin starts a new database transaction
func (r *BaseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, classifyInfraError("failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction
func (r *BaseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return classifyInfraError("failed to commit transaction", err)
	}
	return nil
}

// Rollback rolls back a transaction
func (r *BaseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, sql.ErrTxDone) && !errors.Is(err, pgx.ErrTxClosed) {
		return apperrors.NewAppError(500, "failed to rollback transaction", err)
	}
	return nil
}

// classifyInfraError distinguishes transient connectivity failures, which
// callers may retry, from everything else. A PgError means the server was
// reached, so only SQLSTATE class 08 (connection exception) and 57 (operator
// intervention) count as transient; any other error here is a failure to
// reach the server at all.
func classifyInfraError(message string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		class := ""
		if len(pgErr.Code) >= 2 {
			class = pgErr.Code[:2]
		}
		if class == "08" || class == "57" {
			return apperrors.NewAppError(503, message, errors.Join(apperrors.ErrRepositoryUnavailable, err))
		}
		return apperrors.NewAppError(500, message, err)
	}
	if errors.Is(err, context.Canceled) {
		return apperrors.NewAppError(500, message, err)
	}
	return apperrors.NewAppError(503, message, errors.Join(apperrors.ErrRepositoryUnavailable, err))
}
