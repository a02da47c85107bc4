package services

import (
	"context"

	"github.com/opmecontrol/opme_backend/internal/core/domain"
)

// BalanceSvcFacade defines the consignment balance queries. Balances are a
// derived view: every call recomputes from the full movement history, so the
// result is idempotent by construction.
type BalanceSvcFacade interface {
	// ComputeBalance folds all movements (optionally one recipient's) into
	// per-(recipient, product, lot) signed balances.
	ComputeBalance(ctx context.Context, recipientCNPJ *string) (domain.Balance, error)

	// GetBalanceSummary condenses the full balance into dashboard totals.
	GetBalanceSummary(ctx context.Context) (*domain.BalanceSummary, error)
}
