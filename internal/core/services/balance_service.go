package services

import (
	"context"
	"log/slog"

	"github.com/opmecontrol/opme_backend/internal/core/domain"
	portsrepo "github.com/opmecontrol/opme_backend/internal/core/ports/repositories"
	portssvc "github.com/opmecontrol/opme_backend/internal/core/ports/services"
	"github.com/opmecontrol/opme_backend/internal/middleware"
	"github.com/opmecontrol/opme_backend/internal/utils/consignment"
	"github.com/shopspring/decimal"
)

// balanceService answers consignment balance queries by recomputing the fold
// over the full movement history on every call. Recomputation keeps the
// balance correct by construction; incremental maintenance would only be a
// performance optimization.
type balanceService struct {
	movementRepo portsrepo.MovementReader
	cfops        domain.CFOPTable
}

// NewBalanceService creates a balance service over the given classification
// table. Pass domain.DefaultCFOPTable() unless the taxonomy is extended.
func NewBalanceService(movementRepo portsrepo.MovementReader, cfops domain.CFOPTable) portssvc.BalanceSvcFacade {
	return &balanceService{
		movementRepo: movementRepo,
		cfops:        cfops,
	}
}

var _ portssvc.BalanceSvcFacade = (*balanceService)(nil)

// ComputeBalance loads movements (optionally one recipient's) and folds them
// into per-(recipient, product, lot) balances. CFOPs outside the
// classification table move nothing but are surfaced as warnings rather than
// vanishing silently.
func (s *balanceService) ComputeBalance(ctx context.Context, recipientCNPJ *string) (domain.Balance, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	movements, err := s.movementRepo.ListMovements(ctx, recipientCNPJ)
	if err != nil {
		return nil, err
	}

	balance, unclassified := consignment.ComputeBalance(movements, s.cfops)
	for cfop, count := range unclassified {
		logger.Warn("Movements with unclassified CFOP contribute nothing to the balance",
			slog.String("cfop", cfop),
			slog.Int("count", count))
	}

	return balance, nil
}

// GetBalanceSummary condenses the full balance into dashboard totals.
func (s *balanceService) GetBalanceSummary(ctx context.Context) (*domain.BalanceSummary, error) {
	balance, err := s.ComputeBalance(ctx, nil)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	products := make(map[string]struct{})
	recipients := make(map[string]struct{})
	for key, qty := range balance {
		total = total.Add(qty)
		products[key.ProductCode] = struct{}{}
		recipients[key.RecipientCNPJ] = struct{}{}
	}

	return &domain.BalanceSummary{
		TotalBalance:       total,
		DistinctProducts:   len(products),
		DistinctRecipients: len(recipients),
	}, nil
}
