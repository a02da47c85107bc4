package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/opmecontrol/opme_backend/internal/apperrors"
	"github.com/opmecontrol/opme_backend/internal/core/domain"
	"github.com/opmecontrol/opme_backend/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func movement(cnpj, product, cfop string, qty int64) domain.Movement {
	return domain.Movement{
		RecipientCNPJ: cnpj,
		RecipientName: "Hospital " + cnpj,
		ProductCode:   product,
		Description:   "Produto " + product,
		CFOP:          cfop,
		Quantity:      decimal.NewFromInt(qty),
	}
}

func TestComputeBalanceFiltersByRecipient(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	svc := services.NewBalanceService(mockRepo, domain.DefaultCFOPTable())
	ctx := context.Background()

	cnpj := "98765432000188"
	mockRepo.On("ListMovements", ctx, &cnpj).Return([]domain.Movement{
		movement(cnpj, "IMP-001", "5917", 10),
		movement(cnpj, "IMP-001", "1918", 4),
	}, nil).Once()

	balance, err := svc.ComputeBalance(ctx, &cnpj)

	require.NoError(t, err)
	require.Len(t, balance, 1)
	for _, qty := range balance {
		assert.True(t, qty.Equal(decimal.NewFromInt(-6)))
	}
	mockRepo.AssertExpectations(t)
}

func TestComputeBalancePropagatesRepositoryErrors(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	svc := services.NewBalanceService(mockRepo, domain.DefaultCFOPTable())
	ctx := context.Background()

	infraErr := apperrors.NewAppError(503, "failed to query movements",
		errors.Join(apperrors.ErrRepositoryUnavailable, errors.New("connection refused")))
	mockRepo.On("ListMovements", ctx, (*string)(nil)).Return(nil, infraErr).Once()

	_, err := svc.ComputeBalance(ctx, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRepositoryUnavailable)
}

func TestComputeBalanceRecomputedFromScratch(t *testing.T) {
	// Each query folds the full history anew, so a history that changes
	// between calls yields the corresponding balance, never a stale counter.
	mockRepo := new(MockDocumentRepository)
	svc := services.NewBalanceService(mockRepo, domain.DefaultCFOPTable())
	ctx := context.Background()

	first := []domain.Movement{movement("111", "P1", "5917", 5)}
	second := append(first, movement("111", "P1", "1919", 5))

	mockRepo.On("ListMovements", ctx, (*string)(nil)).Return(first, nil).Once()
	mockRepo.On("ListMovements", ctx, (*string)(nil)).Return(second, nil).Once()

	b1, err := svc.ComputeBalance(ctx, nil)
	require.NoError(t, err)
	b2, err := svc.ComputeBalance(ctx, nil)
	require.NoError(t, err)

	key := first[0].Key()
	assert.True(t, b1[key].Equal(decimal.NewFromInt(-5)))
	assert.True(t, b2[key].IsZero())
	mockRepo.AssertExpectations(t)
}

func TestGetBalanceSummary(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	svc := services.NewBalanceService(mockRepo, domain.DefaultCFOPTable())
	ctx := context.Background()

	mockRepo.On("ListMovements", ctx, mock.Anything).Return([]domain.Movement{
		movement("111", "P1", "5917", 10),
		movement("111", "P2", "5917", 3),
		movement("222", "P1", "5917", 2),
		movement("222", "P1", "1918", 1),
	}, nil).Once()

	summary, err := svc.GetBalanceSummary(ctx)

	require.NoError(t, err)
	assert.True(t, summary.TotalBalance.Equal(decimal.NewFromInt(-14)))
	assert.Equal(t, 2, summary.DistinctProducts)
	assert.Equal(t, 2, summary.DistinctRecipients)
}
