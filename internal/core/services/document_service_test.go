package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/opmecontrol/opme_backend/internal/apperrors"
	"github.com/opmecontrol/opme_backend/internal/core/domain"
	portsrepo "github.com/opmecontrol/opme_backend/internal/core/ports/repositories"
	"github.com/opmecontrol/opme_backend/internal/core/services"
	"github.com/opmecontrol/opme_backend/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mock DocumentRepository ---
type MockDocumentRepository struct {
	mock.Mock
}

// Ensure MockDocumentRepository implements portsrepo.DocumentRepositoryWithTx
var _ portsrepo.DocumentRepositoryWithTx = (*MockDocumentRepository)(nil)

func (m *MockDocumentRepository) SaveDocument(ctx context.Context, doc domain.FiscalDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) FindByAccessKey(ctx context.Context, accessKey string) (*domain.FiscalDocument, error) {
	args := m.Called(ctx, accessKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FiscalDocument), args.Error(1)
}

func (m *MockDocumentRepository) GetDocumentStats(ctx context.Context) (*domain.DocumentStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentStats), args.Error(1)
}

func (m *MockDocumentRepository) ListMovements(ctx context.Context, recipientCNPJ *string) ([]domain.Movement, error) {
	args := m.Called(ctx, recipientCNPJ)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Movement), args.Error(1)
}

func (m *MockDocumentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockDocumentRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func validXML(accessKey string) []byte {
	return []byte(fmt.Sprintf(`<NFe xmlns="http://www.portalfiscal.inf.br/nfe">
		<infNFe Id="NFe%s">
			<ide><nNF>123</nNF><dhEmi>2024-01-15T10:30:00-03:00</dhEmi></ide>
			<emit><CNPJ>12345678000195</CNPJ><xNome>Distribuidora</xNome></emit>
			<dest><CNPJ>98765432000188</CNPJ><xNome>Hospital</xNome></dest>
			<det><prod><cProd>IMP-001</cProd><CFOP>5917</CFOP><qCom>5</qCom></prod></det>
		</infNFe>
	</NFe>`, accessKey))
}

func TestIngestDocumentAccepted(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	svc := services.NewDocumentService(mockRepo)
	ctx := context.Background()

	mockRepo.On("SaveDocument", ctx, mock.MatchedBy(func(doc domain.FiscalDocument) bool {
		return doc.AccessKey == "KEY1" &&
			doc.CreatedBy == "user-1" &&
			!doc.CreatedAt.IsZero() &&
			len(doc.LineItems) == 1
	})).Return(nil).Once()

	result, err := svc.IngestDocument(ctx, validXML("KEY1"), "user-1")

	require.NoError(t, err)
	assert.Equal(t, domain.IngestAccepted, result.Status)
	assert.Equal(t, "KEY1", result.AccessKey)
	mockRepo.AssertExpectations(t)
}

func TestIngestDocumentDuplicate(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	svc := services.NewDocumentService(mockRepo)
	ctx := context.Background()

	mockRepo.On("SaveDocument", ctx, mock.Anything).
		Return(apperrors.NewConflictError("document with access key KEY1 already exists")).Once()

	result, err := svc.IngestDocument(ctx, validXML("KEY1"), "user-1")

	require.NoError(t, err, "duplicate is a defined outcome, not an error")
	assert.Equal(t, domain.IngestDuplicate, result.Status)
	assert.Equal(t, "KEY1", result.AccessKey)
	assert.Contains(t, result.Message, "already exists")
	mockRepo.AssertExpectations(t)
}

func TestIngestDocumentMalformed(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	svc := services.NewDocumentService(mockRepo)

	result, err := svc.IngestDocument(context.Background(), []byte("not xml at all"), "user-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMalformedDocument)
	assert.Nil(t, result)
	mockRepo.AssertNotCalled(t, "SaveDocument", mock.Anything, mock.Anything)
}

func TestIngestDocumentRepositoryUnavailable(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	svc := services.NewDocumentService(mockRepo)
	ctx := context.Background()

	infraErr := apperrors.NewAppError(503, "failed to begin transaction",
		errors.Join(apperrors.ErrRepositoryUnavailable, errors.New("connection refused")))
	mockRepo.On("SaveDocument", ctx, mock.Anything).Return(infraErr).Once()

	result, err := svc.IngestDocument(ctx, validXML("KEY1"), "user-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRepositoryUnavailable)
	assert.Nil(t, result)
	mockRepo.AssertExpectations(t)
}

func TestIngestDocumentRejectedOnOtherErrors(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	svc := services.NewDocumentService(mockRepo)
	ctx := context.Background()

	mockRepo.On("SaveDocument", ctx, mock.Anything).
		Return(apperrors.NewAppError(500, "constraint violated", nil)).Once()

	result, err := svc.IngestDocument(ctx, validXML("KEY1"), "user-1")

	require.NoError(t, err)
	assert.Equal(t, domain.IngestRejected, result.Status)
	mockRepo.AssertExpectations(t)
}

func TestIngestBatchIndependentOutcomes(t *testing.T) {
	mockRepo := new(MockDocumentRepository)
	svc := services.NewDocumentService(mockRepo)
	ctx := context.Background()

	mockRepo.On("SaveDocument", ctx, mock.MatchedBy(func(doc domain.FiscalDocument) bool {
		return doc.AccessKey == "GOOD"
	})).Return(nil).Once()
	mockRepo.On("SaveDocument", ctx, mock.MatchedBy(func(doc domain.FiscalDocument) bool {
		return doc.AccessKey == "DUP"
	})).Return(apperrors.NewConflictError("document with access key DUP already exists")).Once()

	payloads := []dto.XMLPayload{
		{Name: "good.xml", Data: validXML("GOOD")},
		{Name: "broken.xml", Data: []byte("<nope")},
		{Name: "dup.xml", Data: validXML("DUP")},
	}

	results := svc.IngestBatch(ctx, payloads, "user-1")

	require.Len(t, results, 3)
	assert.Equal(t, string(domain.IngestAccepted), results[0].Status)
	assert.Equal(t, string(domain.IngestRejected), results[1].Status)
	assert.Equal(t, "broken.xml", results[1].File)
	assert.Equal(t, string(domain.IngestDuplicate), results[2].Status)
	mockRepo.AssertExpectations(t)
}

// inMemoryDocumentRepo enforces access-key uniqueness under a mutex, the way
// the database unique constraint does, to exercise concurrent ingestion.
type inMemoryDocumentRepo struct {
	MockDocumentRepository
	mu   sync.Mutex
	keys map[string]bool
}

func (r *inMemoryDocumentRepo) SaveDocument(ctx context.Context, doc domain.FiscalDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.keys[doc.AccessKey] {
		return apperrors.NewConflictError("document with access key " + doc.AccessKey + " already exists")
	}
	r.keys[doc.AccessKey] = true
	return nil
}

func TestConcurrentIngestExactlyOneAccepted(t *testing.T) {
	repo := &inMemoryDocumentRepo{keys: make(map[string]bool)}
	svc := services.NewDocumentService(repo)
	ctx := context.Background()

	const workers = 8
	results := make([]*domain.IngestResult, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.IngestDocument(ctx, validXML("RACE"), "user-1")
		}(i)
	}
	wg.Wait()

	accepted, duplicate := 0, 0
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		switch results[i].Status {
		case domain.IngestAccepted:
			accepted++
		case domain.IngestDuplicate:
			duplicate++
		}
	}
	assert.Equal(t, 1, accepted, "exactly one concurrent ingestion may win")
	assert.Equal(t, workers-1, duplicate)
}
