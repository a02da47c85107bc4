package repositories

import (
	"context"

	"github.com/opmecontrol/opme_backend/internal/core/domain"
)

// DocumentReader defines read operations for fiscal document data
type DocumentReader interface {
	// FindByAccessKey retrieves a document by its 44-character access key.
	// Returns apperrors.ErrNotFound when no such document exists.
	FindByAccessKey(ctx context.Context, accessKey string) (*domain.FiscalDocument, error)

	// GetDocumentStats aggregates counts and totals over all ingested documents.
	GetDocumentStats(ctx context.Context) (*domain.DocumentStats, error)
}

// DocumentWriter defines write operations for fiscal document data
type DocumentWriter interface {
	// SaveDocument persists a document header together with all of its line
	// items and lot records as a single atomic unit. The implementation must
	// enforce access-key uniqueness inside the same unit (not as a separate
	// read), returning an error that unwraps to apperrors.ErrDuplicate when
	// the key already exists. On any mid-write failure nothing is persisted.
	SaveDocument(ctx context.Context, doc domain.FiscalDocument) error
}

// MovementReader defines read operations over the persisted line-item movements
type MovementReader interface {
	// ListMovements returns every stored line item joined with its document's
	// recipient, in document insertion order. A non-nil recipientCNPJ
	// restricts the result to one recipient.
	ListMovements(ctx context.Context, recipientCNPJ *string) ([]domain.Movement, error)
}

// DocumentRepositoryFacade combines all document-related repository interfaces.
// This is a facade for clients that need access to all operations
type DocumentRepositoryFacade interface {
	DocumentReader
	DocumentWriter
	MovementReader
}

// DocumentRepositoryWithTx extends DocumentRepositoryFacade with transaction capabilities
type DocumentRepositoryWithTx interface {
	DocumentRepositoryFacade
	TransactionManager
}
