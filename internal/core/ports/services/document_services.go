package services

import (
	"context"

	"github.com/opmecontrol/opme_backend/internal/core/domain"
	"github.com/opmecontrol/opme_backend/internal/dto"
)

// DocumentIngestSvc defines the ingestion gate: parse raw XML, deduplicate by
// access key and persist atomically.
type DocumentIngestSvc interface {
	// IngestDocument parses and persists one raw XML payload. Parsing failures
	// return an error wrapping apperrors.ErrMalformedDocument; duplicate and
	// rejected outcomes are reported through the result, not the error.
	IngestDocument(ctx context.Context, raw []byte, uploaderID string) (*domain.IngestResult, error)

	// IngestBatch ingests many files with independent per-file outcomes.
	// One malformed or duplicate file never aborts the rest of the batch.
	IngestBatch(ctx context.Context, payloads []dto.XMLPayload, uploaderID string) []dto.BatchItemResult
}

// MovementReaderSvc defines read operations over persisted movements
type MovementReaderSvc interface {
	// ListMovements returns stored movements, optionally for one recipient.
	ListMovements(ctx context.Context, recipientCNPJ *string) ([]domain.Movement, error)
}

// DocumentStatsSvc defines dashboard aggregate operations
type DocumentStatsSvc interface {
	// GetDocumentStats aggregates counts and totals over ingested documents.
	GetDocumentStats(ctx context.Context) (*domain.DocumentStats, error)
}

// DocumentSvcFacade combines all document-related service interfaces
// This is a facade for clients that need access to all operations
type DocumentSvcFacade interface {
	DocumentIngestSvc
	MovementReaderSvc
	DocumentStatsSvc
}
