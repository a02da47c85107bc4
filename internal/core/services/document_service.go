package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/opmecontrol/opme_backend/internal/apperrors"
	"github.com/opmecontrol/opme_backend/internal/core/domain"
	portsrepo "github.com/opmecontrol/opme_backend/internal/core/ports/repositories"
	portssvc "github.com/opmecontrol/opme_backend/internal/core/ports/services"
	"github.com/opmecontrol/opme_backend/internal/dto"
	"github.com/opmecontrol/opme_backend/internal/middleware"
	"github.com/opmecontrol/opme_backend/internal/nfe"
)

// documentService is the ingestion gate: it parses raw NF-e XML, enforces
// at-most-once ingestion by access key and persists documents atomically.
type documentService struct {
	docRepo portsrepo.DocumentRepositoryWithTx
}

// NewDocumentService creates a new document ingestion service.
func NewDocumentService(docRepo portsrepo.DocumentRepositoryWithTx) portssvc.DocumentSvcFacade {
	return &documentService{docRepo: docRepo}
}

var _ portssvc.DocumentSvcFacade = (*documentService)(nil)

// IngestDocument parses one raw XML payload and persists it.
//
// Outcome mapping:
//   - parse failure → error wrapping apperrors.ErrMalformedDocument (terminal
//     for this document; retrying the same bytes cannot succeed)
//   - access key already ingested → Duplicate result, no mutation
//   - repository constraint violation during the atomic write → Rejected
//     result, whole document rolled back
//   - transient repository failure → error wrapping
//     apperrors.ErrRepositoryUnavailable, eligible for caller-side retry
//
// The duplicate check is not a separate read: SaveDocument enforces key
// uniqueness inside its own atomic unit, so two concurrent ingestions of the
// same key resolve to exactly one Accepted and one Duplicate.
func (s *documentService) IngestDocument(ctx context.Context, raw []byte, uploaderID string) (*domain.IngestResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	doc, err := nfe.Parse(raw)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc.AuditFields = domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     uploaderID,
		LastUpdatedAt: now,
		LastUpdatedBy: uploaderID,
	}

	if err := s.docRepo.SaveDocument(ctx, *doc); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrDuplicate):
			logger.Info("Document already ingested",
				slog.String("access_key", doc.AccessKey))
			return &domain.IngestResult{
				Status:    domain.IngestDuplicate,
				AccessKey: doc.AccessKey,
				Message:   "document with access key " + doc.AccessKey + " already exists",
			}, nil
		case errors.Is(err, apperrors.ErrRepositoryUnavailable):
			return nil, err
		default:
			logger.Warn("Document rejected during persistence",
				slog.String("access_key", doc.AccessKey),
				slog.String("error", err.Error()))
			return &domain.IngestResult{
				Status:    domain.IngestRejected,
				AccessKey: doc.AccessKey,
				Message:   err.Error(),
			}, nil
		}
	}

	logger.Info("Document ingested",
		slog.String("access_key", doc.AccessKey),
		slog.String("number", doc.Number),
		slog.Int("line_items", len(doc.LineItems)))

	return &domain.IngestResult{
		Status:    domain.IngestAccepted,
		AccessKey: doc.AccessKey,
		Message:   "document " + doc.Number + " processed successfully",
	}, nil
}

// IngestBatch ingests many files with independent outcomes. Errors are
// collected per file and never abort the remainder of the batch.
func (s *documentService) IngestBatch(ctx context.Context, payloads []dto.XMLPayload, uploaderID string) []dto.BatchItemResult {
	results := make([]dto.BatchItemResult, 0, len(payloads))

	for _, payload := range payloads {
		result, err := s.IngestDocument(ctx, payload.Data, uploaderID)
		if err != nil {
			results = append(results, dto.BatchItemResult{
				File:    payload.Name,
				Status:  string(domain.IngestRejected),
				Message: err.Error(),
			})
			continue
		}
		results = append(results, dto.BatchItemResult{
			File:      payload.Name,
			Status:    string(result.Status),
			AccessKey: result.AccessKey,
			Message:   result.Message,
		})
	}

	return results
}

// ListMovements returns persisted movements, optionally for one recipient.
func (s *documentService) ListMovements(ctx context.Context, recipientCNPJ *string) ([]domain.Movement, error) {
	return s.docRepo.ListMovements(ctx, recipientCNPJ)
}

// GetDocumentStats aggregates dashboard figures over ingested documents.
func (s *documentService) GetDocumentStats(ctx context.Context) (*domain.DocumentStats, error) {
	return s.docRepo.GetDocumentStats(ctx)
}
