package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opmecontrol/opme_backend/internal/apperrors"
	"github.com/opmecontrol/opme_backend/internal/core/domain"
	portssvc "github.com/opmecontrol/opme_backend/internal/core/ports/services"
	"github.com/opmecontrol/opme_backend/internal/dto"
	"github.com/opmecontrol/opme_backend/internal/integrations/maino"
	"github.com/opmecontrol/opme_backend/internal/middleware"
)

type mainoService struct {
	baseURL   string
	ingestSvc portssvc.DocumentIngestSvc
}

// NewMainoService creates the provider sync service. baseURL overrides the
// production endpoint, mainly for tests.
func NewMainoService(baseURL string, ingestSvc portssvc.DocumentIngestSvc) portssvc.MainoSvcFacade {
	return &mainoService{
		baseURL:   baseURL,
		ingestSvc: ingestSvc,
	}
}

var _ portssvc.MainoSvcFacade = (*mainoService)(nil)

func credentialsFrom(apiKey, bearerToken string) (maino.Credentials, error) {
	creds := maino.Credentials{APIKey: apiKey, BearerToken: bearerToken}
	if !creds.Valid() {
		return maino.Credentials{}, apperrors.NewValidationFailedError("api_key or bearer_token is required")
	}
	return creds, nil
}

// SyncPeriod pulls the period's XML export from the provider and runs each
// file through the ingestion gate. Files that fail keep their own REJECTED or
// DUPLICATE outcome and never abort the rest of the batch.
func (s *mainoService) SyncPeriod(ctx context.Context, req dto.MainoSyncRequest, uploaderID string) (*dto.MainoSyncResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	creds, err := credentialsFrom(req.APIKey, req.BearerToken)
	if err != nil {
		return nil, err
	}

	client := maino.NewClient(s.baseURL, creds)
	payloads, err := client.FetchXMLs(ctx, req.StartDate, req.EndDate)
	if err != nil {
		logger.Error("provider XML export failed", "error", err)
		return nil, err
	}

	results := s.ingestSvc.IngestBatch(ctx, payloads, uploaderID)

	processed := 0
	for _, result := range results {
		if result.Status == string(domain.IngestAccepted) {
			processed++
		}
	}
	logger.Info("provider sync finished", "files", len(payloads), "ingested", processed)

	return &dto.MainoSyncResponse{
		Message:   fmt.Sprintf("processed %d of %d XML files", processed, len(payloads)),
		Processed: processed,
		Results:   results,
	}, nil
}

// ListInvoices proxies the provider's invoice listing without ingesting.
func (s *mainoService) ListInvoices(ctx context.Context, req dto.MainoListRequest) (json.RawMessage, error) {
	creds, err := credentialsFrom(req.APIKey, req.BearerToken)
	if err != nil {
		return nil, err
	}

	client := maino.NewClient(s.baseURL, creds)
	return client.ListIssuedInvoices(ctx, maino.ListParams{
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		InvoiceNumber: req.InvoiceNumber,
		RecipientCNPJ: req.RecipientCNPJ,
		IncludeXMLs:   req.IncludeXMLs,
	})
}
