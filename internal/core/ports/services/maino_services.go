package services

import (
	"context"
	"encoding/json"

	"github.com/opmecontrol/opme_backend/internal/dto"
)

// MainoSvcFacade defines the Mainô ERP integration: pulling issued NF-es from
// the provider, either for listing or for batch ingestion. Credentials travel
// with each request since operators supply their own provider keys.
type MainoSvcFacade interface {
	// SyncPeriod downloads every NF-e XML the provider issued in the period
	// and ingests each one, reporting independent per-file outcomes.
	SyncPeriod(ctx context.Context, req dto.MainoSyncRequest, uploaderID string) (*dto.MainoSyncResponse, error)

	// ListInvoices returns the provider's invoice listing as raw JSON.
	ListInvoices(ctx context.Context, req dto.MainoListRequest) (json.RawMessage, error)
}
