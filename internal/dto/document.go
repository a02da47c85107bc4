package dto

import (
	"time"

	"github.com/opmecontrol/opme_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// XMLPayload is one named raw XML file inside a batch ingestion request.
type XMLPayload struct {
	Name string
	Data []byte
}

// BatchItemResult reports the independent outcome for one file of a batch.
// A failing file never aborts the rest of the batch.
type BatchItemResult struct {
	File      string `json:"file"`
	Status    string `json:"status"`
	AccessKey string `json:"accessKey,omitempty"`
	Message   string `json:"message,omitempty"`
}

// MovementResponse is the API shape of one persisted line-item movement.
type MovementResponse struct {
	DocumentNumber string          `json:"documentNumber"`
	IssueDate      *time.Time      `json:"issueDate,omitempty"`
	RecipientCNPJ  string          `json:"recipientCnpj"`
	RecipientName  string          `json:"recipientName"`
	ProductCode    string          `json:"productCode"`
	Description    string          `json:"description"`
	CFOP           string          `json:"cfop"`
	Quantity       decimal.Decimal `json:"quantity"`
	LotNumber      string          `json:"lotNumber,omitempty"`
	LotQuantity    decimal.Decimal `json:"lotQuantity"`
}

// ListMovementsParams carries the optional filters of the movement listing.
type ListMovementsParams struct {
	RecipientCNPJ string `form:"recipientCnpj" binding:"omitempty,cnpj"`
}

// DocumentStatsResponse is the API shape of the dashboard statistics.
type DocumentStatsResponse struct {
	TotalDocuments     int64           `json:"totalDocuments"`
	TotalValue         decimal.Decimal `json:"totalValue"`
	DistinctRecipients int64           `json:"distinctRecipients"`
}

// ToMovementResponse converts a domain movement to its API shape.
func ToMovementResponse(m domain.Movement) MovementResponse {
	resp := MovementResponse{
		DocumentNumber: m.DocumentNumber,
		RecipientCNPJ:  m.RecipientCNPJ,
		RecipientName:  m.RecipientName,
		ProductCode:    m.ProductCode,
		Description:    m.Description,
		CFOP:           m.CFOP,
		Quantity:       m.Quantity,
		LotNumber:      m.LotNumber,
		LotQuantity:    m.LotQuantity,
	}
	if !m.IssueDate.IsZero() {
		t := m.IssueDate
		resp.IssueDate = &t
	}
	return resp
}

// ToMovementResponseSlice converts a slice of domain movements.
func ToMovementResponseSlice(ms []domain.Movement) []MovementResponse {
	out := make([]MovementResponse, len(ms))
	for i, m := range ms {
		out[i] = ToMovementResponse(m)
	}
	return out
}
