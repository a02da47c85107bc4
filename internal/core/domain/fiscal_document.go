package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccessKeyLength is the fixed length of an NF-e access key.
const AccessKeyLength = 44

// Party identifies a legal entity on a fiscal document (emitter or recipient).
type Party struct {
	CNPJ string `json:"cnpj"`
	Name string `json:"name"`
}

// Lot carries the traceability data of a lot-controlled line item.
// It is only present when the underlying product is lot-controlled; absent
// lot sub-fields are empty strings, never zero values with meaning.
type Lot struct {
	Number          string          `json:"lotNumber"`
	Quantity        decimal.Decimal `json:"lotQuantity"`
	ManufactureDate string          `json:"manufactureDate"`
	ExpiryDate      string          `json:"expiryDate"`
}

// LineItem is one product line within a fiscal document.
type LineItem struct {
	ProductCode string          `json:"productCode"`
	Description string          `json:"description"`
	CFOP        string          `json:"cfop"` // 4-digit operation code
	Quantity    decimal.Decimal `json:"quantity"`
	UnitValue   decimal.Decimal `json:"unitValue"`
	TotalValue  decimal.Decimal `json:"totalValue"`
	Lot         *Lot            `json:"lot,omitempty"` // nil when the item is not lot-controlled
}

// FiscalDocument is one ingested NF-e. The access key is its identity and is
// unique across the lifetime of the ledger.
type FiscalDocument struct {
	AccessKey string     `json:"accessKey"` // 44 chars, globally unique
	Number    string     `json:"number"`
	Series    string     `json:"series"`
	IssueDate time.Time  `json:"issueDate"`
	Emitter   Party      `json:"emitter"`
	Recipient Party      `json:"recipient"`
	LineItems []LineItem `json:"lineItems"` // document order
	AuditFields
}

// IngestStatus is the outcome class of one ingestion attempt.
type IngestStatus string

const (
	IngestAccepted  IngestStatus = "ACCEPTED"
	IngestDuplicate IngestStatus = "DUPLICATE"
	IngestRejected  IngestStatus = "REJECTED"
)

// IngestResult reports the outcome of ingesting a single fiscal document.
// Duplicate is a defined outcome, not an error: it carries the conflicting key
// and guarantees no mutation was performed.
type IngestResult struct {
	Status    IngestStatus `json:"status"`
	AccessKey string       `json:"accessKey"`
	Message   string       `json:"message,omitempty"`
}
