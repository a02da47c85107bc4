package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FiscalDocument is the database row shape of an ingested NF-e header.
type FiscalDocument struct {
	DocumentID    int64     `db:"document_id"`
	AccessKey     string    `db:"access_key"` // UNIQUE, the ingestion dedupe anchor
	Number        string    `db:"number"`
	Series        string    `db:"series"`
	IssueDate     time.Time `db:"issue_date"`
	EmitterCNPJ   string    `db:"emitter_cnpj"`
	EmitterName   string    `db:"emitter_name"`
	RecipientCNPJ string    `db:"recipient_cnpj"`
	RecipientName string    `db:"recipient_name"`
	AuditFields
}

// DocumentItem is the database row shape of one line item.
type DocumentItem struct {
	ItemID      int64           `db:"item_id"`
	DocumentID  int64           `db:"document_id"` // FK -> FiscalDocument
	Position    int             `db:"position"`    // 1-based document order
	ProductCode string          `db:"product_code"`
	Description string          `db:"description"`
	CFOP        string          `db:"cfop"`
	Quantity    decimal.Decimal `db:"quantity"`
	UnitValue   decimal.Decimal `db:"unit_value"`
	TotalValue  decimal.Decimal `db:"total_value"`
}

// ItemLot is the database row shape of a line item's traceability record.
// At most one lot row exists per item.
type ItemLot struct {
	ItemID          int64           `db:"item_id"` // FK -> DocumentItem
	LotNumber       string          `db:"lot_number"`
	LotQuantity     decimal.Decimal `db:"lot_quantity"`
	ManufactureDate string          `db:"manufacture_date"`
	ExpiryDate      string          `db:"expiry_date"`
}
