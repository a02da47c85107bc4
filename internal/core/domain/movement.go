package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// NoLot is the lot sentinel used in balance keys when a movement has no lot,
// so untracked and lot-tracked balances never collide under an empty string.
const NoLot = "SEM_LOTE"

// Movement is a read-only projection of a line item together with the
// recipient of its parent document. It is what the ledger folds over.
type Movement struct {
	DocumentNumber string          `json:"documentNumber"`
	IssueDate      time.Time       `json:"issueDate"`
	RecipientCNPJ  string          `json:"recipientCnpj"`
	RecipientName  string          `json:"recipientName"`
	ProductCode    string          `json:"productCode"`
	Description    string          `json:"description"`
	CFOP           string          `json:"cfop"`
	Quantity       decimal.Decimal `json:"quantity"`
	LotNumber      string          `json:"lotNumber,omitempty"`
	LotQuantity    decimal.Decimal `json:"lotQuantity"`
}

// EffectiveQuantity is the quantity a movement contributes to the balance:
// the lot quantity when non-zero, otherwise the invoiced quantity. The lot
// number plays no part here; a traceability record may carry a quantity
// without a number, and that quantity still wins.
func (m Movement) EffectiveQuantity() decimal.Decimal {
	if !m.LotQuantity.IsZero() {
		return m.LotQuantity
	}
	return m.Quantity
}

// BalanceKey identifies one consignment balance bucket.
type BalanceKey struct {
	RecipientCNPJ string `json:"recipientCnpj"`
	RecipientName string `json:"recipientName"`
	ProductCode   string `json:"productCode"`
	Description   string `json:"description"`
	LotNumber     string `json:"lotNumber"` // NoLot when the movement has no lot
}

// Key builds the balance bucket for a movement, substituting the NoLot
// sentinel when the movement carries no lot number.
func (m Movement) Key() BalanceKey {
	lot := m.LotNumber
	if lot == "" {
		lot = NoLot
	}
	return BalanceKey{
		RecipientCNPJ: m.RecipientCNPJ,
		RecipientName: m.RecipientName,
		ProductCode:   m.ProductCode,
		Description:   m.Description,
		LotNumber:     lot,
	}
}

// Balance maps balance buckets to accumulated signed quantities. It is a
// derived view recomputed from the full movement history, never a stored
// mutable counter.
type Balance map[BalanceKey]decimal.Decimal
