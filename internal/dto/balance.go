package dto

import (
	"sort"

	"github.com/opmecontrol/opme_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceRecord is one row of the consignment balance report.
type BalanceRecord struct {
	RecipientCNPJ string          `json:"recipientCnpj"`
	RecipientName string          `json:"recipientName"`
	ProductCode   string          `json:"productCode"`
	Description   string          `json:"description"`
	LotNumber     string          `json:"lotNumber"`
	Balance       decimal.Decimal `json:"balance"`
}

// ListBalancesParams carries the optional filters of the balance query.
type ListBalancesParams struct {
	RecipientCNPJ string `form:"recipientCnpj" binding:"omitempty,cnpj"`
}

// BalanceSummaryResponse is the API shape of the balance dashboard summary.
type BalanceSummaryResponse struct {
	TotalBalance       decimal.Decimal `json:"totalBalance"`
	DistinctProducts   int             `json:"distinctProducts"`
	DistinctRecipients int             `json:"distinctRecipients"`
}

// ToBalanceRecords flattens a balance mapping into a deterministic list,
// sorted by recipient, product and lot so responses are stable across calls.
func ToBalanceRecords(b domain.Balance) []BalanceRecord {
	records := make([]BalanceRecord, 0, len(b))
	for key, qty := range b {
		records = append(records, BalanceRecord{
			RecipientCNPJ: key.RecipientCNPJ,
			RecipientName: key.RecipientName,
			ProductCode:   key.ProductCode,
			Description:   key.Description,
			LotNumber:     key.LotNumber,
			Balance:       qty,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.RecipientCNPJ != b.RecipientCNPJ {
			return a.RecipientCNPJ < b.RecipientCNPJ
		}
		if a.ProductCode != b.ProductCode {
			return a.ProductCode < b.ProductCode
		}
		return a.LotNumber < b.LotNumber
	})
	return records
}
