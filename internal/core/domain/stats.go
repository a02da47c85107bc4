package domain

import "github.com/shopspring/decimal"

// DocumentStats aggregates dashboard figures over all ingested documents.
type DocumentStats struct {
	TotalDocuments     int64           `json:"totalDocuments"`
	TotalValue         decimal.Decimal `json:"totalValue"`
	DistinctRecipients int64           `json:"distinctRecipients"`
}

// BalanceSummary condenses a computed balance for the dashboard.
type BalanceSummary struct {
	TotalBalance       decimal.Decimal `json:"totalBalance"`
	DistinctProducts   int             `json:"distinctProducts"`
	DistinctRecipients int             `json:"distinctRecipients"`
}
