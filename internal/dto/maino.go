package dto

// MainoSyncRequest asks the backend to download and ingest every NF-e XML the
// provider issued inside the period. Dates use the provider's DD/MM/AAAA
// convention. Exactly one of APIKey or BearerToken must be supplied.
type MainoSyncRequest struct {
	StartDate   string `json:"data_inicio" binding:"required"`
	EndDate     string `json:"data_fim" binding:"required"`
	APIKey      string `json:"api_key,omitempty"`
	BearerToken string `json:"bearer_token,omitempty"`
}

// MainoSyncResponse reports the per-file outcomes of a provider sync run.
type MainoSyncResponse struct {
	Message   string            `json:"message"`
	Processed int               `json:"processed_count"`
	Results   []BatchItemResult `json:"results"`
}

// MainoListRequest lists issued NF-es without ingesting them.
type MainoListRequest struct {
	StartDate     string `json:"data_inicio" binding:"required"`
	EndDate       string `json:"data_fim" binding:"required"`
	APIKey        string `json:"api_key,omitempty"`
	BearerToken   string `json:"bearer_token,omitempty"`
	InvoiceNumber string `json:"numero_nfe,omitempty"`
	RecipientCNPJ string `json:"cnpj_destinatario,omitempty" binding:"omitempty,cnpj"`
	IncludeXMLs   bool   `json:"exibir_xmls,omitempty"`
}
