// Package maino talks to the Mainô ERP HTTP API, which issues the NF-es this
// backend ingests. It can list issued invoices and pull a period's XML files
// down as a zip archive for batch ingestion.
package maino

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/opmecontrol/opme_backend/internal/apperrors"
	"github.com/opmecontrol/opme_backend/internal/dto"
)

// DefaultBaseURL is the production Mainô API endpoint.
const DefaultBaseURL = "https://api.maino.com.br/api/v2"

// Credentials holds one of the two authentication schemes the provider
// accepts. A bearer token takes precedence when both are set.
type Credentials struct {
	APIKey      string
	BearerToken string
}

// Valid reports whether at least one credential is present.
func (c Credentials) Valid() bool {
	return c.APIKey != "" || c.BearerToken != ""
}

// Client is a thin wrapper over the provider's REST API. Credentials arrive
// with each sync request, so clients are cheap to construct per call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
}

// NewClient builds a client for the given base URL. An empty baseURL selects
// the production endpoint.
func NewClient(baseURL string, creds Credentials) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		creds:      creds,
	}
}

// ListParams filters the issued invoice listing. Dates use the provider's
// DD/MM/AAAA convention.
type ListParams struct {
	StartDate     string
	EndDate       string
	InvoiceNumber string
	RecipientCNPJ string
	IncludeXMLs   bool
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.creds.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.creds.BearerToken)
	} else if c.creds.APIKey != "" {
		req.Header.Set("X-Api-Key", c.creds.APIKey)
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	reqURL := c.baseURL + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperrors.NewAppError(resp.StatusCode, fmt.Sprintf("provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}

// ListIssuedInvoices returns the provider's invoice listing for the period as
// raw JSON, passed through to the caller untouched.
func (c *Client) ListIssuedInvoices(ctx context.Context, p ListParams) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("data_inicio", p.StartDate)
	params.Set("data_fim", p.EndDate)
	params.Set("exibir_xmls", strconv.FormatBool(p.IncludeXMLs))
	if p.InvoiceNumber != "" {
		params.Set("numero_nfe", p.InvoiceNumber)
	}
	if p.RecipientCNPJ != "" {
		params.Set("cnpj_destinatario", p.RecipientCNPJ)
	}

	var raw json.RawMessage
	if err := c.getJSON(ctx, "/notas_fiscais_emitidas", params, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// ExportXMLsURL asks the provider to bundle the period's NF-e XMLs and
// returns the URL of the resulting zip archive.
func (c *Client) ExportXMLsURL(ctx context.Context, startDate, endDate string) (string, error) {
	params := url.Values{}
	params.Set("data_inicio", startDate)
	params.Set("data_fim", endDate)

	var result struct {
		ZipURL string `json:"zip_url"`
	}
	if err := c.getJSON(ctx, "/nfes_emitidas", params, &result); err != nil {
		return "", err
	}
	if result.ZipURL == "" {
		return "", apperrors.NewAppError(502, "provider export returned no zip URL", nil)
	}
	return result.ZipURL, nil
}

// FetchXMLs downloads the period's export archive and returns every .xml
// entry it contains. Non-XML entries are skipped.
func (c *Client) FetchXMLs(ctx context.Context, startDate, endDate string) ([]dto.XMLPayload, error) {
	zipURL, err := c.ExportXMLsURL(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, zipURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build archive request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download export archive: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewAppError(502, fmt.Sprintf("archive download returned status %d", resp.StatusCode), nil)
	}

	// Exports cover at most a few months of invoices, so buffering the whole
	// archive in memory is fine.
	archive, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read export archive: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("failed to open export archive: %w", err)
	}

	var payloads []dto.XMLPayload
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), ".xml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open archive entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read archive entry %s: %w", f.Name, err)
		}
		payloads = append(payloads, dto.XMLPayload{Name: f.Name, Data: data})
	}
	return payloads, nil
}
