package maino

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestListIssuedInvoices(t *testing.T) {
	var gotAuth, gotAPIKey string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/notas_fiscais_emitidas", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotAPIKey = r.Header.Get("X-Api-Key")
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"notas_fiscais":[{"numero":"123"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, Credentials{APIKey: "key-1"})
	raw, err := client.ListIssuedInvoices(context.Background(), ListParams{
		StartDate:     "01/01/2025",
		EndDate:       "31/01/2025",
		InvoiceNumber: "123",
		IncludeXMLs:   true,
	})

	require.NoError(t, err)
	assert.Empty(t, gotAuth)
	assert.Equal(t, "key-1", gotAPIKey)
	assert.Equal(t, []string{"01/01/2025"}, gotQuery["data_inicio"])
	assert.Equal(t, []string{"31/01/2025"}, gotQuery["data_fim"])
	assert.Equal(t, []string{"123"}, gotQuery["numero_nfe"])
	assert.Equal(t, []string{"true"}, gotQuery["exibir_xmls"])

	var parsed struct {
		NotasFiscais []json.RawMessage `json:"notas_fiscais"`
	}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Len(t, parsed.NotasFiscais, 1)
}

func TestBearerTokenTakesPrecedence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("X-Api-Key"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, Credentials{APIKey: "key-1", BearerToken: "tok"})
	_, err := client.ListIssuedInvoices(context.Background(), ListParams{StartDate: "01/01/2025", EndDate: "31/01/2025"})
	require.NoError(t, err)
}

func TestFetchXMLs(t *testing.T) {
	archive := buildZip(t, map[string]string{
		"nfe1.xml":   "<NFe>one</NFe>",
		"nfe2.XML":   "<NFe>two</NFe>",
		"readme.txt": "not an xml",
	})

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/nfes_emitidas", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"zip_url": srv.URL + "/export.zip"})
	})
	mux.HandleFunc("/export.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, Credentials{BearerToken: "tok"})
	payloads, err := client.FetchXMLs(context.Background(), "01/01/2025", "31/01/2025")

	require.NoError(t, err)
	require.Len(t, payloads, 2, "non-xml entries must be skipped")
	names := map[string]string{}
	for _, p := range payloads {
		names[p.Name] = string(p.Data)
	}
	assert.Equal(t, "<NFe>one</NFe>", names["nfe1.xml"])
	assert.Equal(t, "<NFe>two</NFe>", names["nfe2.XML"])
}

func TestExportXMLsURLMissingZipURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, Credentials{APIKey: "k"})
	_, err := client.ExportXMLsURL(context.Background(), "01/01/2025", "31/01/2025")
	require.Error(t, err)
}

func TestProviderErrorStatusSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, Credentials{APIKey: "bad"})
	_, err := client.ListIssuedInvoices(context.Background(), ListParams{StartDate: "01/01/2025", EndDate: "31/01/2025"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
