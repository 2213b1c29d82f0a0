package billing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bfindeiss/handwerker-app/internal/models"
)

func confirmedInvoice() *models.InvoiceContext {
	inv := models.NewInvoiceContext()
	inv.Customer.Name = "Hans Meier"
	inv.Service.Description = "Malerarbeiten"
	inv.Amount = models.Amount{Net: 400, Tax: 76, Total: 476, Currency: "EUR", Priced: true}
	return inv
}

func TestNewAdapterDefaultsToSimple(t *testing.T) {
	adapter, err := NewAdapter(Config{})
	require.NoError(t, err)
	assert.IsType(t, SimpleAdapter{}, adapter)
}

func TestNewAdapterUnknownName(t *testing.T) {
	_, err := NewAdapter(Config{Adapter: "sap"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"sap"`)
}

func TestSimpleAdapterDispatch(t *testing.T) {
	result, err := SimpleAdapter{}.Dispatch(context.Background(), confirmedInvoice())
	require.NoError(t, err)

	assert.Equal(t, "success", result["status"])
	assert.Equal(t, "Rechnung für Hans Meier verarbeitet.", result["message"])
}

func TestHTTPAdapterDispatch(t *testing.T) {
	var received models.InvoiceContext
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/invoice", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "success", "id": "b-123"}`))
	}))
	defer server.Close()

	adapter, err := NewAdapter(Config{Adapter: "http", Endpoint: server.URL})
	require.NoError(t, err)

	result, err := adapter.Dispatch(context.Background(), confirmedInvoice())
	require.NoError(t, err)

	assert.Equal(t, "success", result["status"])
	assert.Equal(t, "b-123", result["id"])
	assert.Equal(t, "Hans Meier", received.Customer.Name)
	assert.Equal(t, 476.0, received.Amount.Total)
}

func TestHTTPAdapterDispatchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "kaputt", http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter, err := NewHTTPAdapter(Config{Endpoint: server.URL})
	require.NoError(t, err)

	_, err = adapter.Dispatch(context.Background(), confirmedInvoice())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
