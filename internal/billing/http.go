package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bfindeiss/handwerker-app/internal/models"
)

// HTTPAdapter posts the invoice JSON to a billing bridge such as a
// SevDesk-compatible endpoint.
type HTTPAdapter struct {
	endpoint string
	client   *http.Client
}

// NewHTTPAdapter creates an adapter for the configured endpoint.
func NewHTTPAdapter(cfg Config) (Adapter, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:8001"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPAdapter{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// Dispatch posts the invoice and decodes the bridge's JSON response.
func (a *HTTPAdapter) Dispatch(ctx context.Context, inv *models.InvoiceContext) (map[string]any, error) {
	payload, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("marshal invoice: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"/invoice", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build billing request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send invoice to billing system: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read billing response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("billing system returned %d: %s", resp.StatusCode, string(body))
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode billing response: %w", err)
	}
	return result, nil
}

func init() {
	RegisterAdapter("http", NewHTTPAdapter)
}
