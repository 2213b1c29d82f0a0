// Package persistence writes the per-turn session artifacts: raw audio, the
// accumulated transcript and the invoice rendered as JSON, PDF, XRechnung XML
// and an Excel workbook.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bfindeiss/handwerker-app/internal/models"
)

// Archive stores session artifacts under a base directory, one subdirectory
// per stored turn named by a UTC timestamp.
type Archive struct {
	baseDir string
	logger  *zap.Logger
	now     func() time.Time
}

// NewArchive creates the base directory if needed.
func NewArchive(baseDir string, logger *zap.Logger) (*Archive, error) {
	if baseDir == "" {
		baseDir = "data"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Archive{baseDir: baseDir, logger: logger, now: time.Now}, nil
}

// Store writes all artifacts of one turn and returns the artifact directory.
func (a *Archive) Store(_ context.Context, audio []byte, transcript string, inv *models.InvoiceContext) (string, error) {
	timestamp := strings.ReplaceAll(a.now().UTC().Format("2006-01-02T15-04-05.000000000"), ":", "-")
	dir := filepath.Join(a.baseDir, timestamp)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session directory: %w", err)
	}

	if len(audio) > 0 {
		if err := os.WriteFile(filepath.Join(dir, "audio.wav"), audio, 0o644); err != nil {
			return "", fmt.Errorf("write audio: %w", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "transcript.txt"), []byte(transcript), 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}

	invoiceJSON, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal invoice: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "invoice.json"), invoiceJSON, 0o644); err != nil {
		return "", fmt.Errorf("write invoice JSON: %w", err)
	}

	if err := WriteInvoicePDF(inv, filepath.Join(dir, "invoice.pdf")); err != nil {
		return "", fmt.Errorf("write invoice PDF: %w", err)
	}
	if err := WriteXRechnungXML(inv, filepath.Join(dir, "invoice.xml")); err != nil {
		return "", fmt.Errorf("write invoice XML: %w", err)
	}
	if err := WriteInvoiceWorkbook(inv, filepath.Join(dir, "invoice.xlsx")); err != nil {
		return "", fmt.Errorf("write invoice workbook: %w", err)
	}

	a.logger.Debug("Session artifacts stored", zap.String("dir", dir))
	return dir, nil
}
