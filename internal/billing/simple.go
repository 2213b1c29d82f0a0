package billing

import (
	"context"
	"fmt"

	"github.com/bfindeiss/handwerker-app/internal/models"
)

// SimpleAdapter acknowledges the invoice without contacting any external
// system. It is the default when no adapter is configured.
type SimpleAdapter struct{}

// Dispatch returns a success acknowledgement.
func (SimpleAdapter) Dispatch(_ context.Context, inv *models.InvoiceContext) (map[string]any, error) {
	return map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Rechnung für %s verarbeitet.", inv.Customer.Name),
	}, nil
}

func init() {
	RegisterAdapter("simple", func(Config) (Adapter, error) {
		return SimpleAdapter{}, nil
	})
}
