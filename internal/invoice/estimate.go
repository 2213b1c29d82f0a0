package invoice

import (
	"fmt"
	"strings"

	"github.com/bfindeiss/handwerker-app/internal/models"
)

// laborEstimate maps a service description fragment to typical hours and the
// role that usually performs the work. Keys are lowercase and matched by
// substring.
type laborEstimate struct {
	hours float64
	role  string
}

var laborEstimates = map[string]laborEstimate{
	"einbau einer dusche":       {hours: 8.0, role: "Geselle"},
	"montage eines waschbeckens": {hours: 4.0, role: "Geselle"},
}

// EstimateLaborItem synthesizes a placeholder labor position for a service
// that was described without any explicit hours. Unknown services get a
// conservative one hour of journeyman time. The unit price stays zero so the
// pricing engine fills in the configured rate.
func EstimateLaborItem(serviceDescription string) models.InvoiceItem {
	hours, role := 1.0, "Geselle"
	lowered := strings.ToLower(serviceDescription)
	for fragment, estimate := range laborEstimates {
		if strings.Contains(lowered, fragment) {
			hours, role = estimate.hours, estimate.role
			break
		}
	}

	return models.InvoiceItem{
		Description: fmt.Sprintf("%s %s", models.LaborPlaceholderPrefix, role),
		Category:    models.CategoryLabor,
		Quantity:    hours,
		Unit:        "h",
		UnitPrice:   0,
		WorkerRole:  role,
	}
}
