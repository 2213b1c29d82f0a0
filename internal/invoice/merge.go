// Package invoice implements the cross-turn invoice state: the merge
// algorithm, labor estimates and the spoken summary.
package invoice

import (
	"strings"

	"github.com/bfindeiss/handwerker-app/internal/models"
)

// itemKey identifies an invoice position for merge matching.
type itemKey struct {
	category    string
	description string
	workerRole  string
}

func keyOf(item models.InvoiceItem) itemKey {
	return itemKey{
		category:    item.Category,
		description: strings.ToLower(strings.TrimSpace(item.Description)),
		workerRole:  strings.ToLower(strings.TrimSpace(item.WorkerRole)),
	}
}

// Merge combines a freshly extracted invoice into the prior session state and
// returns a new value; neither input is mutated. Confirmed non-zero values
// are never clobbered unless allowOverwrite is set (the user is actively
// correcting) or the service description is still a placeholder. Merging a
// result with itself changes nothing.
//
// transcript, when non-empty, gates the customer name: a name that does not
// appear in it (or is a known LLM default) is ignored.
func Merge(existing, incoming *models.InvoiceContext, transcript string, allowOverwrite bool) *models.InvoiceContext {
	merged := existing.Clone()

	serviceIsPlaceholder := isServicePlaceholder(merged.Service.Description)

	for _, item := range incoming.Items {
		switch item.Category {
		case models.CategoryLabor:
			// A specific labor description supersedes the synthesized
			// "Arbeitszeit <Rolle>" placeholder for the same role.
			merged.Items = removeLaborPlaceholders(merged.Items, item)
		case models.CategoryMaterial:
			if !models.IsGenericMaterialDescription(item.Description) {
				merged.Items = removeGenericMaterialPlaceholders(merged.Items)
			} else if foldGenericMaterial(merged.Items, item) {
				continue
			}
		}

		if idx := findItem(merged.Items, keyOf(item)); idx >= 0 {
			mergeItemFields(&merged.Items[idx], item, allowOverwrite || serviceIsPlaceholder)
			continue
		}
		merged.Items = append(merged.Items, item)
	}

	mergeCustomer(merged, incoming, transcript)
	mergeService(merged, incoming)

	return merged
}

func findItem(items []models.InvoiceItem, key itemKey) int {
	for i, item := range items {
		if keyOf(item) == key {
			return i
		}
	}
	return -1
}

// removeLaborPlaceholders drops placeholder labor entries for the role of a
// specific incoming labor item.
func removeLaborPlaceholders(items []models.InvoiceItem, incoming models.InvoiceItem) []models.InvoiceItem {
	incomingRole := strings.ToLower(strings.TrimSpace(incoming.WorkerRole))
	kept := items[:0:len(items)]
	for _, item := range items {
		if item.IsLaborPlaceholder() &&
			strings.ToLower(strings.TrimSpace(item.WorkerRole)) == incomingRole &&
			!strings.EqualFold(item.Description, incoming.Description) {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

func removeGenericMaterialPlaceholders(items []models.InvoiceItem) []models.InvoiceItem {
	kept := items[:0:len(items)]
	for _, item := range items {
		if item.Category == models.CategoryMaterial && models.IsGenericMaterialDescription(item.Description) {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// foldGenericMaterial merges an incoming generic "Material" placeholder into
// an already known specific material position instead of adding a duplicate
// row. Only unset fields on the existing item are filled. Returns true when
// the incoming item was absorbed.
func foldGenericMaterial(items []models.InvoiceItem, incoming models.InvoiceItem) bool {
	for i := range items {
		item := &items[i]
		if item.Category != models.CategoryMaterial || models.IsGenericMaterialDescription(item.Description) {
			continue
		}
		if item.Quantity == 0 && incoming.Quantity != 0 {
			item.Quantity = incoming.Quantity
		}
		if item.Unit == "" && incoming.Unit != "" {
			item.Unit = incoming.Unit
		}
		if item.UnitPrice == 0 && incoming.UnitPrice != 0 {
			item.UnitPrice = incoming.UnitPrice
		}
		return true
	}
	return false
}

// mergeItemFields updates an existing position from an incoming one. With
// overwrite, present incoming values replace existing ones; otherwise only
// unset/zero fields are filled so a later regressive extraction can never
// zero out confirmed data.
func mergeItemFields(existing *models.InvoiceItem, incoming models.InvoiceItem, overwrite bool) {
	if overwrite {
		if incoming.Quantity != 0 {
			existing.Quantity = incoming.Quantity
		}
		if incoming.UnitPrice != 0 {
			existing.UnitPrice = incoming.UnitPrice
		}
		if incoming.Unit != "" {
			existing.Unit = incoming.Unit
		}
		return
	}
	if existing.Quantity == 0 && incoming.Quantity != 0 {
		existing.Quantity = incoming.Quantity
	}
	if existing.UnitPrice == 0 && incoming.UnitPrice != 0 {
		existing.UnitPrice = incoming.UnitPrice
	}
	if existing.Unit == "" && incoming.Unit != "" {
		existing.Unit = incoming.Unit
	}
	if existing.WorkerRole == "" && incoming.WorkerRole != "" {
		existing.WorkerRole = incoming.WorkerRole
	}
}

func mergeCustomer(merged, incoming *models.InvoiceContext, transcript string) {
	existingName := strings.TrimSpace(merged.Customer.Name)
	nameUnset := existingName == "" ||
		existingName == models.UnknownCustomerName ||
		models.IsPlaceholderName(existingName)
	if nameUnset && models.IsUserProvidedName(incoming.Customer.Name, transcript) {
		merged.Customer.Name = strings.TrimSpace(incoming.Customer.Name)
	}
	if merged.Customer.Address == "" && incoming.Customer.Address != "" {
		merged.Customer.Address = incoming.Customer.Address
	}
}

func mergeService(merged, incoming *models.InvoiceContext) {
	if isServicePlaceholder(merged.Service.Description) && strings.TrimSpace(incoming.Service.Description) != "" {
		merged.Service.Description = incoming.Service.Description
		merged.Service.MaterialIncluded = incoming.Service.MaterialIncluded
	}
}

func isServicePlaceholder(description string) bool {
	trimmed := strings.TrimSpace(description)
	return trimmed == "" || trimmed == models.UnknownServiceDescription
}
