package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// The pass schemas are strict JSON-Schema documents (additionalProperties
// false throughout). They are embedded into the prompts and used locally to
// validate each pass response, so the annotator cannot smuggle in unknown
// fields or wrong categories.

func addressSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"street":      map[string]any{"type": "string"},
			"postal_code": map[string]any{"type": "string"},
			"city":        map[string]any{"type": "string"},
		},
	}
}

func customerSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":    map[string]any{"type": "string"},
			"address": addressSchema(),
		},
	}
}

func lineItemSchema(categories []string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"description", "type"},
		"properties": map[string]any{
			"description":      map[string]any{"type": "string", "minLength": 1},
			"type":             map[string]any{"type": "string", "enum": categories},
			"role":             map[string]any{"type": "string", "enum": []string{"meister", "geselle"}},
			"quantity":         map[string]any{"type": "number"},
			"unit":             map[string]any{"type": "string"},
			"unit_price_cents": map[string]any{"type": "integer", "minimum": 0},
		},
	}
}

func notesProperties() map[string]any {
	return map[string]any{
		"notes": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"confidence_per_field": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"type":    "number",
				"minimum": 0.0,
				"maximum": 1.0,
			},
		},
	}
}

// CustomerPassSchema is the expected shape of the customer/address pass.
func CustomerPassSchema() map[string]any {
	props := notesProperties()
	props["customer"] = customerSchema()
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

// LineItemPassSchema is the expected shape of an item pass, constrained to
// the categories that pass is responsible for.
func LineItemPassSchema(categories ...string) map[string]any {
	props := notesProperties()
	props["line_items"] = map[string]any{
		"type":  "array",
		"items": lineItemSchema(categories),
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

// ValidateAgainstSchema validates a JSON document against a schema map.
func ValidateAgainstSchema(schemaMap map[string]any, data []byte) error {
	raw, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("payload does not match schema: %w", err)
	}
	return nil
}
