package parser

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// buildExtractionSchema returns the JSON Schema the extraction payload must
// satisfy before any transformation runs. AI output that fails here fails
// the whole parse: partially valid extracted data cannot be trusted to be
// complete.
func buildExtractionSchema() map[string]any {
	txProps := map[string]any{
		"date":           map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"description":    map[string]any{"type": "string"},
		"category":       map[string]any{"type": []any{"string", "null"}},
		"installment":    map[string]any{"type": []any{"string", "null"}},
		"amount":         map[string]any{"type": "number"},
		"amount_foreign": map[string]any{"type": []any{"number", "null"}},
		"exchange_rate":  map[string]any{"type": []any{"number", "null"}},
		"is_refund":      map[string]any{"type": []any{"boolean", "null"}},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"transactions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":       "object",
					"properties": txProps,
					"required":   []any{"date", "description", "amount"},
				},
			},
			"card_holder":    map[string]any{"type": []any{"string", "null"}},
			"card_last_four": map[string]any{"type": []any{"string", "null"}},
			"billing_month":  map[string]any{"type": []any{"string", "null"}},
		},
		"required": []any{"transactions"},
	}
}

// validateExtractionPayload checks the decoded payload against the schema.
func validateExtractionPayload(payload map[string]interface{}) error {
	schemaBytes, err := json.Marshal(buildExtractionSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("extraction.json", bytes.NewReader(schemaBytes)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("extraction.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	// Round-trip through JSON so schema validation sees plain decoded values.
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("payload does not match schema: %w", err)
	}
	return nil
}
