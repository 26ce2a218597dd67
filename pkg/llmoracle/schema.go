package llmoracle

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidateJSON enforces an oracle response against a JSON Schema contract.
// Every stage that asks the oracle for structured output (Stage A's
// fallback classification, Stage AB's tie-break, Stage C's plan synthesis)
// calls this before trusting the response — the provider is never assumed
// to honor a schema just because one was in the prompt.
func ValidateJSON(schemaJSON []byte, responseJSON []byte) (map[string]any, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("oracle-response.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("llmoracle: invalid schema: %w", err)
	}
	schema, err := compiler.Compile("oracle-response.json")
	if err != nil {
		return nil, fmt.Errorf("llmoracle: failed to compile schema: %w", err)
	}

	var instance any
	if err := json.Unmarshal(responseJSON, &instance); err != nil {
		return nil, fmt.Errorf("llmoracle: response is not valid JSON: %w", err)
	}

	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("llmoracle: response failed schema validation: %w", err)
	}

	result, ok := instance.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("llmoracle: response must be a JSON object")
	}
	return result, nil
}
