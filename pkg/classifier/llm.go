package classifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opsconductor/core/pkg/llmoracle"
	"github.com/opsconductor/core/pkg/models"
)

const (
	intentSchema = `{
		"type": "object",
		"required": ["category", "action"],
		"properties": {
			"category": {"type": "string"},
			"action": {"type": "string"}
		}
	}`

	entitiesSchema = `{
		"type": "object",
		"required": ["entities"],
		"properties": {
			"entities": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["type", "value"],
					"properties": {
						"type": {"type": "string"},
						"value": {"type": "string"}
					}
				}
			}
		}
	}`

	confidenceSchema = `{
		"type": "object",
		"required": ["confidence"],
		"properties": {
			"confidence": {"type": "number", "minimum": 0, "maximum": 1}
		}
	}`

	riskSchema = `{
		"type": "object",
		"required": ["risk_level"],
		"properties": {
			"risk_level": {"type": "string", "enum": ["low", "medium", "high"]}
		}
	}`
)

func askIntent(ctx context.Context, client llmoracle.Client, text string) (models.Intent, error) {
	raw, err := call(ctx, client, intentPrompt(text), intentSchema)
	if err != nil {
		return models.Intent{}, err
	}
	category, _ := raw["category"].(string)
	action, _ := raw["action"].(string)
	if category == "" || action == "" {
		return models.Intent{}, fmt.Errorf("classifier: empty intent fields")
	}
	return models.Intent{Category: category, Action: action}, nil
}

func askEntities(ctx context.Context, client llmoracle.Client, text string) ([]models.Entity, error) {
	raw, err := call(ctx, client, entitiesPrompt(text), entitiesSchema)
	if err != nil {
		return nil, err
	}
	items, _ := raw["entities"].([]any)
	out := make([]models.Entity, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		t, _ := obj["type"].(string)
		v, _ := obj["value"].(string)
		if t == "" || v == "" {
			continue
		}
		out = append(out, models.Entity{Type: models.EntityType(t), Value: v})
	}
	return out, nil
}

func askConfidence(ctx context.Context, client llmoracle.Client, text string) (float64, error) {
	raw, err := call(ctx, client, confidencePrompt(text), confidenceSchema)
	if err != nil {
		return 0, err
	}
	conf, ok := raw["confidence"].(float64)
	if !ok {
		return 0, fmt.Errorf("classifier: confidence field missing or non-numeric")
	}
	return conf, nil
}

func askRiskLevel(ctx context.Context, client llmoracle.Client, text string) (models.RiskLevel, error) {
	raw, err := call(ctx, client, riskPrompt(text), riskSchema)
	if err != nil {
		return "", err
	}
	level, _ := raw["risk_level"].(string)
	risk := models.RiskLevel(level)
	if !risk.IsValid() {
		return "", fmt.Errorf("classifier: invalid risk_level %q", level)
	}
	return risk, nil
}

// call issues a single-turn oracle request and validates the response
// against schema before returning it as a map (spec §4.5: the LLM is one
// of four independently-failing sub-tasks, never trusted without schema
// validation — see pkg/llmoracle.ValidateJSON).
func call(ctx context.Context, client llmoracle.Client, prompt, schema string) (map[string]any, error) {
	resp, err := client.Generate(ctx, llmoracle.Request{
		Messages:  []llmoracle.Message{{Role: "user", Content: prompt}},
		MaxTokens: 256,
	})
	if err != nil {
		return nil, fmt.Errorf("classifier: oracle call failed: %w", err)
	}
	result, err := llmoracle.ValidateJSON([]byte(schema), []byte(resp))
	if err != nil {
		return nil, fmt.Errorf("classifier: oracle response failed validation: %w", err)
	}
	return result, nil
}

func intentPrompt(text string) string {
	return `Classify the intent of this operations request as strict JSON {"category": "...", "action": "..."}. Request: ` + jsonQuote(text)
}

func entitiesPrompt(text string) string {
	return `Extract typed entities (hostname, ip_address, service, path, port, tag) from this operations request as strict JSON {"entities": [{"type": "...", "value": "..."}]}. Request: ` + jsonQuote(text)
}

func confidencePrompt(text string) string {
	return `Estimate your confidence in understanding this operations request, as strict JSON {"confidence": 0.0-1.0}. Request: ` + jsonQuote(text)
}

func riskPrompt(text string) string {
	return `Assess the operational risk of this request as strict JSON {"risk_level": "low"|"medium"|"high"}. Request: ` + jsonQuote(text)
}

func jsonQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
