package planner

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opsconductor/core/pkg/llmoracle"
	"github.com/opsconductor/core/pkg/models"
)

const planSchema = `{
	"type": "object",
	"required": ["steps"],
	"properties": {
		"steps": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["tool_id", "depends_on"],
				"properties": {
					"tool_id": {"type": "string"},
					"inputs": {"type": "object"},
					"depends_on": {"type": "array", "items": {"type": "integer"}}
				}
			}
		}
	}
}`

// rawStep is the oracle's un-validated view of a single step before tool-id
// membership and index bounds are checked by the caller.
type rawStep struct {
	ToolID    string
	Inputs    map[string]any
	DependsOn []int
}

// askPlan issues the single compact-prompt LLM call spec §4.7 describes:
// the minimal tool rows for the selection plus the user text and selected
// IDs, with a strict JSON step-graph schema.
func askPlan(ctx context.Context, client llmoracle.Client, userText string, rows []models.MinimalRow, selectedIDs []string) ([]rawStep, error) {
	resp, err := client.Generate(ctx, llmoracle.Request{
		Messages:  []llmoracle.Message{{Role: "user", Content: planPrompt(userText, rows, selectedIDs)}},
		MaxTokens: 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("planner: oracle call failed: %w", err)
	}

	raw, err := llmoracle.ValidateJSON([]byte(planSchema), []byte(resp))
	if err != nil {
		return nil, fmt.Errorf("planner: oracle response failed validation: %w", err)
	}

	items, _ := raw["steps"].([]any)
	out := make([]rawStep, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		toolID, _ := obj["tool_id"].(string)
		if toolID == "" {
			continue
		}
		inputs, _ := obj["inputs"].(map[string]any)
		deps, _ := obj["depends_on"].([]any)
		dependsOn := make([]int, 0, len(deps))
		for _, d := range deps {
			if f, ok := d.(float64); ok {
				dependsOn = append(dependsOn, int(f))
			}
		}
		out = append(out, rawStep{ToolID: toolID, Inputs: inputs, DependsOn: dependsOn})
	}
	return out, nil
}

func planPrompt(userText string, rows []models.MinimalRow, selectedIDs []string) string {
	encodedRows, _ := json.Marshal(rows)
	encodedIDs, _ := json.Marshal(selectedIDs)
	quoted, _ := json.Marshal(userText)
	return fmt.Sprintf(`Build an execution step graph using only the selected tool IDs below. Respond as strict JSON {"steps": [{"tool_id": "...", "inputs": {...}, "depends_on": [0,1]}]}, where depends_on holds indices into this same steps array. Request: %s. Selected tool IDs: %s. Tool rows: %s`, quoted, encodedIDs, encodedRows)
}
