package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opsconductor/core/pkg/llmoracle"
	"github.com/opsconductor/core/pkg/models"
)

// TieBreakTimeout bounds the conditional LLM tie-break call (spec §4.6 step
// 8). Timeout or invalid JSON falls back to the deterministic winner.
const TieBreakTimeout = 3 * time.Second

const tieBreakSchema = `{
	"type": "object",
	"required": ["intent", "entities", "select", "confidence", "risk_level", "reasoning"],
	"properties": {
		"intent": {"type": "string"},
		"entities": {"type": "array", "items": {"type": "string"}},
		"select": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "why"],
				"properties": {
					"id": {"type": "string"},
					"why": {"type": "string"}
				}
			}
		},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"risk_level": {"type": "string", "enum": ["low", "medium", "high"]},
		"reasoning": {"type": "string"}
	}
}`

// tieBreakResult is the decoded, schema-validated tie-break response.
type tieBreakResult struct {
	selectedIDs []string
	reasoning   string
}

// breakTie asks the oracle to pick among the top candidates when their
// deterministic scores are within the ambiguity margin (spec §4.6 step 8).
// On any failure — oracle error, timeout, schema-invalid response — it
// returns ok=false and the caller keeps the deterministic winner; this is
// recorded by the caller as a tie-break attempt regardless of outcome.
func breakTie(ctx context.Context, client llmoracle.Client, userText string, candidates []scoredCandidate) (tieBreakResult, bool) {
	if client == nil || len(candidates) == 0 {
		return tieBreakResult{}, false
	}

	tctx, cancel := context.WithTimeout(ctx, TieBreakTimeout)
	defer cancel()

	resp, err := client.Generate(tctx, llmoracle.Request{
		Messages:  []llmoracle.Message{{Role: "user", Content: tieBreakPrompt(userText, candidates)}},
		MaxTokens: 400,
	})
	if err != nil {
		return tieBreakResult{}, false
	}

	raw, err := llmoracle.ValidateJSON([]byte(tieBreakSchema), []byte(resp))
	if err != nil {
		return tieBreakResult{}, false
	}

	selectItems, _ := raw["select"].([]any)
	valid := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		valid[c.Entry.ID] = true
	}

	var ids []string
	for _, item := range selectItems {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := obj["id"].(string)
		if id != "" && valid[id] {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return tieBreakResult{}, false
	}

	reasoning, _ := raw["reasoning"].(string)
	return tieBreakResult{selectedIDs: ids, reasoning: reasoning}, true
}

func tieBreakPrompt(userText string, candidates []scoredCandidate) string {
	type row struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Desc string `json:"desc"`
	}
	rows := make([]row, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, row{ID: c.Entry.ID, Name: c.Entry.Name, Desc: c.Entry.DescShort})
	}
	encoded, _ := json.Marshal(rows)
	quoted, _ := json.Marshal(userText)
	return fmt.Sprintf(`These candidate tools scored within the ambiguity margin of each other for this request. Pick the best one(s) and respond as strict JSON {"intent": "...", "entities": [...], "select": [{"id": "...", "why": "..."}], "confidence": 0.0-1.0, "risk_level": "low"|"medium"|"high", "reasoning": "..."}. Request: %s. Candidates: %s`, quoted, encoded)
}
