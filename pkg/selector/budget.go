package selector

// Token budgeting constants (spec §4.6 step 4).
const (
	outputReserveFraction = 0.30
	basePromptCost        = 600
	minMaxRows            = 10
)

// maxRows computes the hard cap on candidate rows sent to the LLM prompt:
// max(10, floor((CTX*(1-0.30) - BASE)/ROW)).
func maxRows(contextWindow, tokensPerRow int) int {
	usable := float64(contextWindow)*(1-outputReserveFraction) - float64(basePromptCost)
	if usable <= 0 {
		return minMaxRows
	}
	rows := int(usable / float64(tokensPerRow))
	if rows < minMaxRows {
		return minMaxRows
	}
	return rows
}

// budgetUsedTokens estimates the prompt token cost actually spent sending
// rowCount candidate rows, for the telemetry row's budget_used_tokens and
// headroom_left_pct fields.
func budgetUsedTokens(rowCount, tokensPerRow int) int {
	return basePromptCost + rowCount*tokensPerRow
}

// headroomLeftPct implements the Glossary's headroom formula:
// 1 - (budget_used / (CTX * (1-reserve))), expressed as a percentage
// (multiplied by 100) and floored at 0.
func headroomLeftPct(budgetUsed, contextWindow int) float64 {
	denom := float64(contextWindow) * (1 - outputReserveFraction)
	if denom <= 0 {
		return 0
	}
	pct := (1 - float64(budgetUsed)/denom) * 100
	if pct < 0 {
		return 0
	}
	return pct
}
