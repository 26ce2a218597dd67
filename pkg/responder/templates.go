package responder

import (
	"fmt"
	"strings"

	"github.com/opsconductor/core/pkg/models"
)

// renderTemplate produces a structured textual summary without the LLM
// (spec §4.8: "on LLM failure, a template-based fallback renders a
// structured textual summary").
func renderTemplate(responseType ResponseType, classification models.Classification, plan *models.ExecutionPlan, status ExecutionStatus) string {
	switch responseType {
	case models.ResponseTypeInformation:
		return fmt.Sprintf("Understood: %s %s.", classification.Intent.Category, classification.Intent.Action)

	case models.ResponseTypePlanSummary:
		return fmt.Sprintf("Plan ready with %d step(s):\n%s", len(plan.Steps), stepList(plan.Steps))

	case models.ResponseTypeApprovalRequest:
		return fmt.Sprintf("This plan requires approval before it runs (%d step(s), risk: %s):\n%s",
			len(plan.Steps), plan.RiskLevel, stepList(plan.Steps))

	case models.ResponseTypeExecutionReady:
		return fmt.Sprintf("Execution is %s.", status.Status)

	case models.ResponseTypeExecutionResult:
		return fmt.Sprintf("Execution %s.\n%s", status.Status, resultList(status.StepResults))

	default:
		return "Request processed."
	}
}

func stepList(steps []models.Step) string {
	var b strings.Builder
	for i, s := range steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s.ToolID)
	}
	return b.String()
}

func resultList(results []models.StepResult) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "- %s: %s\n", r.Tool, r.Status)
		if r.Error != "" {
			fmt.Fprintf(&b, "  error: %s\n", r.Error)
		}
	}
	return b.String()
}
