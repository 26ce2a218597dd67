package responder

import (
	"fmt"

	"github.com/opsconductor/core/pkg/models"
)

func responsePrompt(responseType ResponseType, userText string, classification models.Classification, plan *models.ExecutionPlan, status ExecutionStatus) string {
	switch responseType {
	case models.ResponseTypeInformation:
		return fmt.Sprintf("Write a short, plain-language reply to this operations request: %q. Intent: %s %s.", userText, classification.Intent.Category, classification.Intent.Action)

	case models.ResponseTypePlanSummary:
		return fmt.Sprintf("Summarize this %d-step execution plan for the operator in plain language: %s", len(plan.Steps), stepList(plan.Steps))

	case models.ResponseTypeApprovalRequest:
		return fmt.Sprintf("Explain that this %d-step, %s-risk plan needs approval before it runs, and why: %s", len(plan.Steps), plan.RiskLevel, stepList(plan.Steps))

	case models.ResponseTypeExecutionReady:
		return fmt.Sprintf("The plan is now %s. Give the operator a brief status update.", status.Status)

	case models.ResponseTypeExecutionResult:
		return fmt.Sprintf("Summarize this execution outcome (%s) for the operator: %s", status.Status, resultList(status.StepResults))

	default:
		return userText
	}
}
