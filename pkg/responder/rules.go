package responder

import "github.com/opsconductor/core/pkg/models"

// classifyResponseType picks the response type via deterministic rules
// (spec §4.8): execution status dominates when present, then the plan's
// approval gate, then whether a plan exists at all.
func classifyResponseType(plan *models.ExecutionPlan, status ExecutionStatus) ResponseType {
	if status.started() {
		if status.Status.Terminal() {
			return models.ResponseTypeExecutionResult
		}
		if status.Status == models.PlanStatusPausedForApproval {
			return models.ResponseTypeApprovalRequest
		}
		return models.ResponseTypeExecutionReady
	}

	if plan == nil {
		return models.ResponseTypeInformation
	}
	if plan.ApprovalRequired {
		return models.ResponseTypeApprovalRequest
	}
	return models.ResponseTypePlanSummary
}
