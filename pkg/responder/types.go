// Package responder is Stage D (spec §4.8): determines a response type via
// deterministic rules, then formats a user-facing response via a single
// streaming-capable LLM call, falling back to a template on LLM failure.
package responder

import "github.com/opsconductor/core/pkg/models"

// ExecutionStatus is the optional execution-status input Stage D considers
// alongside Classification and ExecutionPlan (spec §4.8 Inputs). Zero value
// means "no execution has started yet".
type ExecutionStatus struct {
	Status      models.PlanStatus
	StepResults []models.StepResult
}

// started reports whether any execution has been attempted at all.
func (e ExecutionStatus) started() bool {
	return e.Status != ""
}

// Response is Stage D's output: a response type plus its rendered text.
type Response struct {
	Type ResponseType
	Text string
}

// ResponseType re-exports models.ResponseType so callers only need to
// import this package for Stage D's contract.
type ResponseType = models.ResponseType
