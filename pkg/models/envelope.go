package models

import "time"

// StepResult is one entry of a CollaboratorResponse's step_results array
// (spec §6).
type StepResult struct {
	Step         int         `json:"step"`
	Tool         string      `json:"tool"`
	Status       StepStatus  `json:"status"`
	Output       interface{} `json:"output,omitempty"`
	Error        string      `json:"error,omitempty"`
	LoopIteration *int       `json:"loop_iteration,omitempty"`
	LoopTotal     *int       `json:"loop_total,omitempty"`
}

// CollaboratorRequest is the uniform envelope POSTed to every collaborator
// service's /execute-plan endpoint (spec §6, §4.9 step 5). Plan here is
// always a single-step slice: Stage E dispatches step-by-step so that loop
// expansion and per-step credential injection stay local to the executor.
type CollaboratorRequest struct {
	ExecutionID string                 `json:"execution_id"`
	Plan        CollaboratorPlan       `json:"plan"`
	TenantID    string                 `json:"tenant_id"`
	ActorID     string                 `json:"actor_id"`
}

// CollaboratorPlan wraps the steps field of the uniform envelope.
type CollaboratorPlan struct {
	Steps []CollaboratorStep `json:"steps"`
}

// CollaboratorStep is the resolved, dispatch-ready form of a Step: template
// variables are already substituted and credentials (if any) are already
// injected. It never crosses back out of the dispatcher.
type CollaboratorStep struct {
	Tool   string                 `json:"tool"`
	Inputs map[string]interface{} `json:"inputs"`
}

// CollaboratorResult is the top-level "result" field of a collaborator
// response.
type CollaboratorResult struct {
	Success bool `json:"success"`
}

// CollaboratorResponse is what every collaborator service returns from
// /execute-plan (spec §6).
type CollaboratorResponse struct {
	ExecutionID  string       `json:"execution_id"`
	Status       string       `json:"status"`
	Result       CollaboratorResult `json:"result"`
	StepResults  []StepResult `json:"step_results"`
	CompletedAt  time.Time    `json:"completed_at"`
	ErrorMessage string       `json:"error_message,omitempty"`
}
