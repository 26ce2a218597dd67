// Package dispatcher is Stage E, the Asset-Intelligent Executor (spec
// §4.9): it drives an ExecutionPlan over the four collaborator services,
// resolving templates, expanding loops, resolving credentials, and
// enforcing the plan-level state machine queued -> running ->
// (paused_for_approval <-> running) -> (completed | failed).
package dispatcher

import (
	"context"
	"time"

	"github.com/opsconductor/core/pkg/asset"
	"github.com/opsconductor/core/pkg/config"
	"github.com/opsconductor/core/pkg/models"
	"github.com/opsconductor/core/pkg/secrets"
)

// RunRequest is everything Dispatcher.Run needs to drive one plan.
type RunRequest struct {
	ExecutionID string
	TenantID    string
	ActorID     string
	TraceID     string

	Plan  models.ExecutionPlan
	Specs map[string]models.FullToolSpec // by Step.ToolID

	// Approved lets a caller resume a plan that previously paused for
	// approval; Run itself never flips this — a fresh Run call always
	// pauses first if the plan requires approval.
	Approved bool
}

// RunResult is the plan-level outcome of one Run call.
type RunResult struct {
	Status      models.PlanStatus
	StepResults []models.StepResult
}

// Dispatcher is the Stage E contract.
type Dispatcher interface {
	Run(ctx context.Context, req RunRequest) (RunResult, error)
}

type dispatcher struct {
	broker      secrets.Broker
	assets      asset.Client
	client      *collaboratorClient
	serviceToken string
}

// New constructs a Dispatcher. collaborators is the URL registry Stage E
// routes to (spec §4.9 step 1); stepTimeout bounds every collaborator call
// absent a more specific per-step timeout; serviceToken is the
// pre-shared internal key the broker's credential endpoints authorize
// against (pkg/config.SecretsConfig.InternalKey) — the dispatcher is
// itself an internal caller, never the external gateway.
func New(broker secrets.Broker, assets asset.Client, collaborators config.CollaboratorsConfig, stepTimeout time.Duration, serviceToken string) Dispatcher {
	return &dispatcher{
		broker:       broker,
		assets:       assets,
		client:       newCollaboratorClient(collaborators, stepTimeout),
		serviceToken: serviceToken,
	}
}

func (d *dispatcher) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	if req.Plan.ApprovalRequired && !req.Approved {
		return RunResult{Status: models.PlanStatusPausedForApproval}, nil
	}

	order, err := req.Plan.TopoSort()
	if err != nil {
		return RunResult{Status: models.PlanStatusFailed}, err
	}

	execCtx := NewExecutionContext()
	byStep := make(map[int][]models.StepResult, len(req.Plan.Steps))

	for _, stepIdx := range order {
		step := req.Plan.Steps[stepIdx]
		spec := req.Specs[step.ToolID]

		if trigger, isLoop := detectLoop(step.Inputs, execCtx); isLoop {
			iterResults, outputs, fatal := d.runLoop(ctx, req, stepIdx, step, spec, trigger, execCtx)
			byStep[stepIdx] = iterResults
			execCtx.recordStepResult(stepIdx, step.ToolID, outputs)
			if fatal != nil {
				return RunResult{Status: models.PlanStatusFailed, StepResults: flatten(byStep, len(req.Plan.Steps))}, fatal
			}
			continue
		}

		result, err := d.runStep(ctx, req, stepIdx, step, spec, step.Inputs, execCtx, nil)
		byStep[stepIdx] = []models.StepResult{result}
		if err != nil {
			if IsMissingCredentials(err) {
				return RunResult{Status: models.PlanStatusFailed, StepResults: flatten(byStep, len(req.Plan.Steps))}, err
			}
			if !step.ContinueOnFailure {
				return RunResult{Status: models.PlanStatusFailed, StepResults: flatten(byStep, len(req.Plan.Steps))}, err
			}
		}
		execCtx.recordStepResult(stepIdx, step.ToolID, result.Output)
	}

	return RunResult{Status: models.PlanStatusCompleted, StepResults: flatten(byStep, len(req.Plan.Steps))}, nil
}

// runStep resolves templates and credentials, invokes the collaborator,
// and produces the StepResult for one (possibly loop-iteration) dispatch.
// frame is non-nil only for a loop iteration, in which case the returned
// StepResult carries LoopIteration/LoopTotal.
func (d *dispatcher) runStep(ctx context.Context, req RunRequest, stepIdx int, step models.Step, spec models.FullToolSpec, rawInputs map[string]interface{}, execCtx *ExecutionContext, frame *models.LoopFrame) (models.StepResult, error) {
	resolved := resolveInputs(rawInputs, execCtx, req.TraceID)

	resolved, err := resolveCredentials(ctx, d.broker, d.assets, d.serviceToken, req.ActorID, step.ToolID, spec, resolved)
	if err != nil {
		out := models.StepResult{Step: stepIdx, Tool: step.ToolID, Status: models.StepStatusFailed, Error: err.Error()}
		applyLoopFields(&out, frame)
		return out, err
	}

	collabReq := models.CollaboratorRequest{
		ExecutionID: req.ExecutionID,
		TenantID:    req.TenantID,
		ActorID:     req.ActorID,
		Plan: models.CollaboratorPlan{
			Steps: []models.CollaboratorStep{{Tool: normalizeToolName(step.ToolID), Inputs: resolved}},
		},
	}

	stepCtx := ctx
	if step.TimeoutMS > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, time.Duration(step.TimeoutMS)*time.Millisecond)
		defer cancel()
	}

	resp, err := d.client.invoke(stepCtx, spec.ExecutionLocation, req.TraceID, collabReq, step.RetryPolicy)
	if err != nil {
		out := models.StepResult{Step: stepIdx, Tool: step.ToolID, Status: models.StepStatusFailed, Error: err.Error()}
		applyLoopFields(&out, frame)
		return out, err
	}

	var out models.StepResult
	switch {
	case len(resp.StepResults) > 0:
		out = resp.StepResults[0]
	case resp.Result.Success:
		out = models.StepResult{Status: models.StepStatusSuccess}
	default:
		out = models.StepResult{Status: models.StepStatusFailed, Error: resp.ErrorMessage}
	}
	out.Step = stepIdx
	out.Tool = step.ToolID
	applyLoopFields(&out, frame)

	if out.Status == models.StepStatusFailed {
		return out, dispatchError(out.Error)
	}
	return out, nil
}

func applyLoopFields(result *models.StepResult, frame *models.LoopFrame) {
	if frame == nil {
		return
	}
	idx, total := frame.LoopIndex, frame.LoopTotal
	result.LoopIteration = &idx
	result.LoopTotal = &total
}

// flatten assembles the final step_results array in step-index order
// (spec §5: "Step results in a plan are appended in step-index order"),
// inlining each loop step's per-iteration results in iteration order at
// that step's position. Steps the run never reached (it stopped early)
// are simply absent.
func flatten(byStep map[int][]models.StepResult, nSteps int) []models.StepResult {
	out := make([]models.StepResult, 0, nSteps)
	for i := 0; i < nSteps; i++ {
		out = append(out, byStep[i]...)
	}
	return out
}
