package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opsconductor/core/pkg/dispatcher"
	"github.com/opsconductor/core/pkg/models"
	"github.com/opsconductor/core/pkg/observability"
	"github.com/opsconductor/core/pkg/release"
	"github.com/opsconductor/core/pkg/responder"
	"github.com/opsconductor/core/pkg/selector"
)

const maxInputLen = 4000

// executeHandler handles POST /ai/execute (spec §6): the natural-language
// entry point that drives the full A -> AB -> C -> D pipeline, dispatching
// the resulting plan when it doesn't require approval. FEATURE_BYPASS_LLM
// short-circuits everything below validation to the deterministic echo
// tool (spec §4.11).
func (s *Server) executeHandler(c *gin.Context) {
	started := time.Now()
	traceID := observability.TraceIDFromGin(c)

	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, started, http.StatusBadRequest, errCodeValidation, "malformed request body")
		return
	}
	if req.Input == "" || len(req.Input) > maxInputLen {
		writeError(c, started, http.StatusBadRequest, errCodeValidation, "input must be non-empty and at most 4000 characters")
		return
	}

	if s.bypassActive() {
		s.respondBypass(c, started, traceID, req.Input)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(s.cfg.Exec.TimeoutMS)*time.Millisecond)
	defer cancel()

	classification := s.classifier.Classify(ctx, req.Input)

	selection, err := s.selector.Select(ctx, traceID, req.Input, classification, selector.RequestContext{}, models.PreferenceModeBalanced)
	if err != nil {
		mapExecuteError(c, started, err)
		return
	}

	var plan *models.ExecutionPlan
	var planErr error
	if selection.ReadyForExecution && len(selection.SelectedTools) > 0 {
		p, err := s.planner.Plan(ctx, req.Input, selection, classification.RiskLevel)
		planErr = err
		if err == nil {
			plan = &p
		}
	}

	var status dispatcher.RunResult
	if plan != nil && planErr == nil && !plan.ApprovalRequired {
		result, runErr := s.runPlan(ctx, traceID, c, *plan)
		status = result
		var mce *dispatcher.MissingCredentialsError
		if runErr != nil && errors.As(runErr, &mce) {
			writeMissingCredentials(c, started, mce)
			return
		}
	} else if plan != nil {
		status = dispatcher.RunResult{Status: models.PlanStatusPausedForApproval}
	}

	toolID := "pipeline"
	if len(selection.SelectedIDs()) > 0 {
		toolID = selection.SelectedIDs()[0]
	}

	respText := s.responder.Respond(ctx, req.Input, classification, plan, responder.ExecutionStatus{Status: status.Status, StepResults: status.StepResults}).Text

	s.metrics.AIRequestsTotal.WithLabelValues("success", toolID).Inc()
	s.metrics.AIRequestDuration.WithLabelValues(toolID).Observe(time.Since(started).Seconds())

	c.JSON(http.StatusOK, ExecuteResponse{
		Success:    true,
		Output:     respText,
		TraceID:    traceID,
		DurationMS: time.Since(started).Milliseconds(),
		Tool:       toolID,
	})
}

func (s *Server) respondBypass(c *gin.Context, started time.Time, traceID, input string) {
	output := release.Execute(input)
	s.metrics.AIRequestsTotal.WithLabelValues("success", release.EchoToolID).Inc()
	s.metrics.AIRequestDuration.WithLabelValues(release.EchoToolID).Observe(time.Since(started).Seconds())
	c.JSON(http.StatusOK, ExecuteResponse{
		Success:    true,
		Output:     output,
		TraceID:    traceID,
		DurationMS: time.Since(started).Milliseconds(),
		Tool:       release.EchoToolID,
	})
}

// runPlan loads the FullToolSpec for every step and drives the dispatcher.
func (s *Server) runPlan(ctx context.Context, traceID string, c *gin.Context, plan models.ExecutionPlan) (dispatcher.RunResult, error) {
	specs := make(map[string]models.FullToolSpec, len(plan.Steps))
	for _, step := range plan.Steps {
		if _, ok := specs[step.ToolID]; ok {
			continue
		}
		spec, err := s.store.GetFullSpec(ctx, step.ToolID)
		if err != nil {
			continue
		}
		specs[step.ToolID] = spec
	}

	result, err := s.dispatcher.Run(ctx, dispatcher.RunRequest{
		ExecutionID: uuid.New().String(),
		TenantID:    c.GetHeader("X-Tenant-Id"),
		ActorID:     c.GetHeader("X-Actor-Id"),
		TraceID:     traceID,
		Plan:        plan,
		Specs:       specs,
	})
	if err != nil {
		observability.LogRequest("dispatch_error", traceID, http.StatusOK, "error", err.Error())
	}
	return result, err
}

func mapExecuteError(c *gin.Context, started time.Time, err error) {
	status, code := statusForDispatchError(err)
	if errors.Is(err, context.DeadlineExceeded) {
		status, code = http.StatusGatewayTimeout, errCodeTimeout
	}
	writeError(c, started, status, code, err.Error())
}
