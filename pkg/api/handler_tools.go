package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opsconductor/core/pkg/dispatcher"
	"github.com/opsconductor/core/pkg/models"
	"github.com/opsconductor/core/pkg/observability"
	"github.com/opsconductor/core/pkg/toolindex"
)

// toolExecuteHandler handles POST /ai/tools/execute (spec §6): direct
// single-tool dispatch that bypasses the natural-language pipeline
// entirely. name/params map straight onto a single-step plan so the
// request still goes through Stage E's template resolution, credential
// resolution, and collaborator invocation.
func (s *Server) toolExecuteHandler(c *gin.Context) {
	started := time.Now()
	traceID := observability.TraceIDFromGin(c)

	var req ToolExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		writeError(c, started, http.StatusBadRequest, errCodeValidation, "name is required")
		return
	}

	ctx := c.Request.Context()
	spec, err := s.store.GetFullSpec(ctx, req.Name)
	if err != nil {
		if errors.Is(err, toolindex.ErrNotFound) {
			writeError(c, started, http.StatusNotFound, errCodeNotFound, "unknown tool: "+req.Name)
			return
		}
		writeError(c, started, http.StatusInternalServerError, errCodeInternal, err.Error())
		return
	}

	if missing := missingRequiredParams(spec.RequiredInputs, req.Params); len(missing) > 0 {
		resp := ErrorResponse{
			Code:          errCodeMissingParams,
			Message:       "missing required parameters",
			TraceID:       traceID,
			DurationMS:    time.Since(started).Milliseconds(),
			MissingParams: missing,
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	plan := models.ExecutionPlan{
		Steps: []models.Step{{
			ToolID: req.Name,
			Inputs: req.Params,
			RetryPolicy: models.RetryPolicy{
				MaxAttempts: spec.RetryMaxAttempts,
			},
			TimeoutMS: spec.TimeoutMS,
		}},
	}

	result, err := s.dispatcher.Run(ctx, dispatcher.RunRequest{
		ExecutionID: uuid.New().String(),
		TenantID:    c.GetHeader("X-Tenant-Id"),
		ActorID:     c.GetHeader("X-Actor-Id"),
		TraceID:     traceID,
		Plan:        plan,
		Specs:       map[string]models.FullToolSpec{req.Name: spec},
	})

	var mce *dispatcher.MissingCredentialsError
	if err != nil && errors.As(err, &mce) {
		writeMissingCredentials(c, started, mce)
		return
	}

	if err != nil || len(result.StepResults) == 0 || result.StepResults[0].Status != models.StepStatusSuccess {
		message := "tool execution failed"
		if err != nil {
			message = err.Error()
		} else if len(result.StepResults) > 0 {
			message = result.StepResults[0].Error
		}
		s.metrics.AIRequestsTotal.WithLabelValues("error", req.Name).Inc()
		c.JSON(http.StatusOK, ToolExecuteResponse{
			Success:    false,
			Tool:       req.Name,
			Error:      message,
			TraceID:    traceID,
			DurationMS: time.Since(started).Milliseconds(),
			ExitCode:   1,
		})
		return
	}

	s.metrics.AIRequestsTotal.WithLabelValues("success", req.Name).Inc()
	s.metrics.AIRequestDuration.WithLabelValues(req.Name).Observe(time.Since(started).Seconds())
	c.JSON(http.StatusOK, ToolExecuteResponse{
		Success:    true,
		Tool:       req.Name,
		Output:     result.StepResults[0].Output,
		TraceID:    traceID,
		DurationMS: time.Since(started).Milliseconds(),
		ExitCode:   0,
	})
}

func missingRequiredParams(required []models.ParameterSchema, params map[string]interface{}) []models.ParameterDescriptor {
	var missing []models.ParameterDescriptor
	for _, r := range required {
		if r.Optional {
			continue
		}
		if _, ok := params[r.Name]; ok {
			continue
		}
		missing = append(missing, models.ParameterDescriptor{
			Name:       r.Name,
			Type:       r.Type,
			Secret:     r.Secret,
			Validation: r.ValidationRegex,
			Hint:       r.Hint,
		})
	}
	return missing
}

// toolListHandler handles GET /ai/tools/list?platform=&category=&tags=.
// category has no dedicated column in the tool index, so it is folded
// into the tag filter alongside any tags= values.
func (s *Server) toolListHandler(c *gin.Context) {
	started := time.Now()

	platform := models.Platform(c.Query("platform"))
	if platform != "" && !platform.IsValid() {
		writeError(c, started, http.StatusBadRequest, errCodeValidation, "unknown platform: "+string(platform))
		return
	}

	var tags []string
	if raw := c.Query("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}
	if category := c.Query("category"); category != "" {
		tags = append(tags, category)
	}

	entries, err := s.store.ListTools(c.Request.Context(), platform, tags)
	if err != nil {
		writeError(c, started, http.StatusInternalServerError, errCodeInternal, err.Error())
		return
	}

	rows := make([]models.MinimalRow, len(entries))
	for i, e := range entries {
		rows[i] = e.Row()
	}
	c.JSON(http.StatusOK, ToolListResponse{Tools: rows})
}
