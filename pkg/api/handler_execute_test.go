package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsconductor/core/pkg/dispatcher"
	"github.com/opsconductor/core/pkg/models"
	"github.com/opsconductor/core/pkg/observability"
)

func postJSON(path string, body any) *http.Request {
	buf, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestExecuteHandler_BypassActive(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	s.cfg.Features.BypassLLM = true
	s.metrics = observability.NewMetrics(prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = postJSON("/ai/execute", ExecuteRequest{Input: "ping"})

	s.executeHandler(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp ExecuteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "pong", resp.Output)
	assert.Equal(t, "echo", resp.Tool)
}

func TestExecuteHandler_RejectsEmptyInput(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	s.metrics = observability.NewMetrics(prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = postJSON("/ai/execute", ExecuteRequest{Input: ""})

	s.executeHandler(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, errCodeValidation, resp.Code)
}

func TestExecuteHandler_RejectsOversizedInput(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	s.metrics = observability.NewMetrics(prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = postJSON("/ai/execute", ExecuteRequest{Input: strings.Repeat("a", maxInputLen+1)})

	s.executeHandler(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteHandler_FullPipeline(t *testing.T) {
	s, store, _ := newTestServer(t, nil)
	s.metrics = observability.NewMetrics(prometheus.NewRegistry())
	s.classifier = &fakeClassifier{result: models.Classification{RiskLevel: models.RiskLevelLow}}

	spec := models.FullToolSpec{ToolIndexEntry: models.ToolIndexEntry{ID: "restart_service", Platform: models.PlatformLinux}}
	store.put(spec)

	s.selector = &fakeSelector{result: models.SelectionV1{
		SelectedTools:     []models.SelectedTool{{ToolID: "restart_service"}},
		ReadyForExecution: true,
	}}
	s.planner = &fakePlanner{plan: models.ExecutionPlan{
		Steps: []models.Step{{ToolID: "restart_service"}},
	}}
	s.dispatcher = &fakeDispatcher{result: dispatcher.RunResult{
		Status:      models.PlanStatusCompleted,
		StepResults: []models.StepResult{{Step: 0, Tool: "restart_service", Status: models.StepStatusSuccess}},
	}}
	s.responder = &fakeResponder{text: "nginx restarted"}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = postJSON("/ai/execute", ExecuteRequest{Input: "restart nginx on web-1"})

	s.executeHandler(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp ExecuteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "nginx restarted", resp.Output)
	assert.Equal(t, "restart_service", resp.Tool)
}

func TestExecuteHandler_PlanRequiringApprovalSkipsDispatch(t *testing.T) {
	s, store, _ := newTestServer(t, nil)
	s.metrics = observability.NewMetrics(prometheus.NewRegistry())
	s.classifier = &fakeClassifier{result: models.Classification{RiskLevel: models.RiskLevelHigh}}

	store.put(models.FullToolSpec{ToolIndexEntry: models.ToolIndexEntry{ID: "delete_user"}})
	s.selector = &fakeSelector{result: models.SelectionV1{
		SelectedTools:     []models.SelectedTool{{ToolID: "delete_user"}},
		ReadyForExecution: true,
	}}
	s.planner = &fakePlanner{plan: models.ExecutionPlan{
		Steps:            []models.Step{{ToolID: "delete_user"}},
		ApprovalRequired: true,
	}}
	s.dispatcher = &fakeDispatcher{err: assertShouldNotRun{}}
	s.responder = &fakeResponder{text: "approval required"}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = postJSON("/ai/execute", ExecuteRequest{Input: "delete user bob"})

	s.executeHandler(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp ExecuteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "approval required", resp.Output)
}

// assertShouldNotRun is an error type used purely so a test fails loudly
// (via a recognizable error message) if the dispatcher is ever invoked
// when the plan requires approval.
type assertShouldNotRun struct{}

func (assertShouldNotRun) Error() string { return "dispatcher must not run for an approval-required plan" }

func TestExecuteHandler_SelectorErrorMapsToResponse(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	s.metrics = observability.NewMetrics(prometheus.NewRegistry())
	s.classifier = &fakeClassifier{}
	s.selector = &fakeSelector{err: dispatcher.ErrUpstreamUnreachable}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = postJSON("/ai/execute", ExecuteRequest{Input: "do the thing"})

	s.executeHandler(c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
