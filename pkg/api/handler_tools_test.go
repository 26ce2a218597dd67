package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsconductor/core/pkg/dispatcher"
	"github.com/opsconductor/core/pkg/models"
	"github.com/opsconductor/core/pkg/observability"
)

func TestToolExecuteHandler_Success(t *testing.T) {
	s, store, _ := newTestServer(t, nil)
	s.metrics = observability.NewMetrics(prometheus.NewRegistry())

	store.put(models.FullToolSpec{ToolIndexEntry: models.ToolIndexEntry{ID: "restart_service", Platform: models.PlatformLinux}})
	s.dispatcher = &fakeDispatcher{result: dispatcher.RunResult{
		Status:      models.PlanStatusCompleted,
		StepResults: []models.StepResult{{Step: 0, Tool: "restart_service", Status: models.StepStatusSuccess, Output: "ok"}},
	}}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = postJSON("/ai/tools/execute", ToolExecuteRequest{Name: "restart_service", Params: map[string]interface{}{"service": "nginx"}})

	s.toolExecuteHandler(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp ToolExecuteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ok", resp.Output)
	assert.Equal(t, 0, resp.ExitCode)
}

func TestToolExecuteHandler_UnknownTool(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	s.metrics = observability.NewMetrics(prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = postJSON("/ai/tools/execute", ToolExecuteRequest{Name: "no_such_tool"})

	s.toolExecuteHandler(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, errCodeNotFound, resp.Code)
}

func TestToolExecuteHandler_MissingRequiredParams(t *testing.T) {
	s, store, _ := newTestServer(t, nil)
	s.metrics = observability.NewMetrics(prometheus.NewRegistry())

	store.put(models.FullToolSpec{
		ToolIndexEntry: models.ToolIndexEntry{ID: "tail_file"},
		RequiredInputs: []models.ParameterSchema{{Name: "path", Type: "string"}},
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = postJSON("/ai/tools/execute", ToolExecuteRequest{Name: "tail_file"})

	s.toolExecuteHandler(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, errCodeMissingParams, resp.Code)
	require.Len(t, resp.MissingParams, 1)
	assert.Equal(t, "path", resp.MissingParams[0].Name)
}

func TestToolExecuteHandler_MissingCredentials(t *testing.T) {
	s, store, _ := newTestServer(t, nil)
	s.metrics = observability.NewMetrics(prometheus.NewRegistry())

	store.put(models.FullToolSpec{ToolIndexEntry: models.ToolIndexEntry{ID: "invoke_command"}})
	mce := &dispatcher.MissingCredentialsError{
		ToolID:     "invoke_command",
		Descriptor: models.ParameterDescriptor{Name: "winrm_password", Secret: true},
	}
	s.dispatcher = &fakeDispatcher{err: mce}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = postJSON("/ai/tools/execute", ToolExecuteRequest{Name: "invoke_command"})

	s.toolExecuteHandler(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, errCodeMissingCredentials, resp.Code)
	require.NotNil(t, resp.MissingCredentials)
	assert.Equal(t, "winrm_password", resp.MissingCredentials.Name)
}

func TestToolListHandler_FiltersByPlatform(t *testing.T) {
	s, store, _ := newTestServer(t, nil)
	s.metrics = observability.NewMetrics(prometheus.NewRegistry())

	store.put(models.FullToolSpec{ToolIndexEntry: models.ToolIndexEntry{ID: "linux_a", Platform: models.PlatformLinux, Tags: []string{"service"}}})
	store.put(models.FullToolSpec{ToolIndexEntry: models.ToolIndexEntry{ID: "windows_a", Platform: models.PlatformWindows, Tags: []string{"service"}}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/ai/tools/list?platform=linux", nil)

	s.toolListHandler(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp ToolListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tools, 1)
	assert.Equal(t, "linux_a", resp.Tools[0].ID)
}

func TestToolListHandler_RejectsUnknownPlatform(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	s.metrics = observability.NewMetrics(prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/ai/tools/list?platform=amiga", nil)

	s.toolListHandler(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
