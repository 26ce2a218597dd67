package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsconductor/core/pkg/models"
	"github.com/opsconductor/core/pkg/observability"
	"github.com/opsconductor/core/pkg/toolindex"
)

func TestSelectorSearchHandler_RequiresQuery(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	s.metrics = observability.NewMetrics(prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/selector/search?query=", nil)

	s.selectorSearchHandler(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSelectorSearchHandler_RejectsKOutOfRange(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	s.metrics = observability.NewMetrics(prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/selector/search?query=restart&k=99", nil)

	s.selectorSearchHandler(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSelectorSearchHandler_RejectsTooManyPlatforms(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	s.metrics = observability.NewMetrics(prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/selector/search?query=restart&platform=a,b,c,d,e,f", nil)

	s.selectorSearchHandler(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSelectorSearchHandler_MissCachesThenHits(t *testing.T) {
	s, store, _ := newTestServer(t, nil)
	s.metrics = observability.NewMetrics(prometheus.NewRegistry())
	store.put(models.FullToolSpec{ToolIndexEntry: models.ToolIndexEntry{ID: "restart_service", Platform: models.PlatformLinux}})

	rec1 := httptest.NewRecorder()
	c1, _ := gin.CreateTestContext(rec1)
	c1.Request = httptest.NewRequest(http.MethodGet, "/api/selector/search?query=restart", nil)
	s.selectorSearchHandler(c1)

	assert.Equal(t, http.StatusOK, rec1.Code)
	var resp1 SelectorSearchResponse
	require.NoError(t, json.Unmarshal(rec1.Body.Bytes(), &resp1))
	assert.False(t, resp1.FromCache)
	require.Len(t, resp1.Candidates, 1)

	rec2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(rec2)
	c2.Request = httptest.NewRequest(http.MethodGet, "/api/selector/search?query=restart", nil)
	s.selectorSearchHandler(c2)

	assert.Equal(t, http.StatusOK, rec2.Code)
	var resp2 SelectorSearchResponse
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &resp2))
	assert.True(t, resp2.FromCache)
}

func TestSelectorSearchHandler_DegradedWithoutCacheReturns503(t *testing.T) {
	s, store, _ := newTestServer(t, nil)
	s.metrics = observability.NewMetrics(prometheus.NewRegistry())
	s.cfg.Selector.DegradedEnable = true
	store.lexErr = errors.New("lexical search unavailable")

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/selector/search?query=restart", nil)

	s.selectorSearchHandler(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
}

func TestSelectorSearchHandler_StoreErrorWithoutDegradedIs500(t *testing.T) {
	s, store, _ := newTestServer(t, nil)
	s.metrics = observability.NewMetrics(prometheus.NewRegistry())
	s.cfg.Selector.DegradedEnable = false
	store.lexErr = errors.New("lexical search unavailable")

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/selector/search?query=restart", nil)

	s.selectorSearchHandler(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMergeScored_KeepsMaxScorePerID(t *testing.T) {
	lexical := []toolindex.ScoredEntry{
		{Entry: models.ToolIndexEntry{ID: "a"}, Score: 0.2},
		{Entry: models.ToolIndexEntry{ID: "b"}, Score: 0.9},
	}
	vector := []toolindex.ScoredEntry{
		{Entry: models.ToolIndexEntry{ID: "a"}, Score: 0.8},
	}

	merged := mergeScored(lexical, vector)

	require.Len(t, merged, 2)
	assert.Equal(t, "b", merged[0].Entry.ID)
	assert.Equal(t, "a", merged[1].Entry.ID)
	assert.InDelta(t, 0.8, merged[1].Score, 0.0001)
}
