package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestTraceMiddleware_PropagatesIncomingTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceMiddleware())
	var seen string
	r.GET("/x", func(c *gin.Context) {
		seen = TraceIDFromGin(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(TraceIDHeader, "tr_001")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "tr_001", seen)
	assert.Equal(t, "tr_001", w.Header().Get(TraceIDHeader))
}

func TestTraceMiddleware_GeneratesTraceIDWhenAbsent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceMiddleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get(TraceIDHeader))
}

func TestWithTraceID_RoundTrips(t *testing.T) {
	ctx := WithTraceID(t.Context(), "tr_abc")
	assert.Equal(t, "tr_abc", TraceIDFromContext(ctx))
}
