// Package observability is the trace-propagation, metrics, and structured
// logging layer shared by every stage (spec §4.10): every external ingress
// accepts an optional X-Trace-Id, the orchestrator mints one when absent,
// and the same ID is attached to every downstream call and log line.
package observability

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TraceIDHeader is the HTTP header every ingress/egress call propagates
// the trace ID on (spec §4.10, §6: "all endpoints propagate X-Trace-Id in
// and out").
const TraceIDHeader = "X-Trace-Id"

type traceIDKey struct{}

// NewTraceID mints a UUID v4 trace ID, grounded on the teacher's
// pkg/events/manager.go connection-ID pattern (uuid.New() per connection).
func NewTraceID() string {
	return uuid.New().String()
}

// WithTraceID returns a context carrying traceID for downstream lookups.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDFromContext returns the trace ID carried by ctx, or "" if none.
func TraceIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(traceIDKey{}).(string)
	return v
}

// TraceMiddleware reads X-Trace-Id from the incoming request, generating
// one when absent, stashes it on both the gin and request contexts, and
// echoes it back on the response so every ingress/egress pair round-trips
// the same ID (spec §8: "response.trace_id equals the request's
// X-Trace-Id if provided").
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = NewTraceID()
		}
		c.Set("trace_id", traceID)
		c.Request = c.Request.WithContext(WithTraceID(c.Request.Context(), traceID))
		c.Writer.Header().Set(TraceIDHeader, traceID)
		c.Next()
	}
}

// TraceIDFromGin returns the trace ID TraceMiddleware attached to c.
func TraceIDFromGin(c *gin.Context) string {
	v, _ := c.Get("trace_id")
	id, _ := v.(string)
	return id
}
