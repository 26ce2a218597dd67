package observability

import (
	"log/slog"
	"net/http"
)

// LogRequest emits one structured JSON line per request per stage (spec
// §4.10: "one JSON event per request per stage with event, trace_id,
// status, and stage-specific fields; 4xx at warning, 5xx at error").
// statusCode follows HTTP status-code severity conventions even for stages
// that never sit behind an HTTP handler directly (Stage A/AB/C/D/E map
// their own outcomes to an equivalent code before calling this).
func LogRequest(event, traceID string, statusCode int, fields ...any) {
	args := append([]any{"event", event, "trace_id", traceID, "status", statusCode}, fields...)
	switch {
	case statusCode >= 500:
		slog.Error("request failed", args...)
	case statusCode >= 400:
		slog.Warn("request rejected", args...)
	default:
		slog.Info("request completed", args...)
	}
}

// StatusFromError maps a nil/non-nil error pair plus an "is this a client
// error" predicate to the HTTP-style status code LogRequest expects, so
// callers outside pkg/api don't need to hand-pick 400 vs 500 themselves.
func StatusFromError(err error, isClientError func(error) bool) int {
	if err == nil {
		return http.StatusOK
	}
	if isClientError != nil && isClientError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
