package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opsconductor/core/pkg/dispatcher"
	"github.com/opsconductor/core/pkg/observability"
)

// writeError writes the structured error body spec §7 requires and logs
// the request via pkg/observability, splitting 4xx/5xx severity the way
// LogRequest specifies.
func writeError(c *gin.Context, started time.Time, status int, code errorCode, message string) {
	traceID := observability.TraceIDFromGin(c)
	resp := ErrorResponse{
		Code:       code,
		Message:    message,
		TraceID:    traceID,
		DurationMS: time.Since(started).Milliseconds(),
	}
	observability.LogRequest(string(code), traceID, status, "path", c.FullPath())
	c.JSON(status, resp)
}

// writeMissingCredentials surfaces a *dispatcher.MissingCredentialsError as
// the structured missing_credentials error spec §6/§7 name, carrying the
// unmet parameter descriptor for the caller to fulfill.
func writeMissingCredentials(c *gin.Context, started time.Time, err *dispatcher.MissingCredentialsError) {
	traceID := observability.TraceIDFromGin(c)
	resp := ErrorResponse{
		Code:               errCodeMissingCredentials,
		Message:            err.Error(),
		TraceID:            traceID,
		DurationMS:         time.Since(started).Milliseconds(),
		MissingCredentials: &err.Descriptor,
	}
	observability.LogRequest(string(errCodeMissingCredentials), traceID, http.StatusOK, "tool", err.ToolID)
	c.JSON(http.StatusOK, resp)
}

// statusForDispatchError maps a dispatcher-layer error to an ingress
// status code (spec §6: "502 (upstream unreachable), 504 (timeout)").
func statusForDispatchError(err error) (int, errorCode) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case dispatcher.IsMissingCredentials(err):
		return http.StatusOK, errCodeMissingCredentials
	case isUpstreamUnreachable(err):
		return http.StatusBadGateway, errCodeUpstreamUnreachable
	default:
		return http.StatusInternalServerError, errCodeInternal
	}
}

func isUpstreamUnreachable(err error) bool {
	return errors.Is(err, dispatcher.ErrUpstreamUnreachable)
}
