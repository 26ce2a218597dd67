package api

import "github.com/opsconductor/core/pkg/models"

// ExecuteRequest is the body of POST /ai/execute (spec §6).
type ExecuteRequest struct {
	Input   string `json:"input"`
	Tool    string `json:"tool,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// ExecuteResponse is the response of POST /ai/execute.
type ExecuteResponse struct {
	Success    bool   `json:"success"`
	Output     string `json:"output,omitempty"`
	Error      string `json:"error,omitempty"`
	TraceID    string `json:"trace_id"`
	DurationMS int64  `json:"duration_ms"`
	Tool       string `json:"tool,omitempty"`
}

// ToolExecuteRequest is the body of POST /ai/tools/execute.
type ToolExecuteRequest struct {
	Name   string                 `json:"name"`
	Params map[string]interface{} `json:"params"`
}

// ToolExecuteResponse is the response of POST /ai/tools/execute.
type ToolExecuteResponse struct {
	Success    bool        `json:"success"`
	Tool       string      `json:"tool"`
	Output     interface{} `json:"output,omitempty"`
	Error      string      `json:"error,omitempty"`
	TraceID    string      `json:"trace_id"`
	DurationMS int64       `json:"duration_ms"`
	ExitCode   int         `json:"exit_code"`
}

// errorCode is the closed set of stable short codes spec §7 requires on
// every error response ("a short stable code, a human message, the
// trace_id, and the elapsed duration_ms").
type errorCode string

const (
	errCodeValidation          errorCode = "validation_error"
	errCodeMissingParams       errorCode = "missing_params"
	errCodeMissingCredentials  errorCode = "missing_credentials"
	errCodeUpstreamUnreachable errorCode = "upstream_unreachable"
	errCodeTimeout             errorCode = "timeout"
	errCodeInternal            errorCode = "internal_error"
	errCodeUnauthorized        errorCode = "unauthorized"
	errCodeNotFound            errorCode = "not_found"
)

// ErrorResponse is the structured error body spec §7 describes.
type ErrorResponse struct {
	Code               errorCode                     `json:"code"`
	Message            string                        `json:"message"`
	TraceID            string                        `json:"trace_id"`
	DurationMS         int64                         `json:"duration_ms"`
	MissingParams      []models.ParameterDescriptor  `json:"missing_params,omitempty"`
	MissingCredentials *models.ParameterDescriptor   `json:"missing_credentials,omitempty"`
}

// ToolListResponse is the response of GET /ai/tools/list.
type ToolListResponse struct {
	Tools []models.MinimalRow `json:"tools"`
}

// SelectorSearchResponse is the response of GET /api/selector/search.
type SelectorSearchResponse struct {
	Candidates []models.MinimalRow `json:"candidates"`
	FromCache  bool                `json:"from_cache"`
	DurationMS int64               `json:"duration_ms"`
}

// HealthCheck is one dependency's reported status.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the response of GET /health.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Checks  map[string]HealthCheck `json:"checks"`
}

// CredentialUpsertRequest is the body of POST /internal/secrets/credential-upsert.
type CredentialUpsertRequest struct {
	Actor    string `json:"actor"`
	Host     string `json:"host"`
	Purpose  string `json:"purpose"`
	Username string `json:"username"`
	Password string `json:"password"`
	Domain   string `json:"domain,omitempty"`
}

// CredentialLookupRequest is the body of POST /internal/secrets/credential-lookup.
type CredentialLookupRequest struct {
	Actor   string `json:"actor"`
	Host    string `json:"host"`
	Purpose string `json:"purpose"`
}

// CredentialLookupResponse is the response of POST /internal/secrets/credential-lookup.
type CredentialLookupResponse struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Domain   string `json:"domain,omitempty"`
}

// CredentialDeleteRequest is the body of POST /internal/secrets/credential-delete.
type CredentialDeleteRequest struct {
	Actor   string `json:"actor"`
	Host    string `json:"host"`
	Purpose string `json:"purpose"`
}
