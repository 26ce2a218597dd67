package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opsconductor/core/pkg/config"
	"github.com/opsconductor/core/pkg/models"
	"github.com/opsconductor/core/pkg/observability"
)

// collaboratorClient POSTs the uniform envelope to one collaborator
// service (spec §4.9 step 5), wrapping every call in its own circuit
// breaker the way pkg/asset.NewClient wraps the inventory façade — a
// sustained outage on one collaborator fails fast rather than stacking up
// hung requests, and never trips the other three collaborators' breakers.
type collaboratorClient struct {
	http     *http.Client
	breakers map[models.ExecutionLocation]*gobreaker.CircuitBreaker
	urls     config.CollaboratorsConfig
}

func newCollaboratorClient(urls config.CollaboratorsConfig, timeout time.Duration) *collaboratorClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	breakers := map[models.ExecutionLocation]*gobreaker.CircuitBreaker{}
	for _, loc := range []models.ExecutionLocation{
		models.ExecutionLocationAutomation,
		models.ExecutionLocationCommunication,
		models.ExecutionLocationAsset,
		models.ExecutionLocationNetwork,
	} {
		loc := loc
		breakers[loc] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "collaborator-" + string(loc),
			MaxRequests: 1,
			Interval:    30 * time.Second,
			Timeout:     15 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
	}
	return &collaboratorClient{
		http:     &http.Client{Timeout: timeout},
		breakers: breakers,
		urls:     urls,
	}
}

// invoke POSTs req to the collaborator backing loc, retrying with
// exponential backoff up to retry.MaxAttempts (spec §4.9 step 7:
// "Collaborator unreachable → transient error with exponential backoff up
// to the step's retry policy"). Exhaustion returns ErrUpstreamUnreachable.
func (c *collaboratorClient) invoke(ctx context.Context, loc models.ExecutionLocation, traceID string, req models.CollaboratorRequest, retry models.RetryPolicy) (models.CollaboratorResponse, error) {
	attempts := retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := retry.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return models.CollaboratorResponse{}, ctx.Err()
			case <-time.After(backoff * time.Duration(1<<uint(attempt-1))):
			}
		}

		resp, err := c.doOnce(ctx, loc, traceID, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}

	return models.CollaboratorResponse{}, fmt.Errorf("%w: %v", ErrUpstreamUnreachable, lastErr)
}

func (c *collaboratorClient) doOnce(ctx context.Context, loc models.ExecutionLocation, traceID string, req models.CollaboratorRequest) (models.CollaboratorResponse, error) {
	breaker := c.breakers[loc]
	if breaker == nil {
		breaker = c.breakers[models.ExecutionLocationAutomation]
	}
	baseURL := route(c.urls, loc)

	result, err := breaker.Execute(func() (any, error) {
		body, err := json.Marshal(req)
		if err != nil {
			return nil, err
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/execute-plan", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set(observability.TraceIDHeader, traceID)

		httpResp, err := c.http.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()
		if httpResp.StatusCode >= 400 {
			return nil, fmt.Errorf("collaborator %s returned %d", loc, httpResp.StatusCode)
		}

		var out models.CollaboratorResponse
		if err := json.NewDecoder(httpResp.Body).Decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return models.CollaboratorResponse{}, err
	}
	return result.(models.CollaboratorResponse), nil
}
