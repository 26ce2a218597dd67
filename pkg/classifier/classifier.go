// Package classifier is Stage A (spec §4.5): turns raw user text into a
// typed Classification. Four LLM sub-tasks (intent, entities, confidence,
// risk) run concurrently, each independently falling back to a
// deterministic rule when the LLM call fails or its response doesn't
// validate — Stage A never fails the enclosing request.
package classifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/opsconductor/core/pkg/llmoracle"
	"github.com/opsconductor/core/pkg/models"
)

// SubTaskTimeout bounds each of the four LLM sub-task calls. Stage A's
// overall budget is 3s (spec §5); each sub-task gets its own timeout
// rather than splitting the budget four ways, since they run concurrently
// and the overall Classify deadline is enforced by the caller's ctx.
const SubTaskTimeout = 2500 * time.Millisecond

// Classifier is the classify(user_text) -> Classification contract.
type Classifier interface {
	Classify(ctx context.Context, userText string) models.Classification
}

type classifier struct {
	oracle llmoracle.Client
}

// New constructs a Classifier backed by oracle.
func New(oracle llmoracle.Client) Classifier {
	return &classifier{oracle: oracle}
}

// Classify runs the four sub-tasks concurrently and assembles a
// Classification. It never returns an error — every sub-task has a
// deterministic fallback, so the worst case is an all-fallback,
// low-confidence result rather than a failed request (spec §4.5).
func (c *classifier) Classify(ctx context.Context, userText string) models.Classification {
	var (
		wg                                   sync.WaitGroup
		intent                               models.Intent
		entities                             []models.Entity
		confidence                           float64
		risk                                 models.RiskLevel
		degraded                             []string
		mu                                   sync.Mutex
	)

	markDegraded := func(subtask string) {
		mu.Lock()
		degraded = append(degraded, subtask)
		mu.Unlock()
	}

	run := func(subtask string, fn func(ctx context.Context) error) {
		defer wg.Done()
		subCtx, cancel := context.WithTimeout(ctx, SubTaskTimeout)
		defer cancel()
		if err := fn(subCtx); err != nil {
			slog.Warn("stage A sub-task fell back to deterministic path", "event", "classifier_subtask_fallback", "subtask", subtask, "error", err)
			markDegraded(subtask)
		}
	}

	wg.Add(4)
	go run("intent", func(ctx context.Context) error {
		v, err := askIntent(ctx, c.oracle, userText)
		if err != nil {
			intent = fallbackIntent()
			return err
		}
		intent = v
		return nil
	})
	go run("entities", func(ctx context.Context) error {
		v, err := askEntities(ctx, c.oracle, userText)
		if err != nil || len(v) == 0 {
			entities = fallbackEntities(userText)
			if err == nil {
				err = errEmptyEntities
			}
			return err
		}
		entities = v
		return nil
	})
	go run("confidence", func(ctx context.Context) error {
		v, err := askConfidence(ctx, c.oracle, userText)
		if err != nil {
			confidence = fallbackConfidence()
			return err
		}
		confidence = v
		return nil
	})
	go run("risk", func(ctx context.Context) error {
		v, err := askRiskLevel(ctx, c.oracle, userText)
		if err != nil {
			risk = fallbackRiskLevel()
			return err
		}
		risk = v
		return nil
	})
	wg.Wait()

	result := models.Classification{
		Intent:     intent,
		Entities:   entities,
		Confidence: confidence,
		RiskLevel:  risk,
		Degraded:   degraded,
	}
	if len(result.Entities) == 0 && hasAmbiguityKeyword(userText) {
		result.AmbiguousTarget = true
	}
	return result
}

var errEmptyEntities = emptyEntitiesError{}

type emptyEntitiesError struct{}

func (emptyEntitiesError) Error() string { return "classifier: no entities extracted" }
