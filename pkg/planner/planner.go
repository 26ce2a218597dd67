// Package planner is Stage C (spec §4.7): turns a SelectionV1 into an
// ExecutionPlan through a single compact-prompt LLM call plus deterministic
// post-processing — dependency order, safety gates, retry/timeout
// attachment from tool metadata.
package planner

import (
	"context"
	"fmt"

	"github.com/opsconductor/core/pkg/llmoracle"
	"github.com/opsconductor/core/pkg/models"
	"github.com/opsconductor/core/pkg/toolindex"
)

// Planner is the plan(SelectionV1, userText) -> ExecutionPlan contract.
// riskLevel carries Stage A's Classification.RiskLevel through to the
// plan's plan-level risk_level field (spec §3: "plus a plan-level
// risk_level").
type Planner interface {
	Plan(ctx context.Context, userText string, selection models.SelectionV1, riskLevel models.RiskLevel) (models.ExecutionPlan, error)
}

type planner struct {
	store  toolindex.Store
	oracle llmoracle.Client
}

// New constructs a Planner.
func New(store toolindex.Store, oracle llmoracle.Client) Planner {
	return &planner{store: store, oracle: oracle}
}

func (p *planner) Plan(ctx context.Context, userText string, selection models.SelectionV1, riskLevel models.RiskLevel) (models.ExecutionPlan, error) {
	selectedIDs := selection.SelectedIDs()
	if len(selectedIDs) == 0 {
		return models.ExecutionPlan{}, ErrNoSelection
	}

	specs := make(map[string]models.FullToolSpec, len(selectedIDs))
	rows := make([]models.MinimalRow, 0, len(selectedIDs))
	for _, id := range selectedIDs {
		spec, err := p.store.GetFullSpec(ctx, id)
		if err != nil {
			return models.ExecutionPlan{}, fmt.Errorf("planner: loading full spec for %q: %w", id, err)
		}
		specs[id] = spec
		rows = append(rows, spec.ToolIndexEntry.Row())
	}

	raw, err := askPlan(ctx, p.oracle, userText, rows, selectedIDs)
	if err != nil {
		return models.ExecutionPlan{}, err
	}

	// Contract: no step is emitted for a tool id not present in the
	// original selection (spec §4.7).
	allowed := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		allowed[id] = true
	}

	// Drop any raw step referencing a tool outside the selection before
	// remapping depends_on, so surviving indices still point within the
	// final step arena (spec §4.7: "no step is emitted for a tool id not
	// present in the original selection").
	oldToNew := make(map[int]int, len(raw))
	kept := make([]rawStep, 0, len(raw))
	for i, rs := range raw {
		if !allowed[rs.ToolID] {
			continue
		}
		oldToNew[i] = len(kept)
		kept = append(kept, rs)
	}

	steps := make([]models.Step, 0, len(kept))
	approvalRequired := false
	for _, rs := range kept {
		spec := specs[rs.ToolID]
		var dependsOn []int
		for _, d := range rs.DependsOn {
			if newIdx, ok := oldToNew[d]; ok {
				dependsOn = append(dependsOn, newIdx)
			}
		}
		step := models.Step{
			ToolID:    rs.ToolID,
			Inputs:    toInputsMap(rs.Inputs),
			DependsOn: dependsOn,
			RetryPolicy: models.RetryPolicy{
				MaxAttempts: spec.RetryMaxAttempts,
			},
			TimeoutMS: spec.TimeoutMS,
		}
		if spec.Policy.RequiresApproval {
			step.ApprovalRequired = true
			approvalRequired = true
		}
		steps = append(steps, step)
	}

	if len(steps) == 0 {
		return models.ExecutionPlan{}, ErrNoSelection
	}

	plan := models.ExecutionPlan{
		Steps:            steps,
		RiskLevel:        riskLevel,
		ApprovalRequired: approvalRequired,
	}

	if _, err := plan.TopoSort(); err != nil {
		return models.ExecutionPlan{}, err
	}

	return plan, nil
}

func toInputsMap(m map[string]any) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
