package dispatcher

import (
	"context"

	"github.com/opsconductor/core/pkg/models"
)

// runLoop expands trigger.collection into N sequential child dispatches
// (spec §4.9 step 3), each receiving the plural input rewritten to its
// singular form plus a LoopFrame. Iterations always run one at a time in
// collection order; there is no setting that runs them concurrently.
// An individual iteration's failure is recorded and the
// loop continues (spec §4.9 step 7); only a *MissingCredentialsError is
// treated as fatal to the whole run, since no amount of looping resolves a
// missing credential configuration.
func (d *dispatcher) runLoop(ctx context.Context, req RunRequest, stepIdx int, step models.Step, spec models.FullToolSpec, trigger loopTrigger, execCtx *ExecutionContext) ([]models.StepResult, []interface{}, error) {
	n := len(trigger.collection)
	results := make([]models.StepResult, 0, n)
	outputs := make([]interface{}, 0, n)

	for i, item := range trigger.collection {
		childInputs := make(map[string]interface{}, len(step.Inputs))
		for k, v := range step.Inputs {
			if k == trigger.pluralKey {
				continue
			}
			childInputs[k] = v
		}
		childInputs[trigger.singularKey] = item

		frame := &models.LoopFrame{LoopIndex: i + 1, LoopTotal: n, LoopItem: item}

		result, err := d.runStep(ctx, req, stepIdx, step, spec, childInputs, execCtx, frame)
		results = append(results, result)
		outputs = append(outputs, result.Output)

		if err != nil && IsMissingCredentials(err) {
			return results, outputs, err
		}
		// Any other per-iteration failure (collaborator error, upstream
		// unreachable) is already captured in result.Status/Error; the
		// loop itself never aborts for it.
	}

	return results, outputs, nil
}
