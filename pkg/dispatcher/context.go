package dispatcher

import "github.com/opsconductor/core/pkg/models"

// ExecutionContext is the single mutable store of derived variables a plan
// run accumulates as its steps complete (spec §4.9 step 6, §5: "owned by a
// single executor instance; variable writes are strictly sequential"). It
// is never shared across plan runs.
type ExecutionContext struct {
	vars map[string]interface{}
}

// NewExecutionContext returns an empty ExecutionContext.
func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{vars: map[string]interface{}{}}
}

// Set stores name=value, overwriting any prior value.
func (c *ExecutionContext) Set(name string, value interface{}) {
	c.vars[name] = value
}

// Get returns the raw value stored under name.
func (c *ExecutionContext) Get(name string) (interface{}, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// recordStepResult stores result under the well-known per-step variable
// name (spec §3: "step_{i}_result") and, for an asset-query step, also
// extracts the well-known asset-query variables (spec §4.9 step 6).
func (c *ExecutionContext) recordStepResult(stepIndex int, toolID string, result interface{}) {
	c.Set(models.StepResultKey(stepIndex), result)
	if normalizeToolName(toolID) == "asset_query" {
		extractAssetQueryVars(c, result)
	}
}
