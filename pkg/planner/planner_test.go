package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsconductor/core/pkg/llmoracle"
	"github.com/opsconductor/core/pkg/models"
	"github.com/opsconductor/core/pkg/toolindex"
)

type fakeStore struct {
	specs map[string]models.FullToolSpec
}

func (f *fakeStore) Upsert(context.Context, models.ToolIndexEntry, models.FullToolSpec) error {
	return nil
}
func (f *fakeStore) BulkUpsert(context.Context, []models.ToolIndexEntry, []models.FullToolSpec) error {
	return nil
}
func (f *fakeStore) VectorSearch(context.Context, []float32, models.Platform, int) ([]toolindex.ScoredEntry, error) {
	return nil, nil
}
func (f *fakeStore) LexicalSearch(context.Context, string, models.Platform, int) ([]toolindex.ScoredEntry, error) {
	return nil, nil
}
func (f *fakeStore) GetFullSpec(_ context.Context, id string) (models.FullToolSpec, error) {
	spec, ok := f.specs[id]
	if !ok {
		return models.FullToolSpec{}, toolindex.ErrNotFound
	}
	return spec, nil
}
func (f *fakeStore) AlwaysInclude(context.Context) ([]models.ToolIndexEntry, error) { return nil, nil }
func (f *fakeStore) LogTelemetry(context.Context, models.TelemetryRow) error        { return nil }
func (f *fakeStore) RecentAlerts(context.Context, int) ([]models.Alert, error)      { return nil, nil }

type scriptedOracle struct {
	response string
	err      error
}

func (s scriptedOracle) Generate(context.Context, llmoracle.Request) (string, error) {
	return s.response, s.err
}
func (s scriptedOracle) GenerateStream(context.Context, llmoracle.Request) (<-chan llmoracle.StreamChunk, <-chan error) {
	panic("not used by planner")
}

func selection(ids ...string) models.SelectionV1 {
	tools := make([]models.SelectedTool, len(ids))
	for i, id := range ids {
		tools[i] = models.SelectedTool{ToolID: id}
	}
	return models.SelectionV1{SelectedTools: tools}
}

func TestPlan_HappyPath_AttachesRetryAndTimeout(t *testing.T) {
	store := &fakeStore{specs: map[string]models.FullToolSpec{
		"restart-service": {
			ToolIndexEntry:   models.ToolIndexEntry{ID: "restart-service", Name: "restart-service"},
			RetryMaxAttempts: 3,
			TimeoutMS:        5000,
		},
	}}
	oracle := scriptedOracle{response: `{"steps":[{"tool_id":"restart-service","inputs":{"service":"nginx"},"depends_on":[]}]}`}
	p := New(store, oracle)

	plan, err := p.Plan(context.Background(), "restart nginx", selection("restart-service"), models.RiskLevelLow)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "restart-service", plan.Steps[0].ToolID)
	assert.Equal(t, 3, plan.Steps[0].RetryPolicy.MaxAttempts)
	assert.Equal(t, 5000, plan.Steps[0].TimeoutMS)
	assert.False(t, plan.ApprovalRequired)
	assert.Equal(t, models.RiskLevelLow, plan.RiskLevel)
}

func TestPlan_SafetyGate_ForcesApprovalRequired(t *testing.T) {
	store := &fakeStore{specs: map[string]models.FullToolSpec{
		"delete-user": {
			ToolIndexEntry: models.ToolIndexEntry{ID: "delete-user", Name: "delete-user"},
			Policy:         models.PolicyFlags{RequiresApproval: true},
		},
	}}
	oracle := scriptedOracle{response: `{"steps":[{"tool_id":"delete-user","inputs":{},"depends_on":[]}]}`}
	p := New(store, oracle)

	plan, err := p.Plan(context.Background(), "delete the user", selection("delete-user"), models.RiskLevelHigh)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	assert.True(t, plan.Steps[0].ApprovalRequired)
	assert.True(t, plan.ApprovalRequired)
}

func TestPlan_DropsStepsOutsideSelection(t *testing.T) {
	store := &fakeStore{specs: map[string]models.FullToolSpec{
		"restart-service": {ToolIndexEntry: models.ToolIndexEntry{ID: "restart-service"}},
	}}
	oracle := scriptedOracle{response: `{"steps":[
		{"tool_id":"restart-service","inputs":{},"depends_on":[]},
		{"tool_id":"not-selected","inputs":{},"depends_on":[]}
	]}`}
	p := New(store, oracle)

	plan, err := p.Plan(context.Background(), "restart nginx", selection("restart-service"), models.RiskLevelLow)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "restart-service", plan.Steps[0].ToolID)
}

func TestPlan_CyclicGraph_ReturnsPlanInvalid(t *testing.T) {
	store := &fakeStore{specs: map[string]models.FullToolSpec{
		"step-a": {ToolIndexEntry: models.ToolIndexEntry{ID: "step-a"}},
		"step-b": {ToolIndexEntry: models.ToolIndexEntry{ID: "step-b"}},
	}}
	oracle := scriptedOracle{response: `{"steps":[
		{"tool_id":"step-a","inputs":{},"depends_on":[1]},
		{"tool_id":"step-b","inputs":{},"depends_on":[0]}
	]}`}
	p := New(store, oracle)

	_, err := p.Plan(context.Background(), "do a then b", selection("step-a", "step-b"), models.RiskLevelLow)
	assert.ErrorIs(t, err, models.ErrPlanCycle)
}

func TestPlan_EmptySelection_ReturnsError(t *testing.T) {
	store := &fakeStore{specs: map[string]models.FullToolSpec{}}
	p := New(store, scriptedOracle{})

	_, err := p.Plan(context.Background(), "do nothing", models.SelectionV1{}, models.RiskLevelLow)
	assert.ErrorIs(t, err, ErrNoSelection)
}
