package api

import (
	"context"

	"github.com/opsconductor/core/pkg/asset"
	"github.com/opsconductor/core/pkg/classifier"
	"github.com/opsconductor/core/pkg/dispatcher"
	"github.com/opsconductor/core/pkg/llmoracle"
	"github.com/opsconductor/core/pkg/models"
	"github.com/opsconductor/core/pkg/planner"
	"github.com/opsconductor/core/pkg/responder"
	"github.com/opsconductor/core/pkg/secrets"
	"github.com/opsconductor/core/pkg/selector"
	"github.com/opsconductor/core/pkg/toolindex"
)

// fakeStore implements toolindex.Store over an in-memory map, keyed by
// FullToolSpec.ID, for every pkg/api handler test.
type fakeStore struct {
	specs     map[string]models.FullToolSpec
	lexErr    error
	vecErr    error
	telemetry []models.TelemetryRow
}

func newFakeStore() *fakeStore {
	return &fakeStore{specs: map[string]models.FullToolSpec{}}
}

func (s *fakeStore) put(spec models.FullToolSpec) {
	s.specs[spec.ID] = spec
}

func (s *fakeStore) Upsert(ctx context.Context, entry models.ToolIndexEntry, spec models.FullToolSpec) error {
	s.specs[entry.ID] = spec
	return nil
}

func (s *fakeStore) BulkUpsert(ctx context.Context, entries []models.ToolIndexEntry, specs []models.FullToolSpec) error {
	for i, e := range entries {
		s.specs[e.ID] = specs[i]
	}
	return nil
}

func (s *fakeStore) VectorSearch(ctx context.Context, query []float32, platform models.Platform, topK int) ([]toolindex.ScoredEntry, error) {
	if s.vecErr != nil {
		return nil, s.vecErr
	}
	return s.matching(platform, topK), nil
}

func (s *fakeStore) LexicalSearch(ctx context.Context, text string, platform models.Platform, topK int) ([]toolindex.ScoredEntry, error) {
	if s.lexErr != nil {
		return nil, s.lexErr
	}
	return s.matching(platform, topK), nil
}

func (s *fakeStore) matching(platform models.Platform, topK int) []toolindex.ScoredEntry {
	var out []toolindex.ScoredEntry
	for _, spec := range s.specs {
		if platform != "" && spec.Platform != platform {
			continue
		}
		out = append(out, toolindex.ScoredEntry{Entry: spec.ToolIndexEntry, Score: 1})
		if len(out) >= topK {
			break
		}
	}
	return out
}

func (s *fakeStore) GetFullSpec(ctx context.Context, id string) (models.FullToolSpec, error) {
	spec, ok := s.specs[id]
	if !ok {
		return models.FullToolSpec{}, toolindex.ErrNotFound
	}
	return spec, nil
}

func (s *fakeStore) AlwaysInclude(ctx context.Context) ([]models.ToolIndexEntry, error) {
	return nil, nil
}

func (s *fakeStore) ListTools(ctx context.Context, platform models.Platform, tags []string) ([]models.ToolIndexEntry, error) {
	var out []models.ToolIndexEntry
	for _, spec := range s.specs {
		if platform != "" && spec.Platform != platform {
			continue
		}
		out = append(out, spec.ToolIndexEntry)
	}
	return out, nil
}

func (s *fakeStore) LogTelemetry(ctx context.Context, row models.TelemetryRow) error {
	s.telemetry = append(s.telemetry, row)
	return nil
}

func (s *fakeStore) RecentAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	return nil, nil
}

var _ toolindex.Store = (*fakeStore)(nil)

// fakeAssetClient implements asset.Client; profiles is keyed by hostname.
type fakeAssetClient struct {
	profiles map[string]models.ConnectionProfile
	countErr error
	connErr  error
}

func (f *fakeAssetClient) CountAssets(ctx context.Context, filters models.AssetFilters) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.profiles), nil
}

func (f *fakeAssetClient) SearchAssets(ctx context.Context, filters models.AssetFilters, limit int) ([]models.Asset, error) {
	return nil, nil
}

func (f *fakeAssetClient) ConnectionProfile(ctx context.Context, host string) (models.ConnectionProfile, error) {
	if f.connErr != nil {
		return models.ConnectionProfile{}, f.connErr
	}
	p, ok := f.profiles[host]
	if !ok {
		return models.ConnectionProfile{Found: false}, nil
	}
	return p, nil
}

var _ asset.Client = (*fakeAssetClient)(nil)

// fakeBroker implements secrets.Broker over an in-memory credential map.
type fakeBroker struct {
	creds map[string]secrets.Credential
}

func newFakeBroker() *fakeBroker { return &fakeBroker{creds: map[string]secrets.Credential{}} }

func (f *fakeBroker) key(host, purpose string) string { return host + "|" + purpose }

func (f *fakeBroker) UpsertCredential(ctx context.Context, serviceToken, actor, host, purpose, username, password, domain string) error {
	f.creds[f.key(host, purpose)] = secrets.Credential{Username: username, Password: password, Domain: domain}
	return nil
}

func (f *fakeBroker) LookupCredential(ctx context.Context, serviceToken, actor, host, purpose string) (secrets.Credential, error) {
	c, ok := f.creds[f.key(host, purpose)]
	if !ok {
		return secrets.Credential{}, secrets.ErrNotFound
	}
	return c, nil
}

func (f *fakeBroker) DeleteCredential(ctx context.Context, serviceToken, actor, host, purpose string) error {
	delete(f.creds, f.key(host, purpose))
	return nil
}

func (f *fakeBroker) Rotate(ctx context.Context) (int, error) { return 0, nil }

var _ secrets.Broker = (*fakeBroker)(nil)

// fakeClassifier always returns a fixed Classification.
type fakeClassifier struct {
	result models.Classification
}

func (f *fakeClassifier) Classify(ctx context.Context, userText string) models.Classification {
	return f.result
}

var _ classifier.Classifier = (*fakeClassifier)(nil)

// fakeSelector returns a fixed SelectionV1 or error.
type fakeSelector struct {
	result models.SelectionV1
	err    error
}

func (f *fakeSelector) Select(ctx context.Context, requestID, userText string, classification models.Classification, reqCtx selector.RequestContext, mode models.PreferenceMode) (models.SelectionV1, error) {
	return f.result, f.err
}

// fakePlanner returns a fixed ExecutionPlan or error.
type fakePlanner struct {
	plan models.ExecutionPlan
	err  error
}

func (f *fakePlanner) Plan(ctx context.Context, userText string, selection models.SelectionV1, riskLevel models.RiskLevel) (models.ExecutionPlan, error) {
	return f.plan, f.err
}

// fakeResponder renders a fixed string regardless of input.
type fakeResponder struct {
	text string
}

func (f *fakeResponder) Respond(ctx context.Context, userText string, classification models.Classification, plan *models.ExecutionPlan, status responder.ExecutionStatus) responder.Response {
	return responder.Response{Text: f.text}
}

func (f *fakeResponder) RespondStream(ctx context.Context, userText string, classification models.Classification, plan *models.ExecutionPlan, status responder.ExecutionStatus) (responder.ResponseType, <-chan llmoracle.StreamChunk) {
	ch := make(chan llmoracle.StreamChunk)
	close(ch)
	return "", ch
}

var _ responder.Responder = (*fakeResponder)(nil)

// fakeDispatcher returns a fixed RunResult or error.
type fakeDispatcher struct {
	result dispatcher.RunResult
	err    error
}

func (f *fakeDispatcher) Run(ctx context.Context, req dispatcher.RunRequest) (dispatcher.RunResult, error) {
	return f.result, f.err
}

var _ dispatcher.Dispatcher = (*fakeDispatcher)(nil)
var _ selector.Selector = (*fakeSelector)(nil)
var _ planner.Planner = (*fakePlanner)(nil)
