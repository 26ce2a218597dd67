// Package selector is Stage AB (spec §4.6): the combined tool selector.
// It is the heaviest single component in the pipeline — asset enrichment,
// platform filter derivation, token-budgeted semantic+keyword retrieval,
// deterministic scoring, ambiguity detection, a conditional LLM tie-break,
// and additional-inputs diffing, all folded into one SelectionV1 per call.
package selector

import (
	"context"
	"log/slog"
	"time"

	"github.com/opsconductor/core/pkg/asset"
	"github.com/opsconductor/core/pkg/config"
	"github.com/opsconductor/core/pkg/embedding"
	"github.com/opsconductor/core/pkg/llmoracle"
	"github.com/opsconductor/core/pkg/models"
	"github.com/opsconductor/core/pkg/toolindex"
)

// RequestContext carries the optional fields Stage AB's input allows
// beyond user text and Classification (spec §4.6 Inputs).
type RequestContext struct {
	CurrentAsset string
	Platform     models.Platform
}

// Selector is the select(user_text, Classification, context) -> SelectionV1
// contract.
type Selector interface {
	Select(ctx context.Context, requestID, userText string, classification models.Classification, reqCtx RequestContext, mode models.PreferenceMode) (models.SelectionV1, error)
}

type selector struct {
	store    toolindex.Store
	embedder embedding.Service
	assets   asset.Client
	oracle   llmoracle.Client
	cfg      config.SelectorConfig
	budget   config.LLMBudgetConfig
}

// New constructs a Selector. oracle may be nil, which disables the LLM
// tie-break entirely (spec §4.6 failure semantics: "LLM outage ->
// deterministic selection").
func New(store toolindex.Store, embedder embedding.Service, assets asset.Client, oracle llmoracle.Client, cfg config.SelectorConfig, budget config.LLMBudgetConfig) Selector {
	return &selector{store: store, embedder: embedder, assets: assets, oracle: oracle, cfg: cfg, budget: budget}
}

func (s *selector) Select(ctx context.Context, requestID, userText string, classification models.Classification, reqCtx RequestContext, mode models.PreferenceMode) (models.SelectionV1, error) {
	timings := models.StageTimings{}
	start := time.Now()

	// Step 1: early entity extraction, independent of the LLM.
	entities := extractHostsAndIPs(userText, classification.Entities)
	timings["AB.entities"] = time.Since(start)

	// Step 2: asset enrichment.
	enrichStart := time.Now()
	assetMeta, platformFromAsset, missingTargetInfo, assetDegraded := s.enrichAsset(ctx, entities, reqCtx, classification.AmbiguousTarget)
	timings["AB.asset_enrichment"] = time.Since(enrichStart)

	// Step 3: platform filter derivation.
	platformFilter := reqCtx.Platform
	if platformFilter == "" {
		platformFilter = platformFromAsset
	}
	needsClarification := platformFilter == "" && missingTargetInfo

	// Step 4: token budgeting.
	rows := maxRows(s.budget.MaxModelLen, s.cfg.TokensPerRowEst)

	// Step 5: candidate retrieval.
	retrievalStart := time.Now()
	queryVec, embedErr := s.embedQuery(ctx, userText)
	candidates, candidatesBeforeBudget, err := retrieveCandidates(ctx, s.store, queryVec, userText, platformFilter, rows)
	timings["AB.retrieval"] = time.Since(retrievalStart)
	if err != nil {
		return models.SelectionV1{}, err
	}
	if len(candidates) == 0 {
		row := models.TelemetryRow{
			RequestID:              requestID,
			CandidatesBeforeBudget: candidatesBeforeBudget,
			StageTimings:           timings,
			CreatedAt:              time.Now(),
		}
		s.logTelemetry(ctx, row)
		return models.SelectionV1{
			PlatformFilter: platformFilter,
			NextStage:      "none",
			Degraded:       embedErr != nil || assetDegraded,
			ErrorCode:      "no_candidates",
		}, nil
	}

	// Load full specs for the candidates that survived budgeting — this is
	// the only point Stage AB touches FullToolSpec (spec §3: loaded lazily,
	// never by the bare retrieval path).
	specs := s.loadSpecs(ctx, candidates)

	// Step 6: deterministic scoring.
	scored := scoreCandidates(candidates, specs, mode)

	// Step 7: ambiguity detection.
	ambiguous := isAmbiguous(scored, s.cfg.AmbiguityMargin)

	// Step 8: conditional LLM tie-break.
	selected := topSelection(scored)
	tieBreakAttempted := false
	if ambiguous && len(scored) > 1 {
		tieBreakAttempted = true
		topN := scored
		if len(topN) > 5 {
			topN = topN[:5]
		}
		if result, ok := breakTie(ctx, s.oracle, userText, topN); ok {
			selected = filterSelected(scored, result.selectedIDs)
		}
	}

	// Step 9: additional-inputs diffing.
	additional := resolveAdditionalInputs(selected, entities, assetMeta != nil, missingTargetInfo)

	// Step 10: assembly.
	selectionResult := models.SelectionV1{
		SelectedTools:          toSelectedTools(selected),
		PlatformFilter:         platformFilter,
		AssetMetadata:          assetMeta,
		AdditionalInputsNeeded: additional,
		ReadyForExecution:      len(additional) == 0,
		NextStage:              "C",
		MissingTargetInfo:      missingTargetInfo,
		Degraded:               embedErr != nil || assetDegraded,
	}
	if needsClarification {
		selectionResult.ErrorCode = "needs_clarification"
		selectionResult.ReadyForExecution = false
	}

	// Step 11: telemetry.
	rowCount := len(candidates)
	budgetUsed := budgetUsedTokens(rowCount, s.cfg.TokensPerRowEst)
	row := models.TelemetryRow{
		RequestID:              requestID,
		CandidatesBeforeBudget: candidatesBeforeBudget,
		RowsSent:               rowCount,
		BudgetUsedTokens:       budgetUsed,
		HeadroomLeftPct:        headroomLeftPct(budgetUsed, s.budget.MaxModelLen),
		SelectedIDs:            selectionResult.SelectedIDs(),
		TruncationEvents:       truncationEvents(candidatesBeforeBudget, rowCount),
		StageTimings:           timings,
		CreatedAt:              time.Now(),
	}
	if tieBreakAttempted {
		row.StageTimings["AB.tie_break_attempted"] = 0
	}
	s.logTelemetry(ctx, row)

	return selectionResult, nil
}

func (s *selector) embedQuery(ctx context.Context, userText string) ([]float32, error) {
	vecs, err := s.embedder.Embed(ctx, []string{userText})
	if err != nil || len(vecs) == 0 {
		return nil, err
	}
	return vecs[0], nil
}

// enrichAsset implements step 2: resolve each candidate host via the asset
// façade, falling back to reqCtx.CurrentAsset, and flagging
// missing_target_info when nothing resolves but the classifier flagged
// ambiguity.
func (s *selector) enrichAsset(ctx context.Context, entities []models.Entity, reqCtx RequestContext, ambiguousTarget bool) (*models.AssetMetadata, models.Platform, bool, bool) {
	if s.assets == nil {
		return nil, "", ambiguousTarget, false
	}

	hosts := candidateHosts(entities)
	for _, host := range hosts {
		profile, err := s.assets.ConnectionProfile(ctx, host)
		if err != nil {
			slog.Warn("asset enrichment degraded", "event", "selector_asset_degraded", "error", err)
			return nil, "", ambiguousTarget, true
		}
		if profile.Found {
			return &models.AssetMetadata{Hostname: host, ConnectionProfile: &profile}, profile.Platform, false, false
		}
	}

	if reqCtx.CurrentAsset != "" {
		profile, err := s.assets.ConnectionProfile(ctx, reqCtx.CurrentAsset)
		if err != nil {
			slog.Warn("asset enrichment degraded", "event", "selector_asset_degraded", "error", err)
			return nil, "", ambiguousTarget, true
		}
		if profile.Found {
			return &models.AssetMetadata{Hostname: reqCtx.CurrentAsset, ConnectionProfile: &profile}, profile.Platform, false, false
		}
	}

	return nil, "", ambiguousTarget, false
}

func (s *selector) loadSpecs(ctx context.Context, candidates []models.ToolIndexEntry) map[string]models.FullToolSpec {
	out := make(map[string]models.FullToolSpec, len(candidates))
	for _, c := range candidates {
		spec, err := s.store.GetFullSpec(ctx, c.ID)
		if err != nil {
			slog.Warn("full spec unavailable, excluding from scoring", "event", "selector_spec_missing", "tool_id", c.ID, "error", err)
			continue
		}
		out[c.ID] = spec
	}
	return out
}

func (s *selector) logTelemetry(ctx context.Context, row models.TelemetryRow) {
	if err := s.store.LogTelemetry(ctx, row); err != nil {
		slog.Warn("telemetry write failed", "event", "selector_telemetry_failed", "request_id", row.RequestID, "error", err)
	}
}

func topSelection(scored []scoredCandidate) []scoredCandidate {
	if len(scored) == 0 {
		return nil
	}
	return scored[:1]
}

func filterSelected(scored []scoredCandidate, ids []string) []scoredCandidate {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []scoredCandidate
	for _, c := range scored {
		if want[c.Entry.ID] {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return topSelection(scored)
	}
	return out
}

func toSelectedTools(scored []scoredCandidate) []models.SelectedTool {
	out := make([]models.SelectedTool, len(scored))
	for i, c := range scored {
		out[i] = models.SelectedTool{ToolID: c.Entry.ID}
	}
	return out
}

func truncationEvents(beforeBudget, sent int) int {
	if beforeBudget > sent {
		return 1
	}
	return 0
}
