package selector

import (
	"context"
	"sort"
	"sync"

	"github.com/opsconductor/core/pkg/models"
	"github.com/opsconductor/core/pkg/toolindex"
)

const (
	vectorTopK  = 120
	lexicalTopK = 60
)

// retrieveCandidates runs vector and lexical search in parallel, then
// union-dedupes by ID (preserving the higher-ranked source's position,
// ties by id), prepends always-include tools, and slices to maxCandidates
// (spec §4.6 step 5).
func retrieveCandidates(ctx context.Context, store toolindex.Store, queryVec []float32, userText string, platform models.Platform, maxCandidates int) ([]models.ToolIndexEntry, int, error) {
	var (
		vecResults, lexResults []toolindex.ScoredEntry
		vecErr, lexErr         error
		always                 []models.ToolIndexEntry
		alwaysErr              error
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		vecResults, vecErr = store.VectorSearch(ctx, queryVec, platform, vectorTopK)
	}()
	go func() {
		defer wg.Done()
		lexResults, lexErr = store.LexicalSearch(ctx, userText, platform, lexicalTopK)
	}()
	go func() {
		defer wg.Done()
		always, alwaysErr = store.AlwaysInclude(ctx)
	}()
	wg.Wait()

	if vecErr != nil && lexErr != nil {
		// Both retrieval paths are down: spec §4.6 failure semantics call
		// this "retrieval store outage" and expect an empty candidate list,
		// not a hard error, so Stage AB can still emit a no_candidates
		// SelectionV1 rather than failing the whole request.
		return nil, 0, nil
	}

	seen := make(map[string]bool)
	var ordered []models.ToolIndexEntry
	candidatesBeforeBudget := 0

	if alwaysErr == nil {
		for _, e := range always {
			if !seen[e.ID] {
				ordered = append(ordered, e)
				seen[e.ID] = true
			}
		}
	}

	merged := mergeRanked(vecResults, lexResults)
	for _, se := range merged {
		if !seen[se.Entry.ID] {
			ordered = append(ordered, se.Entry)
			seen[se.Entry.ID] = true
		}
	}
	candidatesBeforeBudget = len(ordered)

	if maxCandidates > 0 && len(ordered) > maxCandidates {
		ordered = ordered[:maxCandidates]
	}
	return ordered, candidatesBeforeBudget, nil
}

// mergeRanked merges vector and lexical results preserving the
// higher-ranked source's relative position: vector results keep their
// order first, then any lexical-only results are appended in their own
// rank order, with ties broken by id (spec §4.6 step 5).
func mergeRanked(vec, lex []toolindex.ScoredEntry) []toolindex.ScoredEntry {
	sort.SliceStable(vec, func(i, j int) bool {
		if vec[i].Score != vec[j].Score {
			return vec[i].Score > vec[j].Score
		}
		return vec[i].Entry.ID < vec[j].Entry.ID
	})
	sort.SliceStable(lex, func(i, j int) bool {
		if lex[i].Score != lex[j].Score {
			return lex[i].Score > lex[j].Score
		}
		return lex[i].Entry.ID < lex[j].Entry.ID
	})

	out := append([]toolindex.ScoredEntry(nil), vec...)
	seen := make(map[string]bool, len(vec))
	for _, v := range vec {
		seen[v.Entry.ID] = true
	}
	for _, l := range lex {
		if !seen[l.Entry.ID] {
			out = append(out, l)
			seen[l.Entry.ID] = true
		}
	}
	return out
}
