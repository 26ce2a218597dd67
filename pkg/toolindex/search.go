package toolindex

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/opsconductor/core/pkg/models"
)

// VectorSearch returns the topK nearest tool_index rows by cosine
// similarity to query, optionally pre-filtered to platform (empty platform
// means no filter). Ties break (similarity desc, id asc) per spec §4.2.
//
// There is no pgvector extension in this build, so this loads every
// candidate row's embedding and scores it in Go rather than pushing the
// nearest-neighbor search into SQL. Acceptable at this catalog's scale
// (tool catalogs, not document corpora); revisit if tool_index ever grows
// past a few thousand rows.
func (s *pgStore) VectorSearch(ctx context.Context, query []float32, platform models.Platform, topK int) ([]ScoredEntry, error) {
	rows, err := s.queryCandidates(ctx, platform)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scored []ScoredEntry
	for rows.Next() {
		var e models.ToolIndexEntry
		var platformStr, costHint string
		var embBytes []byte
		if err := rows.Scan(&e.ID, &e.Name, &e.DescShort, &platformStr, &e.Tags, &costHint, &embBytes, &e.AlwaysInclude, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("toolindex: vector_search scan failed: %w", err)
		}
		e.Platform = models.Platform(platformStr)
		e.CostHint = models.CostHint(costHint)
		e.Embedding = decodeEmbedding(embBytes)
		scored = append(scored, ScoredEntry{Entry: e, Score: cosineSimilarity(query, e.Embedding)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	sortScored(scored)
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// LexicalSearch matches text case-insensitively against name, desc_short,
// and tags (spec §4.2: "lexical_search: case-insensitive substring/tag
// match"). Score is 1.0 for a name match, 0.5 for a description or tag
// match, so ties still break deterministically against vector candidates
// when the two result sets are merged upstream in Stage AB.
func (s *pgStore) LexicalSearch(ctx context.Context, text string, platform models.Platform, topK int) ([]ScoredEntry, error) {
	rows, err := s.queryCandidates(ctx, platform)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	needle := strings.ToLower(strings.TrimSpace(text))
	var scored []ScoredEntry
	for rows.Next() {
		var e models.ToolIndexEntry
		var platformStr, costHint string
		var embBytes []byte
		if err := rows.Scan(&e.ID, &e.Name, &e.DescShort, &platformStr, &e.Tags, &costHint, &embBytes, &e.AlwaysInclude, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("toolindex: lexical_search scan failed: %w", err)
		}
		e.Platform = models.Platform(platformStr)
		e.CostHint = models.CostHint(costHint)

		score := lexicalScore(needle, e)
		if score > 0 {
			scored = append(scored, ScoredEntry{Entry: e, Score: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	sortScored(scored)
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func lexicalScore(needle string, e models.ToolIndexEntry) float64 {
	if needle == "" {
		return 0
	}
	if strings.Contains(strings.ToLower(e.Name), needle) {
		return 1.0
	}
	if strings.Contains(strings.ToLower(e.DescShort), needle) {
		return 0.5
	}
	for _, tag := range e.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return 0.5
		}
	}
	return 0
}

func sortScored(scored []ScoredEntry) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Entry.ID < scored[j].Entry.ID
	})
}

func (s *pgStore) queryCandidates(ctx context.Context, platform models.Platform) (pgx.Rows, error) {
	const base = `SELECT id, name, desc_short, platform, tags, cost_hint, embedding, always_include, updated_at FROM tool_index`
	var (
		rows pgx.Rows
		err  error
	)
	if platform != "" {
		rows, err = s.pool.Query(ctx, base+` WHERE platform = $1 OR platform = $2`, string(platform), string(models.PlatformMultiPlatform))
	} else {
		rows, err = s.pool.Query(ctx, base)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return rows, nil
}
