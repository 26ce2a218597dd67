package api

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opsconductor/core/pkg/models"
	"github.com/opsconductor/core/pkg/toolindex"
)

// errEmbedderUnavailable marks the embedding collaborator as absent
// entirely (no embedding.Service was wired in), which degrades search to
// lexical-only the same way a live embed failure would.
var errEmbedderUnavailable = errors.New("api: embedder not configured")

const (
	maxSelectorK         = 10
	maxSelectorPlatforms = 5
	defaultSelectorK     = 5
)

// selectorSearchHandler handles GET /api/selector/search?query=&platform=&k=
// (spec §6). It runs a lighter direct retrieval than the full Stage AB
// pipeline — lexical plus (when the embedder is healthy) vector search —
// fronted by a small TTL cache so repeat queries report from_cache.
func (s *Server) selectorSearchHandler(c *gin.Context) {
	started := time.Now()

	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		writeError(c, started, http.StatusBadRequest, errCodeValidation, "query is required")
		return
	}

	k := defaultSelectorK
	if raw := c.Query("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxSelectorK {
			writeError(c, started, http.StatusBadRequest, errCodeValidation, "k must be between 1 and 10")
			return
		}
		k = parsed
	}

	var platforms []string
	if raw := c.Query("platform"); raw != "" {
		platforms = strings.Split(raw, ",")
	}
	if len(platforms) > maxSelectorPlatforms {
		writeError(c, started, http.StatusBadRequest, errCodeValidation, "at most 5 platforms may be requested")
		return
	}
	platform := models.Platform("")
	if len(platforms) == 1 {
		platform = models.Platform(platforms[0])
	}

	ctx := c.Request.Context()

	key := searchKey{query: query, platform: string(platform), k: k}
	if cached, ok := s.searchCache.get(ctx, key); ok {
		s.metrics.SelectorRequestsTotal.WithLabelValues("success", "cache").Inc()
		c.JSON(http.StatusOK, SelectorSearchResponse{
			Candidates: cached,
			FromCache:  true,
			DurationMS: time.Since(started).Milliseconds(),
		})
		return
	}

	lexResults, lexErr := s.store.LexicalSearch(ctx, query, platform, k)

	var vecErr error
	if s.embedder != nil {
		vecs, err := s.embedder.Embed(ctx, []string{query})
		if err != nil {
			vecErr = err
		} else if len(vecs) > 0 {
			if vecResults, err := s.store.VectorSearch(ctx, vecs[0], platform, k); err == nil {
				lexResults = mergeScored(lexResults, vecResults)
			}
		}
	} else {
		vecErr = errEmbedderUnavailable
	}

	degraded := vecErr != nil && s.cfg.Selector.DegradedEnable
	if lexErr != nil {
		if degraded {
			c.Header("Retry-After", "30")
			s.metrics.SelectorRequestsTotal.WithLabelValues("error", "degraded").Inc()
			writeError(c, started, http.StatusServiceUnavailable, errCodeUpstreamUnreachable, "selector search degraded and no cached result available")
			return
		}
		s.metrics.SelectorRequestsTotal.WithLabelValues("error", "store").Inc()
		writeError(c, started, http.StatusInternalServerError, errCodeInternal, lexErr.Error())
		return
	}

	candidates := make([]models.MinimalRow, 0, len(lexResults))
	for i, r := range lexResults {
		if i >= k {
			break
		}
		candidates = append(candidates, r.Entry.Row())
	}

	s.searchCache.put(ctx, key, candidates)
	s.metrics.SelectorCacheEntries.Set(float64(s.searchCache.len(ctx)))

	source := "lexical"
	if vecErr == nil && s.embedder != nil {
		source = "hybrid"
	}
	s.metrics.SelectorRequestsTotal.WithLabelValues("success", source).Inc()

	c.JSON(http.StatusOK, SelectorSearchResponse{
		Candidates: candidates,
		FromCache:  false,
		DurationMS: time.Since(started).Milliseconds(),
	})
}

// mergeScored combines lexical and vector result sets, keeping each tool's
// best score and re-sorting by (score desc, id asc) to match the tie order
// the tool index store itself uses.
func mergeScored(lexical, vector []toolindex.ScoredEntry) []toolindex.ScoredEntry {
	byID := make(map[string]toolindex.ScoredEntry, len(lexical)+len(vector))
	for _, r := range lexical {
		byID[r.Entry.ID] = r
	}
	for _, r := range vector {
		if existing, ok := byID[r.Entry.ID]; !ok || r.Score > existing.Score {
			byID[r.Entry.ID] = r
		}
	}

	out := make([]toolindex.ScoredEntry, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Entry.ID < out[j].Entry.ID
	})
	return out
}
