// Package toolindex is the tool index store (spec §4.2): upsert/bulk_upsert,
// vector_search, lexical_search, get_full_spec, and the telemetry sink
// Stage AB writes one row to per call. It sits directly on pkg/database's
// pgxpool — there is no ORM layer and no pgvector driver in this build, so
// vector_search decodes embeddings out of a bytea column and scores them
// in-process (see DESIGN.md's Open Question resolution).
package toolindex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsconductor/core/pkg/models"
)

// Store is the tool index contract every higher stage depends on instead of
// a concrete pgxpool type (spec §9: injected services, not globals).
type Store interface {
	Upsert(ctx context.Context, entry models.ToolIndexEntry, spec models.FullToolSpec) error
	BulkUpsert(ctx context.Context, entries []models.ToolIndexEntry, specs []models.FullToolSpec) error
	VectorSearch(ctx context.Context, query []float32, platform models.Platform, topK int) ([]ScoredEntry, error)
	LexicalSearch(ctx context.Context, text string, platform models.Platform, topK int) ([]ScoredEntry, error)
	GetFullSpec(ctx context.Context, id string) (models.FullToolSpec, error)
	AlwaysInclude(ctx context.Context) ([]models.ToolIndexEntry, error)
	// ListTools returns the minimal rows matching platform (ignored if
	// empty) and tags (a row matches if it carries any tag in the list;
	// ignored if empty), ordered by id for a stable listing.
	ListTools(ctx context.Context, platform models.Platform, tags []string) ([]models.ToolIndexEntry, error)
	LogTelemetry(ctx context.Context, row models.TelemetryRow) error
	RecentAlerts(ctx context.Context, limit int) ([]models.Alert, error)
}

// ScoredEntry pairs a retrieved tool with its similarity/match score. Ties
// are broken by (similarity desc, id asc) — spec §4.2's stable tie order.
type ScoredEntry struct {
	Entry models.ToolIndexEntry
	Score float64
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store backed by pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) Upsert(ctx context.Context, entry models.ToolIndexEntry, spec models.FullToolSpec) error {
	return s.BulkUpsert(ctx, []models.ToolIndexEntry{entry}, []models.FullToolSpec{spec})
}

func (s *pgStore) BulkUpsert(ctx context.Context, entries []models.ToolIndexEntry, specs []models.FullToolSpec) error {
	if len(entries) != len(specs) {
		return fmt.Errorf("toolindex: bulk_upsert entries/specs length mismatch (%d vs %d)", len(entries), len(specs))
	}
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, e := range entries {
		specJSON, err := json.Marshal(specs[i])
		if err != nil {
			return fmt.Errorf("toolindex: failed to marshal full_spec for %q: %w", e.ID, err)
		}
		batch.Queue(`
			INSERT INTO tool_index (id, name, desc_short, platform, tags, cost_hint, embedding, full_spec, always_include, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				desc_short = EXCLUDED.desc_short,
				platform = EXCLUDED.platform,
				tags = EXCLUDED.tags,
				cost_hint = EXCLUDED.cost_hint,
				embedding = EXCLUDED.embedding,
				full_spec = EXCLUDED.full_spec,
				always_include = EXCLUDED.always_include,
				updated_at = now()
		`, e.ID, e.Name, e.DescShort, string(e.Platform), e.Tags, string(e.CostHint), encodeEmbedding(e.Embedding), specJSON, e.AlwaysInclude)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range entries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	slog.Debug("tool index upserted", "event", "toolindex_bulk_upsert", "count", len(entries))
	return nil
}

func (s *pgStore) GetFullSpec(ctx context.Context, id string) (models.FullToolSpec, error) {
	var specJSON []byte
	err := s.pool.QueryRow(ctx, `SELECT full_spec FROM tool_index WHERE id = $1`, id).Scan(&specJSON)
	if err != nil {
		if err == pgx.ErrNoRows {
			return models.FullToolSpec{}, ErrNotFound
		}
		return models.FullToolSpec{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	var spec models.FullToolSpec
	if err := json.Unmarshal(specJSON, &spec); err != nil {
		return models.FullToolSpec{}, fmt.Errorf("toolindex: corrupt full_spec for %q: %w", id, err)
	}
	return spec, nil
}

func (s *pgStore) AlwaysInclude(ctx context.Context) ([]models.ToolIndexEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, desc_short, platform, tags, cost_hint, updated_at
		FROM tool_index WHERE always_include = TRUE
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []models.ToolIndexEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		e.AlwaysInclude = true
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *pgStore) ListTools(ctx context.Context, platform models.Platform, tags []string) ([]models.ToolIndexEntry, error) {
	query := `SELECT id, name, desc_short, platform, tags, cost_hint, updated_at FROM tool_index WHERE TRUE`
	args := []interface{}{}
	if platform != "" {
		args = append(args, string(platform))
		query += fmt.Sprintf(" AND platform = $%d", len(args))
	}
	if len(tags) > 0 {
		args = append(args, tags)
		query += fmt.Sprintf(" AND tags && $%d", len(args))
	}
	query += " ORDER BY id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []models.ToolIndexEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(rows pgx.Rows) (models.ToolIndexEntry, error) {
	var e models.ToolIndexEntry
	var platform, costHint string
	if err := rows.Scan(&e.ID, &e.Name, &e.DescShort, &platform, &e.Tags, &costHint, &e.UpdatedAt); err != nil {
		return models.ToolIndexEntry{}, fmt.Errorf("toolindex: scan failed: %w", err)
	}
	e.Platform = models.Platform(platform)
	e.CostHint = models.CostHint(costHint)
	return e, nil
}
