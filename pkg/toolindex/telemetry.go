package toolindex

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opsconductor/core/pkg/models"
)

// LogTelemetry appends one stage_ab_telemetry row per Stage AB call (spec
// §4.2, §4.10). Rows are never updated: executed_ids/recall_at_k hold
// whatever the row carried at insert, and no later backfill exists.
func (s *pgStore) LogTelemetry(ctx context.Context, row models.TelemetryRow) error {
	timingsJSON, err := json.Marshal(row.StageTimings)
	if err != nil {
		return fmt.Errorf("toolindex: failed to marshal stage_timings: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO stage_ab_telemetry
			(request_id, catalog_size, candidates_before_budget, rows_sent, budget_used_tokens,
			 headroom_left_pct, selected_ids, executed_ids, recall_at_k, truncation_events, stage_timings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (request_id) DO NOTHING
	`, row.RequestID, row.CatalogSize, row.CandidatesBeforeBudget, row.RowsSent, row.BudgetUsedTokens,
		row.HeadroomLeftPct, row.SelectedIDs, row.ExecutedIDs, row.RecallAtK, row.TruncationEvents, timingsJSON)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// RecentAlerts derives alert rows from the most recent limit telemetry rows
// using the thresholds in models.DeriveAlerts (spec §3: "headroom<15%,
// recall<0.98, or truncation>0").
func (s *pgStore) RecentAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT request_id, headroom_left_pct, recall_at_k, truncation_events
		FROM stage_ab_telemetry
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var r models.TelemetryRow
		if err := rows.Scan(&r.RequestID, &r.HeadroomLeftPct, &r.RecallAtK, &r.TruncationEvents); err != nil {
			return nil, fmt.Errorf("toolindex: recent_alerts scan failed: %w", err)
		}
		alerts = append(alerts, models.DeriveAlerts(r)...)
	}
	return alerts, rows.Err()
}
