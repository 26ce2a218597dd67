package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CreateGINIndexes creates the GIN index on tool_index.tags. The plain .sql
// migrations create only the B-tree indexes; this GIN index exists only
// through this function (spec §6: "GIN on tags").
func CreateGINIndexes(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS idx_tool_index_tags_gin ON tool_index USING gin(tags)`)
	if err != nil {
		return fmt.Errorf("failed to create tool_index tags GIN index: %w", err)
	}
	return nil
}
