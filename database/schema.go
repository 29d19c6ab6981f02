package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the content_items table the retrieval layer reads
// from. content_sha256 tracks the text that was last embedded so the sync
// step can find stale rows; embedding stays NULL until the first sync.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS content_items (
			id UUID PRIMARY KEY,
			organization_id UUID NOT NULL,
			content_type TEXT NOT NULL,
			policy_name TEXT,
			vendor_name TEXT,
			source_question TEXT,
			document_name TEXT,
			content TEXT NOT NULL,
			content_sha256 TEXT NOT NULL,
			embedded_sha256 TEXT,
			embedding VECTOR(%d),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, dimension),
		"CREATE INDEX IF NOT EXISTS idx_content_items_org ON content_items(organization_id)",
		"CREATE INDEX IF NOT EXISTS idx_content_items_embedding ON content_items USING ivfflat (embedding vector_l2_ops)",
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}

	return nil
}
