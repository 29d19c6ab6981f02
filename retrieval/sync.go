package retrieval

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// syncBatchSize bounds how many stale rows are embedded per provider call.
const syncBatchSize = 64

// SyncEmbeddings embeds every corpus row whose content changed since it was
// last embedded, or that was never embedded at all. The whole sync runs in
// one transaction under a per-organization advisory lock, so concurrent
// pipeline invocations for the same organization serialize instead of
// double-embedding.
func (s *PostgresStore) SyncEmbeddings(ctx context.Context, organizationID uuid.UUID) error {
	if s.embedder == nil {
		return fmt.Errorf("embedder not configured")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin sync tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", organizationID.String()); err != nil {
		return fmt.Errorf("acquire organization sync lock: %w", err)
	}

	for {
		batch, err := staleRows(ctx, tx, organizationID, syncBatchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}

		texts := make([]string, len(batch))
		for i, row := range batch {
			texts[i] = row.content
		}

		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed corpus batch: %w", err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedding count mismatch: have %d rows, %d vectors", len(batch), len(vectors))
		}

		for i, row := range batch {
			if _, err := tx.Exec(ctx, `
				UPDATE content_items
				SET embedding = $2,
				    embedded_sha256 = content_sha256,
				    updated_at = NOW()
				WHERE id = $1
			`, row.id, pgvector.NewVector(vectors[i])); err != nil {
				return fmt.Errorf("store embedding for %s: %w", row.id, err)
			}
		}

		s.logger.Debug("embedded corpus batch",
			zap.String("organizationID", organizationID.String()),
			zap.Int("rows", len(batch)))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit sync tx: %w", err)
	}
	return nil
}

type staleRow struct {
	id      uuid.UUID
	content string
}

func staleRows(ctx context.Context, tx pgx.Tx, organizationID uuid.UUID, limit int) ([]staleRow, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, content
		FROM content_items
		WHERE organization_id = $1
		  AND (embedding IS NULL OR embedded_sha256 IS DISTINCT FROM content_sha256)
		LIMIT $2
	`, organizationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query stale content rows: %w", err)
	}
	defer rows.Close()

	batch := make([]staleRow, 0, limit)
	for rows.Next() {
		var row staleRow
		if err := rows.Scan(&row.id, &row.content); err != nil {
			return nil, fmt.Errorf("scan stale content row: %w", err)
		}
		batch = append(batch, row)
	}
	return batch, rows.Err()
}
