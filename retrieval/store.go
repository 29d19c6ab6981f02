// Package retrieval provides organization-scoped similarity search over the
// knowledge corpus, the embedding index sync, and the corpus document
// indexer feeding it.
package retrieval

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/trustvault/questionnaire/embeddings"
	"github.com/trustvault/questionnaire/qa"
)

// ContentItem is one ranked retrieval hit. The identifying fields depend on
// the content type; the answer generator collapses hits sharing the same
// underlying source into one qa.Source.
type ContentItem struct {
	ContentType    qa.SourceType
	ContentID      string
	PolicyName     string
	VendorName     string
	SourceQuestion string
	DocumentName   string
	Content        string
	Score          float64
}

// Store is the retrieval collaborator the answer generator consumes.
type Store interface {
	// SimilarContent returns the top-limit corpus items most similar to the
	// query, scoped to one organization.
	SimilarContent(ctx context.Context, query string, organizationID uuid.UUID, limit int) ([]ContentItem, error)
	// SyncEmbeddings refreshes the organization's embedding index. It is
	// idempotent and safe to call concurrently for the same organization.
	SyncEmbeddings(ctx context.Context, organizationID uuid.UUID) error
}

// PostgresStore backs Store with a pgvector-enabled Postgres database.
type PostgresStore struct {
	pool     *pgxpool.Pool
	embedder embeddings.Embedder
	logger   *zap.Logger
}

func NewPostgresStore(pool *pgxpool.Pool, embedder embeddings.Embedder, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{pool: pool, embedder: embedder, logger: logger}
}

func (s *PostgresStore) SimilarContent(ctx context.Context, query string, organizationID uuid.UUID, limit int) ([]ContentItem, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 5
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}

	rows, err := s.pool.Query(ctx, `
        SELECT
            id,
            content_type,
            COALESCE(policy_name, ''),
            COALESCE(vendor_name, ''),
            COALESCE(source_question, ''),
            COALESCE(document_name, ''),
            content,
            (embedding <-> $1::vector) AS distance
        FROM content_items
        WHERE organization_id = $2
          AND embedding IS NOT NULL
        ORDER BY embedding <-> $1::vector
        LIMIT $3
    `, pgvector.NewVector(vectors[0]), organizationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query similar content: %w", err)
	}
	defer rows.Close()

	results := make([]ContentItem, 0, limit)
	for rows.Next() {
		var (
			item        ContentItem
			contentType string
			distance    float64
		)
		if scanErr := rows.Scan(&item.ContentID, &contentType, &item.PolicyName, &item.VendorName,
			&item.SourceQuestion, &item.DocumentName, &item.Content, &distance); scanErr != nil {
			return nil, fmt.Errorf("scan similar content: %w", scanErr)
		}
		item.ContentType = qa.SourceType(contentType)
		item.Score = 1 / (1 + distance)
		results = append(results, item)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return results, nil
}

var _ Store = (*PostgresStore)(nil)
