package retrieval

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ledongthuc/pdf"
	"github.com/tmc/langchaingo/textsplitter"
	"go.uber.org/zap"

	"github.com/trustvault/questionnaire/qa"
)

const (
	corpusChunkSize    = 1000
	corpusChunkOverlap = 100
)

// Indexer loads knowledge-base documents into the corpus table. Rows are
// stored without embeddings; SyncEmbeddings picks them up on the next run.
type Indexer struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewIndexer(pool *pgxpool.Pool, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{pool: pool, logger: logger}
}

// IngestDocument splits one knowledge-base document into corpus rows.
// Existing rows for the same document name are replaced so re-ingesting an
// updated document never leaves stale chunks behind.
func (ix *Indexer) IngestDocument(ctx context.Context, organizationID uuid.UUID, name string, data []byte, mediaType string) (int, error) {
	text, err := corpusText(data, mediaType)
	if err != nil {
		return 0, err
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(corpusChunkSize),
		textsplitter.WithChunkOverlap(corpusChunkOverlap),
	)
	chunks, err := splitter.SplitText(text)
	if err != nil {
		return 0, fmt.Errorf("split document %q: %w", name, err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	tx, err := ix.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin ingest tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `
		DELETE FROM content_items
		WHERE organization_id = $1 AND content_type = $2 AND document_name = $3
	`, organizationID, string(qa.SourceTypeKnowledgeBaseDocument), name); err != nil {
		return 0, fmt.Errorf("clear existing rows for %q: %w", name, err)
	}

	for _, chunk := range chunks {
		hash := sha256.Sum256([]byte(chunk))
		if _, err := tx.Exec(ctx, `
			INSERT INTO content_items (id, organization_id, content_type, document_name, content, content_sha256)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.New(), organizationID, string(qa.SourceTypeKnowledgeBaseDocument), name, chunk, hex.EncodeToString(hash[:])); err != nil {
			return 0, fmt.Errorf("insert corpus chunk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit ingest tx: %w", err)
	}

	ix.logger.Info("ingested knowledge-base document",
		zap.String("organizationID", organizationID.String()),
		zap.String("document", name),
		zap.Int("chunks", len(chunks)))

	return len(chunks), nil
}

func corpusText(data []byte, mediaType string) (string, error) {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if idx := strings.Index(mt, ";"); idx >= 0 {
		mt = strings.TrimSpace(mt[:idx])
	}

	switch {
	case mt == "application/pdf":
		reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return "", fmt.Errorf("open pdf: %w", err)
		}
		plain, err := reader.GetPlainText()
		if err != nil {
			return "", fmt.Errorf("extract pdf text: %w", err)
		}
		buf := &bytes.Buffer{}
		if _, err := io.Copy(buf, plain); err != nil {
			return "", fmt.Errorf("read pdf text: %w", err)
		}
		return buf.String(), nil
	case strings.HasPrefix(mt, "text/"), mt == "application/markdown":
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported corpus document type %q: use pdf, markdown, or plain text", mt)
	}
}
