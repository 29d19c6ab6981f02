// Package pipeline implements the document-to-structured-QA pipeline:
// content extraction, question-anchored chunking, schema-constrained
// parsing, and cross-chunk deduplication. The four stages are exposed both
// individually and through the orchestrating Service so every entry point
// shares one implementation.
package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/trustvault/questionnaire/fanout"
	"github.com/trustvault/questionnaire/llm"
	"github.com/trustvault/questionnaire/qa"
)

const defaultConcurrency = 8

// ParsedResult is the canonical outcome of parsing one questionnaire file.
type ParsedResult struct {
	VendorName          string              `json:"vendorName,omitempty"`
	FileName            string              `json:"fileName,omitempty"`
	TotalQuestions      int                 `json:"totalQuestions"`
	QuestionsAndAnswers []qa.QuestionAnswer `json:"questionsAndAnswers"`
}

// Service orchestrates extract, chunk, parse, and merge.
type Service struct {
	extractor   *Extractor
	parser      *Parser
	logger      *zap.Logger
	chunkOpts   ChunkOptions
	concurrency int
}

// NewService wires the pipeline. A zero ChunkOptions falls back to the
// defaults, concurrency <= 0 to the package default.
func NewService(client llm.Client, logger *zap.Logger, chunkOpts ChunkOptions, concurrency int) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if chunkOpts == (ChunkOptions{}) {
		chunkOpts = DefaultChunkOptions()
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{
		extractor:   NewExtractor(client, logger),
		parser:      NewParser(client, logger),
		logger:      logger,
		chunkOpts:   chunkOpts,
		concurrency: concurrency,
	}
}

// Parse runs the full pipeline over one file. Chunk parsing fans out with
// fail-fast semantics: the first failing chunk cancels the remaining calls
// and aborts the whole parse, so a partially extracted questionnaire is
// never returned as if it were complete.
func (s *Service) Parse(ctx context.Context, data []byte, mediaType, fileName string) (*ParsedResult, error) {
	text, err := s.extractor.Extract(ctx, data, mediaType)
	if err != nil {
		return nil, err
	}

	chunks := ChunkText(text, s.chunkOpts)
	s.logger.Info("chunked questionnaire",
		zap.String("fileName", fileName),
		zap.Int("chunks", len(chunks)))

	if len(chunks) == 0 {
		return &ParsedResult{
			VendorName:          vendorNameFromFile(fileName),
			FileName:            fileName,
			QuestionsAndAnswers: []qa.QuestionAnswer{},
		}, nil
	}

	total := len(chunks)
	results, err := fanout.Map(ctx, chunks, s.concurrency, fanout.FailFast,
		func(ctx context.Context, idx int, chunk Chunk) ([]qa.QuestionAnswer, error) {
			return s.parser.ParseChunk(ctx, chunk.Content, idx, total)
		})
	if err != nil {
		return nil, err
	}

	chunkResults := make([][]qa.QuestionAnswer, len(results))
	for _, result := range results {
		chunkResults[result.Index] = result.Value
	}

	merged := Merge(chunkResults)
	s.logger.Info("parsed questionnaire",
		zap.String("fileName", fileName),
		zap.Int("questions", len(merged)))

	return &ParsedResult{
		VendorName:          vendorNameFromFile(fileName),
		FileName:            fileName,
		TotalQuestions:      len(merged),
		QuestionsAndAnswers: merged,
	}, nil
}

func vendorNameFromFile(fileName string) string {
	base := filepath.Base(fileName)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
