// Package answer generates grounded answers for questionnaire questions by
// retrieving organization corpus content and synthesizing a concise, sourced
// response.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trustvault/questionnaire/llm"
	"github.com/trustvault/questionnaire/qa"
	"github.com/trustvault/questionnaire/retrieval"
)

const noEvidenceSentinel = "N/A - no evidence found"

const answerSystemPrompt = `You answer vendor security questionnaires on behalf of our organization.
Answer ONLY from the supplied context. If the context is insufficient, respond with exactly: ` + noEvidenceSentinel + `
Be concise: 1-3 sentences unless the question explicitly requires more.
Use a professional enterprise register and write in first-person plural ("we", "our", "us").
Synthesize multiple sources into a single coherent answer. Do not add disclaimers.`

// nonAnswerMarkers identify generation output that must be treated as no
// answer even though retrieval succeeded.
var nonAnswerMarkers = []string{"n/a", "no evidence", "not found in the context"}

const defaultRetrievalLimit = 5

// Options tunes a single-question invocation.
type Options struct {
	// SkipSync suppresses the embedding index refresh, used when the caller
	// already synced for a whole batch.
	SkipSync bool
}

// Service is the RAG answer generator.
type Service struct {
	store       retrieval.Store
	client      llm.Client
	logger      *zap.Logger
	limit       int
	concurrency int
}

func NewService(store retrieval.Store, client llm.Client, logger *zap.Logger, retrievalLimit, concurrency int) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retrievalLimit <= 0 {
		retrievalLimit = defaultRetrievalLimit
	}
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}
	return &Service{store: store, client: client, logger: logger, limit: retrievalLimit, concurrency: concurrency}
}

// AnswerQuestion retrieves grounding content for one question and
// synthesizes an answer. Failures anywhere past the embedding sync are
// captured in the result, never propagated: one question's failure must not
// disturb its siblings.
func (s *Service) AnswerQuestion(ctx context.Context, question string, organizationID uuid.UUID, opts Options) qa.AnswerResult {
	return s.answerAt(ctx, 0, question, organizationID, opts)
}

func (s *Service) answerAt(ctx context.Context, index int, question string, organizationID uuid.UUID, opts Options) qa.AnswerResult {
	result := qa.AnswerResult{QuestionIndex: index, Question: question, Sources: []qa.Source{}}

	if !opts.SkipSync {
		// Sync failures are logged and swallowed: generation proceeds
		// against the existing index.
		if err := s.store.SyncEmbeddings(ctx, organizationID); err != nil {
			s.logger.Warn("embedding sync failed, continuing with stale index",
				zap.String("organizationID", organizationID.String()),
				zap.Error(err))
		}
	}

	items, err := s.store.SimilarContent(ctx, question, organizationID, s.limit)
	if err != nil {
		result.Error = fmt.Sprintf("retrieve similar content: %v", err)
		return result
	}

	if len(items) == 0 {
		result.Success = true
		return result
	}

	contextBlock := buildContextBlock(items)
	sources := dedupeSources(items)

	generated, err := s.client.GenerateText(ctx, answerSystemPrompt, buildAnswerPrompt(question, contextBlock))
	if err != nil {
		result.Error = fmt.Sprintf("generate answer: %v", err)
		return result
	}

	generated = strings.TrimSpace(generated)
	if isNonAnswer(generated) {
		result.Success = true
		return result
	}

	if len(sources) == 0 {
		// An answer without any grounding source is suspect; surface it to
		// operators rather than failing the question.
		s.logger.Warn("generated answer has no grounding sources",
			zap.String("question", question))
	}

	result.Answer = generated
	result.Sources = sources
	result.Success = true
	return result
}

func buildAnswerPrompt(question, contextBlock string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextBlock, question)
}

// buildContextBlock renders each retrieved item as a numbered, labeled
// excerpt the model can cite from.
func buildContextBlock(items []retrieval.ContentItem) string {
	blocks := make([]string, 0, len(items))
	for i, item := range items {
		blocks = append(blocks, fmt.Sprintf("[%d] Source: %s\n%s", i+1, sourceLabel(item), item.Content))
	}
	return strings.Join(blocks, "\n\n")
}

func isNonAnswer(text string) bool {
	lowered := strings.ToLower(text)
	for _, marker := range nonAnswerMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
