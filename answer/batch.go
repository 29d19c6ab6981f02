package answer

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trustvault/questionnaire/fanout"
	"github.com/trustvault/questionnaire/qa"
)

const defaultBatchConcurrency = 8

// GenerateAnswers fills in every unanswered question of a questionnaire
// concurrently. The embedding index is synced exactly once for the whole
// batch; individual question failures never block or corrupt siblings, and
// an entry that already carries an answer is never overwritten.
func (s *Service) GenerateAnswers(ctx context.Context, questions []qa.QuestionAnswer, organizationID uuid.UUID) []qa.QuestionAnswer {
	unanswered := make([]int, 0, len(questions))
	for i, question := range questions {
		if !question.Answered() {
			unanswered = append(unanswered, i)
		}
	}
	if len(unanswered) == 0 {
		return questions
	}

	// The freshness check is organization-scoped, not question-scoped, so
	// one sync covers the batch.
	if err := s.store.SyncEmbeddings(ctx, organizationID); err != nil {
		s.logger.Warn("embedding sync failed, continuing with stale index",
			zap.String("organizationID", organizationID.String()),
			zap.Error(err))
	}

	results, _ := fanout.Map(ctx, unanswered, s.concurrency, fanout.CollectAll,
		func(ctx context.Context, _ int, questionIndex int) (qa.AnswerResult, error) {
			result := s.answerAt(ctx, questionIndex, questions[questionIndex].Question, organizationID, Options{SkipSync: true})
			return result, nil
		})

	merged := make([]qa.QuestionAnswer, len(questions))
	copy(merged, questions)

	answered := 0
	for _, res := range results {
		outcome := res.Value
		if !outcome.Success || outcome.Answer == "" {
			continue
		}
		merged[outcome.QuestionIndex].Answer = outcome.Answer
		merged[outcome.QuestionIndex].Sources = outcome.Sources
		answered++
	}

	s.logger.Info("batch answer generation finished",
		zap.String("organizationID", organizationID.String()),
		zap.Int("requested", len(unanswered)),
		zap.Int("answered", answered))

	return merged
}
