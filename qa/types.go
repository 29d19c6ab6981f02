// Package qa defines the shared data model for parsed questionnaires and
// generated answers.
package qa

import "strings"

// SourceType identifies the kind of corpus record an answer was grounded on.
type SourceType string

const (
	SourceTypePolicy                SourceType = "policy"
	SourceTypeQuestionnaire         SourceType = "questionnaire"
	SourceTypeContextQA             SourceType = "context_qa"
	SourceTypeManualAnswer          SourceType = "manual_answer"
	SourceTypeKnowledgeBaseDocument SourceType = "knowledge_base_document"
	SourceTypeOther                 SourceType = "other"
)

// Source is a deduplicated reference to one underlying document or record
// that contributed grounding for an answer. Many retrieved chunks of the
// same document collapse into a single Source.
type Source struct {
	SourceType SourceType `json:"sourceType"`
	SourceName string     `json:"sourceName,omitempty"`
	SourceID   string     `json:"sourceId"`
	Score      float64    `json:"score"`
}

// QuestionAnswer is one entry of a questionnaire. An empty Answer means the
// question is unanswered; an unanswered entry never carries sources.
// Ordering within a questionnaire is significant.
type QuestionAnswer struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer,omitempty"`
	Sources  []Source `json:"sources,omitempty"`
}

// Answered reports whether the entry holds a non-blank answer.
func (q QuestionAnswer) Answered() bool {
	return strings.TrimSpace(q.Answer) != ""
}

// AnswerResult is the outcome of generating an answer for a single question.
// Immutable after return. A failed or ungrounded generation carries an empty
// Answer and no sources.
type AnswerResult struct {
	QuestionIndex int      `json:"questionIndex"`
	Question      string   `json:"question"`
	Answer        string   `json:"answer,omitempty"`
	Sources       []Source `json:"sources"`
	Success       bool     `json:"success"`
	Error         string   `json:"error,omitempty"`
}
