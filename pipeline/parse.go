package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/trustvault/questionnaire/llm"
	"github.com/trustvault/questionnaire/qa"
)

const parseSystemPrompt = `You extract questions and answers from vendor security questionnaires.
Ignore table headers, labels, and metadata placeholders such as "Company Name", "Department", "Assessment Date", or "Name of Assessor".
A valid question is a meaningful sentence, usually ending in "?" or starting with an interrogative word.
Never fabricate an answer: if the document contains no answer for a question, return null for that answer.
Preserve the original question wording, trimmed of surrounding whitespace.`

const parseFilterRules = `Remember: skip headers, labels, and metadata placeholders; only return genuine questions; answers must come from the text or be null.`

// parseResultSchema constrains the generation call to an array of
// question/answer objects with nullable answers.
var parseResultSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"items": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"question": {"type": "string"},
					"answer": {"type": ["string", "null"]}
				},
				"required": ["question", "answer"],
				"additionalProperties": false
			}
		}
	},
	"required": ["items"],
	"additionalProperties": false
}`)

type parsedItems struct {
	Items []struct {
		Question string  `json:"question"`
		Answer   *string `json:"answer"`
	} `json:"items"`
}

// Parser pulls genuine question/answer pairs out of a chunk with one
// schema-constrained generation call.
type Parser struct {
	client llm.Client
	logger *zap.Logger
}

func NewParser(client llm.Client, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{client: client, logger: logger}
}

// ParseChunk extracts the QA pairs of one chunk. A failed generation call
// propagates to the caller, which owns the isolation policy.
func (p *Parser) ParseChunk(ctx context.Context, chunkText string, chunkIndex, totalChunks int) ([]qa.QuestionAnswer, error) {
	user := buildParsePrompt(chunkText, chunkIndex, totalChunks)

	raw, err := p.client.GenerateStructured(ctx, parseSystemPrompt, user, "questionnaire_items", parseResultSchema)
	if err != nil {
		return nil, fmt.Errorf("parse chunk %d of %d: %w", chunkIndex+1, totalChunks, err)
	}

	var parsed parsedItems
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode chunk %d parse result: %w", chunkIndex+1, err)
	}

	pairs := make([]qa.QuestionAnswer, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		question := strings.TrimSpace(item.Question)
		if question == "" {
			continue
		}
		answer := ""
		if item.Answer != nil {
			// Whitespace-only answers count as absent.
			answer = strings.TrimSpace(*item.Answer)
		}
		pairs = append(pairs, qa.QuestionAnswer{Question: question, Answer: answer})
	}

	p.logger.Debug("parsed chunk",
		zap.Int("chunk", chunkIndex+1),
		zap.Int("totalChunks", totalChunks),
		zap.Int("pairs", len(pairs)))

	return pairs, nil
}

func buildParsePrompt(chunkText string, chunkIndex, totalChunks int) string {
	if totalChunks > 1 {
		return fmt.Sprintf("Chunk %d of %d of a vendor security questionnaire. Extract every question/answer pair from this chunk.\n%s\n\n%s",
			chunkIndex+1, totalChunks, parseFilterRules, chunkText)
	}
	return fmt.Sprintf("Extract every question/answer pair from this vendor security questionnaire.\n%s\n\n%s",
		parseFilterRules, chunkText)
}
