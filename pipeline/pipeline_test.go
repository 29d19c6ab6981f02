package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/trustvault/questionnaire/llm"
)

// callbackLLM routes structured calls to a test-provided function.
type callbackLLM struct {
	structured func(user string) (json.RawMessage, error)
}

func (c *callbackLLM) GenerateText(ctx context.Context, system, user string) (string, error) {
	return "", errors.New("not used")
}

func (c *callbackLLM) GenerateVision(ctx context.Context, system, user string, attachment llm.Attachment) (string, error) {
	return "", errors.New("not used")
}

func (c *callbackLLM) GenerateStructured(ctx context.Context, system, user, schemaName string, schema json.RawMessage) (json.RawMessage, error) {
	return c.structured(user)
}

var _ llm.Client = (*callbackLLM)(nil)

// echoQuestionLLM answers each structured call with the first question-mark
// line of the prompt, mimicking a parse of the chunk it was given.
func echoQuestionLLM() *callbackLLM {
	return &callbackLLM{structured: func(user string) (json.RawMessage, error) {
		for _, line := range strings.Split(user, "\n") {
			trimmed := strings.TrimSpace(line)
			if strings.HasSuffix(trimmed, "?") {
				return json.Marshal(map[string]interface{}{
					"items": []map[string]interface{}{{"question": trimmed, "answer": nil}},
				})
			}
		}
		return json.RawMessage(`{"items":[]}`), nil
	}}
}

func TestServiceParseEndToEnd(t *testing.T) {
	text := "What is your SOC 2 status?\nWe have SOC 2 Type II.\nDo you encrypt data at rest?\nYes, AES-256."

	svc := NewService(echoQuestionLLM(), nil, ChunkOptions{}, 4)

	result, err := svc.Parse(context.Background(), []byte(text), "text/plain", "Acme Corp.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.VendorName != "Acme Corp" {
		t.Errorf("vendor name should drop the extension, got %q", result.VendorName)
	}
	if result.TotalQuestions != 2 {
		t.Fatalf("expected 2 questions, got %d", result.TotalQuestions)
	}
	if result.QuestionsAndAnswers[0].Question != "What is your SOC 2 status?" {
		t.Errorf("chunk order should be preserved, got %q first", result.QuestionsAndAnswers[0].Question)
	}
	if result.QuestionsAndAnswers[1].Question != "Do you encrypt data at rest?" {
		t.Errorf("unexpected second question: %q", result.QuestionsAndAnswers[1].Question)
	}
}

func TestServiceParseDeduplicatesAcrossChunks(t *testing.T) {
	client := &callbackLLM{structured: func(user string) (json.RawMessage, error) {
		return json.Marshal(map[string]interface{}{
			"items": []map[string]interface{}{{"question": "Do you encrypt data?", "answer": nil}},
		})
	}}
	svc := NewService(client, nil, ChunkOptions{}, 4)

	text := "First question?\nanswer\nSecond question?\nanswer"
	result, err := svc.Parse(context.Background(), []byte(text), "text/plain", "v.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalQuestions != 1 {
		t.Fatalf("identical questions from different chunks must merge, got %d", result.TotalQuestions)
	}
}

func TestServiceParseFailFast(t *testing.T) {
	var calls int32
	client := &callbackLLM{structured: func(user string) (json.RawMessage, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("provider error")
		}
		return json.RawMessage(`{"items":[]}`), nil
	}}

	svc := NewService(client, nil, ChunkOptions{}, 1)

	text := "Q1: first?\nanswer\nQ2: second?\nanswer"
	_, err := svc.Parse(context.Background(), []byte(text), "text/plain", "v.txt")
	if err == nil {
		t.Fatal("one failing chunk must abort the whole parse")
	}
	if !strings.Contains(err.Error(), "provider error") {
		t.Errorf("original cause should be preserved, got %v", err)
	}
}

func TestServiceParseCancelledContext(t *testing.T) {
	svc := NewService(echoQuestionLLM(), nil, ChunkOptions{}, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	text := "What is your SOC 2 status?\nWe have SOC 2 Type II."
	result, err := svc.Parse(ctx, []byte(text), "text/plain", "v.txt")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled parse must fail, got result=%+v err=%v", result, err)
	}
	if result != nil {
		t.Errorf("cancelled parse must not hand back a result, got %+v", result)
	}
}

func TestServiceParseExtractionFailureFatal(t *testing.T) {
	svc := NewService(&stubLLM{}, nil, ChunkOptions{}, 4)

	_, err := svc.Parse(context.Background(), []byte("x"), "application/zip", "v.zip")
	var unsupported *UnsupportedMediaTypeError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedMediaTypeError, got %v", err)
	}
}

func TestServiceParseEmptyDocument(t *testing.T) {
	svc := NewService(&stubLLM{structured: json.RawMessage(`{"items":[]}`)}, nil, ChunkOptions{}, 4)

	result, err := svc.Parse(context.Background(), []byte("   \n  "), "text/plain", "v.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalQuestions != 0 || len(result.QuestionsAndAnswers) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}
