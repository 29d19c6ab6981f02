package answer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/trustvault/questionnaire/llm"
	"github.com/trustvault/questionnaire/qa"
	"github.com/trustvault/questionnaire/retrieval"
)

type stubStore struct {
	items     []retrieval.ContentItem
	findErr   error
	syncErr   error
	syncCalls int32
	findCalls int32
}

func (s *stubStore) SimilarContent(ctx context.Context, query string, organizationID uuid.UUID, limit int) ([]retrieval.ContentItem, error) {
	atomic.AddInt32(&s.findCalls, 1)
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.items, nil
}

func (s *stubStore) SyncEmbeddings(ctx context.Context, organizationID uuid.UUID) error {
	atomic.AddInt32(&s.syncCalls, 1)
	return s.syncErr
}

var _ retrieval.Store = (*stubStore)(nil)

type stubLLM struct {
	answer string
	err    error
	calls  int32
}

func (s *stubLLM) GenerateText(ctx context.Context, system, user string) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func (s *stubLLM) GenerateVision(ctx context.Context, system, user string, attachment llm.Attachment) (string, error) {
	return "", errors.New("not used")
}

func (s *stubLLM) GenerateStructured(ctx context.Context, system, user, schemaName string, schema json.RawMessage) (json.RawMessage, error) {
	return nil, errors.New("not used")
}

var _ llm.Client = (*stubLLM)(nil)

var testOrg = uuid.MustParse("3f5e9a40-74b4-4f2e-9d38-8a4f4c3a8a01")

func policyItem(score float64) retrieval.ContentItem {
	return retrieval.ContentItem{
		ContentType: qa.SourceTypePolicy,
		ContentID:   "11111111-1111-1111-1111-111111111111",
		PolicyName:  "Encryption Policy",
		Content:     "All data at rest is encrypted with AES-256.",
		Score:       score,
	}
}

func TestAnswerQuestionEmptyRetrievalSkipsGeneration(t *testing.T) {
	store := &stubStore{}
	client := &stubLLM{answer: "should never be used"}
	svc := NewService(store, client, nil, 5, 0)

	result := svc.AnswerQuestion(context.Background(), "Do you encrypt data?", testOrg, Options{})

	if !result.Success {
		t.Fatalf("empty retrieval is not a failure: %+v", result)
	}
	if result.Answer != "" || len(result.Sources) != 0 {
		t.Errorf("expected no answer and no sources, got %+v", result)
	}
	if atomic.LoadInt32(&client.calls) != 0 {
		t.Errorf("generation must not be invoked when retrieval is empty")
	}
}

func TestAnswerQuestionGrounded(t *testing.T) {
	store := &stubStore{items: []retrieval.ContentItem{policyItem(0.9)}}
	client := &stubLLM{answer: "We encrypt all data at rest with AES-256."}
	svc := NewService(store, client, nil, 5, 0)

	result := svc.AnswerQuestion(context.Background(), "Do you encrypt data?", testOrg, Options{})

	if !result.Success || result.Answer == "" {
		t.Fatalf("expected a grounded answer, got %+v", result)
	}
	if len(result.Sources) != 1 {
		t.Fatalf("expected 1 deduplicated source, got %d", len(result.Sources))
	}
	if result.Sources[0].SourceName != "Encryption Policy" {
		t.Errorf("unexpected source name: %q", result.Sources[0].SourceName)
	}
}

func TestAnswerQuestionNoEvidenceNormalized(t *testing.T) {
	for _, generated := range []string{
		"N/A - no evidence found",
		"There is NO EVIDENCE for this in the context.",
		"The requested detail was not found in the context provided.",
	} {
		store := &stubStore{items: []retrieval.ContentItem{policyItem(0.9)}}
		svc := NewService(store, &stubLLM{answer: generated}, nil, 5, 0)

		result := svc.AnswerQuestion(context.Background(), "Do you use HSMs?", testOrg, Options{})
		if !result.Success {
			t.Fatalf("%q: non-answer is not a failure", generated)
		}
		if result.Answer != "" || len(result.Sources) != 0 {
			t.Errorf("%q: expected answer and sources cleared, got %+v", generated, result)
		}
	}
}

func TestAnswerQuestionRetrievalErrorCaptured(t *testing.T) {
	store := &stubStore{findErr: errors.New("connection refused")}
	svc := NewService(store, &stubLLM{}, nil, 5, 0)

	result := svc.AnswerQuestion(context.Background(), "Do you encrypt data?", testOrg, Options{})

	if result.Success {
		t.Fatal("retrieval failure must mark the result unsuccessful")
	}
	if result.Answer != "" || len(result.Sources) != 0 {
		t.Errorf("failed result must carry no answer or sources, got %+v", result)
	}
	if !strings.Contains(result.Error, "connection refused") {
		t.Errorf("error should be captured inline, got %q", result.Error)
	}
}

func TestAnswerQuestionGenerationErrorCaptured(t *testing.T) {
	store := &stubStore{items: []retrieval.ContentItem{policyItem(0.9)}}
	svc := NewService(store, &stubLLM{err: errors.New("timeout")}, nil, 5, 0)

	result := svc.AnswerQuestion(context.Background(), "Do you encrypt data?", testOrg, Options{})
	if result.Success {
		t.Fatal("generation failure must mark the result unsuccessful")
	}
	if !strings.Contains(result.Error, "timeout") {
		t.Errorf("error should be captured inline, got %q", result.Error)
	}
}

func TestAnswerQuestionSyncFailureSwallowed(t *testing.T) {
	store := &stubStore{
		items:   []retrieval.ContentItem{policyItem(0.9)},
		syncErr: errors.New("index busy"),
	}
	svc := NewService(store, &stubLLM{answer: "We encrypt everything."}, nil, 5, 0)

	result := svc.AnswerQuestion(context.Background(), "Do you encrypt data?", testOrg, Options{})
	if !result.Success || result.Answer == "" {
		t.Fatalf("sync failure must not block generation, got %+v", result)
	}
	if atomic.LoadInt32(&store.syncCalls) != 1 {
		t.Errorf("expected one sync attempt, got %d", store.syncCalls)
	}
}

func TestAnswerQuestionSkipSync(t *testing.T) {
	store := &stubStore{items: []retrieval.ContentItem{policyItem(0.9)}}
	svc := NewService(store, &stubLLM{answer: "Answer."}, nil, 5, 0)

	svc.AnswerQuestion(context.Background(), "Do you encrypt data?", testOrg, Options{SkipSync: true})
	if atomic.LoadInt32(&store.syncCalls) != 0 {
		t.Errorf("SkipSync must suppress the embedding sync, got %d calls", store.syncCalls)
	}
}
