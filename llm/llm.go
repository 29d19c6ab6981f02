package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/trustvault/questionnaire/config"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Attachment is a binary payload handed to a vision-capable generation call,
// typically a scanned questionnaire page or a PDF.
type Attachment struct {
	MediaType string
	Data      []byte
}

// Client abstracts the generation calls the pipeline depends on: free-form
// text, vision over a binary attachment, and schema-constrained JSON output.
type Client interface {
	GenerateText(ctx context.Context, system, user string) (string, error)
	GenerateVision(ctx context.Context, system, user string, attachment Attachment) (string, error)
	GenerateStructured(ctx context.Context, system, user, schemaName string, schema json.RawMessage) (json.RawMessage, error)
}

// Options configures the OpenAI-backed client.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
}

// NewClient builds a Client from configuration. Only the OpenAI-compatible
// provider is supported; the base URL override allows pointing at gateways
// that speak the same API.
func NewClient(cfg config.Config) (Client, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY not set")
	}
	return NewOpenAIClient(Options{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.LLM.Model,
		VisionModel: cfg.LLM.VisionModel,
	}), nil
}
