package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type LLMConfig struct {
	Model       string
	VisionModel string
}

type EmbeddingsConfig struct {
	Model     string
	Dimension int
}

type PipelineConfig struct {
	// MaxChunkChars and MinChunkChars bound per-call context length for
	// alternate chunking strategies; the question-anchored chunker itself
	// emits one question per chunk.
	MaxChunkChars        int
	MinChunkChars        int
	MaxQuestionsPerChunk int
	Concurrency          int
}

type Config struct {
	PostgresDSN string

	OpenAIAPIKey  string
	OpenAIBaseURL string

	LLM        LLMConfig
	Embeddings EmbeddingsConfig
	Pipeline   PipelineConfig

	RetrievalLimit int
}

// Load reads configuration from the environment, after loading a .env file
// when one is present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		PostgresDSN:   getEnv("POSTGRES_DSN", "postgres://localhost:5432/questionnaire?sslmode=disable"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		LLM: LLMConfig{
			Model:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			VisionModel: getEnv("LLM_VISION_MODEL", "gpt-4o"),
		},
		Embeddings: EmbeddingsConfig{
			Model:     getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			Dimension: getEnvInt("EMBEDDING_DIMENSION", 1536),
		},
		Pipeline: PipelineConfig{
			MaxChunkChars:        getEnvInt("PIPELINE_MAX_CHUNK_CHARS", 4000),
			MinChunkChars:        getEnvInt("PIPELINE_MIN_CHUNK_CHARS", 200),
			MaxQuestionsPerChunk: getEnvInt("PIPELINE_MAX_QUESTIONS_PER_CHUNK", 1),
			Concurrency:          getEnvInt("PIPELINE_CONCURRENCY", 8),
		},
		RetrievalLimit: getEnvInt("RETRIEVAL_LIMIT", 5),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
