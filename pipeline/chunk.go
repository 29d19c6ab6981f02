package pipeline

import (
	"regexp"
	"strings"
)

// Chunk is a bounded text segment anchored on one candidate question. It is
// consumed immediately by the parser and discarded after the merge.
type Chunk struct {
	Content       string
	QuestionCount int
}

// ChunkOptions carries the size bounds that cap per-call context length.
// The question-anchored strategy emits exactly one question per chunk
// regardless of the numeric bounds; they are retained as configuration for
// alternate strategies.
type ChunkOptions struct {
	MaxChunkChars        int
	MinChunkChars        int
	MaxQuestionsPerChunk int
}

func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{
		MaxChunkChars:        4000,
		MinChunkChars:        200,
		MaxQuestionsPerChunk: 1,
	}
}

// fallbackCharsPerQuestion estimates how much text one question plus its
// answer typically occupies when no question-like line can be found.
const fallbackCharsPerQuestion = 1200

// questionRule is one entry of the ordered detection ladder. Rules are
// evaluated in sequence; the first match classifies the line.
type questionRule struct {
	label   string
	pattern *regexp.Regexp
}

var questionRules = []questionRule{
	{"question-mark", regexp.MustCompile(`[?？]\s*$`)},
	{"explicit-prefix", regexp.MustCompile(`(?i)^\s*(?:\d+[.)]\s*)?q(?:uestion)?\s*\d*\s*[:.)\-]`)},
	{"interrogative-lead", regexp.MustCompile(`(?i)^\s*(?:what|why|how|when|where|is|are|does|do|can|will|should|list|describe|explain)\b`)},
}

// isQuestionLike reports whether the line matches any detection rule and the
// label of the matching rule.
func isQuestionLike(line string) (bool, string) {
	for _, rule := range questionRules {
		if rule.pattern.MatchString(line) {
			return true, rule.label
		}
	}
	return false, ""
}

// ChunkText splits extracted text into segments, each anchored on one
// candidate question together with the lines that follow it up to the next
// question. Text with no question-like line at all collapses into a single
// whole-document chunk with an estimated question count.
func ChunkText(text string, opts ChunkOptions) []Chunk {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	lines := strings.Split(trimmed, "\n")

	var (
		chunks      []Chunk
		buffer      []string
		hasQuestion bool
		sawQuestion bool
	)

	flush := func() {
		content := strings.TrimSpace(strings.Join(buffer, "\n"))
		if content != "" {
			chunks = append(chunks, Chunk{Content: content, QuestionCount: 1})
		}
		buffer = buffer[:0]
		hasQuestion = false
	}

	for _, line := range lines {
		questionLike, _ := isQuestionLike(line)

		if questionLike && hasQuestion && len(buffer) > 0 {
			flush()
		}

		// Never start a chunk with blank padding.
		if strings.TrimSpace(line) != "" || len(buffer) > 0 {
			buffer = append(buffer, line)
		}

		if questionLike {
			hasQuestion = true
			sawQuestion = true
		}
	}

	if !sawQuestion {
		return []Chunk{{Content: trimmed, QuestionCount: estimateQuestionCount(trimmed)}}
	}

	if len(buffer) > 0 {
		flush()
	}

	return chunks
}

// estimateQuestionCount guesses how many questions a document holds when the
// line heuristics found none: literal question marks first, then
// question-like lines, then a length-based floor of one.
func estimateQuestionCount(text string) int {
	count := strings.Count(text, "?") + strings.Count(text, "？")
	if count > 0 {
		return count
	}

	for _, line := range strings.Split(text, "\n") {
		if ok, _ := isQuestionLike(line); ok {
			count++
		}
	}
	if count > 0 {
		return count
	}

	estimated := len(text) / fallbackCharsPerQuestion
	if estimated < 1 {
		estimated = 1
	}
	return estimated
}
