package pipeline

import (
	"strings"

	"github.com/trustvault/questionnaire/qa"
)

// normalizeQuestion produces the dedup key for a question: lowercased and
// trimmed, so reworded capitalization or stray whitespace never yields
// duplicate entries.
func normalizeQuestion(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

// Merge combines per-chunk results into one ordered, duplicate-free list.
// The first occurrence under each normalized key wins; later duplicates are
// discarded even when their answer differs.
func Merge(chunkResults [][]qa.QuestionAnswer) []qa.QuestionAnswer {
	seen := make(map[string]struct{})
	merged := make([]qa.QuestionAnswer, 0)

	for _, result := range chunkResults {
		for _, pair := range result {
			key := normalizeQuestion(pair.Question)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, pair)
		}
	}

	return merged
}
