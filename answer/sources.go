package answer

import (
	"strings"

	"github.com/trustvault/questionnaire/qa"
	"github.com/trustvault/questionnaire/retrieval"
)

const manualAnswerPreviewLen = 80

// sourceLabel resolves the per-item label shown in the context block, in
// priority order: policy name, questionnaire vendor+question, context Q&A,
// manual answer, knowledge-base document name, generic type name.
func sourceLabel(item retrieval.ContentItem) string {
	switch {
	case item.PolicyName != "":
		return item.PolicyName
	case item.ContentType == qa.SourceTypeQuestionnaire && item.SourceQuestion != "":
		if item.VendorName != "" {
			return item.VendorName + " questionnaire: " + item.SourceQuestion
		}
		return "Questionnaire: " + item.SourceQuestion
	case item.ContentType == qa.SourceTypeContextQA:
		return "Context Q&A"
	case item.ContentType == qa.SourceTypeManualAnswer:
		return "Manual answer"
	case item.DocumentName != "":
		return item.DocumentName
	default:
		return string(item.ContentType)
	}
}

// dedupeSources collapses retrieved chunks sharing the same underlying
// source identity into a single qa.Source, keeping the best score and
// preferring the most informative name over a generic type label.
func dedupeSources(items []retrieval.ContentItem) []qa.Source {
	byKey := make(map[string]int)
	sources := make([]qa.Source, 0, len(items))

	for _, item := range items {
		key := sourceKey(item)
		name := sourceName(item)

		if idx, ok := byKey[key]; ok {
			existing := &sources[idx]
			if item.Score > existing.Score {
				existing.Score = item.Score
			}
			if moreInformative(name, existing.SourceName, item.ContentType) {
				existing.SourceName = name
			}
			continue
		}

		byKey[key] = len(sources)
		sources = append(sources, qa.Source{
			SourceType: item.ContentType,
			SourceName: name,
			SourceID:   item.ContentID,
			Score:      item.Score,
		})
	}

	return sources
}

// sourceKey is the identity a hit is collapsed under: type plus record id,
// falling back to the natural key when the id is absent.
func sourceKey(item retrieval.ContentItem) string {
	id := item.ContentID
	if id == "" {
		switch {
		case item.PolicyName != "":
			id = item.PolicyName
		case item.ContentType == qa.SourceTypeManualAnswer && item.SourceQuestion != "":
			id = item.SourceQuestion
		case item.DocumentName != "":
			id = item.DocumentName
		}
	}
	return string(item.ContentType) + ":" + id
}

// sourceName picks the display name for a deduplicated source. Manual
// answers show a preview of their question, which dedup may later prefer
// over the generic label used in the context block.
func sourceName(item retrieval.ContentItem) string {
	switch {
	case item.PolicyName != "":
		return item.PolicyName
	case item.ContentType == qa.SourceTypeManualAnswer && item.SourceQuestion != "":
		return truncate(item.SourceQuestion, manualAnswerPreviewLen)
	case item.ContentType == qa.SourceTypeQuestionnaire && item.SourceQuestion != "":
		if item.VendorName != "" {
			return item.VendorName + ": " + truncate(item.SourceQuestion, manualAnswerPreviewLen)
		}
		return truncate(item.SourceQuestion, manualAnswerPreviewLen)
	case item.DocumentName != "":
		return item.DocumentName
	default:
		return string(item.ContentType)
	}
}

func moreInformative(candidate, current string, contentType qa.SourceType) bool {
	if candidate == "" || candidate == current {
		return false
	}
	return current == "" || current == string(contentType)
}

// truncate cuts on rune boundaries so multi-byte text is never split
// mid-character.
func truncate(text string, limit int) string {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if len(runes) <= limit {
		return trimmed
	}
	return string(runes[:limit]) + "..."
}
