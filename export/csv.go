package export

import (
	"strconv"
	"strings"

	"github.com/trustvault/questionnaire/qa"
)

// renderCSV writes every field double-quoted, doubling embedded quote
// characters. No other escaping is applied.
func renderCSV(items []qa.QuestionAnswer) []byte {
	var sb strings.Builder

	writeRow := func(fields ...string) {
		for i, field := range fields {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteByte('"')
			sb.WriteString(strings.ReplaceAll(field, `"`, `""`))
			sb.WriteByte('"')
		}
		sb.WriteByte('\n')
	}

	writeRow("#", "Question", "Answer")
	for i, item := range items {
		writeRow(strconv.Itoa(i+1), item.Question, item.Answer)
	}

	return []byte(sb.String())
}
