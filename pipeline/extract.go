package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/trustvault/questionnaire/llm"
)

const visionExtractionSystemPrompt = `You are a document text extraction assistant. Extract all text from the provided document or image.
Identify question/answer pairs by locating columns or sections labeled "Question", "Q", "Answer", or "A".
A question is a sentence ending in "?" or starting with an interrogative word; match each question to the answer nearest to it.
Preserve the original order of the document. Return only the paired question and answer text.`

const visionExtractionUserPrompt = "Extract the text content of this document, pairing each question with its answer."

// Extractor converts raw file bytes plus a declared media type into a single
// plain-text representation.
type Extractor struct {
	vision llm.Client
	logger *zap.Logger
}

func NewExtractor(vision llm.Client, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{vision: vision, logger: logger}
}

// Extract dispatches on the declared media type. Extraction failures are
// fatal to the pipeline invocation and propagate with their cause intact.
func (e *Extractor) Extract(ctx context.Context, data []byte, mediaType string) (string, error) {
	mt := normalizeMediaType(mediaType)

	switch {
	case isSpreadsheetType(mt):
		return extractSpreadsheet(data)
	case mt == "text/csv" || mt == "application/csv":
		return stripBlankLines(string(data)), nil
	case strings.HasPrefix(mt, "text/"):
		return string(data), nil
	case isWordProcessingType(mt):
		return "", &UnsupportedDocumentFormatError{MediaType: mt}
	case mt == "application/pdf" || strings.HasPrefix(mt, "image/"):
		return e.extractWithVision(ctx, data, mt)
	default:
		return "", &UnsupportedMediaTypeError{MediaType: mt}
	}
}

func (e *Extractor) extractWithVision(ctx context.Context, data []byte, mediaType string) (string, error) {
	e.logger.Debug("extracting document with vision model",
		zap.String("mediaType", mediaType),
		zap.Int("bytes", len(data)))

	text, err := e.vision.GenerateVision(ctx, visionExtractionSystemPrompt, visionExtractionUserPrompt, llm.Attachment{
		MediaType: mediaType,
		Data:      data,
	})
	if err != nil {
		return "", fmt.Errorf("vision extraction: %w", err)
	}
	return text, nil
}

func extractSpreadsheet(data []byte) (string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer workbook.Close()

	var sheets []string
	for _, name := range workbook.GetSheetList() {
		rows, err := workbook.GetRows(name)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", name, err)
		}

		var lines []string
		for _, row := range rows {
			cells := make([]string, 0, len(row))
			for _, cell := range row {
				if strings.TrimSpace(cell) == "" {
					continue
				}
				cells = append(cells, cell)
			}
			if len(cells) == 0 {
				continue
			}
			lines = append(lines, strings.Join(cells, " | "))
		}
		if len(lines) == 0 {
			continue
		}
		sheets = append(sheets, fmt.Sprintf("Sheet: %s\n%s", name, strings.Join(lines, "\n")))
	}

	return strings.Join(sheets, "\n\n"), nil
}

func stripBlankLines(content string) string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func normalizeMediaType(mediaType string) string {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if idx := strings.Index(mt, ";"); idx >= 0 {
		mt = strings.TrimSpace(mt[:idx])
	}
	return mt
}

func isSpreadsheetType(mt string) bool {
	switch mt {
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel",
		"application/vnd.oasis.opendocument.spreadsheet":
		return true
	}
	return false
}

func isWordProcessingType(mt string) bool {
	switch mt {
	case "application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return true
	}
	return false
}
