// Package export renders a finished question/answer list into a
// downloadable document.
package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/trustvault/questionnaire/qa"
)

// Format selects the output document type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// File is the rendered document handed back to the caller as an opaque
// buffer plus its delivery metadata.
type File struct {
	Data     []byte
	MimeType string
	Filename string
}

const defaultExportName = "questionnaire"

// Render produces the export document for the requested format.
func Render(items []qa.QuestionAnswer, format Format, vendorName string) (*File, error) {
	base := sanitizeFilename(vendorName)

	switch format {
	case FormatXLSX:
		data, err := renderXLSX(items)
		if err != nil {
			return nil, err
		}
		return &File{
			Data:     data,
			MimeType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Filename: base + ".xlsx",
		}, nil
	case FormatCSV:
		return &File{
			Data:     renderCSV(items),
			MimeType: "text/csv",
			Filename: base + ".csv",
		}, nil
	case FormatPDF:
		data, err := renderPDF(items, vendorName)
		if err != nil {
			return nil, err
		}
		return &File{
			Data:     data,
			MimeType: "application/pdf",
			Filename: base + ".pdf",
		}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q: use xlsx, csv, or pdf", format)
	}
}

// sanitizeFilename strips a trailing dotted extension from the vendor name
// and replaces filesystem-hostile characters.
func sanitizeFilename(vendorName string) string {
	name := strings.TrimSpace(vendorName)
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}

	replacer := strings.NewReplacer(
		"<", "_", ">", "_", ":", "_", `"`, "_",
		"/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
	)
	name = replacer.Replace(name)

	if name == "" {
		return defaultExportName
	}
	return name
}
