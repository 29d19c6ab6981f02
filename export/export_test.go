package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/trustvault/questionnaire/qa"
)

var exportItems = []qa.QuestionAnswer{
	{Question: "Do you encrypt data at rest?", Answer: "Yes, with AES-256."},
	{Question: "Do you have a disaster recovery plan?", Answer: ""},
}

func TestRenderUnsupportedFormat(t *testing.T) {
	if _, err := Render(exportItems, Format("docx"), "Acme"); err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}

func TestRenderFilenameFollowsFormat(t *testing.T) {
	file, err := Render(exportItems, FormatCSV, "Acme Corp.pdf")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if file.Filename != "Acme Corp.csv" {
		t.Errorf("filename = %q, want %q", file.Filename, "Acme Corp.csv")
	}
	if file.MimeType != "text/csv" {
		t.Errorf("mime type = %q", file.MimeType)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Corp", "Acme Corp"},
		{"Acme Corp.xlsx", "Acme Corp"},
		{`Acme <Corp>: "EU"/DE`, "Acme _Corp__ _EU__DE"},
		{"", "questionnaire"},
		{"   ", "questionnaire"},
	}
	for _, tc := range tests {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderCSVQuoting(t *testing.T) {
	items := []qa.QuestionAnswer{
		{Question: `He said "hi"`, Answer: "Line one\nLine two"},
	}
	data := renderCSV(items)
	text := string(data)

	lines := strings.SplitN(text, "\n", 2)
	if lines[0] != `"#","Question","Answer"` {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(text, `"He said ""hi"""`) {
		t.Errorf("embedded quotes must be doubled, got %q", text)
	}
	if !strings.Contains(text, "\"Line one\nLine two\"") {
		t.Errorf("newlines stay inside the quoted field, got %q", text)
	}
}

func TestRenderCSVEmptyList(t *testing.T) {
	data := renderCSV(nil)
	if string(data) != `"#","Question","Answer"`+"\n" {
		t.Errorf("empty export should still carry the header, got %q", string(data))
	}
}

func TestRenderXLSXRoundTrip(t *testing.T) {
	file, err := Render(exportItems, FormatXLSX, "Acme")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	workbook, err := excelize.OpenReader(bytes.NewReader(file.Data))
	if err != nil {
		t.Fatalf("open rendered workbook: %v", err)
	}
	defer workbook.Close()

	rows, err := workbook.GetRows("Questionnaire")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != len(exportItems)+1 {
		t.Fatalf("expected %d rows, got %d", len(exportItems)+1, len(rows))
	}
	if rows[0][1] != "Question" || rows[0][2] != "Answer" {
		t.Errorf("unexpected header row: %v", rows[0])
	}
	if rows[1][1] != exportItems[0].Question || rows[1][2] != exportItems[0].Answer {
		t.Errorf("unexpected first data row: %v", rows[1])
	}
}

func TestRenderPDFPaginatesLongQuestionnaires(t *testing.T) {
	items := make([]qa.QuestionAnswer, 60)
	for i := range items {
		items[i] = qa.QuestionAnswer{
			Question: "Do you maintain documented procedures covering this control area across all environments?",
			Answer:   strings.Repeat("We maintain documented procedures reviewed annually. ", 4),
		}
	}

	file, err := Render(items, FormatPDF, "Acme")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	// One "/Type /Pages" node plus one "/Type /Page" per page.
	pages := bytes.Count(file.Data, []byte("/Type /Page")) - 1
	if pages < 2 {
		t.Errorf("60 long blocks should span multiple pages, got %d", pages)
	}
}

func TestRenderPDFProducesDocument(t *testing.T) {
	file, err := Render(exportItems, FormatPDF, "Acme Corp")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if len(file.Data) == 0 {
		t.Fatal("pdf output is empty")
	}
	if !bytes.HasPrefix(file.Data, []byte("%PDF")) {
		t.Errorf("output does not look like a pdf: % x", file.Data[:8])
	}
	if file.MimeType != "application/pdf" {
		t.Errorf("mime type = %q", file.MimeType)
	}
	if file.Filename != "Acme Corp.pdf" {
		t.Errorf("filename = %q", file.Filename)
	}
}
