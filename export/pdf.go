package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/trustvault/questionnaire/qa"
)

const (
	pdfBottomMargin = 20.0
	pdfLineHeight   = 6.0
	noAnswerText    = "No answer provided"
)

func renderPDF(items []qa.QuestionAnswer, vendorName string) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(true, pdfBottomMargin)
	doc.AddPage()

	title := "Security Questionnaire"
	if strings.TrimSpace(vendorName) != "" {
		title = strings.TrimSpace(vendorName)
	}

	doc.SetFont("Helvetica", "B", 16)
	doc.MultiCell(0, 8, title, "", "L", false)

	doc.SetFont("Helvetica", "", 10)
	doc.MultiCell(0, pdfLineHeight, "Generated "+time.Now().Format("January 2, 2006"), "", "L", false)
	doc.Ln(4)

	pageWidth, pageHeight := doc.GetPageSize()
	leftMargin, _, rightMargin, _ := doc.GetMargins()
	usableWidth := pageWidth - leftMargin - rightMargin

	for i, item := range items {
		answer := item.Answer
		if strings.TrimSpace(answer) == "" {
			answer = noAnswerText
		}

		question := fmt.Sprintf("Q%d: %s", i+1, item.Question)
		answerLine := fmt.Sprintf("A%d: %s", i+1, answer)

		// Measure the whole block first so a question and its answer start
		// on a fresh page instead of straddling the break.
		doc.SetFont("Helvetica", "B", 11)
		questionLines := len(doc.SplitText(question, usableWidth))
		doc.SetFont("Helvetica", "", 11)
		answerLines := len(doc.SplitText(answerLine, usableWidth))

		blockHeight := float64(questionLines+answerLines)*pdfLineHeight + 3
		if doc.GetY()+blockHeight > pageHeight-pdfBottomMargin {
			doc.AddPage()
		}

		doc.SetFont("Helvetica", "B", 11)
		doc.MultiCell(0, pdfLineHeight, question, "", "L", false)

		doc.SetFont("Helvetica", "", 11)
		doc.MultiCell(0, pdfLineHeight, answerLine, "", "L", false)
		doc.Ln(3)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("serialize pdf: %w", err)
	}
	return buf.Bytes(), nil
}
