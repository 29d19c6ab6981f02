package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/trustvault/questionnaire/qa"
)

const exportSheetName = "Questionnaire"

func renderXLSX(items []qa.QuestionAnswer) ([]byte, error) {
	workbook := excelize.NewFile()
	defer workbook.Close()

	index, err := workbook.NewSheet(exportSheetName)
	if err != nil {
		return nil, fmt.Errorf("create worksheet: %w", err)
	}
	workbook.SetActiveSheet(index)
	if err := workbook.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("remove default worksheet: %w", err)
	}

	if err := workbook.SetColWidth(exportSheetName, "A", "A", 6); err != nil {
		return nil, fmt.Errorf("set index column width: %w", err)
	}
	if err := workbook.SetColWidth(exportSheetName, "B", "C", 60); err != nil {
		return nil, fmt.Errorf("set content column widths: %w", err)
	}

	header := []interface{}{"#", "Question", "Answer"}
	if err := workbook.SetSheetRow(exportSheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header row: %w", err)
	}

	for i, item := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("locate row %d: %w", i+2, err)
		}
		row := []interface{}{i + 1, item.Question, item.Answer}
		if err := workbook.SetSheetRow(exportSheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
