package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/normalizer"
)

// preferredSheets are tried in order before falling back to the first sheet
var preferredSheets = []string{"laia", "levantamento", "aspectos", "planilha1", "sheet1"}

// readXLSX decodes the LAIA sheet of a workbook into a table keyed by source line
func readXLSX(data []byte) (*table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("failed to open Excel file: %v", err), Err: ErrUnrecognizedFormat}
	}
	defer f.Close()

	sheetName := findLAIASheet(f.GetSheetList())
	if sheetName == "" {
		return nil, &ParseError{Message: "workbook has no sheets", Err: ErrUnrecognizedFormat}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("failed to read sheet %s: %v", sheetName, err), Err: ErrUnrecognizedFormat}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Message: fmt.Sprintf("sheet %s is empty", sheetName), Err: ErrNoDataRows}
	}

	// GetRows keeps empty rows between populated ones, so the index is the visual line
	tbl := &table{rows: rows, lines: make([]int, len(rows)), slots: make([]int, len(rows))}
	for i := range rows {
		tbl.lines[i] = i + 1
		tbl.slots[i] = i + 1
	}
	return tbl, nil
}

// findLAIASheet returns the sheet holding LAIA data
func findLAIASheet(sheets []string) string {
	if len(sheets) == 0 {
		return ""
	}
	for _, preferred := range preferredSheets {
		for _, name := range sheets {
			if strings.ReplaceAll(normalizer.Fold(name), " ", "") == preferred {
				return name
			}
		}
	}
	return sheets[0]
}
