package parser

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/sniffer"
)

// TemplateSheet is the sheet name written to blank templates
const TemplateSheet = "LAIA"

var templateExample = map[string]interface{}{
	sniffer.FieldSectorCode:          "ADM",
	sniffer.FieldSectorName:          "Administrativo",
	sniffer.FieldActivity:            "Atividades de escritório",
	sniffer.FieldEnvironmentalAspect: "Consumo de papel",
	sniffer.FieldEnvironmentalImpact: "Esgotamento de recursos naturais",
	sniffer.FieldCategory:            "Baixo",
	sniffer.FieldSignificance:        "Não significativo",
	sniffer.FieldCondition:           "Normal",
	sniffer.FieldIncidence:           "Direta",
	sniffer.FieldFrequency:           3,
	sniffer.FieldSeverity:            1,
	sniffer.FieldControls:            "Impressão frente e verso",
	sniffer.FieldLegalRequirement:    "",
	sniffer.FieldNotes:               "",
}

// WriteTemplate writes an XLSX workbook with the LAIA header row and one example row
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TemplateSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	header := make([]interface{}, len(sniffer.Columns))
	example := make([]interface{}, len(sniffer.Columns))
	for i, c := range sniffer.Columns {
		header[i] = c.Header
		example[i] = templateExample[c.Field]
	}

	if err := f.SetSheetRow(TemplateSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetSheetRow(TemplateSheet, "A2", &example); err != nil {
		return fmt.Errorf("failed to write example row: %w", err)
	}

	last, err := excelize.ColumnNumberToName(len(sniffer.Columns))
	if err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(TemplateSheet, "A", last, 24); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	return nil
}
