// Package fixtures generates realistic LAIA rows and spreadsheets for tests and demos.
package fixtures

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/repository"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/sniffer"
)

// Generator generates LAIA test data using gofakeit
type Generator struct {
	faker *gofakeit.Faker
}

// NewGenerator creates a generator with a random seed
func NewGenerator() *Generator {
	return &Generator{faker: gofakeit.New(0)}
}

// NewGeneratorWithSeed creates a generator with a specific seed for reproducibility
func NewGeneratorWithSeed(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// ============================================================================
// Rows
// ============================================================================

// Row generates one complete, valid row
func (g *Generator) Row(rowNumber int) repository.ParsedRow {
	sector := sectors[g.faker.Number(0, len(sectors)-1)]
	pair := aspects[g.faker.Number(0, len(aspects)-1)]
	freq := g.faker.Number(1, 5)
	sev := g.faker.Number(1, 5)

	return repository.ParsedRow{
		RowNumber:           rowNumber,
		SourceLine:          rowNumber + 1,
		SectorCode:          sector.code,
		SectorName:          sector.name,
		Activity:            activities[g.faker.Number(0, len(activities)-1)],
		EnvironmentalAspect: pair[0],
		EnvironmentalImpact: pair[1],
		Category:            categories[g.faker.Number(0, len(categories)-1)],
		Significance:        significances[g.faker.Number(0, len(significances)-1)],
		Condition:           conditions[g.faker.Number(0, len(conditions)-1)],
		Incidence:           incidences[g.faker.Number(0, len(incidences)-1)],
		Frequency:           &freq,
		Severity:            &sev,
		Controls:            controls[g.faker.Number(0, len(controls)-1)],
		LegalRequirement:    legal[g.faker.Number(0, len(legal)-1)],
	}
}

// Rows generates count rows numbered from 1 directly beneath a header on line 1
func (g *Generator) Rows(count int) []repository.ParsedRow {
	rows := make([]repository.ParsedRow, count)
	for i := 0; i < count; i++ {
		rows[i] = g.Row(i + 1)
	}
	return rows
}

// SectorCodes returns the sector codes the generator draws from
func SectorCodes() []string {
	codes := make([]string, len(sectors))
	for i, s := range sectors {
		codes[i] = s.code
	}
	return codes
}

// ============================================================================
// Spreadsheets
// ============================================================================

// Header returns the worksheet header row
func Header() []string {
	header := make([]string, len(sniffer.Columns))
	for i, c := range sniffer.Columns {
		header[i] = c.Header
	}
	return header
}

// Cells renders a row the way a user would type it into the worksheet
func Cells(row repository.ParsedRow) []string {
	values := map[string]string{
		sniffer.FieldSectorCode:          row.SectorCode,
		sniffer.FieldSectorName:          row.SectorName,
		sniffer.FieldActivity:            row.Activity,
		sniffer.FieldEnvironmentalAspect: row.EnvironmentalAspect,
		sniffer.FieldEnvironmentalImpact: row.EnvironmentalImpact,
		sniffer.FieldCategory:            label(categoryLabels, string(row.Category)),
		sniffer.FieldSignificance:        label(significanceLabels, string(row.Significance)),
		sniffer.FieldCondition:           label(conditionLabels, string(row.Condition)),
		sniffer.FieldIncidence:           label(incidenceLabels, string(row.Incidence)),
		sniffer.FieldFrequency:           score(row.Frequency),
		sniffer.FieldSeverity:            score(row.Severity),
		sniffer.FieldControls:            row.Controls,
		sniffer.FieldLegalRequirement:    row.LegalRequirement,
		sniffer.FieldNotes:               row.Notes,
	}

	cells := make([]string, len(sniffer.Columns))
	for i, c := range sniffer.Columns {
		cells[i] = values[c.Field]
	}
	return cells
}

// CSV renders rows as a delimited file with the standard header on line 1
func CSV(rows []repository.ParsedRow, delimiter rune) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = delimiter

	_ = w.Write(Header())
	for _, row := range rows {
		_ = w.Write(Cells(row))
	}
	w.Flush()
	return buf.Bytes()
}

// XLSX renders rows into a workbook sheet with the standard header on line 1
func XLSX(sheet string, rows []repository.ParsedRow) ([]byte, error) {
	lines := make([][]string, 0, len(rows)+1)
	lines = append(lines, Header())
	for _, row := range rows {
		lines = append(lines, Cells(row))
	}
	return Workbook(map[string][][]string{sheet: lines}, sheet)
}

// Workbook builds an XLSX file from raw sheet contents. first names the sheet
// created first; remaining sheets follow in map order, which callers must not rely on.
func Workbook(sheets map[string][][]string, first string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", first); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for name := range sheets {
		if name == first {
			continue
		}
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	for name, lines := range sheets {
		for i, line := range lines {
			if len(line) == 0 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return nil, err
			}
			values := make([]interface{}, len(line))
			for j, v := range line {
				values[j] = v
			}
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				return nil, fmt.Errorf("failed to write %s!%s: %w", name, cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func label(labels map[string]string, value string) string {
	if l, ok := labels[value]; ok {
		return l
	}
	return value
}

func score(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// ============================================================================
// Vocabulary
// ============================================================================

type sector struct{ code, name string }

var sectors = []sector{
	{"ADM", "Administrativo"},
	{"PRD", "Produção"},
	{"MNT", "Manutenção"},
	{"LOG", "Logística"},
	{"LAB", "Laboratório"},
	{"REF", "Refeitório"},
	{"ETE", "Estação de tratamento de efluentes"},
}

var activities = []string{
	"Atividades de escritório",
	"Lavagem de peças",
	"Abastecimento de empilhadeiras",
	"Pintura industrial",
	"Armazenamento de produtos químicos",
	"Preparo de refeições",
	"Calibração de equipamentos",
}

var aspects = [][2]string{
	{"Consumo de energia elétrica", "Esgotamento de recursos naturais"},
	{"Consumo de papel", "Esgotamento de recursos naturais"},
	{"Geração de resíduos perigosos", "Contaminação do solo"},
	{"Emissão de gases de combustão", "Poluição atmosférica"},
	{"Geração de efluentes líquidos", "Contaminação de corpos hídricos"},
	{"Vazamento de óleo", "Contaminação do solo e da água"},
	{"Geração de ruído", "Incômodo à vizinhança"},
	{"Consumo de água", "Redução da disponibilidade hídrica"},
}

var controls = []string{
	"Coleta seletiva",
	"Kit de contenção de derrames",
	"Manutenção preventiva",
	"Monitoramento mensal",
	"Treinamento de colaboradores",
	"",
}

var legal = []string{
	"Lei 12.305/2010",
	"Resolução CONAMA 430/2011",
	"NBR 10004",
	"",
}

var (
	categories    = []repository.Category{repository.CategoryCritical, repository.CategoryModerate, repository.CategoryLow}
	significances = []repository.Significance{repository.SignificanceSignificant, repository.SignificanceNonSignificant}
	conditions    = []repository.Condition{repository.ConditionNormal, repository.ConditionAbnormal, repository.ConditionEmergency}
	incidences    = []repository.Incidence{repository.IncidenceDirect, repository.IncidenceIndirect}
)

var (
	categoryLabels = map[string]string{
		string(repository.CategoryCritical): "Crítico",
		string(repository.CategoryModerate): "Moderado",
		string(repository.CategoryLow):      "Baixo",
	}
	significanceLabels = map[string]string{
		string(repository.SignificanceSignificant):    "Significativo",
		string(repository.SignificanceNonSignificant): "Não significativo",
	}
	conditionLabels = map[string]string{
		string(repository.ConditionNormal):    "Normal",
		string(repository.ConditionAbnormal):  "Anormal",
		string(repository.ConditionEmergency): "Emergência",
	}
	incidenceLabels = map[string]string{
		string(repository.IncidenceDirect):   "Direta",
		string(repository.IncidenceIndirect): "Indireta",
	}
)
