// Package parser turns uploaded LAIA spreadsheets (CSV/TSV or XLSX) into ParsedRow values.
// Header cells are mapped onto canonical field names by the sniffer and rows are decoded
// with gocsv, so both formats share one decoding path.
package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/repository"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/sniffer"
)

var (
	ErrUnrecognizedFormat = errors.New("unrecognized file format")
	ErrMissingHeader      = errors.New("no header row matches the expected columns")
	ErrNoDataRows         = errors.New("file has no data rows after the header")
	ErrFileTooLarge       = errors.New("file exceeds the maximum upload size")
	ErrTooManyRows        = errors.New("file exceeds the maximum number of rows")
)

// ParseError is the fatal error returned by Parse. Err is one of the sentinel errors above.
type ParseError struct {
	Row     int    // source line, 0 when the error is file-wide
	Column  string // offending column(s), if any
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	switch {
	case e.Row > 0 && e.Column != "":
		return fmt.Sprintf("row %d, column %s: %s", e.Row, e.Column, e.Message)
	case e.Column != "":
		return fmt.Sprintf("column %s: %s", e.Column, e.Message)
	case e.Row > 0:
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	default:
		return e.Message
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// Config bounds the size of accepted uploads. Zero disables a limit.
type Config struct {
	MaxFileBytes int64
	MaxRows      int
}

// DefaultConfig returns a parser config with sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxFileBytes: 10 << 20,
		MaxRows:      5000,
	}
}

// Parser decodes LAIA uploads. It is stateless and safe for concurrent use.
type Parser struct {
	config  Config
	matcher *sniffer.HeaderMatcher
}

// New creates a new parser with the given configuration
func New(config Config) *Parser {
	return &Parser{
		config:  config,
		matcher: sniffer.DefaultHeaderMatcher(),
	}
}

// laiaRecord is the canonical string form of a row. Tags are the canonical field
// names the header row is rewritten to before decoding.
type laiaRecord struct {
	SectorCode          string `csv:"sectorCode"`
	SectorName          string `csv:"sectorName"`
	Activity            string `csv:"activity"`
	EnvironmentalAspect string `csv:"environmentalAspect"`
	EnvironmentalImpact string `csv:"environmentalImpact"`
	Category            string `csv:"category"`
	Significance        string `csv:"significance"`
	Condition           string `csv:"condition"`
	Incidence           string `csv:"incidence"`
	Frequency           string `csv:"frequency"`
	Severity            string `csv:"severity"`
	Controls            string `csv:"controls"`
	LegalRequirement    string `csv:"legalRequirement"`
	Notes               string `csv:"notes"`
}

// table is a decoded sheet: cells, the 1-based source line each row starts on, and
// its 1-based row slot. Slots differ from lines when a quoted CSV cell spans lines.
type table struct {
	rows  [][]string
	lines []int
	slots []int
}

// Parse decodes an upload into rows in file order
func (p *Parser) Parse(fileName string, data []byte) ([]repository.ParsedRow, error) {
	if p.config.MaxFileBytes > 0 && int64(len(data)) > p.config.MaxFileBytes {
		return nil, &ParseError{
			Message: fmt.Sprintf("file is %d bytes, the limit is %d", len(data), p.config.MaxFileBytes),
			Err:     ErrFileTooLarge,
		}
	}

	var (
		tbl *table
		err error
	)
	switch format := sniffer.DetectFormat(fileName, data); format {
	case sniffer.FormatCSV:
		tbl, err = p.readCSV(data)
	case sniffer.FormatXLSX:
		tbl, err = readXLSX(data)
	case sniffer.FormatXLS:
		return nil, &ParseError{Message: "legacy .xls workbooks are not supported, save as .xlsx or .csv", Err: ErrUnrecognizedFormat}
	default:
		return nil, &ParseError{Message: fmt.Sprintf("%s is not a CSV or XLSX file", fileName), Err: ErrUnrecognizedFormat}
	}
	if err != nil {
		return nil, err
	}

	headerIdx, fields, err := sniffer.FindHeaderRow(tbl.rows, p.matcher)
	if err != nil {
		return nil, p.missingHeaderError(tbl)
	}
	headerLine := tbl.lines[headerIdx]
	headerSlot := tbl.slots[headerIdx]

	canonical := [][]string{canonicalHeader(fields)}
	var positions [][2]int // {rowNumber, sourceLine}
	for i := headerIdx + 1; i < len(tbl.rows); i++ {
		if isBlank(tbl.rows[i]) {
			continue
		}
		if p.config.MaxRows > 0 && len(positions) >= p.config.MaxRows {
			return nil, &ParseError{
				Row:     tbl.lines[i],
				Message: fmt.Sprintf("more than %d data rows", p.config.MaxRows),
				Err:     ErrTooManyRows,
			}
		}
		canonical = append(canonical, pad(tbl.rows[i], len(fields)))
		positions = append(positions, [2]int{tbl.slots[i] - headerSlot, tbl.lines[i]})
	}
	if len(positions) == 0 {
		return nil, &ParseError{Row: headerLine, Message: "no data rows after the header", Err: ErrNoDataRows}
	}

	var records []laiaRecord
	if err := gocsv.UnmarshalCSV(&rowsReader{rows: canonical}, &records); err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("failed to decode rows: %v", err), Err: ErrUnrecognizedFormat}
	}

	out := make([]repository.ParsedRow, len(records))
	for i, rec := range records {
		out[i] = toParsedRow(rec, positions[i][0], positions[i][1])
	}
	return out, nil
}

func (p *Parser) missingHeaderError(tbl *table) error {
	limit := len(tbl.rows)
	if limit > sniffer.MaxHeaderScan {
		limit = sniffer.MaxHeaderScan
	}

	// report against the row that came closest to a header
	bestRow, bestMissing := 0, p.matcher.Required()
	for i := 0; i < limit; i++ {
		missing := p.matcher.Missing(p.matcher.MapHeaders(tbl.rows[i]))
		if len(missing) < len(bestMissing) {
			bestRow, bestMissing = tbl.lines[i], missing
		}
	}

	return &ParseError{
		Row:     bestRow,
		Column:  strings.Join(bestMissing, ", "),
		Message: fmt.Sprintf("missing required columns in the first %d rows", sniffer.MaxHeaderScan),
		Err:     ErrMissingHeader,
	}
}

// canonicalHeader names unmapped columns uniquely so gocsv ignores them
func canonicalHeader(fields []string) []string {
	header := make([]string, len(fields))
	for i, f := range fields {
		if f == "" {
			f = fmt.Sprintf("_unmapped_%d", i)
		}
		header[i] = f
	}
	return header
}

func toParsedRow(rec laiaRecord, rowNumber, sourceLine int) repository.ParsedRow {
	row := repository.ParsedRow{
		RowNumber:           rowNumber,
		SourceLine:          sourceLine,
		SectorCode:          normalizer.CleanText(rec.SectorCode),
		SectorName:          normalizer.CleanText(rec.SectorName),
		Activity:            normalizer.CleanText(rec.Activity),
		EnvironmentalAspect: normalizer.CleanText(rec.EnvironmentalAspect),
		EnvironmentalImpact: normalizer.CleanText(rec.EnvironmentalImpact),
		Category:            normalizer.ParseCategory(rec.Category),
		Significance:        normalizer.ParseSignificance(rec.Significance),
		Condition:           normalizer.ParseCondition(rec.Condition),
		Incidence:           normalizer.ParseIncidence(rec.Incidence),
		Controls:            normalizer.CleanText(rec.Controls),
		LegalRequirement:    normalizer.CleanText(rec.LegalRequirement),
		Notes:               normalizer.CleanText(rec.Notes),
	}

	var err error
	if row.Frequency, err = normalizer.ParseScore(rec.Frequency); err != nil {
		row.Malformed = append(row.Malformed, sniffer.FieldFrequency)
	}
	if row.Severity, err = normalizer.ParseScore(rec.Severity); err != nil {
		row.Malformed = append(row.Malformed, sniffer.FieldSeverity)
	}
	return row
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if normalizer.CleanText(c) != "" {
			return false
		}
	}
	return true
}

func pad(cells []string, n int) []string {
	if len(cells) >= n {
		return cells[:n]
	}
	out := make([]string, n)
	copy(out, cells)
	return out
}

// rowsReader feeds already-split rows to gocsv
type rowsReader struct {
	rows [][]string
	pos  int
}

func (r *rowsReader) Read() ([]string, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}

func (r *rowsReader) ReadAll() ([][]string, error) {
	rest := r.rows[r.pos:]
	r.pos = len(r.rows)
	return rest, nil
}
