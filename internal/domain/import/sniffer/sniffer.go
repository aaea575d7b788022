// Package sniffer provides automatic detection of LAIA spreadsheet layouts.
// It identifies the file format, the CSV delimiter and the header row, and maps
// header cells onto canonical row fields.
package sniffer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/normalizer"
)

// MaxHeaderScan is how many leading rows are searched for the header row
const MaxHeaderScan = 20

// Format is the detected container format of an upload
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatXLSX
	FormatXLS // legacy OLE2 workbook, not supported
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	case FormatXLS:
		return "xls"
	default:
		return "unknown"
	}
}

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrNoHeadersFound   = errors.New("could not find data headers")
	ErrInvalidDelimiter = errors.New("could not detect valid delimiter")
)

var (
	zipMagic  = []byte{'P', 'K', 0x03, 0x04}
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// DetectFormat inspects the leading bytes of an upload. The file name is only
// consulted for text content.
func DetectFormat(fileName string, data []byte) Format {
	if len(data) == 0 {
		return FormatUnknown
	}
	if bytes.HasPrefix(data, zipMagic) {
		return FormatXLSX
	}
	if bytes.HasPrefix(data, ole2Magic) {
		return FormatXLS
	}
	if !looksLikeText(data) {
		return FormatUnknown
	}
	// a workbook extension on text content means a truncated or renamed file
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm", ".xls":
		return FormatUnknown
	}
	return FormatCSV
}

// looksLikeText rejects binary content: NUL bytes or a high share of control characters
// in the first 4KB. Invalid UTF-8 is allowed since Windows-1252 exports are common.
func looksLikeText(data []byte) bool {
	sample := data
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return false
	}

	control := 0
	for _, b := range sample {
		if b < 0x20 && b != '\n' && b != '\r' && b != '\t' {
			control++
		}
	}
	return control*10 < len(sample)
}

// FileConfig holds the detected layout of a delimited text upload
type FileConfig struct {
	Delimiter   rune   // The field delimiter (';', ',', '\t', '|')
	HeaderIndex int    // 0-based line of the header row
	Fingerprint string // SHA256 hash of normalized headers
}

// DetectConfig finds the delimiter and header line of a CSV/TSV upload.
// data must already be UTF-8.
func DetectConfig(data []byte, matcher *HeaderMatcher) (*FileConfig, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	lines := strings.Split(string(data), "\n")
	delimiter, headerIndex, err := findHeaderLine(lines, matcher)
	if err != nil {
		return nil, err
	}

	headers := splitLine(cleanLine(lines[headerIndex], headerIndex == 0), delimiter)
	return &FileConfig{
		Delimiter:   delimiter,
		HeaderIndex: headerIndex,
		Fingerprint: Fingerprint(headers),
	}, nil
}

// findHeaderLine locates the header line and its delimiter. Lines carrying every
// required column are preferred; otherwise the line with the most delimiters wins so
// the parser can still report a precise missing-column error.
func findHeaderLine(lines []string, matcher *HeaderMatcher) (rune, int, error) {
	fallbackIndex := -1
	fallbackDelimiter := rune(0)
	fallbackCount := 0

	for i, line := range lines {
		if i >= MaxHeaderScan {
			break
		}

		line = cleanLine(line, i == 0)
		if line == "" {
			continue
		}

		delimiter, count := detectDelimiter(line)
		if count < 1 {
			continue
		}

		if matcher.HasRequired(splitLine(line, delimiter)) {
			return delimiter, i, nil
		}

		if count > fallbackCount {
			fallbackCount = count
			fallbackDelimiter = delimiter
			fallbackIndex = i
		}
	}

	if fallbackCount >= 2 {
		return fallbackDelimiter, fallbackIndex, nil
	}
	return 0, 0, ErrInvalidDelimiter
}

// FindHeaderRow returns the index of the first row within MaxHeaderScan rows whose
// cells cover every required column, and the field name of each cell ("" when unmapped).
func FindHeaderRow(rows [][]string, matcher *HeaderMatcher) (int, []string, error) {
	for i, row := range rows {
		if i >= MaxHeaderScan {
			break
		}
		fields := matcher.MapHeaders(row)
		if matcher.covers(fields) {
			return i, fields, nil
		}
	}
	return -1, nil, ErrNoHeadersFound
}

func cleanLine(line string, firstLine bool) string {
	line = strings.TrimRight(line, "\r")
	if firstLine {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	return strings.TrimSpace(line)
}

func detectDelimiter(line string) (rune, int) {
	delimiters := []rune{';', '\t', ',', '|'}
	bestDelimiter := rune(0)
	bestCount := 0
	for _, d := range delimiters {
		count := strings.Count(line, string(d))
		if count > bestCount {
			bestCount = count
			bestDelimiter = d
		}
	}
	return bestDelimiter, bestCount
}

// splitLine is a quote-unaware split, good enough for header lines
func splitLine(line string, delimiter rune) []string {
	parts := strings.Split(line, string(delimiter))
	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), `"`)
	}
	return parts
}

// Fingerprint creates a stable hash from header names so repeated uploads of the
// same workbook layout can be recognised
func Fingerprint(headers []string) string {
	var normalized []string
	for _, h := range headers {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, normalizer.Fold(h))
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}

	joined := strings.Join(normalized, "|")
	hash := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(hash[:])
}

// IsUTF8 reports whether data is valid UTF-8 once a leading BOM is ignored
func IsUTF8(data []byte) bool {
	return utf8.Valid(bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF")))
}
