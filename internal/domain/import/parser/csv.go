package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"

	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/sniffer"
)

var utf8BOM = []byte("\xEF\xBB\xBF")

// readCSV decodes a delimited text upload into a table keyed by source line
func (p *Parser) readCSV(data []byte) (*table, error) {
	text, err := toUTF8(data)
	if err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("failed to decode text: %v", err), Err: ErrUnrecognizedFormat}
	}

	cfg, err := sniffer.DetectConfig(text, p.matcher)
	if err != nil {
		if errors.Is(err, sniffer.ErrEmptyFile) {
			return nil, &ParseError{Message: "file is empty", Err: ErrNoDataRows}
		}
		return nil, &ParseError{
			Message: "could not find a delimited header row",
			Err:     ErrMissingHeader,
		}
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = cfg.Delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // Allow variable fields

	tbl := &table{}
	slot, nextLine := 0, 1
	var offset int64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return nil, &ParseError{Row: csvErr.StartLine, Message: csvErr.Err.Error(), Err: ErrUnrecognizedFormat}
			}
			return nil, &ParseError{Message: err.Error(), Err: ErrUnrecognizedFormat}
		}
		line, _ := reader.FieldPos(0)
		// empty lines skipped by the reader keep a slot, line breaks inside quoted cells do not
		slot += 1 + line - nextLine
		end := reader.InputOffset()
		nextLine += bytes.Count(text[offset:end], []byte("\n"))
		offset = end

		tbl.rows = append(tbl.rows, record)
		tbl.lines = append(tbl.lines, line)
		tbl.slots = append(tbl.slots, slot)
	}
	if len(tbl.rows) == 0 {
		return nil, &ParseError{Message: "file is empty", Err: ErrNoDataRows}
	}
	return tbl, nil
}

// toUTF8 strips a UTF-8 BOM, or decodes Windows-1252 when the bytes are not valid UTF-8
func toUTF8(data []byte) ([]byte, error) {
	if sniffer.IsUTF8(data) {
		return bytes.TrimPrefix(data, utf8BOM), nil
	}
	return charmap.Windows1252.NewDecoder().Bytes(data)
}
