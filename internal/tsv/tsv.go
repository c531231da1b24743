// Package tsv reads and writes the two-column tab-separated files used by the
// SALAMI "parsed" annotations: a time in seconds followed by a label.
package tsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Row is one parsed line. Line is the 1-based line number in the source.
type Row struct {
	Time  float64
	Label string
	Line  int
}

// ParseError reports a line that could not be decoded.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

// Read decodes time/label rows in file order. A row with a single column is
// accepted only when allowBare is set, in which case its label is empty.
func Read(r io.Reader, allowBare bool) ([]Row, error) {
	cr := newReader(r)

	var rows []Row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &ParseError{Line: pe.Line, Msg: pe.Err.Error()}
			}
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		if len(record) < 2 && !allowBare {
			return nil, &ParseError{Line: line, Msg: fmt.Sprintf("expected 2 columns, got %d", len(record))}
		}

		t, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			return nil, &ParseError{Line: line, Msg: fmt.Sprintf("invalid time %q", record[0])}
		}

		row := Row{Time: t, Line: line}
		if len(record) > 1 {
			row.Label = record[1]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Write encodes rows using the shortest float representation that parses
// back to the same value.
func Write(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	for _, row := range rows {
		rec := []string{strconv.FormatFloat(row.Time, 'f', -1, 64), row.Label}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
