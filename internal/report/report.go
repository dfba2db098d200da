// Package report writes combined quote tables as semicolon separated text.
package report

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ahmethakanbesel/cotahist/internal/quote"
	"github.com/ahmethakanbesel/cotahist/internal/table"
)

const (
	// DateHeader is the first header field.
	DateHeader = "YYYY-MM-DD"
	separator  = ';'
)

// Emit writes t to w. Every header column is followed by two separators, so
// the header reads "YYYY-MM-DD;PETR4;;VALE3;;" while data rows carry a single
// separator between fields. A table without columns gets the bare date
// header. Null cells are written empty.
func Emit(w io.Writer, t *table.Combined) error {
	bw := bufio.NewWriter(w)

	var header strings.Builder
	header.WriteString(DateHeader)
	if cols := t.Columns(); len(cols) > 0 {
		header.WriteByte(separator)
		for _, col := range cols {
			header.WriteString(col)
			header.WriteByte(separator)
			header.WriteByte(separator)
		}
	}
	header.WriteByte('\n')
	if _, err := bw.WriteString(header.String()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	cw := csv.NewWriter(bw)
	cw.Comma = separator
	for _, row := range t.Rows() {
		fields := make([]string, 0, len(row.Cells)+1)
		fields = append(fields, quote.FormatKey(row.Date))
		for _, c := range row.Cells {
			fields = append(fields, c.Value)
		}
		if err := cw.Write(fields); err != nil {
			return fmt.Errorf("write row %s: %w", row.Date, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return bw.Flush()
}

// Line is one data row read back from an emitted report.
type Line struct {
	Date   string // YYYY-MM-DD
	Values []string
}

// Document is an emitted report read back into memory.
type Document struct {
	Columns []string
	Lines   []Line
}

// Read parses the output of Emit. The header's empty trailing fields are
// dropped.
func Read(r io.Reader) (*Document, error) {
	cr := csv.NewReader(r)
	cr.Comma = separator
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("report is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 0 || header[0] != DateHeader {
		return nil, fmt.Errorf("unexpected header %q", strings.Join(header, string(separator)))
	}

	doc := &Document{}
	for _, h := range header[1:] {
		if h != "" {
			doc.Columns = append(doc.Columns, h)
		}
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(rec)-1 != len(doc.Columns) {
			return nil, fmt.Errorf("row %s has %d values, want %d", rec[0], len(rec)-1, len(doc.Columns))
		}
		doc.Lines = append(doc.Lines, Line{Date: rec[0], Values: rec[1:]})
	}
	return doc, nil
}
