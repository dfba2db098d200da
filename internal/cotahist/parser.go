package cotahist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/ahmethakanbesel/cotahist/internal/quote"
)

const maxLineSize = 1 << 20

// ParseErrorKind classifies a ParseError.
type ParseErrorKind string

const (
	MalformedLine ParseErrorKind = "malformed_line"
	BadPrice      ParseErrorKind = "bad_price"
)

// ParseError reports a line that does not fit the column layout.
type ParseError struct {
	Kind   ParseErrorKind
	Line   int
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Kind, e.Detail)
}

// Parse returns the records of r in file order. The sequence is lazy and can
// be ranged over once. It stops at the first error, which is yielded with a
// zero Record. Archives are ISO-8859-1 encoded; span offsets are characters.
func Parse(r io.Reader, spec ColumnSpec) iter.Seq2[quote.Record, error] {
	return func(yield func(quote.Record, error) bool) {
		sc := bufio.NewScanner(charmap.ISO8859_1.NewDecoder().Reader(r))
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

		line := 0
		for sc.Scan() {
			line++
			text := strings.TrimRight(sc.Text(), "\r")
			if strings.TrimSpace(text) == "" {
				continue
			}

			rec, err := spec.record([]rune(text), line)
			if err != nil {
				yield(quote.Record{}, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				err = &ParseError{
					Kind:   MalformedLine,
					Line:   line + 1,
					Detail: fmt.Sprintf("longer than %d bytes", maxLineSize),
				}
			} else {
				err = fmt.Errorf("read line %d: %w", line+1, err)
			}
			yield(quote.Record{}, err)
		}
	}
}

// ParseFile is Parse over the file at path. The file is opened when
// iteration starts and closed when it ends, however it ends.
func ParseFile(path string, spec ColumnSpec) iter.Seq2[quote.Record, error] {
	return func(yield func(quote.Record, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(quote.Record{}, fmt.Errorf("open %s: %w", path, err))
			return
		}
		defer func() { _ = f.Close() }()

		for rec, err := range Parse(f, spec) {
			if err != nil {
				err = fmt.Errorf("%s: %w", path, err)
			}
			if !yield(rec, err) {
				return
			}
		}
	}
}

func (c ColumnSpec) record(line []rune, n int) (quote.Record, error) {
	if want := c.minLength(); len(line) < want {
		return quote.Record{}, &ParseError{
			Kind:   MalformedLine,
			Line:   n,
			Detail: fmt.Sprintf("length %d, want at least %d", len(line), want),
		}
	}

	rec := quote.Record{
		Date:   c.field(line, c.Fields.Date),
		Ticker: c.field(line, c.Fields.Ticker),
		Price:  c.field(line, c.Fields.Price),
	}

	if c.PriceScale > 0 && rec.Price != "" {
		d, err := decimal.NewFromString(rec.Price)
		if err != nil {
			return quote.Record{}, &ParseError{Kind: BadPrice, Line: n, Detail: fmt.Sprintf("price %q is not a number", rec.Price)}
		}
		rec.Price = d.Shift(int32(-c.PriceScale)).StringFixed(int32(c.PriceScale))
	}
	return rec, nil
}

func (c ColumnSpec) field(line []rune, idx int) string {
	s := c.Spans[idx]
	return strings.TrimSpace(string(line[s.Start:s.End]))
}
