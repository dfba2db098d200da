// Package cotahist reads the fixed-width COTAHIST yearly quote files
// published by B3.
package cotahist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Default column indices of the fields this package extracts.
const (
	DefaultDateField   = 1
	DefaultTickerField = 3
	DefaultPriceField  = 12
)

// Span is a half-open [Start, End) character range of a fixed-width line.
type Span struct {
	Start int
	End   int
}

func (s *Span) UnmarshalJSON(b []byte) error {
	var pair []int
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("span must be a [start, end] pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("span must be a [start, end] pair, got %d values", len(pair))
	}
	s.Start, s.End = pair[0], pair[1]
	return nil
}

func (s Span) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{s.Start, s.End})
}

// Fields selects which spans hold the trade date, ticker and closing price.
type Fields struct {
	Date   int `json:"date"`
	Ticker int `json:"ticker"`
	Price  int `json:"price"`
}

// DefaultFields returns the legacy field selection.
func DefaultFields() Fields {
	return Fields{Date: DefaultDateField, Ticker: DefaultTickerField, Price: DefaultPriceField}
}

// ColumnSpec describes the layout of a COTAHIST line. Load it once and pass
// it by value; it is never mutated.
type ColumnSpec struct {
	Spans  []Span `json:"colspec"`
	Fields Fields `json:"fields"`
	// PriceScale is the number of implied decimal places of the raw price.
	// Zero passes the price text through unchanged.
	PriceScale int `json:"price_scale"`
}

// LoadColumnSpec reads a JSON column specification from path. Missing field
// indices fall back to the defaults.
func LoadColumnSpec(path string) (ColumnSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ColumnSpec{}, fmt.Errorf("read column spec: %w", err)
	}

	spec := ColumnSpec{Fields: DefaultFields()}
	if err := json.Unmarshal(data, &spec); err != nil {
		return ColumnSpec{}, fmt.Errorf("parse column spec %s: %w", path, err)
	}
	if err := spec.Validate(); err != nil {
		return ColumnSpec{}, fmt.Errorf("column spec %s: %w", path, err)
	}
	return spec, nil
}

// Validate checks that every span is well formed and that the selected
// fields exist.
func (c ColumnSpec) Validate() error {
	if len(c.Spans) == 0 {
		return errors.New("colspec is empty")
	}
	for i, s := range c.Spans {
		if s.Start < 0 || s.End <= s.Start {
			return fmt.Errorf("colspec[%d] = [%d, %d] is not a valid span", i, s.Start, s.End)
		}
	}
	for name, idx := range map[string]int{"date": c.Fields.Date, "ticker": c.Fields.Ticker, "price": c.Fields.Price} {
		if idx < 0 || idx >= len(c.Spans) {
			return fmt.Errorf("%s field index %d out of range (%d columns)", name, idx, len(c.Spans))
		}
	}
	if c.PriceScale < 0 {
		return fmt.Errorf("price_scale must be >= 0, got %d", c.PriceScale)
	}
	return nil
}

// minLength is the shortest line that still holds all three used fields.
func (c ColumnSpec) minLength() int {
	n := 0
	for _, idx := range []int{c.Fields.Date, c.Fields.Ticker, c.Fields.Price} {
		n = max(n, c.Spans[idx].End)
	}
	return n
}
