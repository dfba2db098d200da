// Package quote holds the value types shared by the COTAHIST pipeline: the
// requested date window and the per-line quote records.
package quote

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the layout of dates on the command line and in reports.
	DateLayout = "2006-01-02"
	// KeyLayout is the layout of trade dates inside the archives.
	KeyLayout = "20060102"
)

// Record is a single parsed archive line.
type Record struct {
	Date   string // YYYYMMDD
	Ticker string
	Price  string
}

// Decimal returns the record price as a decimal.
func (r Record) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(r.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price %q for %s on %s: %w", r.Price, r.Ticker, r.Date, err)
	}
	return d, nil
}

// FormatKey rewrites a YYYYMMDD key as YYYY-MM-DD. No calendar check is made.
func FormatKey(key string) string {
	if len(key) != 8 {
		return key
	}
	return key[0:4] + "-" + key[4:6] + "-" + key[6:8]
}
