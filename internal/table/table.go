// Package table pivots quote records into date-by-ticker tables.
//
// A Yearly table only has columns for tickers that appear in that year's
// archive. When years are combined, a year that lacks a column contributes
// null cells for it instead of a missing key, so every combined row has the
// same shape.
package table

import (
	"iter"
	"log/slog"
	"slices"

	"github.com/ahmethakanbesel/cotahist/internal/quote"
)

// Cell is a nullable price.
type Cell struct {
	Value string
	Valid bool
}

// Row is one date with one cell per table column.
type Row struct {
	Date  string // YYYYMMDD
	Cells []Cell
}

// Yearly is the pivoted table for a single archive year.
type Yearly struct {
	Year    int
	Columns []string
	Rows    []Row
}

// Build filters records to the requested tickers, pivots them to one row per
// date and keeps the dates inside r. Tickers missing from the records get no
// column. The first quote seen for a (date, ticker) pair wins.
func Build(records iter.Seq2[quote.Record, error], tickers []string, r quote.DateRange) (Yearly, error) {
	wanted := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		wanted[t] = true
	}

	from, to := r.Keys()
	found := make(map[string]bool)
	byDate := make(map[string]map[string]string)
	for rec, err := range records {
		if err != nil {
			return Yearly{}, err
		}
		if !wanted[rec.Ticker] {
			continue
		}
		found[rec.Ticker] = true
		if rec.Date < from || rec.Date > to {
			continue
		}

		prices, ok := byDate[rec.Date]
		if !ok {
			prices = make(map[string]string)
			byDate[rec.Date] = prices
		}
		if prev, dup := prices[rec.Ticker]; dup {
			slog.Warn("duplicate quote ignored", "date", rec.Date, "ticker", rec.Ticker,
				"kept", prev, "ignored", rec.Price)
			continue
		}
		prices[rec.Ticker] = rec.Price
	}

	columns := make([]string, 0, len(found))
	for t := range found {
		columns = append(columns, t)
	}
	slices.Sort(columns)

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	slices.Sort(dates)

	rows := make([]Row, 0, len(dates))
	for _, d := range dates {
		prices := byDate[d]
		cells := make([]Cell, len(columns))
		for i, c := range columns {
			v, ok := prices[c]
			cells[i] = Cell{Value: v, Valid: ok}
		}
		rows = append(rows, Row{Date: d, Cells: cells})
	}

	return Yearly{Year: r.Initial.Year(), Columns: columns, Rows: rows}, nil
}

// Combined is the ordered concatenation of yearly tables.
type Combined struct {
	Years []Yearly
}

// Append adds the next year. Years must be appended in ascending order.
func (c *Combined) Append(y Yearly) {
	c.Years = append(c.Years, y)
}

// Columns returns the sorted union of every year's columns.
func (c *Combined) Columns() []string {
	var cols []string
	for _, y := range c.Years {
		for _, col := range y.Columns {
			if !slices.Contains(cols, col) {
				cols = append(cols, col)
			}
		}
	}
	slices.Sort(cols)
	return cols
}

// Rows returns every row in year order, projected onto Columns.
func (c *Combined) Rows() []Row {
	cols := c.Columns()
	var rows []Row
	for _, y := range c.Years {
		idx := make([]int, len(cols))
		for i, col := range cols {
			idx[i] = slices.Index(y.Columns, col)
		}
		for _, r := range y.Rows {
			cells := make([]Cell, len(cols))
			for i, j := range idx {
				if j >= 0 {
					cells[i] = r.Cells[j]
				}
			}
			rows = append(rows, Row{Date: r.Date, Cells: cells})
		}
	}
	return rows
}

// Len returns the total number of rows.
func (c *Combined) Len() int {
	n := 0
	for _, y := range c.Years {
		n += len(y.Rows)
	}
	return n
}
