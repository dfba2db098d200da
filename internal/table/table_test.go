package table

import (
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmethakanbesel/cotahist/internal/quote"
)

func seq(recs ...quote.Record) iter.Seq2[quote.Record, error] {
	return func(yield func(quote.Record, error) bool) {
		for _, r := range recs {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func window(from, to string) quote.DateRange {
	i, _ := time.Parse(quote.KeyLayout, from)
	f, _ := time.Parse(quote.KeyLayout, to)
	return quote.DateRange{Initial: i, Final: f}
}

func valid(v string) Cell { return Cell{Value: v, Valid: true} }

func TestBuild(t *testing.T) {
	records := seq(
		quote.Record{Date: "20191231", Ticker: "PETR4", Price: "9.90"},
		quote.Record{Date: "20200103", Ticker: "VALE3", Price: "20.30"},
		quote.Record{Date: "20200102", Ticker: "PETR4", Price: "10.50"},
		quote.Record{Date: "20200102", Ticker: "ITUB4", Price: "30.00"},
		quote.Record{Date: "20200102", Ticker: "VALE3", Price: "20.10"},
		quote.Record{Date: "20200103", Ticker: "PETR4", Price: "10.60"},
		quote.Record{Date: "20200201", Ticker: "PETR4", Price: "11.00"},
	)

	got, err := Build(records, []string{"VALE3", "PETR4"}, window("20200101", "20200131"))
	require.NoError(t, err)

	assert.Equal(t, []string{"PETR4", "VALE3"}, got.Columns)
	assert.Equal(t, []Row{
		{Date: "20200102", Cells: []Cell{valid("10.50"), valid("20.10")}},
		{Date: "20200103", Cells: []Cell{valid("10.60"), valid("20.30")}},
	}, got.Rows)
}

func TestBuild_AbsentTickerHasNoColumn(t *testing.T) {
	records := seq(quote.Record{Date: "20200102", Ticker: "PETR4", Price: "10.50"})

	got, err := Build(records, []string{"PETR4", "MGLU3"}, window("20200101", "20201231"))
	require.NoError(t, err)
	assert.Equal(t, []string{"PETR4"}, got.Columns)
	assert.Len(t, got.Rows, 1)
}

func TestBuild_MissingQuoteIsNullCell(t *testing.T) {
	records := seq(
		quote.Record{Date: "20200102", Ticker: "PETR4", Price: "10.50"},
		quote.Record{Date: "20200102", Ticker: "VALE3", Price: "20.10"},
		quote.Record{Date: "20200103", Ticker: "PETR4", Price: "10.60"},
	)

	got, err := Build(records, []string{"PETR4", "VALE3"}, window("20200101", "20201231"))
	require.NoError(t, err)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, []Cell{valid("10.60"), {}}, got.Rows[1].Cells)
}

func TestBuild_ColumnKeptWhenOnlyOutsideWindow(t *testing.T) {
	records := seq(
		quote.Record{Date: "20200102", Ticker: "PETR4", Price: "10.50"},
		quote.Record{Date: "20200601", Ticker: "VALE3", Price: "50.00"},
	)

	got, err := Build(records, []string{"PETR4", "VALE3"}, window("20200101", "20200131"))
	require.NoError(t, err)
	assert.Equal(t, []string{"PETR4", "VALE3"}, got.Columns)
	assert.Equal(t, []Cell{valid("10.50"), {}}, got.Rows[0].Cells)
}

func TestBuild_DuplicateKeepsFirst(t *testing.T) {
	records := seq(
		quote.Record{Date: "20200102", Ticker: "PETR4", Price: "10.50"},
		quote.Record{Date: "20200102", Ticker: "PETR4", Price: "99.99"},
	)

	got, err := Build(records, []string{"PETR4"}, window("20200101", "20201231"))
	require.NoError(t, err)
	assert.Equal(t, []Cell{valid("10.50")}, got.Rows[0].Cells)
}

func TestBuild_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	records := func(yield func(quote.Record, error) bool) {
		if !yield(quote.Record{Date: "20200102", Ticker: "PETR4", Price: "10.50"}, nil) {
			return
		}
		yield(quote.Record{}, boom)
	}

	_, err := Build(records, []string{"PETR4"}, window("20200101", "20201231"))
	assert.ErrorIs(t, err, boom)
}

func TestCombined_RaggedColumns(t *testing.T) {
	var c Combined
	c.Append(Yearly{
		Year:    2019,
		Columns: []string{"PETR4"},
		Rows:    []Row{{Date: "20191230", Cells: []Cell{valid("9.80")}}},
	})
	c.Append(Yearly{
		Year:    2020,
		Columns: []string{"PETR4", "VALE3"},
		Rows: []Row{
			{Date: "20200102", Cells: []Cell{valid("10.50"), valid("20.10")}},
		},
	})

	assert.Equal(t, []string{"PETR4", "VALE3"}, c.Columns())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []Row{
		{Date: "20191230", Cells: []Cell{valid("9.80"), {}}},
		{Date: "20200102", Cells: []Cell{valid("10.50"), valid("20.10")}},
	}, c.Rows())
}

func TestCombined_Empty(t *testing.T) {
	var c Combined
	assert.Empty(t, c.Columns())
	assert.Empty(t, c.Rows())
	assert.Equal(t, 0, c.Len())
}
