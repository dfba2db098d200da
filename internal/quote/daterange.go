package quote

import (
	"fmt"
	"time"
)

// RangeErrorKind tells which bound an invalid date range violates.
type RangeErrorKind string

const (
	StartAfterEnd RangeErrorKind = "start_after_end"
	EndInFuture   RangeErrorKind = "end_in_future"
)

// InvalidRangeError is returned by Validate.
type InvalidRangeError struct {
	Kind    RangeErrorKind
	Initial time.Time
	Final   time.Time
}

func (e *InvalidRangeError) Error() string {
	if e.Kind == EndInFuture {
		return fmt.Sprintf("%s is yet to come.", e.Final.Format(DateLayout))
	}
	return fmt.Sprintf("%s should come before %s.", e.Initial.Format(DateLayout), e.Final.Format(DateLayout))
}

// DateRange is an inclusive, day-granular window. Build it with Validate.
type DateRange struct {
	Initial time.Time
	Final   time.Time
}

// Validate checks initial <= final <= today and returns the normalized range.
// Only the calendar day of each argument is considered.
func Validate(initial, final, today time.Time) (DateRange, error) {
	i, f, t := day(initial), day(final), day(today)
	if i.After(f) {
		return DateRange{}, &InvalidRangeError{Kind: StartAfterEnd, Initial: i, Final: f}
	}
	if f.After(t) {
		return DateRange{}, &InvalidRangeError{Kind: EndInFuture, Initial: i, Final: f}
	}
	return DateRange{Initial: i, Final: f}, nil
}

// ParseDate parses a YYYY-MM-DD command line date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want format %s: %w", s, DateLayout, err)
	}
	return t, nil
}

// Keys returns the range bounds as YYYYMMDD strings. Zero-padded fixed-width
// keys compare lexicographically in date order.
func (r DateRange) Keys() (from, to string) {
	return r.Initial.Format(KeyLayout), r.Final.Format(KeyLayout)
}

// Contains reports whether the YYYYMMDD key falls inside the range.
func (r DateRange) Contains(key string) bool {
	from, to := r.Keys()
	return key >= from && key <= to
}

// Years returns every calendar year touched by the range, ascending.
func (r DateRange) Years() []int {
	var years []int
	for y := r.Initial.Year(); y <= r.Final.Year(); y++ {
		years = append(years, y)
	}
	return years
}

// YearChunks splits the range at calendar year boundaries. Each chunk is the
// part of the range that falls inside one year.
func (r DateRange) YearChunks() []DateRange {
	if r.Initial.After(r.Final) {
		return nil
	}

	var chunks []DateRange
	for cur := r.Initial; !cur.After(r.Final); cur = time.Date(cur.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC) {
		end := time.Date(cur.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
		if end.After(r.Final) {
			end = r.Final
		}
		chunks = append(chunks, DateRange{Initial: cur, Final: end})
	}
	return chunks
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
