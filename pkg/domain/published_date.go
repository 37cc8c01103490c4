package domain

import (
	"time"
)

// DatePrecision tags how much of a published date the provider supplied.
type DatePrecision int

const (
	PrecisionNone DatePrecision = iota
	PrecisionYear
	PrecisionYearMonth
	PrecisionFull
)

// PublishedDate is a possibly partial calendar date. Providers return
// year-only and year-month values, so the precision is kept explicit and
// callers choose their own truncation policy.
type PublishedDate struct {
	Precision DatePrecision
	Year      int
	Month     time.Month
	Day       int
}

// ParsePublishedDate parses provider date strings of the forms
// "2006", "2006-01" and "2006-01-02" (longer strings are cut to ten
// characters first). Unparseable input yields PrecisionNone.
func ParsePublishedDate(raw string) PublishedDate {
	switch {
	case len(raw) == 4:
		if t, err := time.Parse("2006", raw); err == nil {
			return PublishedDate{Precision: PrecisionYear, Year: t.Year()}
		}
	case len(raw) == 7:
		if t, err := time.Parse("2006-01", raw); err == nil {
			return PublishedDate{Precision: PrecisionYearMonth, Year: t.Year(), Month: t.Month()}
		}
	case len(raw) >= 10:
		if t, err := time.Parse("2006-01-02", raw[:10]); err == nil {
			return PublishedDate{Precision: PrecisionFull, Year: t.Year(), Month: t.Month(), Day: t.Day()}
		}
	}
	return PublishedDate{}
}

// Truncated resolves the partial date to a full calendar date, filling a
// missing month or day with the first. The second return is false when no
// date was supplied at all.
func (d PublishedDate) Truncated() (time.Time, bool) {
	switch d.Precision {
	case PrecisionYear:
		return time.Date(d.Year, time.January, 1, 0, 0, 0, 0, time.UTC), true
	case PrecisionYearMonth:
		return time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC), true
	case PrecisionFull:
		return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC), true
	default:
		return time.Time{}, false
	}
}
