package domain

import (
	"testing"
	"time"
)

func TestParsePublishedDate(t *testing.T) {
	tests := []struct {
		raw       string
		precision DatePrecision
		want      string
	}{
		{"1965", PrecisionYear, "1965-01-01"},
		{"1965-08", PrecisionYearMonth, "1965-08-01"},
		{"1965-08-01", PrecisionFull, "1965-08-01"},
		{"1965-08-01T00:00:00Z", PrecisionFull, "1965-08-01"},
		{"", PrecisionNone, ""},
		{"not-a-date", PrecisionNone, ""},
		{"19", PrecisionNone, ""},
	}
	for _, tc := range tests {
		d := ParsePublishedDate(tc.raw)
		if d.Precision != tc.precision {
			t.Fatalf("ParsePublishedDate(%q) precision = %d, want %d", tc.raw, d.Precision, tc.precision)
		}
		got, ok := d.Truncated()
		if tc.want == "" {
			if ok {
				t.Fatalf("ParsePublishedDate(%q) should not resolve to a date", tc.raw)
			}
			continue
		}
		if !ok {
			t.Fatalf("ParsePublishedDate(%q) should resolve to a date", tc.raw)
		}
		if got.Format("2006-01-02") != tc.want {
			t.Fatalf("ParsePublishedDate(%q) = %s, want %s", tc.raw, got.Format("2006-01-02"), tc.want)
		}
		if got.Location() != time.UTC {
			t.Fatalf("resolved date should be UTC")
		}
	}
}

func TestCandidateISBNPrefers13(t *testing.T) {
	c := Candidate{ISBN10: "0441172717", ISBN13: "9780441172719"}
	if got := c.ISBN(); got != "9780441172719" {
		t.Fatalf("ISBN() = %q, want ISBN-13", got)
	}
	c.ISBN13 = ""
	if got := c.ISBN(); got != "0441172717" {
		t.Fatalf("ISBN() = %q, want ISBN-10 fallback", got)
	}
}
