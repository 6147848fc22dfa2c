package sales

import (
	"fmt"
	"strings"
	"time"
)

// Month is a calendar month, the time axis of a sales table
type Month struct {
	Year  int
	Month time.Month
}

// headerLayouts are the header spellings recognized as months, most specific first
var headerLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
	"2006-01",
	"2006/01/02",
	"2006/01",
	"2006.01",
	"Jan 2006",
	"January 2006",
	"Jan-06",
	"01-02-06",
}

// NewMonth creates a month value
func NewMonth(year int, month time.Month) Month {
	return Month{Year: year, Month: month}
}

// MonthOf truncates t to its month
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth parses the command-line form YYYY-MM
func ParseYearMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("year-month %q must look like YYYY-MM: %w", s, err)
	}
	return MonthOf(t), nil
}

// ParseHeader recognizes a spreadsheet header cell holding a month
func ParseHeader(s string) (Month, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Month{}, false
	}
	for _, layout := range headerLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthOf(t), true
		}
	}
	return Month{}, false
}

// Time returns the first day of the month in UTC
func (m Month) Time() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// String returns the YYYY-MM form
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// IsZero reports whether m is the zero month
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Before reports whether m is earlier than o
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// MarshalText encodes the month as YYYY-MM
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a YYYY-MM month
func (m *Month) UnmarshalText(text []byte) error {
	parsed, err := ParseYearMonth(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MonthsOfYear returns January through December of year
func MonthsOfYear(year int) []Month {
	months := make([]Month, 0, 12)
	for m := time.January; m <= time.December; m++ {
		months = append(months, NewMonth(year, m))
	}
	return months
}
