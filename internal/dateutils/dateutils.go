// Package dateutils normalizes the date encodings produced by the transaction
// sources and renders the single date convention used by the ledger.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"fjacquet/finance-etl/internal/etlerror"
)

// Date layouts understood by the pipeline
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutISOTime  = "2006-01-02T15:04:05"
	DateLayoutEuropean = "02.01.2006"
	DateLayoutUS       = "01/02/2006"

	// DateLayoutStatement parses European dates with or without zero padding.
	DateLayoutStatement = "2.1.2006"

	// DateLayoutLedger also accepts unpadded months and days, as rendered by spreadsheets.
	DateLayoutLedger = "1/2/2006"
)

// offsetSuffix matches a fixed-width numeric timezone offset such as +0200.
var offsetSuffix = regexp.MustCompile(`([+-]\d{2})(\d{2})$`)

var whitespace = regexp.MustCompile(`\s+`)

// NormalizeDate parses a source date into a calendar day.
//
// Two encodings are supported: an ISO date carrying a trailing ±HHMM offset
// (bank API) and DD.MM.YYYY, zero padding optional (PDF statements). The
// offset is dropped, never applied, so the calendar day written by the bank
// is preserved.
func NormalizeDate(raw string) (time.Time, error) {
	s := CleanDateString(raw)

	if offsetSuffix.MatchString(s) {
		trimmed := offsetSuffix.ReplaceAllString(s, "")
		for _, layout := range []string{DateLayoutISO, DateLayoutISOTime} {
			if t, err := time.Parse(layout, trimmed); err == nil {
				return CalendarDay(t), nil
			}
		}
		return time.Time{}, &etlerror.InvalidDateError{Value: raw}
	}

	t, err := time.Parse(DateLayoutStatement, s)
	if err != nil {
		return time.Time{}, &etlerror.InvalidDateError{Value: raw, Err: err}
	}
	return t, nil
}

// FormatLedgerDate renders a calendar day as MM/DD/YYYY.
func FormatLedgerDate(date time.Time) string {
	return date.Format(DateLayoutUS)
}

// ParseLedgerDate parses a persisted ledger date (M/D/YYYY or MM/DD/YYYY).
func ParseLedgerDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayoutLedger, CleanDateString(s))
	if err != nil {
		return time.Time{}, &etlerror.InvalidDateError{Value: s, Err: err}
	}
	return t, nil
}

// CalendarDay strips the time of day and location, keeping the written date.
func CalendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CleanDateString removes unwanted characters and normalizes a date string
func CleanDateString(dateStr string) string {
	dateStr = strings.TrimSpace(dateStr)
	return whitespace.ReplaceAllString(dateStr, " ")
}

// CompareDates compares two calendar days and returns:
//
//	-1 if date1 is before date2
//	 0 if date1 is equal to date2
//	 1 if date1 is after date2
func CompareDates(date1, date2 time.Time) int {
	date1 = CalendarDay(date1)
	date2 = CalendarDay(date2)

	if date1.Before(date2) {
		return -1
	} else if date1.After(date2) {
		return 1
	}
	return 0
}

// StartOfMonth returns the first day of the month for a given date
func StartOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
}

// EndOfMonth returns the last day of the month for a given date
func EndOfMonth(date time.Time) time.Time {
	return StartOfMonth(date).AddDate(0, 1, -1)
}

// PeriodLayout is the month token format, e.g. 03-2025.
const PeriodLayout = "01-2006"

// Period is a reconciliation period: one calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a MM-YYYY month token.
func ParsePeriod(token string) (Period, error) {
	t, err := time.Parse(PeriodLayout, strings.TrimSpace(token))
	if err != nil {
		return Period{}, fmt.Errorf("invalid month '%s', expected MM-YYYY: %w", token, err)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// PeriodOf returns the period containing the given date.
func PeriodOf(date time.Time) Period {
	return Period{Year: date.Year(), Month: date.Month()}
}

// LastMonth returns the calendar month before now.
func LastMonth(now time.Time) Period {
	return PeriodOf(StartOfMonth(now).AddDate(0, -1, 0))
}

// Start returns the first day of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the period.
func (p Period) End() time.Time {
	return EndOfMonth(p.Start())
}

// Contains reports whether the date falls within the period's year and month.
func (p Period) Contains(date time.Time) bool {
	return date.Year() == p.Year && date.Month() == p.Month
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

func (p Period) String() string {
	return p.Start().Format(PeriodLayout)
}
