package core

import (
	"strings"
	"time"
)

const (
	dateLayoutISO = "2006-01-02"
	dateLayoutEU  = "02/01/2006"
)

// Date is a calendar date at UTC midnight. The time of day carries no
// meaning anywhere in the system.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts the canonical YYYY-MM-DD format and, as a fallback,
// DD/MM/YYYY. The separator discriminates the two; both are normalized to
// the canonical form on output.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	layout := dateLayoutISO
	if strings.Contains(s, "/") {
		layout = dateLayoutEU
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t.UTC()}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String returns the canonical YYYY-MM-DD representation.
func (d Date) String() string {
	return d.Time.Format(dateLayoutISO)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as an int.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// DateRange is a half-open interval [Start, End).
type DateRange struct {
	Start Date
	End   Date
}

// MonthRange returns the half-open range covering one calendar month:
// the first day of the month up to but excluding the first day of the
// next month. time.Date normalizes month 12+1 into January of year+1.
func MonthRange(year, month int) (DateRange, error) {
	if month < 1 || month > 12 || year < 1 {
		return DateRange{}, ErrInvalidFilter
	}
	return DateRange{
		Start: NewDate(year, month, 1),
		End:   NewDate(year, month+1, 1),
	}, nil
}

// IsZero reports whether the range is unset, meaning no filtering.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether d falls inside the half-open interval.
func (r DateRange) Contains(d Date) bool {
	if d.Before(r.Start.Time) {
		return false
	}
	return d.Before(r.End.Time)
}
