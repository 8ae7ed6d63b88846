package core

import (
	"strings"
	"time"
)

const (
	// DateLayout is the canonical storage and response layout.
	DateLayout = "2006-01-02"
	// FormDateLayout is what the mobile forms submit.
	FormDateLayout = "02/01/2006"

	MinYear = 1900
	MaxYear = 2100
)

// Date is a calendar day without a time component.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts "dd/mm/yyyy" or "yyyy-mm-dd".
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	layout := DateLayout
	if strings.Contains(s, "/") {
		layout = FormDateLayout
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	d := Date{Time: t}
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	if y := d.Year(); y < MinYear || y > MaxYear {
		return ErrYearOutOfRange
	}
	return nil
}

// String returns the canonical yyyy-mm-dd form, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// IsEmpty returns true if the date is zero (for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}
