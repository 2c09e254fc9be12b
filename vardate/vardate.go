// Package vardate implements a calendar date that may be known only to the
// year or to the year and month.
//
// Unknown components are stored as zero and rendered as "00", so the value
// 1995-00-00 means "some day in 1995". The persisted form is always the
// fixed ten character string YYYY-MM-DD.
package vardate

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Length is the size of the persisted string form.
const Length = 10

var pattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

var (
	ErrInvalidFormat   = errors.New("must be a valid year, year-month, or year-month-day")
	ErrDayWithoutMonth = errors.New("can not specify day without a month")
)

// Date is a year, year-month or year-month-day value. Month and Day are zero
// when unknown.
type Date struct {
	Year  int
	Month int
	Day   int
}

// New builds a Date and validates it.
func New(year, month, day int) (Date, error) {
	d := Date{Year: year, Month: month, Day: day}
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

// FromTime returns the precise date of t in t's location.
func FromTime(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// Today is the precise calendar day of now.
func Today(now time.Time) Date {
	return FromTime(now)
}

// Parse reads the YYYY-MM-DD form, where MM and DD may be 00.
func Parse(text string) (Date, error) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return Date{}, ErrInvalidFormat
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	return New(year, month, day)
}

// MustParse is Parse for literals known to be valid.
func MustParse(text string) Date {
	d, err := Parse(text)
	if err != nil {
		panic(fmt.Sprintf("vardate: %q: %v", text, err))
	}
	return d
}

// Validate checks the component invariants.
func (d Date) Validate() error {
	if d.Year <= 0 || d.Year > 9999 || d.Month < 0 || d.Month > 12 || d.Day < 0 || d.Day > 31 {
		return ErrInvalidFormat
	}
	if d.Month == 0 && d.Day != 0 {
		return ErrDayWithoutMonth
	}
	if d.Month != 0 && d.Day != 0 {
		t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
		if t.Day() != d.Day {
			return ErrInvalidFormat
		}
	}
	return nil
}

// IsPrecise reports whether all three components are known.
func (d Date) IsPrecise() bool {
	return d.Year != 0 && d.Month != 0 && d.Day != 0
}

// IsZero reports whether d is the empty value.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Time substitutes 1 for unknown month and day. The result is only meant for
// arithmetic, never for display.
func (d Date) Time() time.Time {
	month, day := d.Month, d.Day
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	return time.Date(d.Year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// Ensure returns the arithmetic date of d, or the calendar day of def when d
// is nil.
func Ensure(d *Date, def time.Time) time.Time {
	if d == nil {
		return time.Date(def.Year(), def.Month(), def.Day(), 0, 0, 0, 0, time.UTC)
	}
	return d.Time()
}

// Compare orders dates component-wise with unknown parts sorting first. This
// matches the lexical order of the persisted strings.
func Compare(a, b Date) int {
	switch {
	case a.Year != b.Year:
		return sign(a.Year - b.Year)
	case a.Month != b.Month:
		return sign(a.Month - b.Month)
	default:
		return sign(a.Day - b.Day)
	}
}

// Before reports whether d sorts strictly before o.
func (d Date) Before(o Date) bool { return Compare(d, o) < 0 }

// After reports whether d sorts strictly after o.
func (d Date) After(o Date) bool { return Compare(d, o) > 0 }

// AddYears shifts a precise date by n years, clamping Feb 29.
func (d Date) AddYears(n int) Date {
	if !d.IsPrecise() {
		return Date{Year: d.Year + n, Month: d.Month, Day: d.Day}
	}
	return FromTime(addMonths(d.Time(), 12*n))
}

// GormDataType keeps the column a fixed-width string rather than a native
// date, which could not hold the zero components.
func (Date) GormDataType() string {
	return fmt.Sprintf("varchar(%d)", Length)
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	case time.Time:
		*d = FromTime(v)
		return nil
	default:
		return fmt.Errorf("vardate: cannot scan %T", src)
	}
}

func (d *Date) scanString(s string) error {
	parsed, err := Parse(s)
	if err != nil {
		return fmt.Errorf("vardate: scanning %q: %w", s, err)
	}
	*d = parsed
	return nil
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
