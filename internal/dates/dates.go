// Package dates implements the packed integer date encoding used by the
// Things 3 store. A packed value carries the year in the high 16 bits and a
// zero-indexed day-of-year times 128 in the low 16 bits; the factor of 128
// reserves the low seven bits, which the host never appears to use.
package dates

import (
	"fmt"
	"time"
)

const (
	yearShift = 16
	dayMask   = 0xFFFF
	dayStride = 128
)

// Date is a pure calendar date. It carries no time of day and no zone;
// decoded packed values represent dates, not instants.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New returns the given calendar date, normalized (Feb 30 becomes Mar 1/2).
func New(year int, month time.Month, day int) Date {
	return fromTimeValue(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime returns the calendar date of t in t's own location. Deriving
// "today" from a local instant must use the caller's local midnight, so the
// location is deliberately not forced to UTC here.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func fromTimeValue(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Parse reads a YYYY-MM-DD string.
func Parse(s string) (Date, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return fromTimeValue(t), nil
}

// Time returns midnight UTC of the date. Used only for calendar arithmetic.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n calendar days later (earlier when negative).
func (d Date) AddDays(n int) Date {
	return fromTimeValue(d.Time().AddDate(0, 0, n))
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Before reports whether d is earlier than o.
func (d Date) Before(o Date) bool {
	return d.Time().Before(o.Time())
}

// MarshalJSON renders the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON reads a YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("invalid date json %s", string(b))
	}
	parsed, err := Parse(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Decode converts a packed store value to a calendar date. Zero means
// "not set" in the host convention and yields ok=false, never the epoch.
//
// The day-of-year is added to January 1 of the extracted year with plain
// calendar arithmetic, so values past the end of the year roll into the
// next one. Implausible years are returned as-is: the host encoder is not
// fully documented, so callers decide whether to trust odd values.
func Decode(packed int64) (Date, bool) {
	if packed == 0 {
		return Date{}, false
	}
	year := int(packed >> yearShift)
	dayOfYear := int(packed&dayMask) / dayStride
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return fromTimeValue(jan1.AddDate(0, 0, dayOfYear)), true
}

// Codec packs calendar dates into the store encoding.
//
// OffsetDays exists because the host has been observed writing values
// shifted by 33 days in some fields and not in others; which variant is
// authoritative is unconfirmed, so the offset is configurable and defaults
// to zero. Decode deliberately applies no offset: both sides of any range
// comparison go through Encode, so a nonzero offset cancels out there.
type Codec struct {
	OffsetDays int
}

// Encode packs d as (year<<16) | (dayOfYear*128), plus OffsetDays days.
// Day-of-year is the whole-day distance from January 1 of d's own year.
func (c Codec) Encode(d Date) int64 {
	jan1 := time.Date(d.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	dayOfYear := int(d.Time().Sub(jan1).Hours() / 24)
	return int64(d.Year)<<yearShift | int64((dayOfYear+c.OffsetDays)*dayStride)
}

// DayBounds returns the half-open packed interval [start, end) covering
// exactly the calendar day d. Matching on the interval rather than a single
// value keeps the reserved low bits from excluding rows.
func (c Codec) DayBounds(d Date) (int64, int64) {
	return c.Encode(d), c.Encode(d.AddDays(1))
}
