/*
Package calendar provides the bidirectional solar/civil date converter.

PURPOSE:
  All due-date arithmetic in the system runs on the Persian solar
  calendar, while the canonical stored representation is a civil
  (Gregorian) date. This package converts between the two, steps dates
  by solar months, and formats dates for display.

KEY CONCEPTS IN THIS FILE (calendar.go):
  - Date: A civil date at day granularity (used as the stored form)
  - SolarDate: The derived solar year/month/day view
  - Weekday naming: The solar week starts on Saturday

DESIGN PRINCIPLES:
  1. Determinism: No function reads the system clock; "today" is always
     an explicit input to callers of this package.
  2. Round-trip: ToSolar(ToCivil(y,m,d)) == (y,m,d) for every valid date.
  3. Clamping: Adding months clamps the day to the target month's length
     instead of overflowing into the following month.

SEE ALSO:
  - solar.go: The conversion arithmetic and leap-year rule
*/
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// DATE - Civil date at day granularity
// =============================================================================

// Date is a civil (Gregorian) calendar date. The time-of-day component is
// always midnight UTC; comparisons operate at day granularity.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary timestamp to a civil date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Comparison
func (d Date) Before(other Date) bool { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool  { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool  { return d.normalize().After(other.normalize()) }
func (d Date) IsZero() bool           { return d.Time.IsZero() }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.normalize().AddDate(0, 0, n)} }

// DaysBetween returns the whole number of days from one date to another.
// Negative when to precedes from.
func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.normalize().Weekday() }

func (d Date) String() string { return d.normalize().Format("2006-01-02") }

// =============================================================================
// SOLAR DATE - Derived view, never stored
// =============================================================================

// SolarDate is a date in the Persian solar calendar.
type SolarDate struct {
	Year  int
	Month int // 1..12
	Day   int // 1..MonthLength(Year, Month)
}

// String formats a solar date as YYYY/MM/DD, the boundary format used
// everywhere dates cross into or out of the engine.
func (s SolarDate) String() string {
	return fmt.Sprintf("%04d/%02d/%02d", s.Year, s.Month, s.Day)
}

var solarMonthNames = [12]string{
	"فروردین", "اردیبهشت", "خرداد", "تیر", "مرداد", "شهریور",
	"مهر", "آبان", "آذر", "دی", "بهمن", "اسفند",
}

// Solar week: Saturday is day 0, Friday is day 6.
var solarWeekdayNames = [7]string{
	"شنبه", "یکشنبه", "دوشنبه", "سه‌شنبه", "چهارشنبه", "پنج‌شنبه", "جمعه",
}

// MonthName returns the solar month name for month 1..12, or "" otherwise.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return solarMonthNames[month-1]
}

// WeekdayName returns the solar weekday name of a civil date. The solar
// week starts on Saturday, so the civil weekday is re-indexed before lookup.
func WeekdayName(d Date) string {
	// time.Weekday: Sunday=0 .. Saturday=6. Solar index: Saturday=0 .. Friday=6.
	return solarWeekdayNames[(int(d.Weekday())+1)%7]
}

// =============================================================================
// CONVERSION API
// =============================================================================

// ToSolar converts a civil date to its solar calendar view.
func ToSolar(d Date) SolarDate {
	return dayNumberToSolar(civilToDayNumber(d.Year(), int(d.Month()), d.Day()))
}

// ToCivil converts a solar (year, month, day) triple to the civil date it
// denotes. Fails with ErrInvalidDate when the triple is out of range.
func ToCivil(year, month, day int) (Date, error) {
	if year < MinYear || year > MaxYear {
		return Date{}, &InvalidDateError{Year: year, Month: month, Day: day, Reason: "year out of supported range"}
	}
	if month < 1 || month > 12 {
		return Date{}, &InvalidDateError{Year: year, Month: month, Day: day, Reason: "month out of range"}
	}
	if day < 1 || day > MonthLength(year, month) {
		return Date{}, &InvalidDateError{Year: year, Month: month, Day: day, Reason: "day out of range"}
	}
	gy, gm, gd := dayNumberToCivil(solarToDayNumber(year, month, day))
	return NewDate(gy, time.Month(gm), gd), nil
}

// AddMonths steps a civil date by n solar months (n may be zero or
// negative). The day of month is clamped to the target month's length, so
// stepping never overflows into the following month.
func AddMonths(d Date, n int) Date {
	s := ToSolar(d)
	months := s.Year*12 + (s.Month - 1) + n
	year := months / 12
	month := months%12 + 1
	if month < 1 { // Go's % keeps the dividend's sign
		month += 12
		year--
	}
	day := s.Day
	if max := MonthLength(year, month); day > max {
		day = max
	}
	out, err := ToCivil(year, month, day)
	if err != nil {
		// Only reachable by stepping past the supported year range.
		return Date{}
	}
	return out
}

// =============================================================================
// BOUNDARY PARSING / FORMATTING
// =============================================================================

// ParseSolar parses a YYYY/MM/DD solar date string into a civil date.
func ParseSolar(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return Date{}, &InvalidDateError{Reason: fmt.Sprintf("malformed solar date %q", s)}
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, &InvalidDateError{Reason: fmt.Sprintf("malformed solar date %q", s)}
		}
		nums[i] = n
	}
	return ToCivil(nums[0], nums[1], nums[2])
}

// FormatSolar renders a civil date as a YYYY/MM/DD solar string.
func FormatSolar(d Date) string {
	if d.IsZero() {
		return ""
	}
	return ToSolar(d).String()
}

// FormatSolarWithMonthName renders e.g. "20 آذر 1403".
func FormatSolarWithMonthName(d Date) string {
	if d.IsZero() {
		return ""
	}
	s := ToSolar(d)
	return fmt.Sprintf("%d %s %d", s.Day, MonthName(s.Month), s.Year)
}

// FormatSolarFull renders e.g. "سه‌شنبه 20 آذر 1403".
func FormatSolarFull(d Date) string {
	if d.IsZero() {
		return ""
	}
	return WeekdayName(d) + " " + FormatSolarWithMonthName(d)
}

// =============================================================================
// ERRORS
// =============================================================================

// InvalidDateError reports a malformed or out-of-range calendar input.
type InvalidDateError struct {
	Year, Month, Day int
	Reason           string
}

func (e *InvalidDateError) Error() string {
	if e.Year == 0 && e.Month == 0 && e.Day == 0 {
		return "invalid date: " + e.Reason
	}
	return fmt.Sprintf("invalid date %04d/%02d/%02d: %s", e.Year, e.Month, e.Day, e.Reason)
}

func (e *InvalidDateError) Unwrap() error { return ErrInvalidDate }
