/*
solar.go - Solar (Jalali) calendar arithmetic

PURPOSE:
  Implements the actual conversion math behind ToSolar/ToCivil. The solar
  calendar is astronomical: the year begins on the March equinox, so leap
  years do not follow a simple fixed cycle. The implementation uses the
  standard break-year table method: within each span between break years
  the leap pattern is regular, and the table pins down where the pattern
  shifts.

MONTH LENGTHS:
  Months 1-6 have 31 days, months 7-11 have 30 days, month 12 has 29 days
  (30 in a leap year).

SUPPORTED RANGE:
  Solar years MinYear..MaxYear. ToCivil rejects years outside the range;
  conversions are exact (round-trip safe) inside it.
*/
package calendar

import "errors"

// ErrInvalidDate is the sentinel for malformed or out-of-range calendar
// input. Match with errors.Is; the concrete error is InvalidDateError.
var ErrInvalidDate = errors.New("invalid date")

// Supported solar year range.
const (
	MinYear = 1178
	MaxYear = 3177
)

// Years in which the solar leap-year pattern breaks.
var breakYears = [...]int{
	-61, 9, 38, 199, 426, 686, 756, 818, 1111, 1181, 1210,
	1635, 2060, 2097, 2192, 2262, 2324, 2394, 2456, 3178,
}

// IsLeapYear reports whether a solar year has 366 days.
func IsLeapYear(year int) bool {
	leap, _ := solarCycle(year)
	return leap == 0
}

// MonthLength returns the number of days in a solar month.
func MonthLength(year, month int) int {
	switch {
	case month >= 1 && month <= 6:
		return 31
	case month >= 7 && month <= 11:
		return 30
	case month == 12:
		if IsLeapYear(year) {
			return 30
		}
		return 29
	default:
		return 0
	}
}

// solarCycle locates a solar year inside the break-year table and returns
// (leap, march): leap is the number of years since the last leap year
// (0 means the year itself is leap), march is the civil March day on which
// the solar year begins.
func solarCycle(year int) (leap, march int) {
	gy := year + 621
	leapJ := -14
	jp := breakYears[0]

	// Walk the break table to find the span containing year.
	var jump int
	for i := 1; i < len(breakYears); i++ {
		jm := breakYears[i]
		jump = jm - jp
		if year < jm {
			break
		}
		leapJ += jump/33*8 + jump%33/4
		jp = jm
	}
	n := year - jp

	// Leap years elapsed since the epoch, on both calendars.
	leapJ += n/33*8 + (n%33+3)/4
	if jump%33 == 4 && jump-n == 4 {
		leapJ++
	}
	leapG := gy/4 - (gy/100+1)*3/4 - 150
	march = 20 + leapJ - leapG

	// Position inside the 33-year sub-cycle.
	if jump-n < 6 {
		n = n - jump + (jump+4)/33*33
	}
	leap = ((n+1)%33 - 1) % 4
	if leap == -1 {
		leap = 4
	}
	return leap, march
}

// solarToDayNumber converts a solar date to a serial day number.
func solarToDayNumber(year, month, day int) int {
	_, march := solarCycle(year)
	return civilToDayNumber(year+621, 3, march) +
		(month-1)*31 - month/7*(month-7) + day - 1
}

// dayNumberToSolar converts a serial day number back to a solar date.
func dayNumberToSolar(dn int) SolarDate {
	gy, _, _ := dayNumberToCivil(dn)
	year := gy - 621
	leap, march := solarCycle(year)
	k := dn - civilToDayNumber(gy, 3, march)

	if k >= 0 {
		if k <= 185 {
			return SolarDate{Year: year, Month: 1 + k/31, Day: k%31 + 1}
		}
		k -= 186
	} else {
		year--
		k += 179
		if leap == 1 {
			k++
		}
	}
	return SolarDate{Year: year, Month: 7 + k/30, Day: k%30 + 1}
}

// civilToDayNumber converts a civil (Gregorian) date to a serial day number.
func civilToDayNumber(gy, gm, gd int) int {
	d := (gy+(gm-8)/6+100100)*1461/4 +
		(153*((gm+9)%12)+2)/5 +
		gd - 34840408
	return d - (gy+100100+(gm-8)/6)/100*3/4 + 752
}

// dayNumberToCivil converts a serial day number to a civil date.
func dayNumberToCivil(dn int) (gy, gm, gd int) {
	j := 4*dn + 139361631
	j += (4*dn+183187720)/146097*3/4*4 - 3908
	i := j%1461/4*5 + 308
	gd = i%153/5 + 1
	gm = i/153%12 + 1
	gy = j/1461 - 100100 + (8-gm)/6
	return gy, gm, gd
}
