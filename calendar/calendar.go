// Package calendar provides the small proleptic-Gregorian date/ordinal
// adapter the rest of the stsd module builds day ids on top of.
//
// Everything here operates on civil (year, month, day) triples extracted
// from a time.Time; the clock portion and location are never consulted
// beyond that extraction, so callers decide what "the date" of a timestamp
// means by choosing what location they pass in (UTC, local, etc).
package calendar

import "time"

// epochOffset is the day ordinal of 1970-01-01 under the same scheme as
// Python's date.toordinal(), where 0001-01-01 is ordinal 1. It is the
// constant term of Howard Hinnant's days_from_civil algorithm, re-based so
// that ordinal(1,1,1) == 1.
const epochOffset = 719163

// DateOf returns the civil date of t (year, month, day at midnight), in t's
// own location. Two timestamps on the same calendar day in that location
// produce an equal DateOf result.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// OrdinalOf returns the proleptic Gregorian day ordinal of date's civil
// date, with 0001-01-01 as ordinal 1 (matching Python's date.toordinal()).
func OrdinalOf(date time.Time) int {
	y, m, d := date.Date()
	return int(daysFromCivil(int64(y), int(m), d)) + epochOffset
}

// DateFromOrdinal returns the UTC midnight date for the given proleptic
// Gregorian ordinal, inverting OrdinalOf.
func DateFromOrdinal(ordinal int) time.Time {
	y, m, d := civilFromDays(int64(ordinal - epochOffset))
	return time.Date(int(y), time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// daysFromCivil converts a civil date to a day count relative to
// 1970-01-01 (negative for earlier dates). This is Howard Hinnant's
// days_from_civil algorithm, valid over the full proleptic Gregorian range.
func daysFromCivil(y int64, m, d int) int64 {
	if m <= 2 {
		y--
	}

	era := y / 400
	if y < 0 {
		era = (y - 399) / 400
	}
	yoe := y - era*400
	mAdj := 9
	if m > 2 {
		mAdj = -3
	}
	doy := int64((153*(m+mAdj)+2)/5+d-1)
	doe := yoe*365 + yoe/4 - yoe/100 + doy

	return era*146097 + doe - 719468
}

// civilFromDays is the inverse of daysFromCivil.
func civilFromDays(z int64) (year int64, month, day int) {
	z += 719468
	era := z / 146097
	if z < 0 {
		era = (z - 146096) / 146097
	}
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	m := mp + 3
	if mp >= 10 {
		m = mp - 9
	}
	if m <= 2 {
		y++
	}

	return y, int(m), int(d)
}
