package calendar

import "time"

func isHoliday(cal ID, t time.Time) bool {
	switch cal {
	case TARGET:
		return isTARGETHoliday(t)
	case USD:
		return isUSDHoliday(t)
	}
	return false
}

func isTARGETHoliday(t time.Time) bool {
	y, m, d := t.Date()
	switch {
	case m == time.January && d == 1,
		m == time.May && d == 1,
		m == time.December && (d == 25 || d == 26):
		return true
	}
	easter := easterSunday(y)
	return sameDay(t, easter.AddDate(0, 0, -2)) || sameDay(t, easter.AddDate(0, 0, 1))
}

// isUSDHoliday covers the SIFMA bond-market closures that fall on fixed rules.
// Saturday holidays are observed the Friday before, Sunday holidays the Monday after.
func isUSDHoliday(t time.Time) bool {
	y := t.Year()
	fixed := []time.Time{
		observed(date(y, time.January, 1)),
		observed(date(y+1, time.January, 1)),
		observed(date(y, time.June, 19)),
		observed(date(y, time.July, 4)),
		observed(date(y, time.November, 11)),
		observed(date(y, time.December, 25)),
	}
	for _, h := range fixed {
		if sameDay(t, h) {
			return true
		}
	}

	floating := []time.Time{
		nthWeekday(y, time.January, time.Monday, 3),
		nthWeekday(y, time.February, time.Monday, 3),
		lastWeekday(y, time.May, time.Monday),
		nthWeekday(y, time.September, time.Monday, 1),
		nthWeekday(y, time.October, time.Monday, 2),
		nthWeekday(y, time.November, time.Thursday, 4),
		easterSunday(y).AddDate(0, 0, -2),
	}
	for _, h := range floating {
		if sameDay(t, h) {
			return true
		}
	}
	return false
}

func observed(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, -1)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	}
	return t
}

func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	first := date(year, month, 1)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+7*(n-1))
}

func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	last := date(year, month+1, 0)
	offset := (int(last.Weekday()) - int(wd) + 7) % 7
	return last.AddDate(0, 0, -offset)
}

// easterSunday uses the anonymous Gregorian algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return date(year, time.Month(month), day)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
