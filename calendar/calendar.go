package calendar

import (
	"fmt"
	"strings"
	"time"
)

// ID identifies a holiday calendar.
type ID string

const (
	// None treats every day as a business day.
	None ID = ""
	// Weekend only excludes Saturdays and Sundays.
	Weekend ID = "WEEKEND"
	// TARGET is the euro settlement calendar.
	TARGET ID = "TARGET"
	// USD follows the US government securities holiday schedule.
	USD ID = "USD"
)

// BusinessDayConvention decides where a payment date that is not a business day moves.
type BusinessDayConvention string

const (
	Unadjusted        BusinessDayConvention = ""
	Following         BusinessDayConvention = "FOLLOWING"
	ModifiedFollowing BusinessDayConvention = "MODIFIED_FOLLOWING"
	Preceding         BusinessDayConvention = "PRECEDING"
)

// ParseID accepts calendar names case-insensitively; "" and "NONE" map to None.
func ParseID(s string) (ID, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NONE":
		return None, nil
	case "WEEKEND":
		return Weekend, nil
	case "TARGET", "EUR":
		return TARGET, nil
	case "USD", "US":
		return USD, nil
	}
	return None, fmt.Errorf("unknown calendar %q", s)
}

// ParseBusinessDayConvention accepts the usual spellings of the supported conventions.
func ParseBusinessDayConvention(s string) (BusinessDayConvention, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")) {
	case "", "UNADJUSTED", "NONE":
		return Unadjusted, nil
	case "FOLLOWING", "F":
		return Following, nil
	case "MODIFIED_FOLLOWING", "MODIFIEDFOLLOWING", "MF":
		return ModifiedFollowing, nil
	case "PRECEDING", "P":
		return Preceding, nil
	}
	return Unadjusted, fmt.Errorf("unknown business day convention %q", s)
}

// IsBusinessDay checks weekends and holiday rules.
func IsBusinessDay(cal ID, t time.Time) bool {
	if cal == None {
		return true
	}
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust moves t to a business day under bdc.
func Adjust(cal ID, t time.Time, bdc BusinessDayConvention) time.Time {
	switch bdc {
	case Following:
		return AdjustFollowing(cal, t)
	case ModifiedFollowing:
		return AdjustModifiedFollowing(cal, t)
	case Preceding:
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
		return t
	}
	return t
}

// AdjustModifiedFollowing applies Modified Following.
func AdjustModifiedFollowing(cal ID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func AdjustFollowing(cal ID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal ID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}
