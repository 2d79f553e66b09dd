package bond

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/fixedincome/calendar"
	"github.com/meenmo/fixedincome/daycount"
)

var (
	// ErrInvalidTerms is returned when security terms cannot produce a schedule.
	ErrInvalidTerms = errors.New("invalid terms")
	// ErrUnorderedSchedule is returned by Schedule.Validate for unsorted or duplicate dates.
	ErrUnorderedSchedule = errors.New("schedule dates must be strictly increasing")
)

// Cashflow is a single dated cash payment for a bond.
//
// Amounts are in currency units (e.g., EUR), not price-per-100.
// AccrualStart is the start of the coupon period paid on Date; it is zero
// for cashflows supplied without period information.
type Cashflow struct {
	Date         time.Time
	AccrualStart time.Time
	Coupon       decimal.Decimal
	Principal    decimal.Decimal
}

func (c Cashflow) Amount() decimal.Decimal {
	return c.Coupon.Add(c.Principal)
}

// Frequency is the number of coupon payments per year.
type Frequency int

const (
	FreqAnnual     Frequency = 1
	FreqSemiAnnual Frequency = 2
	FreqQuarterly  Frequency = 4
	FreqMonthly    Frequency = 12
)

// Months returns the coupon period length, or 0 when f does not divide a year evenly.
func (f Frequency) Months() int {
	if f <= 0 || f > 12 || 12%int(f) != 0 {
		return 0
	}
	return 12 / int(f)
}

// StubPosition chooses which end of the schedule absorbs an irregular period.
type StubPosition string

const (
	// ShortFirst rolls backward from maturity; the first period may be short.
	ShortFirst StubPosition = "SHORT_FIRST"
	// ShortLast rolls forward from issue; the last period may be short.
	ShortLast StubPosition = "SHORT_LAST"
)

// Terms are the contractual terms of a fixed-coupon security.
//
// CouponRate is a decimal (0.05 == 5%). Compounding is the convention the
// security's yield is quoted in; it does not affect the schedule.
type Terms struct {
	IssueDate    time.Time
	MaturityDate time.Time
	Face         decimal.Decimal
	CouponRate   float64
	Frequency    Frequency
	DayCount     daycount.Convention
	Compounding  daycount.Compounding
	Stub         StubPosition

	// Calendar and Adjustment roll payment dates; accrual dates stay unadjusted.
	Calendar   calendar.ID
	Adjustment calendar.BusinessDayConvention
}

// Validate reports the first reason the terms cannot generate a schedule.
func (t Terms) Validate() error {
	switch {
	case t.IssueDate.IsZero() || t.MaturityDate.IsZero():
		return fmt.Errorf("issue and maturity dates are required: %w", ErrInvalidTerms)
	case !t.MaturityDate.After(t.IssueDate):
		return fmt.Errorf("maturity %s must be after issue %s: %w",
			t.MaturityDate.Format(time.DateOnly), t.IssueDate.Format(time.DateOnly), ErrInvalidTerms)
	case t.Frequency == 0:
		return fmt.Errorf("frequency is zero: %w", ErrInvalidTerms)
	case t.Frequency.Months() == 0:
		return fmt.Errorf("frequency %d does not divide a year: %w", t.Frequency, ErrInvalidTerms)
	case !t.Face.IsPositive():
		return fmt.Errorf("face %s must be positive: %w", t.Face, ErrInvalidTerms)
	case !t.DayCount.Valid():
		return fmt.Errorf("day count %q: %w", t.DayCount, ErrInvalidTerms)
	case !t.Compounding.Valid():
		return fmt.Errorf("compounding %d: %w", int(t.Compounding), ErrInvalidTerms)
	case t.Stub != "" && t.Stub != ShortFirst && t.Stub != ShortLast:
		return fmt.Errorf("stub %q: %w", t.Stub, ErrInvalidTerms)
	}
	return nil
}

// IsZeroCoupon reports whether the security pays only its face at maturity.
func (t Terms) IsZeroCoupon() bool {
	return t.CouponRate == 0
}
