package bond

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/fixedincome/daycount"
)

// Schedule is an ordered sequence of cashflows, ascending by date with unique dates.
//
// Filtering methods return new slices; a Schedule is never modified in place.
type Schedule []Cashflow

// Validate checks ordering and uniqueness of dates.
func (s Schedule) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Date.After(s[i-1].Date) {
			return fmt.Errorf("cashflow %d on %s does not follow %s: %w",
				i, s[i].Date.Format(time.DateOnly), s[i-1].Date.Format(time.DateOnly), ErrUnorderedSchedule)
		}
	}
	return nil
}

// Clone returns an independent copy.
func (s Schedule) Clone() Schedule {
	if s == nil {
		return nil
	}
	out := make(Schedule, len(s))
	copy(out, s)
	return out
}

// OnOrAfter returns the cashflows paid on or after asOf.
func (s Schedule) OnOrAfter(asOf time.Time) Schedule {
	return s.filter(func(cf Cashflow) bool { return !cf.Date.Before(asOf) })
}

// Between returns cashflows paid in (start, end].
func (s Schedule) Between(start, end time.Time) Schedule {
	return s.filter(func(cf Cashflow) bool { return cf.Date.After(start) && !cf.Date.After(end) })
}

// BetweenInclusive returns cashflows paid in [start, end].
func (s Schedule) BetweenInclusive(start, end time.Time) Schedule {
	return s.filter(func(cf Cashflow) bool { return !cf.Date.Before(start) && !cf.Date.After(end) })
}

// Total sums the amounts.
func (s Schedule) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, cf := range s {
		sum = sum.Add(cf.Amount())
	}
	return sum
}

// Coupons sums the coupon amounts.
func (s Schedule) Coupons() decimal.Decimal {
	sum := decimal.Zero
	for _, cf := range s {
		sum = sum.Add(cf.Coupon)
	}
	return sum
}

// Maturity returns the last payment date, or the zero time for an empty schedule.
func (s Schedule) Maturity() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Date
}

// AccruedAt returns the coupon accrued but not yet paid at t, linear in
// actual days over the coupon period. On a payment date the accrual resets.
//
// For cashflows without AccrualStart, the period start is the previous
// payment date, or for the first coupon the first date minus the gap to
// the second.
func (s Schedule) AccruedAt(t time.Time) decimal.Decimal {
	for i, cf := range s {
		if !cf.Date.After(t) {
			continue
		}
		if cf.Coupon.IsZero() {
			return decimal.Zero
		}
		start := s.periodStart(i)
		if start.IsZero() || !t.After(start) {
			return decimal.Zero
		}
		total := daycount.Days(start, cf.Date)
		if total <= 0 {
			return decimal.Zero
		}
		elapsed := daycount.Days(start, t)
		return cf.Coupon.Mul(decimal.NewFromInt(int64(elapsed))).Div(decimal.NewFromInt(int64(total)))
	}
	return decimal.Zero
}

func (s Schedule) periodStart(i int) time.Time {
	if !s[i].AccrualStart.IsZero() {
		return s[i].AccrualStart
	}
	if i > 0 {
		return s[i-1].Date
	}
	if len(s) > 1 {
		return s[0].Date.Add(-s[1].Date.Sub(s[0].Date))
	}
	return time.Time{}
}

func (s Schedule) filter(keep func(Cashflow) bool) Schedule {
	out := make(Schedule, 0, len(s))
	for _, cf := range s {
		if keep(cf) {
			out = append(out, cf)
		}
	}
	return out
}
