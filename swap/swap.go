// Package swap prices fixed-for-overnight interest rate swaps.
//
// The floating leg compounds realized overnight fixings for time already
// elapsed and projects the rest from a discount source. Both legs are
// discounted on a single discount source; a separate projection source may be
// given for the floating leg.
package swap

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/fixedincome/bond"
	"github.com/meenmo/fixedincome/calendar"
	"github.com/meenmo/fixedincome/daycount"
)

var (
	// ErrInvalidSwap is returned when swap terms cannot produce a schedule.
	ErrInvalidSwap = errors.New("invalid swap")
	// ErrMissingFixing is returned when an elapsed floating period has no
	// overnight fixing to compound.
	ErrMissingFixing = errors.New("missing overnight fixing")
)

// Direction is the side of the fixed leg the position is on.
type Direction string

const (
	PayFixed     Direction = "PAY"
	ReceiveFixed Direction = "REC"
)

func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PAY", "PAYER", "PAY_FIXED":
		return PayFixed, nil
	case "REC", "RECEIVE", "RECEIVER", "RECEIVE_FIXED":
		return ReceiveFixed, nil
	}
	return "", fmt.Errorf("direction %q: %w", s, ErrInvalidSwap)
}

// Leg holds one leg's schedule conventions.
type Leg struct {
	Frequency bond.Frequency
	DayCount  daycount.Convention
	// PaymentLag is the number of business days from accrual end to payment.
	PaymentLag int
}

// Swap is a fixed-for-overnight interest rate swap.
//
// FixedRate is a decimal (0.0325 == 3.25%). SpreadBP is added to the
// compounded overnight rate of every floating period.
type Swap struct {
	EffectiveDate time.Time
	MaturityDate  time.Time
	Notional      float64
	FixedRate     float64
	SpreadBP      float64
	Direction     Direction
	Fixed         Leg
	Float         Leg

	// Calendar and Adjustment roll accrual end dates into payment dates.
	Calendar   calendar.ID
	Adjustment calendar.BusinessDayConvention
}

func (s Swap) Validate() error {
	switch {
	case s.EffectiveDate.IsZero() || s.MaturityDate.IsZero():
		return fmt.Errorf("effective and maturity dates are required: %w", ErrInvalidSwap)
	case !s.MaturityDate.After(s.EffectiveDate):
		return fmt.Errorf("maturity %s must be after effective %s: %w",
			s.MaturityDate.Format(time.DateOnly), s.EffectiveDate.Format(time.DateOnly), ErrInvalidSwap)
	case !(s.Notional > 0) || math.IsInf(s.Notional, 0):
		return fmt.Errorf("notional %g must be positive: %w", s.Notional, ErrInvalidSwap)
	case s.Direction != PayFixed && s.Direction != ReceiveFixed:
		return fmt.Errorf("direction %q: %w", s.Direction, ErrInvalidSwap)
	case s.Fixed.PaymentLag < 0 || s.Float.PaymentLag < 0:
		return fmt.Errorf("payment lag must not be negative: %w", ErrInvalidSwap)
	}
	return nil
}

// Period is one accrual period of a leg. Start and End are unadjusted.
type Period struct {
	Start    time.Time
	End      time.Time
	PayDate  time.Time
	Fraction float64
}

// MinStubDays is the shortest front stub kept as its own period. A shorter
// one is folded into the following period.
const MinStubDays = 8

// Periods rolls leg backward from maturity, so any stub comes first, and
// delays each payment by the leg's payment lag.
func (s Swap) Periods(leg Leg) ([]Period, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("Periods: %w", err)
	}
	ps, err := bond.Periods(bond.Terms{
		IssueDate:    s.EffectiveDate,
		MaturityDate: s.MaturityDate,
		Face:         decimal.NewFromFloat(s.Notional),
		Frequency:    leg.Frequency,
		DayCount:     leg.DayCount,
		Stub:         bond.ShortFirst,
		Calendar:     s.Calendar,
		Adjustment:   s.Adjustment,
	})
	if err != nil {
		return nil, fmt.Errorf("Periods: %w: %w", ErrInvalidSwap, err)
	}
	out := make([]Period, 0, len(ps))
	for i, p := range ps {
		pay := p.PayDate
		if leg.PaymentLag > 0 {
			pay = calendar.AddBusinessDays(s.Calendar, pay, leg.PaymentLag)
		}
		if i == 1 && daycount.Days(out[0].Start, out[0].End) < MinStubDays {
			out[0] = Period{Start: out[0].Start, End: p.End, PayDate: pay, Fraction: out[0].Fraction + p.Fraction}
			continue
		}
		out = append(out, Period{Start: p.Start, End: p.End, PayDate: pay, Fraction: p.Fraction})
	}
	return out, nil
}

// Dates returns the spot date (trade plus spotLag business days), the
// effective date forwardYears after spot and the maturity tenorYears after
// that. Effective and maturity roll Following on cal.
func Dates(trade time.Time, cal calendar.ID, spotLag, forwardYears, tenorYears int) (spot, effective, maturity time.Time) {
	spot = calendar.AddBusinessDays(cal, trade, spotLag)
	effective = spot
	if forwardYears > 0 {
		effective = calendar.AdjustFollowing(cal, spot.AddDate(forwardYears, 0, 0))
	}
	maturity = calendar.AdjustFollowing(cal, effective.AddDate(tenorYears, 0, 0))
	return spot, effective, maturity
}
