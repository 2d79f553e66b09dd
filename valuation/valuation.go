// Package valuation discounts cashflow schedules and measures their rate sensitivity.
package valuation

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/meenmo/fixedincome/bond"
	"github.com/meenmo/fixedincome/daycount"
)

// ErrEmptySchedule is returned when no cashflow is paid on or after the valuation date.
var ErrEmptySchedule = errors.New("no cashflows on or after valuation date")

// DefaultBump is the parallel shift used for finite-difference sensitivities.
const DefaultBump = 1e-4

// Result is a present value and its sensitivities to a parallel rate shift.
//
// Duration is −(1/P)·dP/dy, Convexity is (1/P)·d²P/dy² and DV01 is the price
// change for a one basis point fall in rates.
type Result struct {
	Value         float64 `json:"value"`
	Duration      float64 `json:"duration"`
	Convexity     float64 `json:"convexity"`
	DV01          float64 `json:"dv01"`
	CashflowsUsed int     `json:"cashflows_used"`
}

type options struct {
	bump    float64
	forceFD bool
}

// Option customizes PresentValue.
type Option func(*options)

// WithBump sets the finite-difference shift size.
func WithBump(h float64) Option {
	return func(o *options) { o.bump = h }
}

// WithFiniteDifference uses finite differences even when the source has closed-form derivatives.
func WithFiniteDifference() Option {
	return func(o *options) { o.forceFD = true }
}

// analytic is implemented by sources whose discount factor derivatives are known in closed form.
type analytic interface {
	derivatives(asOf, t time.Time) (float64, float64, float64, error)
}

// PresentValue discounts the cashflows paid on or after asOf.
// Cashflows strictly before asOf are skipped; one paid on asOf counts at full value.
func PresentValue(cfs bond.Schedule, src DiscountSource, asOf time.Time, opts ...Option) (Result, error) {
	o := options{bump: DefaultBump}
	for _, fn := range opts {
		fn(&o)
	}
	live := cfs.OnOrAfter(asOf)
	if len(live) == 0 {
		return Result{}, fmt.Errorf("PresentValue: as of %s: %w", asOf.Format(time.DateOnly), ErrEmptySchedule)
	}

	var (
		p, dp, d2p float64
		err        error
	)
	if a, ok := src.(analytic); ok && !o.forceFD {
		p, dp, d2p, err = closedForm(live, a, asOf)
	} else {
		p, dp, d2p, err = finiteDifference(live, src, asOf, o.bump)
	}
	if err != nil {
		return Result{}, fmt.Errorf("PresentValue: %w", err)
	}
	return newResult(p, dp, d2p, len(live)), nil
}

// FiniteDifference values the schedule and estimates sensitivities with a
// central difference of width bump, whatever the source.
func FiniteDifference(cfs bond.Schedule, src DiscountSource, asOf time.Time, bump float64) (Result, error) {
	return PresentValue(cfs, src, asOf, WithBump(bump), WithFiniteDifference())
}

// Value returns only the present value.
func Value(cfs bond.Schedule, src DiscountSource, asOf time.Time) (float64, error) {
	live := cfs.OnOrAfter(asOf)
	if len(live) == 0 {
		return 0, fmt.Errorf("Value: as of %s: %w", asOf.Format(time.DateOnly), ErrEmptySchedule)
	}
	p, err := discount(live, src, asOf)
	if err != nil {
		return 0, fmt.Errorf("Value: %w", err)
	}
	return p, nil
}

func discount(live bond.Schedule, src DiscountSource, asOf time.Time) (float64, error) {
	p := 0.0
	for _, cf := range live {
		df, err := src.DiscountFactor(asOf, cf.Date)
		if err != nil {
			return 0, err
		}
		p += cf.Amount().InexactFloat64() * df
	}
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, fmt.Errorf("present value %g is not finite: %w", p, daycount.ErrInvalidRate)
	}
	return p, nil
}

func closedForm(live bond.Schedule, a analytic, asOf time.Time) (float64, float64, float64, error) {
	var p, dp, d2p float64
	for _, cf := range live {
		df, d1, d2, err := a.derivatives(asOf, cf.Date)
		if err != nil {
			return 0, 0, 0, err
		}
		amt := cf.Amount().InexactFloat64()
		p += amt * df
		dp += amt * d1
		d2p += amt * d2
	}
	return p, dp, d2p, nil
}

func finiteDifference(live bond.Schedule, src DiscountSource, asOf time.Time, h float64) (float64, float64, float64, error) {
	if !(h > 0) {
		return 0, 0, 0, fmt.Errorf("bump %g must be positive", h)
	}
	p, err := discount(live, src, asOf)
	if err != nil {
		return 0, 0, 0, err
	}
	up, err := discount(live, src.Shift(h), asOf)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("shift +%g: %w", h, err)
	}
	down, err := discount(live, src.Shift(-h), asOf)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("shift -%g: %w", h, err)
	}
	return p, (up - down) / (2 * h), (up - 2*p + down) / (h * h), nil
}

// newResult leaves duration and convexity at zero for a zero value.
func newResult(p, dp, d2p float64, n int) Result {
	r := Result{Value: p, DV01: -dp * 1e-4, CashflowsUsed: n}
	if p != 0 {
		r.Duration = -dp / p
		r.Convexity = d2p / p
	}
	return r
}

// TrajectoryPoint is the value of a schedule on one date.
type TrajectoryPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ConstantYieldTrajectory values the schedule on each date at the same flat
// yield, tracing how price pulls to par as time passes with rates unchanged.
// Dates with no remaining cashflow stop the trajectory.
func ConstantYieldTrajectory(cfs bond.Schedule, y FlatYield, dates []time.Time) ([]TrajectoryPoint, error) {
	out := make([]TrajectoryPoint, 0, len(dates))
	for _, d := range dates {
		v, err := Value(cfs, y, d)
		if errors.Is(err, ErrEmptySchedule) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ConstantYieldTrajectory: %w", err)
		}
		out = append(out, TrajectoryPoint{Date: d, Value: v})
	}
	return out, nil
}
