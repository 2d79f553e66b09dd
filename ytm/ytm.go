// Package ytm solves for the flat yield that prices a cashflow schedule.
package ytm

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/meenmo/fixedincome/bond"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/solver"
	"github.com/meenmo/fixedincome/valuation"
)

const (
	DefaultLow  = -0.99
	DefaultHigh = 1.00
)

// Options controls the yield search. Zero values select the defaults.
//
// Compounding is used as given; its zero value is continuous compounding.
// Solver, when set, replaces the bisection built from Tolerance and
// MaxIterations. The zero Logger discards events.
type Options struct {
	Tolerance     float64
	MaxIterations int
	MaxExpansions int
	Low           float64
	High          float64
	DayCount      daycount.Convention
	Compounding   daycount.Compounding
	Solver        solver.Solver
	Logger        zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = solver.DefaultTolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = solver.DefaultMaxIterations
	}
	if o.MaxExpansions <= 0 {
		o.MaxExpansions = solver.DefaultMaxExpansions
	}
	if o.Low == 0 && o.High == 0 {
		o.Low, o.High = DefaultLow, DefaultHigh
	}
	if o.DayCount == "" {
		o.DayCount = daycount.ActualActual
	}
	if o.Solver == nil {
		o.Solver = solver.Bisection{Tolerance: o.Tolerance, MaxIterations: o.MaxIterations}
	}
	return o
}

// Result is a solved yield.
type Result struct {
	Yield      float64 `json:"yield"`
	Iterations int     `json:"iterations"`
	// Price is the schedule's value at Yield.
	Price float64 `json:"price"`
}

// Solve finds the flat yield y with PV(cfs, y, asOf) = targetPrice.
//
// The search starts on [Low, High], lifting Low above the compounding's
// domain floor, and widens the bracket a bounded number of times before
// giving up with solver.ErrNoBracketFound.
func Solve(cfs bond.Schedule, targetPrice float64, asOf time.Time, opts Options) (Result, error) {
	o := opts.withDefaults()
	if math.IsNaN(targetPrice) || math.IsInf(targetPrice, 0) {
		return Result{}, fmt.Errorf("Solve: target price %g: %w", targetPrice, solver.ErrNoBracketFound)
	}
	live := cfs.OnOrAfter(asOf)
	if len(live) == 0 {
		return Result{}, fmt.Errorf("Solve: as of %s: %w", asOf.Format(time.DateOnly), valuation.ErrEmptySchedule)
	}
	if !o.Compounding.Valid() {
		return Result{}, fmt.Errorf("Solve: compounding %d: %w", int(o.Compounding), daycount.ErrUnknownConvention)
	}
	maxT, err := daycount.AccrualFraction(asOf, live.Maturity(), o.DayCount)
	if err != nil {
		return Result{}, fmt.Errorf("Solve: %w", err)
	}

	f := func(y float64) (float64, error) {
		src := valuation.FlatYield{Rate: y, DayCount: o.DayCount, Compounding: o.Compounding}
		p, err := valuation.Value(live, src, asOf)
		if errors.Is(err, daycount.ErrInvalidRate) {
			// Discount factors overflow far below zero and vanish far above it.
			if y < 0 {
				return math.Inf(1), nil
			}
			return -targetPrice, nil
		}
		if err != nil {
			return 0, err
		}
		return p - targetPrice, nil
	}

	floor := daycount.RateFloor(maxT, o.Compounding)
	lo, hi, err := solver.ExpandBracket(f, o.Low, o.High, floor, o.MaxExpansions)
	if err != nil {
		return Result{}, fmt.Errorf("Solve: target %g: %w", targetPrice, err)
	}
	if lo != o.Low || hi != o.High {
		o.Logger.Debug().Float64("low", lo).Float64("high", hi).Msg("yield bracket widened")
	}

	root, err := o.Solver.Solve(f, lo, hi)
	if err != nil {
		return Result{}, fmt.Errorf("Solve: target %g: %w", targetPrice, err)
	}
	o.Logger.Debug().
		Float64("yield", root.X).
		Int("iterations", root.Iterations).
		Float64("residual", root.FX).
		Msg("yield solved")
	return Result{Yield: root.X, Iterations: root.Iterations, Price: root.FX + targetPrice}, nil
}

// ZeroCouponYield returns the yield of a single payment of face after years
// bought at price, in closed form.
func ZeroCouponYield(face, price, years float64, c daycount.Compounding) (float64, error) {
	if !(face > 0) {
		return 0, fmt.Errorf("ZeroCouponYield: face %g: %w", face, daycount.ErrInvalidRate)
	}
	y, err := daycount.ZeroRate(price/face, years, c)
	if err != nil {
		return 0, fmt.Errorf("ZeroCouponYield: %w", err)
	}
	return y, nil
}
