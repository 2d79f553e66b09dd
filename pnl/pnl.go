// Package pnl values a security against a curve at two dates and splits the
// change in value into cash carry, realized forwards and a spread residual.
package pnl

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/meenmo/fixedincome/bond"
	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/solver"
	"github.com/meenmo/fixedincome/valuation"
	"github.com/meenmo/fixedincome/ytm"
)

// ErrAttributionMismatch is returned when two snapshots cannot describe the
// same security over a forward-running period.
var ErrAttributionMismatch = errors.New("attribution mismatch")

const (
	// DefaultPVToleranceMultiplier scales max(1, |start value|) into the
	// largest revaluation gap accepted between snapshots.
	DefaultPVToleranceMultiplier = 1e-8
	defaultSpreadLow             = -0.5
	defaultSpreadHigh            = 0.5
)

// Options controls snapshot construction and attribution.
type Options struct {
	PVToleranceMultiplier float64
	Bump                  float64
	Extrapolation         curve.Extrapolation
	// Yield configures both the yield solve and, through its solver
	// settings, the spread solve.
	Yield ytm.Options
}

func (o Options) withDefaults() Options {
	if o.PVToleranceMultiplier <= 0 {
		o.PVToleranceMultiplier = DefaultPVToleranceMultiplier
	}
	if o.Bump <= 0 {
		o.Bump = valuation.DefaultBump
	}
	return o
}

func (o Options) spreadSolver() solver.Solver {
	if o.Yield.Solver != nil {
		return o.Yield.Solver
	}
	return solver.Bisection{Tolerance: o.Yield.Tolerance, MaxIterations: o.Yield.MaxIterations}
}

func (o Options) maxExpansions() int {
	if o.Yield.MaxExpansions > 0 {
		return o.Yield.MaxExpansions
	}
	return solver.DefaultMaxExpansions
}

// Snapshot is a security valued on one date against one curve.
//
// Value is the present value of the cashflows paid on or after AsOf,
// discounted on Source: the curve observed at AsOf plus Spread.
type Snapshot struct {
	AsOf      time.Time
	Cashflows bond.Schedule
	Price     float64
	Yield     float64
	Spread    float64
	Source    valuation.CurveSource
	Value     float64
	Duration  float64
	Convexity float64
}

// NewSnapshot solves the spread over c that reprices cfs to price, solves
// the yield, and values the schedule at that spread.
func NewSnapshot(cfs bond.Schedule, asOf time.Time, c *curve.RateCurve, price float64, opts Options) (Snapshot, error) {
	o := opts.withDefaults()
	if err := checkInputs(cfs, c); err != nil {
		return Snapshot{}, fmt.Errorf("NewSnapshot: %w", err)
	}
	spread, err := solveSpread(cfs, asOf, c, price, o)
	if err != nil {
		return Snapshot{}, fmt.Errorf("NewSnapshot: spread: %w", err)
	}
	s, err := snapshotAt(cfs, asOf, c, spread, o)
	if err != nil {
		return Snapshot{}, fmt.Errorf("NewSnapshot: %w", err)
	}
	s.Price = price
	return s, nil
}

// NewSnapshotFromSpread values cfs over c at a known spread; the price is
// the resulting value.
func NewSnapshotFromSpread(cfs bond.Schedule, asOf time.Time, c *curve.RateCurve, spread float64, opts Options) (Snapshot, error) {
	o := opts.withDefaults()
	if err := checkInputs(cfs, c); err != nil {
		return Snapshot{}, fmt.Errorf("NewSnapshotFromSpread: %w", err)
	}
	s, err := snapshotAt(cfs, asOf, c, spread, o)
	if err != nil {
		return Snapshot{}, fmt.Errorf("NewSnapshotFromSpread: %w", err)
	}
	return s, nil
}

func checkInputs(cfs bond.Schedule, c *curve.RateCurve) error {
	if c == nil {
		return fmt.Errorf("nil curve: %w", curve.ErrInvalidCurveInput)
	}
	return cfs.Validate()
}

func snapshotAt(cfs bond.Schedule, asOf time.Time, c *curve.RateCurve, spread float64, o Options) (Snapshot, error) {
	src := valuation.CurveSource{Curve: c, Origin: asOf, Spread: spread, Extrapolation: o.Extrapolation}
	pv, err := valuation.PresentValue(cfs, src, asOf, valuation.WithBump(o.Bump))
	if err != nil {
		return Snapshot{}, err
	}
	y, err := ytm.Solve(cfs, pv.Value, asOf, o.Yield)
	if err != nil {
		return Snapshot{}, fmt.Errorf("yield: %w", err)
	}
	return Snapshot{
		AsOf:      asOf,
		Cashflows: cfs.Clone(),
		Price:     pv.Value,
		Yield:     y.Yield,
		Spread:    spread,
		Source:    src,
		Value:     pv.Value,
		Duration:  pv.Duration,
		Convexity: pv.Convexity,
	}, nil
}

func solveSpread(cfs bond.Schedule, asOf time.Time, c *curve.RateCurve, price float64, o Options) (float64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("price %g: %w", price, solver.ErrNoBracketFound)
	}
	f := func(s float64) (float64, error) {
		src := valuation.CurveSource{Curve: c, Origin: asOf, Spread: s, Extrapolation: o.Extrapolation}
		v, err := valuation.Value(cfs, src, asOf)
		if errors.Is(err, daycount.ErrInvalidRate) {
			if s < 0 {
				return math.Inf(1), nil
			}
			return -price, nil
		}
		if err != nil {
			return 0, err
		}
		return v - price, nil
	}
	lo, hi, err := solver.ExpandBracket(f, defaultSpreadLow, defaultSpreadHigh, math.Inf(-1), o.maxExpansions())
	if err != nil {
		return 0, err
	}
	root, err := o.spreadSolver().Solve(f, lo, hi)
	if err != nil {
		return 0, err
	}
	o.Yield.Logger.Debug().Float64("spread", root.X).Int("iterations", root.Iterations).Msg("spread solved")
	return root.X, nil
}

// Result splits end.Value − start.Value.
//
// CashCarry, RealizedForward and SpreadResidual always sum to Total.
// CurveShift, SpreadChange and Unexplained break SpreadResidual down further.
// CashReceived is paid out during the period and so is in neither value.
type Result struct {
	CashCarry       float64 `json:"cash_carry"`
	RealizedForward float64 `json:"realized_forward"`
	SpreadResidual  float64 `json:"spread_residual"`
	Total           float64 `json:"total"`

	CurveShift   float64 `json:"curve_shift"`
	SpreadChange float64 `json:"spread_change"`
	Unexplained  float64 `json:"unexplained"`
	CashReceived float64 `json:"cash_received"`
}

// Attribute explains the value change between two snapshots of one security.
//
// CashCarry is the coupon income earned over (start, end]. RealizedForward
// is the move the start curve's forwards predicted: the value at end.AsOf on
// curveStart's implied forwards at the start spread, less start.Value and
// CashCarry. SpreadResidual is whatever remains.
func Attribute(start, end Snapshot, curveStart, curveEnd *curve.RateCurve, opts Options) (Result, error) {
	o := opts.withDefaults()
	if end.AsOf.Before(start.AsOf) {
		return Result{}, fmt.Errorf("Attribute: end %s before start %s: %w",
			end.AsOf.Format(time.DateOnly), start.AsOf.Format(time.DateOnly), ErrAttributionMismatch)
	}
	if curveStart == nil || curveEnd == nil {
		return Result{}, fmt.Errorf("Attribute: nil curve: %w", curve.ErrInvalidCurveInput)
	}

	cfs := start.Cashflows
	atEnd := func(c *curve.RateCurve, origin time.Time, spread float64) (float64, error) {
		src := valuation.CurveSource{Curve: c, Origin: origin, Spread: spread, Extrapolation: o.Extrapolation}
		return valuation.Value(cfs, src, end.AsOf)
	}

	revalued, err := atEnd(curveEnd, end.AsOf, end.Spread)
	if err != nil {
		return Result{}, fmt.Errorf("Attribute: revalue at end: %w", err)
	}
	tol := o.PVToleranceMultiplier * math.Max(1, math.Abs(start.Value))
	if gap := revalued - end.Value; math.Abs(gap) > tol {
		return Result{}, fmt.Errorf("Attribute: start security revalues to %g at end, snapshot has %g (tolerance %g): %w",
			revalued, end.Value, tol, ErrAttributionMismatch)
	}

	forward, err := atEnd(curveStart, start.AsOf, start.Spread)
	if err != nil {
		return Result{}, fmt.Errorf("Attribute: forward value: %w", err)
	}
	endCurveStartSpread, err := atEnd(curveEnd, end.AsOf, start.Spread)
	if err != nil {
		return Result{}, fmt.Errorf("Attribute: curve shift: %w", err)
	}

	carry := cfs.AccruedAt(end.AsOf).
		Sub(cfs.AccruedAt(start.AsOf)).
		Add(cfs.Between(start.AsOf, end.AsOf).Coupons()).
		InexactFloat64()

	r := Result{Total: end.Value - start.Value, CashCarry: carry}
	r.RealizedForward = forward - start.Value - r.CashCarry
	r.SpreadResidual = r.Total - r.CashCarry - r.RealizedForward
	r.CurveShift = endCurveStartSpread - forward
	r.SpreadChange = revalued - endCurveStartSpread
	r.Unexplained = r.SpreadResidual - r.CurveShift - r.SpreadChange
	if end.AsOf.After(start.AsOf) {
		paid := cfs.BetweenInclusive(start.AsOf, end.AsOf)
		r.CashReceived = paid.Total().Sub(paid.OnOrAfter(end.AsOf).Total()).InexactFloat64()
	}
	return r, nil
}
