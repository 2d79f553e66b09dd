// Package solver finds roots of scalar functions on a bracketing interval.
//
// Bisection is the default: it trades speed for a guaranteed, deterministic
// answer once a sign change is bracketed. Secant satisfies the same Solver
// interface and may be substituted without changing callers.
package solver

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNoBracketFound is returned when f has the same sign at both ends of
	// the search interval, even after bounded widening.
	ErrNoBracketFound = errors.New("no bracket found")
	// ErrNonConvergence is returned when the iteration budget is exhausted.
	ErrNonConvergence = errors.New("did not converge")
)

const (
	DefaultTolerance     = 1e-10
	DefaultMaxIterations = 200
	DefaultMaxExpansions = 8
)

// Func is the function whose root is sought. An error aborts the search.
type Func func(x float64) (float64, error)

// Root is a converged solution.
type Root struct {
	X          float64
	FX         float64
	Iterations int
}

// Solver finds x in [lo, hi] with f(x) ≈ 0.
type Solver interface {
	Solve(f Func, lo, hi float64) (Root, error)
}

// Bisection halves a sign-changing interval until |f(mid)| < Tolerance or the
// interval is narrower than Tolerance, and returns the midpoint.
type Bisection struct {
	Tolerance     float64
	MaxIterations int
}

func (b Bisection) params() (float64, int) {
	tol, maxIter := b.Tolerance, b.MaxIterations
	if tol <= 0 {
		tol = DefaultTolerance
	}
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	return tol, maxIter
}

func (b Bisection) Solve(f Func, lo, hi float64) (Root, error) {
	tol, maxIter := b.params()
	if lo > hi {
		lo, hi = hi, lo
	}
	flo, fhi, err := evalPair(f, lo, hi)
	if err != nil {
		return Root{}, fmt.Errorf("Bisection: %w", err)
	}
	if flo == 0 {
		return Root{X: lo}, nil
	}
	if fhi == 0 {
		return Root{X: hi}, nil
	}
	if sameSign(flo, fhi) {
		return Root{}, fmt.Errorf("Bisection: f(%g)=%g and f(%g)=%g: %w", lo, flo, hi, fhi, ErrNoBracketFound)
	}

	for iter := 1; iter <= maxIter; iter++ {
		mid := lo + (hi-lo)/2
		fm, err := f(mid)
		if err != nil {
			return Root{}, fmt.Errorf("Bisection: iteration %d: %w", iter, err)
		}
		if math.Abs(fm) < tol || hi-lo < tol {
			return Root{X: mid, FX: fm, Iterations: iter}, nil
		}
		if sameSign(fm, flo) {
			lo, flo = mid, fm
		} else {
			hi = mid
		}
	}
	return Root{}, fmt.Errorf("Bisection: %d iterations on [%g, %g]: %w", maxIter, lo, hi, ErrNonConvergence)
}

// Secant takes false-position steps inside the bracket, halving the weight of
// an endpoint that survives twice in a row (the Illinois rule), and falls
// back to bisection whenever a step would leave the bracket. It keeps
// bisection's guarantees while usually converging in far fewer evaluations.
type Secant struct {
	Tolerance     float64
	MaxIterations int
}

func (s Secant) Solve(f Func, lo, hi float64) (Root, error) {
	tol, maxIter := Bisection(s).params()
	if lo > hi {
		lo, hi = hi, lo
	}
	flo, fhi, err := evalPair(f, lo, hi)
	if err != nil {
		return Root{}, fmt.Errorf("Secant: %w", err)
	}
	if flo == 0 {
		return Root{X: lo}, nil
	}
	if fhi == 0 {
		return Root{X: hi}, nil
	}
	if sameSign(flo, fhi) {
		return Root{}, fmt.Errorf("Secant: f(%g)=%g and f(%g)=%g: %w", lo, flo, hi, fhi, ErrNoBracketFound)
	}

	side := 0
	for iter := 1; iter <= maxIter; iter++ {
		x := (lo*fhi - hi*flo) / (fhi - flo)
		if !(x > lo && x < hi) {
			x = lo + (hi-lo)/2
		}
		fx, err := f(x)
		if err != nil {
			return Root{}, fmt.Errorf("Secant: iteration %d: %w", iter, err)
		}
		if math.Abs(fx) < tol || hi-lo < tol {
			return Root{X: x, FX: fx, Iterations: iter}, nil
		}
		if sameSign(fx, flo) {
			lo, flo = x, fx
			if side == -1 {
				fhi /= 2
			}
			side = -1
		} else {
			hi, fhi = x, fx
			if side == 1 {
				flo /= 2
			}
			side = 1
		}
	}
	return Root{}, fmt.Errorf("Secant: %d iterations on [%g, %g]: %w", maxIter, lo, hi, ErrNonConvergence)
}

// ExpandBracket widens [lo, hi] until f changes sign, at most maxExpansions
// times. Each step doubles the bracket on the side where |f| is smaller.
//
// lo never reaches floor: a lower end at or below it is pinned just above
// floor, after which only hi moves.
func ExpandBracket(f Func, lo, hi, floor float64, maxExpansions int) (float64, float64, error) {
	if lo > hi {
		lo, hi = hi, lo
	}
	bounded := !math.IsInf(floor, -1)
	pinned := false
	pin := func() {
		lo, pinned = floor+1e-9*math.Max(1, math.Abs(floor)), true
		if hi <= lo {
			hi = lo + 1
		}
	}
	if bounded && lo <= floor {
		pin()
	}
	flo, fhi, err := evalPair(f, lo, hi)
	if err != nil {
		return 0, 0, fmt.Errorf("ExpandBracket: %w", err)
	}
	for k := 0; ; k++ {
		if !sameSign(flo, fhi) {
			return lo, hi, nil
		}
		if k >= maxExpansions {
			break
		}
		width := hi - lo
		if pinned || math.Abs(fhi) < math.Abs(flo) {
			hi += width
			if fhi, err = f(hi); err != nil {
				return 0, 0, fmt.Errorf("ExpandBracket: %w", err)
			}
		} else {
			lo -= width
			if bounded && lo <= floor {
				pin()
			}
			if flo, err = f(lo); err != nil {
				return 0, 0, fmt.Errorf("ExpandBracket: %w", err)
			}
		}
		if math.IsNaN(flo) || math.IsNaN(fhi) {
			return 0, 0, fmt.Errorf("ExpandBracket: f is NaN on [%g, %g]: %w", lo, hi, ErrNoBracketFound)
		}
	}
	return 0, 0, fmt.Errorf("ExpandBracket: no sign change on [%g, %g] after %d expansions: %w", lo, hi, maxExpansions, ErrNoBracketFound)
}

func evalPair(f Func, lo, hi float64) (float64, float64, error) {
	flo, err := f(lo)
	if err != nil {
		return 0, 0, err
	}
	fhi, err := f(hi)
	if err != nil {
		return 0, 0, err
	}
	if math.IsNaN(flo) || math.IsNaN(fhi) {
		return 0, 0, fmt.Errorf("f is NaN at bracket end: %w", ErrNoBracketFound)
	}
	return flo, fhi, nil
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
