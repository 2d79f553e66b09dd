package valuation

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/daycount"
)

// DiscountSource provides discount factors for valuation.
//
// DiscountFactor returns the value at asOf of one unit paid at t (t >= asOf).
// Shift returns the same source after a parallel rate shift of dy.
type DiscountSource interface {
	DiscountFactor(asOf, t time.Time) (float64, error)
	Shift(dy float64) DiscountSource
}

// FlatYield discounts every cashflow at a single rate.
type FlatYield struct {
	Rate        float64
	DayCount    daycount.Convention
	Compounding daycount.Compounding
}

func (y FlatYield) DiscountFactor(asOf, t time.Time) (float64, error) {
	df, _, _, err := y.derivatives(asOf, t)
	return df, err
}

func (y FlatYield) Shift(dy float64) DiscountSource {
	y.Rate += dy
	return y
}

func (y FlatYield) derivatives(asOf, t time.Time) (float64, float64, float64, error) {
	frac, err := daycount.AccrualFraction(asOf, t, y.DayCount)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("FlatYield: %w", err)
	}
	df, d1, d2, err := daycount.DiscountFactorDerivatives(y.Rate, frac, y.Compounding)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("FlatYield: %w", err)
	}
	return df, d1, d2, nil
}

// CurveSource discounts on a zero curve observed at Origin, plus a
// continuously compounded Spread.
//
// When asOf equals Origin this is the curve itself. For a later asOf it is
// the forward curve implied at Origin: DF(asOf, t) = DF(Origin, t) / DF(Origin, asOf).
type CurveSource struct {
	Curve         *curve.RateCurve
	Origin        time.Time
	Spread        float64
	Extrapolation curve.Extrapolation
}

func (c CurveSource) DiscountFactor(asOf, t time.Time) (float64, error) {
	if c.Curve == nil {
		return 0, fmt.Errorf("CurveSource: nil curve: %w", curve.ErrInvalidCurveInput)
	}
	if t.Before(asOf) {
		return 0, fmt.Errorf("CurveSource: payment %s before valuation %s: %w",
			t.Format(time.DateOnly), asOf.Format(time.DateOnly), daycount.ErrInvalidDateRange)
	}
	dfT, tauT, err := c.originDF(t)
	if err != nil {
		return 0, err
	}
	dfA, tauA, err := c.originDF(asOf)
	if err != nil {
		return 0, err
	}
	return dfT / dfA * math.Exp(-c.Spread*(tauT-tauA)), nil
}

func (c CurveSource) Shift(dy float64) DiscountSource {
	c.Spread += dy
	return c
}

func (c CurveSource) originDF(t time.Time) (float64, float64, error) {
	tau, err := c.Curve.TenorOf(c.Origin, t)
	if err != nil {
		return 0, 0, fmt.Errorf("CurveSource: %w", err)
	}
	df, err := c.Curve.DiscountFactor(tau, c.Extrapolation)
	if err != nil {
		return 0, 0, fmt.Errorf("CurveSource: %w", err)
	}
	return df, tau, nil
}
