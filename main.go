package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/fixedincome/bond"
	"github.com/meenmo/fixedincome/calendar"
	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/pnl"
	"github.com/meenmo/fixedincome/swap"
	"github.com/meenmo/fixedincome/valuation"
	"github.com/meenmo/fixedincome/ytm"
)

func main() {
	terms := bond.Terms{
		IssueDate:    time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		MaturityDate: time.Date(2034, 2, 15, 0, 0, 0, 0, time.UTC),
		Face:         decimal.NewFromInt(100),
		CouponRate:   0.04,
		Frequency:    bond.FreqSemiAnnual,
		DayCount:     daycount.ActualActualICMA,
		Compounding:  daycount.SemiAnnual,
	}
	cfs, err := bond.GenerateCashflows(terms)
	if err != nil {
		panic(err)
	}

	quotes := []curve.Point{
		{Tenor: 1, Rate: 0.0410},
		{Tenor: 2, Rate: 0.0395},
		{Tenor: 3, Rate: 0.0388},
		{Tenor: 5, Rate: 0.0385},
		{Tenor: 7, Rate: 0.0390},
		{Tenor: 10, Rate: 0.0402},
		{Tenor: 15, Rate: 0.0415},
	}
	start, err := curve.BootstrapSwapCurve(quotes, 1, curve.LogLinear)
	if err != nil {
		panic(err)
	}
	shifted := make([]curve.Point, len(quotes))
	for i, q := range quotes {
		shifted[i] = curve.Point{Tenor: q.Tenor, Rate: q.Rate - 0.0025}
	}
	end, err := curve.BootstrapSwapCurve(shifted, 1, curve.LogLinear)
	if err != nil {
		panic(err)
	}

	d0 := time.Date(2025, 11, 21, 0, 0, 0, 0, time.UTC)
	d1 := time.Date(2026, 5, 21, 0, 0, 0, 0, time.UTC)

	flat := valuation.FlatYield{Rate: 0.041, DayCount: daycount.ActualActual, Compounding: daycount.SemiAnnual}
	pv, err := valuation.PresentValue(cfs, flat, d0)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Dirty price @ 4.10%%: %.6f\n", pv.Value)
	fmt.Printf("Duration: %.4f  Convexity: %.4f  DV01: %.6f\n", pv.Duration, pv.Convexity, pv.DV01)

	y, err := ytm.Solve(cfs, 99.5, d0, ytm.Options{Compounding: daycount.SemiAnnual})
	if err != nil {
		panic(err)
	}
	fmt.Printf("Yield @ 99.5: %.6f%% (%d iterations)\n", y.Yield*100, y.Iterations)

	opts := pnl.Options{Extrapolation: curve.ExtrapolateFlat, Yield: ytm.Options{Compounding: daycount.SemiAnnual}}
	s0, err := pnl.NewSnapshot(cfs, d0, start, 99.5, opts)
	if err != nil {
		panic(err)
	}
	s1, err := pnl.NewSnapshot(cfs, d1, end, 101.0, opts)
	if err != nil {
		panic(err)
	}
	r, err := pnl.Attribute(s0, s1, start, end, opts)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Cash carry: %.6f\n", r.CashCarry)
	fmt.Printf("Realized forward: %.6f\n", r.RealizedForward)
	fmt.Printf("Spread residual: %.6f (curve %.6f, spread %.6f)\n", r.SpreadResidual, r.CurveShift, r.SpreadChange)
	fmt.Printf("Total: %.6f\n", r.Total)

	_, effective, maturity := swap.Dates(d0, calendar.TARGET, 2, 0, 5)
	irs := swap.Swap{
		EffectiveDate: effective,
		MaturityDate:  maturity,
		Notional:      10_000_000,
		FixedRate:     0.0385,
		Direction:     swap.PayFixed,
		Fixed:         swap.Leg{Frequency: bond.FreqAnnual, DayCount: daycount.Actual360, PaymentLag: 2},
		Float:         swap.Leg{Frequency: bond.FreqAnnual, DayCount: daycount.Actual360, PaymentLag: 2},
		Calendar:      calendar.TARGET,
		Adjustment:    calendar.ModifiedFollowing,
	}
	src := valuation.CurveSource{Curve: start, Origin: d0, Extrapolation: curve.ExtrapolateFlat}
	res, err := swap.Price(irs, swap.Market{Discount: src}, d0)
	if err != nil {
		panic(err)
	}
	fmt.Printf("5Y swap NPV: %.2f  par rate: %.6f%%  PV01: %.2f\n", res.NPV, res.ParRate*100, res.PV01)
}
