package swap

import (
	"fmt"
	"time"

	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/valuation"
)

// LegType names the leg a cashflow belongs to.
type LegType string

const (
	FixedLeg LegType = "FIXED"
	FloatLeg LegType = "FLOAT"
)

// Market is what a swap is priced against. Projection, when nil, is Discount.
type Market struct {
	Discount   valuation.DiscountSource
	Projection valuation.DiscountSource
	Fixings    Fixings
}

// Cashflow is one leg payment. Amount is unsigned; Rate is the fixed rate
// or the compounded overnight rate plus spread.
type Cashflow struct {
	Leg            LegType
	Start          time.Time
	End            time.Time
	PayDate        time.Time
	Fraction       float64
	Rate           float64
	Amount         float64
	DiscountFactor float64
	PresentValue   float64
}

// Result is a priced swap. Leg PVs are unsigned; NPV is signed for the
// position's direction.
type Result struct {
	FixedLegPV  float64 `json:"fixed_leg_pv"`
	FloatLegPV  float64 `json:"float_leg_pv"`
	NPV         float64 `json:"npv"`
	ParRate     float64 `json:"par_rate"`
	ParSpreadBP float64 `json:"par_spread_bp"`
	// PV01 is the value of 1bp on the fixed leg.
	PV01      float64    `json:"pv01"`
	Cashflows []Cashflow `json:"-"`
}

// Price values the payments of s due on or after asOf.
//
// A floating period that started before asOf compounds fixings up to asOf
// and projects the remainder; a later period is projected entirely from
// DF(start)/DF(end).
func Price(s Swap, m Market, asOf time.Time) (Result, error) {
	if m.Discount == nil {
		return Result{}, fmt.Errorf("Price: discount source is required: %w", ErrInvalidSwap)
	}
	proj := m.Projection
	if proj == nil {
		proj = m.Discount
	}

	fixed, err := s.Periods(s.Fixed)
	if err != nil {
		return Result{}, fmt.Errorf("Price: fixed leg: %w", err)
	}
	floating, err := s.Periods(s.Float)
	if err != nil {
		return Result{}, fmt.Errorf("Price: float leg: %w", err)
	}

	var res Result
	var fixedAnnuity, floatAnnuity float64
	for _, p := range fixed {
		if p.PayDate.Before(asOf) {
			continue
		}
		df, err := m.Discount.DiscountFactor(asOf, p.PayDate)
		if err != nil {
			return Result{}, fmt.Errorf("Price: fixed leg: %w", err)
		}
		cf := newCashflow(FixedLeg, p, s.FixedRate, s.Notional, df)
		res.FixedLegPV += cf.PresentValue
		fixedAnnuity += p.Fraction * df
		res.Cashflows = append(res.Cashflows, cf)
	}

	spread := s.SpreadBP * 1e-4
	for _, p := range floating {
		if p.PayDate.Before(asOf) {
			continue
		}
		growth, err := periodGrowth(s, p, proj, m.Fixings, asOf)
		if err != nil {
			return Result{}, fmt.Errorf("Price: float leg %s: %w", p.Start.Format(time.DateOnly), err)
		}
		df, err := m.Discount.DiscountFactor(asOf, p.PayDate)
		if err != nil {
			return Result{}, fmt.Errorf("Price: float leg: %w", err)
		}
		rate := spread
		if p.Fraction > 0 {
			rate += (growth - 1) / p.Fraction
		}
		cf := newCashflow(FloatLeg, p, rate, s.Notional, df)
		res.FloatLegPV += cf.PresentValue
		floatAnnuity += p.Fraction * df
		res.Cashflows = append(res.Cashflows, cf)
	}

	res.NPV = res.FixedLegPV - res.FloatLegPV
	if s.Direction == PayFixed {
		res.NPV = -res.NPV
	}
	res.PV01 = s.Notional * fixedAnnuity * 1e-4
	if fixedAnnuity > 0 {
		res.ParRate = res.FloatLegPV / (s.Notional * fixedAnnuity)
	}
	res.ParSpreadBP = s.SpreadBP
	if floatAnnuity > 0 {
		res.ParSpreadBP += (res.FixedLegPV - res.FloatLegPV) / (s.Notional * floatAnnuity * 1e-4)
	}
	return res, nil
}

func newCashflow(leg LegType, p Period, rate, notional, df float64) Cashflow {
	amount := notional * rate * p.Fraction
	return Cashflow{
		Leg:            leg,
		Start:          p.Start,
		End:            p.End,
		PayDate:        p.PayDate,
		Fraction:       p.Fraction,
		Rate:           rate,
		Amount:         amount,
		DiscountFactor: df,
		PresentValue:   amount * df,
	}
}

func periodGrowth(s Swap, p Period, proj valuation.DiscountSource, fixings Fixings, asOf time.Time) (float64, error) {
	if !p.Start.Before(asOf) {
		dfStart, err := proj.DiscountFactor(asOf, p.Start)
		if err != nil {
			return 0, err
		}
		dfEnd, err := proj.DiscountFactor(asOf, p.End)
		if err != nil {
			return 0, err
		}
		return dfStart / dfEnd, nil
	}

	realizedEnd := p.End
	if asOf.Before(realizedEnd) {
		realizedEnd = asOf
	}
	growth, err := fixings.Growth(p.Start, realizedEnd, s.Float.DayCount)
	if err != nil {
		return 0, err
	}
	if !asOf.Before(p.End) {
		return growth, nil
	}
	dfEnd, err := proj.DiscountFactor(asOf, p.End)
	if err != nil {
		return 0, err
	}
	return growth / dfEnd, nil
}

// MarkToFixings values the exchange from the effective date to asOf on
// realized fixings alone: the compounded floating amount, spread included,
// against the simple fixed amount. Both accrue on the floating leg's day
// count. The result is signed for the position's direction.
func MarkToFixings(s Swap, fixings Fixings, asOf time.Time) (float64, error) {
	if err := s.Validate(); err != nil {
		return 0, fmt.Errorf("MarkToFixings: %w", err)
	}
	if asOf.Before(s.EffectiveDate) {
		return 0, nil
	}
	end := asOf
	if s.MaturityDate.Before(end) {
		end = s.MaturityDate
	}
	growth, err := fixings.Growth(s.EffectiveDate, end, s.Float.DayCount)
	if err != nil {
		return 0, fmt.Errorf("MarkToFixings: %w", err)
	}
	tau, err := daycount.AccrualFraction(s.EffectiveDate, end, s.Float.DayCount)
	if err != nil {
		return 0, fmt.Errorf("MarkToFixings: %w", err)
	}
	floatSide := s.Notional * (growth - 1 + s.SpreadBP*1e-4*tau)
	fixedSide := s.Notional * s.FixedRate * tau
	if s.Direction == PayFixed {
		return floatSide - fixedSide, nil
	}
	return fixedSide - floatSide, nil
}
