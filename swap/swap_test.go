package swap_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/fixedincome/bond"
	"github.com/meenmo/fixedincome/calendar"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/swap"
	"github.com/meenmo/fixedincome/valuation"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func annualLeg() swap.Leg {
	return swap.Leg{Frequency: bond.FreqAnnual, DayCount: daycount.Actual360}
}

func fiveYear(effective time.Time) swap.Swap {
	return swap.Swap{
		EffectiveDate: effective,
		MaturityDate:  effective.AddDate(5, 0, 0),
		Notional:      1_000_000,
		FixedRate:     0.03,
		Direction:     swap.ReceiveFixed,
		Fixed:         annualLeg(),
		Float:         annualLeg(),
	}
}

func daily(t *testing.T, from time.Time, days int, rate float64) swap.Fixings {
	t.Helper()
	in := make([]swap.Fixing, days)
	for i := range in {
		in[i] = swap.Fixing{Date: from.AddDate(0, 0, i), Rate: rate}
	}
	f, err := swap.NewFixings(in)
	require.NoError(t, err)
	return f
}

var flat3 = valuation.FlatYield{Rate: 0.03, DayCount: daycount.Actual365F, Compounding: daycount.Continuous}

func TestFixings_Growth(t *testing.T) {
	t.Parallel()

	f := daily(t, date(2024, 1, 1), 10, 0.0112)
	g, err := f.Growth(date(2024, 1, 1), date(2024, 1, 11), daycount.Actual360)
	require.NoError(t, err)
	assert.InDelta(t, math.Pow(1+0.0112/360, 10), g, 1e-14)

	// Friday's fixing covers the weekend.
	weekly, err := swap.NewFixings([]swap.Fixing{
		{Date: date(2025, 1, 6), Rate: 0.04},  // Mon
		{Date: date(2025, 1, 10), Rate: 0.05}, // Fri
		{Date: date(2025, 1, 13), Rate: 0.06}, // Mon
	})
	require.NoError(t, err)
	g, err = weekly.Growth(date(2025, 1, 6), date(2025, 1, 14), daycount.Actual365F)
	require.NoError(t, err)
	assert.InDelta(t, (1+0.04*4/365.0)*(1+0.05*3/365.0)*(1+0.06/365.0), g, 1e-14)

	r, err := weekly.CompoundedRate(date(2025, 1, 10), date(2025, 1, 13), daycount.Actual365F)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, r, 1e-12)

	rate, ok := weekly.RateOn(date(2025, 1, 12))
	require.True(t, ok)
	assert.Equal(t, 0.05, rate)
	_, ok = weekly.RateOn(date(2025, 1, 5))
	assert.False(t, ok)
}

func TestFixings_Missing(t *testing.T) {
	t.Parallel()

	f := daily(t, date(2025, 1, 6), 5, 0.04)
	_, err := f.Growth(date(2025, 1, 1), date(2025, 1, 8), daycount.Actual360)
	assert.ErrorIs(t, err, swap.ErrMissingFixing)

	_, err = f.Growth(date(2025, 1, 6), date(2025, 2, 6), daycount.Actual360)
	assert.ErrorIs(t, err, swap.ErrMissingFixing, "last fixing carried past the allowed gap")

	g, err := f.Growth(date(2025, 1, 8), date(2025, 1, 8), daycount.Actual360)
	require.NoError(t, err)
	assert.Equal(t, 1.0, g)

	_, err = swap.NewFixings([]swap.Fixing{{Date: date(2025, 1, 6), Rate: 0.04}, {Date: date(2025, 1, 6), Rate: 0.05}})
	assert.ErrorIs(t, err, swap.ErrInvalidSwap)
	_, err = swap.NewFixings([]swap.Fixing{{Date: date(2025, 1, 6), Rate: math.NaN()}})
	assert.ErrorIs(t, err, swap.ErrInvalidSwap)
}

func TestPrice_SpotStartingFloatLegTelescopes(t *testing.T) {
	t.Parallel()

	asOf := date(2025, 1, 15)
	s := fiveYear(asOf)
	res, err := swap.Price(s, swap.Market{Discount: flat3}, asOf)
	require.NoError(t, err)

	dfT, err := flat3.DiscountFactor(asOf, s.MaturityDate)
	require.NoError(t, err)
	assert.InDelta(t, s.Notional*(1-dfT), res.FloatLegPV, 1e-6)
	assert.InDelta(t, res.FixedLegPV-res.FloatLegPV, res.NPV, 1e-9)
	assert.Len(t, res.Cashflows, 10)
	assert.InDelta(t, res.ParRate*res.PV01*1e4, res.FloatLegPV, 1e-6)

	s.Direction = swap.PayFixed
	payer, err := swap.Price(s, swap.Market{Discount: flat3}, asOf)
	require.NoError(t, err)
	assert.InDelta(t, -res.NPV, payer.NPV, 1e-9)
}

func TestPrice_ParRateAndSpreadZeroTheNPV(t *testing.T) {
	t.Parallel()

	asOf := date(2025, 1, 15)
	s := fiveYear(asOf)
	res, err := swap.Price(s, swap.Market{Discount: flat3}, asOf)
	require.NoError(t, err)

	atPar := s
	atPar.FixedRate = res.ParRate
	got, err := swap.Price(atPar, swap.Market{Discount: flat3}, asOf)
	require.NoError(t, err)
	assert.InDelta(t, 0, got.NPV, 1e-6)

	spread := s
	spread.SpreadBP = res.ParSpreadBP
	got, err = swap.Price(spread, swap.Market{Discount: flat3}, asOf)
	require.NoError(t, err)
	assert.InDelta(t, 0, got.NPV, 1e-6)
	assert.InDelta(t, res.ParSpreadBP, got.ParSpreadBP, 1e-9)
}

func TestPrice_SeasonedPeriodCompoundsFixings(t *testing.T) {
	t.Parallel()

	effective := date(2025, 1, 2)
	asOf := date(2025, 1, 12)
	s := fiveYear(effective)
	fixings := daily(t, effective, 10, 0.045)

	res, err := swap.Price(s, swap.Market{Discount: flat3, Fixings: fixings}, asOf)
	require.NoError(t, err)

	var first swap.Cashflow
	for _, cf := range res.Cashflows {
		if cf.Leg == swap.FloatLeg {
			first = cf
			break
		}
	}
	require.Equal(t, effective, first.Start)
	dfEnd, err := flat3.DiscountFactor(asOf, first.End)
	require.NoError(t, err)
	growth := math.Pow(1+0.045/360, 10) / dfEnd
	assert.InDelta(t, (growth-1)/first.Fraction, first.Rate, 1e-12)
	assert.InDelta(t, s.Notional*(growth-1), first.Amount, 1e-6)

	_, err = swap.Price(s, swap.Market{Discount: flat3}, asOf)
	assert.ErrorIs(t, err, swap.ErrMissingFixing)
}

func TestPrice_SeparateProjection(t *testing.T) {
	t.Parallel()

	asOf := date(2025, 1, 15)
	s := fiveYear(asOf)
	single, err := swap.Price(s, swap.Market{Discount: flat3}, asOf)
	require.NoError(t, err)

	higher := flat3
	higher.Rate = 0.035
	dual, err := swap.Price(s, swap.Market{Discount: flat3, Projection: higher}, asOf)
	require.NoError(t, err)
	assert.InDelta(t, single.FixedLegPV, dual.FixedLegPV, 1e-9)
	assert.Greater(t, dual.FloatLegPV, single.FloatLegPV)
	assert.Less(t, dual.NPV, single.NPV)
}

func TestPeriods_PaymentLagInBusinessDays(t *testing.T) {
	t.Parallel()

	s := swap.Swap{
		EffectiveDate: date(2025, 1, 6),
		MaturityDate:  date(2026, 1, 6),
		Notional:      100,
		Direction:     swap.PayFixed,
		Fixed:         swap.Leg{Frequency: bond.FreqAnnual, DayCount: daycount.Actual360, PaymentLag: 2},
		Float:         annualLeg(),
		Calendar:      calendar.Weekend,
		Adjustment:    calendar.Following,
	}
	ps, err := s.Periods(s.Fixed)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, date(2026, 1, 8), ps[0].PayDate)
	assert.InDelta(t, 365.0/360, ps[0].Fraction, 1e-15)

	// Friday end: two business days later is Tuesday.
	s.MaturityDate = date(2026, 1, 9)
	ps, err = s.Periods(s.Fixed)
	require.NoError(t, err)
	assert.Equal(t, date(2026, 1, 13), ps[len(ps)-1].PayDate)
}

func TestPeriods_FoldsShortFrontStub(t *testing.T) {
	t.Parallel()

	s := fiveYear(date(2025, 1, 13))
	s.MaturityDate = date(2030, 1, 14)
	ps, err := s.Periods(s.Float)
	require.NoError(t, err)
	require.Len(t, ps, 5)
	assert.Equal(t, date(2025, 1, 13), ps[0].Start)
	assert.Equal(t, date(2026, 1, 14), ps[0].End)
	assert.InDelta(t, 366.0/360, ps[0].Fraction, 1e-15)

	// A stub of MinStubDays or more stays separate.
	s.MaturityDate = date(2030, 1, 21)
	ps, err = s.Periods(s.Float)
	require.NoError(t, err)
	require.Len(t, ps, 6)
	assert.Equal(t, date(2025, 1, 21), ps[0].End)
}

func TestDates(t *testing.T) {
	t.Parallel()

	spot, effective, maturity := swap.Dates(date(2025, 1, 9), calendar.Weekend, 2, 0, 5)
	assert.Equal(t, date(2025, 1, 13), spot)
	assert.Equal(t, spot, effective)
	assert.Equal(t, date(2030, 1, 14), maturity)

	_, effective, _ = swap.Dates(date(2025, 1, 9), calendar.Weekend, 2, 1, 5)
	assert.Equal(t, date(2026, 1, 13), effective)
}

func TestMarkToFixings(t *testing.T) {
	t.Parallel()

	effective := date(2024, 1, 1)
	s := fiveYear(effective)
	s.FixedRate = 0.00112
	s.Direction = swap.PayFixed
	fixings := daily(t, effective, 10, 0.00112)

	v, err := swap.MarkToFixings(s, fixings, effective.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.InDelta(t, 0, v, 1e-9)

	v, err = swap.MarkToFixings(s, fixings, effective.AddDate(0, 0, 10))
	require.NoError(t, err)
	want := s.Notional * (math.Pow(1+0.00112/360, 10) - 1 - 0.00112*10/360)
	assert.InDelta(t, want, v, 1e-8)
	assert.Positive(t, v)

	s.Direction = swap.ReceiveFixed
	rv, err := swap.MarkToFixings(s, fixings, effective.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.InDelta(t, -v, rv, 1e-12)

	v, err = swap.MarkToFixings(s, fixings, effective.AddDate(0, 0, -3))
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	good := fiveYear(date(2025, 1, 15))
	require.NoError(t, good.Validate())

	for name, mutate := range map[string]func(*swap.Swap){
		"notional":  func(s *swap.Swap) { s.Notional = 0 },
		"direction": func(s *swap.Swap) { s.Direction = "BOTH" },
		"dates":     func(s *swap.Swap) { s.MaturityDate = s.EffectiveDate },
		"lag":       func(s *swap.Swap) { s.Float.PaymentLag = -1 },
	} {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := good
			mutate(&s)
			assert.ErrorIs(t, s.Validate(), swap.ErrInvalidSwap)
		})
	}

	bad := good
	bad.Fixed.Frequency = 5
	_, err := swap.Price(bad, swap.Market{Discount: flat3}, good.EffectiveDate)
	assert.ErrorIs(t, err, swap.ErrInvalidSwap)
	assert.ErrorIs(t, err, bond.ErrInvalidTerms)

	_, err = swap.Price(good, swap.Market{}, good.EffectiveDate)
	assert.ErrorIs(t, err, swap.ErrInvalidSwap)

	d, err := swap.ParseDirection("receive")
	require.NoError(t, err)
	assert.Equal(t, swap.ReceiveFixed, d)
	_, err = swap.ParseDirection("long")
	assert.ErrorIs(t, err, swap.ErrInvalidSwap)
}
