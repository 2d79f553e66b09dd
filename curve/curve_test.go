package curve_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/solver"
)

var upward = []curve.Point{
	{Tenor: 0.5, Rate: 0.020},
	{Tenor: 1, Rate: 0.025},
	{Tenor: 2, Rate: 0.030},
	{Tenor: 5, Rate: 0.035},
	{Tenor: 10, Rate: 0.040},
}

var methods = []curve.Interpolation{curve.Linear, curve.LogLinear, curve.FlatForward}

func TestBuildCurve_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	cases := map[string][]curve.Point{
		"empty":          nil,
		"duplicate":      {{Tenor: 1, Rate: 0.01}, {Tenor: 1, Rate: 0.02}},
		"decreasing":     {{Tenor: 2, Rate: 0.01}, {Tenor: 1, Rate: 0.02}},
		"negative tenor": {{Tenor: -1, Rate: 0.01}},
		"nan rate":       {{Tenor: 1, Rate: math.NaN()}},
		"inf tenor":      {{Tenor: math.Inf(1), Rate: 0.01}},
	}
	for name, pts := range cases {
		_, err := curve.BuildCurve(pts, curve.Linear)
		assert.ErrorIs(t, err, curve.ErrInvalidCurveInput, name)
	}

	_, err := curve.BuildCurve(upward, curve.Interpolation("CUBIC"))
	assert.ErrorIs(t, err, curve.ErrInvalidCurveInput)

	// 1 + r/n must stay positive.
	_, err = curve.BuildCurve([]curve.Point{{Tenor: 1, Rate: -3}}, curve.Linear, curve.WithCompounding(daycount.SemiAnnual))
	assert.ErrorIs(t, err, curve.ErrInvalidCurveInput)
	assert.ErrorIs(t, err, daycount.ErrInvalidRate)
}

func TestRateCurve_ExactAtNodes(t *testing.T) {
	t.Parallel()

	for _, m := range methods {
		for _, comp := range []daycount.Compounding{daycount.Continuous, daycount.Annual} {
			c, err := curve.BuildCurve(upward, m, curve.WithCompounding(comp))
			require.NoError(t, err)
			for _, p := range upward {
				r, err := c.ZeroRate(p.Tenor, curve.ExtrapolateNone)
				require.NoError(t, err)
				assert.Equal(t, p.Rate, r, "%s %s tenor %g", m, comp, p.Tenor)

				df, err := c.DiscountFactor(p.Tenor, curve.ExtrapolateNone)
				require.NoError(t, err)
				want, err := daycount.DiscountFactor(p.Rate, p.Tenor, comp)
				require.NoError(t, err)
				assert.InDelta(t, want, df, 1e-15)
			}
		}
	}
}

func TestRateCurve_MonotoneBetweenNodes(t *testing.T) {
	t.Parallel()

	for _, m := range methods {
		for _, comp := range []daycount.Compounding{daycount.Continuous, daycount.SemiAnnual} {
			c, err := curve.BuildCurve(upward, m, curve.WithCompounding(comp))
			require.NoError(t, err)
			prev := upward[0].Rate
			for i := 0; i <= 190; i++ {
				tenor := math.Min(0.5+float64(i)*0.05, 10)
				r, err := c.ZeroRate(tenor, curve.ExtrapolateNone)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, r, prev-1e-12, "%s %s tenor %g", m, comp, tenor)
				prev = r
			}
		}
	}
}

func TestRateCurve_LinearMidpoint(t *testing.T) {
	t.Parallel()

	c, err := curve.BuildCurve(upward, curve.Linear)
	require.NoError(t, err)
	r, err := c.ZeroRate(3.5, curve.ExtrapolateNone)
	require.NoError(t, err)
	assert.InDelta(t, 0.0325, r, 1e-15)
}

func TestRateCurve_FlatForwardMatchesLogLinearWhenContinuous(t *testing.T) {
	t.Parallel()

	ll, err := curve.BuildCurve(upward, curve.LogLinear)
	require.NoError(t, err)
	ff, err := curve.BuildCurve(upward, curve.FlatForward)
	require.NoError(t, err)
	for _, tenor := range []float64{0.7, 1.3, 4.2, 9.9} {
		a, err := ll.DiscountFactor(tenor, curve.ExtrapolateNone)
		require.NoError(t, err)
		b, err := ff.DiscountFactor(tenor, curve.ExtrapolateNone)
		require.NoError(t, err)
		assert.InDelta(t, a, b, 1e-14)
	}
}

func TestRateCurve_Extrapolation(t *testing.T) {
	t.Parallel()

	c, err := curve.BuildCurve(upward, curve.Linear)
	require.NoError(t, err)

	_, err = c.ZeroRate(12, curve.ExtrapolateNone)
	assert.ErrorIs(t, err, curve.ErrExtrapolationNotSupported)
	_, err = c.DiscountFactor(0.25, curve.ExtrapolateNone)
	assert.ErrorIs(t, err, curve.ErrExtrapolationNotSupported)

	r, err := c.ZeroRate(12, curve.ExtrapolateFlat)
	require.NoError(t, err)
	assert.Equal(t, 0.040, r)
	df, err := c.DiscountFactor(12, curve.ExtrapolateFlat)
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(-0.04*12), df, 1e-15)

	r, err = c.ZeroRate(0.25, curve.ExtrapolateFlat)
	require.NoError(t, err)
	assert.Equal(t, 0.020, r)

	df, err = c.DiscountFactor(0, curve.ExtrapolateNone)
	require.NoError(t, err)
	assert.Equal(t, 1.0, df)

	_, err = c.ZeroRate(-1, curve.ExtrapolateFlat)
	assert.ErrorIs(t, err, curve.ErrInvalidCurveInput)
}

func TestRateCurve_ForwardRate(t *testing.T) {
	t.Parallel()

	c, err := curve.BuildCurve(upward, curve.LogLinear)
	require.NoError(t, err)
	f, err := c.ForwardRate(1, 2, curve.ExtrapolateNone)
	require.NoError(t, err)
	assert.InDelta(t, 0.030*2-0.025*1, f, 1e-14)

	_, err = c.ForwardRate(2, 1, curve.ExtrapolateNone)
	assert.ErrorIs(t, err, curve.ErrInvalidCurveInput)
}

func TestRateCurve_PointsAreCopied(t *testing.T) {
	t.Parallel()

	in := append([]curve.Point(nil), upward...)
	c, err := curve.BuildCurve(in, curve.Linear)
	require.NoError(t, err)
	in[0].Rate = 1
	out := c.Points()
	out[1].Rate = 1
	assert.Equal(t, upward, c.Points())
}

func TestParseTenor(t *testing.T) {
	t.Parallel()

	cases := map[string]float64{
		"1W":    7.0 / 365.0,
		"3m":    0.25,
		"10Y":   10,
		"30D":   30.0 / 365.0,
		"2.5":   2.5,
		" 18M ": 1.5,
	}
	for in, want := range cases {
		got, err := curve.ParseTenor(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-15, in)
	}
	for _, bad := range []string{"", "Y", "1.5Y", "abc", "-1"} {
		_, err := curve.ParseTenor(bad)
		assert.ErrorIs(t, err, curve.ErrInvalidCurveInput, bad)
	}
}

var swapQuotes = []curve.Point{
	{Tenor: 1, Rate: 0.030},
	{Tenor: 2, Rate: 0.032},
	{Tenor: 3, Rate: 0.034},
	{Tenor: 5, Rate: 0.036},
	{Tenor: 7, Rate: 0.037},
	{Tenor: 10, Rate: 0.038},
}

func TestBootstrapSwapCurve_RepricesParSwaps(t *testing.T) {
	t.Parallel()

	for _, sv := range []solver.Solver{solver.Bisection{Tolerance: 1e-14}, solver.Secant{Tolerance: 1e-14}} {
		c, err := curve.BootstrapSwapCurve(swapQuotes, 2, curve.LogLinear, curve.WithSolver(sv))
		require.NoError(t, err)
		require.Len(t, c.Points(), len(swapQuotes))

		for _, q := range swapQuotes {
			annuity := 0.0
			for k := 1; float64(k)*0.5 <= q.Tenor+1e-12; k++ {
				df, err := c.DiscountFactor(float64(k)*0.5, curve.ExtrapolateFlat)
				require.NoError(t, err)
				annuity += 0.5 * df
			}
			dfT, err := c.DiscountFactor(q.Tenor, curve.ExtrapolateNone)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, q.Rate*annuity+dfT, 1e-10, "tenor %g", q.Tenor)
		}
	}
}

func TestBootstrapSwapCurve_StubAndSinglePeriod(t *testing.T) {
	t.Parallel()

	c, err := curve.BootstrapSwapCurve([]curve.Point{{Tenor: 0.25, Rate: 0.02}, {Tenor: 1.25, Rate: 0.025}}, 1, curve.LogLinear)
	require.NoError(t, err)

	df, err := c.DiscountFactor(0.25, curve.ExtrapolateNone)
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+0.02*0.25), df, 1e-12)

	// 1.25y annual leg: stub 0.25 then 1.0.
	df125, err := c.DiscountFactor(1.25, curve.ExtrapolateNone)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, 0.025*(0.25*df+1.0*df125)+df125, 1e-10)
}

func TestBootstrapSwapCurve_InvalidInput(t *testing.T) {
	t.Parallel()

	_, err := curve.BootstrapSwapCurve(nil, 1, curve.LogLinear)
	assert.ErrorIs(t, err, curve.ErrInvalidCurveInput)
	_, err = curve.BootstrapSwapCurve(swapQuotes, 0, curve.LogLinear)
	assert.ErrorIs(t, err, curve.ErrInvalidCurveInput)
	_, err = curve.BootstrapSwapCurve([]curve.Point{{Tenor: 2, Rate: 0.01}, {Tenor: 1, Rate: 0.01}}, 1, curve.LogLinear)
	assert.ErrorIs(t, err, curve.ErrInvalidCurveInput)
}

func TestBootstrapBondCurve(t *testing.T) {
	t.Parallel()

	quotes := []curve.BondQuote{
		{Coupon: 2.875, Tenor: 0.5, Price: 101.4297},
		{Coupon: 2.125, Tenor: 1.0, Price: 102.0662},
		{Coupon: 1.625, Tenor: 1.5, Price: 102.2862},
		{Coupon: 0.125, Tenor: 2.0, Price: 99.9538},
		{Coupon: 0.25, Tenor: 2.5, Price: 100.0795},
		{Coupon: 0.25, Tenor: 3.0, Price: 99.7670},
		{Coupon: 2.25, Tenor: 3.5, Price: 106.3091},
	}
	c, dfs, err := curve.BootstrapBondCurve(quotes, 2, curve.LogLinear)
	require.NoError(t, err)

	want := []float64{0.9999231, 0.99941903, 0.9985045, 0.99704117, 0.9945582, 0.99019545, 0.9847417}
	require.Len(t, dfs, len(want))
	for i := range want {
		assert.InDelta(t, want[i], dfs[i], 5e-8, "pillar %d", i)
		df, err := c.DiscountFactor(quotes[i].Tenor, curve.ExtrapolateNone)
		require.NoError(t, err)
		assert.InDelta(t, dfs[i], df, 1e-14)
	}

	_, _, err = curve.BootstrapBondCurve(quotes[1:], 2, curve.LogLinear)
	assert.ErrorIs(t, err, curve.ErrInvalidCurveInput)
}
