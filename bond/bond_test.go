package bond_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/fixedincome/bond"
	"github.com/meenmo/fixedincome/calendar"
	"github.com/meenmo/fixedincome/daycount"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func amount(cf bond.Cashflow) float64 {
	return cf.Amount().InexactFloat64()
}

func baseTerms() bond.Terms {
	return bond.Terms{
		IssueDate:    date(2025, 1, 15),
		MaturityDate: date(2027, 1, 15),
		Face:         decimal.NewFromInt(100),
		CouponRate:   0.05,
		Frequency:    bond.FreqAnnual,
		DayCount:     daycount.ActualActualICMA,
		Compounding:  daycount.Annual,
	}
}

func TestGenerateCashflows_RegularAnnual(t *testing.T) {
	t.Parallel()

	cfs, err := bond.GenerateCashflows(baseTerms())
	require.NoError(t, err)
	require.Len(t, cfs, 2)
	assert.Equal(t, date(2026, 1, 15), cfs[0].Date)
	assert.Equal(t, date(2027, 1, 15), cfs[1].Date)
	assert.InDelta(t, 5.0, amount(cfs[0]), 1e-12)
	assert.InDelta(t, 105.0, amount(cfs[1]), 1e-12)
	assert.True(t, cfs[1].Principal.Equal(decimal.NewFromInt(100)))
	require.NoError(t, cfs.Validate())
}

func TestGenerateCashflows_ShortFirstStub(t *testing.T) {
	t.Parallel()

	terms := baseTerms()
	terms.IssueDate = date(2025, 3, 1)
	terms.Frequency = bond.FreqSemiAnnual
	terms.CouponRate = 0.04
	terms.DayCount = daycount.Thirty360

	cfs, err := bond.GenerateCashflows(terms)
	require.NoError(t, err)
	require.Len(t, cfs, 4)
	assert.Equal(t, []time.Time{date(2025, 7, 15), date(2026, 1, 15), date(2026, 7, 15), date(2027, 1, 15)},
		[]time.Time{cfs[0].Date, cfs[1].Date, cfs[2].Date, cfs[3].Date})

	// The stub accrues 134 days on 30/360, not a full half year.
	assert.InDelta(t, 100*0.04*134.0/360.0, amount(cfs[0]), 1e-12)
	assert.Equal(t, terms.IssueDate, cfs[0].AccrualStart)
	assert.InDelta(t, 2.0, amount(cfs[1]), 1e-12)
	assert.InDelta(t, 102.0, amount(cfs[3]), 1e-12)
}

func TestGenerateCashflows_ICMAStubUsesReferencePeriod(t *testing.T) {
	t.Parallel()

	terms := baseTerms()
	terms.IssueDate = date(2025, 3, 1)
	terms.Frequency = bond.FreqSemiAnnual
	terms.CouponRate = 0.04

	cfs, err := bond.GenerateCashflows(terms)
	require.NoError(t, err)
	assert.InDelta(t, 100*0.04*136.0/362.0, amount(cfs[0]), 1e-12)
	assert.InDelta(t, 2.0, amount(cfs[1]), 1e-12)
}

func TestGenerateCashflows_ShortLastStub(t *testing.T) {
	t.Parallel()

	terms := baseTerms()
	terms.MaturityDate = date(2026, 3, 1)
	terms.Frequency = bond.FreqSemiAnnual
	terms.Stub = bond.ShortLast
	terms.DayCount = daycount.Actual365F

	cfs, err := bond.GenerateCashflows(terms)
	require.NoError(t, err)
	require.Len(t, cfs, 3)
	assert.Equal(t, date(2025, 7, 15), cfs[0].Date)
	assert.Equal(t, date(2026, 1, 15), cfs[1].Date)
	assert.Equal(t, date(2026, 3, 1), cfs[2].Date)
	assert.InDelta(t, 100*0.05*45.0/365.0+100, amount(cfs[2]), 1e-12)
}

func TestGenerateCashflows_ZeroCoupon(t *testing.T) {
	t.Parallel()

	terms := baseTerms()
	terms.CouponRate = 0

	cfs, err := bond.GenerateCashflows(terms)
	require.NoError(t, err)
	require.Len(t, cfs, 1)
	assert.Equal(t, terms.MaturityDate, cfs[0].Date)
	assert.InDelta(t, 100.0, amount(cfs[0]), 0)
}

func TestGenerateCashflows_AdjustsPaymentDates(t *testing.T) {
	t.Parallel()

	terms := baseTerms()
	terms.IssueDate = date(2025, 5, 15)
	terms.MaturityDate = date(2027, 5, 15) // Saturday
	terms.Calendar = calendar.Weekend
	terms.Adjustment = calendar.Following

	cfs, err := bond.GenerateCashflows(terms)
	require.NoError(t, err)
	require.Len(t, cfs, 2)
	assert.Equal(t, date(2026, 5, 15), cfs[0].Date)
	assert.Equal(t, date(2027, 5, 17), cfs[1].Date)
	// Accrual still runs to the unadjusted date.
	assert.InDelta(t, 105.0, amount(cfs[1]), 1e-12)
}

func TestGenerateCashflows_InvalidTerms(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*bond.Terms){
		"zero frequency":       func(tm *bond.Terms) { tm.Frequency = 0 },
		"odd frequency":        func(tm *bond.Terms) { tm.Frequency = 5 },
		"maturity before":      func(tm *bond.Terms) { tm.MaturityDate = tm.IssueDate.AddDate(0, 0, -1) },
		"maturity equal issue": func(tm *bond.Terms) { tm.MaturityDate = tm.IssueDate },
		"zero face":            func(tm *bond.Terms) { tm.Face = decimal.Zero },
		"bad day count":        func(tm *bond.Terms) { tm.DayCount = "BUS/252" },
		"bad stub":             func(tm *bond.Terms) { tm.Stub = "LONG_FIRST" },
	}
	for name, mutate := range cases {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			terms := baseTerms()
			mutate(&terms)
			_, err := bond.GenerateCashflows(terms)
			assert.ErrorIs(t, err, bond.ErrInvalidTerms)
		})
	}
}

func TestGenerateCashflows_FreshScheduleEachCall(t *testing.T) {
	t.Parallel()

	terms := baseTerms()
	a, err := bond.GenerateCashflows(terms)
	require.NoError(t, err)
	a[0].Coupon = decimal.NewFromInt(99)

	b, err := bond.GenerateCashflows(terms)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, amount(b[0]), 1e-12)
}

func TestAccruedInterest(t *testing.T) {
	t.Parallel()

	terms := baseTerms()
	terms.Frequency = bond.FreqSemiAnnual
	terms.MaturityDate = date(2030, 1, 15)

	ai, err := bond.AccruedInterest(terms, date(2025, 4, 16))
	require.NoError(t, err)
	assert.InDelta(t, 100*0.05*91.0/362.0, ai.InexactFloat64(), 1e-12)

	ai, err = bond.AccruedInterest(terms, date(2025, 7, 15))
	require.NoError(t, err)
	assert.True(t, ai.IsZero(), "accrual resets on coupon date")

	ai, err = bond.AccruedInterest(terms, date(2031, 1, 1))
	require.NoError(t, err)
	assert.True(t, ai.IsZero())

	clean, err := bond.CleanPrice(terms, decimal.NewFromFloat(101.5), date(2025, 4, 16))
	require.NoError(t, err)
	assert.InDelta(t, 101.5-100*0.05*91.0/362.0, clean.InexactFloat64(), 1e-12)
}

func TestSchedule_AccruedAtAndFilters(t *testing.T) {
	t.Parallel()

	terms := baseTerms()
	terms.Frequency = bond.FreqSemiAnnual
	terms.DayCount = daycount.Actual365F
	cfs, err := bond.GenerateCashflows(terms)
	require.NoError(t, err)

	mid := date(2025, 4, 15)
	want := cfs[0].Coupon.InexactFloat64() * 90.0 / 181.0
	assert.InDelta(t, want, cfs.AccruedAt(mid).InexactFloat64(), 1e-12)
	assert.True(t, cfs.AccruedAt(cfs[0].Date).IsZero())

	// Without period starts the first period is inferred from the second.
	bare := cfs.Clone()
	for i := range bare {
		bare[i].AccrualStart = time.Time{}
	}
	inferredStart := cfs[0].Date.AddDate(0, 0, -184)
	assert.InDelta(t, bare[0].Coupon.InexactFloat64()*float64(daycount.Days(inferredStart, mid))/184.0,
		bare.AccruedAt(mid).InexactFloat64(), 1e-12)

	assert.Len(t, cfs.Between(date(2025, 7, 15), date(2026, 7, 15)), 2)
	assert.Len(t, cfs.BetweenInclusive(date(2025, 7, 15), date(2026, 7, 15)), 3)
	assert.Len(t, cfs.OnOrAfter(date(2026, 7, 15)), 2)
	assert.Equal(t, date(2027, 1, 15), cfs.Maturity())
}

func TestSchedule_Validate(t *testing.T) {
	t.Parallel()

	s := bond.Schedule{
		{Date: date(2026, 1, 1), Coupon: decimal.NewFromInt(1)},
		{Date: date(2026, 1, 1), Principal: decimal.NewFromInt(100)},
	}
	assert.ErrorIs(t, s.Validate(), bond.ErrUnorderedSchedule)
}

func TestTBill(t *testing.T) {
	t.Parallel()

	bill := bond.TBill{
		IssueDate:    date(2025, 1, 13),
		MaturityDate: date(2025, 4, 14),
		Face:         decimal.NewFromInt(1000),
		DiscountRate: 0.00145,
		Term:         26,
		Unit:         bond.TermWeeks,
	}
	price, err := bill.Price()
	require.NoError(t, err)
	assert.InDelta(t, 999.27, price.InexactFloat64(), 0.01)

	bill.Unit = bond.TermDays
	bill.Term = 26 * 7
	same, err := bill.Price()
	require.NoError(t, err)
	assert.True(t, price.Equal(same))

	bill.Term = 0
	days, err := bill.Days()
	require.NoError(t, err)
	assert.Equal(t, 91, days)

	bey, err := bill.BondEquivalentYield(decimal.NewFromInt(990))
	require.NoError(t, err)
	assert.InDelta(t, (10.0/990.0)*365.0/91.0, bey, 1e-12)

	cfs, err := bill.Cashflows()
	require.NoError(t, err)
	require.Len(t, cfs, 1)
	assert.InDelta(t, 1000.0, amount(cfs[0]), 0)

	bill.Unit = "FORTNIGHTS"
	bill.Term = 2
	_, err = bill.Price()
	assert.ErrorIs(t, err, bond.ErrInvalidTerms)
}

func treasury7625() bond.Terms {
	return bond.Terms{
		IssueDate:    date(2012, 11, 15),
		MaturityDate: date(2022, 11, 15),
		Face:         decimal.NewFromInt(100),
		CouponRate:   0.07625,
		Frequency:    bond.FreqSemiAnnual,
		DayCount:     daycount.ActualActualICMA,
		Compounding:  daycount.SemiAnnual,
	}
}

func TestTransaction_RealizedReturn(t *testing.T) {
	t.Parallel()

	cfs, err := bond.GenerateCashflows(treasury7625())
	require.NoError(t, err)

	tx := bond.Transaction{
		Cashflows:     cfs,
		Frequency:     bond.FreqSemiAnnual,
		PurchaseDate:  date(2020, 11, 1),
		PurchasePrice: decimal.NewFromFloat(114.8765),
		SaleDate:      date(2021, 4, 15),
		SalePrice:     decimal.NewFromFloat(111.3969),
	}
	got, err := tx.RealizedReturn()
	require.NoError(t, err)
	assert.InDelta(t, 0.002897, got, 1e-4)

	tx.PurchaseDate = date(2020, 11, 15)
	tx.SaleDate = date(2021, 5, 15)
	tx.SalePrice = decimal.NewFromInt(108)
	tx.ReinvestmentRate = 0.05
	got, err = tx.RealizedReturn()
	require.NoError(t, err)
	assert.InDelta(t, 0.0073, got, 1e-4)
	assert.InDelta(t, 3.8125*0.025, tx.Reinvestment().InexactFloat64(), 1e-12)
}

func TestTransaction_AnnualizedReturn(t *testing.T) {
	t.Parallel()

	tx := bond.Transaction{
		Frequency:     bond.FreqSemiAnnual,
		PurchaseDate:  date(2020, 1, 1),
		PurchasePrice: decimal.NewFromInt(100),
		SaleDate:      date(2021, 1, 1),
		SalePrice:     decimal.NewFromFloat(110.25),
	}
	got, err := tx.AnnualizedReturn(1)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, got, 1e-12)

	_, err = tx.AnnualizedReturn(0)
	assert.ErrorIs(t, err, bond.ErrInvalidTerms)

	tx.SaleDate = date(2019, 1, 1)
	_, err = tx.RealizedReturn()
	assert.ErrorIs(t, err, bond.ErrInvalidTerms)
}
