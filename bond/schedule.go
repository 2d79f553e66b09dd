package bond

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/fixedincome/calendar"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/utils"
)

// Period is one coupon accrual period.
//
// RefStart/RefEnd bound the notional regular period; they differ from
// Start/End only for stubs.
type Period struct {
	Start    time.Time
	End      time.Time
	RefStart time.Time
	RefEnd   time.Time
	PayDate  time.Time
	Fraction float64
}

// Periods returns the accrual periods implied by t.
func Periods(t Terms) ([]Period, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("Periods: %w", err)
	}

	months := t.Frequency.Months()
	var bounds []time.Time
	if t.Stub == ShortLast {
		bounds = forwardDates(t.IssueDate, t.MaturityDate, months)
	} else {
		bounds = backwardDates(t.IssueDate, t.MaturityDate, months)
	}

	periods := make([]Period, 0, len(bounds)-1)
	for i := 0; i < len(bounds)-1; i++ {
		p := Period{
			Start:    bounds[i],
			End:      bounds[i+1],
			RefStart: bounds[i],
			RefEnd:   bounds[i+1],
		}
		switch {
		case i == 0 && t.Stub != ShortLast:
			p.RefStart = roll(p.End, -months)
		case i == len(bounds)-2 && t.Stub == ShortLast:
			p.RefEnd = roll(p.Start, months)
		}

		frac, err := daycount.AccrualFractionInPeriod(p.Start, p.End, p.RefStart, p.RefEnd, int(t.Frequency), t.DayCount)
		if err != nil {
			return nil, fmt.Errorf("Periods: %w", err)
		}
		p.Fraction = frac
		p.PayDate = calendar.Adjust(t.Calendar, p.End, t.Adjustment)
		if i > 0 && !p.PayDate.After(periods[i-1].PayDate) {
			return nil, fmt.Errorf("Periods: payment date %s does not follow %s after adjustment: %w",
				p.PayDate.Format(time.DateOnly), periods[i-1].PayDate.Format(time.DateOnly), ErrInvalidTerms)
		}
		periods = append(periods, p)
	}
	return periods, nil
}

// GenerateCashflows derives a fresh schedule from t.
//
// Each coupon is face × rate × accrual fraction of its actual period, so
// stubs pay for the time they actually cover. The final cashflow also
// redeems the face. A zero-coupon security yields a single redemption.
func GenerateCashflows(t Terms) (Schedule, error) {
	periods, err := Periods(t)
	if err != nil {
		return nil, fmt.Errorf("GenerateCashflows: %w", err)
	}

	last := periods[len(periods)-1]
	if t.IsZeroCoupon() {
		return Schedule{{
			Date:         last.PayDate,
			AccrualStart: t.IssueDate,
			Coupon:       decimal.Zero,
			Principal:    t.Face,
		}}, nil
	}

	rate := decimal.NewFromFloat(t.CouponRate)
	out := make(Schedule, 0, len(periods))
	for i, p := range periods {
		cf := Cashflow{
			Date:         p.PayDate,
			AccrualStart: p.Start,
			Coupon:       t.Face.Mul(rate).Mul(decimal.NewFromFloat(p.Fraction)),
			Principal:    decimal.Zero,
		}
		if i == len(periods)-1 {
			cf.Principal = t.Face
		}
		out = append(out, cf)
	}
	return out, nil
}

// backwardDates rolls from maturity toward issue. Each date is computed from
// maturity directly to avoid drift from repeated end-of-month clamping.
func backwardDates(issue, maturity time.Time, months int) []time.Time {
	dates := []time.Time{maturity}
	for k := 1; ; k++ {
		d := roll(maturity, -k*months)
		if !d.After(issue) {
			break
		}
		dates = append(dates, d)
	}
	dates = append(dates, issue)
	for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
		dates[i], dates[j] = dates[j], dates[i]
	}
	return dates
}

func forwardDates(issue, maturity time.Time, months int) []time.Time {
	dates := []time.Time{issue}
	for k := 1; ; k++ {
		d := roll(issue, k*months)
		if !d.Before(maturity) {
			break
		}
		dates = append(dates, d)
	}
	return append(dates, maturity)
}

func roll(anchor time.Time, months int) time.Time {
	return utils.AddMonthEOM(anchor, months)
}
