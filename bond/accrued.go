package bond

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/fixedincome/daycount"
)

// AccruedInterest returns the coupon accrued from the start of the current
// period to settlement under the security's day count. It is zero before
// issue, on or after maturity, and for zero-coupon securities.
func AccruedInterest(t Terms, settlement time.Time) (decimal.Decimal, error) {
	periods, err := Periods(t)
	if err != nil {
		return decimal.Zero, fmt.Errorf("AccruedInterest: %w", err)
	}
	if t.IsZeroCoupon() {
		return decimal.Zero, nil
	}
	for _, p := range periods {
		if settlement.Before(p.Start) || !settlement.Before(p.End) {
			continue
		}
		frac, err := daycount.AccrualFractionInPeriod(p.Start, settlement, p.RefStart, p.RefEnd, int(t.Frequency), t.DayCount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("AccruedInterest: %w", err)
		}
		return t.Face.Mul(decimal.NewFromFloat(t.CouponRate)).Mul(decimal.NewFromFloat(frac)), nil
	}
	return decimal.Zero, nil
}

// CleanPrice subtracts accrued interest at settlement from a dirty price.
func CleanPrice(t Terms, dirty decimal.Decimal, settlement time.Time) (decimal.Decimal, error) {
	ai, err := AccruedInterest(t, settlement)
	if err != nil {
		return decimal.Zero, fmt.Errorf("CleanPrice: %w", err)
	}
	return dirty.Sub(ai), nil
}
