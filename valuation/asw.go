package valuation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/fixedincome/bond"
	"github.com/meenmo/fixedincome/daycount"
)

// AssetSwap is the floating leg an asset swap spread is quoted over.
//
// DirtyPrice and Notional are in the schedule's currency units.
type AssetSwap struct {
	DirtyPrice float64
	Notional   float64
	Frequency  bond.Frequency
	DayCount   daycount.Convention
}

type AssetSwapResult struct {
	SpreadBP      float64 `json:"spread_bp"`
	RiskFreeValue float64 `json:"risk_free_value"`
	PV01          float64 `json:"pv01"`
}

// AssetSwapSpread approximates the par asset swap spread in basis points:
//
//	ASW ≈ (PV_rf − P_dirty) / PV01
//
// PV_rf values the remaining cashflows on src. PV01 is the value on src of
// receiving 1bp on the floating leg, rolled backward from the bond's maturity
// to asOf so that any stub comes first.
func AssetSwapSpread(cfs bond.Schedule, src DiscountSource, asOf time.Time, leg AssetSwap) (AssetSwapResult, error) {
	pvRF, err := Value(cfs, src, asOf)
	if err != nil {
		return AssetSwapResult{}, fmt.Errorf("AssetSwapSpread: %w", err)
	}
	periods, err := bond.Periods(bond.Terms{
		IssueDate:    asOf,
		MaturityDate: cfs.Maturity(),
		Face:         decimal.NewFromFloat(leg.Notional),
		Frequency:    leg.Frequency,
		DayCount:     leg.DayCount,
	})
	if err != nil {
		return AssetSwapResult{}, fmt.Errorf("AssetSwapSpread: float leg: %w", err)
	}

	var pv01 float64
	for _, p := range periods {
		df, err := src.DiscountFactor(asOf, p.PayDate)
		if err != nil {
			return AssetSwapResult{}, fmt.Errorf("AssetSwapSpread: %w", err)
		}
		pv01 += leg.Notional * p.Fraction * 1e-4 * df
	}
	if pv01 == 0 {
		return AssetSwapResult{}, fmt.Errorf("AssetSwapSpread: float leg PV01 is zero: %w", bond.ErrInvalidTerms)
	}
	return AssetSwapResult{
		SpreadBP:      (pvRF - leg.DirtyPrice) / pv01,
		RiskFreeValue: pvRF,
		PV01:          pv01,
	}, nil
}
