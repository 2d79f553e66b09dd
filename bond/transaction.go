package bond

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a buy-and-sell round trip in one security.
//
// ReinvestmentRate is the annual rate at which each received coupon, except
// the last one in the holding period, earns interest for one coupon period.
type Transaction struct {
	Cashflows        Schedule
	Frequency        Frequency
	PurchaseDate     time.Time
	PurchasePrice    decimal.Decimal
	SaleDate         time.Time
	SalePrice        decimal.Decimal
	ReinvestmentRate float64
}

func (tx Transaction) validate() error {
	if !tx.PurchasePrice.IsPositive() {
		return fmt.Errorf("purchase price %s must be positive: %w", tx.PurchasePrice, ErrInvalidTerms)
	}
	if tx.SaleDate.Before(tx.PurchaseDate) {
		return fmt.Errorf("sale %s before purchase %s: %w",
			tx.SaleDate.Format(time.DateOnly), tx.PurchaseDate.Format(time.DateOnly), ErrInvalidTerms)
	}
	if tx.Frequency.Months() == 0 {
		return fmt.Errorf("frequency %d: %w", tx.Frequency, ErrInvalidTerms)
	}
	return nil
}

// Received returns the cashflows collected while holding, purchase and sale dates included.
func (tx Transaction) Received() Schedule {
	return tx.Cashflows.BetweenInclusive(tx.PurchaseDate, tx.SaleDate)
}

// Reinvestment returns the interest earned on reinvested coupons.
func (tx Transaction) Reinvestment() decimal.Decimal {
	received := tx.Received()
	if len(received) < 2 || tx.Frequency <= 0 {
		return decimal.Zero
	}
	perPeriod := decimal.NewFromFloat(tx.ReinvestmentRate).Div(decimal.NewFromInt(int64(tx.Frequency)))
	sum := decimal.Zero
	for _, cf := range received[:len(received)-1] {
		sum = sum.Add(cf.Coupon.Mul(perPeriod))
	}
	return sum
}

// RealizedReturn is (sale + cash received + reinvestment − purchase) / purchase.
func (tx Transaction) RealizedReturn() (float64, error) {
	if err := tx.validate(); err != nil {
		return 0, fmt.Errorf("RealizedReturn: %w", err)
	}
	payoff := tx.SalePrice.Add(tx.Received().Total()).Add(tx.Reinvestment())
	return payoff.Sub(tx.PurchasePrice).Div(tx.PurchasePrice).InexactFloat64(), nil
}

// AnnualizedReturn converts the sale/purchase price ratio into a rate
// compounded at the transaction's frequency over the given number of years.
func (tx Transaction) AnnualizedReturn(years float64) (float64, error) {
	if err := tx.validate(); err != nil {
		return 0, fmt.Errorf("AnnualizedReturn: %w", err)
	}
	if years <= 0 {
		return 0, fmt.Errorf("AnnualizedReturn: years %g must be positive: %w", years, ErrInvalidTerms)
	}
	periods := years * float64(tx.Frequency)
	ratio := tx.SalePrice.Div(tx.PurchasePrice).InexactFloat64()
	return (math.Pow(ratio, 1/periods) - 1) * float64(tx.Frequency), nil
}
