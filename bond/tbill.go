package bond

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/fixedincome/daycount"
)

// TermUnit is the unit a bill's term is quoted in.
type TermUnit string

const (
	TermDays   TermUnit = "DAYS"
	TermWeeks  TermUnit = "WEEKS"
	TermMonths TermUnit = "MONTHS" // 30-day months
)

// TBill is a discount security quoted on the bank-discount basis (ACT/360).
//
// DiscountRate is a decimal (0.0145 == 1.45%). When Term is zero the
// actual days from issue to maturity are used.
type TBill struct {
	IssueDate    time.Time
	MaturityDate time.Time
	Face         decimal.Decimal
	DiscountRate float64
	Term         int
	Unit         TermUnit
}

// Days returns the number of days the discount applies to.
func (b TBill) Days() (int, error) {
	if b.Term == 0 {
		if !b.MaturityDate.After(b.IssueDate) {
			return 0, fmt.Errorf("TBill: maturity must be after issue: %w", ErrInvalidTerms)
		}
		return daycount.Days(b.IssueDate, b.MaturityDate), nil
	}
	if b.Term < 0 {
		return 0, fmt.Errorf("TBill: negative term %d: %w", b.Term, ErrInvalidTerms)
	}
	switch b.Unit {
	case TermDays, "":
		return b.Term, nil
	case TermWeeks:
		return b.Term * 7, nil
	case TermMonths:
		return b.Term * 30, nil
	}
	return 0, fmt.Errorf("TBill: unit %q: %w", b.Unit, ErrInvalidTerms)
}

// Price is face × (1 − days × rate / 360).
func (b TBill) Price() (decimal.Decimal, error) {
	if !b.Face.IsPositive() {
		return decimal.Zero, fmt.Errorf("TBill: face %s must be positive: %w", b.Face, ErrInvalidTerms)
	}
	days, err := b.Days()
	if err != nil {
		return decimal.Zero, err
	}
	discount := decimal.NewFromInt(int64(days)).Mul(decimal.NewFromFloat(b.DiscountRate)).Div(decimal.NewFromInt(360))
	return b.Face.Mul(decimal.NewFromInt(1).Sub(discount)), nil
}

// BondEquivalentYield converts a bill price to the money-market yield on an ACT/365 basis.
func (b TBill) BondEquivalentYield(price decimal.Decimal) (float64, error) {
	if !price.IsPositive() {
		return 0, fmt.Errorf("TBill: price %s must be positive: %w", price, ErrInvalidTerms)
	}
	days, err := b.Days()
	if err != nil {
		return 0, err
	}
	if days == 0 {
		return 0, fmt.Errorf("TBill: zero-day term: %w", ErrInvalidTerms)
	}
	gain := b.Face.Sub(price).Div(price).InexactFloat64()
	return gain * 365 / float64(days), nil
}

// Cashflows exposes the bill as a one-payment schedule so it can be valued like any bond.
func (b TBill) Cashflows() (Schedule, error) {
	if !b.Face.IsPositive() || !b.MaturityDate.After(b.IssueDate) {
		return nil, fmt.Errorf("TBill: %w", ErrInvalidTerms)
	}
	return Schedule{{
		Date:         b.MaturityDate,
		AccrualStart: b.IssueDate,
		Coupon:       decimal.Zero,
		Principal:    b.Face,
	}}, nil
}
