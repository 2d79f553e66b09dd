package ytm

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/fixedincome/bond"
)

// Delivery is a bond futures delivery of the security.
//
// FuturesPrice is the clean futures price per 100 face.
type Delivery struct {
	Date             time.Time
	FuturesPrice     float64
	ConversionFactor float64
}

// ForwardResult is the yield implied by a futures invoice price.
type ForwardResult struct {
	Result
	InvoicePrice    float64 `json:"invoice_price"`
	AccruedInterest float64 `json:"accrued_interest"`
}

// ForwardYield solves the yield at which the security's dirty price on the
// delivery date equals the invoice price:
//
//	invoice = FuturesPrice × ConversionFactor × Face/100 + accrued interest
//
// A coupon paid on the delivery date itself goes to the seller and is
// excluded from the discounted cashflows.
func ForwardYield(t bond.Terms, d Delivery, opts Options) (ForwardResult, error) {
	if d.Date.IsZero() {
		return ForwardResult{}, fmt.Errorf("ForwardYield: delivery date is required: %w", bond.ErrInvalidTerms)
	}
	if !(d.ConversionFactor > 0) || math.IsInf(d.ConversionFactor, 0) {
		return ForwardResult{}, fmt.Errorf("ForwardYield: conversion factor %g must be positive: %w", d.ConversionFactor, bond.ErrInvalidTerms)
	}
	cfs, err := bond.GenerateCashflows(t)
	if err != nil {
		return ForwardResult{}, fmt.Errorf("ForwardYield: %w", err)
	}
	ai, err := bond.AccruedInterest(t, d.Date)
	if err != nil {
		return ForwardResult{}, fmt.Errorf("ForwardYield: %w", err)
	}

	accrued := ai.InexactFloat64()
	invoice := d.FuturesPrice*d.ConversionFactor*t.Face.InexactFloat64()/100 + accrued
	remaining := cfs.Between(d.Date, cfs.Maturity())
	res, err := Solve(remaining, invoice, d.Date, opts)
	if err != nil {
		return ForwardResult{}, fmt.Errorf("ForwardYield: %w", err)
	}
	return ForwardResult{Result: res, InvoicePrice: invoice, AccruedInterest: accrued}, nil
}
