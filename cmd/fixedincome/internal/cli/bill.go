package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/meenmo/fixedincome/bond"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/ytm"
)

// BillInput prices a discount bill. Either term and unit (DAYS, WEEKS or
// 30-day MONTHS) or the issue and maturity dates give the discount period.
// Compounding selects the convention of the zero yield; it defaults to the
// configured one.
type BillInput struct {
	Header
	IssueDate    string          `json:"issue_date,omitempty"`
	MaturityDate string          `json:"maturity_date,omitempty"`
	Face         decimal.Decimal `json:"face"`
	DiscountRate float64         `json:"discount_rate"`
	Term         int             `json:"term,omitempty"`
	Unit         string          `json:"unit,omitempty"`
	Compounding  string          `json:"compounding,omitempty"`
}

type BillOutput struct {
	Header
	Days                int             `json:"days"`
	Price               decimal.Decimal `json:"price"`
	BondEquivalentYield float64         `json:"bond_equivalent_yield"`
	ZeroYield           float64         `json:"zero_yield"`
	Compounding         string          `json:"compounding"`
}

func (h Handler) Bill(in BillInput) (BillOutput, error) {
	b := bond.TBill{
		Face:         in.Face,
		DiscountRate: in.DiscountRate,
		Term:         in.Term,
		Unit:         bond.TermUnit(strings.ToUpper(strings.TrimSpace(in.Unit))),
	}
	var err error
	if strings.TrimSpace(in.IssueDate) != "" {
		if b.IssueDate, err = parseDate("issue_date", in.IssueDate); err != nil {
			return BillOutput{}, err
		}
	}
	if strings.TrimSpace(in.MaturityDate) != "" {
		if b.MaturityDate, err = parseDate("maturity_date", in.MaturityDate); err != nil {
			return BillOutput{}, err
		}
	}
	compName := h.Config.Compounding
	if strings.TrimSpace(in.Compounding) != "" {
		compName = in.Compounding
	}
	comp, err := daycount.ParseCompounding(compName)
	if err != nil {
		return BillOutput{}, fmt.Errorf("invalid compounding: %w", err)
	}

	days, err := b.Days()
	if err != nil {
		return BillOutput{}, err
	}
	price, err := b.Price()
	if err != nil {
		return BillOutput{}, err
	}
	bey, err := b.BondEquivalentYield(price)
	if err != nil {
		return BillOutput{}, err
	}
	zero, err := ytm.ZeroCouponYield(b.Face.InexactFloat64(), price.InexactFloat64(), float64(days)/365, comp)
	if err != nil {
		return BillOutput{}, err
	}
	return BillOutput{
		Header:              in.Header,
		Days:                days,
		Price:               price,
		BondEquivalentYield: bey,
		ZeroYield:           zero,
		Compounding:         comp.String(),
	}, nil
}

// ReturnInput is a buy-and-sell round trip. Frequency comes from terms when
// given, otherwise from the frequency field; coupons other than the last one
// received earn reinvestment_rate for one coupon period.
type ReturnInput struct {
	Header
	SecurityJSON
	Frequency        int             `json:"frequency,omitempty"`
	PurchaseDate     string          `json:"purchase_date"`
	PurchasePrice    decimal.Decimal `json:"purchase_price"`
	SaleDate         string          `json:"sale_date"`
	SalePrice        decimal.Decimal `json:"sale_price"`
	ReinvestmentRate float64         `json:"reinvestment_rate,omitempty"`
}

type ReturnOutput struct {
	Header
	CashReceived     decimal.Decimal `json:"cash_received"`
	Reinvestment     decimal.Decimal `json:"reinvestment"`
	RealizedReturn   float64         `json:"realized_return"`
	Years            float64         `json:"years"`
	AnnualizedReturn *float64        `json:"annualized_return,omitempty"`
}

func (h Handler) Return(in ReturnInput) (ReturnOutput, error) {
	cfs, err := in.schedule()
	if err != nil {
		return ReturnOutput{}, err
	}
	freq := bond.Frequency(in.Frequency)
	if in.Terms != nil {
		freq = bond.Frequency(in.Terms.Frequency)
	}
	tx := bond.Transaction{
		Cashflows:        cfs,
		Frequency:        freq,
		PurchasePrice:    in.PurchasePrice,
		SalePrice:        in.SalePrice,
		ReinvestmentRate: in.ReinvestmentRate,
	}
	if tx.PurchaseDate, err = parseDate("purchase_date", in.PurchaseDate); err != nil {
		return ReturnOutput{}, err
	}
	if tx.SaleDate, err = parseDate("sale_date", in.SaleDate); err != nil {
		return ReturnOutput{}, err
	}

	realized, err := tx.RealizedReturn()
	if err != nil {
		return ReturnOutput{}, err
	}
	years, err := daycount.AccrualFraction(tx.PurchaseDate, tx.SaleDate, daycount.ActualActual)
	if err != nil {
		return ReturnOutput{}, err
	}
	out := ReturnOutput{
		Header:         in.Header,
		CashReceived:   tx.Received().Total(),
		Reinvestment:   tx.Reinvestment(),
		RealizedReturn: realized,
		Years:          years,
	}
	if years > 0 {
		annual, err := tx.AnnualizedReturn(years)
		if err != nil {
			return ReturnOutput{}, err
		}
		out.AnnualizedReturn = &annual
	}
	return out, nil
}
