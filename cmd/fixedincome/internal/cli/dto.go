package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/fixedincome/bond"
	"github.com/meenmo/fixedincome/calendar"
	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/utils"
	"github.com/meenmo/fixedincome/valuation"
)

// Header is carried by every input item and echoed on its output.
type Header struct {
	ID string `json:"id,omitempty"`
}

func (h Header) itemID() string { return h.ID }

// TermsJSON describes a fixed-coupon security.
//
// Conventions:
// - coupon_rate is a decimal (0.05 means 5%)
// - frequency is payments per year
// - day_count, compounding, calendar and adjustment use the parser spellings
type TermsJSON struct {
	IssueDate    string          `json:"issue_date"`
	MaturityDate string          `json:"maturity_date"`
	Face         decimal.Decimal `json:"face"`
	CouponRate   float64         `json:"coupon_rate"`
	Frequency    int             `json:"frequency"`
	DayCount     string          `json:"day_count"`
	Compounding  string          `json:"compounding,omitempty"`
	Stub         string          `json:"stub,omitempty"`
	Calendar     string          `json:"calendar,omitempty"`
	Adjustment   string          `json:"adjustment,omitempty"`
}

func (t TermsJSON) terms() (bond.Terms, error) {
	issue, err := parseDate("issue_date", t.IssueDate)
	if err != nil {
		return bond.Terms{}, err
	}
	maturity, err := parseDate("maturity_date", t.MaturityDate)
	if err != nil {
		return bond.Terms{}, err
	}
	dc, err := daycount.ParseConvention(t.DayCount)
	if err != nil {
		return bond.Terms{}, fmt.Errorf("invalid day_count: %w", err)
	}
	var comp daycount.Compounding
	if strings.TrimSpace(t.Compounding) != "" {
		if comp, err = daycount.ParseCompounding(t.Compounding); err != nil {
			return bond.Terms{}, fmt.Errorf("invalid compounding: %w", err)
		}
	}
	cal, err := calendar.ParseID(t.Calendar)
	if err != nil {
		return bond.Terms{}, fmt.Errorf("invalid calendar: %w", err)
	}
	adj, err := calendar.ParseBusinessDayConvention(t.Adjustment)
	if err != nil {
		return bond.Terms{}, fmt.Errorf("invalid adjustment: %w", err)
	}
	return bond.Terms{
		IssueDate:    issue,
		MaturityDate: maturity,
		Face:         t.Face,
		CouponRate:   t.CouponRate,
		Frequency:    bond.Frequency(t.Frequency),
		DayCount:     dc,
		Compounding:  comp,
		Stub:         bond.StubPosition(strings.ToUpper(strings.TrimSpace(t.Stub))),
		Calendar:     cal,
		Adjustment:   adj,
	}, nil
}

// CashflowJSON is one dated payment. Amounts accept JSON numbers or strings.
type CashflowJSON struct {
	Date         string          `json:"date"`
	AccrualStart string          `json:"accrual_start,omitempty"`
	Coupon       decimal.Decimal `json:"coupon"`
	Principal    decimal.Decimal `json:"principal"`
}

func toCashflowJSON(cfs bond.Schedule) []CashflowJSON {
	out := make([]CashflowJSON, len(cfs))
	for i, cf := range cfs {
		out[i] = CashflowJSON{
			Date:      utils.FormatDate(cf.Date),
			Coupon:    cf.Coupon,
			Principal: cf.Principal,
		}
		if !cf.AccrualStart.IsZero() {
			out[i].AccrualStart = utils.FormatDate(cf.AccrualStart)
		}
	}
	return out
}

// SecurityJSON is either terms to generate a schedule from or the schedule itself.
type SecurityJSON struct {
	Terms     *TermsJSON     `json:"terms,omitempty"`
	Cashflows []CashflowJSON `json:"cashflows,omitempty"`
}

func (s SecurityJSON) schedule() (bond.Schedule, error) {
	switch {
	case s.Terms != nil && len(s.Cashflows) > 0:
		return nil, fmt.Errorf("give either terms or cashflows, not both")
	case s.Terms != nil:
		t, err := s.Terms.terms()
		if err != nil {
			return nil, err
		}
		return bond.GenerateCashflows(t)
	case len(s.Cashflows) == 0:
		return nil, fmt.Errorf("terms or cashflows are required")
	}
	cfs := make(bond.Schedule, 0, len(s.Cashflows))
	for _, cf := range s.Cashflows {
		d, err := parseDate("cashflow date", cf.Date)
		if err != nil {
			return nil, err
		}
		var start time.Time
		if strings.TrimSpace(cf.AccrualStart) != "" {
			if start, err = parseDate("accrual_start", cf.AccrualStart); err != nil {
				return nil, err
			}
		}
		cfs = append(cfs, bond.Cashflow{Date: d, AccrualStart: start, Coupon: cf.Coupon, Principal: cf.Principal})
	}
	if err := cfs.Validate(); err != nil {
		return nil, err
	}
	return cfs, nil
}

// PointJSON is a curve node or par quote. Tenor is "6M", "2Y", "30D" or a
// number of years; rates are decimals.
type PointJSON struct {
	Tenor string  `json:"tenor"`
	Rate  float64 `json:"rate"`
}

// BondQuoteJSON is a coupon bond for bond stripping; coupon is in percent.
type BondQuoteJSON struct {
	Tenor  string  `json:"tenor"`
	Coupon float64 `json:"coupon"`
	Price  float64 `json:"price"`
}

// CurveJSON builds a curve from exactly one of zero-rate points, par swap
// quotes or bond quotes.
type CurveJSON struct {
	Points     []PointJSON     `json:"points,omitempty"`
	SwapQuotes []PointJSON     `json:"swap_quotes,omitempty"`
	BondQuotes []BondQuoteJSON `json:"bond_quotes,omitempty"`
	// Frequency is the swap fixed-leg or bond coupon frequency; defaults to 2.
	Frequency     int    `json:"frequency,omitempty"`
	Interpolation string `json:"interpolation,omitempty"`
}

func parsePoints(in []PointJSON) ([]curve.Point, error) {
	out := make([]curve.Point, len(in))
	for i, p := range in {
		tenor, err := curve.ParseTenor(p.Tenor)
		if err != nil {
			return nil, err
		}
		out[i] = curve.Point{Tenor: tenor, Rate: p.Rate}
	}
	return out, nil
}

// SourceJSON selects a flat yield (rate set) or a curve plus spread.
type SourceJSON struct {
	Rate        *float64   `json:"rate,omitempty"`
	DayCount    string     `json:"day_count,omitempty"`
	Compounding string     `json:"compounding,omitempty"`
	Curve       *CurveJSON `json:"curve,omitempty"`
	Spread      float64    `json:"spread,omitempty"`
}

// SnapshotJSON is one side of an attribution: a date, a curve and either a
// dirty price or a spread over the curve.
type SnapshotJSON struct {
	AsOf   string    `json:"as_of"`
	Curve  CurveJSON `json:"curve"`
	Price  *float64  `json:"price,omitempty"`
	Spread *float64  `json:"spread,omitempty"`
}

// SnapshotSummary echoes the solved state of a snapshot.
type SnapshotSummary struct {
	AsOf      string  `json:"as_of"`
	Price     float64 `json:"price"`
	Yield     float64 `json:"yield"`
	Spread    float64 `json:"spread"`
	Value     float64 `json:"value"`
	Duration  float64 `json:"duration"`
	Convexity float64 `json:"convexity"`
}

// NodeJSON is a curve node with its discount factor.
type NodeJSON struct {
	Tenor          float64 `json:"tenor"`
	Rate           float64 `json:"rate"`
	DiscountFactor float64 `json:"discount_factor"`
}

// ValuationJSON is a present value and its sensitivities.
type ValuationJSON struct {
	Header
	valuation.Result
	Error string `json:"error,omitempty"`
}

func parseDate(field, s string) (time.Time, error) {
	t, err := utils.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return t, nil
}
