package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/meenmo/fixedincome/bond"
	"github.com/meenmo/fixedincome/config"
	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/pnl"
	"github.com/meenmo/fixedincome/portfolio"
	"github.com/meenmo/fixedincome/utils"
	"github.com/meenmo/fixedincome/valuation"
	"github.com/meenmo/fixedincome/ytm"
)

// Handler runs one command on one decoded input item.
type Handler struct {
	Config config.Config
	Logger zerolog.Logger
}

// CashflowsInput is security terms plus an optional settlement date for accrued interest.
type CashflowsInput struct {
	Header
	TermsJSON
	Settlement string `json:"settlement,omitempty"`
}

type CashflowsOutput struct {
	Header
	Cashflows       []CashflowJSON   `json:"cashflows"`
	Total           decimal.Decimal  `json:"total"`
	AccruedInterest *decimal.Decimal `json:"accrued_interest,omitempty"`
}

func (h Handler) Cashflows(in CashflowsInput) (CashflowsOutput, error) {
	t, err := in.terms()
	if err != nil {
		return CashflowsOutput{}, err
	}
	cfs, err := bond.GenerateCashflows(t)
	if err != nil {
		return CashflowsOutput{}, err
	}
	out := CashflowsOutput{Header: in.Header, Cashflows: toCashflowJSON(cfs), Total: cfs.Total()}
	if strings.TrimSpace(in.Settlement) != "" {
		settlement, err := parseDate("settlement", in.Settlement)
		if err != nil {
			return CashflowsOutput{}, err
		}
		ai, err := bond.AccruedInterest(t, settlement)
		if err != nil {
			return CashflowsOutput{}, err
		}
		out.AccruedInterest = &ai
	}
	return out, nil
}

// ValueInput values a security on a discount source. TrajectoryDates, with a
// flat-rate source, also revalues the schedule on each date at that rate.
// AssetSwap adds the asset swap spread over the same source.
type ValueInput struct {
	Header
	SecurityJSON
	AsOf            string         `json:"as_of"`
	Source          SourceJSON     `json:"source"`
	TrajectoryDates []string       `json:"trajectory_dates,omitempty"`
	AssetSwap       *AssetSwapJSON `json:"asset_swap,omitempty"`
}

// AssetSwapJSON is the floating leg of an asset swap; notional defaults to
// the schedule's final principal.
type AssetSwapJSON struct {
	DirtyPrice float64 `json:"dirty_price"`
	Notional   float64 `json:"notional,omitempty"`
	Frequency  int     `json:"frequency"`
	DayCount   string  `json:"day_count"`
}

type TrajectoryJSON struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type ValueOutput struct {
	Header
	valuation.Result
	Trajectory []TrajectoryJSON           `json:"trajectory,omitempty"`
	AssetSwap  *valuation.AssetSwapResult `json:"asset_swap,omitempty"`
}

func (h Handler) Value(in ValueInput) (ValueOutput, error) {
	cfs, err := in.schedule()
	if err != nil {
		return ValueOutput{}, err
	}
	asOf, err := parseDate("as_of", in.AsOf)
	if err != nil {
		return ValueOutput{}, err
	}
	src, err := h.source(in.Source, asOf, nil)
	if err != nil {
		return ValueOutput{}, err
	}
	res, err := valuation.PresentValue(cfs, src, asOf, valuation.WithBump(h.Config.Bump))
	if err != nil {
		return ValueOutput{}, err
	}
	out := ValueOutput{Header: in.Header, Result: res}
	if in.AssetSwap != nil {
		asw, err := assetSwap(cfs, src, asOf, *in.AssetSwap)
		if err != nil {
			return ValueOutput{}, err
		}
		out.AssetSwap = &asw
	}
	if len(in.TrajectoryDates) == 0 {
		return out, nil
	}
	flat, ok := src.(valuation.FlatYield)
	if !ok {
		return ValueOutput{}, fmt.Errorf("trajectory_dates need a flat-rate source")
	}
	dates := make([]time.Time, len(in.TrajectoryDates))
	for i, s := range in.TrajectoryDates {
		if dates[i], err = parseDate("trajectory date", s); err != nil {
			return ValueOutput{}, err
		}
	}
	utils.SortDates(dates)
	points, err := valuation.ConstantYieldTrajectory(cfs, flat, dates)
	if err != nil {
		return ValueOutput{}, err
	}
	for _, p := range points {
		out.Trajectory = append(out.Trajectory, TrajectoryJSON{Date: utils.FormatDate(p.Date), Value: p.Value})
	}
	return out, nil
}

// YieldInput solves the flat yield reproducing a dirty price. DayCount and
// Compounding override the configured quoting conventions. With Futures set,
// the price comes from the futures invoice instead and terms are required.
// ConvertTo also restates the solved yield under another compounding.
type YieldInput struct {
	Header
	SecurityJSON
	AsOf        string       `json:"as_of"`
	Price       float64      `json:"price"`
	DayCount    string       `json:"day_count,omitempty"`
	Compounding string       `json:"compounding,omitempty"`
	ConvertTo   string       `json:"convert_to,omitempty"`
	Futures     *FuturesJSON `json:"futures,omitempty"`
}

// FuturesJSON is a futures delivery; futures_price is clean per 100 face.
type FuturesJSON struct {
	Delivery         string  `json:"delivery"`
	FuturesPrice     float64 `json:"futures_price"`
	ConversionFactor float64 `json:"conversion_factor"`
}

type YieldOutput struct {
	Header
	ytm.Result
	InvoicePrice    *float64 `json:"invoice_price,omitempty"`
	AccruedInterest *float64 `json:"accrued_interest,omitempty"`
	ConvertedYield  *float64 `json:"converted_yield,omitempty"`
}

func (h Handler) Yield(in YieldInput) (YieldOutput, error) {
	opts, err := h.Config.YieldOptions(h.Logger)
	if err != nil {
		return YieldOutput{}, err
	}
	if strings.TrimSpace(in.DayCount) != "" {
		if opts.DayCount, err = daycount.ParseConvention(in.DayCount); err != nil {
			return YieldOutput{}, fmt.Errorf("invalid day_count: %w", err)
		}
	}
	if strings.TrimSpace(in.Compounding) != "" {
		if opts.Compounding, err = daycount.ParseCompounding(in.Compounding); err != nil {
			return YieldOutput{}, fmt.Errorf("invalid compounding: %w", err)
		}
	}
	var out YieldOutput
	if in.Futures != nil {
		if out, err = h.forwardYield(in, opts); err != nil {
			return YieldOutput{}, err
		}
	} else {
		cfs, err := in.schedule()
		if err != nil {
			return YieldOutput{}, err
		}
		asOf, err := parseDate("as_of", in.AsOf)
		if err != nil {
			return YieldOutput{}, err
		}
		res, err := ytm.Solve(cfs, in.Price, asOf, opts)
		if err != nil {
			return YieldOutput{}, err
		}
		out = YieldOutput{Header: in.Header, Result: res}
	}
	if strings.TrimSpace(in.ConvertTo) != "" {
		to, err := daycount.ParseCompounding(in.ConvertTo)
		if err != nil {
			return YieldOutput{}, fmt.Errorf("invalid convert_to: %w", err)
		}
		y, err := daycount.ConvertRate(out.Yield, opts.Compounding, to)
		if err != nil {
			return YieldOutput{}, err
		}
		out.ConvertedYield = &y
	}
	return out, nil
}

func (h Handler) forwardYield(in YieldInput, opts ytm.Options) (YieldOutput, error) {
	if in.Terms == nil {
		return YieldOutput{}, fmt.Errorf("futures: terms are required")
	}
	t, err := in.Terms.terms()
	if err != nil {
		return YieldOutput{}, err
	}
	delivery, err := parseDate("futures.delivery", in.Futures.Delivery)
	if err != nil {
		return YieldOutput{}, err
	}
	res, err := ytm.ForwardYield(t, ytm.Delivery{
		Date:             delivery,
		FuturesPrice:     in.Futures.FuturesPrice,
		ConversionFactor: in.Futures.ConversionFactor,
	}, opts)
	if err != nil {
		return YieldOutput{}, err
	}
	return YieldOutput{
		Header:          in.Header,
		Result:          res.Result,
		InvoicePrice:    &res.InvoicePrice,
		AccruedInterest: &res.AccruedInterest,
	}, nil
}

func assetSwap(cfs bond.Schedule, src valuation.DiscountSource, asOf time.Time, in AssetSwapJSON) (valuation.AssetSwapResult, error) {
	dc, err := daycount.ParseConvention(in.DayCount)
	if err != nil {
		return valuation.AssetSwapResult{}, fmt.Errorf("asset_swap: %w", err)
	}
	notional := in.Notional
	if notional == 0 {
		notional = cfs[len(cfs)-1].Principal.InexactFloat64()
	}
	return valuation.AssetSwapSpread(cfs, src, asOf, valuation.AssetSwap{
		DirtyPrice: in.DirtyPrice,
		Notional:   notional,
		Frequency:  bond.Frequency(in.Frequency),
		DayCount:   dc,
	})
}

// CurveInput builds a curve, samples it at Tenors and reads the forward
// rate over each of Forwards.
type CurveInput struct {
	Header
	CurveJSON
	Tenors   []string      `json:"tenors,omitempty"`
	Forwards []ForwardJSON `json:"forwards,omitempty"`
}

// ForwardJSON is a forward period between two tenors.
type ForwardJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ForwardRateJSON struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Rate  float64 `json:"rate"`
}

type SampleJSON struct {
	Tenor          float64 `json:"tenor"`
	ZeroRate       float64 `json:"zero_rate"`
	DiscountFactor float64 `json:"discount_factor"`
}

type CurveOutput struct {
	Header
	Interpolation curve.Interpolation `json:"interpolation"`
	Nodes         []NodeJSON          `json:"nodes"`
	Samples       []SampleJSON        `json:"samples,omitempty"`
	Forwards      []ForwardRateJSON   `json:"forwards,omitempty"`
}

func (h Handler) Curve(in CurveInput) (CurveOutput, error) {
	c, err := h.curve(in.CurveJSON)
	if err != nil {
		return CurveOutput{}, err
	}
	ex, err := curve.ParseExtrapolation(h.Config.Extrapolation)
	if err != nil {
		return CurveOutput{}, err
	}
	out := CurveOutput{Header: in.Header, Interpolation: c.Method()}
	for _, p := range c.Points() {
		df, err := c.DiscountFactor(p.Tenor, ex)
		if err != nil {
			return CurveOutput{}, err
		}
		out.Nodes = append(out.Nodes, NodeJSON{Tenor: p.Tenor, Rate: p.Rate, DiscountFactor: df})
	}
	for _, s := range in.Tenors {
		tenor, err := curve.ParseTenor(s)
		if err != nil {
			return CurveOutput{}, err
		}
		z, err := c.ZeroRate(tenor, ex)
		if err != nil {
			return CurveOutput{}, err
		}
		df, err := c.DiscountFactor(tenor, ex)
		if err != nil {
			return CurveOutput{}, err
		}
		out.Samples = append(out.Samples, SampleJSON{Tenor: tenor, ZeroRate: z, DiscountFactor: df})
	}
	for _, f := range in.Forwards {
		t1, err := curve.ParseTenor(f.Start)
		if err != nil {
			return CurveOutput{}, err
		}
		t2, err := curve.ParseTenor(f.End)
		if err != nil {
			return CurveOutput{}, err
		}
		r, err := c.ForwardRate(t1, t2, ex)
		if err != nil {
			return CurveOutput{}, err
		}
		out.Forwards = append(out.Forwards, ForwardRateJSON{Start: t1, End: t2, Rate: r})
	}
	return out, nil
}

// AttributeInput explains the value change of one security between two snapshots.
type AttributeInput struct {
	Header
	Security SecurityJSON `json:"security"`
	Start    SnapshotJSON `json:"start"`
	End      SnapshotJSON `json:"end"`
}

type AttributeOutput struct {
	Header
	pnl.Result
	Start SnapshotSummary `json:"start"`
	End   SnapshotSummary `json:"end"`
}

func (h Handler) Attribute(in AttributeInput) (AttributeOutput, error) {
	cfs, err := in.Security.schedule()
	if err != nil {
		return AttributeOutput{}, err
	}
	opts, err := h.Config.PnLOptions(h.Logger)
	if err != nil {
		return AttributeOutput{}, err
	}
	start, c0, err := h.snapshot("start", in.Start, cfs, opts)
	if err != nil {
		return AttributeOutput{}, err
	}
	end, c1, err := h.snapshot("end", in.End, cfs, opts)
	if err != nil {
		return AttributeOutput{}, err
	}
	res, err := pnl.Attribute(start, end, c0, c1, opts)
	if err != nil {
		return AttributeOutput{}, err
	}
	return AttributeOutput{Header: in.Header, Result: res, Start: summarize(start), End: summarize(end)}, nil
}

func (h Handler) snapshot(side string, in SnapshotJSON, cfs bond.Schedule, opts pnl.Options) (pnl.Snapshot, *curve.RateCurve, error) {
	asOf, err := parseDate(side+".as_of", in.AsOf)
	if err != nil {
		return pnl.Snapshot{}, nil, err
	}
	c, err := h.curve(in.Curve)
	if err != nil {
		return pnl.Snapshot{}, nil, fmt.Errorf("%s curve: %w", side, err)
	}
	var s pnl.Snapshot
	switch {
	case in.Price != nil && in.Spread != nil:
		return pnl.Snapshot{}, nil, fmt.Errorf("%s: give either price or spread, not both", side)
	case in.Price != nil:
		s, err = pnl.NewSnapshot(cfs, asOf, c, *in.Price, opts)
	case in.Spread != nil:
		s, err = pnl.NewSnapshotFromSpread(cfs, asOf, c, *in.Spread, opts)
	default:
		return pnl.Snapshot{}, nil, fmt.Errorf("%s: price or spread is required", side)
	}
	if err != nil {
		return pnl.Snapshot{}, nil, fmt.Errorf("%s: %w", side, err)
	}
	return s, c, nil
}

func summarize(s pnl.Snapshot) SnapshotSummary {
	return SnapshotSummary{
		AsOf:      utils.FormatDate(s.AsOf),
		Price:     s.Price,
		Yield:     s.Yield,
		Spread:    s.Spread,
		Value:     s.Value,
		Duration:  s.Duration,
		Convexity: s.Convexity,
	}
}

// PortfolioInput values many securities concurrently. A security whose source
// names neither a rate nor a curve is discounted on the shared Curve at its spread.
type PortfolioInput struct {
	Header
	AsOf       string              `json:"as_of"`
	Curve      *CurveJSON          `json:"curve,omitempty"`
	Securities []PortfolioSecurity `json:"securities"`
}

type PortfolioSecurity struct {
	Header
	SecurityJSON
	Source SourceJSON `json:"source"`
}

type PortfolioOutput struct {
	Header
	Valuations []ValuationJSON `json:"valuations"`
}

func (o PortfolioOutput) hasErrors() bool {
	for _, v := range o.Valuations {
		if v.Error != "" {
			return true
		}
	}
	return false
}

func (h Handler) Portfolio(ctx context.Context, in PortfolioInput) (PortfolioOutput, error) {
	asOf, err := parseDate("as_of", in.AsOf)
	if err != nil {
		return PortfolioOutput{}, err
	}
	var shared *curve.RateCurve
	if in.Curve != nil {
		if shared, err = h.curve(*in.Curve); err != nil {
			return PortfolioOutput{}, fmt.Errorf("portfolio curve: %w", err)
		}
	}

	out := PortfolioOutput{Header: in.Header, Valuations: make([]ValuationJSON, len(in.Securities))}
	secs := make([]portfolio.Security, 0, len(in.Securities))
	rows := make([]int, 0, len(in.Securities))
	for i, s := range in.Securities {
		out.Valuations[i].Header = s.Header
		cfs, err := s.schedule()
		if err != nil {
			out.Valuations[i].Error = err.Error()
			continue
		}
		src, err := h.source(s.Source, asOf, shared)
		if err != nil {
			out.Valuations[i].Error = err.Error()
			continue
		}
		secs = append(secs, portfolio.Security{ID: s.ID, Cashflows: cfs, Source: src})
		rows = append(rows, i)
	}

	vals, err := portfolio.ValueAll(ctx, secs, asOf, h.Config.PortfolioOptions(h.Logger))
	if err != nil {
		return PortfolioOutput{}, err
	}
	for k, v := range vals {
		row := &out.Valuations[rows[k]]
		if v.Err != nil {
			row.Error = v.Err.Error()
			continue
		}
		row.Result = v.Result
	}
	return out, nil
}

func (h Handler) source(in SourceJSON, asOf time.Time, shared *curve.RateCurve) (valuation.DiscountSource, error) {
	if in.Rate != nil && in.Curve != nil {
		return nil, fmt.Errorf("source: give either rate or curve, not both")
	}
	if in.Rate != nil {
		dcName, compName := h.Config.DayCount, h.Config.Compounding
		if strings.TrimSpace(in.DayCount) != "" {
			dcName = in.DayCount
		}
		if strings.TrimSpace(in.Compounding) != "" {
			compName = in.Compounding
		}
		dc, err := daycount.ParseConvention(dcName)
		if err != nil {
			return nil, fmt.Errorf("source: %w", err)
		}
		comp, err := daycount.ParseCompounding(compName)
		if err != nil {
			return nil, fmt.Errorf("source: %w", err)
		}
		return valuation.FlatYield{Rate: *in.Rate, DayCount: dc, Compounding: comp}, nil
	}

	c := shared
	if in.Curve != nil {
		var err error
		if c, err = h.curve(*in.Curve); err != nil {
			return nil, fmt.Errorf("source: %w", err)
		}
	}
	if c == nil {
		return nil, fmt.Errorf("source: rate or curve is required")
	}
	ex, err := curve.ParseExtrapolation(h.Config.Extrapolation)
	if err != nil {
		return nil, err
	}
	return valuation.CurveSource{Curve: c, Origin: asOf, Spread: in.Spread, Extrapolation: ex}, nil
}

func (h Handler) curve(in CurveJSON) (*curve.RateCurve, error) {
	method, opts, err := h.Config.CurveSettings(h.Logger)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Interpolation) != "" {
		if method, err = curve.ParseInterpolation(in.Interpolation); err != nil {
			return nil, err
		}
	}
	freq := in.Frequency
	if freq == 0 {
		freq = int(bond.FreqSemiAnnual)
	}

	given := 0
	for _, n := range []int{len(in.Points), len(in.SwapQuotes), len(in.BondQuotes)} {
		if n > 0 {
			given++
		}
	}
	if given != 1 {
		return nil, fmt.Errorf("give exactly one of points, swap_quotes or bond_quotes: %w", curve.ErrInvalidCurveInput)
	}

	switch {
	case len(in.Points) > 0:
		pts, err := parsePoints(in.Points)
		if err != nil {
			return nil, err
		}
		return curve.BuildCurve(pts, method, opts...)
	case len(in.SwapQuotes) > 0:
		quotes, err := parsePoints(in.SwapQuotes)
		if err != nil {
			return nil, err
		}
		return curve.BootstrapSwapCurve(quotes, freq, method, opts...)
	}
	quotes := make([]curve.BondQuote, len(in.BondQuotes))
	for i, q := range in.BondQuotes {
		tenor, err := curve.ParseTenor(q.Tenor)
		if err != nil {
			return nil, err
		}
		quotes[i] = curve.BondQuote{Coupon: q.Coupon, Tenor: tenor, Price: q.Price}
	}
	c, _, err := curve.BootstrapBondCurve(quotes, freq, method, opts...)
	return c, err
}
