package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/meenmo/fixedincome/bond"
	"github.com/meenmo/fixedincome/calendar"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/swap"
	"github.com/meenmo/fixedincome/utils"
)

const defaultSpotLag = 2

// SwapInput prices a fixed-for-overnight swap. Dates come either from
// effective_date and maturity_date or from trade_date, spot_lag (default 2
// business days), forward_years and tenor_years.
//
// Rates are decimals; spread_bp is in basis points over the compounded
// overnight rate. Projection defaults to the discount source.
type SwapInput struct {
	Header
	AsOf          string       `json:"as_of"`
	EffectiveDate string       `json:"effective_date,omitempty"`
	MaturityDate  string       `json:"maturity_date,omitempty"`
	TradeDate     string       `json:"trade_date,omitempty"`
	SpotLag       *int         `json:"spot_lag,omitempty"`
	ForwardYears  int          `json:"forward_years,omitempty"`
	TenorYears    int          `json:"tenor_years,omitempty"`
	Notional      float64      `json:"notional"`
	FixedRate     float64      `json:"fixed_rate"`
	SpreadBP      float64      `json:"spread_bp,omitempty"`
	Direction     string       `json:"direction"`
	FixedLeg      SwapLegJSON  `json:"fixed_leg"`
	FloatLeg      SwapLegJSON  `json:"float_leg"`
	Calendar      string       `json:"calendar,omitempty"`
	Adjustment    string       `json:"adjustment,omitempty"`
	Discount      SourceJSON   `json:"discount"`
	Projection    *SourceJSON  `json:"projection,omitempty"`
	Fixings       []FixingJSON `json:"fixings,omitempty"`
}

// SwapLegJSON defaults to annual ACT/360 paid on the accrual end date.
type SwapLegJSON struct {
	Frequency  int    `json:"frequency,omitempty"`
	DayCount   string `json:"day_count,omitempty"`
	PaymentLag int    `json:"payment_lag,omitempty"`
}

func (l SwapLegJSON) leg() (swap.Leg, error) {
	freq := l.Frequency
	if freq == 0 {
		freq = int(bond.FreqAnnual)
	}
	dc := daycount.Actual360
	if strings.TrimSpace(l.DayCount) != "" {
		var err error
		if dc, err = daycount.ParseConvention(l.DayCount); err != nil {
			return swap.Leg{}, err
		}
	}
	return swap.Leg{Frequency: bond.Frequency(freq), DayCount: dc, PaymentLag: l.PaymentLag}, nil
}

type FixingJSON struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`
}

type SwapCashflowJSON struct {
	Leg            swap.LegType `json:"leg"`
	Start          string       `json:"start"`
	End            string       `json:"end"`
	PayDate        string       `json:"pay_date"`
	Fraction       float64      `json:"fraction"`
	Rate           float64      `json:"rate"`
	Amount         float64      `json:"amount"`
	DiscountFactor float64      `json:"discount_factor"`
	PresentValue   float64      `json:"present_value"`
}

// SwapOutput echoes the resolved dates. MarkToFixings, present when fixings
// are given, is the exchange accrued since the effective date on fixings alone.
type SwapOutput struct {
	Header
	swap.Result
	EffectiveDate string             `json:"effective_date"`
	MaturityDate  string             `json:"maturity_date"`
	MarkToFixings *float64           `json:"mark_to_fixings,omitempty"`
	Cashflows     []SwapCashflowJSON `json:"cashflows"`
}

func (h Handler) Swap(in SwapInput) (SwapOutput, error) {
	s, err := in.swap()
	if err != nil {
		return SwapOutput{}, err
	}
	asOf, err := parseDate("as_of", in.AsOf)
	if err != nil {
		return SwapOutput{}, err
	}
	m := swap.Market{}
	if m.Discount, err = h.source(in.Discount, asOf, nil); err != nil {
		return SwapOutput{}, fmt.Errorf("discount: %w", err)
	}
	if in.Projection != nil {
		if m.Projection, err = h.source(*in.Projection, asOf, nil); err != nil {
			return SwapOutput{}, fmt.Errorf("projection: %w", err)
		}
	}
	fixings := make([]swap.Fixing, len(in.Fixings))
	for i, f := range in.Fixings {
		d, err := parseDate("fixing date", f.Date)
		if err != nil {
			return SwapOutput{}, err
		}
		fixings[i] = swap.Fixing{Date: d, Rate: f.Rate}
	}
	if m.Fixings, err = swap.NewFixings(fixings); err != nil {
		return SwapOutput{}, err
	}

	res, err := swap.Price(s, m, asOf)
	if err != nil {
		return SwapOutput{}, err
	}
	h.Logger.Debug().Str("id", in.ID).Float64("npv", res.NPV).Float64("par_rate", res.ParRate).Msg("swap priced")

	out := SwapOutput{
		Header:        in.Header,
		Result:        res,
		EffectiveDate: utils.FormatDate(s.EffectiveDate),
		MaturityDate:  utils.FormatDate(s.MaturityDate),
		Cashflows:     make([]SwapCashflowJSON, len(res.Cashflows)),
	}
	for i, cf := range res.Cashflows {
		out.Cashflows[i] = SwapCashflowJSON{
			Leg:            cf.Leg,
			Start:          utils.FormatDate(cf.Start),
			End:            utils.FormatDate(cf.End),
			PayDate:        utils.FormatDate(cf.PayDate),
			Fraction:       cf.Fraction,
			Rate:           cf.Rate,
			Amount:         cf.Amount,
			DiscountFactor: cf.DiscountFactor,
			PresentValue:   cf.PresentValue,
		}
	}
	if len(m.Fixings) > 0 {
		mark, err := swap.MarkToFixings(s, m.Fixings, asOf)
		if err != nil {
			return SwapOutput{}, err
		}
		out.MarkToFixings = &mark
	}
	return out, nil
}

func (in SwapInput) swap() (swap.Swap, error) {
	cal, err := calendar.ParseID(in.Calendar)
	if err != nil {
		return swap.Swap{}, fmt.Errorf("invalid calendar: %w", err)
	}
	adj, err := calendar.ParseBusinessDayConvention(in.Adjustment)
	if err != nil {
		return swap.Swap{}, fmt.Errorf("invalid adjustment: %w", err)
	}
	dir, err := swap.ParseDirection(in.Direction)
	if err != nil {
		return swap.Swap{}, err
	}
	fixed, err := in.FixedLeg.leg()
	if err != nil {
		return swap.Swap{}, fmt.Errorf("fixed_leg: %w", err)
	}
	floating, err := in.FloatLeg.leg()
	if err != nil {
		return swap.Swap{}, fmt.Errorf("float_leg: %w", err)
	}

	var effective, maturity time.Time
	switch {
	case strings.TrimSpace(in.TradeDate) != "" && strings.TrimSpace(in.EffectiveDate) != "":
		return swap.Swap{}, fmt.Errorf("give either trade_date or effective_date, not both")
	case strings.TrimSpace(in.TradeDate) != "":
		trade, err := parseDate("trade_date", in.TradeDate)
		if err != nil {
			return swap.Swap{}, err
		}
		if in.TenorYears <= 0 {
			return swap.Swap{}, fmt.Errorf("tenor_years must be positive with trade_date")
		}
		lag := defaultSpotLag
		if in.SpotLag != nil {
			lag = *in.SpotLag
		}
		_, effective, maturity = swap.Dates(trade, cal, lag, in.ForwardYears, in.TenorYears)
	default:
		if effective, err = parseDate("effective_date", in.EffectiveDate); err != nil {
			return swap.Swap{}, err
		}
		if maturity, err = parseDate("maturity_date", in.MaturityDate); err != nil {
			return swap.Swap{}, err
		}
	}

	return swap.Swap{
		EffectiveDate: effective,
		MaturityDate:  maturity,
		Notional:      in.Notional,
		FixedRate:     in.FixedRate,
		SpreadBP:      in.SpreadBP,
		Direction:     dir,
		Fixed:         fixed,
		Float:         floating,
		Calendar:      cal,
		Adjustment:    adj,
	}, nil
}
