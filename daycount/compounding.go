package daycount

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Compounding selects how a rate grows over an accrual fraction.
//
// Positive values are periodic compounding with that many periods per year.
// The zero value is continuous compounding.
type Compounding int

const (
	Simple     Compounding = -1
	Continuous Compounding = 0
	Annual     Compounding = 1
	SemiAnnual Compounding = 2
	Quarterly  Compounding = 4
	Monthly    Compounding = 12
)

// Periodic returns periodic compounding with n periods per year.
func Periodic(n int) Compounding {
	return Compounding(n)
}

// PeriodsPerYear returns n for periodic compounding and 0 otherwise.
func (c Compounding) PeriodsPerYear() int {
	if c > 0 {
		return int(c)
	}
	return 0
}

func (c Compounding) Valid() bool {
	return c >= Simple
}

func (c Compounding) String() string {
	switch c {
	case Simple:
		return "simple"
	case Continuous:
		return "continuous"
	case Annual:
		return "annual"
	case SemiAnnual:
		return "semiannual"
	case Quarterly:
		return "quarterly"
	case Monthly:
		return "monthly"
	}
	if c > 0 {
		return "periodic:" + strconv.Itoa(int(c))
	}
	return "invalid(" + strconv.Itoa(int(c)) + ")"
}

// ParseCompounding accepts the names produced by String.
func ParseCompounding(s string) (Compounding, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "simple":
		return Simple, nil
	case "continuous":
		return Continuous, nil
	case "annual":
		return Annual, nil
	case "semiannual", "semi-annual":
		return SemiAnnual, nil
	case "quarterly":
		return Quarterly, nil
	case "monthly":
		return Monthly, nil
	}
	if n, ok := strings.CutPrefix(v, "periodic:"); ok {
		if k, err := strconv.Atoi(n); err == nil && k > 0 {
			return Periodic(k), nil
		}
	}
	return 0, fmt.Errorf("ParseCompounding: %q: %w", s, ErrUnknownConvention)
}

func (c Compounding) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("MarshalText: %d: %w", int(c), ErrUnknownConvention)
	}
	return []byte(c.String()), nil
}

func (c *Compounding) UnmarshalText(b []byte) error {
	v, err := ParseCompounding(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// DiscountFactor returns the value today of one unit paid after fraction
// years when rate compounds under c. The result is always in (0, +Inf).
func DiscountFactor(rate, fraction float64, c Compounding) (float64, error) {
	df, _, _, err := DiscountFactorDerivatives(rate, fraction, c)
	return df, err
}

// DiscountFactorDerivatives returns the discount factor together with its
// first and second derivatives with respect to rate, in closed form.
func DiscountFactorDerivatives(rate, fraction float64, c Compounding) (df, d1, d2 float64, err error) {
	if fraction < 0 || math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return 0, 0, 0, fmt.Errorf("DiscountFactor: fraction %g: %w", fraction, ErrInvalidDateRange)
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, 0, 0, fmt.Errorf("DiscountFactor: rate %g: %w", rate, ErrInvalidRate)
	}

	switch {
	case c == Continuous:
		df = math.Exp(-rate * fraction)
		d1 = -fraction * df
		d2 = fraction * fraction * df
	case c == Simple:
		base := 1 + rate*fraction
		if base <= 0 {
			return 0, 0, 0, fmt.Errorf("DiscountFactor: simple growth 1+%g*%g is not positive: %w", rate, fraction, ErrInvalidRate)
		}
		df = 1 / base
		d1 = -fraction * df * df
		d2 = 2 * fraction * fraction * df * df * df
	case c > 0:
		n := float64(c)
		base := 1 + rate/n
		if base <= 0 {
			return 0, 0, 0, fmt.Errorf("DiscountFactor: periodic growth 1+%g/%d is not positive: %w", rate, int(c), ErrInvalidRate)
		}
		df = math.Pow(base, -n*fraction)
		d1 = -fraction * df / base
		d2 = fraction * (fraction + 1/n) * df / (base * base)
	default:
		return 0, 0, 0, fmt.Errorf("DiscountFactor: compounding %d: %w", int(c), ErrUnknownConvention)
	}

	if df <= 0 || math.IsInf(df, 0) || math.IsNaN(df) {
		return 0, 0, 0, fmt.Errorf("DiscountFactor: rate %g over %g years leaves no finite positive factor: %w", rate, fraction, ErrInvalidRate)
	}
	return df, d1, d2, nil
}

// ZeroRate inverts DiscountFactor: it returns the rate that discounts one
// unit to df over fraction years.
func ZeroRate(df, fraction float64, c Compounding) (float64, error) {
	if fraction <= 0 || math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return 0, fmt.Errorf("ZeroRate: fraction %g: %w", fraction, ErrInvalidDateRange)
	}
	if df <= 0 || math.IsNaN(df) || math.IsInf(df, 0) {
		return 0, fmt.Errorf("ZeroRate: discount factor %g: %w", df, ErrInvalidRate)
	}
	switch {
	case c == Continuous:
		return -math.Log(df) / fraction, nil
	case c == Simple:
		return (1/df - 1) / fraction, nil
	case c > 0:
		n := float64(c)
		return n * (math.Pow(df, -1/(n*fraction)) - 1), nil
	}
	return 0, fmt.Errorf("ZeroRate: compounding %d: %w", int(c), ErrUnknownConvention)
}

// ConvertRate returns the rate under to that grows like rate under from over one year.
func ConvertRate(rate float64, from, to Compounding) (float64, error) {
	if from == to {
		return rate, nil
	}
	df, err := DiscountFactor(rate, 1, from)
	if err != nil {
		return 0, err
	}
	return ZeroRate(df, 1, to)
}

// RateFloor returns the infimum of rates that keep DiscountFactor defined for
// fractions up to maxFraction. It is -Inf for continuous compounding.
func RateFloor(maxFraction float64, c Compounding) float64 {
	switch {
	case c == Simple:
		if maxFraction <= 0 {
			return math.Inf(-1)
		}
		return -1 / maxFraction
	case c > 0:
		return -float64(c)
	}
	return math.Inf(-1)
}
