// Package curve builds zero-rate curves from (tenor, rate) points and
// bootstraps them from par swap rates or coupon bond prices.
package curve

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/solver"
)

var (
	// ErrInvalidCurveInput is returned for malformed curve points or queries.
	ErrInvalidCurveInput = errors.New("invalid curve input")
	// ErrExtrapolationNotSupported is returned for tenors outside the node
	// range when flat extrapolation was not requested.
	ErrExtrapolationNotSupported = errors.New("extrapolation not supported")
)

// Interpolation selects how rates between nodes are derived.
type Interpolation string

const (
	// Linear interpolates zero rates linearly in tenor.
	Linear Interpolation = "LINEAR"
	// LogLinear interpolates the log of the discount factor linearly in tenor.
	LogLinear Interpolation = "LOG_LINEAR"
	// FlatForward interpolates rate times tenor linearly, holding the forward
	// rate constant between nodes in the curve's compounding. Under
	// continuous compounding it coincides with LogLinear.
	FlatForward Interpolation = "FLAT_FORWARD"
)

func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(strings.TrimSpace(s))) {
	case "LINEAR":
		return Linear, nil
	case "LOG_LINEAR", "LOGLINEAR":
		return LogLinear, nil
	case "FLAT_FORWARD", "FLATFORWARD":
		return FlatForward, nil
	}
	return "", fmt.Errorf("ParseInterpolation: %q: %w", s, ErrInvalidCurveInput)
}

func (m Interpolation) Valid() bool {
	return m == Linear || m == LogLinear || m == FlatForward
}

// Extrapolation selects the behaviour outside the node range.
type Extrapolation string

const (
	ExtrapolateNone Extrapolation = ""
	// ExtrapolateFlat holds the first or last zero rate constant.
	ExtrapolateFlat Extrapolation = "FLAT"
)

func ParseExtrapolation(s string) (Extrapolation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NONE":
		return ExtrapolateNone, nil
	case "FLAT":
		return ExtrapolateFlat, nil
	}
	return "", fmt.Errorf("ParseExtrapolation: %q: %w", s, ErrInvalidCurveInput)
}

// Point is a curve node: tenor in years and rate as a decimal fraction.
type Point struct {
	Tenor float64 `json:"tenor" yaml:"tenor"`
	Rate  float64 `json:"rate" yaml:"rate"`
}

type settings struct {
	dayCount    daycount.Convention
	compounding daycount.Compounding
	solver      solver.Solver
	logger      zerolog.Logger
}

func defaultSettings() settings {
	return settings{
		dayCount:    daycount.Actual365F,
		compounding: daycount.Continuous,
		solver:      solver.Bisection{Tolerance: 1e-14, MaxIterations: 200},
		logger:      zerolog.Nop(),
	}
}

// Option customizes curve construction.
type Option func(*settings)

// WithDayCount sets the convention that maps dates onto the tenor axis. Default ACT/365F.
func WithDayCount(c daycount.Convention) Option {
	return func(s *settings) { s.dayCount = c }
}

// WithCompounding sets the compounding of the node rates. Default continuous.
func WithCompounding(c daycount.Compounding) Option {
	return func(s *settings) { s.compounding = c }
}

// WithSolver sets the root finder used by bootstrapping.
func WithSolver(sv solver.Solver) Option {
	return func(s *settings) { s.solver = sv }
}

// WithLogger sets the logger for bootstrap progress.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// RateCurve is an immutable zero-rate curve.
type RateCurve struct {
	tenors      []float64
	rates       []float64
	logDFs      []float64
	method      Interpolation
	dayCount    daycount.Convention
	compounding daycount.Compounding
}

// BuildCurve validates points and returns a curve interpolating them with method.
// Tenors must be non-negative and strictly increasing.
func BuildCurve(points []Point, method Interpolation, opts ...Option) (*RateCurve, error) {
	s := defaultSettings()
	for _, o := range opts {
		o(&s)
	}
	return build(points, method, s)
}

func build(points []Point, method Interpolation, s settings) (*RateCurve, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("BuildCurve: no points: %w", ErrInvalidCurveInput)
	}
	if !method.Valid() {
		return nil, fmt.Errorf("BuildCurve: interpolation %q: %w", method, ErrInvalidCurveInput)
	}
	if !s.dayCount.Valid() || !s.compounding.Valid() {
		return nil, fmt.Errorf("BuildCurve: day count %q, compounding %s: %w", s.dayCount, s.compounding, ErrInvalidCurveInput)
	}

	c := &RateCurve{
		tenors:      make([]float64, len(points)),
		rates:       make([]float64, len(points)),
		logDFs:      make([]float64, len(points)),
		method:      method,
		dayCount:    s.dayCount,
		compounding: s.compounding,
	}
	for i, p := range points {
		if !finite(p.Tenor) || p.Tenor < 0 {
			return nil, fmt.Errorf("BuildCurve: point %d tenor %g: %w", i, p.Tenor, ErrInvalidCurveInput)
		}
		if !finite(p.Rate) {
			return nil, fmt.Errorf("BuildCurve: point %d rate %g: %w", i, p.Rate, ErrInvalidCurveInput)
		}
		if i > 0 && p.Tenor <= points[i-1].Tenor {
			return nil, fmt.Errorf("BuildCurve: tenor %g does not follow %g: %w", p.Tenor, points[i-1].Tenor, ErrInvalidCurveInput)
		}
		df, err := daycount.DiscountFactor(p.Rate, p.Tenor, s.compounding)
		if err != nil {
			return nil, fmt.Errorf("BuildCurve: point %d: %w: %w", i, ErrInvalidCurveInput, err)
		}
		c.tenors[i] = p.Tenor
		c.rates[i] = p.Rate
		c.logDFs[i] = math.Log(df)
	}
	return c, nil
}

// Points returns a copy of the nodes.
func (c *RateCurve) Points() []Point {
	out := make([]Point, len(c.tenors))
	for i := range c.tenors {
		out[i] = Point{Tenor: c.tenors[i], Rate: c.rates[i]}
	}
	return out
}

func (c *RateCurve) Method() Interpolation             { return c.method }
func (c *RateCurve) DayCount() daycount.Convention     { return c.dayCount }
func (c *RateCurve) Compounding() daycount.Compounding { return c.compounding }
func (c *RateCurve) MaxTenor() float64                 { return c.tenors[len(c.tenors)-1] }

// TenorOf maps a date onto the curve's tenor axis measured from origin.
func (c *RateCurve) TenorOf(origin, t time.Time) (float64, error) {
	return daycount.AccrualFraction(origin, t, c.dayCount)
}

// ZeroRate returns the zero rate at tenor, in the curve's compounding.
func (c *RateCurve) ZeroRate(tenor float64, ex Extrapolation) (float64, error) {
	if !finite(tenor) || tenor < 0 {
		return 0, fmt.Errorf("ZeroRate: tenor %g: %w", tenor, ErrInvalidCurveInput)
	}
	i, pos, err := c.locate(tenor, ex)
	if err != nil {
		return 0, fmt.Errorf("ZeroRate: %w", err)
	}
	if pos != inside {
		return c.rates[i], nil
	}
	return c.interpolate(i, tenor)
}

// DiscountFactor returns the discount factor at tenor. Tenor 0 is always 1.
func (c *RateCurve) DiscountFactor(tenor float64, ex Extrapolation) (float64, error) {
	if tenor == 0 {
		return 1, nil
	}
	if !finite(tenor) || tenor < 0 {
		return 0, fmt.Errorf("DiscountFactor: tenor %g: %w", tenor, ErrInvalidCurveInput)
	}
	i, pos, err := c.locate(tenor, ex)
	if err != nil {
		return 0, fmt.Errorf("DiscountFactor: %w", err)
	}
	switch {
	case pos == atNode:
		return math.Exp(c.logDFs[i]), nil
	case pos == inside && c.method == LogLinear:
		return math.Exp(c.interpolateLogDF(i, tenor)), nil
	}
	r := c.rates[i]
	if pos == inside {
		if r, err = c.interpolate(i, tenor); err != nil {
			return 0, fmt.Errorf("DiscountFactor: %w", err)
		}
	}
	return daycount.DiscountFactor(r, tenor, c.compounding)
}

// ForwardRate returns the rate, in the curve's compounding, implied between t1 and t2.
func (c *RateCurve) ForwardRate(t1, t2 float64, ex Extrapolation) (float64, error) {
	if !(t2 > t1) || t1 < 0 {
		return 0, fmt.Errorf("ForwardRate: [%g, %g]: %w", t1, t2, ErrInvalidCurveInput)
	}
	df1, err := c.DiscountFactor(t1, ex)
	if err != nil {
		return 0, fmt.Errorf("ForwardRate: %w", err)
	}
	df2, err := c.DiscountFactor(t2, ex)
	if err != nil {
		return 0, fmt.Errorf("ForwardRate: %w", err)
	}
	return daycount.ZeroRate(df2/df1, t2-t1, c.compounding)
}

type position int

const (
	atNode position = iota
	inside
	flat
)

// locate returns the node hit exactly, the upper node of the bracketing
// segment, or under flat extrapolation the nearest end node.
func (c *RateCurve) locate(tenor float64, ex Extrapolation) (int, position, error) {
	last := len(c.tenors) - 1
	if tenor < c.tenors[0] || tenor > c.tenors[last] {
		if ex != ExtrapolateFlat {
			return 0, 0, fmt.Errorf("tenor %g outside [%g, %g]: %w", tenor, c.tenors[0], c.tenors[last], ErrExtrapolationNotSupported)
		}
		if tenor < c.tenors[0] {
			return 0, flat, nil
		}
		return last, flat, nil
	}
	i := sort.SearchFloat64s(c.tenors, tenor)
	if c.tenors[i] == tenor {
		return i, atNode, nil
	}
	return i, inside, nil
}

func (c *RateCurve) interpolateLogDF(i int, tenor float64) float64 {
	t1, t2 := c.tenors[i-1], c.tenors[i]
	w := (tenor - t1) / (t2 - t1)
	return c.logDFs[i-1] + (c.logDFs[i]-c.logDFs[i-1])*w
}

func (c *RateCurve) interpolate(i int, tenor float64) (float64, error) {
	t1, t2 := c.tenors[i-1], c.tenors[i]
	r1, r2 := c.rates[i-1], c.rates[i]
	w := (tenor - t1) / (t2 - t1)
	switch c.method {
	case Linear:
		return r1 + (r2-r1)*w, nil
	case FlatForward:
		return (r1*t1 + (r2*t2-r1*t1)*w) / tenor, nil
	default:
		return daycount.ZeroRate(math.Exp(c.interpolateLogDF(i, tenor)), tenor, c.compounding)
	}
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
