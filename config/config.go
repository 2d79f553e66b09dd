// Package config loads solver and valuation defaults from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/pnl"
	"github.com/meenmo/fixedincome/portfolio"
	"github.com/meenmo/fixedincome/solver"
	"github.com/meenmo/fixedincome/ytm"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds solver and valuation parameters.
type Config struct {
	// ConvergenceTolerance stops root finding once |f| or the bracket width falls below it.
	ConvergenceTolerance float64 `yaml:"convergence_tolerance"`

	// MaxIterations caps root-finding iterations.
	MaxIterations int `yaml:"max_iterations"`

	// MaxExpansions caps how many times a yield or spread bracket is widened.
	// It must be positive.
	MaxExpansions int `yaml:"max_expansions"`

	// Solver is "bisection" or "secant".
	Solver string `yaml:"solver"`

	// YieldLow and YieldHigh are the initial yield bracket.
	YieldLow  float64 `yaml:"yield_low"`
	YieldHigh float64 `yaml:"yield_high"`

	// DayCount and Compounding are the yield quoting conventions.
	DayCount    string `yaml:"day_count"`
	Compounding string `yaml:"compounding"`

	// Bump is the parallel shift for finite-difference sensitivities.
	Bump float64 `yaml:"bump"`

	// Interpolation and Extrapolation apply to curves built from points or quotes.
	Interpolation string `yaml:"interpolation"`
	Extrapolation string `yaml:"extrapolation"`

	// CurveDayCount maps dates onto the curve tenor axis.
	CurveDayCount string `yaml:"curve_day_count"`

	// PVToleranceMultiplier scales max(1, |start value|) to the largest
	// revaluation gap attribution accepts.
	PVToleranceMultiplier float64 `yaml:"pv_tolerance_multiplier"`

	// Workers bounds concurrent portfolio computations.
	Workers int `yaml:"workers"`
}

// DefaultConfig provides production-ready default values.
var DefaultConfig = Config{
	ConvergenceTolerance:  solver.DefaultTolerance,
	MaxIterations:         solver.DefaultMaxIterations,
	MaxExpansions:         solver.DefaultMaxExpansions,
	Solver:                "bisection",
	YieldLow:              ytm.DefaultLow,
	YieldHigh:             ytm.DefaultHigh,
	DayCount:              string(daycount.ActualActual),
	Compounding:           daycount.SemiAnnual.String(),
	Bump:                  1e-4,
	Interpolation:         string(curve.LogLinear),
	Extrapolation:         "none",
	CurveDayCount:         string(daycount.Actual365F),
	PVToleranceMultiplier: pnl.DefaultPVToleranceMultiplier,
	Workers:               portfolio.DefaultLimit,
}

// Load reads a YAML file over DefaultConfig and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over DefaultConfig; keys left out keep their defaults.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	check(c.ConvergenceTolerance > 0, "convergence_tolerance %g must be positive", c.ConvergenceTolerance)
	check(c.MaxIterations > 0, "max_iterations %d must be positive", c.MaxIterations)
	check(c.MaxExpansions > 0, "max_expansions %d must be positive", c.MaxExpansions)
	check(c.YieldLow < c.YieldHigh, "yield_low %g must be below yield_high %g", c.YieldLow, c.YieldHigh)
	check(c.Bump > 0, "bump %g must be positive", c.Bump)
	check(c.PVToleranceMultiplier > 0, "pv_tolerance_multiplier %g must be positive", c.PVToleranceMultiplier)
	check(c.Workers > 0, "workers %d must be positive", c.Workers)
	if _, err := c.solver(); err != nil {
		errs = append(errs, err)
	}
	if _, err := daycount.ParseConvention(c.DayCount); err != nil {
		errs = append(errs, fmt.Errorf("day_count: %w", err))
	}
	if _, err := daycount.ParseConvention(c.CurveDayCount); err != nil {
		errs = append(errs, fmt.Errorf("curve_day_count: %w", err))
	}
	if _, err := daycount.ParseCompounding(c.Compounding); err != nil {
		errs = append(errs, fmt.Errorf("compounding: %w", err))
	}
	if _, err := curve.ParseInterpolation(c.Interpolation); err != nil {
		errs = append(errs, fmt.Errorf("interpolation: %w", err))
	}
	if _, err := curve.ParseExtrapolation(c.Extrapolation); err != nil {
		errs = append(errs, fmt.Errorf("extrapolation: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func (c Config) solver() (solver.Solver, error) {
	switch strings.ToLower(strings.TrimSpace(c.Solver)) {
	case "", "bisection":
		return solver.Bisection{Tolerance: c.ConvergenceTolerance, MaxIterations: c.MaxIterations}, nil
	case "secant":
		return solver.Secant{Tolerance: c.ConvergenceTolerance, MaxIterations: c.MaxIterations}, nil
	}
	return nil, fmt.Errorf("solver %q must be bisection or secant", c.Solver)
}

// YieldOptions converts the configuration for ytm.Solve.
func (c Config) YieldOptions(logger zerolog.Logger) (ytm.Options, error) {
	sv, err := c.solver()
	if err != nil {
		return ytm.Options{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	dc, err := daycount.ParseConvention(c.DayCount)
	if err != nil {
		return ytm.Options{}, fmt.Errorf("%w: day_count: %w", ErrInvalidConfig, err)
	}
	comp, err := daycount.ParseCompounding(c.Compounding)
	if err != nil {
		return ytm.Options{}, fmt.Errorf("%w: compounding: %w", ErrInvalidConfig, err)
	}
	return ytm.Options{
		Tolerance:     c.ConvergenceTolerance,
		MaxIterations: c.MaxIterations,
		MaxExpansions: c.MaxExpansions,
		Low:           c.YieldLow,
		High:          c.YieldHigh,
		DayCount:      dc,
		Compounding:   comp,
		Solver:        sv,
		Logger:        logger,
	}, nil
}

// PnLOptions converts the configuration for snapshots and attribution.
func (c Config) PnLOptions(logger zerolog.Logger) (pnl.Options, error) {
	y, err := c.YieldOptions(logger)
	if err != nil {
		return pnl.Options{}, err
	}
	ex, err := curve.ParseExtrapolation(c.Extrapolation)
	if err != nil {
		return pnl.Options{}, fmt.Errorf("%w: extrapolation: %w", ErrInvalidConfig, err)
	}
	return pnl.Options{
		PVToleranceMultiplier: c.PVToleranceMultiplier,
		Bump:                  c.Bump,
		Extrapolation:         ex,
		Yield:                 y,
	}, nil
}

// CurveSettings returns the interpolation method and construction options.
func (c Config) CurveSettings(logger zerolog.Logger) (curve.Interpolation, []curve.Option, error) {
	m, err := curve.ParseInterpolation(c.Interpolation)
	if err != nil {
		return "", nil, fmt.Errorf("%w: interpolation: %w", ErrInvalidConfig, err)
	}
	dc, err := daycount.ParseConvention(c.CurveDayCount)
	if err != nil {
		return "", nil, fmt.Errorf("%w: curve_day_count: %w", ErrInvalidConfig, err)
	}
	sv, err := c.solver()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return m, []curve.Option{curve.WithDayCount(dc), curve.WithSolver(sv), curve.WithLogger(logger)}, nil
}

// PortfolioOptions converts the configuration for the portfolio runner.
func (c Config) PortfolioOptions(logger zerolog.Logger) portfolio.Options {
	return portfolio.Options{Limit: c.Workers, Logger: logger}
}
