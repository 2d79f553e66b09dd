package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/fixedincome/config"
	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/solver"
)

func TestDefaultConfig_Valid(t *testing.T) {
	t.Parallel()

	require.NoError(t, config.DefaultConfig.Validate())

	y, err := config.DefaultConfig.YieldOptions(zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, daycount.ActualActual, y.DayCount)
	assert.Equal(t, daycount.SemiAnnual, y.Compounding)
	assert.IsType(t, solver.Bisection{}, y.Solver)
	assert.Equal(t, -0.99, y.Low)
	assert.Equal(t, 1.0, y.High)
}

func TestParse_OverridesKeepDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte(`
solver: secant
compounding: annual
day_count: 30/360
interpolation: linear
extrapolation: flat
workers: 2
`))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig.ConvergenceTolerance, cfg.ConvergenceTolerance)
	assert.Equal(t, config.DefaultConfig.Bump, cfg.Bump)
	assert.Equal(t, 2, cfg.PortfolioOptions(zerolog.Nop()).Limit)

	p, err := cfg.PnLOptions(zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, curve.ExtrapolateFlat, p.Extrapolation)
	assert.Equal(t, daycount.Annual, p.Yield.Compounding)
	assert.Equal(t, daycount.Thirty360, p.Yield.DayCount)
	assert.IsType(t, solver.Secant{}, p.Yield.Solver)

	m, opts, err := cfg.CurveSettings(zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, curve.Linear, m)
	c, err := curve.BuildCurve([]curve.Point{{Tenor: 1, Rate: 0.03}, {Tenor: 5, Rate: 0.04}}, m, opts...)
	require.NoError(t, err)
	assert.Equal(t, daycount.Actual365F, c.DayCount())
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"syntax":        "solver: [",
		"solver":        "solver: newton",
		"day count":     "day_count: ACT/999",
		"compounding":   "compounding: weekly-ish",
		"interpolation": "interpolation: cubic",
		"bracket":       "yield_low: 0.5\nyield_high: 0.1",
		"tolerance":     "convergence_tolerance: 0",
		"workers":       "workers: -1",
		"expansions":    "max_expansions: 0",
	}
	for name, doc := range cases {
		doc := doc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := config.Parse([]byte(doc))
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fixedincome.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bump: 0.0005\nmax_iterations: 50\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0005, cfg.Bump)
	assert.Equal(t, 50, cfg.MaxIterations)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
