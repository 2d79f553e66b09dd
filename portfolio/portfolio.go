// Package portfolio values and attributes many independent securities concurrently.
//
// Each security is computed exactly as the single-security packages would;
// only the scheduling is concurrent. A failure on one security is recorded
// on its row and does not stop the others.
package portfolio

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/meenmo/fixedincome/bond"
	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/pnl"
	"github.com/meenmo/fixedincome/valuation"
)

// DefaultLimit bounds the number of securities in flight.
const DefaultLimit = 8

// Options controls scheduling.
type Options struct {
	// Limit is the maximum number of concurrent computations; <= 0 selects DefaultLimit.
	Limit  int
	Logger zerolog.Logger
}

func (o Options) limit() int {
	if o.Limit <= 0 {
		return DefaultLimit
	}
	return o.Limit
}

// Security is one cashflow schedule with the source it is discounted on.
type Security struct {
	ID        string
	Cashflows bond.Schedule
	Source    valuation.DiscountSource
}

// Valuation is the outcome for one security, in input order.
type Valuation struct {
	ID     string
	Result valuation.Result
	Err    error
}

// ValueAll values every security as of asOf.
//
// The returned slice always has one row per input. The error is non-nil only
// when ctx was cancelled; rows not reached carry the context error.
func ValueAll(ctx context.Context, secs []Security, asOf time.Time, opts Options) ([]Valuation, error) {
	out := make([]Valuation, len(secs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.limit())

	for i, sec := range secs {
		i, sec := i, sec
		out[i].ID = sec.ID
		if err := gctx.Err(); err != nil {
			out[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				out[i].Err = err
				return err
			}
			res, err := valuation.PresentValue(sec.Cashflows, sec.Source, asOf)
			if err != nil {
				opts.Logger.Debug().Str("id", sec.ID).Err(err).Msg("valuation failed")
				out[i].Err = err
				return nil
			}
			out[i].Result = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, ctx.Err()
}

// Pair is two snapshots of one security to attribute.
type Pair struct {
	ID    string
	Start pnl.Snapshot
	End   pnl.Snapshot
}

// Attribution is the outcome for one pair, in input order.
type Attribution struct {
	ID     string
	Result pnl.Result
	Err    error
}

// AttributeAll runs pnl.Attribute for every pair against the same two curves.
func AttributeAll(ctx context.Context, pairs []Pair, curveStart, curveEnd *curve.RateCurve, popts pnl.Options, opts Options) ([]Attribution, error) {
	out := make([]Attribution, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.limit())

	for i, p := range pairs {
		i, p := i, p
		out[i].ID = p.ID
		if err := gctx.Err(); err != nil {
			out[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				out[i].Err = err
				return err
			}
			res, err := pnl.Attribute(p.Start, p.End, curveStart, curveEnd, popts)
			if err != nil {
				opts.Logger.Debug().Str("id", p.ID).Err(err).Msg("attribution failed")
				out[i].Err = err
				return nil
			}
			out[i].Result = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, ctx.Err()
}
