package swap

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/meenmo/fixedincome/daycount"
)

// MaxFixingGap is the longest run of calendar days one fixing may cover.
// Weekends and holiday clusters fit inside it; a longer gap means the
// history is incomplete.
const MaxFixingGap = 7

// Fixing is a published overnight rate, as a decimal, effective from Date
// until the next fixing.
type Fixing struct {
	Date time.Time
	Rate float64
}

// Fixings is an overnight rate history sorted by date.
type Fixings []Fixing

// NewFixings sorts a copy of in and rejects duplicate dates and non-finite rates.
func NewFixings(in []Fixing) (Fixings, error) {
	out := make(Fixings, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	for i, f := range out {
		if math.IsNaN(f.Rate) || math.IsInf(f.Rate, 0) {
			return nil, fmt.Errorf("NewFixings: rate %g on %s: %w", f.Rate, f.Date.Format(time.DateOnly), ErrInvalidSwap)
		}
		if i > 0 && !f.Date.After(out[i-1].Date) {
			return nil, fmt.Errorf("NewFixings: duplicate fixing on %s: %w", f.Date.Format(time.DateOnly), ErrInvalidSwap)
		}
	}
	return out, nil
}

// RateOn returns the latest fixing published on or before d.
func (f Fixings) RateOn(d time.Time) (float64, bool) {
	i := f.index(d)
	if i < 0 {
		return 0, false
	}
	return f[i].Rate, true
}

func (f Fixings) index(d time.Time) int {
	return sort.Search(len(f), func(i int) bool { return f[i].Date.After(d) }) - 1
}

// Growth compounds the fixings over [start, end): each fixing accrues simply
// under dc until the next one takes over.
func (f Fixings) Growth(start, end time.Time, dc daycount.Convention) (float64, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("Growth: end %s before start %s: %w",
			end.Format(time.DateOnly), start.Format(time.DateOnly), daycount.ErrInvalidDateRange)
	}
	i := f.index(start)
	if i < 0 && start.Before(end) {
		return 0, fmt.Errorf("Growth: no fixing on or before %s: %w", start.Format(time.DateOnly), ErrMissingFixing)
	}

	growth := 1.0
	for d := start; d.Before(end); i++ {
		next := end
		if i+1 < len(f) && f[i+1].Date.Before(end) {
			next = f[i+1].Date
		}
		if daycount.Days(f[i].Date, next) > MaxFixingGap {
			return 0, fmt.Errorf("Growth: fixing of %s carried to %s: %w",
				f[i].Date.Format(time.DateOnly), next.Format(time.DateOnly), ErrMissingFixing)
		}
		tau, err := daycount.AccrualFraction(d, next, dc)
		if err != nil {
			return 0, fmt.Errorf("Growth: %w", err)
		}
		growth *= 1 + f[i].Rate*tau
		d = next
	}
	return growth, nil
}

// CompoundedRate is the simple annualized rate equivalent to Growth over [start, end).
func (f Fixings) CompoundedRate(start, end time.Time, dc daycount.Convention) (float64, error) {
	g, err := f.Growth(start, end, dc)
	if err != nil {
		return 0, err
	}
	tau, err := daycount.AccrualFraction(start, end, dc)
	if err != nil {
		return 0, fmt.Errorf("CompoundedRate: %w", err)
	}
	if tau == 0 {
		return 0, fmt.Errorf("CompoundedRate: empty period: %w", daycount.ErrInvalidDateRange)
	}
	return (g - 1) / tau, nil
}
