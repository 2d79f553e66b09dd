package curve

import (
	"fmt"
	"math"
	"sort"

	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/solver"
)

// node is a solved pillar on the tenor axis.
type node struct {
	tenor float64
	df    float64
}

// BootstrapSwapCurve converts par swap rates into a zero curve.
//
// Each quote is a (tenor, par rate) for a swap whose fixed leg pays at
// fixedFrequency per year, rolled backward from the tenor so any stub falls
// first. The floating leg is worth par, so each pillar satisfies
// 1 = rate·Σ αₖ·DF(tₖ) + DF(T). Pillars are solved in tenor order, each from
// the nodes already solved; coupon dates past the last solved node take a
// log-linear DF between that node and the unknown pillar.
func BootstrapSwapCurve(quotes []Point, fixedFrequency int, method Interpolation, opts ...Option) (*RateCurve, error) {
	s := defaultSettings()
	for _, o := range opts {
		o(&s)
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("BootstrapSwapCurve: no quotes: %w", ErrInvalidCurveInput)
	}
	if fixedFrequency <= 0 || fixedFrequency > 12 {
		return nil, fmt.Errorf("BootstrapSwapCurve: fixed frequency %d: %w", fixedFrequency, ErrInvalidCurveInput)
	}
	for i, q := range quotes {
		if !finite(q.Tenor) || q.Tenor <= 0 || !finite(q.Rate) {
			return nil, fmt.Errorf("BootstrapSwapCurve: quote %d (%g, %g): %w", i, q.Tenor, q.Rate, ErrInvalidCurveInput)
		}
		if i > 0 && q.Tenor <= quotes[i-1].Tenor {
			return nil, fmt.Errorf("BootstrapSwapCurve: tenor %g does not follow %g: %w", q.Tenor, quotes[i-1].Tenor, ErrInvalidCurveInput)
		}
	}

	solved := []node{{tenor: 0, df: 1}}
	for _, q := range quotes {
		next, err := solvePillar(solved, q, fixedFrequency, s.solver)
		if err != nil {
			return nil, fmt.Errorf("BootstrapSwapCurve: tenor %g: %w", q.Tenor, err)
		}
		s.logger.Debug().
			Float64("tenor", q.Tenor).
			Float64("par_rate", q.Rate).
			Float64("df", next.df).
			Msg("bootstrapped swap pillar")
		solved = append(solved, next)
	}
	return fromNodes(solved[1:], method, s)
}

// solvePillar finds DF(T) for one par quote given the immutable prefix of
// solved nodes.
func solvePillar(known []node, q Point, frequency int, sv solver.Solver) (node, error) {
	last := known[len(known)-1]
	times, accruals := fixedLeg(q.Tenor, frequency)

	parError := func(x float64) (float64, error) {
		annuity := 0.0
		for k, t := range times {
			var df float64
			if t <= last.tenor {
				df = logLinearDF(known, t)
			} else {
				w := (t - last.tenor) / (q.Tenor - last.tenor)
				df = math.Exp((1-w)*math.Log(last.df) + w*math.Log(x))
			}
			annuity += accruals[k] * df
		}
		return q.Rate*annuity + x - 1, nil
	}

	root, err := sv.Solve(parError, 1e-9, 10)
	if err != nil {
		return node{}, err
	}
	return node{tenor: q.Tenor, df: root.X}, nil
}

// fixedLeg returns payment times and accruals for a fixed leg ending at
// tenor, rolled backward by 1/frequency years.
func fixedLeg(tenor float64, frequency int) ([]float64, []float64) {
	step := 1 / float64(frequency)
	n := int(math.Ceil(tenor/step - 1e-9))
	times := make([]float64, n)
	for k := 0; k < n; k++ {
		times[n-1-k] = tenor - float64(k)*step
	}
	accruals := make([]float64, n)
	prev := 0.0
	for k, t := range times {
		accruals[k] = t - prev
		prev = t
	}
	return times, accruals
}

// logLinearDF interpolates ln DF linearly between solved nodes; t must lie
// within their range.
func logLinearDF(nodes []node, t float64) float64 {
	i := sort.Search(len(nodes), func(i int) bool { return nodes[i].tenor >= t })
	if i < len(nodes) && nodes[i].tenor == t {
		return nodes[i].df
	}
	a, b := nodes[i-1], nodes[i]
	w := (t - a.tenor) / (b.tenor - a.tenor)
	return math.Exp((1-w)*math.Log(a.df) + w*math.Log(b.df))
}

// BondQuote is a coupon bond on a regular coupon grid: annual coupon in
// percent of face, tenor in years and price per 100 face.
type BondQuote struct {
	Coupon float64 `json:"coupon" yaml:"coupon"`
	Tenor  float64 `json:"tenor" yaml:"tenor"`
	Price  float64 `json:"price" yaml:"price"`
}

// BootstrapBondCurve strips discount factors from coupon bonds maturing on
// consecutive coupon dates 1/frequency apart:
//
//	DFᵢ = (Pᵢ − c/f·Σⱼ<ᵢ DFⱼ) / (100 + c/f)
//
// It returns the zero curve and the stripped discount factors in quote order.
func BootstrapBondCurve(quotes []BondQuote, frequency int, method Interpolation, opts ...Option) (*RateCurve, []float64, error) {
	s := defaultSettings()
	for _, o := range opts {
		o(&s)
	}
	if len(quotes) == 0 {
		return nil, nil, fmt.Errorf("BootstrapBondCurve: no quotes: %w", ErrInvalidCurveInput)
	}
	if frequency <= 0 || frequency > 12 {
		return nil, nil, fmt.Errorf("BootstrapBondCurve: frequency %d: %w", frequency, ErrInvalidCurveInput)
	}

	step := 1 / float64(frequency)
	dfs := make([]float64, 0, len(quotes))
	nodes := make([]node, 0, len(quotes))
	sum := 0.0
	for i, q := range quotes {
		want := float64(i+1) * step
		if math.Abs(q.Tenor-want) > 1e-9 {
			return nil, nil, fmt.Errorf("BootstrapBondCurve: quote %d tenor %g, expected %g: %w", i, q.Tenor, want, ErrInvalidCurveInput)
		}
		if !finite(q.Coupon) || !finite(q.Price) || q.Price <= 0 {
			return nil, nil, fmt.Errorf("BootstrapBondCurve: quote %d coupon %g price %g: %w", i, q.Coupon, q.Price, ErrInvalidCurveInput)
		}
		cpn := q.Coupon / float64(frequency)
		df := (q.Price - cpn*sum) / (100 + cpn)
		if df <= 0 || !finite(df) {
			return nil, nil, fmt.Errorf("BootstrapBondCurve: quote %d strips to discount factor %g: %w", i, df, ErrInvalidCurveInput)
		}
		s.logger.Debug().Float64("tenor", q.Tenor).Float64("df", df).Msg("stripped bond pillar")
		dfs = append(dfs, df)
		nodes = append(nodes, node{tenor: q.Tenor, df: df})
		sum += df
	}
	c, err := fromNodes(nodes, method, s)
	if err != nil {
		return nil, nil, fmt.Errorf("BootstrapBondCurve: %w", err)
	}
	return c, dfs, nil
}

func fromNodes(nodes []node, method Interpolation, s settings) (*RateCurve, error) {
	points := make([]Point, len(nodes))
	for i, n := range nodes {
		r, err := daycount.ZeroRate(n.df, n.tenor, s.compounding)
		if err != nil {
			return nil, fmt.Errorf("pillar %g: %w: %w", n.tenor, ErrInvalidCurveInput, err)
		}
		points[i] = Point{Tenor: n.tenor, Rate: r}
	}
	return build(points, method, s)
}
