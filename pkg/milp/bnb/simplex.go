package bnb

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/cablenet/pkg/milp"
)

const (
	pivotTol = 1e-9
	optTol   = 1e-9
	feasTol  = 1e-7

	// blandAfter is the number of consecutive degenerate pivots after which
	// pricing switches to Bland's rule for the rest of the solve.
	blandAfter = 50

	// ctxEvery is how many iterations pass between context checks.
	ctxEvery = 16
)

var (
	errInfeasible     = errors.New("relaxation infeasible")
	errUnbounded      = errors.New("relaxation unbounded")
	errIterationLimit = errors.New("simplex iteration limit")
)

// simplex is a dense bounded-variable primal simplex. Columns are the
// structural variables, one slack per row and one artificial per row that
// starts infeasible. Bounds are handled natively, so fixing a binary is a
// bound change and never adds a row.
type simplex struct {
	m, n  int // rows, columns
	nx    int // structural columns
	art   int // first artificial column
	t     *mat.Dense
	d     []float64 // reduced costs
	lo    []float64
	hi    []float64
	basis []int  // basic column of each row
	pos   []int  // row of a basic column, -1 when nonbasic
	upper []bool // nonbasic column sits at its upper bound
	beta  []float64

	bland      bool
	degenerate int
	iter       int
	maxIter    int
}

// newSimplex sets up the phase-one tableau for rows over nx structural
// variables with bounds [lo, hi]. Every lower bound must be finite.
func newSimplex(rows []milp.Constraint, nx int, lo, hi []float64) (*simplex, error) {
	for j := 0; j < nx; j++ {
		if lo[j] > hi[j]+feasTol {
			return nil, errInfeasible
		}
	}

	m := len(rows)
	dense := make([][]float64, m)
	rhs := make([]float64, m)
	slackHi := make([]float64, m)
	resid := make([]float64, m)
	needArt := 0
	for i, c := range rows {
		a := make([]float64, nx)
		for _, term := range c.Terms {
			a[term.Var] += term.Coef
		}
		b := c.RHS
		switch c.Sense {
		case milp.GreaterEq:
			floats.Scale(-1, a)
			b = -b
			slackHi[i] = math.Inf(1)
		case milp.Equal:
			slackHi[i] = 0
		default:
			slackHi[i] = math.Inf(1)
		}
		dense[i], rhs[i] = a, b
		resid[i] = b - floats.Dot(a, lo[:nx])
		if resid[i] < -feasTol || resid[i] > slackHi[i]+feasTol {
			needArt++
		}
	}

	n := nx + m + needArt
	s := &simplex{
		m:     m,
		n:     n,
		nx:    nx,
		art:   nx + m,
		t:     mat.NewDense(max(m, 1), max(n, 1), nil),
		d:     make([]float64, n),
		lo:    make([]float64, n),
		hi:    make([]float64, n),
		basis: make([]int, m),
		pos:   make([]int, n),
		upper: make([]bool, n),
		beta:  make([]float64, m),
	}
	s.maxIter = 50*(m+n) + 1000
	copy(s.lo, lo[:nx])
	copy(s.hi, hi[:nx])
	for j := range s.pos {
		s.pos[j] = -1
	}

	next := s.art
	for i := 0; i < m; i++ {
		row := s.t.RawRowView(i)
		copy(row, dense[i])
		slack := nx + i
		row[slack] = 1
		s.hi[slack] = slackHi[i]

		r := resid[i]
		if r >= -feasTol && r <= slackHi[i]+feasTol {
			s.basis[i], s.pos[slack] = slack, i
			s.beta[i] = math.Min(math.Max(r, 0), slackHi[i])
			continue
		}
		// The slack waits at zero and an artificial carries the residual.
		sign := 1.0
		if r < 0 {
			sign = -1
		}
		row[next] = sign
		floats.Scale(sign, row)
		s.hi[next] = math.Inf(1)
		s.basis[i], s.pos[next] = next, i
		s.beta[i] = math.Abs(r)
		next++
	}
	return s, nil
}

// solve minimizes cost over the structural variables and returns their
// values and the objective.
func (s *simplex) solve(ctx context.Context, cost []float64) ([]float64, float64, error) {
	if s.n > s.art {
		phase1 := make([]float64, s.n)
		for j := s.art; j < s.n; j++ {
			phase1[j] = 1
		}
		if err := s.iterate(ctx, phase1); err != nil {
			if err == errUnbounded {
				err = errIterationLimit
			}
			return nil, 0, err
		}
		infeas := 0.0
		for j := s.art; j < s.n; j++ {
			infeas += s.value(j)
		}
		if infeas > feasTol*float64(s.m+1) {
			return nil, 0, errInfeasible
		}
		// Artificials may stay basic at zero but can never grow again.
		for j := s.art; j < s.n; j++ {
			s.hi[j] = 0
			s.upper[j] = false
			if r := s.pos[j]; r >= 0 {
				s.beta[r] = 0
			}
		}
	}

	phase2 := make([]float64, s.n)
	copy(phase2, cost)
	if err := s.iterate(ctx, phase2); err != nil {
		return nil, 0, err
	}

	x := make([]float64, s.nx)
	for j := range x {
		x[j] = math.Min(math.Max(s.value(j), s.lo[j]), s.hi[j])
	}
	return x, floats.Dot(cost[:s.nx], x), nil
}

func (s *simplex) value(j int) float64 {
	if r := s.pos[j]; r >= 0 {
		return s.beta[r]
	}
	if s.upper[j] {
		return s.hi[j]
	}
	return s.lo[j]
}

// iterate runs primal simplex iterations for cost from the current basis.
func (s *simplex) iterate(ctx context.Context, cost []float64) error {
	// d = cost - c_B·T
	copy(s.d, cost)
	for i := 0; i < s.m; i++ {
		if cb := cost[s.basis[i]]; cb != 0 {
			floats.AddScaled(s.d, -cb, s.t.RawRowView(i))
		}
	}
	for i := 0; i < s.m; i++ {
		s.d[s.basis[i]] = 0
	}

	for {
		s.iter++
		if s.iter%ctxEvery == 1 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if s.iter > s.maxIter {
			return errIterationLimit
		}

		q := s.entering()
		if q < 0 {
			return nil
		}
		dir := 1.0
		if s.upper[q] {
			dir = -1
		}

		step, leave, toUpper := s.ratio(q, dir)
		if math.IsInf(step, 1) {
			return errUnbounded
		}
		if step <= pivotTol {
			s.degenerate++
			if s.degenerate > blandAfter {
				s.bland = true
			}
		} else {
			s.degenerate = 0
		}

		entering := s.value(q) + dir*step
		if step > 0 {
			for i := 0; i < s.m; i++ {
				if a := s.t.At(i, q); a != 0 {
					s.beta[i] -= dir * step * a
				}
			}
		}
		if leave < 0 {
			s.upper[q] = !s.upper[q]
			continue
		}
		out := s.basis[leave]
		s.pos[out] = -1
		s.upper[out] = toUpper
		s.pivot(leave, q)
		s.beta[leave] = entering
	}
}

// entering picks the column to enter: the largest reduced cost, or the
// lowest eligible index once Bland's rule is active. It returns -1 at an
// optimum.
func (s *simplex) entering() int {
	best, bestScore := -1, 0.0
	for j := 0; j < s.n; j++ {
		if s.pos[j] >= 0 || s.hi[j]-s.lo[j] <= 0 {
			continue
		}
		var score float64
		switch {
		case !s.upper[j] && s.d[j] < -optTol:
			score = -s.d[j]
		case s.upper[j] && s.d[j] > optTol:
			score = s.d[j]
		default:
			continue
		}
		if s.bland {
			return j
		}
		if score > bestScore {
			best, bestScore = j, score
		}
	}
	return best
}

// ratio returns how far column q can move in direction dir, the row whose
// basic variable blocks it (-1 when q reaches its own opposite bound first)
// and whether that variable leaves at its upper bound. Ties between rows go
// to the lowest basic column.
func (s *simplex) ratio(q int, dir float64) (step float64, leave int, toUpper bool) {
	step, leave = s.hi[q]-s.lo[q], -1
	for i := 0; i < s.m; i++ {
		alpha := dir * s.t.At(i, q)
		b := s.basis[i]
		var limit float64
		var up bool
		switch {
		case alpha > pivotTol:
			limit = (s.beta[i] - s.lo[b]) / alpha
		case alpha < -pivotTol && !math.IsInf(s.hi[b], 1):
			limit, up = (s.hi[b]-s.beta[i])/-alpha, true
		default:
			continue
		}
		limit = math.Max(limit, 0)
		if limit < step-pivotTol || (leave >= 0 && limit <= step+pivotTol && b < s.basis[leave]) {
			step, leave, toUpper = limit, i, up
		}
	}
	return step, leave, toUpper
}

// pivot makes column q basic in row r.
func (s *simplex) pivot(r, q int) {
	prow := s.t.RawRowView(r)
	floats.Scale(1/prow[q], prow)
	prow[q] = 1
	for i := 0; i < s.m; i++ {
		if i == r {
			continue
		}
		row := s.t.RawRowView(i)
		if f := row[q]; f != 0 {
			floats.AddScaled(row, -f, prow)
			row[q] = 0
		}
	}
	if f := s.d[q]; f != 0 {
		floats.AddScaled(s.d, -f, prow)
		s.d[q] = 0
	}
	s.basis[r], s.pos[q] = q, r
}
