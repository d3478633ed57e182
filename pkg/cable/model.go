package cable

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/cablenet/pkg/candidates"
	"github.com/matzehuels/cablenet/pkg/errors"
	"github.com/matzehuels/cablenet/pkg/geom"
	"github.com/matzehuels/cablenet/pkg/milp"
	"github.com/matzehuels/cablenet/pkg/observability"
)

// DefaultCapacity is the cable capacity used when none is configured.
const DefaultCapacity = 4

// Arc is a directed candidate cable. From is always a turbine.
type Arc struct {
	From, To int
	Weight   float64
	X, F     milp.Var
}

// Options configures [NewModel].
type Options struct {
	// Capacity is the maximum number of turbines one cable can carry.
	// Zero uses DefaultCapacity.
	Capacity int

	// Policy selects whether feeder cables take part in crossing checks.
	// PolicyAuto picks per mode.
	Policy FeederPolicy
}

// Model is the flow MILP for one instance and candidate set. It is read-only
// once built and may be solved several times.
type Model struct {
	coords   []r2.Vec
	set      *candidates.Set
	capacity int
	policy   FeederPolicy

	arcs    []Arc
	index   map[[2]int]int
	problem *milp.Problem
}

// NewModel builds the model. coords must be the slice set was built from.
func NewModel(coords []r2.Vec, set *candidates.Set, opts Options) (*Model, error) {
	if set == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "candidate set is nil")
	}
	if len(coords) != set.N {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"candidate set covers %d points, instance has %d", set.N, len(coords))
	}
	if opts.Capacity == 0 {
		opts.Capacity = DefaultCapacity
	}
	if err := errors.ValidateCapacity(opts.Capacity); err != nil {
		return nil, err
	}

	m := &Model{
		coords:   coords,
		set:      set,
		capacity: opts.Capacity,
		policy:   opts.Policy.Resolve(set.Mode),
		index:    make(map[[2]int]int, 2*len(set.Edges)),
		problem:  milp.NewProblem(fmt.Sprintf("cablenet-%s", set.Mode)),
	}
	m.build()
	return m, nil
}

func (m *Model) addArc(from, to int, w float64) Arc {
	a := Arc{
		From:   from,
		To:     to,
		Weight: w,
		X:      m.problem.AddBinary(fmt.Sprintf("x_%d_%d", from, to)),
		F:      m.problem.AddContinuous(fmt.Sprintf("f_%d_%d", from, to), 0, math.Inf(1)),
	}
	m.index[[2]int{from, to}] = len(m.arcs)
	m.arcs = append(m.arcs, a)
	return a
}

func (m *Model) build() {
	p, nSS := m.problem, m.set.NSS

	for _, e := range m.set.Edges {
		if e.Feeder(nSS) {
			m.addArc(e.V, e.U, e.Weight)
			continue
		}
		uv := m.addArc(e.U, e.V, e.Weight)
		vu := m.addArc(e.V, e.U, e.Weight)
		p.AddConstraint(milp.Constraint{
			Name:  fmt.Sprintf("nobidir_%d_%d", e.U, e.V),
			Terms: milp.Sum(uv.X, vu.X),
			Sense: milp.LessEq,
			RHS:   1,
		})
	}

	n := len(m.coords)
	out := make([][]int, n)
	in := make([][]int, n)
	var intoSS []milp.Term
	for i, a := range m.arcs {
		out[a.From] = append(out[a.From], i)
		in[a.To] = append(in[a.To], i)
		if a.To < nSS {
			intoSS = append(intoSS, milp.Term{Var: a.F, Coef: 1})
		}
	}

	p.AddConstraint(milp.Constraint{
		Name:  "feeders_power",
		Terms: intoSS,
		Sense: milp.Equal,
		RHS:   float64(m.set.Turbines()),
	})

	for t := nSS; t < n; t++ {
		export := make([]milp.Term, 0, len(out[t]))
		balance := make([]milp.Term, 0, len(out[t])+len(in[t]))
		for _, i := range out[t] {
			export = append(export, milp.Term{Var: m.arcs[i].X, Coef: 1})
			balance = append(balance, milp.Term{Var: m.arcs[i].F, Coef: 1})
		}
		for _, i := range in[t] {
			balance = append(balance, milp.Term{Var: m.arcs[i].F, Coef: -1})
		}
		p.AddConstraint(milp.Constraint{
			Name:  fmt.Sprintf("single_export_%d", t),
			Terms: export,
			Sense: milp.Equal,
			RHS:   1,
		})
		p.AddConstraint(milp.Constraint{
			Name:  fmt.Sprintf("flow_balance_%d", t),
			Terms: balance,
			Sense: milp.Equal,
			RHS:   1,
		})
	}

	obj := make([]milp.Term, 0, len(m.arcs))
	for _, a := range m.arcs {
		p.AddConstraint(milp.Constraint{
			Name:  fmt.Sprintf("bind_upper_%d_%d", a.From, a.To),
			Terms: []milp.Term{{Var: a.F, Coef: 1}, {Var: a.X, Coef: -float64(m.capacity)}},
			Sense: milp.LessEq,
		})
		p.AddConstraint(milp.Constraint{
			Name:  fmt.Sprintf("bind_lower_%d_%d", a.From, a.To),
			Terms: []milp.Term{{Var: a.F, Coef: 1}, {Var: a.X, Coef: -1}},
			Sense: milp.GreaterEq,
		})
		obj = append(obj, milp.Term{Var: a.X, Coef: a.Weight})
	}
	p.SetObjective(obj)
}

// Problem returns the underlying MILP.
func (m *Model) Problem() *milp.Problem { return m.problem }

// Arcs returns all arcs in creation order. The slice must not be modified.
func (m *Model) Arcs() []Arc { return m.arcs }

// Arc returns the arc from → to, if it exists.
func (m *Model) Arc(from, to int) (Arc, bool) {
	i, ok := m.index[[2]int{from, to}]
	if !ok {
		return Arc{}, false
	}
	return m.arcs[i], true
}

// Coordinates returns the instance points, substations first.
func (m *Model) Coordinates() []r2.Vec { return m.coords }

// Candidates returns the candidate set the model was built from.
func (m *Model) Candidates() *candidates.Set { return m.set }

// Capacity returns the cable capacity.
func (m *Model) Capacity() int { return m.capacity }

// Policy returns the resolved feeder policy.
func (m *Model) Policy() FeederPolicy { return m.policy }

// Solve runs solver on the model with the crossing oracle as lazy callback.
//
// It returns an error only when the solver cannot run or ctx is already done
// on entry. Every search outcome, including an empty one, is a [Solution];
// use [Solution.Err] to tell them apart.
func (m *Model) Solve(ctx context.Context, solver milp.Solver, params milp.Params) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := string(m.set.Mode)
	hooks := observability.Solve()
	oracle := NewCrossingOracle(m, m.policy)

	progress := params.Progress
	params.Progress = func(p milp.Progress) {
		if p.NewIncumbent {
			hooks.OnIncumbent(ctx, p.Incumbent, p.Bound, p.Elapsed)
		}
		if progress != nil {
			progress(p)
		}
	}
	cb := func(in *milp.Incumbent) {
		if added := oracle.Check(in); added > 0 {
			hooks.OnLazyConstraint(ctx, added, int(oracle.Cuts()))
		}
	}

	hooks.OnSolveStart(ctx, mode, len(m.arcs))
	start := time.Now()
	res, err := solver.Solve(ctx, m.problem, params, cb)
	elapsed := time.Since(start)
	if err != nil {
		hooks.OnSolveComplete(ctx, mode, milp.StatusUnknown.String(), 0, elapsed, err)
		return nil, fmt.Errorf("solve %s model: %w", mode, err)
	}

	sol := m.solution(res, elapsed)
	hooks.OnSolveComplete(ctx, mode, sol.Status.String(), sol.Cost, elapsed, sol.Err())
	return sol, nil
}

func (m *Model) solution(res *milp.Result, elapsed time.Duration) *Solution {
	sol := &Solution{
		Mode:            m.set.Mode,
		Capacity:        m.capacity,
		Status:          res.Status,
		Elapsed:         elapsed,
		Nodes:           res.Nodes,
		LazyConstraints: res.LazyConstraints,
		Rejected:        res.Rejected,
		Gap:             math.Inf(1),
		Bound:           res.Bound,
		Triangulation:   m.set.Triangulation,
		Diagonals:       m.set.Diagonals,
	}
	if m.set.Mode == candidates.ModeFull {
		sol.FullEdges = m.set.Edges
	}
	if !res.HasIncumbent() {
		return sol
	}

	for _, a := range m.arcs {
		if res.Values[a.X] > 0.5 {
			sol.Arcs = append(sol.Arcs, ActiveArc{
				From:   a.From,
				To:     a.To,
				Weight: a.Weight,
				Flow:   res.Values[a.F],
			})
			sol.Cost += a.Weight
		}
	}
	sol.Gap = res.Gap()
	sol.Crossings = geom.CountCrossings(sol.Edges(), m.coords)
	return sol
}
