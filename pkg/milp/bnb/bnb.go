// Package bnb is a pure-Go branch-and-bound solver for [milp.Problem].
//
// # Algorithm
//
// Every node of the search tree is an LP relaxation of the problem with some
// binary variables fixed to 0 or 1. Relaxations are solved from scratch by a
// dense bounded-variable primal simplex: variable bounds and fixings are
// bounds rather than rows, equalities stay single rows, and rows that start
// infeasible get an artificial column for phase one. Pricing picks the
// largest reduced cost until a run of degenerate pivots switches it to
// Bland's rule, which cannot cycle. The solve context is checked between
// pivots, so a time limit interrupts a relaxation in progress.
//
// Open nodes are kept in a best-first queue ordered by their LP bound.
// Workers take a node from the queue and then dive: after branching on the
// most fractional binary they continue with the child that rounds the
// fractional value and queue the other one. Diving finds incumbents early;
// the best-first queue closes the gap.
//
// # Lazy Constraints
//
// When a relaxation is integral, the candidate is offered to the callback.
// If the callback adds lazy constraints the candidate is discarded and the
// same node is solved again with the grown pool, which every later node
// includes as well. A rejection whose cuts are all satisfied by the
// candidate is logged and ignored, so a misbehaving callback cannot stall
// the search.
//
// # Limits
//
// Variables must have non-negative lower bounds. Relaxations use a dense
// tableau, which keeps the solver simple and adequate for instances with a
// few thousand variables; larger problems should use a [milp.Solver] backed
// by a commercial engine.
package bnb

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/cablenet/pkg/milp"
)

const (
	defaultIntTol    = 1e-6
	defaultHeartbeat = 10 * time.Second
)

// Solver implements [milp.Solver].
type Solver struct {
	// Logger receives debug output about incumbents and search progress.
	// Nil discards it.
	Logger *log.Logger

	// IntTol is the integrality tolerance. Zero uses 1e-6.
	IntTol float64

	// Heartbeat is the interval between periodic progress reports. Zero
	// uses 10 seconds.
	Heartbeat time.Duration
}

// New returns a solver that logs to logger.
func New(logger *log.Logger) *Solver {
	return &Solver{Logger: logger}
}

var _ milp.Solver = (*Solver)(nil)

// Solve runs branch-and-bound on p. See [milp.Solver].
func (s *Solver) Solve(ctx context.Context, p *milp.Problem, params milp.Params, cb milp.Callback) (*milp.Result, error) {
	if p.NumVars() == 0 {
		return nil, fmt.Errorf("bnb: problem %q has no variables", p.Name)
	}
	for v := 0; v < p.NumVars(); v++ {
		lo, hi := p.Bounds(milp.Var(v))
		if lo < 0 || math.IsNaN(lo) || math.IsNaN(hi) {
			return nil, fmt.Errorf("bnb: variable %s has unsupported bounds [%v, %v]", p.VarName(milp.Var(v)), lo, hi)
		}
	}

	start := time.Now()
	if params.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.TimeLimit)
		defer cancel()
	}
	if params.Workers <= 0 {
		params.Workers = 1
	}
	if params.Workers > runtime.GOMAXPROCS(0) {
		params.Workers = runtime.GOMAXPROCS(0)
	}

	e := newEngine(p, params, cb, s.options())
	e.start = start
	e.log.Debug("branch and bound started",
		"problem", p.Name,
		"vars", p.NumVars(),
		"binaries", p.NumBinary(),
		"rows", len(p.Constraints()),
		"workers", params.Workers)

	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, e.halt)
	for w := 0; w < params.Workers; w++ {
		g.Go(func() error { return e.work(gctx, w) })
	}
	err := g.Wait()
	stop()
	if err != nil {
		return nil, err
	}

	res := e.result()
	e.log.Debug("branch and bound finished",
		"status", res.Status,
		"objective", res.Objective,
		"bound", res.Bound,
		"nodes", res.Nodes,
		"lazy", res.LazyConstraints,
		"elapsed", res.Runtime.Round(time.Millisecond))
	return res, nil
}

type options struct {
	log       *log.Logger
	intTol    float64
	heartbeat time.Duration
}

func (s *Solver) options() options {
	o := options{log: s.Logger, intTol: s.IntTol, heartbeat: s.Heartbeat}
	if o.log == nil {
		o.log = log.New(io.Discard)
	}
	if o.intTol <= 0 {
		o.intTol = defaultIntTol
	}
	if o.heartbeat <= 0 {
		o.heartbeat = defaultHeartbeat
	}
	return o
}
