package milp

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// Incumbent is an integer-feasible candidate offered to a [Callback] before
// the solver accepts it.
type Incumbent struct {
	values    []float64
	objective float64
	pool      *Pool

	mu    sync.Mutex
	added []Constraint
}

// NewIncumbent wraps a candidate solution. Solver implementations call it;
// callbacks only receive incumbents.
func NewIncumbent(values []float64, objective float64, pool *Pool) *Incumbent {
	return &Incumbent{values: values, objective: objective, pool: pool}
}

// Value returns the candidate value of v.
func (in *Incumbent) Value(v Var) float64 { return in.values[v] }

// Values returns all candidate values indexed by [Var]. The slice must not be
// modified.
func (in *Incumbent) Values() []float64 { return in.values }

// Objective returns the candidate objective value.
func (in *Incumbent) Objective() float64 { return in.objective }

// AddLazy rejects the candidate and adds c to the solve's pool. Calling it
// with a constraint the pool already holds still rejects the candidate: a
// concurrent worker may have added the same cut after this candidate's
// relaxation was solved.
func (in *Incumbent) AddLazy(c Constraint) {
	in.pool.Add(c)
	in.mu.Lock()
	in.added = append(in.added, c)
	in.mu.Unlock()
}

// Rejected reports whether the callback added any lazy constraint.
func (in *Incumbent) Rejected() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.added) > 0
}

// Added returns the constraints the callback passed to AddLazy.
func (in *Incumbent) Added() []Constraint {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]Constraint(nil), in.added...)
}

// Callback inspects integer-feasible candidates. It may be called from
// several goroutines at once and must not retain the incumbent.
type Callback func(in *Incumbent)

// Params controls a solve.
type Params struct {
	// TimeLimit bounds wall-clock time. Zero means no limit beyond ctx.
	TimeLimit time.Duration

	// RelGap stops the search once (incumbent − bound) / |incumbent| falls
	// to this value.
	RelGap float64

	// Workers is the number of concurrent node processors. Zero means one.
	Workers int

	// Progress, when set, receives search statistics on every new incumbent
	// and periodically while the search runs.
	Progress func(Progress)
}

// Progress is a snapshot of a running search.
type Progress struct {
	Elapsed      time.Duration
	Nodes        int
	Open         int
	Incumbent    float64 // +Inf until the first incumbent
	Bound        float64
	Lazy         int
	NewIncumbent bool
}

// Gap returns the relative gap of the snapshot, or +Inf without incumbent.
func (p Progress) Gap() float64 { return relGap(p.Incumbent, p.Bound) }

// Status is the outcome of a solve.
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusTimeLimit
	StatusInfeasible
	StatusNoIncumbent
)

var statusNames = map[Status]string{
	StatusUnknown:     "unknown",
	StatusOptimal:     "optimal",
	StatusTimeLimit:   "time_limit",
	StatusInfeasible:  "infeasible",
	StatusNoIncumbent: "no_incumbent",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	for st, n := range statusNames {
		if n == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown solver status %q", b)
}

// Result is the outcome of [Solver.Solve].
type Result struct {
	Status    Status
	Objective float64
	Bound     float64
	Values    []float64 // nil without incumbent

	Runtime         time.Duration
	Nodes           int
	LazyConstraints int
	Rejected        int // candidates rejected by the callback
}

// HasIncumbent reports whether the solver accepted a solution.
func (r *Result) HasIncumbent() bool { return r.Values != nil }

// Gap returns the relative optimality gap of the result, or +Inf without an
// incumbent.
func (r *Result) Gap() float64 {
	if !r.HasIncumbent() {
		return math.Inf(1)
	}
	return relGap(r.Objective, r.Bound)
}

func relGap(obj, bound float64) float64 {
	if math.IsInf(obj, 0) {
		return math.Inf(1)
	}
	g := (obj - bound) / math.Max(math.Abs(obj), 1e-10)
	if g < 0 {
		return 0
	}
	return g
}

// Solver runs a [Problem]. Solve blocks until the search is complete, the
// time limit or gap is reached, or ctx is done. It returns an error only when
// the problem cannot be run at all; search outcomes are reported through
// [Result.Status].
type Solver interface {
	Solve(ctx context.Context, p *Problem, params Params, cb Callback) (*Result, error)
}
