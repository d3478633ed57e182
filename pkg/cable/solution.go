package cable

import (
	"fmt"
	"math"
	"time"

	"github.com/matzehuels/cablenet/pkg/candidates"
	"github.com/matzehuels/cablenet/pkg/errors"
	"github.com/matzehuels/cablenet/pkg/milp"
)

// flowTol is the slack allowed when checking flow values read back from the
// solver.
const flowTol = 1e-6

// ActiveArc is a laid cable with the power it carries.
type ActiveArc struct {
	From, To int
	Weight   float64
	Flow     float64
}

// Solution is the outcome of one solve.
type Solution struct {
	Mode     candidates.Mode
	Capacity int

	Cost    float64
	Arcs    []ActiveArc
	Elapsed time.Duration
	Status  milp.Status
	Gap     float64 // +Inf without a layout
	Bound   float64

	Nodes           int
	LazyConstraints int
	Rejected        int
	Crossings       int

	// Candidate diagnostics for visualization.
	Triangulation []candidates.Edge
	Diagonals     []candidates.Edge
	FullEdges     []candidates.Edge
}

// Found reports whether the solution holds a layout.
func (s *Solution) Found() bool { return len(s.Arcs) > 0 }

// Edges returns the laid cables as index pairs (From, To).
func (s *Solution) Edges() [][2]int {
	out := make([][2]int, len(s.Arcs))
	for i, a := range s.Arcs {
		out[i] = [2]int{a.From, a.To}
	}
	return out
}

// Err converts a status other than optimal into a coded error.
// A time-limited solution still carries its best layout.
func (s *Solution) Err() error {
	switch s.Status {
	case milp.StatusOptimal:
		return nil
	case milp.StatusTimeLimit:
		return errors.New(errors.ErrCodeSolverTimeout,
			"stopped after %s with a layout of cost %.2f (gap %.2f%%)", s.Elapsed.Round(time.Millisecond), s.Cost, 100*s.Gap)
	case milp.StatusNoIncumbent:
		return errors.New(errors.ErrCodeSolverTimeout,
			"no layout found within %s", s.Elapsed.Round(time.Millisecond))
	case milp.StatusInfeasible:
		return errors.New(errors.ErrCodeSolverInfeasible, "no layout satisfies the capacity and crossing constraints")
	}
	return errors.New(errors.ErrCodeInternal, "solver ended with status %s", s.Status)
}

// Verify checks a layout against the model invariants: one outgoing cable
// per turbine, unit flow injection, all power arriving at substations, flow
// between 1 and capacity on each cable, and no cable laid in both directions.
// An empty solution passes.
func (s *Solution) Verify(nSS, n int) error {
	if !s.Found() {
		return nil
	}

	outDeg := make([]int, n)
	net := make([]float64, n)
	laid := make(map[[2]int]bool, len(s.Arcs))
	intoSS := 0.0
	for _, a := range s.Arcs {
		if a.From < nSS || a.From >= n || a.To < 0 || a.To >= n {
			return verifyErr("arc %d→%d does not start at a turbine", a.From, a.To)
		}
		if laid[[2]int{a.To, a.From}] {
			return verifyErr("cable %d-%d is laid in both directions", a.From, a.To)
		}
		laid[[2]int{a.From, a.To}] = true
		if a.Flow < 1-flowTol || a.Flow > float64(s.Capacity)+flowTol {
			return verifyErr("arc %d→%d carries %.4g, outside [1, %d]", a.From, a.To, a.Flow, s.Capacity)
		}
		outDeg[a.From]++
		net[a.From] += a.Flow
		net[a.To] -= a.Flow
		if a.To < nSS {
			intoSS += a.Flow
		}
	}

	for t := nSS; t < n; t++ {
		if outDeg[t] != 1 {
			return verifyErr("turbine %d has %d outgoing cables", t, outDeg[t])
		}
	}
	for t := nSS; t < n; t++ {
		if math.Abs(net[t]-1) > flowTol {
			return verifyErr("turbine %d injects %.4g units", t, net[t])
		}
	}
	if want := float64(n - nSS); math.Abs(intoSS-want) > flowTol {
		return verifyErr("substations receive %.4g units, want %v", intoSS, want)
	}
	return nil
}

func verifyErr(format string, args ...any) error {
	return errors.New(errors.ErrCodeInternal, "invalid layout: %s", fmt.Sprintf(format, args...))
}

// Summary returns a one-line description for logs.
func (s *Solution) Summary() string {
	if !s.Found() {
		return fmt.Sprintf("%s: %s after %s", s.Mode, s.Status, s.Elapsed.Round(time.Millisecond))
	}
	return fmt.Sprintf("%s: %s, cost %.2f, %d cables, %d crossings, %s",
		s.Mode, s.Status, s.Cost, len(s.Arcs), s.Crossings, s.Elapsed.Round(time.Millisecond))
}
