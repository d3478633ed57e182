package cable

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/cablenet/pkg/candidates"
	"github.com/matzehuels/cablenet/pkg/errors"
	"github.com/matzehuels/cablenet/pkg/geom"
	"github.com/matzehuels/cablenet/pkg/milp"
	"github.com/matzehuels/cablenet/pkg/milp/bnb"
)

// square is one substation at the origin and three turbines on the other
// corners of a 10×10 square.
func square() []r2.Vec {
	return []r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
}

func build(t *testing.T, coords []r2.Vec, nSS int, mode candidates.Mode, capacity int) *Model {
	t.Helper()
	set, err := candidates.Build(coords, nSS, candidates.Options{Mode: mode})
	if err != nil {
		t.Fatalf("candidates.Build: %v", err)
	}
	m, err := NewModel(coords, set, Options{Capacity: capacity})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

func solve(t *testing.T, m *Model) *Solution {
	t.Helper()
	sol, err := m.Solve(context.Background(), bnb.New(nil), milp.Params{TimeLimit: time.Minute, Workers: 2})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if err := sol.Err(); err != nil {
		t.Fatalf("Solution.Err: %v", err)
	}
	return sol
}

func TestModelShape(t *testing.T) {
	m := build(t, square(), 1, candidates.ModeFull, 4)

	// 3 feeders with one arc each, 3 turbine pairs with two.
	if got := len(m.Arcs()); got != 9 {
		t.Fatalf("len(Arcs) = %d, want 9", got)
	}
	if m.Problem().NumVars() != 18 || m.Problem().NumBinary() != 9 {
		t.Errorf("NumVars = %d, NumBinary = %d", m.Problem().NumVars(), m.Problem().NumBinary())
	}
	for _, a := range m.Arcs() {
		if a.From < 1 {
			t.Errorf("arc %d→%d leaves a substation", a.From, a.To)
		}
	}
	if _, ok := m.Arc(0, 1); ok {
		t.Error("found arc out of the substation")
	}
	if _, ok := m.Arc(1, 0); !ok {
		t.Error("missing feeder arc 1→0")
	}
	if a, ok := m.Arc(2, 3); !ok || a.Weight != 10 {
		t.Errorf("Arc(2, 3) = %+v, %v", a, ok)
	}

	names := map[string]bool{}
	for _, c := range m.Problem().Constraints() {
		names[c.Name] = true
	}
	for _, want := range []string{"feeders_power", "single_export_1", "flow_balance_3", "nobidir_1_2", "bind_upper_1_0", "bind_lower_3_2"} {
		if !names[want] {
			t.Errorf("missing constraint %s", want)
		}
	}
	if names["single_export_0"] || names["nobidir_0_1"] {
		t.Error("substation got turbine constraints")
	}
	if m.Policy() != CheckFeeders {
		t.Errorf("full mode policy = %v, want check", m.Policy())
	}
}

func TestStarWithUnitCapacity(t *testing.T) {
	m := build(t, square(), 1, candidates.ModeFull, 1)
	sol := solve(t, m)

	want := 20 + math.Sqrt(200)
	if math.Abs(sol.Cost-want) > 1e-6 {
		t.Errorf("Cost = %v, want %v", sol.Cost, want)
	}
	if len(sol.Arcs) != 3 {
		t.Fatalf("len(Arcs) = %d, want 3", len(sol.Arcs))
	}
	for _, a := range sol.Arcs {
		if a.To != 0 || math.Abs(a.Flow-1) > 1e-6 {
			t.Errorf("arc %+v, want a unit feeder", a)
		}
	}
	if sol.Crossings != 0 {
		t.Errorf("Crossings = %d, want 0", sol.Crossings)
	}
	if err := sol.Verify(1, 4); err != nil {
		t.Error(err)
	}
}

func TestChainWithCapacity(t *testing.T) {
	for _, mode := range []candidates.Mode{candidates.ModeReduced, candidates.ModeFull} {
		t.Run(string(mode), func(t *testing.T) {
			m := build(t, square(), 1, mode, 3)
			sol := solve(t, m)

			if math.Abs(sol.Cost-30) > 1e-6 {
				t.Errorf("Cost = %v, want 30", sol.Cost)
			}
			if len(sol.Arcs) != 3 {
				t.Errorf("len(Arcs) = %d, want 3", len(sol.Arcs))
			}
			if sol.Crossings != 0 {
				t.Errorf("Crossings = %d, want 0", sol.Crossings)
			}
			if sol.Status != milp.StatusOptimal || sol.Gap > 1e-6 {
				t.Errorf("Status = %v, Gap = %v", sol.Status, sol.Gap)
			}
			if err := sol.Verify(1, 4); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestStarFeasibleWithCapacity3(t *testing.T) {
	coords := square()
	m := build(t, coords, 1, candidates.ModeFull, 3)

	vals := make([]float64, m.Problem().NumVars())
	var edges [][2]int
	for turbine := 1; turbine <= 3; turbine++ {
		a, ok := m.Arc(turbine, 0)
		if !ok {
			t.Fatalf("missing feeder arc %d→0", turbine)
		}
		vals[a.X], vals[a.F] = 1, 1
		edges = append(edges, [2]int{a.From, a.To})
	}

	if !m.Problem().Feasible(vals, 1e-9) {
		t.Fatal("star layout violates the capacity 3 model")
	}
	if got, want := m.Problem().ObjectiveValue(vals), 20+math.Sqrt(200); math.Abs(got-want) > 1e-9 {
		t.Errorf("cost = %v, want %v", got, want)
	}
	if len(edges) != 3 {
		t.Errorf("len(edges) = %d, want 3", len(edges))
	}
	if got := geom.CountCrossings(edges, coords); got != 0 {
		t.Errorf("CountCrossings = %d, want 0", got)
	}
}

// reweight replaces candidate weights by endpoint pair. Pairs not listed get
// other.
func reweight(set *candidates.Set, weights map[[2]int]float64, other float64) {
	for i, e := range set.Edges {
		w, ok := weights[[2]int{e.U, e.V}]
		if !ok {
			w = other
		}
		set.Edges[i].Weight = w
	}
}

func TestCrossingCutsConverge(t *testing.T) {
	// The cheapest layout without cuts is 2→0, 3→1, 1→0 at cost 3, and the
	// feeder 0-2 crosses the cable 1-3. Every layout avoiding that pair costs
	// 102.
	coords := square()
	set, err := candidates.Build(coords, 1, candidates.Options{Mode: candidates.ModeFull})
	if err != nil {
		t.Fatal(err)
	}
	reweight(set, map[[2]int]float64{{0, 1}: 1, {0, 2}: 1, {1, 3}: 1}, 100)
	m, err := NewModel(coords, set, Options{Capacity: 2})
	if err != nil {
		t.Fatal(err)
	}
	sol := solve(t, m)

	if math.Abs(sol.Cost-102) > 1e-6 {
		t.Errorf("Cost = %v, want 102", sol.Cost)
	}
	if sol.LazyConstraints == 0 || sol.Rejected == 0 {
		t.Errorf("LazyConstraints = %d, Rejected = %d, want both positive", sol.LazyConstraints, sol.Rejected)
	}
	if sol.Crossings != 0 {
		t.Errorf("Crossings = %d, want 0", sol.Crossings)
	}
	if err := sol.Verify(1, len(coords)); err != nil {
		t.Error(err)
	}
}

func randomInstance(seed int64, nSS, nT int) []r2.Vec {
	rng := rand.New(rand.NewSource(seed))
	coords := make([]r2.Vec, nSS+nT)
	for i := range coords {
		coords[i] = r2.Vec{X: math.Round(rng.Float64() * 1000), Y: math.Round(rng.Float64() * 1000)}
	}
	return coords
}

func TestFullModeHasNoCrossings(t *testing.T) {
	coords := randomInstance(3, 1, 5)
	m := build(t, coords, 1, candidates.ModeFull, 2)
	sol := solve(t, m)

	if !sol.Found() {
		t.Fatal("no layout found")
	}
	if got := geom.CountCrossings(sol.Edges(), coords); got != 0 {
		t.Errorf("CountCrossings = %d, want 0", got)
	}
	if err := sol.Verify(1, len(coords)); err != nil {
		t.Error(err)
	}
	if len(sol.FullEdges) != candidates.FullCount(len(coords), 1) {
		t.Errorf("len(FullEdges) = %d", len(sol.FullEdges))
	}
}

func TestSolveStopsAtTimeLimit(t *testing.T) {
	coords := randomInstance(5, 1, 15)
	m := build(t, coords, 1, candidates.ModeFull, 4)

	limit := 500 * time.Millisecond
	start := time.Now()
	sol, err := m.Solve(context.Background(), bnb.New(nil), milp.Params{TimeLimit: limit, Workers: 2})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if elapsed := time.Since(start); elapsed > limit+5*time.Second {
		t.Errorf("Solve returned after %v with a %v limit", elapsed, limit)
	}
	switch sol.Status {
	case milp.StatusOptimal, milp.StatusTimeLimit, milp.StatusNoIncumbent:
	default:
		t.Errorf("Status = %v", sol.Status)
	}
	if sol.Found() {
		if sol.Crossings != 0 {
			t.Errorf("Crossings = %d, want 0", sol.Crossings)
		}
		if err := sol.Verify(1, len(coords)); err != nil {
			t.Error(err)
		}
	}
}

func TestReducedModeInvariants(t *testing.T) {
	coords := randomInstance(11, 2, 6)
	m := build(t, coords, 2, candidates.ModeReduced, 3)
	sol := solve(t, m)

	if err := sol.Verify(2, len(coords)); err != nil {
		t.Error(err)
	}
	// Feeders are exempt, so only cables between turbines are guaranteed
	// crossing-free.
	var inner [][2]int
	for _, e := range sol.Edges() {
		if e[1] >= 2 {
			inner = append(inner, e)
		}
	}
	if got := geom.CountCrossings(inner, coords); got != 0 {
		t.Errorf("turbine cables cross %d times", got)
	}
	if sol.Triangulation == nil {
		t.Error("reduced solution lacks triangulation diagnostics")
	}
}

func TestNewModelErrors(t *testing.T) {
	coords := square()
	set, err := candidates.Build(coords, 1, candidates.Options{Mode: candidates.ModeFull})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewModel(coords, set, Options{Capacity: -1}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("negative capacity: %v", err)
	}
	if _, err := NewModel(coords[:3], set, Options{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("mismatched coordinates: %v", err)
	}
	if _, err := NewModel(coords, nil, Options{}); err == nil {
		t.Error("nil set accepted")
	}
	m, err := NewModel(coords, set, Options{})
	if err != nil || m.Capacity() != DefaultCapacity {
		t.Errorf("default capacity: %v, %v", m, err)
	}
}

func TestSolveCancelled(t *testing.T) {
	m := build(t, square(), 1, candidates.ModeFull, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Solve(ctx, bnb.New(nil), milp.Params{}); err == nil {
		t.Error("Solve with a cancelled context returned no error")
	}
}

type stubSolver struct{ res *milp.Result }

func (s stubSolver) Solve(context.Context, *milp.Problem, milp.Params, milp.Callback) (*milp.Result, error) {
	return s.res, nil
}

func TestSolveWithoutIncumbent(t *testing.T) {
	m := build(t, square(), 1, candidates.ModeFull, 3)
	sol, err := m.Solve(context.Background(), stubSolver{&milp.Result{Status: milp.StatusNoIncumbent}}, milp.Params{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if sol.Found() || sol.Cost != 0 || len(sol.Arcs) != 0 {
		t.Errorf("empty solve produced %+v", sol)
	}
	if !errors.Is(sol.Err(), errors.ErrCodeSolverTimeout) {
		t.Errorf("Err = %v, want SOLVER_TIMEOUT", sol.Err())
	}
}
