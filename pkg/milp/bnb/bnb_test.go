package bnb

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/cablenet/pkg/milp"
)

const eps = 1e-6

func knapsack() (*milp.Problem, []milp.Var) {
	values := []float64{10, 13, 7, 8}
	weights := []float64{5, 6, 3, 4}

	p := milp.NewProblem("knapsack")
	xs := make([]milp.Var, len(values))
	var obj, load []milp.Term
	for i := range values {
		xs[i] = p.AddBinary("x")
		obj = append(obj, milp.Term{Var: xs[i], Coef: -values[i]})
		load = append(load, milp.Term{Var: xs[i], Coef: weights[i]})
	}
	p.AddConstraint(milp.Constraint{Name: "capacity", Terms: load, Sense: milp.LessEq, RHS: 10})
	p.SetObjective(obj)
	return p, xs
}

func TestKnapsack(t *testing.T) {
	for _, workers := range []int{1, 4} {
		p, xs := knapsack()
		res, err := New(nil).Solve(context.Background(), p, milp.Params{Workers: workers}, nil)
		if err != nil {
			t.Fatalf("Solve: %v", err)
		}
		if res.Status != milp.StatusOptimal {
			t.Fatalf("workers=%d: Status = %v, want optimal", workers, res.Status)
		}
		if math.Abs(res.Objective+21) > eps {
			t.Errorf("workers=%d: Objective = %v, want -21", workers, res.Objective)
		}
		if res.Values[xs[1]] != 1 || res.Values[xs[3]] != 1 || res.Values[xs[0]] != 0 || res.Values[xs[2]] != 0 {
			t.Errorf("workers=%d: Values = %v, want items 1 and 3", workers, res.Values)
		}
		if res.Gap() > eps {
			t.Errorf("workers=%d: Gap = %v, want 0", workers, res.Gap())
		}
		if !p.Feasible(res.Values, eps) {
			t.Errorf("workers=%d: result violates the problem", workers)
		}
	}
}

func TestLazyConstraint(t *testing.T) {
	p := milp.NewProblem("toy")
	x1 := p.AddBinary("x1")
	x2 := p.AddBinary("x2")
	p.SetObjective([]milp.Term{{Var: x1, Coef: -1}, {Var: x2, Coef: -1}})

	var calls atomic.Int64
	cb := func(in *milp.Incumbent) {
		calls.Add(1)
		if in.Value(x1) > 0.5 && in.Value(x2) > 0.5 {
			in.AddLazy(milp.Constraint{Name: "cut", Terms: milp.Sum(x1, x2), Sense: milp.LessEq, RHS: 1})
		}
	}

	res, err := New(nil).Solve(context.Background(), p, milp.Params{}, cb)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Status != milp.StatusOptimal {
		t.Fatalf("Status = %v, want optimal", res.Status)
	}
	if math.Abs(res.Objective+1) > eps {
		t.Errorf("Objective = %v, want -1", res.Objective)
	}
	if res.Values[x1]+res.Values[x2] != 1 {
		t.Errorf("Values = %v, want exactly one of x1, x2", res.Values)
	}
	if res.LazyConstraints != 1 {
		t.Errorf("LazyConstraints = %d, want 1", res.LazyConstraints)
	}
	if res.Rejected < 1 {
		t.Errorf("Rejected = %d, want at least 1", res.Rejected)
	}
	if calls.Load() < 2 {
		t.Errorf("callback calls = %d, want at least 2", calls.Load())
	}
}

func TestIgnoresSatisfiedCut(t *testing.T) {
	p := milp.NewProblem("toy")
	x := p.AddBinary("x")
	p.SetObjective([]milp.Term{{Var: x, Coef: -1}})

	cb := func(in *milp.Incumbent) {
		in.AddLazy(milp.Constraint{Terms: milp.Sum(x), Sense: milp.LessEq, RHS: 1})
	}
	res, err := New(nil).Solve(context.Background(), p, milp.Params{}, cb)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Status != milp.StatusOptimal || res.Objective != -1 {
		t.Errorf("Status = %v, Objective = %v, want optimal -1", res.Status, res.Objective)
	}
}

func TestMixedInteger(t *testing.T) {
	p := milp.NewProblem("facility")
	y := p.AddBinary("open")
	f := p.AddContinuous("flow", 0, math.Inf(1))
	p.AddConstraint(milp.Constraint{Name: "demand", Terms: milp.Sum(f), Sense: milp.GreaterEq, RHS: 2})
	p.AddConstraint(milp.Constraint{Name: "link", Terms: []milp.Term{{Var: f, Coef: 1}, {Var: y, Coef: -10}}, Sense: milp.LessEq})
	p.SetObjective([]milp.Term{{Var: y, Coef: 5}, {Var: f, Coef: 1}})

	res, err := New(nil).Solve(context.Background(), p, milp.Params{}, nil)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Status != milp.StatusOptimal {
		t.Fatalf("Status = %v", res.Status)
	}
	if math.Abs(res.Objective-7) > eps || res.Values[y] != 1 || math.Abs(res.Values[f]-2) > eps {
		t.Errorf("Objective = %v, Values = %v, want 7 with y=1 f=2", res.Objective, res.Values)
	}
}

func TestEquality(t *testing.T) {
	p := milp.NewProblem("pick two")
	xs := []milp.Var{p.AddBinary("a"), p.AddBinary("b"), p.AddBinary("c")}
	p.AddConstraint(milp.Constraint{Name: "two", Terms: milp.Sum(xs...), Sense: milp.Equal, RHS: 2})
	p.SetObjective([]milp.Term{{Var: xs[0], Coef: 3}, {Var: xs[1], Coef: 1}, {Var: xs[2], Coef: 2}})

	res, err := New(nil).Solve(context.Background(), p, milp.Params{Workers: 2}, nil)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Status != milp.StatusOptimal || math.Abs(res.Objective-3) > eps {
		t.Errorf("Status = %v, Objective = %v, want optimal 3", res.Status, res.Objective)
	}
}

func TestInfeasible(t *testing.T) {
	p := milp.NewProblem("impossible")
	x1 := p.AddBinary("x1")
	x2 := p.AddBinary("x2")
	p.AddConstraint(milp.Constraint{Terms: milp.Sum(x1, x2), Sense: milp.GreaterEq, RHS: 3})
	p.SetObjective(milp.Sum(x1, x2))

	res, err := New(nil).Solve(context.Background(), p, milp.Params{}, nil)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Status != milp.StatusInfeasible {
		t.Errorf("Status = %v, want infeasible", res.Status)
	}
	if res.HasIncumbent() {
		t.Error("infeasible result has an incumbent")
	}
}

func TestCancelled(t *testing.T) {
	p, _ := knapsack()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(nil).Solve(ctx, p, milp.Params{TimeLimit: time.Minute}, nil)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Status != milp.StatusNoIncumbent {
		t.Errorf("Status = %v, want no_incumbent", res.Status)
	}
	if res.HasIncumbent() {
		t.Error("cancelled solve reported an incumbent")
	}
}

func TestProgress(t *testing.T) {
	p, _ := knapsack()
	var incumbents atomic.Int64
	params := milp.Params{Progress: func(pr milp.Progress) {
		if pr.NewIncumbent {
			incumbents.Add(1)
			if math.IsInf(pr.Incumbent, 1) {
				t.Error("incumbent progress without objective")
			}
		}
	}}
	if _, err := New(nil).Solve(context.Background(), p, params, nil); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if incumbents.Load() == 0 {
		t.Error("no incumbent progress reported")
	}
}

func TestRejectsNegativeBounds(t *testing.T) {
	p := milp.NewProblem("neg")
	p.AddContinuous("z", -1, 1)
	if _, err := New(nil).Solve(context.Background(), p, milp.Params{}, nil); err == nil {
		t.Error("Solve accepted a negative lower bound")
	}
	if _, err := New(nil).Solve(context.Background(), milp.NewProblem("empty"), milp.Params{}, nil); err == nil {
		t.Error("Solve accepted an empty problem")
	}
}

func TestUnboundedIsNotInfeasible(t *testing.T) {
	p := milp.NewProblem("unbounded")
	z := p.AddContinuous("z", 0, math.Inf(1))
	p.SetObjective([]milp.Term{{Var: z, Coef: -1}})

	res, err := New(nil).Solve(context.Background(), p, milp.Params{}, nil)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Status != milp.StatusNoIncumbent {
		t.Errorf("Status = %v, want no_incumbent", res.Status)
	}
	if res.HasIncumbent() {
		t.Error("unbounded relaxation produced an incumbent")
	}
}
