package bnb

import (
	"context"
	"fmt"

	"github.com/matzehuels/cablenet/pkg/milp"
)

type relaxation struct {
	obj float64
	x   []float64
}

// relax solves the LP relaxation of n: the static constraints, the current
// lazy pool, and the node's fixings as bounds. It returns the context error
// when ctx ends mid-solve.
func (e *engine) relax(ctx context.Context, n *node) (sol relaxation, err error) {
	nv := e.p.NumVars()
	lo := make([]float64, nv)
	hi := make([]float64, nv)
	for v := 0; v < nv; v++ {
		lo[v], hi[v] = e.p.Bounds(milp.Var(v))
	}
	for _, f := range n.fix {
		if f.up {
			lo[f.v] = 1
		} else {
			hi[f.v] = 0
		}
	}

	static := e.p.Constraints()
	cuts := e.pool.Snapshot()
	rows := make([]milp.Constraint, 0, len(static)+len(cuts))
	rows = append(append(rows, static...), cuts...)

	cost := make([]float64, nv)
	for _, t := range e.p.Objective() {
		cost[t.Var] += t.Coef
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simplex: %v", r)
		}
	}()
	lp, err := newSimplex(rows, nv, lo, hi)
	if err != nil {
		return sol, err
	}
	x, obj, err := lp.solve(ctx, cost)
	if err != nil {
		return sol, err
	}
	return relaxation{obj: obj, x: x}, nil
}
