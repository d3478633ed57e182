package bnb

import (
	"container/heap"
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cablenet/pkg/milp"
)

// node is a subproblem: the root with some binaries fixed.
type node struct {
	bound float64 // lower bound on every solution in the subtree
	depth int
	seq   uint64
	fix   []fixing
}

type fixing struct {
	v  milp.Var
	up bool
}

func (n *node) child(v milp.Var, up bool) *node {
	fix := make([]fixing, len(n.fix), len(n.fix)+1)
	copy(fix, n.fix)
	return &node{bound: n.bound, depth: n.depth + 1, fix: append(fix, fixing{v: v, up: up})}
}

// queue is a min-heap on bound; ties prefer deeper, then older nodes.
type queue []*node

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].bound != q[j].bound {
		return q[i].bound < q[j].bound
	}
	if q[i].depth != q[j].depth {
		return q[i].depth > q[j].depth
	}
	return q[i].seq < q[j].seq
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)   { *q = append(*q, x.(*node)) }
func (q *queue) Pop() any {
	old := *q
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*q = old[:len(old)-1]
	return n
}

// engine holds the state of one solve. Fields below mu are guarded by it.
type engine struct {
	p      *milp.Problem
	params milp.Params
	cb     milp.Callback
	log    *log.Logger
	intTol float64
	beat   time.Duration
	start  time.Time

	pool *milp.Pool

	mu        sync.Mutex
	cond      *sync.Cond
	open      queue
	active    []float64 // bound of the node each worker holds, +Inf when idle
	busy      int
	seq       uint64
	halted    bool
	exhausted bool
	best      float64
	bestVals  []float64
	gapBound  float64 // smallest bound among nodes pruned only by the gap rule
	nodes     int
	rejected  int
	dropped   int // subtrees abandoned after a failed relaxation
	lastBeat  time.Time
}

func newEngine(p *milp.Problem, params milp.Params, cb milp.Callback, o options) *engine {
	e := &engine{
		p:        p,
		params:   params,
		cb:       cb,
		log:      o.log,
		intTol:   o.intTol,
		beat:     o.heartbeat,
		pool:     milp.NewPool(),
		active:   make([]float64, params.Workers),
		best:     math.Inf(1),
		gapBound: math.Inf(1),
	}
	e.cond = sync.NewCond(&e.mu)
	for i := range e.active {
		e.active[i] = math.Inf(1)
	}
	e.open = queue{{bound: math.Inf(-1)}}
	e.lastBeat = time.Now()
	return e
}

// halt stops all workers; it runs when the solve context is done.
func (e *engine) halt() {
	e.mu.Lock()
	e.halted = true
	e.cond.Broadcast()
	e.mu.Unlock()
}

func (e *engine) work(ctx context.Context, id int) error {
	for ctx.Err() == nil {
		n := e.next(id)
		if n == nil {
			return nil
		}
		for n != nil {
			if ctx.Err() != nil {
				e.push(n)
				break
			}
			pref, other := e.process(ctx, n)
			if other != nil {
				e.push(other)
			}
			n = e.claim(id, pref)
		}
		e.release(id)
	}
	return nil
}

// next blocks until a node is available or the search is over.
func (e *engine) next(id int) *node {
	e.mu.Lock()
	defer e.mu.Unlock()
	for {
		if e.halted || e.exhausted {
			return nil
		}
		if len(e.open) > 0 {
			n := heap.Pop(&e.open).(*node)
			if e.prunable(n.bound) {
				continue
			}
			e.busy++
			e.active[id] = n.bound
			return n
		}
		if e.busy == 0 {
			e.exhausted = true
			e.cond.Broadcast()
			return nil
		}
		e.cond.Wait()
	}
}

// claim keeps n on worker id unless it can be pruned.
func (e *engine) claim(id int, n *node) *node {
	if n == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.prunable(n.bound) {
		return nil
	}
	e.active[id] = n.bound
	return n
}

func (e *engine) release(id int) {
	e.mu.Lock()
	e.busy--
	e.active[id] = math.Inf(1)
	if e.busy == 0 && len(e.open) == 0 {
		e.exhausted = true
	}
	e.cond.Broadcast()
	e.mu.Unlock()
}

func (e *engine) push(n *node) {
	e.mu.Lock()
	if !e.prunable(n.bound) {
		e.seq++
		n.seq = e.seq
		heap.Push(&e.open, n)
		e.cond.Signal()
	}
	e.mu.Unlock()
}

// prunable reports whether a subtree with the given bound cannot improve the
// incumbent by more than the allowed gap. Callers hold mu.
func (e *engine) prunable(bound float64) bool {
	if math.IsInf(e.best, 1) {
		return false
	}
	abs := 1e-9 * math.Max(1, math.Abs(e.best))
	if bound >= e.best-abs {
		return true
	}
	if bound >= e.best-e.params.RelGap*math.Abs(e.best) {
		e.gapBound = math.Min(e.gapBound, bound)
		return true
	}
	return false
}

// process solves the relaxation of n and returns the node to continue with
// and the node to queue; either may be nil. A relaxation cut short by ctx
// puts n back in the queue unchanged.
func (e *engine) process(ctx context.Context, n *node) (pref, other *node) {
	sol, err := e.relax(ctx, n)
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil, n
	}
	e.tick()
	switch {
	case err == errInfeasible:
		return nil, nil
	case err != nil:
		// The simplex gave up numerically. Split on a free binary so the
		// subtree is still explored; drop it only when nothing is left to fix.
		j := e.unfixed(n)
		e.log.Debug("relaxation failed", "depth", n.depth, "err", err, "split", j >= 0)
		if j < 0 {
			e.mu.Lock()
			e.dropped++
			e.mu.Unlock()
			return nil, nil
		}
		return n.child(j, true), n.child(j, false)
	}
	n.bound = math.Max(n.bound, sol.obj)

	e.mu.Lock()
	pruned := e.prunable(n.bound)
	e.mu.Unlock()
	if pruned {
		return nil, nil
	}

	j, frac := e.branchVar(sol.x)
	if j < 0 {
		if e.offer(sol.x) {
			return n, nil
		}
		return nil, nil
	}
	down, up := n.child(j, false), n.child(j, true)
	if frac >= 0.5 {
		return up, down
	}
	return down, up
}

// branchVar returns the most fractional binary and its value, or -1 when the
// relaxation is integral.
func (e *engine) branchVar(x []float64) (milp.Var, float64) {
	best, bestDist := milp.Var(-1), e.intTol
	for v := range x {
		if e.p.Kind(milp.Var(v)) != milp.Binary {
			continue
		}
		d := math.Abs(x[v] - math.Round(x[v]))
		if d > bestDist {
			best, bestDist = milp.Var(v), d
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best, x[best] - math.Floor(x[best])
}

// unfixed returns the lowest binary n does not fix, or -1.
func (e *engine) unfixed(n *node) milp.Var {
	fixed := make(map[milp.Var]bool, len(n.fix))
	for _, f := range n.fix {
		fixed[f.v] = true
	}
	for v := 0; v < e.p.NumVars(); v++ {
		if e.p.Kind(milp.Var(v)) == milp.Binary && !fixed[milp.Var(v)] {
			return milp.Var(v)
		}
	}
	return -1
}

// offer rounds an integral relaxation and hands it to the callback. It
// reports whether the callback rejected it with a violated cut.
func (e *engine) offer(x []float64) bool {
	vals := make([]float64, len(x))
	for v, val := range x {
		switch {
		case e.p.Kind(milp.Var(v)) == milp.Binary:
			val = math.Round(val)
		case math.Abs(val) < e.intTol:
			val = 0
		}
		vals[v] = val
	}
	obj := e.p.ObjectiveValue(vals)

	if e.cb != nil {
		in := milp.NewIncumbent(vals, obj, e.pool)
		e.cb(in)
		if in.Rejected() {
			for _, c := range in.Added() {
				if c.Violated(vals, e.intTol) {
					e.mu.Lock()
					e.rejected++
					e.mu.Unlock()
					return true
				}
			}
			e.log.Warn("callback rejected a candidate without a violated cut; accepting it", "objective", obj)
		}
	}

	e.mu.Lock()
	improved := obj < e.best
	if improved {
		e.best, e.bestVals = obj, vals
	}
	var snap milp.Progress
	if improved {
		snap = e.snapshot(true)
	}
	e.mu.Unlock()

	if improved {
		e.log.Debug("new incumbent",
			"objective", obj,
			"bound", snap.Bound,
			"nodes", snap.Nodes,
			"elapsed", snap.Elapsed.Round(time.Millisecond))
		e.report(snap)
	}
	return false
}

// tick counts a processed node and emits a heartbeat when one is due.
func (e *engine) tick() {
	e.mu.Lock()
	e.nodes++
	due := time.Since(e.lastBeat) >= e.beat
	var snap milp.Progress
	if due {
		e.lastBeat = time.Now()
		snap = e.snapshot(false)
	}
	e.mu.Unlock()

	if due {
		e.log.Debug("searching",
			"nodes", snap.Nodes,
			"open", snap.Open,
			"incumbent", snap.Incumbent,
			"bound", snap.Bound,
			"lazy", snap.Lazy)
		e.report(snap)
	}
}

func (e *engine) report(p milp.Progress) {
	if e.params.Progress != nil {
		e.params.Progress(p)
	}
}

// snapshot captures progress. Callers hold mu.
func (e *engine) snapshot(newIncumbent bool) milp.Progress {
	return milp.Progress{
		Elapsed:      time.Since(e.start),
		Nodes:        e.nodes,
		Open:         len(e.open),
		Incumbent:    e.best,
		Bound:        e.lowerBound(),
		Lazy:         e.pool.Len(),
		NewIncumbent: newIncumbent,
	}
}

// lowerBound is the smallest bound of any subtree not yet closed. Callers
// hold mu.
func (e *engine) lowerBound() float64 {
	lb := math.Min(e.best, e.gapBound)
	if len(e.open) > 0 {
		lb = math.Min(lb, e.open[0].bound)
	}
	for _, b := range e.active {
		lb = math.Min(lb, b)
	}
	return lb
}

func (e *engine) result() *milp.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := &milp.Result{
		Objective:       math.Inf(1),
		Bound:           e.lowerBound(),
		Runtime:         time.Since(e.start),
		Nodes:           e.nodes,
		LazyConstraints: e.pool.Len(),
		Rejected:        e.rejected,
	}
	has := e.bestVals != nil
	if has {
		r.Objective = e.best
		r.Values = e.bestVals
	}

	switch {
	case e.exhausted && has:
		r.Status = milp.StatusOptimal
	case e.exhausted && e.dropped == 0:
		r.Status = milp.StatusInfeasible
	case has:
		r.Status = milp.StatusTimeLimit
	default:
		r.Status = milp.StatusNoIncumbent
	}
	return r
}
