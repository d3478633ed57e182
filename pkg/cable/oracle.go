package cable

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/matzehuels/cablenet/pkg/candidates"
	"github.com/matzehuels/cablenet/pkg/errors"
	"github.com/matzehuels/cablenet/pkg/geom"
	"github.com/matzehuels/cablenet/pkg/milp"
)

// FeederPolicy selects whether cables ending at a substation are checked for
// crossings.
type FeederPolicy uint8

const (
	// PolicyAuto exempts feeders in reduced mode and checks them in full mode.
	PolicyAuto FeederPolicy = iota
	ExemptFeeders
	CheckFeeders
)

func (p FeederPolicy) String() string {
	switch p {
	case ExemptFeeders:
		return "exempt"
	case CheckFeeders:
		return "check"
	default:
		return "auto"
	}
}

// Resolve replaces PolicyAuto with the policy for mode.
func (p FeederPolicy) Resolve(mode candidates.Mode) FeederPolicy {
	if p != PolicyAuto {
		return p
	}
	if mode == candidates.ModeFull {
		return CheckFeeders
	}
	return ExemptFeeders
}

// ParseFeederPolicy converts "auto", "exempt" or "check". The empty string is
// PolicyAuto.
func ParseFeederPolicy(s string) (FeederPolicy, error) {
	switch s {
	case "", "auto":
		return PolicyAuto, nil
	case "exempt":
		return ExemptFeeders, nil
	case "check":
		return CheckFeeders, nil
	}
	return PolicyAuto, errors.New(errors.ErrCodeInvalidInput, "unknown feeder policy %q (want auto, exempt or check)", s)
}

// CrossingOracle rejects candidate layouts whose cables cross. It holds no
// state besides counters and may be called from several solver goroutines.
type CrossingOracle struct {
	m      *Model
	policy FeederPolicy

	rejected atomic.Int64
	cuts     atomic.Int64
}

// NewCrossingOracle returns an oracle for m.
func NewCrossingOracle(m *Model, policy FeederPolicy) *CrossingOracle {
	return &CrossingOracle{m: m, policy: policy.Resolve(m.set.Mode)}
}

// OnIncumbent is a [milp.Callback].
func (o *CrossingOracle) OnIncumbent(in *milp.Incumbent) { o.Check(in) }

// Check adds one cut per crossing pair of laid cables and returns how many
// it added. Zero means the layout is accepted.
func (o *CrossingOracle) Check(in *milp.Incumbent) int {
	edges := o.active(in.Values())
	coords := o.m.coords

	added := 0
	for _, pair := range geom.CrossingPairs(edges, coords) {
		in.AddLazy(o.Cut(edges[pair[0]], edges[pair[1]]))
		added++
	}
	if added > 0 {
		o.rejected.Add(1)
		o.cuts.Add(int64(added))
	}
	return added
}

// active returns the undirected edges of laid cables, sorted, skipping
// feeders when they are exempt.
func (o *CrossingOracle) active(values []float64) [][2]int {
	nSS := o.m.set.NSS
	seen := make(map[[2]int]struct{})
	var out [][2]int
	for _, a := range o.m.arcs {
		if values[a.X] <= 0.5 {
			continue
		}
		if o.policy == ExemptFeeders && a.To < nSS {
			continue
		}
		e := [2]int{min(a.From, a.To), max(a.From, a.To)}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b [2]int) int {
		if a[0] != b[0] {
			return a[0] - b[0]
		}
		return a[1] - b[1]
	})
	return out
}

// Cut returns the constraint forbidding both cables at once: the sum of the
// x variables of every arc along either edge is at most one.
func (o *CrossingOracle) Cut(e1, e2 [2]int) milp.Constraint {
	var terms []milp.Term
	for _, e := range [][2]int{e1, e2} {
		for _, dir := range [][2]int{{e[0], e[1]}, {e[1], e[0]}} {
			if a, ok := o.m.Arc(dir[0], dir[1]); ok {
				terms = append(terms, milp.Term{Var: a.X, Coef: 1})
			}
		}
	}
	return milp.Constraint{
		Name:  fmt.Sprintf("nocross_%d_%d_%d_%d", e1[0], e1[1], e2[0], e2[1]),
		Terms: terms,
		Sense: milp.LessEq,
		RHS:   1,
	}
}

// Rejected returns the number of layouts rejected so far.
func (o *CrossingOracle) Rejected() int64 { return o.rejected.Load() }

// Cuts returns the number of cuts issued so far, including duplicates that
// the pool discarded.
func (o *CrossingOracle) Cuts() int64 { return o.cuts.Load() }
