// Package milp defines a small mixed-integer linear programming interface
// with lazy constraints.
//
// A [Problem] holds binary and continuous variables, linear constraints and a
// linear objective to minimize. A [Solver] runs it and, for every
// integer-feasible candidate it finds, calls a [Callback] with an
// [Incumbent]. The callback may reject the candidate by adding one or more
// lazy constraints with [Incumbent.AddLazy]; the solver then keeps searching
// with those constraints enforced. This is how the cable model keeps
// crossings out without enumerating every crossing pair up front.
//
// # Lazy Constraint Pool
//
// Each solve owns one [Pool]. It is append-only, deduplicates constraints by
// their canonical form, and is safe to use from several solver goroutines at
// once. Constraints in the pool apply to every node processed after they were
// added.
//
// # Implementations
//
// The package itself contains no algorithm. See
// [github.com/matzehuels/cablenet/pkg/milp/bnb] for a pure-Go
// branch-and-bound solver.
package milp

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Var identifies a variable of a [Problem].
type Var int

// Kind is the domain of a variable.
type Kind uint8

const (
	Continuous Kind = iota
	Binary
)

func (k Kind) String() string {
	if k == Binary {
		return "binary"
	}
	return "continuous"
}

// Term is one coefficient-variable product of a linear expression.
type Term struct {
	Var  Var
	Coef float64
}

// Sense is the relation of a constraint.
type Sense int8

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case GreaterEq:
		return ">="
	case Equal:
		return "=="
	default:
		return "<="
	}
}

// Constraint is a linear constraint Σ Terms (Sense) RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Eval returns the left-hand side of c at values.
func (c Constraint) Eval(values []float64) float64 {
	s := 0.0
	for _, t := range c.Terms {
		s += t.Coef * values[t.Var]
	}
	return s
}

// Violated reports whether values break c by more than tol.
func (c Constraint) Violated(values []float64, tol float64) bool {
	lhs := c.Eval(values)
	switch c.Sense {
	case LessEq:
		return lhs > c.RHS+tol
	case GreaterEq:
		return lhs < c.RHS-tol
	default:
		return math.Abs(lhs-c.RHS) > tol
	}
}

// Key returns the canonical form of c: terms merged by variable and sorted,
// zero coefficients dropped, name ignored. Two constraints with the same key
// describe the same half-space or hyperplane.
func (c Constraint) Key() string {
	merged := make(map[Var]float64, len(c.Terms))
	for _, t := range c.Terms {
		merged[t.Var] += t.Coef
	}
	vars := make([]Var, 0, len(merged))
	for v, coef := range merged {
		if coef != 0 {
			vars = append(vars, v)
		}
	}
	slices.Sort(vars)

	var b strings.Builder
	for _, v := range vars {
		b.WriteString(strconv.FormatFloat(merged[v], 'g', -1, 64))
		b.WriteByte('*')
		b.WriteString(strconv.Itoa(int(v)))
		b.WriteByte(' ')
	}
	b.WriteString(c.Sense.String())
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(c.RHS, 'g', -1, 64))
	return b.String()
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s: %s", c.Name, c.Key())
}

// Sum returns the terms 1·v for every v.
func Sum(vars ...Var) []Term {
	out := make([]Term, len(vars))
	for i, v := range vars {
		out[i] = Term{Var: v, Coef: 1}
	}
	return out
}

type variable struct {
	name   string
	kind   Kind
	lo, hi float64
}

// Problem is a minimization MILP. Build it once, then hand it to a [Solver];
// solvers only read it.
type Problem struct {
	Name      string
	vars      []variable
	cons      []Constraint
	objective []Term
}

// NewProblem returns an empty problem.
func NewProblem(name string) *Problem {
	return &Problem{Name: name}
}

// AddBinary adds a variable restricted to {0, 1}.
func (p *Problem) AddBinary(name string) Var {
	p.vars = append(p.vars, variable{name: name, kind: Binary, lo: 0, hi: 1})
	return Var(len(p.vars) - 1)
}

// AddContinuous adds a continuous variable with bounds [lo, hi]. hi may be
// +Inf.
func (p *Problem) AddContinuous(name string, lo, hi float64) Var {
	p.vars = append(p.vars, variable{name: name, kind: Continuous, lo: lo, hi: hi})
	return Var(len(p.vars) - 1)
}

// AddConstraint appends a static constraint.
func (p *Problem) AddConstraint(c Constraint) {
	p.cons = append(p.cons, c)
}

// SetObjective sets the linear objective to minimize.
func (p *Problem) SetObjective(terms []Term) {
	p.objective = terms
}

// NumVars returns the number of variables.
func (p *Problem) NumVars() int { return len(p.vars) }

// NumBinary returns the number of binary variables.
func (p *Problem) NumBinary() int {
	n := 0
	for _, v := range p.vars {
		if v.kind == Binary {
			n++
		}
	}
	return n
}

// Kind returns the domain of v.
func (p *Problem) Kind(v Var) Kind { return p.vars[v].kind }

// Bounds returns the bounds of v.
func (p *Problem) Bounds(v Var) (lo, hi float64) { return p.vars[v].lo, p.vars[v].hi }

// VarName returns the name v was created with.
func (p *Problem) VarName(v Var) string { return p.vars[v].name }

// Constraints returns the static constraints. The slice must not be modified.
func (p *Problem) Constraints() []Constraint { return p.cons }

// Objective returns the objective terms. The slice must not be modified.
func (p *Problem) Objective() []Term { return p.objective }

// ObjectiveValue evaluates the objective at values.
func (p *Problem) ObjectiveValue(values []float64) float64 {
	s := 0.0
	for _, t := range p.objective {
		s += t.Coef * values[t.Var]
	}
	return s
}

// Feasible reports whether values satisfy every static constraint, every
// bound, and integrality of binaries, each within tol.
func (p *Problem) Feasible(values []float64, tol float64) bool {
	if len(values) != len(p.vars) {
		return false
	}
	for i, v := range p.vars {
		x := values[i]
		if x < v.lo-tol || x > v.hi+tol {
			return false
		}
		if v.kind == Binary && math.Abs(x-math.Round(x)) > tol {
			return false
		}
	}
	for _, c := range p.cons {
		if c.Violated(values, tol) {
			return false
		}
	}
	return true
}
