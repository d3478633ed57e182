// Package candidates builds the set of cable routes the optimizer may choose
// from.
//
// # Modes
//
// [ModeFull] admits every pair of points except substation–substation pairs,
// giving C(N,2) − C(nSS,2) edges. It is exact but grows quadratically.
//
// [ModeReduced] keeps the problem small: it takes every Delaunay
// triangulation edge, adds the "flip" diagonal of each pair of adjacent
// triangles when that diagonal joins two turbines and crosses the shared
// edge, and finally connects every turbine to every substation with a feeder.
// Substation–substation triangulation edges are kept only as diagnostics.
//
// # Node Numbering
//
// Points are indexed with substations first: indices [0, nSS) are
// substations and [nSS, N) are turbines. An [Edge] always has U < V, so an
// edge touching a substation has it as U.
//
// # Determinism
//
// Every edge list in a [Set] is sorted by (U, V). The same coordinates and
// options always produce an identical set, independent of the order in which
// the triangulator enumerates its faces.
package candidates

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/cablenet/pkg/errors"
	"github.com/matzehuels/cablenet/pkg/geom"
	"github.com/matzehuels/cablenet/pkg/mesh"
)

// Mode selects how candidate edges are generated.
type Mode string

const (
	ModeReduced Mode = "reduced"
	ModeFull    Mode = "full"
)

// DefaultMode is used when no mode is configured.
const DefaultMode = ModeReduced

// ParseMode converts a user-supplied mode name. The empty string yields
// [DefaultMode].
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return DefaultMode, nil
	}
	if err := errors.ValidateMode(s); err != nil {
		return "", err
	}
	return Mode(s), nil
}

// Edge is an undirected candidate cable between points U and V, U < V.
type Edge struct {
	U, V   int
	Weight float64
}

// Feeder reports whether the edge connects a turbine to a substation.
func (e Edge) Feeder(nSS int) bool { return e.U < nSS }

// Pair returns the endpoints as an index pair.
func (e Edge) Pair() [2]int { return [2]int{e.U, e.V} }

// Options configures [Build].
type Options struct {
	Mode Mode

	// TruncateWeights rounds every distance toward zero to a whole number,
	// reproducing cost models that price cables per started unit.
	TruncateWeights bool
}

// Set is the output of [Build]. It is not modified after Build returns.
type Set struct {
	Mode Mode
	NSS  int
	N    int

	// Edges are the candidates handed to the model.
	Edges []Edge

	// Triangulation lists every Delaunay edge, including any
	// substation–substation edges. Reduced mode only.
	Triangulation []Edge

	// Diagonals lists the flip diagonals that were added. Reduced mode only.
	Diagonals []Edge
}

// Len returns the number of candidate edges.
func (s *Set) Len() int { return len(s.Edges) }

// Turbines returns the number of turbines in the instance.
func (s *Set) Turbines() int { return s.N - s.NSS }

// Pairs returns the candidate edges as index pairs.
func (s *Set) Pairs() [][2]int { return pairs(s.Edges) }

// FullCount returns the size of the full candidate set for n points of which
// nSS are substations.
func FullCount(n, nSS int) int {
	return n*(n-1)/2 - nSS*(nSS-1)/2
}

// Build generates the candidate set for coords, whose first nSS entries are
// substations.
//
// It reports [errors.ErrCodeInputDegenerate] when there is no turbine or no
// substation, when two points coincide, or when reduced mode gets fewer than
// three points or a collinear point set. Non-finite coordinates yield
// [errors.ErrCodeNumericDegenerate].
func Build(coords []r2.Vec, nSS int, opts Options) (*Set, error) {
	mode := opts.Mode
	if mode == "" {
		mode = DefaultMode
	}
	if err := errors.ValidateMode(string(mode)); err != nil {
		return nil, err
	}
	if err := Validate(coords, nSS); err != nil {
		return nil, err
	}

	b := builder{coords: coords, nSS: nSS, truncate: opts.TruncateWeights}
	set := &Set{Mode: mode, NSS: nSS, N: len(coords)}

	switch mode {
	case ModeFull:
		set.Edges = b.full()
	case ModeReduced:
		if len(coords) < 3 {
			return nil, errors.New(errors.ErrCodeInputDegenerate,
				"reduced mode needs at least 3 points, got %d", len(coords))
		}
		m, err := mesh.Triangulate(coords)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInputDegenerate, err, "no triangulation for %d points", len(coords))
		}
		set.Edges, set.Triangulation, set.Diagonals = b.reduced(m)
	}
	return set, nil
}

// Validate checks the preconditions shared by both modes.
func Validate(coords []r2.Vec, nSS int) error {
	if nSS < 1 {
		return errors.New(errors.ErrCodeInputDegenerate, "instance has no substation")
	}
	if nSS >= len(coords) {
		return errors.New(errors.ErrCodeInputDegenerate, "instance has no turbine (%d points, %d substations)", len(coords), nSS)
	}
	seen := make(map[r2.Vec]int, len(coords))
	for i, p := range coords {
		if !geom.Finite(p) {
			return errors.New(errors.ErrCodeNumericDegenerate, "point %d has non-finite coordinates (%v, %v)", i, p.X, p.Y)
		}
		if j, ok := seen[p]; ok {
			return errors.New(errors.ErrCodeInputDegenerate, "points %d and %d coincide at (%v, %v)", j, i, p.X, p.Y)
		}
		seen[p] = i
	}
	return nil
}

type builder struct {
	coords   []r2.Vec
	nSS      int
	truncate bool
}

func (b builder) edge(u, v int) Edge {
	if u > v {
		u, v = v, u
	}
	w := geom.Distance(b.coords[u], b.coords[v])
	if b.truncate {
		w = math.Trunc(w)
	}
	return Edge{U: u, V: v, Weight: w}
}

func (b builder) full() []Edge {
	n := len(b.coords)
	out := make([]Edge, 0, FullCount(n, b.nSS))
	for u := 0; u < n; u++ {
		for v := max(u+1, b.nSS); v < n; v++ {
			out = append(out, b.edge(u, v))
		}
	}
	return out
}

func (b builder) reduced(m *mesh.Mesh) (edges, tri, diag []Edge) {
	keep := make(map[[2]int]struct{})

	for _, e := range m.Edges() {
		tri = append(tri, b.edge(e[0], e[1]))
		if e[1] >= b.nSS {
			keep[e] = struct{}{}
		}
	}

	m.Adjacent(func(i, j int) {
		shared, opp, ok := m.Shared(i, j)
		if !ok {
			return
		}
		if opp[0] < b.nSS || opp[1] < b.nSS {
			return
		}
		c := b.coords
		if !geom.SegmentsCross(c[opp[0]], c[opp[1]], c[shared[0]], c[shared[1]]) {
			return
		}
		e := b.edge(opp[0], opp[1])
		if _, ok := keep[e.Pair()]; ok {
			return
		}
		keep[e.Pair()] = struct{}{}
		diag = append(diag, e)
	})

	for s := 0; s < b.nSS; s++ {
		for t := b.nSS; t < len(b.coords); t++ {
			keep[[2]int{s, t}] = struct{}{}
		}
	}

	edges = make([]Edge, 0, len(keep))
	for e := range keep {
		edges = append(edges, b.edge(e[0], e[1]))
	}
	slices.SortFunc(edges, compare)
	slices.SortFunc(diag, compare)
	return edges, tri, diag
}

func compare(a, b Edge) int {
	if a.U != b.U {
		return a.U - b.U
	}
	return a.V - b.V
}

func pairs(edges []Edge) [][2]int {
	out := make([][2]int, len(edges))
	for i, e := range edges {
		out[i] = e.Pair()
	}
	return out
}

// String summarizes the set for logs.
func (s *Set) String() string {
	if s.Mode == ModeReduced {
		return fmt.Sprintf("%s: %d candidates (%d triangulation, %d diagonals) for %d points",
			s.Mode, len(s.Edges), len(s.Triangulation), len(s.Diagonals), s.N)
	}
	return fmt.Sprintf("%s: %d candidates for %d points", s.Mode, len(s.Edges), s.N)
}
