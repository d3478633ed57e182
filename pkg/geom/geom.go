// Package geom provides the planar predicates used to keep cable layouts free
// of crossings.
//
// Points are [r2.Vec] values. All predicates use exact floating-point sign
// tests without an epsilon: a cross product that evaluates to exactly zero is
// collinear, anything else is a turn. Inputs are assumed finite; instances
// with NaN or infinite coordinates are rejected before they reach this
// package (see [github.com/matzehuels/cablenet/pkg/instance]).
//
// # Crossing Rule
//
// [SegmentsCross] decides whether two straight cables would cross:
//
//   - segments that share an endpoint never cross (cables may meet at a turbine)
//   - otherwise the classic four-orientation test applies, which also reports
//     a T-junction where one endpoint lies inside the other segment
//   - collinear segments that overlap along their common line cross
//
// The predicate is symmetric in the two segments and in the endpoint order
// within each segment.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Orientation is the turn direction of an ordered point triple.
type Orientation int8

const (
	Collinear Orientation = iota
	Clockwise
	CounterClockwise
)

// String returns a lowercase name for the orientation.
func (o Orientation) String() string {
	switch o {
	case Clockwise:
		return "clockwise"
	case CounterClockwise:
		return "counterclockwise"
	default:
		return "collinear"
	}
}

// Orient classifies the turn p → q → r from the sign of the cross product of
// (q−p) and (r−q).
func Orient(p, q, r r2.Vec) Orientation {
	v := r2.Cross(r2.Sub(q, p), r2.Sub(r, q))
	switch {
	case v > 0:
		return CounterClockwise
	case v < 0:
		return Clockwise
	}
	return Collinear
}

// SegmentsCross reports whether segment AB crosses segment CD.
func SegmentsCross(a, b, c, d r2.Vec) bool {
	if a == c || a == d || b == c || b == d {
		return false
	}

	o1 := Orient(a, b, c)
	o2 := Orient(a, b, d)
	o3 := Orient(c, d, a)
	o4 := Orient(c, d, b)

	if o1 != o2 && o3 != o4 {
		return true
	}
	if o1 == Collinear && o2 == Collinear {
		return overlap(a, b, c, d)
	}
	return false
}

// overlap reports whether four collinear points span segments with a common
// stretch of positive length. Endpoints are known to be pairwise distinct, so
// touching intervals cannot occur.
func overlap(a, b, c, d r2.Vec) bool {
	lo1, hi1, lo2, hi2 := a.X, b.X, c.X, d.X
	if a.X == b.X {
		lo1, hi1, lo2, hi2 = a.Y, b.Y, c.Y, d.Y
	}
	if lo1 > hi1 {
		lo1, hi1 = hi1, lo1
	}
	if lo2 > hi2 {
		lo2, hi2 = hi2, lo2
	}
	return math.Max(lo1, lo2) < math.Min(hi1, hi2)
}

// Distance returns the Euclidean distance between p and q.
func Distance(p, q r2.Vec) float64 {
	return r2.Norm(r2.Sub(p, q))
}

// Finite reports whether both coordinates of p are finite numbers.
func Finite(p r2.Vec) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// CountCrossings returns the number of unordered pairs among edges whose
// segments cross. Each edge is a pair of indices into coords. The count is
// quadratic in the number of edges and is meant for validating a finished
// layout, not for use inside a solver loop.
func CountCrossings(edges [][2]int, coords []r2.Vec) int {
	n := 0
	for i := 0; i < len(edges); i++ {
		a, b := coords[edges[i][0]], coords[edges[i][1]]
		for j := i + 1; j < len(edges); j++ {
			if SegmentsCross(a, b, coords[edges[j][0]], coords[edges[j][1]]) {
				n++
			}
		}
	}
	return n
}

// CrossingPairs returns the index pairs (i, j), i < j, of crossing edges in
// the same order [CountCrossings] visits them.
func CrossingPairs(edges [][2]int, coords []r2.Vec) [][2]int {
	var out [][2]int
	for i := 0; i < len(edges); i++ {
		a, b := coords[edges[i][0]], coords[edges[i][1]]
		for j := i + 1; j < len(edges); j++ {
			if SegmentsCross(a, b, coords[edges[j][0]], coords[edges[j][1]]) {
				out = append(out, [2]int{i, j})
			}
		}
	}
	return out
}
