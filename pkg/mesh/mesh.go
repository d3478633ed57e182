// Package mesh wraps a Delaunay triangulation of the instance points in a
// small arena of triangles with integer neighbor links.
//
// The candidate-graph builder needs three things from a triangulation: the
// list of triangulation edges, the pairs of triangles that share an edge, and
// for each such pair the two vertices not on the shared edge. [Mesh] stores
// triangles by index so that all of these are plain integer lookups, with no
// pointers between triangles.
//
// Vertex indices always refer to the slice passed to [Triangulate].
package mesh

import (
	"fmt"
	"slices"

	"github.com/fogleman/delaunay"
	"gonum.org/v1/gonum/spatial/r2"
)

// None marks a missing neighbor on the convex hull.
const None = -1

// Triangle is one face of the triangulation. N[k] is the index of the
// triangle on the other side of edge (V[k], V[(k+1)%3]), or [None].
type Triangle struct {
	V [3]int
	N [3]int
}

// Mesh is a triangulation stored as a triangle arena.
type Mesh struct {
	Triangles []Triangle
	points    int
}

// Triangulate computes the Delaunay triangulation of points.
//
// It fails when fewer than three points are given or when the points admit no
// triangulation (all collinear). Duplicate points must be removed by the
// caller; the underlying triangulator silently drops them.
func Triangulate(points []r2.Vec) (*Mesh, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("triangulate: need at least 3 points, got %d", len(points))
	}

	in := make([]delaunay.Point, len(points))
	for i, p := range points {
		in[i] = delaunay.Point{X: p.X, Y: p.Y}
	}

	tri, err := delaunay.Triangulate(in)
	if err != nil {
		return nil, fmt.Errorf("triangulate: %w", err)
	}
	if len(tri.Triangles) == 0 {
		return nil, fmt.Errorf("triangulate: points are collinear")
	}

	m := &Mesh{
		Triangles: make([]Triangle, len(tri.Triangles)/3),
		points:    len(points),
	}
	for e, v := range tri.Triangles {
		t, k := e/3, e%3
		m.Triangles[t].V[k] = v
		m.Triangles[t].N[k] = None
		if h := tri.Halfedges[e]; h >= 0 {
			m.Triangles[t].N[k] = h / 3
		}
	}
	return m, nil
}

// Len returns the number of triangles.
func (m *Mesh) Len() int { return len(m.Triangles) }

// Points returns the number of input points the mesh was built from.
func (m *Mesh) Points() int { return m.points }

// Edges returns every triangulation edge once as (u, v) with u < v, sorted.
func (m *Mesh) Edges() [][2]int {
	seen := make(map[[2]int]struct{}, len(m.Triangles)*2)
	out := make([][2]int, 0, len(m.Triangles)*2)
	for _, t := range m.Triangles {
		for k := 0; k < 3; k++ {
			e := ordered(t.V[k], t.V[(k+1)%3])
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}
	slices.SortFunc(out, compareEdges)
	return out
}

// Adjacent calls fn once for every unordered pair of triangles sharing an
// edge, with i < j.
func (m *Mesh) Adjacent(fn func(i, j int)) {
	for i, t := range m.Triangles {
		for _, j := range t.N {
			if j > i {
				fn(i, j)
			}
		}
	}
}

// Shared returns the two vertices triangles i and j have in common and the
// two vertices, one from each triangle, that are not shared. ok is false
// unless the triangles share exactly two vertices.
func (m *Mesh) Shared(i, j int) (shared, opposite [2]int, ok bool) {
	a, b := m.Triangles[i].V, m.Triangles[j].V

	ns, no := 0, 0
	for _, v := range a {
		if slices.Contains(b[:], v) {
			if ns == 2 {
				return shared, opposite, false
			}
			shared[ns] = v
			ns++
		} else {
			if no == 1 {
				return shared, opposite, false
			}
			opposite[0] = v
			no++
		}
	}
	if ns != 2 {
		return shared, opposite, false
	}
	for _, v := range b {
		if !slices.Contains(a[:], v) {
			opposite[1] = v
			return ordered(shared[0], shared[1]), opposite, true
		}
	}
	return shared, opposite, false
}

func ordered(u, v int) [2]int {
	if u > v {
		u, v = v, u
	}
	return [2]int{u, v}
}

func compareEdges(a, b [2]int) int {
	if a[0] != b[0] {
		return a[0] - b[0]
	}
	return a[1] - b[1]
}
