package mesh

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func pts(xy ...float64) []r2.Vec {
	out := make([]r2.Vec, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, r2.Vec{X: xy[i], Y: xy[i+1]})
	}
	return out
}

func TestTriangulateSingleTriangle(t *testing.T) {
	m, err := Triangulate(pts(0, 0, 4, 0, 0, 3))
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Len())
	}
	for k, n := range m.Triangles[0].N {
		if n != None {
			t.Errorf("N[%d] = %d, want None", k, n)
		}
	}
	want := [][2]int{{0, 1}, {0, 2}, {1, 2}}
	got := m.Edges()
	if len(got) != len(want) {
		t.Fatalf("Edges = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Edges[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTriangulateQuad(t *testing.T) {
	// A kite whose only Delaunay diagonal is 1-3.
	m, err := Triangulate(pts(0, 0, 2, -1, 4, 0, 2, 1))
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	if got := len(m.Edges()); got != 5 {
		t.Errorf("len(Edges) = %d, want 5", got)
	}

	pairs := 0
	m.Adjacent(func(i, j int) {
		pairs++
		shared, opposite, ok := m.Shared(i, j)
		if !ok {
			t.Fatalf("Shared(%d, %d) not ok", i, j)
		}
		if shared != [2]int{1, 3} {
			t.Errorf("shared = %v, want [1 3]", shared)
		}
		o := opposite
		if !(o == [2]int{0, 2} || o == [2]int{2, 0}) {
			t.Errorf("opposite = %v, want {0, 2} in some order", o)
		}
	})
	if pairs != 1 {
		t.Errorf("adjacent pairs = %d, want 1", pairs)
	}
}

func TestNeighborsSymmetric(t *testing.T) {
	m, err := Triangulate(pts(0, 0, 10, 0, 10, 10, 0, 10, 5, 4, 3, 7, 8, 2))
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	for i, tri := range m.Triangles {
		for _, j := range tri.N {
			if j == None {
				continue
			}
			found := false
			for _, back := range m.Triangles[j].N {
				if back == i {
					found = true
				}
			}
			if !found {
				t.Errorf("triangle %d lists %d as neighbor but not vice versa", i, j)
			}
			if _, _, ok := m.Shared(i, j); !ok {
				t.Errorf("neighbors %d and %d do not share an edge", i, j)
			}
		}
	}

	// Euler: E = V + F - 1 for a triangulated point set (F counts inner faces).
	if got, want := len(m.Edges()), m.Points()+m.Len()-1; got != want {
		t.Errorf("len(Edges) = %d, want %d", got, want)
	}
}

func TestSharedRejectsDisjoint(t *testing.T) {
	m := &Mesh{Triangles: []Triangle{
		{V: [3]int{0, 1, 2}, N: [3]int{None, None, None}},
		{V: [3]int{2, 3, 4}, N: [3]int{None, None, None}},
	}}
	if _, _, ok := m.Shared(0, 1); ok {
		t.Error("Shared reported triangles with one common vertex as adjacent")
	}
}

func TestTriangulateErrors(t *testing.T) {
	if _, err := Triangulate(pts(0, 0, 1, 1)); err == nil {
		t.Error("Triangulate with 2 points: want error")
	}
	if _, err := Triangulate(pts(0, 0, 1, 1, 2, 2, 3, 3)); err == nil {
		t.Error("Triangulate with collinear points: want error")
	}
}
