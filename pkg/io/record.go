package io

import (
	"math"
	"time"

	"github.com/matzehuels/cablenet/pkg/cable"
	"github.com/matzehuels/cablenet/pkg/candidates"
	"github.com/matzehuels/cablenet/pkg/milp"
)

// Record is the serialized form of a [cable.Solution].
type Record struct {
	Mode     candidates.Mode `json:"mode"`
	Capacity int             `json:"capacity"`
	Status   milp.Status     `json:"status"`
	Cost     float64         `json:"cost"`
	Gap      *float64        `json:"gap"`
	Bound    float64         `json:"bound,omitempty"`
	Seconds  float64         `json:"seconds"`

	Arcs    [][2]int  `json:"arcs"`
	Flows   []float64 `json:"flows"`
	Weights []float64 `json:"weights,omitempty"`

	Crossings       int `json:"crossings"`
	LazyConstraints int `json:"lazy_constraints"`
	Rejected        int `json:"rejected,omitempty"`
	Nodes           int `json:"nodes,omitempty"`

	TriangulationEdges [][2]int `json:"triangulation_edges,omitempty"`
	DiagonalEdges      [][2]int `json:"diagonal_edges,omitempty"`
	FullEdges          [][2]int `json:"full_edges,omitempty"`
}

// NewRecord converts a solution into its serialized form.
func NewRecord(s *cable.Solution) *Record {
	r := &Record{
		Mode:               s.Mode,
		Capacity:           s.Capacity,
		Status:             s.Status,
		Cost:               s.Cost,
		Seconds:            s.Elapsed.Seconds(),
		Arcs:               make([][2]int, len(s.Arcs)),
		Flows:              make([]float64, len(s.Arcs)),
		Weights:            make([]float64, len(s.Arcs)),
		Crossings:          s.Crossings,
		LazyConstraints:    s.LazyConstraints,
		Rejected:           s.Rejected,
		Nodes:              s.Nodes,
		TriangulationEdges: pairs(s.Triangulation),
		DiagonalEdges:      pairs(s.Diagonals),
		FullEdges:          pairs(s.FullEdges),
	}
	if !math.IsInf(s.Bound, 0) && !math.IsNaN(s.Bound) {
		r.Bound = s.Bound
	}
	if s.Found() && !math.IsInf(s.Gap, 0) && !math.IsNaN(s.Gap) {
		gap := s.Gap
		r.Gap = &gap
	}
	for i, a := range s.Arcs {
		r.Arcs[i] = [2]int{a.From, a.To}
		r.Flows[i] = a.Flow
		r.Weights[i] = a.Weight
	}
	return r
}

// Solution converts the record back into a solution.
func (r *Record) Solution() *cable.Solution {
	s := &cable.Solution{
		Mode:            r.Mode,
		Capacity:        r.Capacity,
		Status:          r.Status,
		Cost:            r.Cost,
		Gap:             math.Inf(1),
		Bound:           r.Bound,
		Elapsed:         time.Duration(r.Seconds * float64(time.Second)),
		Crossings:       r.Crossings,
		LazyConstraints: r.LazyConstraints,
		Rejected:        r.Rejected,
		Nodes:           r.Nodes,
		Triangulation:   edges(r.TriangulationEdges),
		Diagonals:       edges(r.DiagonalEdges),
		FullEdges:       edges(r.FullEdges),
	}
	if r.Gap != nil {
		s.Gap = *r.Gap
	}
	if len(r.Arcs) > 0 {
		s.Arcs = make([]cable.ActiveArc, len(r.Arcs))
	}
	for i, a := range r.Arcs {
		arc := cable.ActiveArc{From: a[0], To: a[1]}
		if i < len(r.Flows) {
			arc.Flow = r.Flows[i]
		}
		if i < len(r.Weights) {
			arc.Weight = r.Weights[i]
		}
		s.Arcs[i] = arc
	}
	return s
}

func pairs(es []candidates.Edge) [][2]int {
	if len(es) == 0 {
		return nil
	}
	out := make([][2]int, len(es))
	for i, e := range es {
		out[i] = e.Pair()
	}
	return out
}

func edges(ps [][2]int) []candidates.Edge {
	if len(ps) == 0 {
		return nil
	}
	out := make([]candidates.Edge, len(ps))
	for i, p := range ps {
		out[i] = candidates.Edge{U: p[0], V: p[1]}
	}
	return out
}
