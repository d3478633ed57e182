package cable

import (
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/cablenet/pkg/errors"
	"github.com/matzehuels/cablenet/pkg/milp"
)

func TestSolutionErr(t *testing.T) {
	tests := []struct {
		status milp.Status
		code   errors.Code
	}{
		{milp.StatusOptimal, ""},
		{milp.StatusTimeLimit, errors.ErrCodeSolverTimeout},
		{milp.StatusNoIncumbent, errors.ErrCodeSolverTimeout},
		{milp.StatusInfeasible, errors.ErrCodeSolverInfeasible},
		{milp.StatusUnknown, errors.ErrCodeInternal},
	}
	for _, tt := range tests {
		sol := &Solution{Status: tt.status, Elapsed: time.Second}
		err := sol.Err()
		if got := errors.GetCode(err); got != tt.code {
			t.Errorf("%v: code = %q, want %q (%v)", tt.status, got, tt.code, err)
		}
	}
}

func TestVerify(t *testing.T) {
	// Substation 0; turbines 1, 2, 3 with 3 → 2 → 1 → 0.
	chain := func() *Solution {
		return &Solution{Capacity: 3, Arcs: []ActiveArc{
			{From: 1, To: 0, Flow: 3},
			{From: 2, To: 1, Flow: 2},
			{From: 3, To: 2, Flow: 1},
		}}
	}

	if err := chain().Verify(1, 4); err != nil {
		t.Fatalf("valid chain rejected: %v", err)
	}
	if err := (&Solution{}).Verify(1, 4); err != nil {
		t.Errorf("empty solution rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(s *Solution)
		want   string
	}{
		{"over capacity", func(s *Solution) { s.Capacity = 2 }, "outside"},
		{"two exports", func(s *Solution) {
			s.Arcs = append(s.Arcs, ActiveArc{From: 3, To: 0, Flow: 1})
		}, "outgoing"},
		{"missing export", func(s *Solution) { s.Arcs = s.Arcs[:2] }, "outgoing"},
		{"leaky flow", func(s *Solution) { s.Arcs[1].Flow = 1.5 }, "injects"},
		{"both directions", func(s *Solution) {
			s.Arcs = append(s.Arcs, ActiveArc{From: 1, To: 2, Flow: 1})
		}, "both directions"},
		{"from substation", func(s *Solution) { s.Arcs[0].From = 0 }, "does not start"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := chain()
			tt.mutate(s)
			err := s.Verify(1, 4)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Verify = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	sol := &Solution{Mode: "full", Status: milp.StatusOptimal, Cost: 30, Arcs: make([]ActiveArc, 3)}
	if got := sol.Summary(); !strings.Contains(got, "cost 30.00") || !strings.Contains(got, "3 cables") {
		t.Errorf("Summary = %q", got)
	}
	empty := &Solution{Mode: "reduced", Status: milp.StatusNoIncumbent}
	if got := empty.Summary(); !strings.Contains(got, "no_incumbent") {
		t.Errorf("Summary = %q", got)
	}
}
