package io

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/cablenet/pkg/cable"
	"github.com/matzehuels/cablenet/pkg/candidates"
	"github.com/matzehuels/cablenet/pkg/errors"
	"github.com/matzehuels/cablenet/pkg/milp"
)

func star() *cable.Solution {
	return &cable.Solution{
		Mode:     candidates.ModeReduced,
		Capacity: 4,
		Status:   milp.StatusOptimal,
		Cost:     34.142,
		Elapsed:  1500 * time.Millisecond,
		Arcs: []cable.ActiveArc{
			{From: 1, To: 0, Weight: 10, Flow: 1},
			{From: 2, To: 0, Weight: 14.142, Flow: 1},
			{From: 3, To: 0, Weight: 10, Flow: 1},
		},
		Triangulation: []candidates.Edge{{U: 0, V: 1}, {U: 1, V: 2}},
		Diagonals:     []candidates.Edge{{U: 1, V: 3}},
	}
}

func TestWriteSolution(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSolution(star(), &buf); err != nil {
		t.Fatalf("WriteSolution: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"status": "optimal"`, `"gap": 0`, `"seconds": 1.5`, `"diagonal_edges"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
	if strings.Contains(out, "full_edges") {
		t.Errorf("reduced record lists full_edges:\n%s", out)
	}
}

func TestWriteSolutionWithoutLayout(t *testing.T) {
	empty := &cable.Solution{Mode: candidates.ModeFull, Status: milp.StatusNoIncumbent, Gap: math.Inf(1)}
	var buf bytes.Buffer
	if err := WriteSolution(empty, &buf); err != nil {
		t.Fatalf("WriteSolution: %v", err)
	}
	if !strings.Contains(buf.String(), `"gap": null`) {
		t.Errorf("gap not null:\n%s", buf.String())
	}
}

func TestExportImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sol.json")
	if err := ExportSolution(star(), path); err != nil {
		t.Fatalf("ExportSolution: %v", err)
	}
	got, err := ImportSolution(path)
	if err != nil {
		t.Fatalf("ImportSolution: %v", err)
	}
	if got.Status != milp.StatusOptimal || got.Cost != 34.142 || got.Gap != 0 {
		t.Errorf("header = %v %v %v", got.Status, got.Cost, got.Gap)
	}
	if len(got.Arcs) != 3 || got.Arcs[1] != (cable.ActiveArc{From: 2, To: 0, Weight: 14.142, Flow: 1}) {
		t.Errorf("arcs = %+v", got.Arcs)
	}
	if got.Elapsed != 1500*time.Millisecond {
		t.Errorf("Elapsed = %v", got.Elapsed)
	}
	if len(got.Diagonals) != 1 || got.Diagonals[0].Pair() != [2]int{1, 3} {
		t.Errorf("diagonals = %+v", got.Diagonals)
	}
	if err := got.Verify(1, 4); err != nil {
		t.Errorf("imported layout fails Verify: %v", err)
	}
}

func TestReadSolutionErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"malformed", `{"arcs": [`},
		{"flow count", `{"arcs": [[1, 0]], "flows": []}`},
		{"negative index", `{"arcs": [[-1, 0]], "flows": [1]}`},
		{"unknown status", `{"status": "melted"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadSolution(strings.NewReader(tt.json)); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := ImportSolution(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ImportSolution missing = %v", err)
	}
}
