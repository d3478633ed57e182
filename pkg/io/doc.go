// Package io provides JSON import and export for cable layouts.
//
// # JSON Format
//
// A solution record carries the laid cables, their flows and the solve
// statistics:
//
//	{
//	  "mode": "reduced",
//	  "capacity": 4,
//	  "status": "optimal",
//	  "cost": 34.14,
//	  "gap": 0,
//	  "seconds": 0.012,
//	  "arcs": [[1, 0], [2, 0], [3, 0]],
//	  "flows": [1, 1, 1],
//	  "weights": [10, 14.14, 10],
//	  "crossings": 0,
//	  "lazy_constraints": 0,
//	  "triangulation_edges": [[0, 1], ...],
//	  "diagonal_edges": [[1, 3], ...]
//	}
//
// gap is null when no layout was found. Reduced-mode records list the
// triangulation and diagonal edges the candidate graph was built from;
// full-mode records list every candidate edge under full_edges instead.
//
// # Import and Export
//
// Use [WriteSolution] and [ReadSolution] with any io.Writer or io.Reader, or
// [ExportSolution] and [ImportSolution] for files. A record converts back
// into a [cable.Solution] that carries everything except candidate weights,
// which only the geometry can reconstruct.
//
// [cable.Solution]: github.com/matzehuels/cablenet/pkg/cable.Solution
package io
