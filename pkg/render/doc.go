// Package render draws wind-farm layouts with Graphviz.
//
// Points are pinned to their real coordinates (neato with pos="x,y!"), so
// the picture is a scaled map of the farm: substations as squares, turbines
// as circles, laid cables as arrows towards the substations whose width
// grows with the carried power. Candidate edges can be drawn underneath, and
// in diagnostic mode the triangulation edges and the added diagonals are told
// apart by color.
//
//	dot := render.ToDOT(coords, nSS, sol, render.Options{Candidates: set})
//	svg, err := render.RenderSVG(ctx, dot)
//
// # Dependencies
//
// Rendering uses [github.com/goccy/go-graphviz], which runs Graphviz
// in-process; no system installation is needed.
package render
