package render

import (
	"bytes"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/cablenet/pkg/cable"
	"github.com/matzehuels/cablenet/pkg/candidates"
)

// DefaultWidth is the drawing width in inches.
const DefaultWidth = 8.0

// Colors used in the drawing.
const (
	colorSubstation    = "#d62728"
	colorTurbine       = "#1f77b4"
	colorCable         = "#222222"
	colorCandidate     = "#c8c8c8"
	colorTriangulation = "#9ecae1"
	colorDiagonal      = "#ff7f0e"
)

// Options configures the drawing.
type Options struct {
	// Candidates, when set, draws the candidate edges under the cables.
	Candidates *candidates.Set

	// Diagnostics distinguishes triangulation edges from diagonals. It
	// needs Candidates built in reduced mode.
	Diagnostics bool

	// Labels prints point indices next to the markers.
	Labels bool

	// Width of the drawing in inches. Zero uses DefaultWidth.
	Width float64
}

// ToDOT converts a layout to Graphviz DOT with pinned positions. sol may be
// nil to draw only the points and candidates.
func ToDOT(coords []r2.Vec, nSS int, sol *cable.Solution, opts Options) string {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	pos := scale(coords, opts.Width)

	var buf bytes.Buffer
	buf.WriteString("digraph farm {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  splines=line;\n")
	buf.WriteString("  node [label=\"\", fixedsize=true, style=filled, penwidth=0];\n")
	buf.WriteString("  edge [dir=none, arrowsize=0.5];\n")
	buf.WriteString("\n")

	for i, p := range pos {
		attrs := fmt.Sprintf("pos=\"%.4f,%.4f!\"", p.X, p.Y)
		if i < nSS {
			attrs += fmt.Sprintf(", shape=square, width=0.16, fillcolor=%q", colorSubstation)
		} else {
			attrs += fmt.Sprintf(", shape=circle, width=0.1, fillcolor=%q", colorTurbine)
		}
		if opts.Labels {
			attrs += fmt.Sprintf(", xlabel=\"%d\", fontsize=8", i)
		}
		fmt.Fprintf(&buf, "  n%d [%s];\n", i, attrs)
	}

	if set := opts.Candidates; set != nil {
		buf.WriteString("\n")
		writeCandidates(&buf, set, opts.Diagnostics)
	}

	if sol != nil && sol.Found() {
		buf.WriteString("\n")
		for _, a := range sol.Arcs {
			width := 1.0
			if sol.Capacity > 0 {
				width += 2 * a.Flow / float64(sol.Capacity)
			}
			fmt.Fprintf(&buf, "  n%d -> n%d [dir=forward, color=%q, penwidth=%.2f];\n",
				a.From, a.To, colorCable, width)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeCandidates(buf *bytes.Buffer, set *candidates.Set, diagnostics bool) {
	if !diagnostics || set.Mode != candidates.ModeReduced {
		for _, e := range set.Edges {
			fmt.Fprintf(buf, "  n%d -> n%d [color=%q, penwidth=0.5];\n", e.U, e.V, colorCandidate)
		}
		return
	}

	drawn := make(map[[2]int]bool, len(set.Edges))
	for _, e := range set.Triangulation {
		drawn[e.Pair()] = true
		fmt.Fprintf(buf, "  n%d -> n%d [color=%q, penwidth=0.6];\n", e.U, e.V, colorTriangulation)
	}
	for _, e := range set.Diagonals {
		drawn[e.Pair()] = true
		fmt.Fprintf(buf, "  n%d -> n%d [color=%q, penwidth=0.6, style=dashed];\n", e.U, e.V, colorDiagonal)
	}
	for _, e := range set.Edges {
		if !drawn[e.Pair()] {
			fmt.Fprintf(buf, "  n%d -> n%d [color=%q, penwidth=0.4, style=dotted];\n", e.U, e.V, colorCandidate)
		}
	}
}

// scale maps coordinates into [0, width] inches, keeping the aspect ratio.
func scale(coords []r2.Vec, width float64) []r2.Vec {
	if len(coords) == 0 {
		return nil
	}
	lo, hi := coords[0], coords[0]
	for _, p := range coords[1:] {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	span := math.Max(hi.X-lo.X, hi.Y-lo.Y)
	k := 1.0
	if span > 0 {
		k = width / span
	}
	out := make([]r2.Vec, len(coords))
	for i, p := range coords {
		out[i] = r2.Scale(k, r2.Sub(p, lo))
	}
	return out
}
