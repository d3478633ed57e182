package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/matzehuels/cablenet/pkg/candidates"
)

// Comparison is one instance solved with both candidate modes.
type Comparison struct {
	Input   *Input
	Reduced *Result
	Full    *Result
}

// Compare solves in with the reduced and then the full candidate set using
// otherwise identical options. The solves run one after the other so their
// timings are comparable. Rendering is skipped.
func (r *Runner) Compare(ctx context.Context, in *Input, opts Options) (*Comparison, error) {
	opts.Formats = nil
	c := &Comparison{Input: in}

	var err error
	if c.Reduced, err = r.Execute(ctx, in, opts.WithMode(candidates.ModeReduced)); err != nil {
		return nil, fmt.Errorf("reduced: %w", err)
	}
	if c.Full, err = r.Execute(ctx, in, opts.WithMode(candidates.ModeFull)); err != nil {
		return nil, fmt.Errorf("full: %w", err)
	}
	return c, nil
}

// CostRatio returns the reduced cost divided by the full cost, or NaN when
// either mode found no layout.
func (c *Comparison) CostRatio() float64 {
	red, full := c.Reduced.Solution, c.Full.Solution
	if !red.Found() || !full.Found() || full.Cost == 0 {
		return math.NaN()
	}
	return red.Cost / full.Cost
}

// Speedup returns the full solve time divided by the reduced one.
func (c *Comparison) Speedup() float64 {
	red := c.Reduced.Solution.Elapsed
	if red <= 0 {
		return math.NaN()
	}
	return float64(c.Full.Solution.Elapsed) / float64(red)
}
