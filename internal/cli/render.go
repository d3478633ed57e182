package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cablenet/pkg/cable"
	"github.com/matzehuels/cablenet/pkg/candidates"
	"github.com/matzehuels/cablenet/pkg/errors"
	"github.com/matzehuels/cablenet/pkg/instance"
	pkgio "github.com/matzehuels/cablenet/pkg/io"
	"github.com/matzehuels/cablenet/pkg/pipeline"
	"github.com/matzehuels/cablenet/pkg/render"
)

type renderOpts struct {
	solution    string
	output      string
	formats     string
	candidates  bool
	diagnostics bool
	labels      bool
	width       float64
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [instance.json]",
		Short: "Draw an instance and its saved solution",
		Long: `Render draws the points of an instance together with a solution written by
"cablenet solve". Without a solution file, <instance>.solution.json is used if
it exists; otherwise only the points (and candidates, if requested) are drawn.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.solution, "solution", "s", "", "solution file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: instance path)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "svg", "output format(s): svg, png, dot (comma-separated)")
	cmd.Flags().BoolVar(&opts.candidates, "show-candidates", false, "draw the candidate edges")
	cmd.Flags().BoolVar(&opts.diagnostics, "diagnostics", false, "color triangulation edges and diagonals apart")
	cmd.Flags().BoolVar(&opts.labels, "labels", false, "label points with their indices")
	cmd.Flags().Float64Var(&opts.width, "width", render.DefaultWidth, "drawing width in inches")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, path string, opts *renderOpts) error {
	ctx := cmd.Context()
	formats := parseFormats(opts.formats)
	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}

	inst, err := instance.Load(path)
	if err != nil {
		return err
	}
	in, err := pipeline.NewInput(inst)
	if err != nil {
		return err
	}

	sol, err := c.loadSolution(path, opts.solution)
	if err != nil {
		return err
	}
	if sol != nil {
		if err := sol.Verify(in.NSS, len(in.Coords)); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "solution does not match %s", path)
		}
	}

	ropts := render.Options{Diagnostics: opts.diagnostics, Labels: opts.labels, Width: opts.width}
	if opts.candidates || opts.diagnostics {
		mode := candidates.Mode(c.Config.Solve.Mode)
		if sol != nil {
			mode = sol.Mode
		}
		runner, err := c.newRunner(ctx, false)
		if err != nil {
			return err
		}
		defer runner.Close()
		set, err := runner.Candidates(ctx, in, pipeline.Options{Mode: mode, Logger: c.Logger})
		if err != nil {
			return err
		}
		ropts.Candidates = set
	}

	dot := render.ToDOT(in.Coords, in.NSS, sol, ropts)
	artifacts := make(map[string][]byte, len(formats))
	spinner := newSpinnerWithContext(ctx, "Rendering")
	spinner.Start()
	for _, format := range formats {
		spinner.Update("Rendering " + format)
		data, err := render.Render(ctx, dot, format)
		if err != nil {
			spinner.StopWithError(err.Error())
			return err
		}
		artifacts[format] = data
	}
	spinner.StopWithSuccess("Rendered " + in.Name())

	return writeArtifacts(basePath(opts.output, path), artifacts)
}

// loadSolution reads the explicit solution file, or the default one next to
// the instance when it exists.
func (c *CLI) loadSolution(instancePath, explicit string) (*cable.Solution, error) {
	if explicit != "" {
		return pkgio.ImportSolution(explicit)
	}
	def := basePath("", instancePath) + ".solution.json"
	if _, err := os.Stat(def); err != nil {
		c.Logger.Debug("no solution to draw", "looked_for", def)
		return nil, nil
	}
	return pkgio.ImportSolution(def)
}
