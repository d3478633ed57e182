package cli

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cablenet/pkg/candidates"
	"github.com/matzehuels/cablenet/pkg/instance"
	pkgio "github.com/matzehuels/cablenet/pkg/io"
	"github.com/matzehuels/cablenet/pkg/milp"
	"github.com/matzehuels/cablenet/pkg/pipeline"
)

// solveFlags are the solver flags shared by solve and compare. Unset flags
// fall back to the configuration file.
type solveFlags struct {
	mode            string
	capacity        int
	timeLimit       float64 // seconds
	gap             float64
	exact           bool
	workers         int
	feederPolicy    string
	truncateWeights bool
	refresh         bool
	noCache         bool
}

func (f *solveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "candidate set: reduced (Delaunay + diagonals) or full")
	cmd.Flags().IntVarP(&f.capacity, "capacity", "c", 0, "maximum turbines per cable")
	cmd.Flags().Float64VarP(&f.timeLimit, "time-limit", "t", 0, "solver time limit in seconds")
	cmd.Flags().Float64Var(&f.gap, "gap", 0, "relative optimality gap at which to stop")
	cmd.Flags().BoolVar(&f.exact, "exact", false, "prove optimality (gap 0)")
	cmd.Flags().IntVarP(&f.workers, "workers", "j", 0, "parallel search workers (0 uses every CPU)")
	cmd.Flags().StringVar(&f.feederPolicy, "feeder-policy", "", "crossing checks on substation feeders: auto, exempt, check")
	cmd.Flags().BoolVar(&f.truncateWeights, "truncate-weights", false, "truncate cable lengths to integers")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached solutions")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching entirely")
}

// options merges the flags that were set over the configured defaults.
func (c *CLI) options(cmd *cobra.Command, f *solveFlags) pipeline.Options {
	cfg := c.Config.Solve
	opts := pipeline.Options{
		Mode:            candidates.Mode(cfg.Mode),
		TruncateWeights: cfg.TruncateWeights,
		Capacity:        cfg.Capacity,
		TimeLimit:       cfg.TimeLimitDuration(),
		Gap:             cfg.Gap,
		Workers:         cfg.Workers,
		FeederPolicy:    cfg.FeederPolicy,
		Exact:           f.exact,
		Refresh:         f.refresh,
		Logger:          c.Logger,
	}
	flags := cmd.Flags()
	if flags.Changed("mode") {
		opts.Mode = candidates.Mode(f.mode)
	}
	if flags.Changed("capacity") {
		opts.Capacity = f.capacity
	}
	if flags.Changed("time-limit") {
		opts.TimeLimit = time.Duration(f.timeLimit * float64(time.Second))
	}
	if flags.Changed("gap") {
		opts.Gap = f.gap
	}
	if flags.Changed("workers") {
		opts.Workers = f.workers
	}
	if flags.Changed("feeder-policy") {
		opts.FeederPolicy = f.feederPolicy
	}
	if flags.Changed("truncate-weights") {
		opts.TruncateWeights = f.truncateWeights
	}
	return opts
}

type solveOpts struct {
	solveFlags
	output      string
	formats     string
	candidates  bool
	diagnostics bool
	labels      bool
	monitor     bool
}

func (c *CLI) solveCommand() *cobra.Command {
	var opts solveOpts

	cmd := &cobra.Command{
		Use:   "solve [instance.json]",
		Short: "Optimize the cable layout of an instance",
		Long: `Solve builds the candidate cables of an instance, optimizes the layout
and writes the solution as JSON next to the instance (or to --output).

Use --format to also draw the layout, e.g. --format svg,png.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSolve(cmd, args[0], &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "solution file (default <instance>.solution.json)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "render the layout: svg, png, dot (comma-separated)")
	cmd.Flags().BoolVar(&opts.candidates, "show-candidates", false, "draw unused candidate edges")
	cmd.Flags().BoolVar(&opts.diagnostics, "diagnostics", false, "color triangulation edges and diagonals apart")
	cmd.Flags().BoolVar(&opts.labels, "labels", false, "label points with their indices")
	cmd.Flags().BoolVar(&opts.monitor, "monitor", false, "show a live view of the search")

	return cmd
}

func (c *CLI) runSolve(cmd *cobra.Command, path string, opts *solveOpts) error {
	ctx := cmd.Context()
	inst, err := instance.Load(path)
	if err != nil {
		return err
	}
	in, err := pipeline.NewInput(inst)
	if err != nil {
		return err
	}

	popts := c.options(cmd, &opts.solveFlags)
	popts.Formats = parseFormats(opts.formats)
	popts.Candidates = opts.candidates
	popts.Diagnostics = opts.diagnostics
	popts.Labels = opts.labels
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	c.Logger.Infof("Solving %s", in.Name())
	c.Logger.Debug("options", "opts", popts.String())

	var result *pipeline.Result
	execute := func(ctx context.Context, progress func(milp.Progress)) error {
		popts.Progress = progress
		var err error
		result, err = runner.Execute(ctx, in, popts)
		return err
	}

	if opts.monitor {
		level := c.Logger.GetLevel()
		c.Logger.SetLevel(log.ErrorLevel)
		err = runMonitored(ctx, in.Name(), popts.TimeLimit, execute)
		c.Logger.SetLevel(level)
	} else {
		prog := newProgress(c.Logger)
		err = execute(ctx, newSolveLog(c.Logger, popts.TimeLimit).onProgress)
		if err == nil {
			prog.done("Solve finished")
		}
	}
	if err != nil {
		return err
	}

	sol := result.Solution
	printStats(result.Stats.Substations, result.Stats.Turbines, result.Stats.CandidateEdges, result.CacheInfo.SolutionHit)
	printSolution(sol)
	if result.RunID != "" {
		printDetail("Run %s", result.RunID)
	}

	base := basePath(opts.output, path)
	out := opts.output
	if out == "" {
		out = base + ".solution.json"
	}
	if sol.Found() {
		if err := pkgio.ExportSolution(sol, out); err != nil {
			return err
		}
		printFile(out)
	}
	if err := writeArtifacts(base, result.Artifacts); err != nil {
		return err
	}
	if !sol.Found() {
		return sol.Err()
	}
	return nil
}

// basePath derives the stem for output files: output without its extension
// if given, otherwise the instance path without its extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	output = strings.TrimSuffix(output, filepath.Ext(output))
	return strings.TrimSuffix(output, ".solution")
}

func writeArtifacts(base string, artifacts map[string][]byte) error {
	for _, format := range slices.Sorted(maps.Keys(artifacts)) {
		path := fmt.Sprintf("%s.%s", base, format)
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}
