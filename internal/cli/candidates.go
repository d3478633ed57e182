package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cablenet/pkg/candidates"
	"github.com/matzehuels/cablenet/pkg/instance"
	"github.com/matzehuels/cablenet/pkg/pipeline"
)

type candidatesOpts struct {
	mode            string
	truncateWeights bool
	output          string
	noCache         bool
}

func (c *CLI) candidatesCommand() *cobra.Command {
	var opts candidatesOpts

	cmd := &cobra.Command{
		Use:   "candidates [instance.json]",
		Short: "Build and summarize the candidate cables of an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCandidates(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "candidate set: reduced or full")
	cmd.Flags().BoolVar(&opts.truncateWeights, "truncate-weights", false, "truncate cable lengths to integers")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the edges as JSON to this file")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runCandidates(cmd *cobra.Command, path string, opts *candidatesOpts) error {
	ctx := cmd.Context()
	inst, err := instance.Load(path)
	if err != nil {
		return err
	}
	in, err := pipeline.NewInput(inst)
	if err != nil {
		return err
	}

	popts := pipeline.Options{
		Mode:            candidates.Mode(c.Config.Solve.Mode),
		TruncateWeights: c.Config.Solve.TruncateWeights,
		Logger:          c.Logger,
	}
	if cmd.Flags().Changed("mode") {
		popts.Mode = candidates.Mode(opts.mode)
	}
	if cmd.Flags().Changed("truncate-weights") {
		popts.TruncateWeights = opts.truncateWeights
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	set, hit, err := runner.CandidatesWithCacheInfo(ctx, in, popts)
	if err != nil {
		return err
	}

	feeders := 0
	for _, e := range set.Edges {
		if e.Feeder(set.NSS) {
			feeders++
		}
	}
	full := candidates.FullCount(set.N, set.NSS)

	printSuccess("%s candidates for %s", set.Mode, in.Name())
	printStats(set.NSS, set.Turbines(), set.Len(), hit)
	printKeyValue("Edges", fmt.Sprintf("%d of %d (%s)", set.Len(), full, formatPercent(float64(set.Len())/float64(full))))
	printKeyValue("Feeders", fmt.Sprintf("%d", feeders))
	printKeyValue("Inter-array", fmt.Sprintf("%d", set.Len()-feeders))
	if set.Mode == candidates.ModeReduced {
		printKeyValue("Delaunay", fmt.Sprintf("%d", len(set.Triangulation)))
		printKeyValue("Diagonals", fmt.Sprintf("%d", len(set.Diagonals)))
	}

	if opts.output == "" {
		return nil
	}
	data, err := json.MarshalIndent(set.Edges, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return err
	}
	printFile(opts.output)
	return nil
}
