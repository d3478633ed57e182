package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cablenet/pkg/instance"
)

type generateOpts struct {
	turbines    []int
	seeds       []int64
	minDistance float64
	substations int
	dir         string
}

func (c *CLI) generateCommand() *cobra.Command {
	opts := generateOpts{dir: "."}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate random wind-farm instances",
		Long: `Generate places turbines uniformly at random with a minimum spacing and puts
substations at the k-means centroids of the turbines. One file is written per
turbine count and seed, named instance_<n>_s<seed>.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(&opts)
		},
	}

	cmd.Flags().IntSliceVarP(&opts.turbines, "turbines", "n", []int{20}, "turbine counts")
	cmd.Flags().Int64SliceVar(&opts.seeds, "seed", []int64{1}, "random seeds")
	cmd.Flags().Float64Var(&opts.minDistance, "min-distance", instance.DefaultMinDistance, "minimum turbine spacing")
	cmd.Flags().IntVar(&opts.substations, "substations", 0, "substation count (default max(2, n/10))")
	cmd.Flags().StringVarP(&opts.dir, "dir", "d", opts.dir, "output directory")

	return cmd
}

func (c *CLI) runGenerate(opts *generateOpts) error {
	if err := os.MkdirAll(opts.dir, 0o755); err != nil {
		return err
	}
	for _, n := range opts.turbines {
		for _, seed := range opts.seeds {
			in, err := instance.Generate(instance.GenerateOptions{
				Turbines:    n,
				Seed:        seed,
				MinDistance: opts.minDistance,
				Substations: opts.substations,
			})
			if err != nil {
				return err
			}
			if placed := len(in.Turbines); placed < n {
				printWarning("%s: placed only %d of %d turbines", in.ID, placed, n)
			}
			path := filepath.Join(opts.dir, in.ID+".json")
			if err := in.Save(path); err != nil {
				return fmt.Errorf("save %s: %w", path, err)
			}
			c.Logger.Debug("generated", "id", in.ID, "turbines", len(in.Turbines), "substations", in.NSS)
			printFile(path)
		}
	}
	return nil
}
