package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cablenet/pkg/api"
)

type serveOpts struct {
	addr         string
	maxSolves    int
	maxTimeLimit time.Duration
}

func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{maxSolves: api.DefaultMaxSolves, maxTimeLimit: api.DefaultMaxTimeLimit}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the solver over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			addr := c.Config.Server.Addr
			if cmd.Flags().Changed("addr") {
				addr = opts.addr
			}

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := api.NewServer(runner, c.Logger,
				api.WithMaxSolves(opts.maxSolves),
				api.WithMaxTimeLimit(opts.maxTimeLimit))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().IntVar(&opts.maxSolves, "max-solves", opts.maxSolves, "solves run at once")
	cmd.Flags().DurationVar(&opts.maxTimeLimit, "max-time-limit", opts.maxTimeLimit, "largest time limit a request may ask for")

	return cmd
}
