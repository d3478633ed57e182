package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cablenet/pkg/cache"
	"github.com/matzehuels/cablenet/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the solution cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached candidates, solutions and drawings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.Config.Cache
			ch, err := c.newCache(ctx, false)
			if err != nil {
				return err
			}
			defer ch.Close()

			var n int
			switch ch := ch.(type) {
			case *cache.FileCache:
				n, err = ch.Clear(ctx)
			case *cache.RedisCache:
				n, err = ch.Clear(ctx, cfg.Prefix)
			default:
				printInfo("Caching is disabled")
				return nil
			}
			if err != nil {
				return err
			}

			printSuccess("Cleared %d cached entries", n)
			printDetail("Location: %s", cacheLocation(cfg))
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(cacheLocation(c.Config.Cache))
			return nil
		},
	}
}

func cacheLocation(cfg config.Cache) string {
	switch cfg.Backend {
	case config.BackendRedis:
		return fmt.Sprintf("redis://%s/%s*", cfg.RedisAddr, cfg.Prefix)
	case config.BackendNone:
		return "none"
	}
	return cfg.Dir
}
