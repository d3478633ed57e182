// Package cli implements the cablenet command-line interface.
//
// # Commands
//
//   - solve: optimize the cable layout of an instance
//   - candidates: inspect the candidate edges of an instance
//   - compare: solve with the reduced and the full candidate set side by side
//   - render: draw a saved solution
//   - generate: create random instances
//   - runs: browse recorded runs
//   - serve: run the HTTP API
//   - cache: manage the solution cache
//
// Settings come from the configuration file (see package config) and can be
// overridden with flags. All commands support --verbose (-v) for debug
// logging.
package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cablenet/pkg/buildinfo"
	"github.com/matzehuels/cablenet/pkg/cache"
	"github.com/matzehuels/cablenet/pkg/config"
	"github.com/matzehuels/cablenet/pkg/pipeline"
	"github.com/matzehuels/cablenet/pkg/runs"
)

const appName = "cablenet"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any command runs.
	Config *config.Config

	configPath string
}

// New creates a CLI that logs to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Cablenet optimizes wind-farm cable layouts",
		Long:         `Cablenet lays out the collection cables of a wind farm: a tree of capacity-limited cables connecting every turbine to a substation at minimum total length, without any two cables crossing.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(c.solveCommand())
	root.AddCommand(c.candidatesCommand())
	root.AddCommand(c.compareCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.runsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner from the configured backends.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	store, err := c.newStore(ctx)
	if err != nil {
		ch.Close()
		return nil, err
	}
	var keyer cache.Keyer
	if c.Config.Cache.Backend == config.BackendRedis {
		keyer = cache.NewScopedKeyer(nil, c.Config.Cache.Prefix)
	}
	runner := pipeline.NewRunner(ch, keyer, store, c.Logger)
	runner.SolutionTTL = c.Config.Cache.TTL.Duration
	return runner, nil
}

// newCache opens the configured cache. An unreachable Redis server degrades
// to no caching with a warning.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config.Cache
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr)
		if errors.Is(err, cache.ErrUnavailable) {
			c.Logger.Warn("cache unavailable, continuing without it", "addr", cfg.RedisAddr, "err", err)
			return cache.NewNullCache(), nil
		}
		return rc, err
	}
	return cache.NewFileCache(cfg.Dir)
}

func (c *CLI) newStore(ctx context.Context) (runs.Store, error) {
	cfg := c.Config.Store
	switch cfg.Backend {
	case config.BackendNone:
		return runs.NullStore{}, nil
	case config.BackendMongo:
		return runs.NewMongoStore(ctx, cfg.MongoURI, cfg.Database)
	}
	return runs.NewFileStore(cfg.Dir)
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
