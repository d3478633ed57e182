// Package config loads cablenet settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/cablenet/config.toml (or
// ~/.config/cablenet/config.toml) unless a path is given explicitly. Every
// key is optional; missing keys keep their defaults:
//
//	[solve]
//	mode = "reduced"          # reduced | full
//	capacity = 4              # turbines per cable
//	time_limit = 300          # seconds
//	gap = 0.02                # relative optimality gap
//	workers = 0               # 0 uses every CPU
//	feeder_policy = "auto"    # auto | exempt | check
//	truncate_weights = false  # integer cable lengths
//
//	[cache]
//	backend = "file"          # file | redis | none
//	dir = "~/.cache/cablenet"
//	redis_addr = "localhost:6379"
//	prefix = "cablenet:"
//	ttl = "720h"              # how long solved layouts stay cached
//
//	[store]
//	backend = "file"          # file | mongo | none
//	dir = "~/.local/share/cablenet/runs"
//	mongo_uri = "mongodb://localhost:27017"
//	database = "cablenet"
//
//	[server]
//	addr = ":8080"
//
// Command-line flags take precedence over the file.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/cablenet/pkg/errors"
)

const appName = "cablenet"

// Backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Config is the parsed configuration file.
type Config struct {
	Solve  Solve  `toml:"solve"`
	Cache  Cache  `toml:"cache"`
	Store  Store  `toml:"store"`
	Server Server `toml:"server"`
}

// Solve holds solver defaults.
type Solve struct {
	Mode            string  `toml:"mode"`
	Capacity        int     `toml:"capacity"`
	TimeLimit       float64 `toml:"time_limit"`
	Gap             float64 `toml:"gap"`
	Workers         int     `toml:"workers"`
	FeederPolicy    string  `toml:"feeder_policy"`
	TruncateWeights bool    `toml:"truncate_weights"`
}

// TimeLimitDuration returns TimeLimit as a duration.
func (s Solve) TimeLimitDuration() time.Duration {
	return time.Duration(s.TimeLimit * float64(time.Second))
}

// Cache selects the solution cache backend.
type Cache struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	Prefix    string   `toml:"prefix"`
	TTL       Duration `toml:"ttl"`
}

// Store selects the run history backend.
type Store struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a Go duration string ("90s", "720h").
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Solve: Solve{
			Mode:         "reduced",
			Capacity:     4,
			TimeLimit:    300,
			Gap:          0.02,
			FeederPolicy: "auto",
		},
		Cache: Cache{
			Backend:   BackendFile,
			Dir:       CacheDir(),
			RedisAddr: "localhost:6379",
			Prefix:    appName + ":",
		},
		Store: Store{
			Backend:  BackendFile,
			Dir:      filepath.Join(DataDir(), "runs"),
			MongoURI: "mongodb://localhost:27017",
			Database: appName,
		},
		Server: Server{Addr: ":8080"},
	}
}

// Load reads the file at path over the defaults. An empty path reads
// DefaultPath and falls back to the defaults when that file does not exist;
// an explicit path must exist. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) {
			if explicit {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
			}
			return cfg, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidFormat, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	cfg.Store.Dir = expandHome(cfg.Store.Dir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and backend names.
func (c *Config) Validate() error {
	s := c.Solve
	if err := errors.ValidateMode(s.Mode); err != nil {
		return err
	}
	if err := errors.ValidateCapacity(s.Capacity); err != nil {
		return err
	}
	if err := errors.ValidateTimeLimit(s.TimeLimitDuration()); err != nil {
		return err
	}
	if err := errors.ValidateGap(s.Gap); err != nil {
		return err
	}
	if s.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "workers must not be negative, got %d", s.Workers)
	}
	switch s.FeederPolicy {
	case "", "auto", "exempt", "check":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "feeder_policy must be auto, exempt or check, got %q", s.FeederPolicy)
	}
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "cache backend must be file, redis or none, got %q", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case BackendFile, BackendMongo, BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "store backend must be file, mongo or none, got %q", c.Store.Backend)
	}
	return nil
}

// Write encodes the configuration as TOML.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
