package pipeline

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cablenet/pkg/cable"
	"github.com/matzehuels/cablenet/pkg/cache"
	"github.com/matzehuels/cablenet/pkg/candidates"
	"github.com/matzehuels/cablenet/pkg/errors"
	"github.com/matzehuels/cablenet/pkg/milp"
	"github.com/matzehuels/cablenet/pkg/render"
)

// Defaults shared by the CLI and the API.
const (
	DefaultMode      = candidates.ModeReduced
	DefaultCapacity  = cable.DefaultCapacity
	DefaultTimeLimit = 300 * time.Second
	DefaultGap       = 0.02
)

// Options configures a pipeline run.
type Options struct {
	// Candidate options
	Mode            candidates.Mode `json:"mode,omitempty"`
	TruncateWeights bool            `json:"truncate_weights,omitempty"`

	// Solve options
	Capacity     int           `json:"capacity,omitempty"`
	TimeLimit    time.Duration `json:"-"`
	Gap          float64       `json:"gap,omitempty"`
	Exact        bool          `json:"exact,omitempty"` // prove optimality; ignores Gap
	Workers      int           `json:"workers,omitempty"`
	FeederPolicy string        `json:"feeder_policy,omitempty"`
	Refresh      bool          `json:"refresh,omitempty"` // ignore cached solutions

	// Render options
	Formats     []string `json:"formats,omitempty"`
	Candidates  bool     `json:"candidates,omitempty"`
	Diagnostics bool     `json:"diagnostics,omitempty"`
	Labels      bool     `json:"labels,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger          `json:"-"`
	Progress func(milp.Progress) `json:"-"`

	policy    cable.FeederPolicy
	validated bool
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if err := errors.ValidateMode(string(o.Mode)); err != nil {
		return err
	}
	if o.Capacity == 0 {
		o.Capacity = DefaultCapacity
	}
	if err := errors.ValidateCapacity(o.Capacity); err != nil {
		return err
	}
	if o.TimeLimit == 0 {
		o.TimeLimit = DefaultTimeLimit
	}
	if err := errors.ValidateTimeLimit(o.TimeLimit); err != nil {
		return err
	}
	switch {
	case o.Exact:
		o.Gap = 0
	case o.Gap == 0:
		o.Gap = DefaultGap
	}
	if err := errors.ValidateGap(o.Gap); err != nil {
		return err
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if err := errors.ValidateWorkers(o.Workers); err != nil {
		return err
	}
	policy, err := cable.ParseFeederPolicy(o.FeederPolicy)
	if err != nil {
		return err
	}
	o.policy = policy
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if !render.ValidFormats[f] {
			return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, dot)", f)
		}
	}
	return nil
}

// Policy returns the parsed feeder policy. Valid after
// ValidateAndSetDefaults.
func (o *Options) Policy() cable.FeederPolicy { return o.policy }

// WithMode returns a copy of o for another candidate mode.
func (o Options) WithMode(mode candidates.Mode) Options {
	o.Mode = mode
	o.validated = false
	return o
}

// CandidatesKeyOpts returns cache key options for candidate sets.
func (o *Options) CandidatesKeyOpts() cache.CandidatesKeyOpts {
	return cache.CandidatesKeyOpts{Mode: string(o.Mode), TruncateWeights: o.TruncateWeights}
}

// SolutionKeyOpts returns cache key options for solutions. Worker count is
// excluded because it does not change an optimal cost.
func (o *Options) SolutionKeyOpts() cache.SolutionKeyOpts {
	return cache.SolutionKeyOpts{
		Mode:            string(o.Mode),
		Capacity:        o.Capacity,
		Gap:             o.Gap,
		TimeLimit:       o.TimeLimit,
		FeederPolicy:    o.policy.String(),
		TruncateWeights: o.TruncateWeights,
	}
}

// ArtifactKeyOpts returns cache key options for a rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:      format,
		Candidates:  o.Candidates,
		Diagnostics: o.Diagnostics,
		Labels:      o.Labels,
	}
}

func (o *Options) String() string {
	return fmt.Sprintf("mode=%s capacity=%d gap=%g time_limit=%s workers=%d",
		o.Mode, o.Capacity, o.Gap, o.TimeLimit, o.Workers)
}
