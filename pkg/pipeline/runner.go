package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cablenet/pkg/cable"
	"github.com/matzehuels/cablenet/pkg/cache"
	"github.com/matzehuels/cablenet/pkg/candidates"
	pkgio "github.com/matzehuels/cablenet/pkg/io"
	"github.com/matzehuels/cablenet/pkg/milp"
	"github.com/matzehuels/cablenet/pkg/milp/bnb"
	"github.com/matzehuels/cablenet/pkg/observability"
	"github.com/matzehuels/cablenet/pkg/render"
	"github.com/matzehuels/cablenet/pkg/runs"
)

// Runner encapsulates pipeline execution with caching and run history.
//
// The Runner holds no per-run state; several goroutines may use one Runner
// with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  runs.Store
	Solver milp.Solver
	Logger *log.Logger

	// SolutionTTL overrides cache.TTLSolution when positive.
	SolutionTTL time.Duration
}

// NewRunner creates a runner. A nil keyer uses DefaultKeyer, a nil cache
// disables caching and a nil store disables run history. The solver is the
// built-in branch-and-bound.
func NewRunner(c cache.Cache, keyer cache.Keyer, store runs.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if store == nil {
		store = runs.NullStore{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Store:  store,
		Solver: bnb.New(logger),
		Logger: logger,
	}
}

// Execute runs candidates → solve → render and records the run. Rendering is
// skipped when no format is requested.
func (r *Runner) Execute(ctx context.Context, in *Input, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{Input: in}
	result.Stats.Substations = in.NSS
	result.Stats.Turbines = len(in.Coords) - in.NSS

	start := time.Now()
	set, hit, err := r.CandidatesWithCacheInfo(ctx, in, opts)
	if err != nil {
		return nil, fmt.Errorf("candidates: %w", err)
	}
	result.Candidates = set
	result.Stats.CandidateEdges = set.Len()
	result.Stats.CandidatesTime = time.Since(start)
	result.CacheInfo.CandidatesHit = hit

	r.Logger.Info("built candidates",
		"mode", set.Mode,
		"edges", set.Len(),
		"full", candidates.FullCount(set.N, set.NSS),
		"duration", result.Stats.CandidatesTime)

	start = time.Now()
	sol, hit, err := r.SolveWithCacheInfo(ctx, in, set, opts)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	result.Solution = sol
	result.Stats.SolveTime = time.Since(start)
	result.CacheInfo.SolutionHit = hit

	r.Logger.Info("solved",
		"status", sol.Status,
		"cost", fmt.Sprintf("%.2f", sol.Cost),
		"cables", len(sol.Arcs),
		"crossings", sol.Crossings,
		"cached", hit,
		"duration", result.Stats.SolveTime)

	if len(opts.Formats) > 0 {
		start = time.Now()
		artifacts, hit, err := r.RenderWithCacheInfo(ctx, in, set, sol, opts)
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		result.Artifacts = artifacts
		result.Stats.RenderTime = time.Since(start)
		result.CacheInfo.RenderHit = hit

		r.Logger.Info("rendered outputs",
			"formats", opts.Formats,
			"duration", result.Stats.RenderTime)
	}

	run := runs.New(in.Name(), in.Hash, sol)
	run.Cached = result.CacheInfo.SolutionHit
	if err := r.Store.Save(ctx, run); err != nil {
		r.Logger.Warn("could not record run", "err", err)
	} else {
		result.RunID = run.ID
	}
	return result, nil
}

// CandidatesWithCacheInfo builds the candidate set and reports whether it
// came from the cache.
func (r *Runner) CandidatesWithCacheInfo(ctx context.Context, in *Input, opts Options) (*candidates.Set, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	hooks := observability.Pipeline()
	hooks.OnCandidatesStart(ctx, string(opts.Mode), len(in.Coords))
	start := time.Now()

	key := r.Keyer.CandidatesKey(in.Hash, opts.CandidatesKeyOpts())
	if data, ok := r.get(ctx, "candidates", key); ok {
		var set candidates.Set
		if err := json.Unmarshal(data, &set); err == nil && set.N == len(in.Coords) {
			hooks.OnCandidatesComplete(ctx, string(opts.Mode), set.Len(), time.Since(start), nil)
			return &set, true, nil
		}
	}

	set, err := candidates.Build(in.Coords, in.NSS, candidates.Options{
		Mode:            opts.Mode,
		TruncateWeights: opts.TruncateWeights,
	})
	if err != nil {
		hooks.OnCandidatesComplete(ctx, string(opts.Mode), 0, time.Since(start), err)
		return nil, false, err
	}
	hooks.OnCandidatesComplete(ctx, string(opts.Mode), set.Len(), time.Since(start), nil)

	if data, err := json.Marshal(set); err == nil {
		r.set(ctx, "candidates", key, data, cache.TTLCandidates)
	}
	return set, false, nil
}

// Candidates is a convenience wrapper that discards the cache hit info.
func (r *Runner) Candidates(ctx context.Context, in *Input, opts Options) (*candidates.Set, error) {
	set, _, err := r.CandidatesWithCacheInfo(ctx, in, opts)
	return set, err
}

// SolveWithCacheInfo solves the cable model over set and reports whether the
// solution came from the cache. Only proven optimal solutions are cached;
// a time-limited result may improve with more time.
func (r *Runner) SolveWithCacheInfo(ctx context.Context, in *Input, set *candidates.Set, opts Options) (*cable.Solution, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	key := r.Keyer.SolutionKey(in.Hash, opts.SolutionKeyOpts())
	if !opts.Refresh {
		if data, ok := r.get(ctx, "solution", key); ok {
			if sol, err := pkgio.ReadSolution(bytes.NewReader(data)); err == nil {
				return sol, true, nil
			}
		}
	}

	model, err := cable.NewModel(in.Coords, set, cable.Options{
		Capacity: opts.Capacity,
		Policy:   opts.Policy(),
	})
	if err != nil {
		return nil, false, err
	}
	opts.Logger.Debug("built model",
		"arcs", len(model.Arcs()),
		"vars", model.Problem().NumVars(),
		"constraints", len(model.Problem().Constraints()),
		"policy", model.Policy())

	sol, err := model.Solve(ctx, r.Solver, milp.Params{
		TimeLimit: opts.TimeLimit,
		RelGap:    opts.Gap,
		Workers:   opts.Workers,
		Progress:  opts.Progress,
	})
	if err != nil {
		return nil, false, err
	}
	if err := sol.Verify(in.NSS, len(in.Coords)); err != nil {
		return nil, false, err
	}

	if sol.Status == milp.StatusOptimal {
		var buf bytes.Buffer
		if err := pkgio.WriteSolution(sol, &buf); err == nil {
			ttl := cache.TTLSolution
			if r.SolutionTTL > 0 {
				ttl = r.SolutionTTL
			}
			r.set(ctx, "solution", key, buf.Bytes(), ttl)
		}
	}
	return sol, false, nil
}

// Solve is a convenience wrapper that discards the cache hit info.
func (r *Runner) Solve(ctx context.Context, in *Input, set *candidates.Set, opts Options) (*cable.Solution, error) {
	sol, _, err := r.SolveWithCacheInfo(ctx, in, set, opts)
	return sol, err
}

// RenderWithCacheInfo draws the solution in every requested format and
// reports whether all of them came from the cache. set is drawn only when
// opts.Candidates is true.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, in *Input, set *candidates.Set, sol *cable.Solution, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	// Timing and solver statistics do not change the drawing.
	solHash, err := cache.HashJSON(struct {
		Input    string
		Mode     candidates.Mode
		Capacity int
		Arcs     []cable.ActiveArc
	}{in.Hash, sol.Mode, sol.Capacity, sol.Arcs})
	if err != nil {
		return nil, false, fmt.Errorf("hash solution: %w", err)
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, ok := r.get(ctx, "artifact", r.Keyer.ArtifactKey(solHash, opts.ArtifactKeyOpts(format)))
		if !ok {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
		return artifacts, true, nil
	}

	ropts := render.Options{Diagnostics: opts.Diagnostics, Labels: opts.Labels}
	if opts.Candidates {
		ropts.Candidates = set
	}
	dot := render.ToDOT(in.Coords, in.NSS, sol, ropts)
	for _, format := range opts.Formats {
		data, err := render.Render(ctx, dot, format)
		if err != nil {
			hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
			return nil, false, err
		}
		artifacts[format] = data
		r.set(ctx, "artifact", r.Keyer.ArtifactKey(solHash, opts.ArtifactKeyOpts(format)), data, cache.TTLArtifact)
	}
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
	return artifacts, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, in *Input, set *candidates.Set, sol *cable.Solution, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, in, set, sol, opts)
	return artifacts, err
}

// Close releases the cache and the run store.
func (r *Runner) Close() error {
	var errs []error
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// get reads key from the cache. Backend failures are logged and treated as
// misses so that an unavailable cache never fails a solve.
func (r *Runner) get(ctx context.Context, kind, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "kind", kind, "err", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, kind)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, kind)
	return data, true
}

func (r *Runner) set(ctx context.Context, kind, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "kind", kind, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, kind, len(data))
}
