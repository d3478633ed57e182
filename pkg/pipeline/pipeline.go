// Package pipeline runs the cablenet workflow: build candidates, solve the
// cable model, render the layout and record the run.
//
// The CLI and the API server share this package so that both apply the same
// defaults, caching and history. Each stage can be run on its own or through
// [Runner.Execute]:
//
//	runner := pipeline.NewRunner(cache, nil, store, logger)
//	in, err := pipeline.NewInput(inst)
//	result, err := runner.Execute(ctx, in, pipeline.Options{Formats: []string{"svg"}})
//	fmt.Println(result.Solution.Summary())
//
// [Runner.Compare] solves one instance in both candidate modes for a side by
// side report of run time, cost and crossings.
package pipeline

import (
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/cablenet/pkg/cable"
	"github.com/matzehuels/cablenet/pkg/cache"
	"github.com/matzehuels/cablenet/pkg/candidates"
	"github.com/matzehuels/cablenet/pkg/instance"
)

// Input is a validated instance with its content hash.
type Input struct {
	Instance *instance.Instance
	Coords   []r2.Vec
	NSS      int

	// Hash identifies the geometry. Two instances with the same points in
	// the same order share cache entries regardless of their IDs.
	Hash string
}

// NewInput validates in and computes its hash.
func NewInput(in *instance.Instance) (*Input, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	coords := in.Coordinates()
	hash, err := cache.HashJSON(struct {
		NSS    int         `json:"n_ss"`
		Points [][]float64 `json:"points"`
	}{in.NSS, append(append([][]float64(nil), in.Substations...), in.Turbines...)})
	if err != nil {
		return nil, err
	}
	return &Input{Instance: in, Coords: coords, NSS: in.NSS, Hash: hash}, nil
}

// Name returns the instance ID, or a short hash when it has none.
func (in *Input) Name() string { return in.Instance.Name(in.Hash[:12]) }

// Result contains the outputs of a pipeline run.
type Result struct {
	Input      *Input
	Candidates *candidates.Set
	Solution   *cable.Solution

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// RunID is the ID under which the run was recorded, if any.
	RunID string

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Substations    int
	Turbines       int
	CandidateEdges int
	CandidatesTime time.Duration
	SolveTime      time.Duration
	RenderTime     time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	CandidatesHit bool
	SolutionHit   bool
	RenderHit     bool
}
