package cache

import "time"

// Keyer builds cache keys.
type Keyer interface {
	// CandidatesKey identifies a candidate edge set.
	CandidatesKey(instanceHash string, opts CandidatesKeyOpts) string

	// SolutionKey identifies a solved layout.
	SolutionKey(instanceHash string, opts SolutionKeyOpts) string

	// ArtifactKey identifies a rendered image of a solution.
	ArtifactKey(solutionHash string, opts ArtifactKeyOpts) string
}

// CandidatesKeyOpts are the options that change a candidate set.
type CandidatesKeyOpts struct {
	Mode            string `json:"mode"`
	TruncateWeights bool   `json:"truncate_weights,omitempty"`
}

// SolutionKeyOpts are the options that change a solved layout.
type SolutionKeyOpts struct {
	Mode            string        `json:"mode"`
	Capacity        int           `json:"capacity"`
	Gap             float64       `json:"gap"`
	TimeLimit       time.Duration `json:"time_limit"`
	FeederPolicy    string        `json:"feeder_policy,omitempty"`
	TruncateWeights bool          `json:"truncate_weights,omitempty"`
}

// ArtifactKeyOpts are the options that change a rendered image.
type ArtifactKeyOpts struct {
	Format      string `json:"format"`
	Candidates  bool   `json:"candidates,omitempty"`
	Diagnostics bool   `json:"diagnostics,omitempty"`
	Labels      bool   `json:"labels,omitempty"`
}

// DefaultKeyer hashes key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// CandidatesKey implements Keyer.
func (DefaultKeyer) CandidatesKey(instanceHash string, opts CandidatesKeyOpts) string {
	return hashKey("candidates", instanceHash, opts)
}

// SolutionKey implements Keyer.
func (DefaultKeyer) SolutionKey(instanceHash string, opts SolutionKeyOpts) string {
	return hashKey("solution", instanceHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(solutionHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", solutionHash, opts)
}

var _ Keyer = DefaultKeyer{}
