// Package runs records the history of solves.
//
// Every solve executed by the CLI or the API server can be saved as a [Run]:
// the instance it was run on, the options, the status and cost, and the full
// solution record. Runs are kept by a [Store]:
//   - [FileStore]: one JSON file per run (CLI default)
//   - [MongoStore]: a MongoDB collection (API servers)
//   - [MemoryStore]: in-process map for tests and ephemeral servers
//   - [NullStore]: history disabled
package runs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/cablenet/pkg/cable"
	"github.com/matzehuels/cablenet/pkg/candidates"
	pkgio "github.com/matzehuels/cablenet/pkg/io"
	"github.com/matzehuels/cablenet/pkg/milp"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// Run is one recorded solve.
type Run struct {
	ID           string          `json:"id" bson:"_id"`
	Instance     string          `json:"instance" bson:"instance"`
	InstanceHash string          `json:"instance_hash" bson:"instance_hash"`
	Mode         candidates.Mode `json:"mode" bson:"mode"`
	Capacity     int             `json:"capacity" bson:"capacity"`
	Status       string          `json:"status" bson:"status"`
	Cost         float64         `json:"cost" bson:"cost"`
	Seconds      float64         `json:"seconds" bson:"seconds"`
	Crossings    int             `json:"crossings" bson:"crossings"`
	Cached       bool            `json:"cached,omitempty" bson:"cached,omitempty"`
	CreatedAt    time.Time       `json:"created_at" bson:"created_at"`

	Solution *pkgio.Record `json:"solution,omitempty" bson:"solution,omitempty"`
}

// New creates a run with a fresh ID for a solution of the named instance.
func New(instance, instanceHash string, sol *cable.Solution) *Run {
	return &Run{
		ID:           uuid.NewString(),
		Instance:     instance,
		InstanceHash: instanceHash,
		Mode:         sol.Mode,
		Capacity:     sol.Capacity,
		Status:       sol.Status.String(),
		Cost:         sol.Cost,
		Seconds:      sol.Elapsed.Seconds(),
		Crossings:    sol.Crossings,
		CreatedAt:    time.Now().UTC(),
		Solution:     pkgio.NewRecord(sol),
	}
}

// Optimal reports whether the run proved optimality.
func (r *Run) Optimal() bool { return r.Status == milp.StatusOptimal.String() }

// ListOptions filters [Store.List].
type ListOptions struct {
	// Instance restricts results to runs whose instance hash or name
	// matches.
	Instance string

	// Limit caps the number of runs. Zero uses DefaultListLimit.
	Limit int
}

func (o ListOptions) limit() int {
	if o.Limit <= 0 {
		return DefaultListLimit
	}
	return o.Limit
}

func (o ListOptions) match(r *Run) bool {
	return o.Instance == "" || r.Instance == o.Instance || r.InstanceHash == o.Instance
}

// Store is the interface for run history backends.
type Store interface {
	// Save inserts or replaces a run.
	Save(ctx context.Context, run *Run) error

	// Get returns the run with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns runs newest first. Stored solutions are omitted.
	List(ctx context.Context, opts ListOptions) ([]*Run, error)

	// Delete removes a run. Deleting a missing run is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases the backend's resources.
	Close() error
}

// summary returns a copy of r without the stored solution.
func summary(r *Run) *Run {
	c := *r
	c.Solution = nil
	return &c
}
