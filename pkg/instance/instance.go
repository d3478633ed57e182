// Package instance reads, validates and generates wind-farm instances.
//
// An instance is a JSON document:
//
//	{
//	    "id": "instance_20_s1",
//	    "n_turbines": 20,
//	    "n_ss": 2,
//	    "seed": 1,
//	    "turbines": [[x, y], ...],
//	    "substations": [[x, y], ...],
//	    "labels": [0, 1, ...]
//	}
//
// Only turbines, substations and n_ss drive the optimization; the remaining
// fields are carried through for reporting. n_turbines records the requested
// size and may exceed the number of turbines actually placed by the
// generator, so it is not validated.
package instance

import (
	"encoding/json"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/cablenet/pkg/errors"
)

// Instance is one wind farm.
type Instance struct {
	ID          string      `json:"id"`
	NTurbines   int         `json:"n_turbines"`
	NSS         int         `json:"n_ss"`
	Seed        int64       `json:"seed"`
	Turbines    [][]float64 `json:"turbines"`
	Substations [][]float64 `json:"substations"`
	Labels      []int       `json:"labels,omitempty"`
}

// New builds an instance from points.
func New(id string, substations, turbines []r2.Vec) *Instance {
	in := &Instance{
		ID:          id,
		NTurbines:   len(turbines),
		NSS:         len(substations),
		Turbines:    make([][]float64, len(turbines)),
		Substations: make([][]float64, len(substations)),
	}
	for i, p := range turbines {
		in.Turbines[i] = []float64{p.X, p.Y}
	}
	for i, p := range substations {
		in.Substations[i] = []float64{p.X, p.Y}
	}
	return in
}

// Read decodes and validates an instance.
func Read(r io.Reader) (*Instance, error) {
	var in Instance
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode instance")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &in, nil
}

// Load reads the instance stored at path.
func Load(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "instance %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Write encodes the instance as indented JSON.
func (in *Instance) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(in)
}

// Save writes the instance to path.
func (in *Instance) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := in.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Validate checks the fields the optimizer depends on. Geometric
// degeneracies such as coincident points are left to the candidate builder,
// which reports them with the offending indices.
func (in *Instance) Validate() error {
	if len(in.Substations) == 0 {
		return errors.New(errors.ErrCodeInputDegenerate, "instance %q has no substations", in.ID)
	}
	if len(in.Turbines) == 0 {
		return errors.New(errors.ErrCodeInputDegenerate, "instance %q has no turbines", in.ID)
	}
	if in.NSS != len(in.Substations) {
		return errors.New(errors.ErrCodeInputDegenerate,
			"n_ss is %d but %d substations are listed", in.NSS, len(in.Substations))
	}
	for _, set := range []struct {
		name string
		pts  [][]float64
	}{{"substation", in.Substations}, {"turbine", in.Turbines}} {
		for i, p := range set.pts {
			if len(p) != 2 {
				return errors.New(errors.ErrCodeInvalidFormat, "%s %d has %d coordinates, want 2", set.name, i, len(p))
			}
			if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
				return errors.New(errors.ErrCodeNumericDegenerate, "%s %d has non-finite coordinates", set.name, i)
			}
		}
	}
	return nil
}

// Coordinates returns substations followed by turbines, so that indices
// [0, NSS) are substations.
func (in *Instance) Coordinates() []r2.Vec {
	out := make([]r2.Vec, 0, len(in.Substations)+len(in.Turbines))
	for _, p := range in.Substations {
		out = append(out, r2.Vec{X: p[0], Y: p[1]})
	}
	for _, p := range in.Turbines {
		out = append(out, r2.Vec{X: p[0], Y: p[1]})
	}
	return out
}

// Points returns the total number of points.
func (in *Instance) Points() int { return len(in.Substations) + len(in.Turbines) }

// Name returns the ID, or fallback when the instance has none.
func (in *Instance) Name(fallback string) string {
	if in.ID != "" {
		return in.ID
	}
	return fallback
}
