package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/cablenet/pkg/cable"
	"github.com/matzehuels/cablenet/pkg/errors"
)

// WriteSolution encodes a solution record as indented JSON and writes it to w.
func WriteSolution(s *cable.Solution, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewRecord(s)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadSolution decodes a solution record from r.
//
// Arcs must reference non-negative point indices and carry one flow each.
// ReadSolution does not close r.
func ReadSolution(r io.Reader) (*cable.Solution, error) {
	var rec Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode solution")
	}
	if len(rec.Flows) != len(rec.Arcs) {
		return nil, errors.New(errors.ErrCodeInvalidFormat,
			"solution has %d arcs but %d flows", len(rec.Arcs), len(rec.Flows))
	}
	for _, a := range rec.Arcs {
		if a[0] < 0 || a[1] < 0 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "arc %d->%d has a negative index", a[0], a[1])
		}
	}
	return rec.Solution(), nil
}

// ExportSolution writes a solution record to a JSON file at path.
func ExportSolution(s *cable.Solution, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteSolution(s, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ImportSolution reads the solution record stored at path.
func ImportSolution(path string) (*cable.Solution, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "solution %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadSolution(f)
}
