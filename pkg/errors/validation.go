package errors

import (
	"math"
	"strings"
	"time"
	"unicode"
)

// ValidateCapacity checks the maximum number of turbines a single cable may
// carry. A capacity below one admits no layout at all.
func ValidateCapacity(capacity int) error {
	if capacity < 1 {
		return New(ErrCodeInvalidInput, "cable capacity must be at least 1, got %d", capacity)
	}
	return nil
}

// ValidateGap checks a relative optimality gap. Zero asks for proven optimality.
func ValidateGap(gap float64) error {
	if math.IsNaN(gap) || gap < 0 || gap >= 1 {
		return New(ErrCodeInvalidInput, "relative gap must be in [0, 1), got %v", gap)
	}
	return nil
}

// ValidateTimeLimit checks a solver wall-clock limit.
func ValidateTimeLimit(d time.Duration) error {
	if d <= 0 {
		return New(ErrCodeInvalidInput, "time limit must be positive, got %s", d)
	}
	return nil
}

// ValidateWorkers checks the number of solver goroutines.
func ValidateWorkers(n int) error {
	if n < 1 {
		return New(ErrCodeInvalidInput, "worker count must be at least 1, got %d", n)
	}
	return nil
}

// ValidateMode checks a candidate-graph mode name. The empty string is
// rejected; callers apply their default before validating.
func ValidateMode(mode string) error {
	switch mode {
	case "reduced", "full":
		return nil
	case "":
		return New(ErrCodeInvalidMode, "mode cannot be empty")
	}
	return New(ErrCodeInvalidMode, "unknown mode %q (want reduced or full)", mode)
}

// ValidatePath validates an output or input file path supplied by a user or
// an API client.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateRunID validates a run identifier received over HTTP before it is
// used in a store lookup.
func ValidateRunID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "run id cannot be empty")
	}
	if len(id) > 64 {
		return New(ErrCodeInvalidInput, "run id too long (max 64 characters)")
	}
	if strings.IndexFunc(id, func(r rune) bool {
		return !(r == '-' || unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F'))
	}) >= 0 {
		return New(ErrCodeInvalidInput, "run id %q is not a uuid", id)
	}
	return nil
}
