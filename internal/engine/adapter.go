package engine

import (
	"context"

	"clarion/internal/filterplan"
)

// Progress is one progress notification. Known is false while the engine
// cannot estimate completion.
type Progress struct {
	Ratio float64
	Known bool
}

// Indeterminate reports progress without a completion estimate.
func Indeterminate() Progress {
	return Progress{}
}

// Fraction reports progress as a ratio clamped to [0,1].
func Fraction(ratio float64) Progress {
	switch {
	case ratio != ratio || ratio < 0:
		ratio = 0
	case ratio > 1:
		ratio = 1
	}
	return Progress{Ratio: ratio, Known: true}
}

// Percent converts a known ratio to a percentage.
func (p Progress) Percent() (float64, bool) {
	if !p.Known {
		return 0, false
	}
	return p.Ratio * 100, true
}

// Adapter is the contract around the external media engine. Every method
// may block; Execute is the long-running, cancelable phase.
type Adapter interface {
	// EnsureLoaded loads the engine at most once per process. Concurrent
	// callers share the in-flight attempt.
	EnsureLoaded(ctx context.Context) error
	// Loaded reports whether a load attempt has succeeded.
	Loaded() bool
	// StageInput copies data into the working namespace under name.
	StageInput(ctx context.Context, name string, data []byte) error
	// Execute runs plan, reading inputName and writing outputName, relaying
	// progress in the order the engine reports it.
	Execute(ctx context.Context, plan filterplan.Plan, inputName, outputName string, progress func(Progress)) error
	// ReadOutput returns the bytes written under name. An empty result is
	// not an error.
	ReadOutput(ctx context.Context, name string) ([]byte, error)
	// Remove deletes staged files; missing names are ignored.
	Remove(names ...string)
}
