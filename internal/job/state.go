package job

import (
	"errors"

	"clarion/internal/packager"
)

// Status is the phase of the live job.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Guard errors returned by Run, Start and Reset.
var (
	ErrNoInput           = errors.New("no input selected")
	ErrJobAlreadyRunning = errors.New("job already running")
)

// Fallback messages used when a failure carries no text of its own.
const (
	MessageGeneric     = "Audio processing failed. Please try again."
	MessageEmptyOutput = "Processing produced an empty file. Try a different format or options."
)

// ErrorInfo describes a failed job. Kind is one of the services markers.
type ErrorInfo struct {
	Kind    error
	Message string
}

// State is a snapshot of the orchestrator. Progress is a percentage in
// [0,100]; nil means indeterminate while running and cleared otherwise.
// Artifact and Metrics are set only in the succeeded state, Err only in the
// failed state.
type State struct {
	Seq      int64
	Status   Status
	JobID    string
	Progress *float64
	Artifact *packager.Artifact
	Metrics  *packager.Metrics
	Err      *ErrorInfo
}

// Live reports whether a job is loading or running.
func (s State) Live() bool {
	return isLive(s.Status)
}

// Terminal reports whether the job has finished.
func (s State) Terminal() bool {
	return s.Status == StatusSucceeded || s.Status == StatusFailed
}

func isLive(status Status) bool {
	return status == StatusLoading || status == StatusRunning
}

// isValidTransition enforces the allowed job state machine edges.
func isValidTransition(from, to Status) bool {
	switch from {
	case StatusIdle:
		return to == StatusLoading
	case StatusLoading:
		return to == StatusRunning || to == StatusFailed
	case StatusRunning:
		return to == StatusRunning || to == StatusSucceeded || to == StatusFailed
	case StatusSucceeded, StatusFailed:
		return to == StatusLoading || to == StatusIdle
	default:
		return false
	}
}
