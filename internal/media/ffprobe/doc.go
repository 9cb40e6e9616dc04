// Package ffprobe provides a typed wrapper around ffprobe JSON output for
// audio inputs.
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Helper methods on Result provide the primary audio stream, the duration used
// to turn engine timestamps into progress ratios, and the reported size.
package ffprobe
