// Package job drives one audio enhancement job at a time.
//
// The Orchestrator owns the job state machine:
//
//	idle -> loading -> running -> succeeded | failed
//	succeeded | failed -> loading (new run) | idle (reset)
//
// Every transition is checked against an explicit table. A run requested
// while another job is loading or running is rejected with
// ErrJobAlreadyRunning rather than queued. All engine failures are caught and
// turned into a failed state carrying a user-facing message; nothing escapes
// to the caller except the guard errors. Subscribers receive ordered State
// snapshots; a slow subscriber sees the latest state, never a stale one.
package job
