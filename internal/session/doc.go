// Package session is the presentation bridge between a user interface and
// the job orchestrator.
//
// A front end dispatches intents (select a file, flip a toggle, pick a
// format, run, save, reset) and renders from Snapshot or from the state
// stream returned by Subscribe. Input validation errors are returned from
// SelectFile directly and never enter job state.
package session
