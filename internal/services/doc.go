// Package services defines shared utilities consumed by the job orchestrator
// and the engine integration.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, phase names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (validation, engine load, I/O, execution, empty output) so callers can
//     branch with errors.Is and surface the most specific message.
//
// Use these helpers when wiring new job phases so error handling and
// observability stay uniform.
package services
