// Package main hosts the Clarion CLI entrypoint and command graph.
//
// The Cobra-based command tree wires configuration, logging, the ffmpeg
// engine, the artifact store and telemetry into a session, then drives it:
// enhance runs one job with a live progress display, plan previews the
// filter graph without touching the engine, history lists past events,
// and doctor checks the external binaries.
//
// Keep this package lean: behaviour belongs in the internal packages and is
// only surfaced here through commands and flags.
package main
