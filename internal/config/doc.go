// Package config loads, normalizes, and validates Clarion configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, imports an optional env file, and honours
// CLARION_* environment overrides. The Config type centralizes every knob the
// CLI and the job orchestrator need: the engine workspace, ffmpeg binaries,
// filter constants behind each enhancement toggle, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
