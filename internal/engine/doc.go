// Package engine isolates the job orchestrator from the media engine's API
// shape.
//
// Adapter is the narrow contract the orchestrator drives: load once, stage
// input bytes into a private working namespace, execute a filter plan with
// progress notifications, and read the produced bytes back. FFmpeg implements
// it by running the ffmpeg binary as a subprocess against a locked workspace
// directory; tests substitute their own Adapter.
//
// The adapter owns no business logic. Zero output bytes are returned as-is;
// deciding that an empty result is a failure belongs to the orchestrator.
package engine
