// Package packager turns engine output into a downloadable artifact.
//
// Package and CompressionRatio are pure. Store owns the artifact files under
// the output directory: Put materializes one, Release deletes it when a new
// job supersedes it or the session resets, and Save copies it to a user
// chosen location and reports a download_completed telemetry event.
package packager
