// Package notifications posts finished-job telemetry to an ntfy topic.
//
// The Notifier implements telemetry.Sink, so it rides the same fire-and-forget
// emitter as the log and history sinks. Only job outcomes are published; the
// payload is a short text line and never includes audio.
package notifications
