// Package telemetry delivers fire-and-forget usage events.
//
// Events travel through a bounded Emitter that never blocks its caller and
// drops events when the buffer is full. Sinks receive events on a single
// background goroutine: LogSink writes them to slog and Store keeps a local
// SQLite history that backs `clarion history`. A sink failure is logged and
// never reaches the job that produced the event.
package telemetry
