package telemetry

import "time"

// Event names.
const (
	EventProcessingStarted   = "processing_started"
	EventProcessingSucceeded = "processing_succeeded"
	EventProcessingFailed    = "processing_failed"
	EventDownloadCompleted   = "download_completed"
)

// Event is one usage notification. Size fields are zero when unknown and
// Ratio is nil when the compression ratio is undefined.
type Event struct {
	Name          string
	JobID         string
	Format        string
	OriginalSize  int64
	ProcessedSize int64
	Ratio         *float64
	Message       string
	At            time.Time
}
