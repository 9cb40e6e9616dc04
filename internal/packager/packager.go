package packager

import (
	"math"

	"clarion/internal/filterplan"
)

// Artifact is the output of a successful job. Path is empty until a Store
// materializes it.
type Artifact struct {
	JobID             string
	Path              string
	SuggestedFilename string
	MIMEType          string
	Format            filterplan.Format
	SizeBytes         int64
}

// Metrics compares input and output sizes. CompressionRatioPercent is nil
// when the original size is zero.
type Metrics struct {
	OriginalSizeBytes       int64
	ProcessedSizeBytes      int64
	CompressionRatioPercent *float64
}

// CompressionRatio returns (original-processed)/original*100 rounded to one
// decimal. ok is false when original is not positive. Outputs larger than the
// input produce a negative ratio.
func CompressionRatio(original, processed int64) (float64, bool) {
	if original <= 0 {
		return 0, false
	}
	ratio := float64(original-processed) / float64(original) * 100
	return math.Round(ratio*10) / 10, true
}

// NewMetrics derives size metrics from two byte counts.
func NewMetrics(original, processed int64) Metrics {
	m := Metrics{OriginalSizeBytes: original, ProcessedSizeBytes: processed}
	if ratio, ok := CompressionRatio(original, processed); ok {
		m.CompressionRatioPercent = &ratio
	}
	return m
}

// Package describes processed bytes as an artifact of format.
func Package(originalSize int64, processed []byte, format filterplan.Format, suggestedName string) (Artifact, Metrics) {
	size := int64(len(processed))
	artifact := Artifact{
		SuggestedFilename: suggestedName,
		MIMEType:          format.MIMEType(),
		Format:            format,
		SizeBytes:         size,
	}
	return artifact, NewMetrics(originalSize, size)
}
