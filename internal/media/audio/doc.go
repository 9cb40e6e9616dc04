// Package audio reads container headers of common audio formats in pure Go.
//
// Describe reports sample rate, channel count, and duration for WAV, MP3, and
// Ogg Vorbis files without spawning the engine. The orchestrator falls back to
// it when ffprobe cannot report a duration, so progress stays determinate for
// the formats users supply most.
package audio
