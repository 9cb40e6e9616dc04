// Package input validates the user supplied audio file before any job starts.
//
// The declared content type comes from the caller (or the file extension) and
// the sniffed type from the file header via gabriel-vasile/mimetype. Only
// audio/* resources are accepted; rejections carry services.ErrValidation and
// are reported at selection time, never through job state.
package input
