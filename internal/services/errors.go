package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrEngineLoad    = errors.New("engine load error")
	ErrIO            = errors.New("io error")
	ErrExecution     = errors.New("execution error")
	ErrEmptyOutput   = errors.New("empty output")
	ErrConfiguration = errors.New("configuration error")
	ErrExternalTool  = errors.New("external tool error")
)

// Error carries a classification marker together with the stage context in
// which a failure happened. The marker should be one of the exported sentinel
// errors above.
type Error struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Err       error
}

func (e *Error) Error() string {
	detail := buildDetail(e.Stage, e.Operation, e.Message)
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Marker, detail, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Marker, detail)
}

// Unwrap exposes both the marker and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Err}
}

// Wrap builds an error that includes stage context while tagging it with the
// provided marker for later classification.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrExternalTool
	}
	return &Error{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
	}
}

// Classify returns the sentinel marker carried by err, or nil when err was not
// produced by Wrap.
func Classify(err error) error {
	var wrapped *Error
	if errors.As(err, &wrapped) {
		return wrapped.Marker
	}
	for _, marker := range []error{ErrValidation, ErrEngineLoad, ErrIO, ErrExecution, ErrEmptyOutput, ErrConfiguration, ErrExternalTool} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

// Message extracts the most specific human-readable text available for err:
// the underlying cause when it has text, then the wrapper's message. It
// returns an empty string when nothing usable exists.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var wrapped *Error
	if errors.As(err, &wrapped) {
		if wrapped.Err != nil {
			if msg := Message(wrapped.Err); msg != "" {
				return msg
			}
		}
		return wrapped.Message
	}
	return strings.TrimSpace(err.Error())
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
