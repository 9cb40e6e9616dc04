package services_test

import (
	"errors"
	"strings"
	"testing"

	"clarion/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExecution, "job", "execute", "ffmpeg failed", base)
	if !errors.Is(err, services.ErrExecution) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"job", "execute", "ffmpeg failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"wrapped", services.Wrap(services.ErrIO, "job", "stage input", "", nil), services.ErrIO},
		{"nested", errorsJoin(services.Wrap(services.ErrEngineLoad, "engine", "load", "", nil)), services.ErrEngineLoad},
		{"plain marker", services.ErrEmptyOutput, services.ErrEmptyOutput},
		{"unknown", errors.New("other"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.Classify(tt.err); got != tt.want {
				t.Fatalf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessagePrefersCause(t *testing.T) {
	err := services.Wrap(services.ErrExecution, "job", "execute", "ffmpeg failed", errors.New("Invalid argument"))
	if got := services.Message(err); got != "Invalid argument" {
		t.Fatalf("Message = %q", got)
	}

	err = services.Wrap(services.ErrEmptyOutput, "job", "read output", "no bytes produced", nil)
	if got := services.Message(err); got != "no bytes produced" {
		t.Fatalf("Message = %q", got)
	}

	err = services.Wrap(services.ErrEngineLoad, "engine", "load", "", errors.New("   "))
	if got := services.Message(err); got != "" {
		t.Fatalf("expected empty message, got %q", got)
	}
	if got := services.Message(nil); got != "" {
		t.Fatalf("expected empty message for nil, got %q", got)
	}
}

func errorsJoin(err error) error {
	return errors.Join(errors.New("context"), err)
}
