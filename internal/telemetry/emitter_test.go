package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	block  chan struct{}
	err    error
}

func (s *recordingSink) Record(_ context.Context, event Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Name)
	}
	return out
}

func TestEmitterDeliversInOrder(t *testing.T) {
	sink := &recordingSink{}
	emitter := NewEmitter(8, nil, sink)
	emitter.Emit(Event{Name: EventProcessingStarted})
	emitter.Emit(Event{Name: EventProcessingSucceeded})
	emitter.Close()

	got := strings.Join(sink.names(), ",")
	if got != "processing_started,processing_succeeded" {
		t.Fatalf("unexpected delivery order %q", got)
	}
	if sink.events[0].At.IsZero() {
		t.Fatal("expected timestamp to be filled")
	}
}

func TestEmitterDropsWhenFull(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	emitter := NewEmitter(1, nil, sink)

	accepted := 0
	for i := 0; i < 10; i++ {
		if emitter.Emit(Event{Name: EventProcessingStarted}) {
			accepted++
		}
	}
	if accepted == 10 || emitter.Dropped() == 0 {
		t.Fatalf("expected drops, accepted=%d dropped=%d", accepted, emitter.Dropped())
	}
	close(sink.block)
	emitter.Close()
	if emitter.Emit(Event{Name: EventDownloadCompleted}) {
		t.Fatal("emit after close must be dropped")
	}
}

func TestEmitterSinkErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	emitter := NewEmitter(4, logger, &recordingSink{err: errors.New("disk full")})
	emitter.Emit(Event{Name: EventDownloadCompleted})
	emitter.Close()
	if !strings.Contains(buf.String(), "telemetry sink failed") {
		t.Fatalf("expected sink failure log, got %q", buf.String())
	}
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *Emitter
	if emitter.Emit(Event{Name: EventProcessingStarted}) {
		t.Fatal("nil emitter should not accept events")
	}
	emitter.Close()
}

func TestLogSinkWritesFields(t *testing.T) {
	var buf bytes.Buffer
	ratio := 60.0
	sink := LogSink{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}
	if err := sink.Record(context.Background(), Event{Name: EventDownloadCompleted, Format: "ogg", OriginalSize: 10, ProcessedSize: 4, Ratio: &ratio}); err != nil {
		t.Fatalf("record: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"event_type":"download_completed"`, `"compression_ratio_percent":60`, `"format":"ogg"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in %s", want, out)
		}
	}
}
