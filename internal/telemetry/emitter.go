package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"clarion/internal/logging"
)

const defaultBuffer = 32

// Sink receives delivered events.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// Emitter fans events out to sinks from one background goroutine.
type Emitter struct {
	events  chan Event
	sinks   []Sink
	logger  *slog.Logger
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewEmitter starts an emitter with a buffer of the given size.
func NewEmitter(buffer int, logger *slog.Logger, sinks ...Sink) *Emitter {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	e := &Emitter{
		events: make(chan Event, buffer),
		sinks:  sinks,
		logger: logging.NewComponentLogger(logger, "telemetry"),
		done:   make(chan struct{}),
	}
	go e.loop()
	return e
}

// Emit queues event for delivery. It reports false when the event was
// dropped. A nil emitter accepts and discards everything.
func (e *Emitter) Emit(event Event) bool {
	if e == nil {
		return false
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		e.dropped.Add(1)
		return false
	}
	select {
	case e.events <- event:
		return true
	default:
		e.dropped.Add(1)
		return false
	}
}

// Dropped reports how many events were discarded.
func (e *Emitter) Dropped() int64 {
	if e == nil {
		return 0
	}
	return e.dropped.Load()
}

// Close stops accepting events and waits for queued ones to reach the sinks.
func (e *Emitter) Close() {
	if e == nil {
		return
	}
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.events)
	}
	e.mu.Unlock()
	<-e.done
	if n := e.dropped.Load(); n > 0 {
		e.logger.Debug("telemetry events dropped", logging.Int64("dropped", n))
	}
}

func (e *Emitter) loop() {
	defer close(e.done)
	for event := range e.events {
		for _, sink := range e.sinks {
			if sink == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := sink.Record(ctx, event); err != nil {
				e.logger.Warn("telemetry sink failed",
					logging.String(logging.FieldEventType, event.Name),
					logging.Error(err),
				)
			}
			cancel()
		}
	}
}

// LogSink writes events to a logger.
type LogSink struct {
	Logger *slog.Logger
}

// Record implements Sink.
func (s LogSink) Record(_ context.Context, event Event) error {
	logger := s.Logger
	if logger == nil {
		return nil
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, event.Name),
		logging.String("format", event.Format),
	}
	if event.JobID != "" {
		attrs = append(attrs, logging.String(logging.FieldJobID, event.JobID))
	}
	if event.OriginalSize > 0 {
		attrs = append(attrs, logging.Int64("original_bytes", event.OriginalSize))
	}
	if event.ProcessedSize > 0 {
		attrs = append(attrs, logging.Int64("processed_bytes", event.ProcessedSize))
	}
	if event.Ratio != nil {
		attrs = append(attrs, logging.Float64("compression_ratio_percent", *event.Ratio))
	}
	if event.Message != "" {
		attrs = append(attrs, logging.String("message", event.Message))
	}
	logger.Info("telemetry event", logging.Args(attrs...)...)
	return nil
}
