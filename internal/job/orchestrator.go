package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"clarion/internal/engine"
	"clarion/internal/filterplan"
	"clarion/internal/input"
	"clarion/internal/logging"
	"clarion/internal/packager"
	"clarion/internal/services"
	"clarion/internal/telemetry"
)

// Request is one job submission.
type Request struct {
	Input   *input.Audio
	Options filterplan.Options
	// Format defaults to filterplan.DefaultFormat when empty.
	Format filterplan.Format
}

// ArtifactStore materializes and releases job outputs.
type ArtifactStore interface {
	Put(artifact packager.Artifact, data []byte) (packager.Artifact, error)
	Release(artifact *packager.Artifact) error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logging.NewComponentLogger(logger, "job")
	}
}

// WithEmitter sends job telemetry to emitter.
func WithEmitter(emitter *telemetry.Emitter) Option {
	return func(o *Orchestrator) {
		o.emitter = emitter
	}
}

// WithPolicy replaces the filter constants used to build plans.
func WithPolicy(policy filterplan.Policy) Option {
	return func(o *Orchestrator) {
		o.policy = policy
	}
}

// WithIDGenerator overrides job ID generation.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithClock overrides the time source used for output name tokens.
func WithClock(fn func() time.Time) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.now = fn
		}
	}
}

// Orchestrator runs jobs against an engine adapter, one at a time.
type Orchestrator struct {
	engine  engine.Adapter
	store   ArtifactStore
	emitter *telemetry.Emitter
	logger  *slog.Logger
	policy  filterplan.Policy
	newID   func() string
	now     func() time.Time

	mu      sync.Mutex
	state   State
	done    chan struct{}
	subs    map[int]chan State
	nextSub int
}

// New builds an idle orchestrator.
func New(adapter engine.Adapter, store ArtifactStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		engine: adapter,
		store:  store,
		logger: logging.NewComponentLogger(nil, "job"),
		policy: filterplan.DefaultPolicy(),
		newID:  uuid.NewString,
		now:    time.Now,
		state:  State{Status: StatusIdle},
		subs:   make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current snapshot.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Subscribe returns a channel of state snapshots, starting with the current
// one. When the subscriber falls behind, the oldest pending snapshot is
// replaced so the latest state always arrives. Call the returned func to
// unsubscribe.
func (o *Orchestrator) Subscribe(buffer int) (<-chan State, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan State, buffer)

	o.mu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = ch
	ch <- o.state
	o.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
			close(ch)
		})
	}
}

// Run executes req and blocks until the job reaches a terminal state. The
// returned error is non-nil only when the request was not accepted; job
// failures are reported through State.
func (o *Orchestrator) Run(ctx context.Context, req Request) error {
	t, err := o.begin(req)
	if err != nil {
		return err
	}
	o.execute(ctx, t, req)
	return nil
}

// Start accepts req and executes it in the background.
func (o *Orchestrator) Start(ctx context.Context, req Request) error {
	t, err := o.begin(req)
	if err != nil {
		return err
	}
	go o.execute(ctx, t, req)
	return nil
}

// Wait blocks until the live job, if any, finishes.
func (o *Orchestrator) Wait() {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Reset discards a finished job and its artifact and returns to idle. It is
// rejected while a job is live.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if isLive(o.state.Status) {
		return ErrJobAlreadyRunning
	}
	if o.state.Status == StatusIdle {
		return nil
	}
	o.releaseLocked()
	o.transitionLocked(State{Status: StatusIdle})
	return nil
}

// ticket identifies an accepted job.
type ticket struct {
	jobID  string
	format filterplan.Format
	done   chan struct{}
}

// begin applies the single-flight guard and moves to loading.
func (o *Orchestrator) begin(req Request) (ticket, error) {
	if req.Input == nil {
		return ticket{}, ErrNoInput
	}
	format := req.Format
	if format == "" {
		format = filterplan.DefaultFormat
	}
	if !format.Valid() {
		_, err := filterplan.ParseFormat(string(format))
		return ticket{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if isLive(o.state.Status) {
		return ticket{}, ErrJobAlreadyRunning
	}
	o.releaseLocked()

	t := ticket{jobID: o.newID(), format: format, done: make(chan struct{})}
	o.done = t.done
	o.transitionLocked(State{Status: StatusLoading, JobID: t.jobID})
	return t, nil
}

func (o *Orchestrator) execute(ctx context.Context, t ticket, req Request) {
	jobID, format := t.jobID, t.format
	ctx = services.WithJobID(ctx, jobID)
	logger := logging.WithContext(ctx, o.logger)
	defer close(t.done)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panicked", logging.Any("panic", r))
			o.fail(jobID, services.Wrap(services.ErrExecution, "job", "run", "", fmt.Errorf("internal error: %v", r)))
		}
	}()

	started := time.Now()
	logger.Info("job started",
		logging.String("input", req.Input.DisplayName),
		logging.Int64("input_bytes", req.Input.SizeBytes),
		logging.String("format", format.String()),
	)
	o.emitter.Emit(telemetry.Event{
		Name:         telemetry.EventProcessingStarted,
		JobID:        jobID,
		Format:       format.String(),
		OriginalSize: req.Input.SizeBytes,
	})

	artifact, metrics, err := o.process(ctx, logger, jobID, req, format)
	if err != nil {
		o.fail(jobID, err)
		info := o.State().Err
		logging.WarnWithContext(logger, "job failed", "job_failed",
			logging.String("error_kind", kindName(info)),
			logging.String("message", info.Message),
			logging.Error(err),
			logging.Duration("elapsed", time.Since(started)),
		)
		o.emitter.Emit(telemetry.Event{
			Name:         telemetry.EventProcessingFailed,
			JobID:        jobID,
			Format:       format.String(),
			OriginalSize: req.Input.SizeBytes,
			Message:      info.Message,
		})
		return
	}

	o.succeed(jobID, artifact, metrics)
	logger.Info("job succeeded",
		logging.String("artifact", artifact.Path),
		logging.Int64("output_bytes", artifact.SizeBytes),
		logging.Duration("elapsed", time.Since(started)),
	)
	o.emitter.Emit(telemetry.Event{
		Name:          telemetry.EventProcessingSucceeded,
		JobID:         jobID,
		Format:        format.String(),
		OriginalSize:  metrics.OriginalSizeBytes,
		ProcessedSize: metrics.ProcessedSizeBytes,
		Ratio:         metrics.CompressionRatioPercent,
	})
}

func (o *Orchestrator) process(ctx context.Context, logger *slog.Logger, jobID string, req Request, format filterplan.Format) (packager.Artifact, packager.Metrics, error) {
	if err := o.engine.EnsureLoaded(ctx); err != nil {
		return packager.Artifact{}, packager.Metrics{}, classify(err, services.ErrEngineLoad, "load engine")
	}
	o.setRunning(jobID)

	plan, err := o.policy.Build(req.Options, format)
	if err != nil {
		return packager.Artifact{}, packager.Metrics{}, err
	}
	logger.Debug("plan built",
		logging.String("filter_graph", plan.FilterGraph()),
		logging.Int("channels", plan.Channels),
		logging.String("codec", plan.Encoder.Codec),
	)

	data, err := req.Input.Bytes()
	if err != nil {
		return packager.Artifact{}, packager.Metrics{}, classify(err, services.ErrIO, "read input")
	}

	token := filterplan.NewToken(o.now())
	inputName := filterplan.InputName(req.Input.DisplayName, token)
	outputName := filterplan.OutputName(req.Input.DisplayName, format, token)
	defer o.engine.Remove(inputName, outputName)

	if err := o.engine.StageInput(services.WithStage(ctx, "stage"), inputName, data); err != nil {
		return packager.Artifact{}, packager.Metrics{}, classify(err, services.ErrIO, "stage input")
	}

	sampler := logging.NewProgressSampler(25)
	if err := o.engine.Execute(services.WithStage(ctx, "execute"), plan, inputName, outputName, func(p engine.Progress) {
		o.setProgress(jobID, p)
		if pct, ok := p.Percent(); ok && sampler.ShouldLog(pct, "encode") {
			logger.Info("job progress", logging.Float64("percent", pct))
		}
	}); err != nil {
		return packager.Artifact{}, packager.Metrics{}, classify(err, services.ErrExecution, "execute")
	}

	output, err := o.engine.ReadOutput(ctx, outputName)
	if err != nil {
		return packager.Artifact{}, packager.Metrics{}, classify(err, services.ErrIO, "read output")
	}
	if len(output) == 0 {
		return packager.Artifact{}, packager.Metrics{}, services.Wrap(services.ErrEmptyOutput, "job", "read output", "", nil)
	}

	artifact, metrics := packager.Package(req.Input.SizeBytes, output, format, outputName)
	artifact.JobID = jobID
	stored, err := o.store.Put(artifact, output)
	if err != nil {
		return packager.Artifact{}, packager.Metrics{}, classify(err, services.ErrIO, "store artifact")
	}
	return stored, metrics, nil
}

func (o *Orchestrator) setRunning(jobID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.JobID != jobID {
		return
	}
	o.transitionLocked(State{Status: StatusRunning, JobID: jobID})
}

// setProgress relays the latest engine progress. Updates that arrive outside
// the running state are ignored.
func (o *Orchestrator) setProgress(jobID string, p engine.Progress) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.JobID != jobID || o.state.Status != StatusRunning {
		return
	}
	next := State{Status: StatusRunning, JobID: jobID}
	if pct, ok := p.Percent(); ok {
		next.Progress = &pct
	}
	if samePercent(o.state.Progress, next.Progress) {
		return
	}
	o.transitionLocked(next)
}

func (o *Orchestrator) succeed(jobID string, artifact packager.Artifact, metrics packager.Metrics) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.JobID != jobID {
		return
	}
	o.transitionLocked(State{
		Status:   StatusSucceeded,
		JobID:    jobID,
		Artifact: &artifact,
		Metrics:  &metrics,
	})
}

func (o *Orchestrator) fail(jobID string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.JobID != jobID || !isLive(o.state.Status) {
		return
	}
	o.transitionLocked(State{
		Status: StatusFailed,
		JobID:  jobID,
		Err:    errorInfo(err),
	})
}

// transitionLocked applies next when the state machine allows it and
// publishes the result. Callers hold o.mu.
func (o *Orchestrator) transitionLocked(next State) {
	if !isValidTransition(o.state.Status, next.Status) {
		o.logger.Error("invalid job transition",
			logging.String("from", string(o.state.Status)),
			logging.String("to", string(next.Status)),
			logging.String(logging.FieldJobID, next.JobID),
		)
		return
	}
	next.Seq = o.state.Seq + 1
	o.state = next
	for _, ch := range o.subs {
		deliverLatest(ch, next)
	}
}

// releaseLocked frees the artifact of the previous job. Callers hold o.mu.
func (o *Orchestrator) releaseLocked() {
	if o.state.Artifact == nil || o.store == nil {
		return
	}
	if err := o.store.Release(o.state.Artifact); err != nil {
		o.logger.Warn("failed to release artifact",
			logging.String("path", o.state.Artifact.Path),
			logging.Error(err),
		)
	}
}

func deliverLatest(ch chan State, s State) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// classify tags err with marker unless it already carries a services marker.
func classify(err error, marker error, op string) error {
	if services.Classify(err) != nil {
		return err
	}
	return services.Wrap(marker, "job", op, "", err)
}

// errorInfo applies the message policy: the failure's own text when present,
// otherwise a fallback chosen by kind.
func errorInfo(err error) *ErrorInfo {
	kind := services.Classify(err)
	if kind == nil {
		kind = services.ErrExecution
	}
	message := services.Message(err)
	if errors.Is(err, context.Canceled) {
		message = "Processing was cancelled."
	}
	if message == "" {
		if errors.Is(kind, services.ErrEmptyOutput) {
			message = MessageEmptyOutput
		} else {
			message = MessageGeneric
		}
	}
	return &ErrorInfo{Kind: kind, Message: message}
}

func kindName(info *ErrorInfo) string {
	if info == nil || info.Kind == nil {
		return ""
	}
	return info.Kind.Error()
}

func samePercent(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
