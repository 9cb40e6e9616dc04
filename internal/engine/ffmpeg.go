package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"clarion/internal/config"
	"clarion/internal/filterplan"
	"clarion/internal/logging"
	"clarion/internal/media/audio"
	"clarion/internal/media/ffprobe"
	"clarion/internal/services"
	"clarion/internal/staging"
)

var (
	commandContext = exec.CommandContext
	lookPath       = exec.LookPath
)

// SetCommandContextForTests swaps the process launcher and returns a restore func.
func SetCommandContextForTests(fn func(ctx context.Context, name string, args ...string) *exec.Cmd) func() {
	prev := commandContext
	commandContext = fn
	return func() { commandContext = prev }
}

// SetLookPathForTests swaps binary resolution and returns a restore func.
func SetLookPathForTests(fn func(string) (string, error)) func() {
	prev := lookPath
	lookPath = fn
	return func() { lookPath = prev }
}

const lockFileName = ".clarion.lock"

// DurationProbe reports the playback duration of a staged input. ok is false
// when the duration cannot be determined.
type DurationProbe func(ctx context.Context, path string) (time.Duration, bool)

// Option configures the FFmpeg adapter.
type Option func(*FFmpeg)

// WithBinaries overrides the ffmpeg and ffprobe executables.
func WithBinaries(ffmpegBinary, ffprobeBinary string) Option {
	return func(e *FFmpeg) {
		if strings.TrimSpace(ffmpegBinary) != "" {
			e.ffmpegBinary = strings.TrimSpace(ffmpegBinary)
		}
		if strings.TrimSpace(ffprobeBinary) != "" {
			e.ffprobeBinary = strings.TrimSpace(ffprobeBinary)
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *FFmpeg) {
		e.logger = logging.NewComponentLogger(logger, "engine")
	}
}

// WithMinFreeBytes refuses staging when the workspace would drop below n free bytes.
func WithMinFreeBytes(n int64) Option {
	return func(e *FFmpeg) {
		if n >= 0 {
			e.minFreeBytes = n
		}
	}
}

// WithLoadTimeout bounds the engine load attempt.
func WithLoadTimeout(d time.Duration) Option {
	return func(e *FFmpeg) {
		if d > 0 {
			e.loadTimeout = d
		}
	}
}

// WithStderrTail sets how many trailing stderr lines are kept for error messages.
func WithStderrTail(lines int) Option {
	return func(e *FFmpeg) {
		if lines > 0 {
			e.stderrTail = lines
		}
	}
}

// WithDurationProbe replaces the duration lookup used for progress ratios.
func WithDurationProbe(probe DurationProbe) Option {
	return func(e *FFmpeg) {
		if probe != nil {
			e.probe = probe
		}
	}
}

type loadCall struct {
	done chan struct{}
	err  error
}

// FFmpeg drives the ffmpeg binary against a private, locked workspace directory.
type FFmpeg struct {
	ffmpegBinary  string
	ffprobeBinary string
	workDir       string
	minFreeBytes  int64
	loadTimeout   time.Duration
	stderrTail    int
	probe         DurationProbe
	logger        *slog.Logger

	mu       sync.Mutex
	loaded   bool
	inflight *loadCall
	lock     *flock.Flock
	resolved string
	version  string
	attempts atomic.Int64
}

// NewFFmpeg constructs an adapter rooted at workDir. Nothing is touched until
// EnsureLoaded runs.
func NewFFmpeg(workDir string, opts ...Option) *FFmpeg {
	e := &FFmpeg{
		ffmpegBinary:  "ffmpeg",
		ffprobeBinary: "ffprobe",
		workDir:       workDir,
		loadTimeout:   30 * time.Second,
		stderrTail:    20,
		logger:        logging.NewComponentLogger(nil, "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.probe == nil {
		e.probe = e.defaultProbe
	}
	return e
}

// NewFromConfig builds the adapter from the [engine] and [paths] sections.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *FFmpeg {
	return NewFFmpeg(cfg.Paths.WorkDir,
		WithBinaries(cfg.FFmpegBinary(), cfg.FFprobeBinary()),
		WithLogger(logger),
		WithMinFreeBytes(int64(cfg.Engine.MinFreeMiB)*1024*1024),
		WithLoadTimeout(time.Duration(cfg.Engine.LoadTimeoutSeconds)*time.Second),
		WithStderrTail(cfg.Engine.StderrTailLines),
	)
}

var _ Adapter = (*FFmpeg)(nil)

// WorkDir returns the engine's working namespace.
func (e *FFmpeg) WorkDir() string {
	return e.workDir
}

// Version returns the first line of `ffmpeg -version` once loaded.
func (e *FFmpeg) Version() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

// LoadAttempts reports how many load attempts actually ran.
func (e *FFmpeg) LoadAttempts() int64 {
	return e.attempts.Load()
}

// Loaded reports whether the engine is ready.
func (e *FFmpeg) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

// EnsureLoaded resolves and verifies the ffmpeg binary and takes the workspace
// lock. Success is cached for the adapter's lifetime; a failed attempt is not,
// so a later call retries.
func (e *FFmpeg) EnsureLoaded(ctx context.Context) error {
	e.mu.Lock()
	if e.loaded {
		e.mu.Unlock()
		return nil
	}
	call := e.inflight
	if call == nil {
		call = &loadCall{done: make(chan struct{})}
		e.inflight = call
		// The attempt is shared, so no single caller's cancellation ends it.
		go e.runLoad(context.WithoutCancel(ctx), call)
	}
	e.mu.Unlock()

	select {
	case <-call.done:
		return call.err
	case <-ctx.Done():
		return services.Wrap(services.ErrEngineLoad, "engine", "load", "waiting for engine load was cancelled", ctx.Err())
	}
}

func (e *FFmpeg) runLoad(ctx context.Context, call *loadCall) {
	call.err = e.load(ctx)

	e.mu.Lock()
	e.inflight = nil
	if call.err == nil {
		e.loaded = true
	}
	e.mu.Unlock()
	close(call.done)
}

func (e *FFmpeg) load(ctx context.Context) error {
	e.attempts.Add(1)
	started := time.Now()

	loadCtx, cancel := context.WithTimeout(ctx, e.loadTimeout)
	defer cancel()

	resolved, err := lookPath(e.ffmpegBinary)
	if err != nil {
		return services.Wrap(services.ErrEngineLoad, "engine", "resolve ffmpeg", fmt.Sprintf("ffmpeg binary %q not found; install ffmpeg or set engine.ffmpeg_binary", e.ffmpegBinary), err)
	}

	output, err := commandContext(loadCtx, resolved, "-hide_banner", "-version").Output()
	if err != nil {
		return services.Wrap(services.ErrEngineLoad, "engine", "verify ffmpeg", "ffmpeg did not start", err)
	}
	version := firstLine(string(output))

	if err := os.MkdirAll(e.workDir, 0o755); err != nil {
		return services.Wrap(services.ErrEngineLoad, "engine", "create workspace", "", err)
	}
	lock := flock.New(filepath.Join(e.workDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrEngineLoad, "engine", "lock workspace", "", err)
	}
	if !locked {
		return services.Wrap(services.ErrEngineLoad, "engine", "lock workspace", fmt.Sprintf("workspace %s is in use by another clarion process", e.workDir), nil)
	}

	// Holding the lock means no other process owns staged files left here.
	swept := staging.CleanStale(loadCtx, e.workDir, 0, e.logger, filterplan.IsStagedName)

	e.mu.Lock()
	e.lock = lock
	e.resolved = resolved
	e.version = version
	e.mu.Unlock()

	e.logger.Info("engine loaded",
		logging.String("ffmpeg", resolved),
		logging.String("version", version),
		logging.String("work_dir", e.workDir),
		logging.Int("stale_removed", len(swept.Removed)),
		logging.Duration("load_duration", time.Since(started)),
	)
	return nil
}

// Close releases the workspace lock. The adapter must be loaded again before use.
func (e *FFmpeg) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded = false
	if e.lock == nil {
		return nil
	}
	err := e.lock.Unlock()
	e.lock = nil
	return err
}

// StageInput writes data into the workspace under name.
func (e *FFmpeg) StageInput(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrIO, "engine", "stage input", "", err)
	}
	if !e.Loaded() {
		return services.Wrap(services.ErrIO, "engine", "stage input", "engine is not loaded", nil)
	}
	path, err := e.pathFor(name)
	if err != nil {
		return err
	}
	if free, ok := freeBytes(e.workDir); ok && e.minFreeBytes > 0 {
		if free < uint64(len(data)) || free-uint64(len(data)) < uint64(e.minFreeBytes) {
			return services.Wrap(services.ErrIO, "engine", "stage input",
				fmt.Sprintf("not enough free space in %s (%d bytes free, %d needed)", e.workDir, free, int64(len(data))+e.minFreeBytes), nil)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrIO, "engine", "stage input", "", err)
	}
	e.logger.Debug("input staged", logging.String("name", name), logging.Int("bytes", len(data)))
	return nil
}

// Execute runs ffmpeg for plan. Progress is indeterminate until the first
// timestamp arrives, and stays indeterminate when the input duration is unknown.
func (e *FFmpeg) Execute(ctx context.Context, plan filterplan.Plan, inputName, outputName string, progress func(Progress)) error {
	if !e.Loaded() {
		return services.Wrap(services.ErrExecution, "engine", "execute", "engine is not loaded", nil)
	}
	inputPath, err := e.pathFor(inputName)
	if err != nil {
		return err
	}
	outputPath, err := e.pathFor(outputName)
	if err != nil {
		return err
	}

	duration, _ := e.probe(ctx, inputPath)
	reader := newProgressReader(duration, progress)
	reader.send(Indeterminate())

	e.mu.Lock()
	binary := e.resolved
	e.mu.Unlock()
	if binary == "" {
		binary = e.ffmpegBinary
	}

	args := BuildArgs(plan, inputPath, outputPath)
	logger := logging.WithContext(ctx, e.logger)
	logger.Info("launching ffmpeg",
		logging.String("command", binary+" "+strings.Join(args, " ")),
		logging.Duration("input_duration", duration),
	)

	cmd := commandContext(ctx, binary, args...)
	stderr := newTailBuffer(e.stderrTail)
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return services.Wrap(services.ErrExecution, "engine", "execute", "stdout pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrExecution, "engine", "execute", "ffmpeg did not start", err)
	}

	readErr := reader.consume(stdout)
	waitErr := cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return services.Wrap(services.ErrExecution, "engine", "execute", "processing was cancelled", ctxErr)
	}
	if waitErr != nil {
		return services.Wrap(services.ErrExecution, "engine", "execute", "ffmpeg exited with an error", execFailure(waitErr, stderr.String()))
	}
	if readErr != nil {
		logger.Warn("progress stream ended early", logging.Error(readErr))
	}
	return nil
}

// ReadOutput returns the bytes ffmpeg wrote under name.
func (e *FFmpeg) ReadOutput(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrIO, "engine", "read output", "", err)
	}
	path, err := e.pathFor(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrIO, "engine", "read output", fmt.Sprintf("engine did not write %s", name), err)
		}
		return nil, services.Wrap(services.ErrIO, "engine", "read output", "", err)
	}
	return data, nil
}

// Remove deletes staged files from the workspace.
func (e *FFmpeg) Remove(names ...string) {
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		path, err := e.pathFor(name)
		if err != nil {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			e.logger.Warn("failed to remove staged file", logging.String("name", name), logging.Error(err))
		}
	}
}

// pathFor maps a namespace entry to its workspace path. Names are flat; any
// separator or dot-segment is rejected.
func (e *FFmpeg) pathFor(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed == "." || trimmed == ".." || trimmed == lockFileName || filepath.Base(trimmed) != trimmed || strings.ContainsAny(trimmed, `/\`) {
		return "", services.Wrap(services.ErrIO, "engine", "resolve name", fmt.Sprintf("invalid workspace name %q", name), nil)
	}
	return filepath.Join(e.workDir, trimmed), nil
}

func (e *FFmpeg) defaultProbe(ctx context.Context, path string) (time.Duration, bool) {
	if result, err := ffprobe.Inspect(ctx, e.ffprobeBinary, path); err == nil {
		if d := result.Duration(); d > 0 {
			return d, true
		}
	} else {
		e.logger.Debug("ffprobe unavailable; using header probe", logging.Error(err))
	}
	if info, err := audio.Describe(path); err == nil && info.Duration > 0 {
		return info.Duration, true
	}
	return 0, false
}

// execFailure turns a process failure into an error whose text is the most
// useful stderr line, falling back to the exit status.
func execFailure(waitErr error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return waitErr
	}
	lines := strings.Split(stderr, "\n")
	return errors.New(strings.TrimSpace(lines[len(lines)-1]))
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
