package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"clarion/internal/filterplan"
	"clarion/internal/input"
	"clarion/internal/job"
	"clarion/internal/packager"
	"clarion/internal/services"
)

// Toggle names accepted by Toggle.
const (
	ToggleNormalize = "normalize"
	ToggleDenoise   = "denoise"
	ToggleDeharsh   = "deharsh"
	ToggleMono      = "mono"
)

var toggleAliases = map[string]string{
	"normalize":                ToggleNormalize,
	"normalize_volume":         ToggleNormalize,
	"denoise":                  ToggleDenoise,
	"reduce_noise":             ToggleDenoise,
	"deharsh":                  ToggleDeharsh,
	"reduce_harsh_frequencies": ToggleDeharsh,
	"mono":                     ToggleMono,
	"convert_to_mono":          ToggleMono,
}

// Toggles lists the canonical toggle names.
func Toggles() []string {
	return []string{ToggleNormalize, ToggleDenoise, ToggleDeharsh, ToggleMono}
}

// View is everything a front end renders.
type View struct {
	Input   *input.Audio
	Options filterplan.Options
	Format  filterplan.Format
	Job     job.State
	Metrics *packager.Metrics
}

// Session holds the single input, options and format of one user session.
type Session struct {
	orch   *job.Orchestrator
	store  *packager.Store
	policy filterplan.Policy

	mu      sync.Mutex
	input   *input.Audio
	options filterplan.Options
	format  filterplan.Format
}

// New returns a session using orch for jobs and store for saving artifacts.
func New(orch *job.Orchestrator, store *packager.Store, policy filterplan.Policy, format filterplan.Format) *Session {
	if !format.Valid() {
		format = filterplan.DefaultFormat
	}
	return &Session{orch: orch, store: store, policy: policy, format: format}
}

// SelectFile validates path and makes it the session input. On error the
// previous input is kept.
func (s *Session) SelectFile(path string) error {
	audio, err := input.Open(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.input = audio
	s.mu.Unlock()
	return nil
}

// SelectBytes validates an in-memory resource and makes it the session input.
func (s *Session) SelectBytes(name, contentType string, data []byte) error {
	audio, err := input.FromBytes(name, contentType, data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.input = audio
	s.mu.Unlock()
	return nil
}

// SetOptions replaces every toggle at once.
func (s *Session) SetOptions(opts filterplan.Options) {
	s.mu.Lock()
	s.options = opts
	s.mu.Unlock()
}

// Toggle sets one enhancement toggle by name.
func (s *Session) Toggle(name string, on bool) error {
	canonical, ok := toggleAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		names := make([]string, 0, len(toggleAliases))
		for alias := range toggleAliases {
			names = append(names, alias)
		}
		sort.Strings(names)
		return services.Wrap(services.ErrValidation, "session", "toggle",
			fmt.Sprintf("unknown option %q (expected one of %s)", name, strings.Join(names, ", ")), nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch canonical {
	case ToggleNormalize:
		s.options.NormalizeVolume = on
	case ToggleDenoise:
		s.options.ReduceNoise = on
	case ToggleDeharsh:
		s.options.ReduceHarshFrequencies = on
	case ToggleMono:
		s.options.ConvertToMono = on
	}
	return nil
}

// SetFormat selects the output format.
func (s *Session) SetFormat(value string) error {
	format, err := filterplan.ParseFormat(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.format = format
	s.mu.Unlock()
	return nil
}

// Plan previews the plan the next run would execute.
func (s *Session) Plan() (filterplan.Plan, error) {
	s.mu.Lock()
	opts, format := s.options, s.format
	s.mu.Unlock()
	return s.policy.Build(opts, format)
}

// Run executes a job for the current input and blocks until it finishes.
func (s *Session) Run(ctx context.Context) error {
	return s.orch.Run(ctx, s.request())
}

// Start executes a job in the background.
func (s *Session) Start(ctx context.Context) error {
	return s.orch.Start(ctx, s.request())
}

// Wait blocks until the live job finishes.
func (s *Session) Wait() {
	s.orch.Wait()
}

// Subscribe streams job state snapshots.
func (s *Session) Subscribe(buffer int) (<-chan job.State, func()) {
	return s.orch.Subscribe(buffer)
}

// Save copies the current artifact to dest and returns the written path.
func (s *Session) Save(dest string) (string, error) {
	state := s.orch.State()
	if state.Status != job.StatusSucceeded || state.Artifact == nil {
		return "", services.Wrap(services.ErrValidation, "session", "save", "there is no processed file to save", nil)
	}
	metrics := packager.Metrics{}
	if state.Metrics != nil {
		metrics = *state.Metrics
	}
	return s.store.Save(*state.Artifact, metrics, dest)
}

// Reset clears the input and any finished job. It is rejected while a job is
// live.
func (s *Session) Reset() error {
	if err := s.orch.Reset(); err != nil {
		return err
	}
	s.mu.Lock()
	s.input = nil
	s.mu.Unlock()
	return nil
}

// Snapshot returns the current view.
func (s *Session) Snapshot() View {
	state := s.orch.State()
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Input:   s.input,
		Options: s.options,
		Format:  s.format,
		Job:     state,
		Metrics: state.Metrics,
	}
}

func (s *Session) request() job.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return job.Request{Input: s.input, Options: s.options, Format: s.format}
}
