package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"clarion/internal/filterplan"
	"clarion/internal/services"
)

// TestEngineHelperProcess stands in for ffmpeg when GO_WANT_ENGINE_HELPER is set.
func TestEngineHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_ENGINE_HELPER") != "1" {
		return
	}
	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+2:]
			break
		}
	}
	if len(args) > 0 && args[len(args)-1] == "-version" {
		fmt.Println("ffmpeg version 7.1-test Copyright (c) the FFmpeg developers")
		os.Exit(0)
	}
	switch os.Getenv("ENGINE_HELPER_MODE") {
	case "fail":
		fmt.Fprintln(os.Stderr, "[in#0] something noisy")
		fmt.Fprintln(os.Stderr, "Invalid data found when processing input")
		os.Exit(1)
	default:
		out := args[len(args)-1]
		fmt.Println("out_time_us=5000000")
		fmt.Println("progress=continue")
		fmt.Println("out_time_us=10000000")
		fmt.Println("progress=end")
		if err := os.WriteFile(out, []byte("enhanced"), 0o644); err != nil {
			os.Exit(2)
		}
		os.Exit(0)
	}
}

func stubEngine(t *testing.T, mode string) {
	t.Helper()
	restoreCmd := SetCommandContextForTests(func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestEngineHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_ENGINE_HELPER=1", "ENGINE_HELPER_MODE="+mode)
		return cmd
	})
	restoreLook := SetLookPathForTests(func(name string) (string, error) { return name, nil })
	t.Cleanup(func() {
		restoreCmd()
		restoreLook()
	})
}

func fixedDuration(d time.Duration) DurationProbe {
	return func(context.Context, string) (time.Duration, bool) { return d, d > 0 }
}

func newLoadedEngine(t *testing.T, mode string) *FFmpeg {
	t.Helper()
	stubEngine(t, mode)
	eng := NewFFmpeg(filepath.Join(t.TempDir(), "work"), WithDurationProbe(fixedDuration(10*time.Second)))
	t.Cleanup(func() { _ = eng.Close() })
	if err := eng.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}
	return eng
}

func TestBuildArgsOrdersFiltersBeforeEncoder(t *testing.T) {
	plan, err := filterplan.Build(filterplan.Options{NormalizeVolume: true, ConvertToMono: true}, filterplan.FormatMP3)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	args := strings.Join(BuildArgs(plan, "in.wav", "out.mp3"), " ")
	want := "-i in.wav -vn -af dynaudnorm=f=150:g=15 -ac 1 -c:a libmp3lame -b:a 192k -progress pipe:1 -nostats out.mp3"
	if !strings.Contains(args, want) {
		t.Fatalf("unexpected args:\n%s\nwant substring:\n%s", args, want)
	}
}

func TestBuildArgsWithoutFilters(t *testing.T) {
	plan, err := filterplan.Build(filterplan.Options{}, filterplan.FormatWAV)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	args := BuildArgs(plan, "in.mp3", "out.wav")
	for _, arg := range args {
		if arg == "-af" || arg == "-ac" {
			t.Fatalf("unexpected %s in %v", arg, args)
		}
	}
}

func TestEnsureLoadedCoalescesConcurrentCallers(t *testing.T) {
	stubEngine(t, "ok")
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	SetLookPathForTests(func(name string) (string, error) {
		once.Do(func() { close(entered) })
		<-release
		return name, nil
	})

	eng := NewFFmpeg(t.TempDir())
	t.Cleanup(func() { _ = eng.Close() })

	const callers = 8
	errs := make(chan error, callers)
	go func() { errs <- eng.EnsureLoaded(context.Background()) }()
	<-entered
	for i := 1; i < callers; i++ {
		go func() { errs <- eng.EnsureLoaded(context.Background()) }()
	}
	close(release)
	for i := 0; i < callers; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	if got := eng.LoadAttempts(); got != 1 {
		t.Fatalf("expected one load attempt, got %d", got)
	}
	if !eng.Loaded() {
		t.Fatal("expected engine to be loaded")
	}
	if !strings.HasPrefix(eng.Version(), "ffmpeg version 7.1-test") {
		t.Fatalf("unexpected version %q", eng.Version())
	}
}

func TestEnsureLoadedSurvivesFirstCallerCancel(t *testing.T) {
	stubEngine(t, "ok")
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	SetLookPathForTests(func(name string) (string, error) {
		once.Do(func() { close(entered) })
		<-release
		return name, nil
	})

	eng := NewFFmpeg(t.TempDir())
	t.Cleanup(func() { _ = eng.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() { first <- eng.EnsureLoaded(ctx) }()
	<-entered
	second := make(chan error, 1)
	go func() { second <- eng.EnsureLoaded(context.Background()) }()

	cancel()
	if err := <-first; !errors.Is(err, services.ErrEngineLoad) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled wait, got %v", err)
	}
	close(release)
	if err := <-second; err != nil {
		t.Fatalf("second caller should share a successful load: %v", err)
	}
	if got := eng.LoadAttempts(); got != 1 {
		t.Fatalf("expected one load attempt, got %d", got)
	}
	if !eng.Loaded() {
		t.Fatal("expected engine to be loaded")
	}
}

func TestEnsureLoadedRetriesAfterFailure(t *testing.T) {
	stubEngine(t, "ok")
	calls := 0
	SetLookPathForTests(func(name string) (string, error) {
		calls++
		if calls == 1 {
			return "", exec.ErrNotFound
		}
		return name, nil
	})
	eng := NewFFmpeg(t.TempDir())
	t.Cleanup(func() { _ = eng.Close() })

	err := eng.EnsureLoaded(context.Background())
	if !errors.Is(err, services.ErrEngineLoad) {
		t.Fatalf("expected engine load error, got %v", err)
	}
	if eng.Loaded() {
		t.Fatal("failed load must not mark engine loaded")
	}
	if err := eng.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if eng.LoadAttempts() != 2 {
		t.Fatalf("expected two attempts, got %d", eng.LoadAttempts())
	}
}

func TestWorkspaceLockRejectsSecondEngine(t *testing.T) {
	stubEngine(t, "ok")
	dir := t.TempDir()
	first := NewFFmpeg(dir)
	t.Cleanup(func() { _ = first.Close() })
	if err := first.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("first load: %v", err)
	}
	second := NewFFmpeg(dir)
	err := second.EnsureLoaded(context.Background())
	if !errors.Is(err, services.ErrEngineLoad) {
		t.Fatalf("expected lock conflict, got %v", err)
	}
	_ = first.Close()
	if err := second.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("load after release: %v", err)
	}
	_ = second.Close()
}

func TestExecuteReportsProgressAndWritesOutput(t *testing.T) {
	eng := newLoadedEngine(t, "ok")
	ctx := context.Background()
	if err := eng.StageInput(ctx, "talk-input-1.wav", []byte("RIFF")); err != nil {
		t.Fatalf("stage: %v", err)
	}
	plan, _ := filterplan.Build(filterplan.Options{NormalizeVolume: true}, filterplan.FormatOGG)

	var updates []Progress
	if err := eng.Execute(ctx, plan, "talk-input-1.wav", "talk-enhanced-1.ogg", func(p Progress) {
		updates = append(updates, p)
	}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(updates) != 3 || updates[0].Known || updates[1].Ratio != 0.5 || updates[2].Ratio != 1 {
		t.Fatalf("unexpected progress sequence %+v", updates)
	}

	data, err := eng.ReadOutput(ctx, "talk-enhanced-1.ogg")
	if err != nil || string(data) != "enhanced" {
		t.Fatalf("read output: %q %v", data, err)
	}
	eng.Remove("talk-input-1.wav", "talk-enhanced-1.ogg", "")
	if _, err := eng.ReadOutput(ctx, "talk-enhanced-1.ogg"); !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected io error after remove, got %v", err)
	}
}

func TestExecuteFailureCarriesStderr(t *testing.T) {
	eng := newLoadedEngine(t, "fail")
	ctx := context.Background()
	_ = eng.StageInput(ctx, "in.wav", []byte("x"))
	plan, _ := filterplan.Build(filterplan.Options{}, filterplan.FormatWAV)
	err := eng.Execute(ctx, plan, "in.wav", "out.wav", nil)
	if !errors.Is(err, services.ErrExecution) {
		t.Fatalf("expected execution error, got %v", err)
	}
	if msg := services.Message(err); msg != "Invalid data found when processing input" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestOperationsRequireLoad(t *testing.T) {
	eng := NewFFmpeg(t.TempDir())
	if err := eng.StageInput(context.Background(), "a.wav", nil); !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected io error, got %v", err)
	}
	plan, _ := filterplan.Build(filterplan.Options{}, filterplan.FormatWAV)
	if err := eng.Execute(context.Background(), plan, "a.wav", "b.wav", nil); !errors.Is(err, services.ErrExecution) {
		t.Fatalf("expected execution error, got %v", err)
	}
}

func TestWorkspaceNamesAreFlat(t *testing.T) {
	eng := newLoadedEngine(t, "ok")
	for _, name := range []string{"", "..", "../escape.wav", "sub/file.wav", lockFileName} {
		if err := eng.StageInput(context.Background(), name, []byte("x")); !errors.Is(err, services.ErrIO) {
			t.Fatalf("name %q: expected io error, got %v", name, err)
		}
	}
}

func TestLoadSweepsOnlyStagedWorkspaceFiles(t *testing.T) {
	stubEngine(t, "ok")
	workDir := filepath.Join(t.TempDir(), "clarion")
	token := filterplan.NewToken(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	leftovers := []string{
		filepath.Join(workDir, filterplan.InputName("crashed.wav", token)),
		filepath.Join(workDir, filterplan.OutputName("crashed.wav", filterplan.FormatOGG, token)),
	}
	kept := []string{
		filepath.Join(workDir, "output", "saved-enhanced.ogg"),
		filepath.Join(workDir, "logs", "clarion.log"),
		filepath.Join(workDir, "song.mp3"),
	}
	for _, path := range append(append([]string{}, leftovers...), kept...) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	eng := NewFFmpeg(workDir)
	t.Cleanup(func() { _ = eng.Close() })
	if err := eng.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}
	for _, path := range leftovers {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected %s to be removed, stat err %v", path, err)
		}
	}
	for _, path := range kept {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("%s should survive the sweep: %v", path, err)
		}
	}
	if _, err := os.Stat(filepath.Join(workDir, lockFileName)); err != nil {
		t.Fatalf("lock file should remain: %v", err)
	}
}
