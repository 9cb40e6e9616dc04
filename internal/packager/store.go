package packager

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"clarion/internal/fileutil"
	"clarion/internal/logging"
	"clarion/internal/services"
	"clarion/internal/telemetry"
)

// Store keeps artifact files under one directory.
type Store struct {
	dir     string
	emitter *telemetry.Emitter
	logger  *slog.Logger
}

// NewStore returns a store rooted at dir. emitter may be nil.
func NewStore(dir string, emitter *telemetry.Emitter, logger *slog.Logger) *Store {
	return &Store{
		dir:     dir,
		emitter: emitter,
		logger:  logging.NewComponentLogger(logger, "packager"),
	}
}

// Dir returns the output directory.
func (s *Store) Dir() string {
	return s.dir
}

// Put writes data as the artifact's backing file and returns the artifact
// with Path set.
func (s *Store) Put(artifact Artifact, data []byte) (Artifact, error) {
	name := strings.TrimSpace(artifact.SuggestedFilename)
	if name == "" || filepath.Base(name) != name {
		return Artifact{}, services.Wrap(services.ErrIO, "packager", "put", fmt.Sprintf("invalid artifact name %q", artifact.SuggestedFilename), nil)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Artifact{}, services.Wrap(services.ErrIO, "packager", "put", "create output directory", err)
	}
	path := filepath.Join(s.dir, name)
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return Artifact{}, services.Wrap(services.ErrIO, "packager", "put", "write artifact", err)
	}
	artifact.Path = path
	artifact.SizeBytes = int64(len(data))
	s.logger.Debug("artifact stored", logging.String("path", path), logging.Int64("bytes", artifact.SizeBytes))
	return artifact, nil
}

// Release deletes the artifact's backing file. Releasing an artifact that was
// never stored, or is already gone, is a no-op.
func (s *Store) Release(artifact *Artifact) error {
	if artifact == nil || artifact.Path == "" {
		return nil
	}
	if err := os.Remove(artifact.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrIO, "packager", "release", "", err)
	}
	s.logger.Debug("artifact released", logging.String("path", artifact.Path))
	return nil
}

// Save copies the artifact to dest and returns the written path. The copy is
// always a separate file that outlives Release, so saving into the store
// directory itself (dest empty) yields a " (n)" sibling of the stored file.
// When dest is an existing directory the suggested filename is used inside
// it. Existing files are never overwritten.
func (s *Store) Save(artifact Artifact, metrics Metrics, dest string) (string, error) {
	if artifact.Path == "" {
		return "", services.Wrap(services.ErrIO, "packager", "save", "artifact has no backing file", nil)
	}
	target := strings.TrimSpace(dest)
	if target == "" {
		target = s.dir
	}
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		target = filepath.Join(target, artifact.SuggestedFilename)
	}
	target, err := fileutil.AvailablePath(target)
	if err != nil {
		return "", services.Wrap(services.ErrIO, "packager", "save", "", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", services.Wrap(services.ErrIO, "packager", "save", "create destination directory", err)
	}
	if err := fileutil.CopyFileVerified(artifact.Path, target); err != nil {
		return "", services.Wrap(services.ErrIO, "packager", "save", "", err)
	}

	s.emitter.Emit(telemetry.Event{
		Name:          telemetry.EventDownloadCompleted,
		JobID:         artifact.JobID,
		Format:        artifact.Format.String(),
		OriginalSize:  metrics.OriginalSizeBytes,
		ProcessedSize: metrics.ProcessedSizeBytes,
		Ratio:         metrics.CompressionRatioPercent,
	})
	s.logger.Info("artifact saved",
		logging.String("destination", target),
		logging.String(logging.FieldJobID, artifact.JobID),
	)
	return target, nil
}
