package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"shopee/catalog/internal/domain"
)

// ErrNoRecords is returned by every sink asked to persist an empty set
var ErrNoRecords = errors.New("no records to write")

// Sink persists the full record set of a run
type Sink interface {
	Name() string
	Target() string
	Write(ctx context.Context, records []domain.FlatCategoryRecord) error
}

// Artifact is implemented by sinks that leave a file behind
type Artifact interface {
	Path() string
}

// Failed stands in for a sink that could not be constructed, so the
// run still reports it.
func Failed(name, target string, err error) Sink {
	return &failedSink{name: name, target: target, err: err}
}

type failedSink struct {
	name   string
	target string
	err    error
}

func (s *failedSink) Name() string   { return s.name }
func (s *failedSink) Target() string { return s.target }

func (s *failedSink) Write(ctx context.Context, records []domain.FlatCategoryRecord) error {
	return s.err
}

// writeAtomic writes into a temporary file next to path and renames it
// into place only when write succeeds.
func writeAtomic(path string, write func(f *os.File) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	return nil
}
