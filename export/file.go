package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/flowmesh/core"
)

// ErrNotFound is returned when no snapshot exists for a run.
var ErrNotFound = errors.New("snapshot not found")

// FilePersister stores every run as <dir>/<run id>.yaml.
type FilePersister struct {
	dir string
}

// NewFilePersister creates dir if needed.
func NewFilePersister(dir string) (*FilePersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FilePersister{dir: dir}, nil
}

// Dir returns the target directory.
func (p *FilePersister) Dir() string { return p.dir }

func (p *FilePersister) path(runID string) (string, error) {
	if runID == "" || strings.ContainsAny(runID, `/\`) || runID == "." || runID == ".." {
		return "", fmt.Errorf("invalid run id %q", runID)
	}
	return filepath.Join(p.dir, runID+".yaml"), nil
}

// Persist writes the snapshot, replacing an earlier one of the same run.
func (p *FilePersister) Persist(_ context.Context, s core.Snapshot) error {
	target, err := p.path(s.RunID)
	if err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(p.dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", s.RunID, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot %s: %w", s.RunID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write snapshot %s: %w", s.RunID, err)
	}
	return os.Rename(tmp.Name(), target)
}

// Load reads the snapshot of runID.
func (p *FilePersister) Load(_ context.Context, runID string) (core.Snapshot, error) {
	target, err := p.path(runID)
	if err != nil {
		return core.Snapshot{}, err
	}
	data, err := os.ReadFile(target)
	if errors.Is(err, os.ErrNotExist) {
		return core.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read snapshot %s: %w", runID, err)
	}
	return unmarshalSnapshot(data)
}
