package core

import "context"

// Snapshot is the serializable bundle handed to a Persister at the end of a
// top-level call.
type Snapshot struct {
	RunID   string                    `json:"run_id" yaml:"run_id"`
	Type    string                    `json:"type" yaml:"type"`
	Context map[string]map[string]any `json:"context" yaml:"context"`
	Input   Input                     `json:"input" yaml:"input"`
	Output  any                       `json:"output" yaml:"output"`
	Error   string                    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Logs returns the invocation record for an absolute path inside the snapshot.
func (s Snapshot) Logs(path string) (NodeLog, bool) {
	progress, ok := s.Context[ProgressScope]
	if !ok {
		return NodeLog{}, false
	}
	v, ok := progress[path]
	if !ok {
		return NodeLog{}, false
	}
	return AsNodeLog(v)
}

// Persister stores run snapshots.
type Persister interface {
	Persist(ctx context.Context, snapshot Snapshot) error
}

// SnapshotLoader loads previously persisted run snapshots.
type SnapshotLoader interface {
	Load(ctx context.Context, runID string) (Snapshot, error)
}
