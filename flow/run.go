package flow

import (
	"sort"

	"github.com/hupe1980/flowmesh/core"
)

// Run is the tracker of a completed top-level call. It holds a copy of the
// context store as it was when the call returned.
type Run struct {
	ID     string
	Type   string
	Input  Input
	Output any
	Err    error

	context map[string]map[string]any
}

// Logs returns the invocation record of the node at path.
func (r *Run) Logs(path string) (core.NodeLog, bool) {
	return r.Snapshot().Logs(path)
}

// Steps returns the sorted absolute paths of every recorded invocation.
func (r *Run) Steps() []string {
	progress := r.context[core.ProgressScope]
	steps := make([]string, 0, len(progress))
	for path := range progress {
		steps = append(steps, path)
	}
	sort.Strings(steps)
	return steps
}

// Scope returns the recorded mapping of a context scope.
func (r *Run) Scope(scope string) map[string]any {
	return r.context[scope]
}

// Snapshot returns the serializable form of the run.
func (r *Run) Snapshot() core.Snapshot {
	s := core.Snapshot{
		RunID:   r.ID,
		Type:    r.Type,
		Context: r.context,
		Input:   r.Input,
		Output:  r.Output,
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
	}
	return s
}
