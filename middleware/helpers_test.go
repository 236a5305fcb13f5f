package middleware_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/flowmesh/core"
	"github.com/hupe1980/flowmesh/flow"
)

// snapshotStore persists snapshots in memory and loads them back.
type snapshotStore struct {
	mu   sync.Mutex
	runs map[string]core.Snapshot
}

func newSnapshotStore() *snapshotStore {
	return &snapshotStore{runs: map[string]core.Snapshot{}}
}

func (s *snapshotStore) Persist(_ context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[snap.RunID] = snap
	return nil
}

func (s *snapshotStore) Load(_ context.Context, runID string) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.runs[runID]
	if !ok {
		return core.Snapshot{}, fmt.Errorf("run %s not found", runID)
	}
	return snap, nil
}

// use installs mws on every node of the tree rooted at n.
func use(n flow.Node, mws ...flow.Middleware) {
	n.Flow().Apply(func(c flow.Node) { c.Flow().UseMiddleware(mws...) })
}

type entry struct {
	level string
	msg   string
	args  []any
}

// recordingLogger captures log calls.
type recordingLogger struct {
	mu      sync.Mutex
	entries []entry
}

func (l *recordingLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *recordingLogger) messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e.msg)
		}
	}
	return out
}
