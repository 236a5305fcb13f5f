package contextstore

import (
	"fmt"
	"sync"

	"github.com/hupe1980/flowmesh/core"
)

// InMemoryStore is the default process-local core.ContextStore.
//
// Concurrency: a single mutex guards all access. There is no ordering
// guarantee beyond mutual exclusion. Values are stored by reference.
type InMemoryStore struct {
	mu     sync.Mutex
	scopes map[string]map[string]any // scope -> key -> value
}

// NewInMemoryStore creates an empty store holding only the built-in scopes.
func NewInMemoryStore() *InMemoryStore {
	s := &InMemoryStore{}
	s.reset()
	return s
}

func (s *InMemoryStore) reset() {
	s.scopes = map[string]map[string]any{
		core.GlobalScope:   {},
		core.ProgressScope: {},
	}
}

func (s *InMemoryStore) scope(name string) (map[string]any, error) {
	m, ok := s.scopes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrScopeNotFound, name)
	}
	return m, nil
}

// Set stores value under key in scope.
func (s *InMemoryStore) Set(key string, value any, scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.scope(scope)
	if err != nil {
		return err
	}
	m[key] = value
	return nil
}

// Get returns the value stored under key in scope.
func (s *InMemoryStore) Get(key string, scope string) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.scope(scope)
	if err != nil {
		return nil, false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

// GetAll returns a shallow copy of the mapping of scope.
func (s *InMemoryStore) GetAll(scope string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.scope(scope)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out, nil
}

// CreateScope opens scope.
func (s *InMemoryStore) CreateScope(scope string, existOK bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scopes[scope]; ok {
		if existOK {
			return nil
		}
		return fmt.Errorf("%w: %q", ErrScopeExists, scope)
	}
	s.scopes[scope] = map[string]any{}
	return nil
}

// HasScope reports whether scope exists.
func (s *InMemoryStore) HasScope(scope string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.scopes[scope]
	return ok
}

// Delete removes key from scope. Deleting a missing key is not an error.
func (s *InMemoryStore) Delete(key string, scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.scope(scope)
	if err != nil {
		return err
	}
	delete(m, key)
	return nil
}

// ClearAll drops every scope and value.
func (s *InMemoryStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

// Dump returns a two level copy of all scopes.
func (s *InMemoryStore) Dump() (map[string]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]map[string]any, len(s.scopes))
	for name, m := range s.scopes {
		cp := make(map[string]any, len(m))
		for k, v := range m {
			cp[k] = v
		}
		out[name] = cp
	}
	return out, nil
}

// Logs returns the invocation record of path.
func (s *InMemoryStore) Logs(path string) (core.NodeLog, bool, error) {
	return logs(s, path)
}

// MakeProcessSafe copies the current contents into a new SharedStore. The
// receiver is left untouched.
func (s *InMemoryStore) MakeProcessSafe(optFns ...func(o *SharedOptions)) (*SharedStore, error) {
	dump, err := s.Dump()
	if err != nil {
		return nil, err
	}
	shared := NewSharedStore(optFns...)
	for scope, m := range dump {
		if err := shared.CreateScope(scope, true); err != nil {
			_ = shared.Close()
			return nil, err
		}
		for k, v := range m {
			if err := shared.Set(k, v, scope); err != nil {
				_ = shared.Close()
				return nil, err
			}
		}
	}
	return shared, nil
}

func logs(s core.ContextStore, path string) (core.NodeLog, bool, error) {
	v, ok, err := s.Get(path, core.ProgressScope)
	if err != nil || !ok {
		return core.NodeLog{}, false, err
	}
	log, ok := core.AsNodeLog(v)
	return log, ok, nil
}
