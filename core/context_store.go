package core

const (
	// GlobalScope addresses the run-wide mapping of a ContextStore.
	GlobalScope = ""

	// ProgressScope holds the NodeLog of every invocation keyed by absolute path.
	ProgressScope = "__progress__"
)

// ContextStore is the shared key/value store propagating run-scoped state and
// invocation logs across a call tree. Values are grouped in scopes; the global
// scope always exists, every other scope must be created before use.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type ContextStore interface {
	// Set stores value under key in scope.
	Set(key string, value any, scope string) error
	// Get returns the value stored under key in scope.
	Get(key string, scope string) (any, bool, error)
	// GetAll returns a copy of the entire mapping of a scope.
	GetAll(scope string) (map[string]any, error)
	// CreateScope opens a new scope. It fails if the scope exists and existOK is false.
	CreateScope(scope string, existOK bool) error
	// HasScope reports whether a scope has been created.
	HasScope(scope string) bool
	// Delete removes key from scope.
	Delete(key string, scope string) error
	// ClearAll drops every scope and value.
	ClearAll() error
	// Dump returns a copy of all scopes.
	Dump() (map[string]map[string]any, error)
	// Logs returns the last recorded invocation for an absolute path.
	Logs(path string) (NodeLog, bool, error)
}

// ProcessSafe is implemented by stores whose values never share memory with
// the caller, so they may be handed across a process boundary.
type ProcessSafe interface {
	ProcessSafe() bool
}

// IsProcessSafe reports whether a store declares itself process safe.
func IsProcessSafe(s ContextStore) bool {
	ps, ok := s.(ProcessSafe)
	return ok && ps.ProcessSafe()
}

// GetOr returns the value under key in scope or def when it is missing or the
// lookup fails.
func GetOr(s ContextStore, key string, def any, scope string) any {
	v, ok, err := s.Get(key, scope)
	if err != nil || !ok {
		return def
	}
	return v
}
