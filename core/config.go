package core

// Config is the read-only configuration a composable tree shares by reference.
type Config interface {
	// RunID mints a fresh identifier for a top-level call.
	RunID() string
	// StoreResult returns the optional result-storage location.
	StoreResult() string
}
