// Package logging provides a minimal logging interface and adapters for flowmesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that composables, middleware and stores use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ZapAdapter wrapping go.uber.org/zap
//   - FlowLogger with run and path scoped cloning helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	mesh := flowmesh.New(func(o *flowmesh.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
