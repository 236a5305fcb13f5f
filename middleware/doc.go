// Package middleware provides ready made flow.Middleware entries:
//
//   - TrackProgress records status, duration and errors in the node's scope
//   - SkipComponent implements partial re-execution between two paths
//   - Caching reuses outputs for identical input and definition
//   - Logging, Tracing and Metrics add observability per node
//
// Entries are attached with flow.Use on a schema or flow.Options.Middleware
// on an instance. The first entry is the outermost stage.
package middleware
