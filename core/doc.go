// Package core provides the foundational types and collaborator interfaces
// shared by the flowmesh packages. It defines:
//
//   - Input and NodeLog (call arguments and the per-path invocation record)
//   - ContextStore (the run-scoped key/value store shared across a call tree)
//   - Codec (the serialization contract for values crossing a process boundary)
//   - Config, Persister and SnapshotLoader (externally supplied collaborators)
//
// The package intentionally keeps implementations (stores, persisters,
// composables) out of scope so that the flow package and its collaborators
// can evolve independently and avoid cyclic imports.
package core
