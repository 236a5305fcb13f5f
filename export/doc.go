// Package export writes descriptions and run snapshots to durable storage.
//
// Descriptions are rendered as YAML. Snapshots are persisted as one YAML
// document per run, either in a local directory (FilePersister) or in an
// Azure Blob Storage container (BlobPersister). Both implement
// core.Persister and core.SnapshotLoader, so a persisted run can seed a
// partial re-execution.
package export
