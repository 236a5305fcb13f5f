// Package contextstore provides implementations of core.ContextStore.
//
//   - InMemoryStore: one mutex guards every operation; values are shared by
//     reference and must stay inside the process.
//   - SharedStore: a single owner goroutine serves request messages and every
//     value is encoded with a core.Codec, so nothing the caller holds aliases
//     the stored state. Safe to hand to fan-out workers.
//   - KVStore: a NATS JetStream key/value bucket, shareable between
//     independent OS processes attached to the same server.
package contextstore
