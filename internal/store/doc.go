// Package store provides the in-memory content-addressed store for casmemo.
//
// The store holds three maps behind a single lock:
//   - Blobs: DataID -> owned bytes (deduplicating, write-once)
//   - Dependencies: ExprID -> ordered child ExprIDs (write-once)
//   - Equivalence: DataID ⇄ {ExprID}, one-to-many (see internal/relation)
//
// # Critical Patterns
//
// Idempotent writes
//   - StoreData and StoreExpr never overwrite; an existing id wins
//   - Identifiers are derived from content, so equal ids imply equal content
//
// Explicit conflicts
//   - Binding an expression to a second, different blob returns
//     ErrEquivalenceConflict and records nothing
//
// One lock, whole operations
//   - Update runs a callback under the write lock, View under the read lock
//   - Multi-step operations (evaluation) run inside one Update so no reader
//     sees children resolved but their parent unbound
//
// Eviction
//   - RemoveData drops bytes only; dependency and equivalence records stay,
//     so identifiers remain valid after their content is gone
//
// All identifiers are computed via functions in internal/ir/hash.go.
package store
