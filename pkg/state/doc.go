// Package state defines persistence contracts for encoded config documents.
//
// A Store[T] only loads/saves a single snapshot for a single Ref. Two
// implementations ship with the package:
//   - MemoryStore[T], an in-process store with the same Delete and List
//     surface, used by tests and examples. It does not check ETags.
//   - SQLiteStore, a Store[[]byte] backed by modernc.org/sqlite that assigns
//     snapshot IDs and content ETags and rejects stale writes.
//
// Mutate implements optimistic read-modify-write on top of any Store:
//
//	Store.Load -> fn(&snapshot) -> Validate() -> Store.Save
//
// Deterministic keys:
//
//	Ref.Identifier() returns "domain/name". Both parts are required and must
//	not contain '/'.
package state
