// Package ledger holds the in-memory student record collection and the rules
// that gate every mutation on it.
//
// # Ownership
//
// Every record carries the identity that created it. Identity is a
// self-declared string with no verification behind it: any session can claim
// any identity. Within that limit:
//
//   - Only the owner may edit or delete a record.
//   - A referenced record cannot be deleted by anyone, the owner included.
//   - Anyone may toggle the referenced flag.
//   - ClearAll is a full reset and is not owner-gated; callers confirm it.
//
// # Keys
//
// Records are addressed by CreatedAt, a strictly increasing millisecond stamp
// drawn from a Clock. Serial is a display order only: it is assigned as
// len(records)+1 at creation and never renumbered, so it can repeat after
// deletions.
//
// # Persistence
//
// A Ledger loads its collection from a Store once in Open and saves the full
// snapshot after every successful mutation. A failed save is reported as
// CodeIO but the in-memory change is kept.
package ledger
