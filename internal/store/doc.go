// Package store provides local persistence for tipjar's single identity record.
//
// IdentityStore holds at most one record ({kind, identity material}) under a
// fixed key of a byte-level KV. Two KV backends exist:
//   - FileKV writes one JSON file per key, replaced atomically via rename.
//   - BadgerKV keeps values in an embedded badger database.
//
// Records are versioned. Shapes written by earlier clients (a bare key-pair
// array, or a {identity, type} object) are migrated to the current shape the
// first time they are read. Anything unreadable is treated as absent so the
// caller can fall back to a fresh anonymous identity.
//
// When a passphrase is configured, records are sealed at rest with an
// scrypt-derived key and XChaCha20-Poly1305.
package store
