// Package crypto exposes the minimal primitives used by tipjar.
//
// Contents
//
//   - Ed25519 key derivation from a 32-byte seed, signing and verification
//     (Ed25519FromSeed, SignEd25519, VerifyEd25519)
//   - DER SubjectPublicKeyInfo wrapping of Ed25519 public keys, which is what
//     principals are hashed from (PublicKeyDER, ParsePublicKeyDER)
//   - Best-effort memory wiping for sensitive byte slices (Wipe, WipeMaterial)
//   - Base64 helpers for request signatures (B64, FromB64)
//
// # Notes
//
// Key types are the fixed-size arrays defined in internal/domain to avoid
// accidental reallocations. Callers should treat returned secrets as sensitive
// and rely on Wipe when practical to reduce lifetime in memory.
package crypto
