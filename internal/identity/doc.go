// Package identity creates the signing identities a session can hold.
//
// Four kinds exist:
//   - Ed25519 identities generated from 32 bytes of entropy (temporary sessions)
//     or imported from a PEM key container (imported sessions).
//   - The anonymous identity, which has no keys and signs nothing.
//   - Delegated identities handed out by an identity provider: a short-lived
//     session key that signs requests on behalf of a long-term root key, with
//     the root's signature over (session key, expiry) attached.
//
// Imported keys are exercised with a self-test signature before they are returned,
// so a caller never receives an identity that looks valid but cannot sign.
package identity
