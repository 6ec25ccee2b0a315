// Package provider implements the identity-provider collaborator on top of a
// local KV.
//
// Local keeps a long-lived root key, which fixes the principal a user signs in
// as, and mints a short-lived session key on every login. The session key is
// endorsed by the root key until its expiry, and GetIdentity returns an
// identity that signs with the session key on the root principal's behalf.
package provider
