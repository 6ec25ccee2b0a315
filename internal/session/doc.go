// Package session owns the live identity session of a tip-jar client.
//
// A Controller always holds a usable Session: construction installs an
// anonymous one, and Start upgrades it from the identity provider or the local
// identity store. Login, Import, SwitchToTemporary and Logout move between the
// four states:
//
//	Anonymous      no keys, the reserved anonymous principal
//	Temporary      a locally generated key, never delegated
//	Authenticated  an identity from the identity provider, accepted by the service
//	Imported       an externally supplied key, accepted by the service
//
// Identities coming from outside (provider or import) are adopted only after
// the service accepts a delegation to them. A Session is replaced wholesale on
// every transition and subscribers see it only once it is consistent.
//
// Transitions are serialized by a generation counter. A transition that
// suspends on a remote call re-checks the generation before committing; if
// another transition committed in the meantime its result is dropped and it
// fails with ErrSuperseded.
package session
