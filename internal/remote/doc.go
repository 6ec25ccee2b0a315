// Package remote provides the HTTP implementation of domain.ServiceClient:
// the tip-jar service (delegate, allocate, aboutme, stats, ping) and the two
// ledgers it is paired with (legacy account balance, ICRC-1 balance).
//
// A Client is bound to one identity. Every request carries the caller's
// principal, a request id and a timestamp; requests from keyed identities are
// signed over SigningPayload, and delegated identities also attach the root
// key's endorsement of the session key.
//
// Results come back as {"ok": ...} or {"err": {...}}. Service-level errors are
// decoded into *domain.DelegateError or *domain.AllocateError. Everything else
// (dial failures, non-2xx statuses, undecodable bodies) is normalised into a
// *TransportError, so no raw transport fault reaches the caller.
package remote
