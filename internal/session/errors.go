package session

import "errors"

var (
	// ErrSuperseded is returned when another transition committed while this
	// one was waiting on a remote call. Nothing was adopted.
	ErrSuperseded = errors.New("session: superseded by a newer transition")
	// ErrDelegationRejected wraps a blocking delegation failure.
	ErrDelegationRejected = errors.New("session: delegation rejected")
	// ErrLoginFailed wraps a failure of the provider's interactive login.
	ErrLoginFailed = errors.New("session: login failed")
	// ErrAnonymous is returned by operations that need a keyed identity.
	ErrAnonymous = errors.New("session: anonymous identity")
)
