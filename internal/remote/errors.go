package remote

import (
	"errors"
	"fmt"
)

// ErrServiceError is wrapped when the service answers with an err arm that
// does not belong to the operation's closed error set.
var ErrServiceError = errors.New("service error")

// TransportError is any remote failure that is not a classified service error.
type TransportError struct {
	Op     string
	Status int // 0 when no response was received
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable is always true: transport failures never poison the session.
func (e *TransportError) Retryable() bool { return true }

// IsTransport reports whether err is a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
