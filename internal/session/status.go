package session

import (
	"errors"

	"tipjar/internal/domain"
)

// Status is the single user-facing status line. Every transition and every
// blocking failure overwrites it.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// failCurrent shows msg unless a transition started after gen, and reports
// whether gen is still current.
func (c *Controller) failCurrent(gen uint64, msg string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.status = msg
	return true
}

func banner(state domain.SessionState, p domain.Principal) string {
	switch state {
	case domain.StateTemporary:
		return "Using a temporary identity " + p.Text() + ". Log in to keep your donations safe."
	case domain.StateAuthenticated:
		return "Logged in as " + p.Text() + "."
	case domain.StateImported:
		return "Using imported identity " + p.Text() + "."
	default:
		return "Not logged in. Log in or create a temporary identity to donate."
	}
}

// failureMessage renders err for the status line.
func failureMessage(err error) string {
	var (
		decodeErr   *domain.DecodeError
		delegateErr *domain.DelegateError
		allocateErr *domain.AllocateError
		ledgerErr   *domain.LedgerError
	)
	switch {
	case errors.As(err, &decodeErr):
		return decodeErr.Error()
	case errors.As(err, &delegateErr):
		switch delegateErr.Kind {
		case domain.DelegateAccessDenied:
			return "The service refused to link this identity."
		case domain.DelegateAlreadyDelegated:
			return "This identity is already linked to another account."
		default:
			return domain.GenericFailureMessage
		}
	case errors.As(err, &allocateErr):
		return allocateErr.UserMessage()
	case errors.As(err, &ledgerErr):
		return ledgerErr.UserMessage()
	case errors.Is(err, ErrLoginFailed):
		return "Login was not completed."
	default:
		return domain.GenericFailureMessage
	}
}
