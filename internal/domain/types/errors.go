package types

import "fmt"

// DecodeError reports unusable imported key material. Cause is shown to the user.
type DecodeError struct {
	Cause string
}

func (e *DecodeError) Error() string { return "error loading key: " + e.Cause }

// DelegateErrorKind enumerates the ways a delegation can fail.
type DelegateErrorKind int

const (
	// DelegateUserNotFound means the principal has no record; callers treat
	// it as an accepted outcome for a new user.
	DelegateUserNotFound DelegateErrorKind = iota + 1
	DelegateAccessDenied
	DelegateAlreadyDelegated
	DelegateOther
)

// DelegateError is the closed error set of the delegate call.
type DelegateError struct {
	Kind    DelegateErrorKind
	Message string
}

func (e *DelegateError) Error() string {
	switch e.Kind {
	case DelegateUserNotFound:
		return "delegate: user not found"
	case DelegateAccessDenied:
		return "delegate: access denied"
	case DelegateAlreadyDelegated:
		return "delegate: principal is already delegated"
	default:
		if e.Message == "" {
			return "delegate: rejected"
		}
		return "delegate: " + e.Message
	}
}

// Benign reports whether the error still lets the caller adopt the identity.
func (e *DelegateError) Benign() bool { return e.Kind == DelegateUserNotFound }

// AllocateErrorKind enumerates allocation failures.
type AllocateErrorKind int

const (
	AllocateUnknown AllocateErrorKind = iota
	AllocateAccessDenied
	AllocateUserDoesNotExist
	AllocateCanisterStatusError
	AllocateInsufficientBalance
	AllocateAliasTooShort
	AllocateAliasTooLong
	AllocateTooManyCanisters
)

// AllocateError is the closed error set of the allocate call. Amount carries
// the balance for InsufficientBalance; Limit carries the bound for the alias
// and canister-count variants.
type AllocateError struct {
	Kind    AllocateErrorKind
	Message string
	Amount  uint64
	Limit   uint64
}

func (e *AllocateError) Error() string {
	switch e.Kind {
	case AllocateAccessDenied:
		return "allocate: access denied"
	case AllocateUserDoesNotExist:
		return "allocate: user does not exist"
	case AllocateCanisterStatusError:
		return "allocate: canister status error: " + e.Message
	case AllocateInsufficientBalance:
		return fmt.Sprintf("allocate: insufficient balance %d", e.Amount)
	case AllocateAliasTooShort:
		return fmt.Sprintf("allocate: alias shorter than %d", e.Limit)
	case AllocateAliasTooLong:
		return fmt.Sprintf("allocate: alias longer than %d", e.Limit)
	case AllocateTooManyCanisters:
		return fmt.Sprintf("allocate: more than %d canisters", e.Limit)
	default:
		return "allocate: " + e.Message
	}
}

// UserMessage is the status line shown for the failure.
func (e *AllocateError) UserMessage() string {
	switch e.Kind {
	case AllocateAccessDenied:
		return "Access denied. Please log in again."
	case AllocateUserDoesNotExist:
		return "No donor record exists for this identity yet. Top up first."
	case AllocateCanisterStatusError:
		return "Could not read the canister status: " + e.Message
	case AllocateInsufficientBalance:
		return fmt.Sprintf("Insufficient balance: only %s cycles available.", FormatCycles(e.Amount))
	case AllocateAliasTooShort:
		return fmt.Sprintf("Alias is too short, it needs at least %d characters.", e.Limit)
	case AllocateAliasTooLong:
		return fmt.Sprintf("Alias is too long, it can have at most %d characters.", e.Limit)
	case AllocateTooManyCanisters:
		return fmt.Sprintf("Too many canisters, at most %d can be funded.", e.Limit)
	default:
		return GenericFailureMessage
	}
}

// GenericFailureMessage is shown for unclassified failures.
const GenericFailureMessage = "Something went wrong, please try again later."

// FormatCycles renders a cycle amount in trillions with four decimals.
func FormatCycles(n uint64) string {
	return fmt.Sprintf("%d.%04dT", n/1_000_000_000_000, (n%1_000_000_000_000)/100_000_000)
}

// LedgerErrorKind enumerates transfer and notify failures.
type LedgerErrorKind int

const (
	LedgerInvalidTransaction LedgerErrorKind = iota
	LedgerInsufficientFunds
	LedgerBadFee
	LedgerAlreadyNotified
)

// LedgerError is the closed error set of the ledger transfer and notify calls.
// Amount carries the balance for InsufficientFunds and the expected fee for
// BadFee.
type LedgerError struct {
	Kind    LedgerErrorKind
	Message string
	Amount  uint64
}

func (e *LedgerError) Error() string {
	switch e.Kind {
	case LedgerInsufficientFunds:
		return fmt.Sprintf("ledger: insufficient funds, balance %d e8s", e.Amount)
	case LedgerBadFee:
		return fmt.Sprintf("ledger: bad fee, expected %d e8s", e.Amount)
	case LedgerAlreadyNotified:
		return "ledger: transfer already notified"
	default:
		if e.Message == "" {
			return "ledger: invalid transaction"
		}
		return "ledger: invalid transaction: " + e.Message
	}
}

// UserMessage is the status line shown for the failure.
func (e *LedgerError) UserMessage() string {
	switch e.Kind {
	case LedgerInsufficientFunds:
		return fmt.Sprintf("Insufficient funds: only %s ICP available.", FormatICP(e.Amount))
	case LedgerBadFee:
		return fmt.Sprintf("The ledger expects a fee of %s ICP.", FormatICP(e.Amount))
	case LedgerAlreadyNotified:
		return "This top-up was already converted into cycles."
	default:
		return GenericFailureMessage
	}
}

// FormatICP renders an e8s amount with eight decimals.
func FormatICP(e8s uint64) string {
	return fmt.Sprintf("%d.%08d", e8s/100_000_000, e8s%100_000_000)
}
