package remote

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"tipjar/internal/domain"
)

// Header names of the signed request envelope.
const (
	HeaderPrincipal   = "X-Principal"
	HeaderRequestID   = "X-Request-Id"
	HeaderTimestamp   = "X-Timestamp"
	HeaderPublicKey   = "X-Public-Key"
	HeaderSignature   = "X-Signature"
	HeaderSessionKey  = "X-Delegation-Key"
	HeaderExpiration  = "X-Delegation-Expiration"
	HeaderDelegateSig = "X-Delegation-Signature"
)

// Wire names of error kinds.
const (
	ErrKindUserNotFound        = "UserNotFound"
	ErrKindAccessDenied        = "AccessDenied"
	ErrKindAlreadyDelegated    = "AlreadyDelegated"
	ErrKindUserDoesNotExist    = "UserDoesNotExist"
	ErrKindCanisterStatusError = "CanisterStatusError"
	ErrKindInsufficientBalance = "InsufficientBalance"
	ErrKindAliasTooShort       = "AliasTooShort"
	ErrKindAliasTooLong        = "AliasTooLong"
	ErrKindTooManyCanisters    = "TooManyCanisters"
	ErrKindInsufficientFunds   = "InsufficientFunds"
	ErrKindBadFee              = "BadFee"
	ErrKindInvalidTransaction  = "InvalidTransaction"
	ErrKindAlreadyNotified     = "AlreadyNotified"
)

// SigningPayload is the byte string a request signature covers.
func SigningPayload(requestID string, ts time.Time, method, path string, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString(requestID)
	b.WriteByte('\n')
	b.WriteString(strconv.FormatInt(ts.UnixNano(), 10))
	b.WriteByte('\n')
	b.WriteString(method)
	b.WriteByte('\n')
	b.WriteString(path)
	b.WriteByte('\n')
	b.Write(body)
	return b.Bytes()
}

// WireError is the err arm of a result.
type WireError struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
	Amount  uint64 `json:"amount,omitempty"`
	Limit   uint64 `json:"limit,omitempty"`
}

// Result is the envelope every service method answers with.
type Result[T any] struct {
	Ok  *T         `json:"ok,omitempty"`
	Err *WireError `json:"err,omitempty"`
}

// DelegateArgs is the body of POST /delegate.
type DelegateArgs struct {
	Principal domain.Principal `json:"principal"`
}

// BalanceArgs is the body of POST /ledger/account_balance.
type BalanceArgs struct {
	Account string `json:"account"` // hex account id
}

// Tokens is a ledger amount in e8s.
type Tokens struct {
	E8s uint64 `json:"e8s"`
}

// Amount is an ICRC-1 balance.
type Amount struct {
	Value uint64 `json:"value"`
}

// TransferArgs is the body of POST /ledger/send_dfx.
type TransferArgs struct {
	To             string             `json:"to"` // hex account id
	Amount         Tokens             `json:"amount"`
	Fee            Tokens             `json:"fee"`
	Memo           uint64             `json:"memo"`
	FromSubaccount *domain.Subaccount `json:"from_subaccount,omitempty"`
}

// BlockHeight answers a transfer.
type BlockHeight struct {
	Height uint64 `json:"height"`
}

// NotifyArgs is the body of POST /ledger/notify_dfx.
type NotifyArgs struct {
	ToCanister     domain.Principal   `json:"to_canister"`
	BlockHeight    uint64             `json:"block_height"`
	MaxFee         Tokens             `json:"max_fee"`
	FromSubaccount *domain.Subaccount `json:"from_subaccount,omitempty"`
	ToSubaccount   *domain.Subaccount `json:"to_subaccount,omitempty"`
}

// TopUpReceipt answers a notify with the cycles credited to Canister.
type TopUpReceipt struct {
	Canister domain.Principal `json:"canister"`
	Cycles   uint64           `json:"cycles"`
}

// PingReply answers POST /ping.
type PingReply struct {
	Principal domain.Principal `json:"principal"`
	Time      time.Time        `json:"time"`
}

// NewDelegateError maps a wire error onto the delegate error set.
func NewDelegateError(w *WireError) *domain.DelegateError {
	switch w.Kind {
	case ErrKindUserNotFound:
		return &domain.DelegateError{Kind: domain.DelegateUserNotFound}
	case ErrKindAccessDenied:
		return &domain.DelegateError{Kind: domain.DelegateAccessDenied}
	case ErrKindAlreadyDelegated:
		return &domain.DelegateError{Kind: domain.DelegateAlreadyDelegated}
	default:
		msg := w.Message
		if msg == "" {
			msg = w.Kind
		}
		return &domain.DelegateError{Kind: domain.DelegateOther, Message: msg}
	}
}

// NewAllocateError maps a wire error onto the allocate error set.
func NewAllocateError(w *WireError) *domain.AllocateError {
	e := &domain.AllocateError{Message: w.Message, Amount: w.Amount, Limit: w.Limit}
	switch w.Kind {
	case ErrKindAccessDenied:
		e.Kind = domain.AllocateAccessDenied
	case ErrKindUserDoesNotExist:
		e.Kind = domain.AllocateUserDoesNotExist
	case ErrKindCanisterStatusError:
		e.Kind = domain.AllocateCanisterStatusError
	case ErrKindInsufficientBalance:
		e.Kind = domain.AllocateInsufficientBalance
	case ErrKindAliasTooShort:
		e.Kind = domain.AllocateAliasTooShort
	case ErrKindAliasTooLong:
		e.Kind = domain.AllocateAliasTooLong
	case ErrKindTooManyCanisters:
		e.Kind = domain.AllocateTooManyCanisters
	default:
		e.Kind = domain.AllocateUnknown
		if e.Message == "" {
			e.Message = w.Kind
		}
	}
	return e
}

// WireAllocateError is the inverse of NewAllocateError.
func WireAllocateError(e *domain.AllocateError) *WireError {
	w := &WireError{Message: e.Message, Amount: e.Amount, Limit: e.Limit}
	switch e.Kind {
	case domain.AllocateAccessDenied:
		w.Kind = ErrKindAccessDenied
	case domain.AllocateUserDoesNotExist:
		w.Kind = ErrKindUserDoesNotExist
	case domain.AllocateCanisterStatusError:
		w.Kind = ErrKindCanisterStatusError
	case domain.AllocateInsufficientBalance:
		w.Kind = ErrKindInsufficientBalance
	case domain.AllocateAliasTooShort:
		w.Kind = ErrKindAliasTooShort
	case domain.AllocateAliasTooLong:
		w.Kind = ErrKindAliasTooLong
	case domain.AllocateTooManyCanisters:
		w.Kind = ErrKindTooManyCanisters
	default:
		w.Kind = "Unknown"
	}
	return w
}

// NewLedgerError maps a wire error onto the ledger error set.
func NewLedgerError(w *WireError) *domain.LedgerError {
	e := &domain.LedgerError{Message: w.Message, Amount: w.Amount}
	switch w.Kind {
	case ErrKindInsufficientFunds:
		e.Kind = domain.LedgerInsufficientFunds
	case ErrKindBadFee:
		e.Kind = domain.LedgerBadFee
	case ErrKindAlreadyNotified:
		e.Kind = domain.LedgerAlreadyNotified
	default:
		e.Kind = domain.LedgerInvalidTransaction
		if e.Message == "" && w.Kind != ErrKindInvalidTransaction {
			e.Message = w.Kind
		}
	}
	return e
}

// WireLedgerError is the inverse of NewLedgerError.
func WireLedgerError(e *domain.LedgerError) *WireError {
	w := &WireError{Message: e.Message, Amount: e.Amount}
	switch e.Kind {
	case domain.LedgerInsufficientFunds:
		w.Kind = ErrKindInsufficientFunds
	case domain.LedgerBadFee:
		w.Kind = ErrKindBadFee
	case domain.LedgerAlreadyNotified:
		w.Kind = ErrKindAlreadyNotified
	default:
		w.Kind = ErrKindInvalidTransaction
	}
	return w
}

func marshal(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
