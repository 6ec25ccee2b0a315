package domain

import (
	interfaces "tipjar/internal/domain/interfaces"
	types "tipjar/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Principal         = types.Principal
	Subaccount        = types.Subaccount
	AccountID         = types.AccountID
	Account           = types.Account
	ICRCAccount       = types.ICRCAccount
	Ed25519Public     = types.Ed25519Public
	Ed25519Private    = types.Ed25519Private
	SessionState      = types.SessionState
	IdentityKind      = types.IdentityKind
	IdentityMaterial  = types.IdentityMaterial
	IdentityRecord    = types.IdentityRecord
	Balance           = types.Balance
	Allocation        = types.Allocation
	UserInfo          = types.UserInfo
	AllocateRequest   = types.AllocateRequest
	Stats             = types.Stats
	DecodeError       = types.DecodeError
	DelegateError     = types.DelegateError
	DelegateErrorKind = types.DelegateErrorKind
	AllocateError     = types.AllocateError
	AllocateErrorKind = types.AllocateErrorKind
	TransferRequest   = types.TransferRequest
	NotifyRequest     = types.NotifyRequest
	LedgerError       = types.LedgerError
	LedgerErrorKind   = types.LedgerErrorKind
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	Identity         = interfaces.Identity
	IdentityProvider = interfaces.IdentityProvider
	LoginConfig      = interfaces.LoginConfig
	IdentityStore    = interfaces.IdentityStore
	KV               = interfaces.KV
	ServiceClient    = interfaces.ServiceClient
	ServiceDialer    = interfaces.ServiceDialer
	IdentityFactory  = interfaces.IdentityFactory
)

const (
	StateAnonymous     = types.StateAnonymous
	StateTemporary     = types.StateTemporary
	StateAuthenticated = types.StateAuthenticated
	StateImported      = types.StateImported

	KindTemporary = types.KindTemporary
	KindImported  = types.KindImported

	DelegateUserNotFound     = types.DelegateUserNotFound
	DelegateAccessDenied     = types.DelegateAccessDenied
	DelegateAlreadyDelegated = types.DelegateAlreadyDelegated
	DelegateOther            = types.DelegateOther

	AllocateUnknown             = types.AllocateUnknown
	AllocateAccessDenied        = types.AllocateAccessDenied
	AllocateUserDoesNotExist    = types.AllocateUserDoesNotExist
	AllocateCanisterStatusError = types.AllocateCanisterStatusError
	AllocateInsufficientBalance = types.AllocateInsufficientBalance
	AllocateAliasTooShort       = types.AllocateAliasTooShort
	AllocateAliasTooLong        = types.AllocateAliasTooLong
	AllocateTooManyCanisters    = types.AllocateTooManyCanisters

	LedgerInvalidTransaction = types.LedgerInvalidTransaction
	LedgerInsufficientFunds  = types.LedgerInsufficientFunds
	LedgerBadFee             = types.LedgerBadFee
	LedgerAlreadyNotified    = types.LedgerAlreadyNotified

	GenericFailureMessage = types.GenericFailureMessage
	MaxPrincipalLength    = types.MaxPrincipalLength
)

// Function re-exports.
var (
	AnonymousPrincipal          = types.AnonymousPrincipal
	PrincipalFromBytes          = types.PrincipalFromBytes
	ParsePrincipal              = types.ParsePrincipal
	MustParsePrincipal          = types.MustParsePrincipal
	SelfAuthenticatingPrincipal = types.SelfAuthenticatingPrincipal
	ErrInvalidPrincipal         = types.ErrInvalidPrincipal
	FormatCycles                = types.FormatCycles
	FormatICP                   = types.FormatICP
)
