package interfaces

import (
	"context"

	domaintypes "tipjar/internal/domain/types"
)

// ServiceClient is how we talk to the tip-jar service and its ledgers on
// behalf of one identity. Errors are *DelegateError, *AllocateError,
// *LedgerError or a transport error; nothing else leaks through.
type ServiceClient interface {
	Principal() domaintypes.Principal

	Delegate(ctx context.Context, principal domaintypes.Principal) (domaintypes.UserInfo, error)
	Allocate(ctx context.Context, req domaintypes.AllocateRequest) (domaintypes.UserInfo, error)
	AboutMe(ctx context.Context) (domaintypes.UserInfo, error)
	Stats(ctx context.Context) (domaintypes.Stats, error)
	Ping(ctx context.Context) error

	AccountBalance(ctx context.Context, account domaintypes.AccountID) (uint64, error)
	ICRC1BalanceOf(ctx context.Context, account domaintypes.ICRCAccount) (uint64, error)

	// Transfer sends ICP from the caller's account and returns the block height.
	Transfer(ctx context.Context, req domaintypes.TransferRequest) (uint64, error)
	// NotifyTopUp converts a transfer to the minting account into cycles and
	// returns the amount minted.
	NotifyTopUp(ctx context.Context, req domaintypes.NotifyRequest) (uint64, error)
}

// ServiceDialer binds a ServiceClient to an identity.
type ServiceDialer interface {
	Dial(id Identity) ServiceClient
}
