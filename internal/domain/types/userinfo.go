package types

import "time"

// Balance holds the two balances a donor sees.
type Balance struct {
	ICP   uint64 `json:"icp"`
	Cycle uint64 `json:"cycle"`
}

// Allocation is a share of cycles directed at a canister.
type Allocation struct {
	Canister  Principal `json:"canister"`
	Alias     string    `json:"alias,omitempty"`
	Allocated uint64    `json:"allocated"`
	Donated   uint64    `json:"donated"`
}

// UserInfo is the service's view of a donor.
type UserInfo struct {
	Balance     Balance      `json:"balance"`
	Allocations []Allocation `json:"allocations"`
	Status      string       `json:"status,omitempty"`
	LastUpdated time.Time    `json:"last_updated"`
}

// Clone returns a deep copy.
func (u UserInfo) Clone() UserInfo {
	out := u
	out.Allocations = append([]Allocation(nil), u.Allocations...)
	return out
}

// AllocateRequest directs part of the caller's cycles to a canister.
type AllocateRequest struct {
	Canister  Principal `json:"canister"`
	Alias     *string   `json:"alias,omitempty"`
	Allocated uint64    `json:"allocated"`
}

// Stats aggregates service-wide totals.
type Stats struct {
	Donors    uint64 `json:"donors"`
	Canisters uint64 `json:"canisters"`
	Donated   uint64 `json:"donated"`
	Funded    uint64 `json:"funded"`
}

// TransferRequest moves ICP out of one of the caller's own ledger accounts.
// A nil FromSubaccount is the default subaccount.
type TransferRequest struct {
	To             AccountID
	Amount         uint64 // e8s
	Fee            uint64 // e8s
	Memo           uint64
	FromSubaccount *Subaccount
}

// NotifyRequest asks the minting canister to turn a transfer into cycles for
// the canister encoded in ToSubaccount.
type NotifyRequest struct {
	ToCanister     Principal
	BlockHeight    uint64
	MaxFee         uint64 // e8s
	FromSubaccount *Subaccount
	ToSubaccount   *Subaccount
}
