package addressing

import "tipjar/internal/domain"

// Memo and fee the ledger expects when ICP is converted into cycles.
const (
	TopUpMemo uint64 = 0x50555054
	TopUpFee  uint64 = 10_000
)

// SessionAccount derives the addresses a caller deposits into: accounts owned
// by service and keyed by the caller's derived subaccount. It also records the
// caller's own default-subaccount address.
func SessionAccount(service, caller domain.Principal) domain.Account {
	sub := DeriveSubaccount(caller)
	icrc := ICRCAccount(service, &sub)
	return domain.Account{
		PrincipalAccountID: DeriveAccountID(caller, nil),
		AccountID:          DeriveAccountID(service, &sub),
		ICRCAccount:        icrc,
		ICRCAccountID:      EncodeICRCAccount(icrc),
	}
}

// TopUpAccountID is the minting account that credits cycles to canister.
func TopUpAccountID(minting, canister domain.Principal) domain.AccountID {
	sub := DeriveSubaccount(canister)
	return DeriveAccountID(minting, &sub)
}
