package types

import "fmt"

// SessionState is the provenance of the active identity.
type SessionState int

const (
	// StateAnonymous has no keys; the reserved anonymous principal is used.
	StateAnonymous SessionState = iota
	// StateTemporary is a locally generated key that was never delegated.
	StateTemporary
	// StateAuthenticated is an identity obtained from the identity provider.
	StateAuthenticated
	// StateImported is an externally supplied key accepted by the service.
	StateImported
)

// String returns the lowercase state name.
func (s SessionState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateTemporary:
		return "temporary"
	case StateAuthenticated:
		return "authenticated"
	case StateImported:
		return "imported"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IdentityKind labels a locally stored identity record.
type IdentityKind string

const (
	KindTemporary IdentityKind = "temporary"
	KindImported  IdentityKind = "imported"
)

// Valid reports whether k names a persistable kind.
func (k IdentityKind) Valid() bool { return k == KindTemporary || k == KindImported }

// State maps a stored kind to the session state it restores.
func (k IdentityKind) State() SessionState {
	if k == KindImported {
		return StateImported
	}
	return StateTemporary
}

// IdentityMaterial is the serialisable form of an Ed25519 identity.
type IdentityMaterial struct {
	PublicKey Ed25519Public  `json:"public_key"`
	SecretKey Ed25519Private `json:"secret_key"`
}

// IdentityRecord is the single locally persisted identity.
type IdentityRecord struct {
	Kind     IdentityKind     `json:"kind"`
	Material IdentityMaterial `json:"identity_material"`
}

// ICRCAccount is the {owner, subaccount} address used by ICRC-1 ledgers.
type ICRCAccount struct {
	Owner      Principal   `json:"owner"`
	Subaccount *Subaccount `json:"subaccount,omitempty"`
}

// Account is derived from the active identity and never persisted.
// AccountID and ICRCAccount are the deposit addresses held by the service
// for the caller; PrincipalAccountID is the caller's own default ledger account.
type Account struct {
	PrincipalAccountID AccountID `json:"principal_account_id"`

	AccountID     AccountID   `json:"account_id"`
	ICRCAccount   ICRCAccount `json:"icrc_account"`
	ICRCAccountID string      `json:"icrc_account_id"`
}
