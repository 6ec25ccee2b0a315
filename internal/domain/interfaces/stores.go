package interfaces

import domaintypes "tipjar/internal/domain/types"

// IdentityStore persists at most one local identity record.
type IdentityStore interface {
	// SaveIdentity overwrites the stored record.
	SaveIdentity(rec domaintypes.IdentityRecord) error
	// LoadIdentity returns false when the record is absent or unreadable.
	LoadIdentity() (domaintypes.IdentityRecord, bool)
	// EraseIdentity removes the record; erasing an absent record is not an error.
	EraseIdentity() error
}

// KV is the byte-level persistence an IdentityStore is built on.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	Delete(key string) error
}
