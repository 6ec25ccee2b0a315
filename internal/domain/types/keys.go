package types

// Ed25519Public is an Ed25519 signing public key.
type Ed25519Public [32]byte

// Slice returns the key as a []byte.
func (p Ed25519Public) Slice() []byte { return p[:] }

// Ed25519Private is an Ed25519 signing private key (seed || public key).
type Ed25519Private [64]byte

// Slice returns the key as a []byte.
func (k Ed25519Private) Slice() []byte { return k[:] }

// Seed returns the 32-byte seed half of the private key.
func (k Ed25519Private) Seed() []byte { return k[:32] }

// Subaccount partitions a principal's ledger holdings.
type Subaccount [32]byte

// Slice returns the subaccount as a []byte.
func (s Subaccount) Slice() []byte { return s[:] }

// IsZero reports whether every byte is zero, which is the default subaccount.
func (s Subaccount) IsZero() bool { return s == Subaccount{} }

// AccountID is the legacy ledger address: crc32 (big-endian) || sha224 hash.
type AccountID [32]byte

// Slice returns the account id as a []byte.
func (a AccountID) Slice() []byte { return a[:] }
