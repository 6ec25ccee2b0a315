package addressing

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"hash/crc32"

	"tipjar/internal/domain"
)

// accountDomainSeparator is 0x0A followed by "account-id".
var accountDomainSeparator = []byte("\x0Aaccount-id")

var ErrBadAccountID = errors.New("invalid account id")

// DeriveAccountID computes the legacy ledger address of (owner, sub). A nil
// subaccount means the default all-zero subaccount.
func DeriveAccountID(owner domain.Principal, sub *domain.Subaccount) domain.AccountID {
	var zero domain.Subaccount
	if sub == nil {
		sub = &zero
	}
	h := sha256.New224()
	h.Write(accountDomainSeparator)
	h.Write(owner.Bytes())
	h.Write(sub[:])
	sum := h.Sum(nil)

	var id domain.AccountID
	binary.BigEndian.PutUint32(id[:4], crc32.ChecksumIEEE(sum))
	copy(id[4:], sum)
	return id
}

// AccountIDHex renders an account id the way ledgers display it.
func AccountIDHex(id domain.AccountID) string { return hex.EncodeToString(id[:]) }

// ParseAccountIDHex parses a 64-character hex account id and checks its crc.
func ParseAccountIDHex(s string) (domain.AccountID, error) {
	var id domain.AccountID
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(id) {
		return id, ErrBadAccountID
	}
	copy(id[:], b)
	if !ValidAccountID(id) {
		return id, ErrBadAccountID
	}
	return id, nil
}

// ValidAccountID reports whether the checksum prefix matches the hash.
func ValidAccountID(id domain.AccountID) bool {
	return binary.BigEndian.Uint32(id[:4]) == crc32.ChecksumIEEE(id[4:])
}
