package addressing

import (
	"encoding/base32"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"

	"tipjar/internal/domain"
)

var (
	ErrBadICRCAccount = errors.New("invalid icrc account")

	checksumEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// ICRCAccount populates an ICRC-1 account. The default subaccount is omitted.
func ICRCAccount(owner domain.Principal, sub *domain.Subaccount) domain.ICRCAccount {
	acc := domain.ICRCAccount{Owner: owner}
	if sub != nil && !sub.IsZero() {
		s := *sub
		acc.Subaccount = &s
	}
	return acc
}

// EncodeICRCAccount renders acc in the ICRC-1 textual format.
func EncodeICRCAccount(acc domain.ICRCAccount) string {
	if acc.Subaccount == nil || acc.Subaccount.IsZero() {
		return acc.Owner.Text()
	}
	hexSub := strings.TrimLeft(hex.EncodeToString(acc.Subaccount[:]), "0")
	return fmt.Sprintf("%s-%s.%s", acc.Owner.Text(), icrcChecksum(acc.Owner, *acc.Subaccount), hexSub)
}

// DecodeICRCAccount parses the ICRC-1 textual format.
func DecodeICRCAccount(s string) (domain.ICRCAccount, error) {
	dot := strings.LastIndexByte(s, '.')
	if dot < 0 {
		owner, err := domain.ParsePrincipal(s)
		if err != nil {
			return domain.ICRCAccount{}, fmt.Errorf("%w: %v", ErrBadICRCAccount, err)
		}
		return domain.ICRCAccount{Owner: owner}, nil
	}

	head, hexSub := s[:dot], s[dot+1:]
	dash := strings.LastIndexByte(head, '-')
	if dash < 0 || hexSub == "" || len(hexSub) > 64 || strings.HasPrefix(hexSub, "0") {
		return domain.ICRCAccount{}, ErrBadICRCAccount
	}
	owner, err := domain.ParsePrincipal(head[:dash])
	if err != nil {
		return domain.ICRCAccount{}, fmt.Errorf("%w: %v", ErrBadICRCAccount, err)
	}
	raw, err := hex.DecodeString(strings.Repeat("0", 64-len(hexSub)) + hexSub)
	if err != nil {
		return domain.ICRCAccount{}, fmt.Errorf("%w: %v", ErrBadICRCAccount, err)
	}
	var sub domain.Subaccount
	copy(sub[:], raw)
	if sub.IsZero() {
		return domain.ICRCAccount{}, ErrBadICRCAccount
	}
	if icrcChecksum(owner, sub) != head[dash+1:] {
		return domain.ICRCAccount{}, fmt.Errorf("%w: checksum mismatch", ErrBadICRCAccount)
	}
	return domain.ICRCAccount{Owner: owner, Subaccount: &sub}, nil
}

func icrcChecksum(owner domain.Principal, sub domain.Subaccount) string {
	h := crc32.NewIEEE()
	h.Write(owner.Bytes())
	h.Write(sub[:])
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], h.Sum32())
	return strings.ToLower(checksumEncoding.EncodeToString(sum[:]))
}
