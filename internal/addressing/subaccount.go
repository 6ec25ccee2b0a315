package addressing

import (
	"errors"

	"tipjar/internal/domain"
)

// DeriveSubaccount returns the subaccount that identifies p under another
// owner. p must be at most 31 bytes long; principals never exceed 29.
func DeriveSubaccount(p domain.Principal) domain.Subaccount {
	var sub domain.Subaccount
	raw := p.Bytes()
	sub[0] = byte(len(raw))
	copy(sub[1:], raw)
	return sub
}

// ErrBadSubaccount is returned when a subaccount does not encode a principal.
var ErrBadSubaccount = errors.New("subaccount does not encode a principal")

// PrincipalFromSubaccount reverses DeriveSubaccount.
func PrincipalFromSubaccount(sub domain.Subaccount) (domain.Principal, error) {
	n := int(sub[0])
	if n > domain.MaxPrincipalLength {
		return domain.Principal{}, ErrBadSubaccount
	}
	for _, b := range sub[1+n:] {
		if b != 0 {
			return domain.Principal{}, ErrBadSubaccount
		}
	}
	return domain.PrincipalFromBytes(sub[1 : 1+n])
}
