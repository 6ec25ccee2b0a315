package types

import (
	"crypto/sha256"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
)

const (
	// MaxPrincipalLength is the longest binary form a principal may have.
	MaxPrincipalLength = 29

	selfAuthenticatingTag = 0x02
	anonymousTag          = 0x04
)

var (
	// ErrInvalidPrincipal is returned when a textual principal fails to parse.
	ErrInvalidPrincipal = errors.New("invalid principal")

	principalEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// Principal is an opaque identifier of an identity on the remote platform.
// Equality is byte-exact on the binary form.
type Principal struct {
	raw string
}

// AnonymousPrincipal returns the reserved principal of callers without keys.
func AnonymousPrincipal() Principal { return Principal{raw: string([]byte{anonymousTag})} }

// PrincipalFromBytes wraps a binary principal. It copies b.
func PrincipalFromBytes(b []byte) (Principal, error) {
	if len(b) > MaxPrincipalLength {
		return Principal{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidPrincipal, len(b), MaxPrincipalLength)
	}
	return Principal{raw: string(b)}, nil
}

// SelfAuthenticatingPrincipal derives the principal of a DER-encoded public key.
func SelfAuthenticatingPrincipal(derPublicKey []byte) Principal {
	sum := sha256.Sum224(derPublicKey)
	raw := make([]byte, 0, len(sum)+1)
	raw = append(raw, sum[:]...)
	raw = append(raw, selfAuthenticatingTag)
	return Principal{raw: string(raw)}
}

// Bytes returns a copy of the binary form.
func (p Principal) Bytes() []byte { return []byte(p.raw) }

// Len returns the length of the binary form.
func (p Principal) Len() int { return len(p.raw) }

// IsAnonymous reports whether p is the reserved anonymous principal.
func (p Principal) IsAnonymous() bool { return p.raw == string([]byte{anonymousTag}) }

// IsZero reports whether p was never set.
func (p Principal) IsZero() bool { return p.raw == "" }

// Equal compares two principals byte for byte.
func (p Principal) Equal(o Principal) bool { return p.raw == o.raw }

// Text returns the canonical textual form: base32 of crc32 || bytes, lowercase,
// grouped by five characters.
func (p Principal) Text() string {
	buf := make([]byte, 4+len(p.raw))
	binary.BigEndian.PutUint32(buf, crc32.ChecksumIEEE([]byte(p.raw)))
	copy(buf[4:], p.raw)
	enc := strings.ToLower(principalEncoding.EncodeToString(buf))

	var sb strings.Builder
	for i := 0; i < len(enc); i += 5 {
		if i > 0 {
			sb.WriteByte('-')
		}
		end := min(i+5, len(enc))
		sb.WriteString(enc[i:end])
	}
	return sb.String()
}

// String implements fmt.Stringer.
func (p Principal) String() string { return p.Text() }

// MarshalText implements encoding.TextMarshaler.
func (p Principal) MarshalText() ([]byte, error) { return []byte(p.Text()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Principal) UnmarshalText(text []byte) error {
	parsed, err := ParsePrincipal(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePrincipal decodes the canonical textual form and verifies its checksum.
func ParsePrincipal(text string) (Principal, error) {
	compact := strings.ReplaceAll(text, "-", "")
	buf, err := principalEncoding.DecodeString(strings.ToUpper(compact))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidPrincipal, err)
	}
	if len(buf) < 4 {
		return Principal{}, fmt.Errorf("%w: too short", ErrInvalidPrincipal)
	}
	p, err := PrincipalFromBytes(buf[4:])
	if err != nil {
		return Principal{}, err
	}
	if binary.BigEndian.Uint32(buf[:4]) != crc32.ChecksumIEEE(buf[4:]) {
		return Principal{}, fmt.Errorf("%w: checksum mismatch", ErrInvalidPrincipal)
	}
	if p.Text() != strings.ToLower(text) {
		return Principal{}, fmt.Errorf("%w: not in canonical form", ErrInvalidPrincipal)
	}
	return p, nil
}

// MustParsePrincipal is ParsePrincipal for constants; it panics on error.
func MustParsePrincipal(text string) Principal {
	p, err := ParsePrincipal(text)
	if err != nil {
		panic(err)
	}
	return p
}
