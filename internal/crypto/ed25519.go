package crypto

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"

	"tipjar/internal/domain"
)

// SeedSize is the entropy an Ed25519 key pair is derived from.
const SeedSize = ed25519.SeedSize

// derPrefix is the SubjectPublicKeyInfo header for an Ed25519 public key.
var derPrefix = []byte{
	0x30, 0x2a, 0x30, 0x05, 0x06, 0x03, 0x2b, 0x65, 0x70, 0x03, 0x21, 0x00,
}

var ErrBadPublicKeyDER = errors.New("not a DER-encoded Ed25519 public key")

// NewSeed draws SeedSize bytes from r (crypto/rand when nil).
func NewSeed(r io.Reader) ([]byte, error) {
	if r == nil {
		r = rand.Reader
	}
	seed := make([]byte, SeedSize)
	if _, err := io.ReadFull(r, seed); err != nil {
		return nil, err
	}
	return seed, nil
}

// Ed25519FromSeed deterministically derives a signing key pair from seed.
func Ed25519FromSeed(seed []byte) (priv domain.Ed25519Private, pub domain.Ed25519Public, err error) {
	if len(seed) != SeedSize {
		return priv, pub, errors.New("ed25519 seed must be 32 bytes")
	}
	sk := ed25519.NewKeyFromSeed(seed)
	copy(priv[:], sk)
	copy(pub[:], sk[SeedSize:])
	Wipe(sk)
	return priv, pub, nil
}

// SignEd25519 signs msg with priv and returns the signature.
func SignEd25519(priv domain.Ed25519Private, msg []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(priv[:]), msg)
}

// VerifyEd25519 verifies sig over msg with pub.
func VerifyEd25519(pub domain.Ed25519Public, msg, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig)
}

// PublicKeyDER wraps pub in its SubjectPublicKeyInfo encoding.
func PublicKeyDER(pub domain.Ed25519Public) []byte {
	out := make([]byte, 0, len(derPrefix)+len(pub))
	out = append(out, derPrefix...)
	return append(out, pub[:]...)
}

// ParsePublicKeyDER is the inverse of PublicKeyDER.
func ParsePublicKeyDER(der []byte) (domain.Ed25519Public, error) {
	var pub domain.Ed25519Public
	if len(der) != len(derPrefix)+len(pub) || !bytes.HasPrefix(der, derPrefix) {
		return pub, ErrBadPublicKeyDER
	}
	copy(pub[:], der[len(derPrefix):])
	return pub, nil
}
