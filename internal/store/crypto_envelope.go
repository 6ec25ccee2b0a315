package store

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	tjcrypto "tipjar/internal/crypto"
)

const (
	// The current supported version of the sealed blob format.
	sealedFormatVersion = 1
)

var (
	// ErrWrongPassphrase is returned when a sealed value cannot be opened.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted identity")

	sealedPrefix = []byte("TJSEAL1\n")
)

// sealed is the JSON structure holding the ciphertext and KDF parameters.
type sealed struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// isSealed reports whether b was produced by seal.
func isSealed(b []byte) bool { return bytes.HasPrefix(b, sealedPrefix) }

// seal derives a key from passphrase and encrypts raw with XChaCha20-Poly1305.
func seal(passphrase string, raw []byte, N, r, p int) ([]byte, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	key, err := scrypt.Key([]byte(passphrase), salt[:], N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer tjcrypto.Wipe(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	ct := aead.Seal(nil, nonce, raw, salt[:])

	out, err := json.Marshal(sealed{
		V:      sealedFormatVersion,
		Salt:   salt[:],
		N:      N,
		R:      r,
		P:      p,
		Nonce:  nonce,
		Cipher: ct,
	})
	if err != nil {
		return nil, err
	}
	return append(append([]byte(nil), sealedPrefix...), out...), nil
}

// open reverses seal.
func open(passphrase string, b []byte) ([]byte, error) {
	if !isSealed(b) {
		return nil, errors.New("not a sealed blob")
	}
	var bl sealed
	if err := json.Unmarshal(b[len(sealedPrefix):], &bl); err != nil {
		return nil, err
	}
	if bl.V > sealedFormatVersion {
		return nil, fmt.Errorf("unsupported sealed version %d", bl.V)
	}

	key, err := scrypt.Key([]byte(passphrase), bl.Salt, bl.N, bl.R, bl.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer tjcrypto.Wipe(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(bl.Nonce) != aead.NonceSize() {
		return nil, ErrWrongPassphrase
	}
	pt, err := aead.Open(nil, bl.Nonce, bl.Cipher, bl.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

// Tunables for scrypt key derivation.
func scryptParamsDefault() (N, r, p int) { return 1 << 15, 8, 1 }
