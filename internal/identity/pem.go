package identity

import (
	"bytes"
	"encoding/pem"
	"fmt"

	"tipjar/internal/domain"
)

// PKCS#8 v2 Ed25519 container layout: seed at [16:48], public key at [53:85].
const (
	containerLength = 85
	seedStart       = 16
	seedEnd         = 48
	pubStart        = 53
)

var (
	containerHeader = []byte{
		0x30, 0x53, 0x02, 0x01, 0x01, 0x30, 0x05, 0x06,
		0x03, 0x2b, 0x65, 0x70, 0x04, 0x22, 0x04, 0x20,
	}
	containerPubHeader = []byte{0xa1, 0x23, 0x03, 0x21, 0x00}

	selfTestMessage = []byte{0, 1, 2, 3, 4}
)

func decodeError(format string, args ...any) error {
	return &domain.DecodeError{Cause: fmt.Sprintf(format, args...)}
}

// decodeContainer extracts the key pair from a PEM-wrapped container.
func decodeContainer(data []byte) (seed []byte, pub domain.Ed25519Public, err error) {
	block, _ := pem.Decode(bytes.TrimSpace(data))
	if block == nil {
		return nil, pub, decodeError("no PEM block found")
	}
	buf := block.Bytes
	if len(buf) != containerLength {
		return nil, pub, decodeError("expecting byte length %d but got %d", containerLength, len(buf))
	}
	seed = append([]byte(nil), buf[seedStart:seedEnd]...)
	copy(pub[:], buf[pubStart:])
	return seed, pub, nil
}

// EncodePEM writes m in the container format ImportPEM reads.
func EncodePEM(m domain.IdentityMaterial) []byte {
	buf := make([]byte, 0, containerLength)
	buf = append(buf, containerHeader...)
	buf = append(buf, m.SecretKey.Seed()...)
	buf = append(buf, containerPubHeader...)
	buf = append(buf, m.PublicKey[:]...)
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: buf})
}
