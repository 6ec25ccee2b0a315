package store

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	tjcrypto "tipjar/internal/crypto"
	"tipjar/internal/domain"
)

// recordVersion is written by SaveIdentity. Older shapes are migrated on read:
//
//	v0: ["<public key hex>", "<secret key hex>"]
//	v1: {"identity": "<v0 JSON as a string>", "type": "temp"|"imported"|"anonymous"}
//	v2: {"version": 2, "kind": ..., "identity_material": {...}}
const recordVersion = 2

var errAbsent = errors.New("no usable identity record")

type materialV2 struct {
	PublicKey string `json:"public_key"` // hex DER
	SecretKey string `json:"secret_key"` // hex, 64 bytes (seed || public)
}

type recordV2 struct {
	Version  int                 `json:"version"`
	Kind     domain.IdentityKind `json:"kind"`
	Material materialV2          `json:"identity_material"`
}

type recordV1 struct {
	Identity string `json:"identity"`
	Type     string `json:"type"`
}

func encodeRecord(rec domain.IdentityRecord) ([]byte, error) {
	if !rec.Kind.Valid() {
		return nil, fmt.Errorf("cannot persist identity kind %q", rec.Kind)
	}
	return json.Marshal(recordV2{
		Version: recordVersion,
		Kind:    rec.Kind,
		Material: materialV2{
			PublicKey: hex.EncodeToString(tjcrypto.PublicKeyDER(rec.Material.PublicKey)),
			SecretKey: hex.EncodeToString(rec.Material.SecretKey[:]),
		},
	})
}

// decodeRecord parses any known record shape. It reports whether the record
// was in an older shape and should be rewritten.
func decodeRecord(b []byte) (rec domain.IdentityRecord, migrated bool, err error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return rec, false, errAbsent
	}
	if b[0] == '[' {
		m, err := decodeLegacyMaterial(b)
		if err != nil {
			return rec, false, err
		}
		return domain.IdentityRecord{Kind: domain.KindTemporary, Material: m}, true, nil
	}

	var header struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(b, &header); err != nil {
		return rec, false, err
	}
	switch header.Version {
	case 0:
		return decodeV1(b)
	case recordVersion:
		return decodeV2(b)
	default:
		return rec, false, fmt.Errorf("unsupported identity record version %d", header.Version)
	}
}

func decodeV1(b []byte) (domain.IdentityRecord, bool, error) {
	var v1 recordV1
	if err := json.Unmarshal(b, &v1); err != nil {
		return domain.IdentityRecord{}, false, err
	}
	var kind domain.IdentityKind
	switch v1.Type {
	case "temp", "":
		kind = domain.KindTemporary
	case "imported":
		kind = domain.KindImported
	default:
		return domain.IdentityRecord{}, false, errAbsent
	}
	m, err := decodeLegacyMaterial([]byte(v1.Identity))
	if err != nil {
		return domain.IdentityRecord{}, false, err
	}
	return domain.IdentityRecord{Kind: kind, Material: m}, true, nil
}

func decodeV2(b []byte) (domain.IdentityRecord, bool, error) {
	var v2 recordV2
	if err := json.Unmarshal(b, &v2); err != nil {
		return domain.IdentityRecord{}, false, err
	}
	if !v2.Kind.Valid() {
		return domain.IdentityRecord{}, false, errAbsent
	}
	m, err := decodeMaterial(v2.Material.PublicKey, v2.Material.SecretKey)
	if err != nil {
		return domain.IdentityRecord{}, false, err
	}
	return domain.IdentityRecord{Kind: v2.Kind, Material: m}, false, nil
}

func decodeLegacyMaterial(b []byte) (domain.IdentityMaterial, error) {
	var pair []string
	if err := json.Unmarshal(b, &pair); err != nil {
		return domain.IdentityMaterial{}, err
	}
	if len(pair) != 2 {
		return domain.IdentityMaterial{}, fmt.Errorf("legacy identity has %d parts", len(pair))
	}
	return decodeMaterial(pair[0], pair[1])
}

// decodeMaterial accepts a DER or raw public key and a 32-byte seed or
// 64-byte secret key, all hex encoded.
func decodeMaterial(pubHex, secretHex string) (domain.IdentityMaterial, error) {
	pubRaw, err := hex.DecodeString(pubHex)
	if err != nil {
		return domain.IdentityMaterial{}, err
	}
	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return domain.IdentityMaterial{}, err
	}
	defer tjcrypto.Wipe(secret)

	var pub domain.Ed25519Public
	switch len(pubRaw) {
	case len(pub):
		copy(pub[:], pubRaw)
	default:
		if pub, err = tjcrypto.ParsePublicKeyDER(pubRaw); err != nil {
			return domain.IdentityMaterial{}, err
		}
	}

	if len(secret) != 32 && len(secret) != 64 {
		return domain.IdentityMaterial{}, fmt.Errorf("secret key has %d bytes", len(secret))
	}
	priv, derived, err := tjcrypto.Ed25519FromSeed(secret[:32])
	if err != nil {
		return domain.IdentityMaterial{}, err
	}
	if derived != pub {
		return domain.IdentityMaterial{}, errors.New("public key does not match secret key")
	}
	return domain.IdentityMaterial{PublicKey: pub, SecretKey: priv}, nil
}
