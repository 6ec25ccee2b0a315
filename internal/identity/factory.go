package identity

import (
	"crypto/rand"
	"io"

	"tipjar/internal/crypto"
	"tipjar/internal/domain"
)

// Factory builds identities; it implements domain.IdentityFactory.
type Factory struct {
	entropy io.Reader
}

// NewFactory returns a factory drawing entropy from crypto/rand.
func NewFactory() *Factory { return &Factory{entropy: rand.Reader} }

// NewFactoryWithEntropy is NewFactory with a caller-supplied entropy source.
func NewFactoryWithEntropy(r io.Reader) *Factory { return &Factory{entropy: r} }

// NewEphemeral derives a fresh key pair from 32 bytes of entropy.
func (f *Factory) NewEphemeral() (domain.Identity, domain.IdentityMaterial, error) {
	seed, err := crypto.NewSeed(f.entropy)
	if err != nil {
		return nil, domain.IdentityMaterial{}, err
	}
	defer crypto.Wipe(seed)

	priv, pub, err := crypto.Ed25519FromSeed(seed)
	if err != nil {
		return nil, domain.IdentityMaterial{}, err
	}
	m := domain.IdentityMaterial{PublicKey: pub, SecretKey: priv}
	return NewEd25519(m), m, nil
}

// NewAnonymous returns the keyless identity.
func (f *Factory) NewAnonymous() domain.Identity { return Anonymous{} }

// FromMaterial rebuilds a stored identity. The secret key must reproduce the
// stored public key.
func (f *Factory) FromMaterial(m domain.IdentityMaterial) (domain.Identity, error) {
	priv, pub, err := crypto.Ed25519FromSeed(m.SecretKey.Seed())
	if err != nil {
		return nil, err
	}
	if pub != m.PublicKey || priv != m.SecretKey {
		return nil, decodeError("stored public key does not match secret key")
	}
	return NewEd25519(m), nil
}

// ImportPEM decodes a key container, builds the identity and proves it can
// sign. Every failure is a *domain.DecodeError.
func (f *Factory) ImportPEM(data []byte) (domain.Identity, domain.IdentityMaterial, error) {
	seed, pub, err := decodeContainer(data)
	if err != nil {
		return nil, domain.IdentityMaterial{}, err
	}
	defer crypto.Wipe(seed)

	priv, derived, err := crypto.Ed25519FromSeed(seed)
	if err != nil {
		return nil, domain.IdentityMaterial{}, decodeError("%v", err)
	}
	m := domain.IdentityMaterial{PublicKey: pub, SecretKey: priv}
	id := NewEd25519(m)

	sig, err := id.Sign(selfTestMessage)
	if err != nil {
		return nil, domain.IdentityMaterial{}, decodeError("self-test signature failed: %v", err)
	}
	if derived != pub || !crypto.VerifyEd25519(pub, selfTestMessage, sig) {
		return nil, domain.IdentityMaterial{}, decodeError("public key does not match secret key")
	}
	return id, m, nil
}

var _ domain.IdentityFactory = (*Factory)(nil)
