package interfaces

import domaintypes "tipjar/internal/domain/types"

// IdentityFactory creates the identities a session can hold.
type IdentityFactory interface {
	NewEphemeral() (Identity, domaintypes.IdentityMaterial, error)
	NewAnonymous() Identity
	FromMaterial(m domaintypes.IdentityMaterial) (Identity, error)
	// ImportPEM validates an external key container and proves it can sign.
	ImportPEM(pem []byte) (Identity, domaintypes.IdentityMaterial, error)
}
