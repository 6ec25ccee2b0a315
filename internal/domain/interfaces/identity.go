package interfaces

import (
	"context"
	"time"

	domaintypes "tipjar/internal/domain/types"
)

// Identity is a signing capability bound to a principal.
type Identity interface {
	Principal() domaintypes.Principal
	// PublicKeyDER is nil for the anonymous identity.
	PublicKeyDER() []byte
	Sign(msg []byte) ([]byte, error)
}

// LoginConfig is passed to the identity provider's interactive flow.
type LoginConfig struct {
	// MaxTimeToLive is the requested session validity; providers may cap it.
	MaxTimeToLive time.Duration
}

// IdentityProvider is the third-party login collaborator.
type IdentityProvider interface {
	IsAuthenticated(ctx context.Context) (bool, error)
	GetIdentity(ctx context.Context) (Identity, error)
	Login(ctx context.Context, cfg LoginConfig) error
	Logout(ctx context.Context) error
}
