package identity

import (
	"errors"
	"time"

	"tipjar/internal/crypto"
	"tipjar/internal/domain"
)

// ErrAnonymousSign is returned when the anonymous identity is asked to sign.
var ErrAnonymousSign = errors.New("anonymous identity cannot sign")

// Ed25519 is a key pair identity.
type Ed25519 struct {
	priv      domain.Ed25519Private
	pub       domain.Ed25519Public
	der       []byte
	principal domain.Principal
}

// NewEd25519 wraps existing key material.
func NewEd25519(m domain.IdentityMaterial) *Ed25519 {
	der := crypto.PublicKeyDER(m.PublicKey)
	return &Ed25519{
		priv:      m.SecretKey,
		pub:       m.PublicKey,
		der:       der,
		principal: domain.SelfAuthenticatingPrincipal(der),
	}
}

func (e *Ed25519) Principal() domain.Principal { return e.principal }

func (e *Ed25519) PublicKeyDER() []byte { return append([]byte(nil), e.der...) }

func (e *Ed25519) Sign(msg []byte) ([]byte, error) { return crypto.SignEd25519(e.priv, msg), nil }

// Material returns the serialisable key pair.
func (e *Ed25519) Material() domain.IdentityMaterial {
	return domain.IdentityMaterial{PublicKey: e.pub, SecretKey: e.priv}
}

// Anonymous is the keyless identity.
type Anonymous struct{}

func (Anonymous) Principal() domain.Principal { return domain.AnonymousPrincipal() }

func (Anonymous) PublicKeyDER() []byte { return nil }

func (Anonymous) Sign([]byte) ([]byte, error) { return nil, ErrAnonymousSign }

// Delegation is the root key's endorsement of a session key.
type Delegation struct {
	SessionKeyDER []byte
	Expiration    time.Time
	Signature     []byte
}

// DelegationMessage is the byte string a root key signs to endorse a session key.
func DelegationMessage(sessionKeyDER []byte, expiration time.Time) []byte {
	msg := make([]byte, 0, len(delegationDomain)+len(sessionKeyDER)+20)
	msg = append(msg, delegationDomain...)
	msg = append(msg, sessionKeyDER...)
	msg = expiration.UTC().AppendFormat(msg, time.RFC3339)
	return msg
}

const delegationDomain = "\x1Aic-request-auth-delegation"

// Delegated signs with a session key on behalf of a root principal.
type Delegated struct {
	rootDER    []byte
	principal  domain.Principal
	session    *Ed25519
	delegation Delegation
}

// NewDelegated endorses session with root until expiration.
func NewDelegated(root, session *Ed25519, expiration time.Time) *Delegated {
	expiration = expiration.UTC().Truncate(time.Second)
	sessionDER := session.PublicKeyDER()
	sig, _ := root.Sign(DelegationMessage(sessionDER, expiration))
	return &Delegated{
		rootDER:   root.PublicKeyDER(),
		principal: root.Principal(),
		session:   session,
		delegation: Delegation{
			SessionKeyDER: sessionDER,
			Expiration:    expiration,
			Signature:     sig,
		},
	}
}

// Principal is the root key's principal, not the session key's.
func (d *Delegated) Principal() domain.Principal { return d.principal }

// PublicKeyDER returns the root public key.
func (d *Delegated) PublicKeyDER() []byte { return append([]byte(nil), d.rootDER...) }

func (d *Delegated) Sign(msg []byte) ([]byte, error) { return d.session.Sign(msg) }

// Delegation returns the endorsement to attach to signed requests.
func (d *Delegated) Delegation() Delegation { return d.delegation }

// Expired reports whether the delegation is no longer valid at now.
func (d *Delegated) Expired(now time.Time) bool { return !now.Before(d.delegation.Expiration) }

var (
	_ domain.Identity = (*Ed25519)(nil)
	_ domain.Identity = Anonymous{}
	_ domain.Identity = (*Delegated)(nil)
)
