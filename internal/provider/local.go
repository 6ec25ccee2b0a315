package provider

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	tjcrypto "tipjar/internal/crypto"
	"tipjar/internal/domain"
	"tipjar/internal/identity"
)

// Keys used in the KV.
const (
	RootKey    = "provider_root"
	SessionKey = "provider_session"
)

// MaxTimeToLive caps every login, whatever the caller asks for.
const MaxTimeToLive = 8 * 24 * time.Hour

var (
	// ErrNotAuthenticated is returned by GetIdentity without a live session.
	ErrNotAuthenticated = errors.New("provider: not authenticated")
	// ErrLoginDeclined is returned when the approver refuses a login.
	ErrLoginDeclined = errors.New("provider: login declined")
)

// Approver confirms an interactive login for principal. A non-nil error aborts it.
type Approver func(ctx context.Context, principal domain.Principal) error

// Local is a KV-backed identity provider; it implements domain.IdentityProvider.
type Local struct {
	kv      domain.KV
	factory *identity.Factory
	approve Approver
	now     func() time.Time
	log     logrus.FieldLogger
}

// Option configures Local.
type Option func(*Local)

// WithApprover installs the interactive confirmation step.
func WithApprover(a Approver) Option { return func(l *Local) { l.approve = a } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(l *Local) { l.now = now } }

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option { return func(l *Local) { l.log = log } }

// WithFactory replaces the key factory.
func WithFactory(f *identity.Factory) Option { return func(l *Local) { l.factory = f } }

// NewLocal returns a provider persisting into kv. Wrap kv in a store.SealedKV
// to keep keys encrypted at rest.
func NewLocal(kv domain.KV, opts ...Option) *Local {
	l := &Local{
		kv:      kv,
		factory: identity.NewFactory(),
		now:     time.Now,
		log:     logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

type keyPair struct {
	PublicKey string `json:"public_key"`
	SecretKey string `json:"secret_key"`
}

type sessionRecord struct {
	Key        keyPair   `json:"key"`
	Expiration time.Time `json:"expiration"`
}

func encodeKeyPair(m domain.IdentityMaterial) keyPair {
	return keyPair{
		PublicKey: hex.EncodeToString(tjcrypto.PublicKeyDER(m.PublicKey)),
		SecretKey: hex.EncodeToString(m.SecretKey[:]),
	}
}

func (l *Local) decodeKeyPair(k keyPair) (*identity.Ed25519, error) {
	der, err := hex.DecodeString(k.PublicKey)
	if err != nil {
		return nil, err
	}
	pub, err := tjcrypto.ParsePublicKeyDER(der)
	if err != nil {
		return nil, err
	}
	sk, err := hex.DecodeString(k.SecretKey)
	if err != nil {
		return nil, err
	}
	var m domain.IdentityMaterial
	if len(sk) != len(m.SecretKey) {
		return nil, fmt.Errorf("secret key is %d bytes", len(sk))
	}
	m.PublicKey = pub
	copy(m.SecretKey[:], sk)
	tjcrypto.Wipe(sk)

	if _, err := l.factory.FromMaterial(m); err != nil {
		tjcrypto.WipeMaterial(&m)
		return nil, err
	}
	return identity.NewEd25519(m), nil
}

func (l *Local) loadJSON(key string, v any) (bool, error) {
	raw, ok, err := l.kv.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("provider: decode %s: %w", key, err)
	}
	return true, nil
}

func (l *Local) storeJSON(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return l.kv.Put(key, raw)
}

// root returns the installation's root key, creating it on first use.
func (l *Local) root(create bool) (*identity.Ed25519, error) {
	var kp keyPair
	ok, err := l.loadJSON(RootKey, &kp)
	if err != nil {
		return nil, err
	}
	if ok {
		return l.decodeKeyPair(kp)
	}
	if !create {
		return nil, ErrNotAuthenticated
	}
	_, m, err := l.factory.NewEphemeral()
	if err != nil {
		return nil, err
	}
	if err := l.storeJSON(RootKey, encodeKeyPair(m)); err != nil {
		return nil, err
	}
	id := identity.NewEd25519(m)
	l.log.WithField("principal", id.Principal().Text()).Info("provider: created root key")
	return id, nil
}

func (l *Local) session() (*identity.Ed25519, time.Time, bool, error) {
	var rec sessionRecord
	ok, err := l.loadJSON(SessionKey, &rec)
	if err != nil || !ok {
		return nil, time.Time{}, false, err
	}
	id, err := l.decodeKeyPair(rec.Key)
	if err != nil {
		return nil, time.Time{}, false, err
	}
	return id, rec.Expiration, true, nil
}

// IsAuthenticated reports whether an unexpired session exists.
func (l *Local) IsAuthenticated(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, exp, ok, err := l.session()
	if err != nil {
		return false, err
	}
	return ok && l.now().Before(exp), nil
}

// GetIdentity returns the session identity acting for the root principal.
func (l *Local) GetIdentity(ctx context.Context) (domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess, exp, ok, err := l.session()
	if err != nil {
		return nil, err
	}
	if !ok || !l.now().Before(exp) {
		return nil, ErrNotAuthenticated
	}
	root, err := l.root(false)
	if err != nil {
		return nil, err
	}
	return identity.NewDelegated(root, sess, exp), nil
}

// Login mints a session key valid for cfg.MaxTimeToLive, capped at MaxTimeToLive.
func (l *Local) Login(ctx context.Context, cfg domain.LoginConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	root, err := l.root(true)
	if err != nil {
		return err
	}
	if l.approve != nil {
		if err := l.approve(ctx, root.Principal()); err != nil {
			return fmt.Errorf("%w: %v", ErrLoginDeclined, err)
		}
	}

	ttl := cfg.MaxTimeToLive
	if ttl <= 0 || ttl > MaxTimeToLive {
		ttl = MaxTimeToLive
	}
	_, m, err := l.factory.NewEphemeral()
	if err != nil {
		return err
	}
	exp := l.now().Add(ttl).UTC().Truncate(time.Second)
	if err := l.storeJSON(SessionKey, sessionRecord{Key: encodeKeyPair(m), Expiration: exp}); err != nil {
		return err
	}
	l.log.WithFields(logrus.Fields{
		"principal":  root.Principal().Text(),
		"expiration": exp,
	}).Info("provider: login")
	return nil
}

// Logout drops the session key. The root key, and so the principal, survives.
func (l *Local) Logout(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.kv.Delete(SessionKey)
}

var _ domain.IdentityProvider = (*Local)(nil)
