package session

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"tipjar/internal/addressing"
	"tipjar/internal/domain"
)

// DefaultLoginTTL is requested from the provider when Config.LoginTTL is zero.
const DefaultLoginTTL = 30 * 24 * time.Hour

// Session is an immutable view of the active identity.
type Session struct {
	Identity   domain.Identity
	State      domain.SessionState
	Principal  domain.Principal
	Account    domain.Account
	Client     domain.ServiceClient
	Generation uint64
}

// Recorder receives transition and delegation outcomes.
type Recorder interface {
	Transition(state, outcome string)
	Delegation(result string)
	ActiveState(state string, all []string)
}

// Config wires a Controller to its collaborators.
type Config struct {
	Provider domain.IdentityProvider
	Store    domain.IdentityStore
	Factory  domain.IdentityFactory
	Dialer   domain.ServiceDialer

	// Service owns every deposit account derived for a session.
	Service domain.Principal
	// Minting converts ICP sent to its accounts into cycles.
	Minting domain.Principal
	// LoginTTL is the session validity requested on Login.
	LoginTTL time.Duration

	Recorder Recorder
	Log      logrus.FieldLogger
}

// Controller is the single owner of the Session. It is safe for concurrent use.
type Controller struct {
	mu     sync.Mutex
	sess   Session
	gen    uint64
	users  map[string]domain.UserInfo // keyed by principal text
	status string
	// pending holds committed sessions not yet handed to subscribers.
	pending []Session

	notifyMu sync.Mutex
	subs     []subscriber
	nextSub  int

	toppingUp atomic.Bool

	provider domain.IdentityProvider
	store    domain.IdentityStore
	factory  domain.IdentityFactory
	dialer   domain.ServiceDialer
	service  domain.Principal
	minting  domain.Principal
	loginTTL time.Duration
	rec      Recorder
	log      logrus.FieldLogger
}

type subscriber struct {
	id int
	fn func(Session)
}

// New validates cfg and returns a Controller holding an anonymous session.
func New(cfg Config) (*Controller, error) {
	switch {
	case cfg.Provider == nil:
		return nil, errors.New("session: provider is required")
	case cfg.Store == nil:
		return nil, errors.New("session: identity store is required")
	case cfg.Factory == nil:
		return nil, errors.New("session: identity factory is required")
	case cfg.Dialer == nil:
		return nil, errors.New("session: service dialer is required")
	}
	c := &Controller{
		users:    make(map[string]domain.UserInfo),
		provider: cfg.Provider,
		store:    cfg.Store,
		factory:  cfg.Factory,
		dialer:   cfg.Dialer,
		service:  cfg.Service,
		minting:  cfg.Minting,
		loginTTL: cfg.LoginTTL,
		rec:      cfg.Recorder,
		log:      cfg.Log,
	}
	if c.loginTTL <= 0 {
		c.loginTTL = DefaultLoginTTL
	}
	if c.rec == nil {
		c.rec = nopRecorder{}
	}
	if c.log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		c.log = quiet
	}
	c.install(c.factory.NewAnonymous(), domain.StateAnonymous)
	return c, nil
}

// install replaces the session. Callers hold mu, except New.
func (c *Controller) install(id domain.Identity, state domain.SessionState) Session {
	c.gen++
	p := id.Principal()
	c.sess = Session{
		Identity:   id,
		State:      state,
		Principal:  p,
		Account:    addressing.SessionAccount(c.service, p),
		Client:     c.dialer.Dial(id),
		Generation: c.gen,
	}
	for k := range c.users {
		if k != p.Text() {
			delete(c.users, k)
		}
	}
	c.status = banner(state, p)
	c.rec.ActiveState(state.String(), allStates)
	c.log.WithFields(logrus.Fields{
		"state":     state.String(),
		"principal": p.Text(),
	}).Info("session: adopted identity")
	return c.sess
}

// commit installs a session, merges seed into its cache and queues it for
// subscribers. Callers hold mu; commit releases it before delivery.
func (c *Controller) commit(id domain.Identity, state domain.SessionState, seed *domain.UserInfo) Session {
	s := c.install(id, state)
	if seed != nil {
		c.mergeLocked(s.Principal, *seed)
	}
	c.rec.Transition(state.String(), "ok")
	c.pending = append(c.pending, s)
	c.mu.Unlock()
	c.deliver()
	return s
}

// deliver hands queued sessions to subscribers in commit order. mu is not
// held while a callback runs, so callbacks may read the controller.
func (c *Controller) deliver() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	for {
		c.mu.Lock()
		if len(c.pending) == 0 {
			c.mu.Unlock()
			return
		}
		s := c.pending[0]
		c.pending = c.pending[1:]
		c.mu.Unlock()
		for _, sub := range c.subscribers() {
			sub.fn(s)
		}
	}
}

func (c *Controller) subscribers() []subscriber {
	return append([]subscriber(nil), c.subs...)
}

// Subscribe registers fn to run after every successful transition, in commit
// order. Callbacks never run concurrently with each other. They may read the
// controller but must not start a transition or subscribe synchronously. The returned func removes the subscription.
func (c *Controller) Subscribe(fn func(Session)) (unsubscribe func()) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.nextSub++
	id := c.nextSub
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	return func() {
		c.notifyMu.Lock()
		defer c.notifyMu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// Snapshot returns the current session.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

// State returns the current session state.
func (c *Controller) State() domain.SessionState { return c.Snapshot().State }

func (c *Controller) IsAnonymous() bool { return c.State() == domain.StateAnonymous }

func (c *Controller) IsTemporary() bool { return c.State() == domain.StateTemporary }

// IsAuthenticated is true for identities the service has accepted: Authenticated and Imported.
func (c *Controller) IsAuthenticated() bool {
	s := c.State()
	return s == domain.StateAuthenticated || s == domain.StateImported
}

// AccountIDHex is the hex form of the session's deposit account id.
func (c *Controller) AccountIDHex() string {
	return addressing.AccountIDHex(c.Snapshot().Account.AccountID)
}

// ICRCAccount is the session's deposit account on the cycles ledger.
func (c *Controller) ICRCAccount() domain.ICRCAccount { return c.Snapshot().Account.ICRCAccount }

// ICRCAccountID is the textual form of ICRCAccount.
func (c *Controller) ICRCAccountID() string { return c.Snapshot().Account.ICRCAccountID }

var allStates = []string{
	domain.StateAnonymous.String(),
	domain.StateTemporary.String(),
	domain.StateAuthenticated.String(),
	domain.StateImported.String(),
}

type nopRecorder struct{}

func (nopRecorder) Transition(string, string)    {}
func (nopRecorder) Delegation(string)            {}
func (nopRecorder) ActiveState(string, []string) {}
