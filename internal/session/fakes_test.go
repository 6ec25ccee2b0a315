package session_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"tipjar/internal/domain"
	"tipjar/internal/identity"
	"tipjar/internal/session"
)

var (
	service = domain.MustParsePrincipal("ryjl3-tyaaa-aaaaa-aaaba-cai")
	minting = domain.MustParsePrincipal("rkp4c-7iaaa-aaaaa-aaaca-cai")
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeProvider is a scripted identity provider.
type fakeProvider struct {
	mu        sync.Mutex
	authed    bool
	id        domain.Identity
	loginErr  error
	logins    int
	logouts   int
	lastTTL   time.Duration
	checkErr  error
	getIDErrs error
}

func (p *fakeProvider) IsAuthenticated(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.authed, p.checkErr
}

func (p *fakeProvider) GetIdentity(context.Context) (domain.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.getIDErrs != nil {
		return nil, p.getIDErrs
	}
	if !p.authed {
		return nil, errors.New("not authenticated")
	}
	return p.id, nil
}

func (p *fakeProvider) Login(_ context.Context, cfg domain.LoginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logins++
	p.lastTTL = cfg.MaxTimeToLive
	if p.loginErr != nil {
		return p.loginErr
	}
	p.authed = true
	return nil
}

func (p *fakeProvider) Logout(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logouts++
	p.authed = false
	return nil
}

// memStore is an in-memory identity store that counts writes.
type memStore struct {
	mu     sync.Mutex
	rec    *domain.IdentityRecord
	saves  int
	erases int
}

func (s *memStore) SaveIdentity(rec domain.IdentityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.rec = &rec
	return nil
}

func (s *memStore) LoadIdentity() (domain.IdentityRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return domain.IdentityRecord{}, false
	}
	return *s.rec, true
}

func (s *memStore) EraseIdentity() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.erases++
	s.rec = nil
	return nil
}

func (s *memStore) record() *domain.IdentityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec
}

func (s *memStore) writes() (saves, erases int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves, s.erases
}

// delegateCall is one observed Delegate invocation.
type delegateCall struct {
	caller, target domain.Principal
}

// fakeService backs every client the fake dialer hands out.
type fakeService struct {
	mu         sync.Mutex
	delegateFn func(caller, target domain.Principal) (domain.UserInfo, error)
	allocateFn func(caller domain.Principal, req domain.AllocateRequest) (domain.UserInfo, error)
	aboutMe    func(caller domain.Principal) (domain.UserInfo, error)
	transferFn func(caller domain.Principal, req domain.TransferRequest) (uint64, error)
	notifyFn   func(caller domain.Principal, req domain.NotifyRequest) (uint64, error)
	icp        uint64
	calls      []delegateCall
}

func (f *fakeService) Dial(id domain.Identity) domain.ServiceClient {
	return &fakeClient{svc: f, caller: id.Principal()}
}

func (f *fakeService) delegations() []delegateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]delegateCall(nil), f.calls...)
}

type fakeClient struct {
	svc    *fakeService
	caller domain.Principal
}

func (c *fakeClient) Principal() domain.Principal { return c.caller }

func (c *fakeClient) Delegate(_ context.Context, target domain.Principal) (domain.UserInfo, error) {
	c.svc.mu.Lock()
	c.svc.calls = append(c.svc.calls, delegateCall{caller: c.caller, target: target})
	fn := c.svc.delegateFn
	c.svc.mu.Unlock()
	if fn == nil {
		return domain.UserInfo{}, &domain.DelegateError{Kind: domain.DelegateUserNotFound}
	}
	return fn(c.caller, target)
}

func (c *fakeClient) Allocate(_ context.Context, req domain.AllocateRequest) (domain.UserInfo, error) {
	if c.svc.allocateFn == nil {
		return domain.UserInfo{}, errors.New("not scripted")
	}
	return c.svc.allocateFn(c.caller, req)
}

func (c *fakeClient) AboutMe(context.Context) (domain.UserInfo, error) {
	if c.svc.aboutMe == nil {
		return domain.UserInfo{}, nil
	}
	return c.svc.aboutMe(c.caller)
}

func (c *fakeClient) Stats(context.Context) (domain.Stats, error) { return domain.Stats{}, nil }

func (c *fakeClient) Ping(context.Context) error { return nil }

func (c *fakeClient) AccountBalance(context.Context, domain.AccountID) (uint64, error) {
	c.svc.mu.Lock()
	defer c.svc.mu.Unlock()
	return c.svc.icp, nil
}

func (c *fakeClient) ICRC1BalanceOf(context.Context, domain.ICRCAccount) (uint64, error) {
	return 0, nil
}

func (c *fakeClient) Transfer(_ context.Context, req domain.TransferRequest) (uint64, error) {
	if c.svc.transferFn == nil {
		return 0, errors.New("not scripted")
	}
	return c.svc.transferFn(c.caller, req)
}

func (c *fakeClient) NotifyTopUp(_ context.Context, req domain.NotifyRequest) (uint64, error) {
	if c.svc.notifyFn == nil {
		return 0, errors.New("not scripted")
	}
	return c.svc.notifyFn(c.caller, req)
}

type harness struct {
	c        *session.Controller
	provider *fakeProvider
	store    *memStore
	svc      *fakeService

	seenMu sync.Mutex
	seen   []session.Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		provider: &fakeProvider{},
		store:    &memStore{},
		svc:      &fakeService{},
	}
	c, err := session.New(session.Config{
		Provider: h.provider,
		Store:    h.store,
		Factory:  identity.NewFactory(),
		Dialer:   h.svc,
		Service:  service,
		Minting:  minting,
		Log:      quietLogger(),
	})
	require.NoError(t, err)
	h.c = c

	c.Subscribe(func(s session.Session) {
		h.seenMu.Lock()
		defer h.seenMu.Unlock()
		h.seen = append(h.seen, s)
	})
	return h
}

func (h *harness) notified() int {
	h.seenMu.Lock()
	defer h.seenMu.Unlock()
	return len(h.seen)
}

func (h *harness) lastNotified() session.Session {
	h.seenMu.Lock()
	defer h.seenMu.Unlock()
	return h.seen[len(h.seen)-1]
}

func newIdentity(t *testing.T) (*identity.Ed25519, domain.IdentityMaterial) {
	t.Helper()
	_, m, err := identity.NewFactory().NewEphemeral()
	require.NoError(t, err)
	return identity.NewEd25519(m), m
}
