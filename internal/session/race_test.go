package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipjar/internal/domain"
	"tipjar/internal/identity"
	"tipjar/internal/session"
)

// blockingDelegate parks every Delegate call until release is closed.
func blockingDelegate(h *harness) (entered <-chan struct{}, release chan struct{}) {
	in := make(chan struct{}, 1)
	release = make(chan struct{})
	h.svc.delegateFn = func(_, _ domain.Principal) (domain.UserInfo, error) {
		in <- struct{}{}
		<-release
		return domain.UserInfo{}, nil
	}
	return in, release
}

func TestImport_SupersededByLocalTransition(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start(context.Background()))
	entered, release := blockingDelegate(h)
	_, m := newIdentity(t)

	done := make(chan error, 1)
	go func() { done <- h.c.Import(context.Background(), identity.EncodePEM(m)) }()
	<-entered

	require.NoError(t, h.c.SwitchToTemporary())
	temp := h.c.Snapshot()
	close(release)

	assert.ErrorIs(t, <-done, session.ErrSuperseded)
	assert.Equal(t, temp, h.c.Snapshot())
	rec := h.store.record()
	require.NotNil(t, rec)
	assert.Equal(t, domain.KindTemporary, rec.Kind, "the stale import is not persisted")
}

func TestLogin_SupersededByImport(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start(context.Background()))
	authID, _ := newIdentity(t)
	h.provider.id = authID

	entered := make(chan struct{}, 2)
	releaseLogin, releaseImport := make(chan struct{}), make(chan struct{})
	h.svc.delegateFn = func(_, target domain.Principal) (domain.UserInfo, error) {
		entered <- struct{}{}
		if target.Equal(authID.Principal()) {
			<-releaseLogin
		} else {
			<-releaseImport
		}
		return domain.UserInfo{}, nil
	}

	loginDone := make(chan error, 1)
	go func() { loginDone <- h.c.Login(context.Background()) }()
	<-entered

	_, m := newIdentity(t)
	importDone := make(chan error, 1)
	go func() { importDone <- h.c.Import(context.Background(), identity.EncodePEM(m)) }()
	<-entered

	close(releaseLogin)
	require.NoError(t, <-loginDone)
	close(releaseImport)
	assert.ErrorIs(t, <-importDone, session.ErrSuperseded)

	assert.Equal(t, domain.StateAuthenticated, h.c.State())
	assert.True(t, h.c.Snapshot().Principal.Equal(authID.Principal()))
	assert.Nil(t, h.store.record())
}

func TestImport_RejectionAfterSupersedeKeepsStatus(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start(context.Background()))
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	h.svc.delegateFn = func(_, _ domain.Principal) (domain.UserInfo, error) {
		entered <- struct{}{}
		<-release
		return domain.UserInfo{}, &domain.DelegateError{Kind: domain.DelegateAccessDenied}
	}
	_, m := newIdentity(t)

	done := make(chan error, 1)
	go func() { done <- h.c.Import(context.Background(), identity.EncodePEM(m)) }()
	<-entered

	require.NoError(t, h.c.SwitchToTemporary())
	status := h.c.Status()
	close(release)

	err := <-done
	assert.ErrorIs(t, err, session.ErrSuperseded)
	assert.NotErrorIs(t, err, session.ErrDelegationRejected)
	assert.Equal(t, domain.StateTemporary, h.c.State())
	assert.Equal(t, status, h.c.Status())
}

func TestSubscriber_ReadsControllerWhileAnotherTransitionCommits(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start(context.Background()))

	inCallback := make(chan struct{})
	proceed := make(chan struct{})
	var seenStatus string
	h.c.Subscribe(func(s session.Session) {
		if s.State != domain.StateTemporary {
			return
		}
		close(inCallback)
		<-proceed
		seenStatus = h.c.Status()
		_ = h.c.Snapshot()
		_, _ = h.c.GetUserInfo()
	})

	tempDone := make(chan error, 1)
	go func() { tempDone <- h.c.SwitchToTemporary() }()
	<-inCallback

	logoutDone := make(chan error, 1)
	go func() { logoutDone <- h.c.Logout(context.Background()) }()
	require.Eventually(t, h.c.IsAnonymous, 3*time.Second, 5*time.Millisecond)
	close(proceed)

	for _, done := range []chan error{tempDone, logoutDone} {
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Fatal("transition did not return")
		}
	}

	assert.NotEmpty(t, seenStatus)
	require.Equal(t, 3, h.notified())
	assert.Equal(t, domain.StateAnonymous, h.lastNotified().State, "sessions are delivered in commit order")
}
