package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"tipjar/internal/domain"
)

// Start upgrades the initial anonymous session. A live provider session is
// tried first; if there is none, or the service rejects it, the local identity
// record is restored. Only ErrSuperseded is returned; other failures are
// logged and leave a usable session behind.
func (c *Controller) Start(ctx context.Context) error {
	gen := c.generation()

	authed, err := c.provider.IsAuthenticated(ctx)
	if err != nil {
		c.log.WithError(err).Warn("session: provider check failed")
	}
	if err == nil && authed {
		id, err := c.provider.GetIdentity(ctx)
		switch {
		case err != nil:
			c.log.WithError(err).Warn("session: provider identity unavailable")
		default:
			_, err = c.delegateTo(ctx, gen, id, domain.StateAuthenticated, nil)
			if err == nil || errors.Is(err, ErrSuperseded) {
				return err
			}
			c.log.WithError(err).Warn("session: provider identity not accepted, restoring local identity")
		}
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.restoreLocked()
	return nil
}

// restoreLocked adopts the stored identity or falls back to anonymous.
// Callers hold mu; it is released.
func (c *Controller) restoreLocked() {
	rec, ok := c.store.LoadIdentity()
	if ok && rec.Kind.Valid() {
		id, err := c.factory.FromMaterial(rec.Material)
		if err == nil {
			c.commit(id, rec.Kind.State(), nil)
			return
		}
		c.log.WithError(err).Warn("session: stored identity unusable")
	}
	c.anonymousLocked()
}

// anonymousLocked erases the local record and adopts the anonymous identity.
// Callers hold mu; it is released.
func (c *Controller) anonymousLocked() {
	if err := c.store.EraseIdentity(); err != nil {
		c.log.WithError(err).Warn("session: erase local identity failed")
	}
	c.commit(c.factory.NewAnonymous(), domain.StateAnonymous, nil)
}

// Login runs the provider's interactive flow and adopts the resulting
// identity once the service accepts it. It does nothing when the session is
// already authenticated.
func (c *Controller) Login(ctx context.Context) error {
	c.mu.Lock()
	gen, state := c.gen, c.sess.State
	c.mu.Unlock()
	if state == domain.StateAuthenticated || state == domain.StateImported {
		return nil
	}

	if err := c.provider.Login(ctx, domain.LoginConfig{MaxTimeToLive: c.loginTTL}); err != nil {
		return c.loginFailed(gen, err)
	}
	id, err := c.provider.GetIdentity(ctx)
	if err != nil {
		return c.loginFailed(gen, err)
	}
	_, err = c.delegateTo(ctx, gen, id, domain.StateAuthenticated, nil)
	return err
}

func (c *Controller) loginFailed(gen uint64, err error) error {
	err = fmt.Errorf("%w: %w", ErrLoginFailed, err)
	if !c.failCurrent(gen, failureMessage(err)) {
		c.rec.Transition(domain.StateAuthenticated.String(), "superseded")
		c.log.WithError(err).Info("session: failed login superseded")
		return ErrSuperseded
	}
	c.rec.Transition(domain.StateAuthenticated.String(), "failed")
	c.log.WithError(err).Warn("session: login failed")
	return err
}

// Import decodes key material and adopts it once the service accepts it. The
// accepted identity is persisted as kind imported.
func (c *Controller) Import(ctx context.Context, pemData []byte) error {
	gen := c.generation()

	id, m, err := c.factory.ImportPEM(pemData)
	if err != nil {
		c.rec.Transition(domain.StateImported.String(), "decode_error")
		c.failCurrent(gen, failureMessage(err))
		c.log.WithError(err).Warn("session: import failed")
		return err
	}
	persist := func() error {
		return c.store.SaveIdentity(domain.IdentityRecord{Kind: domain.KindImported, Material: m})
	}
	_, err = c.delegateTo(ctx, gen, id, domain.StateImported, persist)
	return err
}

// SwitchToTemporary adopts a fresh local key without contacting the service.
// The provider session is left alone. An existing temporary session is kept.
func (c *Controller) SwitchToTemporary() error {
	c.mu.Lock()
	if c.sess.State == domain.StateTemporary {
		c.mu.Unlock()
		return nil
	}
	id, m, err := c.factory.NewEphemeral()
	if err != nil {
		c.status = domain.GenericFailureMessage
		c.mu.Unlock()
		c.rec.Transition(domain.StateTemporary.String(), "failed")
		return fmt.Errorf("session: new temporary identity: %w", err)
	}
	if err := c.store.EraseIdentity(); err != nil {
		c.log.WithError(err).Warn("session: erase local identity failed")
	}
	if err := c.store.SaveIdentity(domain.IdentityRecord{Kind: domain.KindTemporary, Material: m}); err != nil {
		c.log.WithError(err).Warn("session: persist temporary identity failed")
	}
	c.commit(id, domain.StateTemporary, nil)
	return nil
}

// Logout clears cached user data, ends the provider session when the
// identity came from it, and always ends anonymous. A provider failure is
// logged and does not stop the switch.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.users = make(map[string]domain.UserInfo)
	state := c.sess.State
	c.mu.Unlock()

	if state == domain.StateAuthenticated {
		if err := c.provider.Logout(ctx); err != nil {
			c.log.WithError(err).Warn("session: provider logout failed")
		}
	}

	c.mu.Lock()
	c.anonymousLocked()
	return nil
}

// delegateTo asks the service, through the current session's client, to
// accept candidate, and adopts it in state target on acceptance. gen is the
// generation observed before the caller's first suspension point.
func (c *Controller) delegateTo(ctx context.Context, gen uint64, candidate domain.Identity, target domain.SessionState, persist func() error) (Session, error) {
	c.mu.Lock()
	client := c.sess.Client
	c.mu.Unlock()

	log := c.log.WithFields(logrus.Fields{
		"candidate": candidate.Principal().Text(),
		"target":    target.String(),
	})

	info, err := client.Delegate(ctx, candidate.Principal())
	seed := &info
	if err != nil {
		var de *domain.DelegateError
		if !errors.As(err, &de) || !de.Benign() {
			c.rec.Delegation("rejected")
			if !c.failCurrent(gen, failureMessage(err)) {
				c.rec.Transition(target.String(), "superseded")
				log.WithError(err).Info("session: rejected delegation superseded")
				return Session{}, ErrSuperseded
			}
			c.rec.Transition(target.String(), "rejected")
			log.WithError(err).Warn("session: delegation rejected")
			return Session{}, fmt.Errorf("%w: %w", ErrDelegationRejected, err)
		}
		c.rec.Delegation("new_user")
		seed = nil
	} else {
		c.rec.Delegation("accepted")
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		c.rec.Transition(target.String(), "superseded")
		log.Info("session: delegation result superseded")
		return Session{}, ErrSuperseded
	}
	if persist != nil {
		if err := persist(); err != nil {
			log.WithError(err).Warn("session: persist identity failed")
		}
	} else if err := c.store.EraseIdentity(); err != nil {
		log.WithError(err).Warn("session: erase local identity failed")
	}
	return c.commit(candidate, target, seed), nil
}

func (c *Controller) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Revalidate ends an Authenticated session whose provider session has expired
// and continues anonymously. Other states are left alone.
func (c *Controller) Revalidate(ctx context.Context) error {
	c.mu.Lock()
	gen, state := c.gen, c.sess.State
	c.mu.Unlock()
	if state != domain.StateAuthenticated {
		return nil
	}

	authed, err := c.provider.IsAuthenticated(ctx)
	if err != nil || authed {
		return err
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.log.Info("session: provider session expired")
	c.users = make(map[string]domain.UserInfo)
	c.anonymousLocked()
	return nil
}
