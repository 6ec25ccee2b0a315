package session

import (
	"context"

	"tipjar/internal/domain"
)

// GetUserInfo returns the cached record of the current principal.
func (c *Controller) GetUserInfo() (domain.UserInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	info, ok := c.users[c.sess.Principal.Text()]
	if !ok {
		return domain.UserInfo{}, false
	}
	return info.Clone(), true
}

// SetUserInfo merges info into the current principal's cache entry.
func (c *Controller) SetUserInfo(info domain.UserInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mergeLocked(c.sess.Principal, info)
}

// SetUserInfoFor is SetUserInfo for a result fetched as p. It is dropped, and
// false returned, when p is no longer the current principal.
func (c *Controller) SetUserInfoFor(p domain.Principal, info domain.UserInfo) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sess.Principal.Equal(p) {
		return false
	}
	return c.mergeLocked(p, info)
}

// SetICPBalance records a ledger-observed ICP balance for p. This is the only
// path that advances the cached ICP balance of an existing entry.
func (c *Controller) SetICPBalance(p domain.Principal, e8s uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sess.Principal.Equal(p) || !cacheable(p) {
		return false
	}
	info := c.users[p.Text()]
	info.Balance.ICP = e8s
	c.users[p.Text()] = info
	return true
}

// ClearUserInfo drops every cached record.
func (c *Controller) ClearUserInfo() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = make(map[string]domain.UserInfo)
}

// mergeLocked stores info for p, keeping the cached ICP balance when an entry
// exists. Callers hold mu.
func (c *Controller) mergeLocked(p domain.Principal, info domain.UserInfo) bool {
	if !cacheable(p) {
		return false
	}
	key := p.Text()
	if prev, ok := c.users[key]; ok {
		info.Balance.ICP = prev.Balance.ICP
	}
	c.users[key] = info.Clone()
	return true
}

// cacheable is false for the anonymous principal, which never has a record.
func cacheable(p domain.Principal) bool { return !p.IsZero() && !p.IsAnonymous() }

// Allocate forwards req as the current identity. A successful result is
// merged into the cache; a failure only updates the status line.
func (c *Controller) Allocate(ctx context.Context, req domain.AllocateRequest) (domain.UserInfo, error) {
	s := c.Snapshot()
	info, err := s.Client.Allocate(ctx, req)
	if err != nil {
		c.failCurrent(s.Generation, failureMessage(err))
		c.log.WithError(err).WithField("canister", req.Canister.Text()).Warn("session: allocate failed")
		return domain.UserInfo{}, err
	}
	c.SetUserInfoFor(s.Principal, info)
	return info, nil
}
