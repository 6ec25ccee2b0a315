package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultRefreshInterval paces Run when no interval is given.
const DefaultRefreshInterval = 5 * time.Second

// ErrInFlight is returned when a refresh or top-up of the same kind has not
// settled yet.
var ErrInFlight = errors.New("session: already in flight")

// Refresher keeps the cached balances of the current session fresh. Each kind
// of refresh runs at most once at a time.
type Refresher struct {
	c        *Controller
	interval time.Duration
	limiter  *rate.Limiter
	log      logrus.FieldLogger

	ledgerBusy  atomic.Bool
	userBusy    atomic.Bool
	sessionBusy atomic.Bool
}

// refreshJobs is the number of jobs Run starts per tick.
const refreshJobs = 3

// NewRefresher returns a Refresher for c. All jobs share one token bucket that
// allows one call per job and interval.
func NewRefresher(c *Controller, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{
		c:        c,
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(interval/refreshJobs), refreshJobs),
		log:      c.log,
	}
}

// RefreshLedger reads the ICP balance of the session's deposit account and
// records it with SetICPBalance.
func (r *Refresher) RefreshLedger(ctx context.Context) error {
	if !r.ledgerBusy.CompareAndSwap(false, true) {
		return ErrInFlight
	}
	defer r.ledgerBusy.Store(false)

	s := r.c.Snapshot()
	if !cacheable(s.Principal) {
		return nil
	}
	e8s, err := s.Client.AccountBalance(ctx, s.Account.AccountID)
	if err != nil {
		return err
	}
	if !r.c.SetICPBalance(s.Principal, e8s) {
		r.log.WithField("principal", s.Principal.Text()).Debug("session: dropped stale ledger balance")
	}
	return nil
}

// RefreshUserInfo fetches the caller's record and merges it into the cache.
func (r *Refresher) RefreshUserInfo(ctx context.Context) error {
	if !r.userBusy.CompareAndSwap(false, true) {
		return ErrInFlight
	}
	defer r.userBusy.Store(false)

	s := r.c.Snapshot()
	if !cacheable(s.Principal) {
		return nil
	}
	info, err := s.Client.AboutMe(ctx)
	if err != nil {
		return err
	}
	if !r.c.SetUserInfoFor(s.Principal, info) {
		r.log.WithField("principal", s.Principal.Text()).Debug("session: dropped stale user info")
	}
	return nil
}

// RefreshSession drops an Authenticated session whose provider login has
// expired. See Controller.Revalidate.
func (r *Refresher) RefreshSession(ctx context.Context) error {
	if !r.sessionBusy.CompareAndSwap(false, true) {
		return ErrInFlight
	}
	defer r.sessionBusy.Store(false)
	return r.c.Revalidate(ctx)
}

// Run starts every refresh job once per interval until ctx is done. Ticks that find
// a refresh still in flight, or no token in the bucket, skip it.
func (r *Refresher) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	jobs := map[string]func(context.Context) error{
		"ledger":   r.RefreshLedger,
		"userinfo": r.RefreshUserInfo,
		"session":  r.RefreshSession,
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		for name, job := range jobs {
			if !r.limiter.Allow() {
				continue
			}
			name, job := name, job
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := job(ctx); err != nil && !errors.Is(err, ErrInFlight) && !errors.Is(err, ErrSuperseded) && ctx.Err() == nil {
					r.log.WithError(err).WithField("job", name).Warn("session: refresh failed")
				}
			}()
		}
	}
}
