package session

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"tipjar/internal/addressing"
	"tipjar/internal/domain"
)

// TopUp converts e8s from the current identity's own ledger account into
// cycles for canister. It sends the ICP to the minting account under the
// canister's subaccount, then notifies the minting canister. Only one top-up
// runs at a time; a second call returns ErrInFlight.
//
// If the notify step fails the transfer has already happened; the error
// names the block height so the notify can be repeated.
func (c *Controller) TopUp(ctx context.Context, canister domain.Principal, e8s uint64) (uint64, error) {
	if !c.toppingUp.CompareAndSwap(false, true) {
		return 0, ErrInFlight
	}
	defer c.toppingUp.Store(false)

	s := c.Snapshot()
	if !cacheable(s.Principal) {
		return 0, ErrAnonymous
	}
	log := c.log.WithFields(logrus.Fields{
		"principal": s.Principal.Text(),
		"canister":  canister.Text(),
		"e8s":       e8s,
	})

	height, err := s.Client.Transfer(ctx, domain.TransferRequest{
		To:     addressing.TopUpAccountID(c.minting, canister),
		Amount: e8s,
		Fee:    addressing.TopUpFee,
		Memo:   addressing.TopUpMemo,
	})
	if err != nil {
		c.failCurrent(s.Generation, failureMessage(err))
		log.WithError(err).Warn("session: top-up transfer failed")
		return 0, err
	}

	sub := addressing.DeriveSubaccount(canister)
	cycles, err := s.Client.NotifyTopUp(ctx, domain.NotifyRequest{
		ToCanister:   c.minting,
		BlockHeight:  height,
		MaxFee:       addressing.TopUpFee,
		ToSubaccount: &sub,
	})
	if err != nil {
		c.failCurrent(s.Generation, failureMessage(err))
		log.WithError(err).WithField("block", height).Warn("session: top-up notify failed")
		return 0, fmt.Errorf("session: notify block %d: %w", height, err)
	}
	log.WithFields(logrus.Fields{"block": height, "cycles": cycles}).Info("session: topped up canister")
	return cycles, nil
}
