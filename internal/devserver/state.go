package devserver

import (
	"time"

	"tipjar/internal/addressing"
	"tipjar/internal/domain"
	"tipjar/internal/remote"
)

// Limits enforced by allocate.
const (
	MinAliasLength = 3
	MaxAliasLength = 32
	MaxCanisters   = 8
)

// CyclesPerE8s is the fixed conversion rate of the dev minting canister:
// one ICP buys one trillion cycles.
const CyclesPerE8s = 10_000

// block is one ledger transfer.
type block struct {
	from, to string // hex account ids
	amount   uint64
	memo     uint64
	notified bool
}

type user struct {
	info domain.UserInfo
}

func (u *user) snapshot() domain.UserInfo { return u.info.Clone() }

// state is guarded by Server.mu.
type state struct {
	users  map[string]*user  // principal text -> record
	icp    map[string]uint64 // hex account id -> e8s
	cycles map[string]uint64 // icrc account text -> cycles
	blocks []block
	minted map[string]uint64 // canister principal text -> cycles
}

func newState() *state {
	return &state{
		users:  make(map[string]*user),
		icp:    make(map[string]uint64),
		cycles: make(map[string]uint64),
		minted: make(map[string]uint64),
	}
}

func (s *Server) delegate(caller, target domain.Principal) (domain.UserInfo, *domain.DelegateError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if target.IsAnonymous() {
		return domain.UserInfo{}, &domain.DelegateError{Kind: domain.DelegateAccessDenied}
	}
	from, ok := s.st.users[caller.Text()]
	if caller.IsAnonymous() || !ok {
		return domain.UserInfo{}, &domain.DelegateError{Kind: domain.DelegateUserNotFound}
	}
	if caller.Equal(target) {
		return from.snapshot(), nil
	}

	to, ok := s.st.users[target.Text()]
	if !ok {
		to = &user{}
		s.st.users[target.Text()] = to
	}
	to.info.Balance.ICP += from.info.Balance.ICP
	to.info.Balance.Cycle += from.info.Balance.Cycle
	to.info.Allocations = append(to.info.Allocations, from.info.Allocations...)
	to.info.Status = "delegated"
	to.info.LastUpdated = s.now()
	delete(s.st.users, caller.Text())
	return to.snapshot(), nil
}

func (s *Server) allocate(caller domain.Principal, req domain.AllocateRequest) (domain.UserInfo, *domain.AllocateError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller.IsAnonymous() {
		return domain.UserInfo{}, &domain.AllocateError{Kind: domain.AllocateAccessDenied}
	}
	u, ok := s.st.users[caller.Text()]
	if !ok {
		return domain.UserInfo{}, &domain.AllocateError{Kind: domain.AllocateUserDoesNotExist}
	}
	if req.Canister.IsAnonymous() || req.Canister.Len() == 0 {
		return domain.UserInfo{}, &domain.AllocateError{Kind: domain.AllocateCanisterStatusError, Message: "canister not found"}
	}
	if req.Alias != nil {
		switch n := len([]rune(*req.Alias)); {
		case n < MinAliasLength:
			return domain.UserInfo{}, &domain.AllocateError{Kind: domain.AllocateAliasTooShort, Limit: MinAliasLength}
		case n > MaxAliasLength:
			return domain.UserInfo{}, &domain.AllocateError{Kind: domain.AllocateAliasTooLong, Limit: MaxAliasLength}
		}
	}
	if req.Allocated > u.info.Balance.Cycle {
		return domain.UserInfo{}, &domain.AllocateError{Kind: domain.AllocateInsufficientBalance, Amount: u.info.Balance.Cycle}
	}

	idx := -1
	for i, a := range u.info.Allocations {
		if a.Canister.Equal(req.Canister) {
			idx = i
			break
		}
	}
	if idx < 0 {
		if len(u.info.Allocations) >= MaxCanisters {
			return domain.UserInfo{}, &domain.AllocateError{Kind: domain.AllocateTooManyCanisters, Limit: MaxCanisters}
		}
		u.info.Allocations = append(u.info.Allocations, domain.Allocation{Canister: req.Canister})
		idx = len(u.info.Allocations) - 1
	}
	a := &u.info.Allocations[idx]
	a.Allocated = req.Allocated
	if req.Alias != nil {
		a.Alias = *req.Alias
	}
	u.info.LastUpdated = s.now()
	return u.snapshot(), nil
}

func (s *Server) aboutMe(caller domain.Principal) domain.UserInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.st.users[caller.Text()]; ok {
		return u.snapshot()
	}
	return domain.UserInfo{Allocations: []domain.Allocation{}, LastUpdated: s.now()}
}

func (s *Server) stats() domain.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st domain.Stats
	canisters := make(map[string]struct{})
	for _, u := range s.st.users {
		st.Donors++
		for _, a := range u.info.Allocations {
			canisters[a.Canister.Text()] = struct{}{}
			st.Donated += a.Donated
			st.Funded += a.Allocated
		}
	}
	st.Canisters = uint64(len(canisters))
	return st
}

// Credit adds ICP (e8s) and cycles to p's deposit accounts and record.
func (s *Server) Credit(p domain.Principal, icp, cycles uint64) domain.UserInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := addressing.SessionAccount(s.service, p)
	s.st.icp[addressing.AccountIDHex(acc.AccountID)] += icp
	s.st.cycles[acc.ICRCAccountID] += cycles

	u, ok := s.st.users[p.Text()]
	if !ok {
		u = &user{info: domain.UserInfo{Allocations: []domain.Allocation{}}}
		s.st.users[p.Text()] = u
	}
	u.info.Balance.ICP += icp
	u.info.Balance.Cycle += cycles
	u.info.Status = "active"
	u.info.LastUpdated = s.now()
	return u.snapshot()
}

// Fund adds e8s to p's own default ledger account, the source of top-ups.
func (s *Server) Fund(p domain.Principal, e8s uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.icp[addressing.AccountIDHex(addressing.DeriveAccountID(p, nil))] += e8s
}

// CanisterCycles returns the cycles minted for canister by top-ups.
func (s *Server) CanisterCycles(canister domain.Principal) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.minted[canister.Text()]
}

func (s *Server) transfer(caller domain.Principal, args remote.TransferArgs) (uint64, *domain.LedgerError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	to, err := addressing.ParseAccountIDHex(args.To)
	if err != nil {
		return 0, &domain.LedgerError{Kind: domain.LedgerInvalidTransaction, Message: err.Error()}
	}
	if args.Fee.E8s != addressing.TopUpFee {
		return 0, &domain.LedgerError{Kind: domain.LedgerBadFee, Amount: addressing.TopUpFee}
	}
	from := addressing.AccountIDHex(addressing.DeriveAccountID(caller, args.FromSubaccount))
	bal := s.st.icp[from]
	if args.Amount.E8s == 0 || bal < args.Amount.E8s || bal-args.Amount.E8s < args.Fee.E8s {
		return 0, &domain.LedgerError{Kind: domain.LedgerInsufficientFunds, Amount: bal}
	}
	s.st.icp[from] = bal - args.Amount.E8s - args.Fee.E8s
	toHex := addressing.AccountIDHex(to)
	s.st.icp[toHex] += args.Amount.E8s
	s.st.blocks = append(s.st.blocks, block{from: from, to: toHex, amount: args.Amount.E8s, memo: args.Memo})
	return uint64(len(s.st.blocks) - 1), nil
}

func (s *Server) notify(caller domain.Principal, args remote.NotifyArgs) (remote.TopUpReceipt, *domain.LedgerError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	invalid := func(msg string) *domain.LedgerError {
		return &domain.LedgerError{Kind: domain.LedgerInvalidTransaction, Message: msg}
	}
	if args.BlockHeight >= uint64(len(s.st.blocks)) {
		return remote.TopUpReceipt{}, invalid("block not found")
	}
	b := &s.st.blocks[args.BlockHeight]
	switch {
	case b.notified:
		return remote.TopUpReceipt{}, &domain.LedgerError{Kind: domain.LedgerAlreadyNotified}
	case args.MaxFee.E8s < addressing.TopUpFee:
		return remote.TopUpReceipt{}, &domain.LedgerError{Kind: domain.LedgerBadFee, Amount: addressing.TopUpFee}
	case b.memo != addressing.TopUpMemo:
		return remote.TopUpReceipt{}, invalid("memo is not a top-up")
	case b.from != addressing.AccountIDHex(addressing.DeriveAccountID(caller, args.FromSubaccount)):
		return remote.TopUpReceipt{}, invalid("caller did not send the block")
	case args.ToSubaccount == nil:
		return remote.TopUpReceipt{}, invalid("recipient subaccount required")
	case b.to != addressing.AccountIDHex(addressing.DeriveAccountID(args.ToCanister, args.ToSubaccount)):
		return remote.TopUpReceipt{}, invalid("block was not sent to the minting account")
	}
	canister, err := addressing.PrincipalFromSubaccount(*args.ToSubaccount)
	if err != nil {
		return remote.TopUpReceipt{}, invalid(err.Error())
	}

	b.notified = true
	s.st.icp[b.to] -= b.amount
	cycles := b.amount * CyclesPerE8s
	s.st.minted[canister.Text()] += cycles
	return remote.TopUpReceipt{Canister: canister, Cycles: cycles}, nil
}

func (s *Server) icpBalance(accountHex string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.icp[accountHex]
}

func (s *Server) cycleBalance(acc domain.ICRCAccount) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.cycles[addressing.EncodeICRCAccount(acc)]
}

func (s *Server) seen(requestID string, ts time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-2 * s.maxSkew)
	for id, at := range s.requests {
		if at.Before(cutoff) {
			delete(s.requests, id)
		}
	}
	if _, ok := s.requests[requestID]; ok {
		return true
	}
	s.requests[requestID] = ts
	return false
}
