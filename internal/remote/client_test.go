package remote_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipjar/internal/addressing"
	"tipjar/internal/devserver"
	"tipjar/internal/domain"
	"tipjar/internal/identity"
	"tipjar/internal/remote"
)

var service = domain.MustParsePrincipal("ryjl3-tyaaa-aaaaa-aaaba-cai")

type recorder struct {
	mu  sync.Mutex
	ops []string
}

func (r *recorder) ObserveCall(op, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op+":"+outcome)
}

func setup(t *testing.T) (*devserver.Server, *remote.Dialer, *recorder) {
	t.Helper()
	srv := devserver.New(service)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	rec := &recorder{}
	return srv, remote.NewDialer(ts.URL+"/", ts.Client(), nil, rec), rec
}

func ephemeral(t *testing.T) *identity.Ed25519 {
	t.Helper()
	_, m, err := identity.NewFactory().NewEphemeral()
	require.NoError(t, err)
	return identity.NewEd25519(m)
}

func TestPing_AnonymousAndSigned(t *testing.T) {
	_, d, rec := setup(t)
	ctx := context.Background()

	require.NoError(t, d.Dial(identity.Anonymous{}).Ping(ctx))
	require.NoError(t, d.Dial(ephemeral(t)).Ping(ctx))
	assert.Equal(t, []string{"ping:ok", "ping:ok"}, rec.ops)
}

func TestPing_Delegated(t *testing.T) {
	_, d, _ := setup(t)
	del := identity.NewDelegated(ephemeral(t), ephemeral(t), time.Now().Add(time.Hour))
	require.NoError(t, d.Dial(del).Ping(context.Background()))
}

func TestPing_ExpiredDelegationIsTransportError(t *testing.T) {
	_, d, rec := setup(t)
	del := identity.NewDelegated(ephemeral(t), ephemeral(t), time.Now().Add(-time.Minute))

	err := d.Dial(del).Ping(context.Background())
	var te *remote.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusUnauthorized, te.Status)
	assert.True(t, te.Retryable())
	assert.Equal(t, []string{"ping:transport_error"}, rec.ops)
}

func TestDelegate_UnknownUserIsBenign(t *testing.T) {
	_, d, _ := setup(t)
	_, err := d.Dial(ephemeral(t)).Delegate(context.Background(), ephemeral(t).Principal())

	var de *domain.DelegateError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.DelegateUserNotFound, de.Kind)
	assert.True(t, de.Benign())
}

func TestDelegate_MovesRecord(t *testing.T) {
	srv, d, _ := setup(t)
	ctx := context.Background()
	temp, target := ephemeral(t), ephemeral(t)
	srv.Credit(temp.Principal(), 5, 7_000)

	info, err := d.Dial(temp).Delegate(ctx, target.Principal())
	require.NoError(t, err)
	assert.Equal(t, domain.Balance{ICP: 5, Cycle: 7_000}, info.Balance)

	me, err := d.Dial(target).AboutMe(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(7_000), me.Balance.Cycle)

	_, err = d.Dial(temp).Delegate(ctx, target.Principal())
	var de *domain.DelegateError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.DelegateUserNotFound, de.Kind)
}

func TestDelegate_ToAnonymousDenied(t *testing.T) {
	srv, d, _ := setup(t)
	temp := ephemeral(t)
	srv.Credit(temp.Principal(), 0, 1)

	_, err := d.Dial(temp).Delegate(context.Background(), domain.AnonymousPrincipal())
	var de *domain.DelegateError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.DelegateAccessDenied, de.Kind)
	assert.False(t, de.Benign())
}

func TestAllocate(t *testing.T) {
	srv, d, _ := setup(t)
	ctx := context.Background()
	user := ephemeral(t)
	canister := domain.MustParsePrincipal("rrkah-fqaaa-aaaaa-aaaaq-cai")
	alias := "my canister"

	_, err := d.Dial(user).Allocate(ctx, domain.AllocateRequest{Canister: canister, Allocated: 1})
	var ae *domain.AllocateError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, domain.AllocateUserDoesNotExist, ae.Kind)

	srv.Credit(user.Principal(), 0, 1_000)

	_, err = d.Dial(user).Allocate(ctx, domain.AllocateRequest{Canister: canister, Allocated: 5_000})
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, domain.AllocateInsufficientBalance, ae.Kind)
	assert.Equal(t, uint64(1_000), ae.Amount)

	short := "ab"
	_, err = d.Dial(user).Allocate(ctx, domain.AllocateRequest{Canister: canister, Alias: &short, Allocated: 1})
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, domain.AllocateAliasTooShort, ae.Kind)
	assert.Equal(t, uint64(devserver.MinAliasLength), ae.Limit)

	info, err := d.Dial(user).Allocate(ctx, domain.AllocateRequest{Canister: canister, Alias: &alias, Allocated: 400})
	require.NoError(t, err)
	require.Len(t, info.Allocations, 1)
	assert.Equal(t, alias, info.Allocations[0].Alias)
	assert.Equal(t, uint64(400), info.Allocations[0].Allocated)
	assert.True(t, info.Allocations[0].Canister.Equal(canister))

	_, err = d.Dial(identity.Anonymous{}).Allocate(ctx, domain.AllocateRequest{Canister: canister, Allocated: 1})
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, domain.AllocateAccessDenied, ae.Kind)
}

func TestBalances(t *testing.T) {
	srv, d, _ := setup(t)
	ctx := context.Background()
	user := ephemeral(t)
	srv.Credit(user.Principal(), 123, 456)

	acc := addressing.SessionAccount(service, user.Principal())
	c := d.Dial(identity.Anonymous{})

	icp, err := c.AccountBalance(ctx, acc.AccountID)
	require.NoError(t, err)
	assert.Equal(t, uint64(123), icp)

	cycles, err := c.ICRC1BalanceOf(ctx, acc.ICRCAccount)
	require.NoError(t, err)
	assert.Equal(t, uint64(456), cycles)

	other, err := c.AccountBalance(ctx, acc.PrincipalAccountID)
	require.NoError(t, err)
	assert.Zero(t, other)
}

func TestStats(t *testing.T) {
	srv, d, _ := setup(t)
	srv.Credit(ephemeral(t).Principal(), 0, 1)
	srv.Credit(ephemeral(t).Principal(), 0, 1)

	st, err := d.Dial(identity.Anonymous{}).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), st.Donors)
}

func TestTransportError_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	base := ts.URL
	ts.Close()

	_, err := remote.NewDialer(base, nil, nil, nil).Dial(identity.Anonymous{}).AboutMe(context.Background())
	require.Error(t, err)
	assert.True(t, remote.IsTransport(err))
}

func TestTransportError_ServiceErrArm(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"err":{"kind":"Overloaded"}}`))
	}))
	t.Cleanup(ts.Close)

	_, err := remote.NewDialer(ts.URL, ts.Client(), nil, nil).Dial(identity.Anonymous{}).Stats(context.Background())
	assert.True(t, remote.IsTransport(err))
	assert.ErrorIs(t, err, remote.ErrServiceError)
}

func TestTransferAndNotify(t *testing.T) {
	srv, d, _ := setup(t)
	ctx := context.Background()
	user := ephemeral(t)
	srv.Fund(user.Principal(), 100_000)
	c := d.Dial(user)

	minting := domain.MustParsePrincipal("rkp4c-7iaaa-aaaaa-aaaca-cai")
	canister := domain.MustParsePrincipal("rrkah-fqaaa-aaaaa-aaaaq-cai")
	sub := addressing.DeriveSubaccount(canister)
	to := addressing.TopUpAccountID(minting, canister)

	_, err := c.Transfer(ctx, domain.TransferRequest{To: to, Amount: 1, Fee: 1, Memo: addressing.TopUpMemo})
	var le *domain.LedgerError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, domain.LedgerBadFee, le.Kind)
	assert.Equal(t, addressing.TopUpFee, le.Amount)

	_, err = c.Transfer(ctx, domain.TransferRequest{To: to, Amount: 95_000, Fee: addressing.TopUpFee, Memo: addressing.TopUpMemo})
	require.True(t, errors.As(err, &le))
	assert.Equal(t, domain.LedgerInsufficientFunds, le.Kind)
	assert.Equal(t, uint64(100_000), le.Amount)

	height, err := c.Transfer(ctx, domain.TransferRequest{To: to, Amount: 40_000, Fee: addressing.TopUpFee, Memo: addressing.TopUpMemo})
	require.NoError(t, err)

	own, err := c.AccountBalance(ctx, addressing.DeriveAccountID(user.Principal(), nil))
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000), own)

	notify := domain.NotifyRequest{ToCanister: minting, BlockHeight: height, MaxFee: addressing.TopUpFee, ToSubaccount: &sub}
	_, err = d.Dial(ephemeral(t)).NotifyTopUp(ctx, notify)
	require.True(t, errors.As(err, &le))
	assert.Equal(t, domain.LedgerInvalidTransaction, le.Kind, "only the sender may notify")

	cycles, err := c.NotifyTopUp(ctx, notify)
	require.NoError(t, err)
	assert.Equal(t, uint64(40_000*devserver.CyclesPerE8s), cycles)
	assert.Equal(t, cycles, srv.CanisterCycles(canister))

	_, err = c.NotifyTopUp(ctx, notify)
	require.True(t, errors.As(err, &le))
	assert.Equal(t, domain.LedgerAlreadyNotified, le.Kind)

	notify.BlockHeight = height + 1
	_, err = c.NotifyTopUp(ctx, notify)
	require.True(t, errors.As(err, &le))
	assert.Equal(t, domain.LedgerInvalidTransaction, le.Kind)
}
