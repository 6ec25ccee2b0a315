package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tipjar/internal/addressing"
	"tipjar/internal/domain"
)

// Dialer binds Clients to identities; it implements domain.ServiceDialer.
type Dialer struct {
	Base     string
	HTTP     *http.Client
	Log      logrus.FieldLogger
	Observer Observer
}

// NewDialer returns a Dialer for the service at base.
func NewDialer(base string, httpClient *http.Client, log logrus.FieldLogger, obs Observer) *Dialer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Dialer{Base: strings.TrimRight(base, "/"), HTTP: httpClient, Log: log, Observer: obs}
}

// Dial returns a client acting as id.
func (d *Dialer) Dial(id domain.Identity) domain.ServiceClient {
	return &Client{
		base:     d.Base,
		http:     d.HTTP,
		id:       id,
		log:      logger(d.Log).WithField("principal", id.Principal().Text()),
		observer: d.Observer,
		now:      time.Now,
	}
}

// Client talks to the service as one identity.
type Client struct {
	base     string
	http     *http.Client
	id       domain.Identity
	log      logrus.FieldLogger
	observer Observer
	now      func() time.Time
}

// Principal is the identity the client signs as.
func (c *Client) Principal() domain.Principal { return c.id.Principal() }

// Delegate asks the service to accept principal for the caller's record.
func (c *Client) Delegate(ctx context.Context, principal domain.Principal) (domain.UserInfo, error) {
	var res Result[domain.UserInfo]
	if err := c.do(ctx, "delegate", http.MethodPost, "/delegate", DelegateArgs{Principal: principal}, &res); err != nil {
		return domain.UserInfo{}, err
	}
	if res.Err != nil {
		return domain.UserInfo{}, NewDelegateError(res.Err)
	}
	if res.Ok == nil {
		return domain.UserInfo{}, emptyResult("delegate")
	}
	return *res.Ok, nil
}

// Allocate directs part of the caller's cycles to a canister.
func (c *Client) Allocate(ctx context.Context, req domain.AllocateRequest) (domain.UserInfo, error) {
	var res Result[domain.UserInfo]
	if err := c.do(ctx, "allocate", http.MethodPost, "/allocate", req, &res); err != nil {
		return domain.UserInfo{}, err
	}
	if res.Err != nil {
		return domain.UserInfo{}, NewAllocateError(res.Err)
	}
	if res.Ok == nil {
		return domain.UserInfo{}, emptyResult("allocate")
	}
	return *res.Ok, nil
}

// AboutMe returns the caller's record.
func (c *Client) AboutMe(ctx context.Context) (domain.UserInfo, error) {
	var res Result[domain.UserInfo]
	if err := c.do(ctx, "aboutme", http.MethodGet, "/aboutme", nil, &res); err != nil {
		return domain.UserInfo{}, err
	}
	return unwrap("aboutme", res)
}

// Stats returns service-wide totals.
func (c *Client) Stats(ctx context.Context) (domain.Stats, error) {
	var res Result[domain.Stats]
	if err := c.do(ctx, "stats", http.MethodGet, "/stats", nil, &res); err != nil {
		return domain.Stats{}, err
	}
	return unwrap("stats", res)
}

// Ping checks that the service is reachable and accepts the caller's envelope.
func (c *Client) Ping(ctx context.Context) error {
	var res Result[PingReply]
	if err := c.do(ctx, "ping", http.MethodPost, "/ping", struct{}{}, &res); err != nil {
		return err
	}
	_, err := unwrap("ping", res)
	return err
}

// AccountBalance queries the ICP ledger by legacy account id.
func (c *Client) AccountBalance(ctx context.Context, account domain.AccountID) (uint64, error) {
	var res Result[Tokens]
	args := BalanceArgs{Account: addressing.AccountIDHex(account)}
	if err := c.do(ctx, "account_balance", http.MethodPost, "/ledger/account_balance", args, &res); err != nil {
		return 0, err
	}
	t, err := unwrap("account_balance", res)
	return t.E8s, err
}

// ICRC1BalanceOf queries the cycles ledger by ICRC-1 account.
func (c *Client) ICRC1BalanceOf(ctx context.Context, account domain.ICRCAccount) (uint64, error) {
	var res Result[Amount]
	if err := c.do(ctx, "icrc1_balance_of", http.MethodPost, "/cycles/icrc1_balance_of", account, &res); err != nil {
		return 0, err
	}
	a, err := unwrap("icrc1_balance_of", res)
	return a.Value, err
}

// Transfer sends ICP from the caller's own ledger account.
func (c *Client) Transfer(ctx context.Context, req domain.TransferRequest) (uint64, error) {
	var res Result[BlockHeight]
	args := TransferArgs{
		To:             addressing.AccountIDHex(req.To),
		Amount:         Tokens{E8s: req.Amount},
		Fee:            Tokens{E8s: req.Fee},
		Memo:           req.Memo,
		FromSubaccount: req.FromSubaccount,
	}
	if err := c.do(ctx, "send_dfx", http.MethodPost, "/ledger/send_dfx", args, &res); err != nil {
		return 0, err
	}
	if res.Err != nil {
		return 0, NewLedgerError(res.Err)
	}
	if res.Ok == nil {
		return 0, emptyResult("send_dfx")
	}
	return res.Ok.Height, nil
}

// NotifyTopUp asks the minting canister to convert a transfer into cycles.
func (c *Client) NotifyTopUp(ctx context.Context, req domain.NotifyRequest) (uint64, error) {
	var res Result[TopUpReceipt]
	args := NotifyArgs{
		ToCanister:     req.ToCanister,
		BlockHeight:    req.BlockHeight,
		MaxFee:         Tokens{E8s: req.MaxFee},
		FromSubaccount: req.FromSubaccount,
		ToSubaccount:   req.ToSubaccount,
	}
	if err := c.do(ctx, "notify_dfx", http.MethodPost, "/ledger/notify_dfx", args, &res); err != nil {
		return 0, err
	}
	if res.Err != nil {
		return 0, NewLedgerError(res.Err)
	}
	if res.Ok == nil {
		return 0, emptyResult("notify_dfx")
	}
	return res.Ok.Cycles, nil
}

// unwrap handles operations whose only error is transport-level.
func unwrap[T any](op string, res Result[T]) (T, error) {
	var zero T
	if res.Err != nil {
		return zero, &TransportError{Op: op, Err: fmt.Errorf("%w: %s %s", ErrServiceError, res.Err.Kind, res.Err.Message)}
	}
	if res.Ok == nil {
		return zero, emptyResult(op)
	}
	return *res.Ok, nil
}

func emptyResult(op string) error {
	return &TransportError{Op: op, Err: fmt.Errorf("%w: empty result", ErrServiceError)}
}
