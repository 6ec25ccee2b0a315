package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	tjcrypto "tipjar/internal/crypto"
	"tipjar/internal/domain"
	"tipjar/internal/identity"
)

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// Observer receives one sample per remote call.
type Observer interface {
	ObserveCall(op, outcome string, d time.Duration)
}

// delegator is implemented by identities that sign with an endorsed session key.
type delegator interface {
	Delegation() identity.Delegation
}

// do sends one signed request and decodes a 2xx JSON body into out. Any
// failure comes back as a *TransportError.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (err error) {
	start := c.now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "transport_error"
		}
		if c.observer != nil {
			c.observer.ObserveCall(op, outcome, c.now().Sub(start))
		}
	}()

	body, err := marshal(in)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.authenticate(req, method, path, body); err != nil {
		return &TransportError{Op: op, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("op", op).Warn("remote: request failed")
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &TransportError{Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode/100 != 2 {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = resp.Status
		}
		return &TransportError{Op: op, Status: resp.StatusCode, Err: errors.New(msg)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

// authenticate stamps the request envelope and, for keyed identities, signs it.
func (c *Client) authenticate(req *http.Request, method, path string, body []byte) error {
	reqID := uuid.NewString()
	ts := c.now()
	req.Header.Set(HeaderRequestID, reqID)
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts.UnixNano(), 10))
	req.Header.Set(HeaderPrincipal, c.id.Principal().Text())

	der := c.id.PublicKeyDER()
	if der == nil {
		return nil
	}
	sig, err := c.id.Sign(SigningPayload(reqID, ts, method, path, body))
	if err != nil {
		return err
	}
	req.Header.Set(HeaderPublicKey, tjcrypto.B64(der))
	req.Header.Set(HeaderSignature, tjcrypto.B64(sig))

	if d, ok := c.id.(delegator); ok {
		del := d.Delegation()
		req.Header.Set(HeaderSessionKey, tjcrypto.B64(del.SessionKeyDER))
		req.Header.Set(HeaderExpiration, del.Expiration.UTC().Format(time.RFC3339))
		req.Header.Set(HeaderDelegateSig, tjcrypto.B64(del.Signature))
	}
	return nil
}

// logger returns l or a discarding logger.
func logger(l logrus.FieldLogger) logrus.FieldLogger {
	if l != nil {
		return l
	}
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	return quiet
}

var _ domain.ServiceClient = (*Client)(nil)
