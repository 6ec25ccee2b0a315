package devserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	tjcrypto "tipjar/internal/crypto"
	"tipjar/internal/domain"
	"tipjar/internal/identity"
	"tipjar/internal/remote"
)

const maxRequestBody = 1 << 20

type callerKey struct{}

// callerFrom returns the principal authenticated for r.
func callerFrom(r *http.Request) domain.Principal {
	p, _ := r.Context().Value(callerKey{}).(domain.Principal)
	return p
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		caller, err := s.verify(r, body)
		if err != nil {
			s.log.WithError(err).WithField("path", r.URL.Path).Warn("devserver: rejected request")
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
	})
}

// verify checks the signed envelope and returns the caller's principal.
func (s *Server) verify(r *http.Request, body []byte) (domain.Principal, error) {
	caller, err := domain.ParsePrincipal(r.Header.Get(remote.HeaderPrincipal))
	if err != nil {
		return domain.Principal{}, fmt.Errorf("principal: %w", err)
	}
	reqID := r.Header.Get(remote.HeaderRequestID)
	if reqID == "" {
		return domain.Principal{}, errors.New("missing request id")
	}
	nanos, err := strconv.ParseInt(r.Header.Get(remote.HeaderTimestamp), 10, 64)
	if err != nil {
		return domain.Principal{}, errors.New("bad timestamp")
	}
	ts := time.Unix(0, nanos)
	if skew := s.now().Sub(ts); skew > s.maxSkew || skew < -s.maxSkew {
		return domain.Principal{}, errors.New("timestamp outside window")
	}

	rawKey := r.Header.Get(remote.HeaderPublicKey)
	if rawKey == "" {
		if !caller.IsAnonymous() {
			return domain.Principal{}, errors.New("unsigned request for non-anonymous principal")
		}
		return caller, s.checkReplay(reqID, ts)
	}

	rootDER, err := tjcrypto.FromB64(rawKey)
	if err != nil {
		return domain.Principal{}, errors.New("bad public key")
	}
	rootPub, err := tjcrypto.ParsePublicKeyDER(rootDER)
	if err != nil {
		return domain.Principal{}, err
	}
	if !domain.SelfAuthenticatingPrincipal(rootDER).Equal(caller) {
		return domain.Principal{}, errors.New("public key does not match principal")
	}
	sig, err := tjcrypto.FromB64(r.Header.Get(remote.HeaderSignature))
	if err != nil {
		return domain.Principal{}, errors.New("bad signature encoding")
	}

	signer := rootPub
	if r.Header.Get(remote.HeaderSessionKey) != "" {
		signer, err = s.verifyDelegation(r, rootPub)
		if err != nil {
			return domain.Principal{}, err
		}
	}
	payload := remote.SigningPayload(reqID, ts, r.Method, r.URL.Path, body)
	if !tjcrypto.VerifyEd25519(signer, payload, sig) {
		return domain.Principal{}, errors.New("signature mismatch")
	}
	return caller, s.checkReplay(reqID, ts)
}

// verifyDelegation returns the session key root endorsed for this request.
func (s *Server) verifyDelegation(r *http.Request, root domain.Ed25519Public) (domain.Ed25519Public, error) {
	var none domain.Ed25519Public
	sessionDER, err := tjcrypto.FromB64(r.Header.Get(remote.HeaderSessionKey))
	if err != nil {
		return none, errors.New("bad delegation key")
	}
	sessionPub, err := tjcrypto.ParsePublicKeyDER(sessionDER)
	if err != nil {
		return none, err
	}
	exp, err := time.Parse(time.RFC3339, r.Header.Get(remote.HeaderExpiration))
	if err != nil {
		return none, errors.New("bad delegation expiration")
	}
	if !s.now().Before(exp) {
		return none, errors.New("delegation expired")
	}
	dsig, err := tjcrypto.FromB64(r.Header.Get(remote.HeaderDelegateSig))
	if err != nil {
		return none, errors.New("bad delegation signature encoding")
	}
	if !tjcrypto.VerifyEd25519(root, identity.DelegationMessage(sessionDER, exp), dsig) {
		return none, errors.New("delegation signature mismatch")
	}
	return sessionPub, nil
}

func (s *Server) checkReplay(reqID string, ts time.Time) error {
	if s.seen(reqID, ts) {
		return errors.New("replayed request")
	}
	return nil
}
