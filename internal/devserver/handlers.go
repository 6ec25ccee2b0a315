package devserver

import (
	"encoding/json"
	"net/http"

	"tipjar/internal/addressing"
	"tipjar/internal/domain"
	"tipjar/internal/remote"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// ok wraps v in the envelope every route answers with.
func ok[T any](v T) remote.Result[T] { return remote.Result[T]{Ok: &v} }

func (s *Server) handleDelegate(w http.ResponseWriter, r *http.Request) {
	var args remote.DelegateArgs
	if !decode(w, r, &args) {
		return
	}
	info, derr := s.delegate(callerFrom(r), args.Principal)
	if derr != nil {
		writeJSON(w, http.StatusOK, remote.Result[domain.UserInfo]{Err: wireDelegateError(derr)})
		return
	}
	writeJSON(w, http.StatusOK, ok(info))
}

func (s *Server) handleAllocate(w http.ResponseWriter, r *http.Request) {
	var req domain.AllocateRequest
	if !decode(w, r, &req) {
		return
	}
	info, aerr := s.allocate(callerFrom(r), req)
	if aerr != nil {
		writeJSON(w, http.StatusOK, remote.Result[domain.UserInfo]{Err: remote.WireAllocateError(aerr)})
		return
	}
	writeJSON(w, http.StatusOK, ok(info))
}

func (s *Server) handleAboutMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ok(s.aboutMe(callerFrom(r))))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ok(s.stats()))
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ok(remote.PingReply{Principal: callerFrom(r), Time: s.now().UTC()}))
}

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	var args remote.BalanceArgs
	if !decode(w, r, &args) {
		return
	}
	id, err := addressing.ParseAccountIDHex(args.Account)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, ok(remote.Tokens{E8s: s.icpBalance(addressing.AccountIDHex(id))}))
}

func (s *Server) handleICRC1BalanceOf(w http.ResponseWriter, r *http.Request) {
	var acc domain.ICRCAccount
	if !decode(w, r, &acc) {
		return
	}
	writeJSON(w, http.StatusOK, ok(remote.Amount{Value: s.cycleBalance(acc)}))
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var args remote.TransferArgs
	if !decode(w, r, &args) {
		return
	}
	height, lerr := s.transfer(callerFrom(r), args)
	if lerr != nil {
		writeJSON(w, http.StatusOK, remote.Result[remote.BlockHeight]{Err: remote.WireLedgerError(lerr)})
		return
	}
	writeJSON(w, http.StatusOK, ok(remote.BlockHeight{Height: height}))
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	var args remote.NotifyArgs
	if !decode(w, r, &args) {
		return
	}
	receipt, lerr := s.notify(callerFrom(r), args)
	if lerr != nil {
		writeJSON(w, http.StatusOK, remote.Result[remote.TopUpReceipt]{Err: remote.WireLedgerError(lerr)})
		return
	}
	writeJSON(w, http.StatusOK, ok(receipt))
}

// CreditRequest is the body of POST /dev/credit. ICP and Cycles land in the
// principal's deposit accounts, Wallet in its own default ledger account.
type CreditRequest struct {
	Principal domain.Principal `json:"principal"`
	ICP       uint64           `json:"icp_e8s"`
	Cycles    uint64           `json:"cycles"`
	Wallet    uint64           `json:"wallet_e8s,omitempty"`
}

func (s *Server) handleCredit(w http.ResponseWriter, r *http.Request) {
	var req CreditRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Principal.IsZero() || req.Principal.IsAnonymous() {
		http.Error(w, "principal required", http.StatusBadRequest)
		return
	}
	if req.Wallet > 0 {
		s.Fund(req.Principal, req.Wallet)
	}
	writeJSON(w, http.StatusOK, ok(s.Credit(req.Principal, req.ICP, req.Cycles)))
}

func wireDelegateError(e *domain.DelegateError) *remote.WireError {
	switch e.Kind {
	case domain.DelegateUserNotFound:
		return &remote.WireError{Kind: remote.ErrKindUserNotFound}
	case domain.DelegateAccessDenied:
		return &remote.WireError{Kind: remote.ErrKindAccessDenied}
	case domain.DelegateAlreadyDelegated:
		return &remote.WireError{Kind: remote.ErrKindAlreadyDelegated}
	default:
		return &remote.WireError{Kind: "Other", Message: e.Message}
	}
}
