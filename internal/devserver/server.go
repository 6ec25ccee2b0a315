package devserver

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"tipjar/internal/domain"
	"tipjar/internal/metrics"
)

// DefaultMaxSkew bounds how far a request timestamp may drift from the server clock.
const DefaultMaxSkew = 5 * time.Minute

// Server is the in-memory service. It is safe for concurrent use.
type Server struct {
	mu       sync.Mutex
	st       *state
	requests map[string]time.Time // replay window, keyed by request id

	service domain.Principal
	log     logrus.FieldLogger
	now     func() time.Time
	maxSkew time.Duration
	metrics *metrics.Metrics
	router  *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the access and error logger.
func WithLogger(l logrus.FieldLogger) Option { return func(s *Server) { s.log = l } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

// WithMetrics counts served requests per route.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Server) { s.metrics = m } }

// WithMaxSkew overrides DefaultMaxSkew.
func WithMaxSkew(d time.Duration) Option { return func(s *Server) { s.maxSkew = d } }

// New returns a Server whose deposit accounts are owned by service.
func New(service domain.Principal, opts ...Option) *Server {
	s := &Server{
		st:       newState(),
		requests: make(map[string]time.Time),
		service:  service,
		now:      time.Now,
		maxSkew:  DefaultMaxSkew,
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		s.log = quiet
	}
	s.router = s.routes()
	return s
}

// Service is the principal that owns every deposit account.
func (s *Server) Service() domain.Principal { return s.service }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.accessLog)

	api := r.NewRoute().Subrouter()
	api.Use(s.authenticate)
	api.HandleFunc("/delegate", s.handleDelegate).Methods(http.MethodPost)
	api.HandleFunc("/allocate", s.handleAllocate).Methods(http.MethodPost)
	api.HandleFunc("/aboutme", s.handleAboutMe).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/ping", s.handlePing).Methods(http.MethodPost)
	api.HandleFunc("/ledger/account_balance", s.handleAccountBalance).Methods(http.MethodPost)
	api.HandleFunc("/cycles/icrc1_balance_of", s.handleICRC1BalanceOf).Methods(http.MethodPost)
	api.HandleFunc("/ledger/send_dfx", s.handleTransfer).Methods(http.MethodPost)
	api.HandleFunc("/ledger/notify_dfx", s.handleNotify).Methods(http.MethodPost)

	r.HandleFunc("/dev/credit", s.handleCredit).Methods(http.MethodPost)
	return r
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		if sw.status == 0 {
			sw.status = http.StatusOK
		}
		route := r.URL.Path
		if m := mux.CurrentRoute(r); m != nil {
			if tpl, err := m.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.Request(route, sw.status)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"remote":   r.RemoteAddr,
			"status":   sw.status,
			"bytes":    sw.bytes,
			"duration": time.Since(start),
		}).Info("request")
	})
}
