package app

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"tipjar/internal/domain"
	"tipjar/internal/identity"
	"tipjar/internal/metrics"
	"tipjar/internal/provider"
	"tipjar/internal/remote"
	"tipjar/internal/session"
	"tipjar/internal/store"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Config   Config
	Log      *logrus.Logger
	KV       domain.KV
	Identity *store.IdentityStore
	Provider *provider.Local
	Dialer   *remote.Dialer
	Session  *session.Controller
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	HTTP     *http.Client

	Service domain.Principal
	Minting domain.Principal

	closers []io.Closer
}

// Options are the interactive hooks a front end supplies.
type Options struct {
	// Approver confirms provider logins; nil approves silently.
	Approver provider.Approver
	// LogOutput defaults to stderr.
	LogOutput io.Writer
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config, out io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	log.SetOutput(out)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}

// OpenKV opens the configured key-value backend under cfg.Home.
func OpenKV(cfg Config) (domain.KV, io.Closer, error) {
	switch cfg.StoreBackend {
	case StoreBadger:
		kv, err := store.OpenBadgerKV(filepath.Join(cfg.Home, "badger"))
		if err != nil {
			return nil, nil, fmt.Errorf("open badger store: %w", err)
		}
		return kv, kv, nil
	default:
		return store.NewFileKV(filepath.Join(cfg.Home, "store")), nil, nil
	}
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config, opts Options) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := NewLogger(cfg, opts.LogOutput)
	if err != nil {
		return nil, err
	}
	service, err := domain.ParsePrincipal(cfg.ServiceCanister)
	if err != nil {
		return nil, fmt.Errorf("service_canister: %w", err)
	}
	minting, err := domain.ParsePrincipal(cfg.MintingCanister)
	if err != nil {
		return nil, fmt.Errorf("minting_canister: %w", err)
	}

	w := &Wire{Config: cfg, Log: log, Service: service, Minting: minting}

	kv, closer, err := OpenKV(cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		w.closers = append(w.closers, closer)
	}
	w.KV = kv

	// Stores
	w.Identity = store.NewIdentityStore(kv, store.WithPassphrase(cfg.Passphrase), store.WithLogger(log))
	w.Provider = provider.NewLocal(
		store.NewSealedKV(kv, cfg.Passphrase),
		provider.WithApprover(opts.Approver),
		provider.WithLogger(log),
	)

	// Observability
	w.Registry = prometheus.NewRegistry()
	if w.Metrics, err = metrics.New(w.Registry); err != nil {
		w.Close()
		return nil, err
	}

	// Remote service client
	w.HTTP = &http.Client{Timeout: cfg.RequestTimeout}
	w.Dialer = remote.NewDialer(cfg.ServiceURL, w.HTTP, log, w.Metrics)

	// Session controller
	w.Session, err = session.New(session.Config{
		Provider: w.Provider,
		Store:    w.Identity,
		Factory:  identity.NewFactory(),
		Dialer:   w.Dialer,
		Service:  service,
		Minting:  minting,
		LoginTTL: cfg.LoginMaxTTL,
		Recorder: w.Metrics,
		Log:      log,
	})
	if err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// Close releases the store backend.
func (w *Wire) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	w.closers = nil
	return first
}
