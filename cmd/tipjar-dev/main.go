package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tipjar/internal/app"
	"tipjar/internal/devserver"
	"tipjar/internal/domain"
	"tipjar/internal/metrics"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		addr      string
		service   string
		logLevel  string
		logFormat string
	)
	cmd := &cobra.Command{
		Use:          "tipjar-dev",
		Short:        "Run the in-memory tip-jar service",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.DefaultConfig()
			cfg.LogLevel, cfg.LogFormat = logLevel, logFormat
			log, err := app.NewLogger(cfg, os.Stderr)
			if err != nil {
				return err
			}
			owner, err := domain.ParsePrincipal(service)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			m, err := metrics.New(reg)
			if err != nil {
				return err
			}
			srv := devserver.New(owner, devserver.WithLogger(log), devserver.WithMetrics(m))

			r := mux.NewRouter()
			r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
			r.PathPrefix("/").Handler(srv)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, log, &http.Server{
				Addr:              addr,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&service, "service", app.DefaultServiceCanister, "principal that owns deposit accounts")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	cmd.Flags().StringVar(&logFormat, "log-format", "text", "log format (text or json)")
	return cmd
}

func serve(ctx context.Context, log logrus.FieldLogger, hs *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", hs.Addr).Info("tipjar-dev listening")
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("tipjar-dev stopped")
	return nil
}
