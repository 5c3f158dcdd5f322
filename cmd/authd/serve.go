package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/metrics/export/prometheus"
	"github.com/MrEthical07/sessionauth/web"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the authentication pages over HTTP",
		Long: `Serve /register, /login, /logout and /profile, plus /healthz and,
when enabled, Prometheus metrics on /metrics. SIGINT or SIGTERM starts a
graceful shutdown.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			engine, cleanup, err := rt.openEngine(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()

			ln, err := net.Listen("tcp", rt.cfg.Listen)
			if err != nil {
				return fmt.Errorf("listen %s: %w", rt.cfg.Listen, err)
			}
			return rt.serve(ctx, ln, engine)
		},
	}
}

func (rt *runtime) routes(engine *sessionauth.Engine) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", web.NewHandler(engine, rt.logger))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := engine.Stats(r.Context()); err != nil {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	})
	if rt.cfg.Metrics {
		mux.Handle("GET /metrics", prometheus.Handler(prometheus.NewCollector(engine)))
	}
	return mux
}

// serve runs the HTTP server on ln until ctx is done, then shuts it down
// within ShutdownTimeout.
func (rt *runtime) serve(ctx context.Context, ln net.Listener, engine *sessionauth.Engine) error {
	srv := &http.Server{
		Handler:           rt.routes(engine),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("listening", "addr", ln.Addr().String(), "data_dir", rt.cfg.DataDir)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	rt.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
