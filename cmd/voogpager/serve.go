package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/voog-pager/pkg/logging"
	"github.com/Sternrassler/voog-pager/pkg/metrics"
	"github.com/Sternrassler/voog-pager/pkg/options"
	"github.com/Sternrassler/voog-pager/pkg/pagination"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
)

func newServeCommand(cfg *appConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve server-side rendered listing pages over HTTP",
		Long: `Serve every GET path as a rendered listing page.

The request URL plays the role of the browser location, so /blog?page=3
renders page 3. Pages are cached in Redis when REDIS_URL is set and in
memory otherwise. /health and /metrics are served as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.Port, "port", cfg.Port, "listen port (overrides PORT)")
	cmd.Flags().StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "Redis address (overrides REDIS_URL)")

	return cmd
}

func runServe(ctx context.Context, cfg *appConfig) error {
	logger := logging.NewLogger("serve")

	opts, err := cfg.resolveOptions(nil)
	if err != nil {
		return err
	}

	store, closeStore, err := cfg.newStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	voog, err := cfg.newClient(store)
	if err != nil {
		return fmt.Errorf("failed to create Voog client: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(voog, opts, cfg.Timeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("base_url", cfg.BaseURL).
			Bool("redis", cfg.RedisURL != "").
			Msg("Starting voogpager server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRouter serves /health, /metrics and rendered pages on every other path.
func newRouter(fetcher pagination.Fetcher, opts options.Options, timeout time.Duration) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(pageHandler(fetcher, opts, timeout)).Methods(http.MethodGet)
	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

// pageHandler renders the page the request URL points at. A failed fetch
// still renders the error notification, with status 502.
func pageHandler(fetcher pagination.Fetcher, opts options.Options, timeout time.Duration) http.HandlerFunc {
	logger := logging.NewLogger("serve")

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		page, err := renderPage(ctx, fetcher, opts, r.URL.RequestURI(), 0)
		if err != nil {
			logger.Error().Err(err).Str("url", r.URL.RequestURI()).Msg("Render failed")
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}

		status := http.StatusOK
		if page.Failure != nil {
			status = http.StatusBadGateway
			if page.Failure.StatusCode == http.StatusNotFound {
				status = http.StatusNotFound
			}
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if _, err := io.WriteString(w, page.Document()); err != nil {
			logger.Warn().Err(err).Msg("Failed to write response")
		}
	}
}
