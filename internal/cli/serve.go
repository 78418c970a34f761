package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/scalewithchintan/news-cache/pkg/cache"
	"github.com/scalewithchintan/news-cache/pkg/metrics"
	"github.com/scalewithchintan/news-cache/pkg/news"
	"github.com/scalewithchintan/news-cache/pkg/redisconn"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the latest articles over HTTP",
	Long: "Serves GET /news?limit=N from the cache, plus /health, /ready and /metrics. " +
		"An empty cache answers 200 with [], a Redis failure 502 and an unreachable Redis 503.",
	RunE: serveAction,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func serveAction(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	addr := a.cfg.HTTP.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      newHandler(a.reader(), a.manager, a.cfg.DefaultLimit, a.logger),
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", addr).Msg("Starting news cache server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info().Msg("Shutting down news cache server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newsFetcher is satisfied by *cache.Reader.
type newsFetcher interface {
	FetchLatest(ctx context.Context, limit int) ([]news.Article, error)
}

// pinger is satisfied by *redisconn.Manager.
type pinger interface {
	Ping(ctx context.Context) error
}

const readyTimeout = 2 * time.Second

func newHandler(reader newsFetcher, redis pinger, defaultLimit int, logger zerolog.Logger) http.Handler {
	logger = logger.With().Str("component", "http").Logger()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", readyHandler(redis, logger))
	mux.HandleFunc("GET /news", newsHandler(reader, defaultLimit, logger))
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func readyHandler(redis pinger, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := redis.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("Readiness check failed")
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "READY")
	}
}

func newsHandler(reader newsFetcher, defaultLimit int, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		articles, err := reader.FetchLatest(r.Context(), limit)
		if err != nil {
			status := statusFor(err)
			logger.Error().Err(err).Int("status", status).Int("limit", limit).Msg("Fetching latest news failed")
			writeError(w, status, http.StatusText(status))
			return
		}

		writeJSON(w, http.StatusOK, articles)
	}
}

// statusFor maps read errors to HTTP status codes. An empty cache is not an
// error and never reaches here.
func statusFor(err error) int {
	var readErr *cache.CacheReadError
	var connErr *redisconn.ConnectionError
	switch {
	case errors.Is(err, cache.ErrInvalidLimit):
		return http.StatusBadRequest
	case errors.As(err, &connErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &readErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
