package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/coven/internal/auth"
	"github.com/mmynk/coven/internal/config"
	"github.com/mmynk/coven/internal/ledger"
	"github.com/mmynk/coven/internal/metrics"
	"github.com/mmynk/coven/internal/middleware"
	"github.com/mmynk/coven/internal/service"
	"github.com/mmynk/coven/internal/storage"
	"github.com/mmynk/coven/internal/storage/sqlite"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and serve the Connect API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Port = port
		}
		if err := cfg.RequireSecret(); err != nil {
			return err
		}

		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		slog.Info("Storage initialized", "database", cfg.DBPath)

		jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
		handler := newHandler(cfg, store, jwtManager, metrics.New())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return listenAndServe(ctx, cfg.Addr(), handler)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&port, "port", 8080, "Listen port (overrides PORT).")
}

// newHandler mounts both Connect services plus /metrics and /healthz, behind
// CORS and wrapped with h2c for HTTP/2 without TLS.
func newHandler(cfg *config.Config, store storage.Store, jwtManager *auth.JWTManager, m *metrics.Metrics) http.Handler {
	interceptors := connect.WithInterceptors(
		middleware.LoggingInterceptor(m),
		middleware.RequireAuth(jwtManager),
		middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
	ledgerOpts := []ledger.Option{
		ledger.WithMetrics(m),
		ledger.WithWriteTimeout(cfg.StoreWriteTimeout),
	}

	mux := http.NewServeMux()

	guestPath, guestHandler := service.NewGuestServiceHandler(service.NewGuestService(store, ledgerOpts...), interceptors)
	mux.Handle(guestPath, guestHandler)

	gatheringPath, gatheringHandler := service.NewGatheringServiceHandler(service.NewGatheringService(store), interceptors)
	mux.Handle(gatheringPath, gatheringHandler)

	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms"},
		ExposedHeaders: []string{
			"Connect-Protocol-Version",
			"Connect-Timeout-Ms",
			service.MetaUnappliedGuests,
			service.MetaAppliedGuests,
			service.MetaFailedGuest,
		},
	}).Handler(requestLogging(mux))

	return h2c.NewHandler(corsHandler, &http2.Server{})
}

// requestLogging logs every HTTP request at debug level.
func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func listenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
