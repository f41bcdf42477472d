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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"holyremedies.mx/storefront/internal/auth"
	"holyremedies.mx/storefront/internal/checkout"
	"holyremedies.mx/storefront/internal/metrics"
	"holyremedies.mx/storefront/internal/router"
	"holyremedies.mx/storefront/pkg/mongo"
	"holyremedies.mx/storefront/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var ensureIndexes bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), ensureIndexes)
		},
	}
	cmd.Flags().BoolVar(&ensureIndexes, "ensure-indexes", true, "Create MongoDB indexes on startup")
	return cmd
}

func serve(parent context.Context, ensureIndexes bool) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(contextOrBackground(parent), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := connectStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	if ensureIndexes && store.Configured() {
		if err := store.EnsureIndexes(ctx); err != nil {
			logger.Warn("ensure indexes failed", zap.Error(err))
		}
	}

	rdb := redis.NewClient(cfg)
	defer rdb.Close()
	if err := redis.Ping(ctx, rdb); err != nil {
		logger.Warn("redis unreachable at startup", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	deps := router.Dependencies{
		Config:       cfg,
		Catalog:      store,
		ProductCache: redis.NewProductCache(rdb),
		Site:         store,
		CartStorage:  redis.NewCartStorage(rdb),
		Initiator: checkout.NewInitiator(store, checkout.InitiatorConfig{
			BaseURL:  cfg.PublicBaseURL,
			Currency: cfg.CheckoutCurrency,
			Metrics:  m,
		}),
		Watcher: checkout.NewWatcher(sessionSubscriber(store), checkout.WatcherConfig{
			Timeout: cfg.CheckoutWatchTimeout,
			Metrics: m,
		}),
		Metrics:   m,
		Gatherer:  registry,
		CachePing: func(ctx context.Context) error { return redis.Ping(ctx, rdb) },
	}
	if store.Configured() {
		deps.DatabasePing = store.Ping
	}
	if cfg.JWTSecret != "" {
		deps.Auth = auth.NewService(store, cfg.JWTSecret, 0)
	} else {
		logger.Warn("JWT_SECRET not set, admin routes disabled")
	}

	logger.Info("server is running", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	return listenAndServe(ctx, ":"+cfg.Port, router.NewEngine(deps))
}

func listenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return serveUntilDone(ctx, newHTTPServer(ctx, handler), ln)
}

// newHTTPServer derives every request context from ctx, so open checkout
// event streams end as soon as shutdown starts.
func newHTTPServer(ctx context.Context, handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveUntilDone(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("run server: %w", err)
		}
	case <-ctx.Done():
		zap.L().Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

var _ router.Catalog = (*mongo.Store)(nil)
