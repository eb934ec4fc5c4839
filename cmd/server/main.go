package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/cache"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/health"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
	"github.com/mmynk/splitledger/pkg/logging"
)

func main() {
	// Console logging until the configuration is loaded.
	logging.Setup()

	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Env}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	logCloser := logging.SetupWithOptions(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Sentry:     cfg.Sentry.DSN != "",
	})
	defer logCloser.Close()

	config.Watch(v, func(c *config.Config) {
		logging.SetLevel(logging.ParseLevel(c.Log.Level))
	})

	slog.Info("Starting splitledger", "env", cfg.Env, "addr", cfg.HTTP.Addr, "database", cfg.Database.Driver)

	store, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.Database.Driver)

	pingers := []health.Pinger{store}

	var balanceCache cache.BalanceCache = cache.Nop{}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		rc := cache.NewRedis(client, cfg.Redis.TTL)
		if err := rc.Ping(ctx); err != nil {
			slog.Warn("Redis unreachable, balances will be computed uncached until it recovers", "addr", cfg.Redis.Addr, "error", err)
		}
		balanceCache = rc
		pingers = append(pingers, rc)
		slog.Info("Balance cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQP.URL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return fmt.Errorf("connect amqp: %w", err)
		}
		defer p.Close()
		publisher = p
		slog.Info("Expense events enabled", "exchange", cfg.AMQP.Exchange)
	}

	ledgerSvc := ledger.New(store, balanceCache)
	interceptors := connect.WithInterceptors(middleware.LoggingInterceptor(), middleware.MetricsInterceptor())

	mux := http.NewServeMux()

	// Register Connect services
	mux.Handle(apiconnect.NewUserServiceHandler(service.NewUserService(store, ledgerSvc), interceptors))
	mux.Handle(apiconnect.NewGroupServiceHandler(service.NewGroupService(store, ledgerSvc), interceptors))
	mux.Handle(apiconnect.NewExpenseServiceHandler(service.NewExpenseService(store, ledgerSvc, publisher), interceptors))

	mux.Handle("/healthz", health.NewChecker(5*time.Second, pingers...).Handler())
	if cfg.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           h2c.NewHandler(corsMiddleware(mux), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Connect server starting", "address", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down", "timeout", cfg.HTTP.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("Server stopped")
	return nil
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	allowHeaders := strings.Join([]string{
		"Content-Type",
		"Connect-Protocol-Version",
		"Connect-Timeout-Ms",
		middleware.RequestIDHeader,
	}, ", ")
	exposeHeaders := strings.Join([]string{
		"Connect-Protocol-Version",
		"Connect-Timeout-Ms",
		middleware.RequestIDHeader,
	}, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
		w.Header().Set("Access-Control-Expose-Headers", exposeHeaders)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
