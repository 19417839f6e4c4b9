package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/MrJamesThe3rd/manekat/internal/auth"
	"github.com/MrJamesThe3rd/manekat/internal/config"
	"github.com/MrJamesThe3rd/manekat/internal/database"
	"github.com/MrJamesThe3rd/manekat/internal/feed"
	manekatHttp "github.com/MrJamesThe3rd/manekat/internal/http"
	masterHandler "github.com/MrJamesThe3rd/manekat/internal/http/master"
	reportHandler "github.com/MrJamesThe3rd/manekat/internal/http/report"
	sessionHandler "github.com/MrJamesThe3rd/manekat/internal/http/session"
	streamHandler "github.com/MrJamesThe3rd/manekat/internal/http/stream"
	txHandler "github.com/MrJamesThe3rd/manekat/internal/http/transaction"
	"github.com/MrJamesThe3rd/manekat/internal/ledger"
	"github.com/MrJamesThe3rd/manekat/internal/master"
	masterStore "github.com/MrJamesThe3rd/manekat/internal/master/store"
	"github.com/MrJamesThe3rd/manekat/internal/report"
	"github.com/MrJamesThe3rd/manekat/internal/transaction"
	txStore "github.com/MrJamesThe3rd/manekat/internal/transaction/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(cfg.ConnectionString()); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	retry := database.RetryPolicy{
		Timeout:    cfg.Store.WriteTimeout,
		MaxRetries: cfg.Store.MaxRetries,
	}

	var (
		masterRepo  master.Repository = masterStore.New(db)
		masterCache *masterStore.Cached
	)

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		masterCache = masterStore.NewCached(masterRepo, rdb, cfg.Redis.TTL)
		masterRepo = masterCache
		slog.Info("master configuration cache enabled", "addr", cfg.Redis.Addr)
	}

	defaults := master.Config{
		Categories:  master.NewSet(cfg.Master.Categories...),
		Members:     master.NewSet(cfg.Master.Members...),
		MinTransfer: cfg.Master.MinTransfer,
	}

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	var (
		masterManager      = master.NewManager(masterRepo, defaults, master.WithRetry(retry))
		transactionService = transaction.NewService(txStore.New(db), masterManager, transaction.WithRetry(retry))
		reportService      = report.NewService(transactionService, cfg.App.Name, language.Make(cfg.App.Locale))
		authService        = auth.NewService(auth.NewLocalPolicy(cfg.Auth.AdminUsername, cfg.Auth.AdminPasswordHash), issuer)
	)

	if err := masterManager.Bootstrap(ctx); err != nil {
		slog.Error("failed to bootstrap master configuration", "error", err)
		os.Exit(1)
	}

	if cfg.Auth.AdminPasswordHash == "" {
		slog.Warn("ADMIN_PASSWORD_HASH is empty, administrator login is disabled")
	}

	loadMaster := masterManager.Current
	if masterCache != nil {
		loadMaster = masterCache.Refreshing(loadMaster)
	}

	hub := feed.NewHub()

	var (
		listener  = feed.NewListener(cfg.ConnectionString(), database.ChangeChannel, hub)
		snapshots = feed.NewMirror(hub, feed.TopicTransactions, func(ctx context.Context) (ledger.Snapshot, error) {
			records, err := transactionService.All(ctx)
			if err != nil {
				return ledger.Snapshot{}, err
			}

			return ledger.Build(records), nil
		})
		configs = feed.NewMirror(hub, feed.TopicMaster, loadMaster)
	)

	var (
		sessionH     = sessionHandler.NewHandler(authService)
		transactionH = txHandler.NewHandler(transactionService)
		reportH      = reportHandler.NewHandler(reportService, snapshots)
		masterH      = masterHandler.NewHandler(masterManager)
		streamH      = streamHandler.NewHandler(snapshots, configs)
	)

	router := manekatHttp.New(issuer, cfg.Server.AllowedOrigins, sessionH, transactionH, reportH, masterH, streamH)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return listener.Run(ctx) })
	g.Go(func() error { return snapshots.Run(ctx) })
	g.Go(func() error { return configs.Run(ctx) })
	g.Go(func() error { return purgeLoop(ctx, transactionService, cfg.Retention.Rejected, cfg.Retention.PurgeInterval) })

	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// purgeLoop deletes expired rejected records every interval. A zero
// retention disables it.
func purgeLoop(ctx context.Context, svc *transaction.Service, retention, interval time.Duration) error {
	if retention <= 0 || interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := svc.PurgeRejected(ctx, retention); err != nil {
			slog.Error("failed to purge rejected transactions", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
