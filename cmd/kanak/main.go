package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kanak-erp/kanak/cmd/kanak/cli"
	"github.com/kanak-erp/kanak/internal/app"
	"github.com/kanak-erp/kanak/internal/catalog"
	"github.com/kanak-erp/kanak/internal/goldloan"
	"github.com/kanak-erp/kanak/internal/inventory"
	"github.com/kanak-erp/kanak/internal/observability"
	"github.com/kanak-erp/kanak/internal/orders"
	"github.com/kanak-erp/kanak/internal/platform/cache"
	"github.com/kanak-erp/kanak/internal/platform/db"
	"github.com/kanak-erp/kanak/internal/platform/remote"
	"github.com/kanak-erp/kanak/internal/shared"
	"github.com/kanak-erp/kanak/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{"serve"}
	}
	switch args[0] {
	case "serve":
		if err := serve(ctx, stop, cfg, logger); err != nil {
			logger.Error("serve", slog.Any("error", err))
			os.Exit(1)
		}
	case "jobs":
		os.Exit(runJobs(ctx, cfg, args[1:]))
	case "loans":
		os.Exit(runLoans(ctx, cfg, logger, args[1:]))
	default:
		fmt.Fprintf(os.Stderr, "usage: kanak [serve | jobs trigger <name> | jobs stats | loans overdue [--as-of YYYY-MM-DD] [--json]]\n")
		os.Exit(1)
	}
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	loanRepo, closeRepo, err := loanRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	metrics := observability.NewMetrics()
	if err := catalog.SetupCacheMetrics(metrics.Registerer()); err != nil {
		return fmt.Errorf("register catalog metrics: %w", err)
	}

	api := remote.NewClient(cfg.BackendAPIURL,
		remote.WithToken(cfg.BackendAPIToken),
		remote.WithTimeout(cfg.BackendAPITimeout))

	catalogCache := catalog.NewCache(redisClient, cfg.CatalogCacheTTL)
	lookup := catalog.NewLookup(catalog.NewClient(api), catalogCache, logger)
	go func() {
		if err := catalogCache.ListenForInvalidation(ctx, catalog.BumpChannel); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("catalog invalidation listener stopped", slog.Any("error", err))
		}
	}()

	inventoryClient := inventory.NewClient(api, logger)
	store := orders.NewRedisStore(redisClient, cfg.DraftTTL, 0)
	orderHandler := func(profile orders.Profile) *orders.Handler {
		svc := orders.NewService(profile, store, lookup, inventoryClient,
			orders.NewRemoteSubmitter(api, profile), metrics, logger)
		return orders.NewHandler(logger, svc)
	}

	loanService := goldloan.NewService(loanRepo, logger).
		UseIdempotency(shared.NewIdempotencyStore(redisClient, 24*time.Hour))

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("job inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		PurchaseHandler: orderHandler(orders.PurchaseProfile),
		SalesHandler:    orderHandler(orders.SalesProfile),
		GoldLoanHandler: goldloan.NewHandler(logger, loanService),
		CatalogHandler:  catalog.NewHandler(logger, lookup, jobClient),
		JobHandler:      jobs.NewHandler(inspector, logger),
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// loanRepository picks PostgreSQL when a DSN is configured and falls back to
// the in-memory book otherwise.
func loanRepository(ctx context.Context, cfg *app.Config, logger *slog.Logger) (goldloan.Repository, func(), error) {
	if cfg.PGDSN == "" {
		logger.Warn("PG_DSN not set, gold loans are kept in memory")
		return goldloan.NewMemoryRepository(), func() {}, nil
	}
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: 10, ConnectTimeout: 5 * time.Second})
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	repo := goldloan.NewPGRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repo, pool.Close, nil
}

func runJobs(ctx context.Context, cfg *app.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: kanak jobs trigger <name> | kanak jobs stats")
		return 1
	}
	jc := cli.NewJobsCLI(cfg.RedisAddr)
	defer func() { _ = jc.Close() }()

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "jobs trigger: name required (%s, %s)\n", jobs.TaskCatalogRefresh, jobs.TaskGoldLoanOverdueScan)
			return 1
		}
		info, err := jc.Trigger(ctx, args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs trigger: %v\n", err)
			return 1
		}
		fmt.Printf("enqueued %s as %s\n", info.Type, info.ID)
	case "stats":
		stats, err := jc.InspectQueue()
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs stats: %v\n", err)
			return 1
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	default:
		fmt.Fprintf(os.Stderr, "jobs: unknown command %q\n", args[0])
		return 1
	}
	return 0
}

func runLoans(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	if len(args) == 0 || args[0] != "overdue" {
		fmt.Fprintln(os.Stderr, "usage: kanak loans overdue [--as-of YYYY-MM-DD] [--json]")
		return 1
	}
	fs := flag.NewFlagSet("loans overdue", flag.ContinueOnError)
	asOf := fs.String("as-of", "", "report date (YYYY-MM-DD), defaults to today")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args[1:]); err != nil {
		return 1
	}

	repo, closeRepo, err := loanRepository(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loans overdue: %v\n", err)
		return 1
	}
	defer closeRepo()

	scan := jobs.NewOverdueScanJob(repo, logger, nil)
	return cli.NewLoansCLI(scan).OverdueCommand(ctx, cli.OverdueOptions{AsOf: *asOf, JSONOutput: *asJSON})
}
