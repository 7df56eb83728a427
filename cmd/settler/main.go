package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/givebase/settler/internal/api"
	"github.com/givebase/settler/internal/export"
	"github.com/givebase/settler/internal/metrics"
	"github.com/givebase/settler/internal/repository"
	"github.com/givebase/settler/internal/seed"
	"github.com/givebase/settler/internal/settlement"
	"github.com/givebase/settler/pkg/logging"
)

func main() {
	var (
		dbPath    = flag.String("db", envOr("SETTLER_DB", "settler.db"), "sqlite database path")
		periodStr = flag.String("period", "", "settlement period as YYYY-MM (default: previous month)")
		serve     = flag.Bool("serve", false, "serve the ops API instead of settling once")
		listen    = flag.String("listen", envOr("SETTLER_LISTEN", ":8080"), "ops API listen address")
		exportDir = flag.String("export-dir", envOr("SETTLER_EXPORT_DIR", "exports"), "directory for audit CSV files")
		seedPath  = flag.String("seed", "", "fixture file to load before starting")
		parallel  = flag.Int("parallelism", 4, "hosts settled concurrently")
		platform  = flag.String("platform-account", envOr("SETTLER_PLATFORM_ACCOUNT", "givebase"), "account owning platform-side credits")
	)
	flag.Parse()

	log := logging.Setup()

	db, err := repository.InitDB(*dbPath)
	if err != nil {
		log.Error("init database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores := settlement.Stores{
		Hosts:    repository.NewHostRepo(db),
		Plans:    repository.NewPlanRepo(db),
		Txns:     repository.NewTransactionRepo(db),
		Expenses: repository.NewExpenseRepo(db),
		Runs:     repository.NewRunRepo(db),
	}

	if *seedPath != "" {
		fx, err := seed.LoadFile(*seedPath)
		if err != nil {
			log.Error("load fixture", "path", *seedPath, "error", err)
			os.Exit(1)
		}
		counts, err := seed.Apply(ctx, db, fx)
		if err != nil {
			log.Error("apply fixture", "path", *seedPath, "error", err)
			os.Exit(1)
		}
		log.Info("fixture applied", "hosts", counts.Hosts, "collectives", counts.Collectives,
			"plans", counts.Plans, "new_transactions", counts.Transactions)
	}

	if n, err := stores.Hosts.Count(ctx); err == nil && n == 0 {
		log.Warn("store has no hosts; generate a fixture with go run ./testdata/generate and load it with -seed")
	}

	files, err := export.NewDirStore(*exportDir)
	if err != nil {
		log.Error("init export dir", "dir", *exportDir, "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	cfg := settlement.Config{Parallelism: *parallel, PlatformAccountID: *platform}
	svc := settlement.NewService(cfg, stores, files, settlement.LogNotifier{Log: log}, m, log)

	if *serve {
		runServer(ctx, log, *listen, api.NewRouter(svc, stores.Expenses, stores.Runs, m, log))
		return
	}
	runOnce(ctx, log, svc, *periodStr)
}

// runOnce settles one period and prints the run report to stdout. Host
// failures are reported in the body; only a run that could not execute at
// all exits non-zero.
func runOnce(ctx context.Context, log *slog.Logger, svc *settlement.Service, periodStr string) {
	period := settlement.PreviousMonth(time.Now())
	if periodStr != "" {
		var err error
		period, err = settlement.ParsePeriod(periodStr)
		if err != nil {
			log.Error("bad -period", "error", err)
			os.Exit(2)
		}
	}

	run, err := svc.Run(ctx, period)
	if err != nil {
		log.Error("settlement run failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		log.Error("write report", "error", err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, log *slog.Logger, addr string, handler http.Handler) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", "error", err)
		}
	}()

	log.Info("serving ops API", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
