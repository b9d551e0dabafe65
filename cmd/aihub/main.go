package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/soochol/aihub/internal/api"
	"github.com/soochol/aihub/internal/catalog"
	"github.com/soochol/aihub/internal/config"
	"github.com/soochol/aihub/internal/db"
	"github.com/soochol/aihub/internal/engine"
	"github.com/soochol/aihub/internal/model"
	"github.com/soochol/aihub/internal/registry"
	"github.com/soochol/aihub/internal/repository"
	"github.com/soochol/aihub/internal/services"
	"github.com/soochol/aihub/internal/stages"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		serve()
		return
	}
	fmt.Println("aihub v0.1.0")
	fmt.Println("Usage: aihub serve")
}

func serve() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadDefault()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Persistence: Postgres when a database URL is configured, otherwise
	// everything stays in memory.
	var (
		ledger repository.ApprovalLedger
		runs   repository.RunRepository
	)
	if cfg.Database.URL != "" {
		database, err := db.New(ctx, cfg.Database.URL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			slog.Error("database migration failed", "err", err)
			os.Exit(1)
		}
		ledger = repository.NewPostgresApprovalLedger(database)
		runs = repository.NewPostgresRunRepository(database)
		slog.Info("using postgres persistence")
	} else {
		ledger = repository.NewMemoryApprovalLedger()
		runs = repository.NewMemoryRunRepository()
		slog.Info("using in-memory persistence")
	}

	providers := model.FromConfig(cfg.Providers)
	if providers.Text == nil {
		slog.Warn("no text provider configured, using deterministic responses")
	}
	if providers.Vision == nil {
		slog.Warn("no vision provider configured, receipt images will be rejected")
	}

	reg := registry.New()
	deps := &stages.Deps{
		Text:    providers.Text,
		Vision:  providers.Vision,
		Catalog: catalog.Default(),
		Options: stages.Options{
			ExpenseManagerSkip: cfg.Workflows.Thresholds.ExpenseManagerSkip,
			TaxiAutoApprove:    cfg.Workflows.Thresholds.TaxiAutoApprove,
			TaxiMaxFare:        cfg.Workflows.Thresholds.TaxiMaxFare,
			FulfillmentReview:  cfg.Workflows.Thresholds.FulfillmentReview,
		},
		Log: slog.Default(),
	}
	if err := stages.RegisterAll(reg, deps); err != nil {
		slog.Error("workflow registration failed", "err", err)
		os.Exit(1)
	}

	history := services.NewRunHistoryService(runs, slog.Default())

	runner := engine.NewWorkflowRunner(reg, ledger, slog.Default(),
		engine.WithTracker(history),
		engine.WithPacing(time.Duration(cfg.Workflows.StepDelayMS)*time.Millisecond),
	)

	sweeper := services.NewApprovalSweeper(ledger, history, cfg.Approvals.TTL(), slog.Default())
	if err := sweeper.Start(cfg.Approvals.SweepSchedule); err != nil {
		slog.Error("approval sweeper failed to start", "err", err)
		os.Exit(1)
	}
	defer sweeper.Stop()

	limiter := services.NewConcurrencyLimiter(services.ConcurrencyLimits{
		GlobalMax: cfg.Limits.GlobalMax,
		PerFamily: cfg.Limits.PerFamily,
	})

	srv := api.NewServer(reg, runner, history, limiter, slog.Default())
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	slog.Info("starting aihub server", "addr", addr, "agents", len(reg.List()))
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
