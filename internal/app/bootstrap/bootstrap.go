package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	leaderboard "testquest/contexts/community-experience/leaderboard-service"
	leaderboardpostgres "testquest/contexts/community-experience/leaderboard-service/adapters/postgres"
	bountypool "testquest/contexts/finance-core/bounty-pool"
	poolpostgres "testquest/contexts/finance-core/bounty-pool/adapters/postgres"
	rewardledger "testquest/contexts/finance-core/reward-ledger"
	ledgerpostgres "testquest/contexts/finance-core/reward-ledger/adapters/postgres"
	withdrawal "testquest/contexts/finance-core/withdrawal-service"
	"testquest/contexts/finance-core/withdrawal-service/adapters/paypal"
	withdrawalpostgres "testquest/contexts/finance-core/withdrawal-service/adapters/postgres"
	withdrawalworkers "testquest/contexts/finance-core/withdrawal-service/application/workers"
	bugreport "testquest/contexts/triage-review/bug-report-service"
	reportpostgres "testquest/contexts/triage-review/bug-report-service/adapters/postgres"
	reportworkers "testquest/contexts/triage-review/bug-report-service/application/workers"
	"testquest/internal/platform/config"
	"testquest/internal/platform/db"
	"testquest/internal/platform/httpserver"
	"testquest/internal/platform/messaging"
)

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres

	reportRelay     *reportworkers.OutboxRelay
	withdrawalRelay *withdrawalworkers.OutboxRelay
	reconciler      *withdrawalworkers.PayoutReconciler

	pollInterval time.Duration
	logger       *slog.Logger
}

type modules struct {
	pool        bountypool.Module
	ledger      rewardledger.Module
	reports     bugreport.Module
	withdrawals withdrawal.Module
	leaderboard leaderboard.Module
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	mods := buildModules(pg, cfg, logger)
	server := httpserver.New(
		mods.pool,
		mods.ledger,
		mods.reports,
		mods.withdrawals,
		mods.leaderboard,
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)
	mods := buildModules(pg, cfg, logger)

	app := &WorkerApp{
		postgres:     pg,
		pollInterval: cfg.WorkerPollInterval,
		logger:       logger,
	}

	if cfg.EnableOutboxRelay {
		app.reportRelay = &reportworkers.OutboxRelay{
			Outbox:    reportpostgres.NewRepository(pg.DB, logger),
			Publisher: bus,
			Clock:     reportpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		}
		app.withdrawalRelay = &withdrawalworkers.OutboxRelay{
			Outbox:    withdrawalpostgres.NewRepository(pg.DB, logger),
			Publisher: bus,
			Clock:     withdrawalpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		}
	}
	if cfg.EnablePayoutReconciler {
		app.reconciler = &withdrawalworkers.PayoutReconciler{
			Withdrawals: withdrawalpostgres.NewRepository(pg.DB, logger),
			Service:     mods.withdrawals.Service,
			Clock:       withdrawalpostgres.SystemClock{},
			StuckAfter:  cfg.PayoutStuckAfter,
			BatchSize:   100,
			Logger:      logger,
		}
	}
	return app, nil
}

// buildModules wires the five bounded contexts over one postgres handle.
// Order matters: the ledger has no outward dependencies, the pool records
// into the ledger, triage spans both, and the leaderboard reads everything.
func buildModules(pg *db.Postgres, cfg config.Config, logger *slog.Logger) modules {
	ledgerModule := rewardledger.NewModule(rewardledger.Dependencies{
		Repository:  ledgerpostgres.NewRepository(pg.DB, logger),
		Clock:       ledgerpostgres.SystemClock{},
		IDGenerator: ledgerpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	poolModule := bountypool.NewModule(bountypool.Dependencies{
		Repository:  poolpostgres.NewRepository(pg.DB, logger),
		Ledger:      ledgerFundingRecorder{ledger: ledgerModule.Service},
		Clock:       poolpostgres.SystemClock{},
		IDGenerator: poolpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	reportRepo := reportpostgres.NewRepository(pg.DB, logger)

	leaderboardModule := leaderboard.NewModule(leaderboard.Dependencies{
		Profiles: leaderboardpostgres.NewRepository(pg.DB, logger),
		Reports:  reportHistory{reports: reportRepo},
		Credits:  creditsReader{ledger: ledgerModule.Service},
		Clock:    leaderboardpostgres.SystemClock{},
		Logger:   logger,
	})

	reportModule := bugreport.NewModule(bugreport.Dependencies{
		Repository:  reportRepo,
		Projects:    projectGateway{pool: poolModule.Service},
		Ledger:      rewardLedger{ledger: ledgerModule.Service},
		Profiles:    leaderboardModule.Service,
		Outbox:      reportRepo,
		Clock:       reportpostgres.SystemClock{},
		IDGenerator: reportpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	withdrawalModule := withdrawal.NewModule(withdrawal.Dependencies{
		Repository: withdrawalpostgres.NewRepository(pg.DB, logger),
		Ledger:     withdrawalLedger{ledger: ledgerModule.Service},
		Payout: paypal.NewProvider(
			cfg.PayoutBaseURL,
			cfg.PayoutClientID,
			cfg.PayoutSecret,
			cfg.PayoutTimeout,
			logger,
		),
		Outbox:        withdrawalpostgres.NewRepository(pg.DB, logger),
		Clock:         withdrawalpostgres.SystemClock{},
		IDGenerator:   withdrawalpostgres.UUIDGenerator{},
		PayoutTimeout: cfg.PayoutTimeout,
		Logger:        logger,
	})

	return modules{
		pool:        poolModule,
		ledger:      ledgerModule,
		reports:     reportModule,
		withdrawals: withdrawalModule,
		leaderboard: leaderboardModule,
	}
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if w.reconciler != nil {
			if err := w.reconciler.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.reportRelay != nil {
			if err := w.reportRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.withdrawalRelay != nil {
			if err := w.withdrawalRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
