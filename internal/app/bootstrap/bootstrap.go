package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	voteledger "votex/contexts/election-core/vote-ledger"
	postgresadapter "votex/contexts/election-core/vote-ledger/adapters/postgres"
	"votex/contexts/election-core/vote-ledger/application/workers"
	"votex/internal/platform/config"
	"votex/internal/platform/db"
	"votex/internal/platform/httpserver"
	"votex/internal/platform/messaging"
	"votex/internal/platform/metrics"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	worker   *ledgerWorker
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres
	worker   *ledgerWorker
	logger   *slog.Logger
}

// BuildAPI wires the HTTP process. Without POSTGRES_DSN the ledger runs on the
// in-memory store and state is lost on restart.
func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg).With("service", cfg.ServiceName, "process", "api")

	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}
	ledgerMetrics := metrics.NewLedger(cfg.ServiceName)

	var (
		module voteledger.Module
		pg     *db.Postgres
	)
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		logger.Warn("POSTGRES_DSN not set, using in-memory ledger store",
			"event", "bootstrap_in_memory_store",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		module = voteledger.NewInMemoryModule(bus, ledgerMetrics, logger)
	} else {
		pg, module, err = buildPostgresModule(ctx, cfg, bus, ledgerMetrics, logger)
		if err != nil {
			return nil, err
		}
	}

	restored, err := module.Restore(ctx)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}
	logger.Info("ledger restored",
		"event", "bootstrap_ledger_restored",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"sessions", restored,
	)

	app := &APIApp{
		server:   httpserver.New(module, bus, ledgerMetrics.Handler(), logger, normalizeAddr(cfg.HTTPPort)),
		postgres: pg,
		logger:   logger,
	}
	if cfg.EnableEmbeddedWorker {
		app.worker = newLedgerWorker(module, cfg, logger)
	}
	return app, nil
}

// BuildWorker wires a standalone relay and closer process against Postgres.
func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg).With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}
	pg, module, err := buildPostgresModule(ctx, cfg, bus, metrics.NewLedger(cfg.ServiceName), logger)
	if err != nil {
		return nil, err
	}
	return &WorkerApp{
		postgres: pg,
		worker:   newLedgerWorker(module, cfg, logger),
		logger:   logger,
	}, nil
}

func buildPostgresModule(
	ctx context.Context,
	cfg config.Config,
	bus *messaging.Kafka,
	ledgerMetrics *metrics.Ledger,
	logger *slog.Logger,
) (*db.Postgres, voteledger.Module, error) {
	pg, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, voteledger.Module{}, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	if cfg.AutoMigrate {
		if err := repo.AutoMigrate(ctx); err != nil {
			_ = pg.Close()
			return nil, voteledger.Module{}, err
		}
	}
	module := voteledger.NewModule(voteledger.Dependencies{
		Sessions:        repo,
		Outbox:          repo,
		Publisher:       bus,
		Clock:           postgresadapter.SystemClock{},
		IDGen:           postgresadapter.UUIDGenerator{},
		BallotIDs:       postgresadapter.ULIDGenerator{},
		Metrics:         ledgerMetrics,
		OutboxBatchSize: cfg.OutboxBatchSize,
		Logger:          logger,
	})
	return pg, module, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"embedded_worker", a.worker != nil,
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.server.Run(groupCtx)
	})
	if a.worker != nil {
		group.Go(func() error {
			return a.worker.Run(groupCtx)
		})
	}
	return group.Wait()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return w.worker.Run(ctx)
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// ledgerWorker drives the outbox relay and, when enabled, the session closer
// on a fixed poll interval.
type ledgerWorker struct {
	relay        workers.OutboxRelay
	closer       *workers.SessionCloser
	pollInterval time.Duration
	logger       *slog.Logger
}

func newLedgerWorker(module voteledger.Module, cfg config.Config, logger *slog.Logger) *ledgerWorker {
	worker := &ledgerWorker{
		relay:        module.Relay,
		pollInterval: cfg.WorkerPollInterval,
		logger:       logger,
	}
	if cfg.EnableSessionCloser {
		closer := module.Closer
		worker.closer = &closer
	}
	return worker
}

func (w *ledgerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("ledger worker started",
		"event", "bootstrap_worker_loop_started",
		"module", "internal/app/bootstrap",
		"layer", "worker",
		"poll_interval", w.pollInterval.String(),
		"session_closer", w.closer != nil,
	)

	for {
		if err := w.tick(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *ledgerWorker) tick(ctx context.Context) error {
	if w.closer != nil {
		if err := w.closer.RunOnce(ctx); err != nil {
			return err
		}
	}
	return w.relay.RunOnce(ctx)
}

func newLogger(cfg config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
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
