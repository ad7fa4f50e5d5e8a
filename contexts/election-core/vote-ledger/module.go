package voteledger

import (
	"context"
	"log/slog"

	httpadapter "votex/contexts/election-core/vote-ledger/adapters/http"
	"votex/contexts/election-core/vote-ledger/adapters/memory"
	"votex/contexts/election-core/vote-ledger/application/commands"
	"votex/contexts/election-core/vote-ledger/application/queries"
	"votex/contexts/election-core/vote-ledger/application/workers"
	"votex/contexts/election-core/vote-ledger/domain/ledger"
	"votex/contexts/election-core/vote-ledger/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Registry *ledger.Registry
	Restorer commands.RestoreUseCase
	Relay    workers.OutboxRelay
	Closer   workers.SessionCloser
	Store    *memory.Store
}

type Dependencies struct {
	Sessions        ports.SessionRepository
	Outbox          ports.OutboxRepository
	Publisher       ports.EventPublisher
	Clock           ports.Clock
	IDGen           ports.IDGenerator
	BallotIDs       ports.BallotIDGenerator
	Metrics         ports.Metrics
	OutboxBatchSize int
	Logger          *slog.Logger
}

func NewModule(deps Dependencies) Module {
	var clock ledger.Clock
	if deps.Clock != nil {
		clock = deps.Clock
	}
	registry := ledger.NewRegistry(clock)

	sessionUseCase := commands.SessionUseCase{
		Registry: registry,
		Sessions: deps.Sessions,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Metrics:  deps.Metrics,
		Logger:   deps.Logger,
	}
	voteUseCase := commands.VoteUseCase{
		Registry:  registry,
		Sessions:  deps.Sessions,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		BallotIDs: deps.BallotIDs,
		Metrics:   deps.Metrics,
		Logger:    deps.Logger,
	}
	resultsUseCase := queries.ResultsUseCase{
		Registry: registry,
	}
	return Module{
		Handler: httpadapter.Handler{
			Sessions: sessionUseCase,
			Votes:    voteUseCase,
			Results:  resultsUseCase,
			Logger:   deps.Logger,
		},
		Registry: registry,
		Restorer: commands.RestoreUseCase{
			Registry: registry,
			Sessions: deps.Sessions,
			Logger:   deps.Logger,
		},
		Relay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.OutboxBatchSize,
			Logger:    deps.Logger,
		},
		Closer: workers.SessionCloser{
			Registry:  registry,
			Sessions:  deps.Sessions,
			Clock:     deps.Clock,
			IDGen:     deps.IDGen,
			Metrics:   deps.Metrics,
			BatchSize: deps.OutboxBatchSize,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(publisher ports.EventPublisher, metrics ports.Metrics, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Sessions:  store,
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
		IDGen:     store,
		BallotIDs: store,
		Metrics:   metrics,
		Logger:    logger,
	})
	module.Store = store
	return module
}

// Restore loads persisted sessions into the registry.
func (m Module) Restore(ctx context.Context) (int, error) {
	return m.Restorer.Restore(ctx)
}
