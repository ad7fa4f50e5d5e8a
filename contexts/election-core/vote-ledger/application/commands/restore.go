package commands

import (
	"context"
	"log/slog"

	application "votex/contexts/election-core/vote-ledger/application"
	"votex/contexts/election-core/vote-ledger/domain/ledger"
	"votex/contexts/election-core/vote-ledger/ports"
)

// RestoreUseCase rebuilds the in-process registry from the durable store on
// startup. It must run before the registry serves traffic.
type RestoreUseCase struct {
	Registry *ledger.Registry
	Sessions ports.SessionRepository
	Logger   *slog.Logger
}

func (uc RestoreUseCase) Restore(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(uc.Logger)
	snapshots, err := uc.Sessions.ListSessions(ctx)
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, snapshot := range snapshots {
		ballots, err := uc.Sessions.ListBallots(ctx, snapshot.SessionID)
		if err != nil {
			return restored, err
		}
		if _, err := uc.Registry.Restore(snapshot, ballots); err != nil {
			logger.Error("ledger session restore failed",
				"event", "ledger_session_restore_failed",
				"module", "election-core/vote-ledger",
				"layer", "application",
				"session_id", snapshot.SessionID,
				"ballots", len(ballots),
				"error", err.Error(),
			)
			return restored, err
		}
		restored++
	}
	logger.Info("ledger registry restored",
		"event", "ledger_registry_restored",
		"module", "election-core/vote-ledger",
		"layer", "application",
		"sessions", restored,
	)
	return restored, nil
}
