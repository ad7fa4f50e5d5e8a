package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "votex/contexts/election-core/vote-ledger/application"
	"votex/contexts/election-core/vote-ledger/domain/entities"
	domainerrors "votex/contexts/election-core/vote-ledger/domain/errors"
	"votex/contexts/election-core/vote-ledger/domain/ledger"
	"votex/contexts/election-core/vote-ledger/ports"
	contractsv1 "votex/contracts/gen/events/v1"
)

// SessionCloser emits one session.closed event per session once its end time
// has passed. Running it repeatedly is safe: the repository finalizes each
// session at most once.
type SessionCloser struct {
	Registry  *ledger.Registry
	Sessions  ports.SessionRepository
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Metrics   ports.Metrics
	BatchSize int
	Logger    *slog.Logger
}

func (c SessionCloser) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	limit := c.BatchSize
	if limit <= 0 {
		limit = 100
	}
	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}

	expired, err := c.Sessions.ListExpiredSessions(ctx, now, limit)
	if err != nil {
		logger.Error("ledger expired session list failed",
			"event", "ledger_session_closer_list_failed",
			"module", "election-core/vote-ledger",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	finalized := 0
	for _, snapshot := range expired {
		results := c.finalResults(snapshot)
		eventID, err := c.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		event, err := application.NewLedgerEnvelope(
			eventID,
			contractsv1.TopicSessionClosed,
			snapshot.SessionID,
			now,
			contractsv1.SessionClosedData{
				SessionID:    snapshot.SessionID,
				Mode:         snapshot.Mode.String(),
				Participants: results.Participants,
				Tallies:      results.Tallies,
				VoterCount:   results.VoterCount,
				EndTime:      snapshot.EndTime,
				FinalizedAt:  now,
			},
		)
		if err != nil {
			return err
		}
		if err := c.Sessions.FinalizeSessionWithOutbox(ctx, snapshot.SessionID, now, event); err != nil {
			if errors.Is(err, domainerrors.ErrConflict) {
				logger.Debug("ledger session already finalized",
					"event", "ledger_session_closer_already_finalized",
					"module", "election-core/vote-ledger",
					"layer", "worker",
					"session_id", snapshot.SessionID,
				)
				continue
			}
			logger.Error("ledger session finalize failed",
				"event", "ledger_session_closer_finalize_failed",
				"module", "election-core/vote-ledger",
				"layer", "worker",
				"session_id", snapshot.SessionID,
				"error", err.Error(),
			)
			return err
		}
		if c.Registry != nil {
			if session, ok := c.Registry.Get(snapshot.SessionID); ok {
				session.MarkFinalized(now)
			}
		}
		application.ResolveMetrics(c.Metrics).SessionFinalized()
		finalized++
	}

	if finalized > 0 {
		logger.Info("ledger session closer cycle completed",
			"event", "ledger_session_closer_completed",
			"module", "election-core/vote-ledger",
			"layer", "worker",
			"finalized_count", finalized,
		)
	}
	return nil
}

// finalResults reads the live session when this process hosts it.
func (c SessionCloser) finalResults(snapshot entities.SessionSnapshot) entities.Results {
	if c.Registry != nil {
		if session, ok := c.Registry.Get(snapshot.SessionID); ok {
			return session.Results()
		}
	}
	return entities.Results{
		SessionID:    snapshot.SessionID,
		Mode:         snapshot.Mode,
		Participants: snapshot.Participants,
		Tallies:      snapshot.Tally,
		VoterCount:   snapshot.VoterCount,
	}
}
