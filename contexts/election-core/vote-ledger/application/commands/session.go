package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "votex/contexts/election-core/vote-ledger/application"
	"votex/contexts/election-core/vote-ledger/domain/entities"
	domainerrors "votex/contexts/election-core/vote-ledger/domain/errors"
	"votex/contexts/election-core/vote-ledger/domain/ledger"
	"votex/contexts/election-core/vote-ledger/domain/tally"
	"votex/contexts/election-core/vote-ledger/ports"
	contractsv1 "votex/contracts/gen/events/v1"
)

// CreateSessionCommand is the write-model input for session creation. When
// EndTime is zero, Duration is added to the current time instead.
type CreateSessionCommand struct {
	SessionID    string
	Title        string
	OwnerID      string
	Participants []string
	Mode         string
	MaxChoices   int
	EndTime      time.Time
	Duration     time.Duration
}

// SessionUseCase creates sessions in the registry and persists them together
// with a session.created outbox event.
type SessionUseCase struct {
	Registry *ledger.Registry
	Sessions ports.SessionRepository
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Metrics  ports.Metrics
	Logger   *slog.Logger
}

func (uc SessionUseCase) CreateSession(ctx context.Context, cmd CreateSessionCommand) (entities.SessionSummary, error) {
	logger := application.ResolveLogger(uc.Logger)
	sessionID := strings.TrimSpace(cmd.SessionID)
	logger.Info("session create processing started",
		"event", "ledger_session_create_started",
		"module", "election-core/vote-ledger",
		"layer", "application",
		"session_id", sessionID,
		"owner_id", strings.TrimSpace(cmd.OwnerID),
		"mode", strings.TrimSpace(cmd.Mode),
	)

	mode, err := tally.ParseMode(cmd.Mode)
	if err != nil {
		logger.Warn("session create validation failed",
			"event", "ledger_session_create_validation_failed",
			"module", "election-core/vote-ledger",
			"layer", "application",
			"session_id", sessionID,
			"error", err.Error(),
		)
		return entities.SessionSummary{}, err
	}

	endTime := cmd.EndTime
	if endTime.IsZero() && cmd.Duration > 0 {
		endTime = uc.now().Add(cmd.Duration)
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.SessionSummary{}, err
	}

	session, err := uc.Registry.CreateWith(entities.SessionSpec{
		SessionID:    sessionID,
		Title:        cmd.Title,
		OwnerID:      cmd.OwnerID,
		Participants: cmd.Participants,
		Mode:         mode,
		MaxChoices:   cmd.MaxChoices,
		EndTime:      endTime,
	}, func(snapshot entities.SessionSnapshot) error {
		if uc.Sessions == nil {
			return nil
		}
		event, err := application.NewLedgerEnvelope(
			eventID,
			contractsv1.TopicSessionCreated,
			snapshot.SessionID,
			snapshot.CreatedAt,
			contractsv1.SessionCreatedData{
				SessionID:    snapshot.SessionID,
				Title:        snapshot.Title,
				OwnerID:      snapshot.OwnerID,
				Mode:         snapshot.Mode.String(),
				MaxChoices:   snapshot.MaxChoices,
				Participants: snapshot.Participants,
				EndTime:      snapshot.EndTime,
				CreatedAt:    snapshot.CreatedAt,
			},
		)
		if err != nil {
			return err
		}
		return uc.Sessions.CreateSessionWithOutbox(ctx, snapshot, event)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateSessionID) || errors.Is(err, domainerrors.ErrInvalidSession) {
			logger.Warn("session create rejected",
				"event", "ledger_session_create_rejected",
				"module", "election-core/vote-ledger",
				"layer", "application",
				"session_id", sessionID,
				"error", err.Error(),
			)
			return entities.SessionSummary{}, err
		}
		logger.Error("session create failed",
			"event", "ledger_session_create_failed",
			"module", "election-core/vote-ledger",
			"layer", "application",
			"session_id", sessionID,
			"error", err.Error(),
		)
		return entities.SessionSummary{}, err
	}

	application.ResolveMetrics(uc.Metrics).SessionCreated(mode.String())
	summary := session.Summary()
	logger.Info("session created",
		"event", "ledger_session_created",
		"module", "election-core/vote-ledger",
		"layer", "application",
		"session_id", summary.SessionID,
		"mode", summary.Mode.String(),
		"participants", len(summary.Participants),
		"end_time", summary.EndTime,
	)
	return summary, nil
}

func (uc SessionUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
