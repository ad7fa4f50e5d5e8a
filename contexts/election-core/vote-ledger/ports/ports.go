package ports

import (
	"context"
	"time"

	"votex/contexts/election-core/vote-ledger/domain/entities"
	contractsv1 "votex/contracts/gen/events/v1"
)

// SessionRepository is the durable store collaborator. The in-process ledger
// is authoritative while running; the repository lets it be rebuilt on start.
type SessionRepository interface {
	// CreateSessionWithOutbox must atomically persist the session and its outbox event.
	CreateSessionWithOutbox(ctx context.Context, session entities.SessionSnapshot, event EventEnvelope) error
	// AppendBallotWithOutbox must atomically insert the ballot, overwrite the
	// session tally and append the outbox event. A second ballot for the same
	// (session, voter) must fail with ErrAlreadyVoted.
	AppendBallotWithOutbox(ctx context.Context, ballot entities.Ballot, tally []uint64, event EventEnvelope) error
	ListSessions(ctx context.Context) ([]entities.SessionSnapshot, error)
	ListBallots(ctx context.Context, sessionID string) ([]entities.Ballot, error)
	// ListExpiredSessions returns unfinalized sessions whose end time is not after now.
	ListExpiredSessions(ctx context.Context, now time.Time, limit int) ([]entities.SessionSnapshot, error)
	// FinalizeSessionWithOutbox marks the session finalized once. It returns
	// ErrConflict when the session was already finalized.
	FinalizeSessionWithOutbox(ctx context.Context, sessionID string, finalizedAt time.Time, event EventEnvelope) error
}

// Clock allows deterministic testing of session windows.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts event identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// BallotIDGenerator issues time-sortable ballot receipts.
type BallotIDGenerator interface {
	NewBallotID(ctx context.Context, castAt time.Time) (string, error)
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// EventSubscriber registers a topic consumer callback.
type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// Metrics receives ledger counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	SessionCreated(mode string)
	BallotAccepted(mode string)
	BallotRejected(reason string)
	SessionFinalized()
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) SessionCreated(string) {}
func (NopMetrics) BallotAccepted(string) {}
func (NopMetrics) BallotRejected(string) {}
func (NopMetrics) SessionFinalized()     {}
