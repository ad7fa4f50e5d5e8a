package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical, versioned event envelope for cross-runtime use.
// This package is generated-contract-only and must stay backward compatible.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

// Topics emitted by the vote ledger.
const (
	TopicSessionCreated = "session.created"
	TopicVoteCast       = "vote.cast"
	TopicSessionClosed  = "session.closed"
)

// SessionCreatedData is the payload of session.created.
type SessionCreatedData struct {
	SessionID    string    `json:"session_id"`
	Title        string    `json:"title,omitempty"`
	OwnerID      string    `json:"owner_id,omitempty"`
	Mode         string    `json:"mode"`
	MaxChoices   int       `json:"max_choices"`
	Participants []string  `json:"participants"`
	EndTime      time.Time `json:"end_time"`
	CreatedAt    time.Time `json:"created_at"`
}

// VoteCastData is the payload of vote.cast. Tallies is the session tally
// after the ballot was applied, aligned with Participants.
type VoteCastData struct {
	SessionID    string    `json:"session_id"`
	BallotID     string    `json:"ballot_id"`
	VoterID      string    `json:"voter_id"`
	Participants []string  `json:"participants"`
	Tallies      []uint64  `json:"tallies"`
	VoterCount   int       `json:"voter_count"`
	CastAt       time.Time `json:"cast_at"`
}

// SessionClosedData is the payload of session.closed and carries the final
// results.
type SessionClosedData struct {
	SessionID    string    `json:"session_id"`
	Mode         string    `json:"mode"`
	Participants []string  `json:"participants"`
	Tallies      []uint64  `json:"tallies"`
	VoterCount   int       `json:"voter_count"`
	EndTime      time.Time `json:"end_time"`
	FinalizedAt  time.Time `json:"finalized_at"`
}
