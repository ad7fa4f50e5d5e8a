package entities

import (
	"time"

	"votex/contexts/election-core/vote-ledger/domain/tally"
)

// SessionSpec is the creation input for a voting session.
type SessionSpec struct {
	SessionID    string
	Title        string
	OwnerID      string
	Participants []string
	Mode         tally.Mode
	MaxChoices   int
	EndTime      time.Time
}

// SessionSnapshot is a consistent copy of one session's durable state.
type SessionSnapshot struct {
	SessionID    string
	Title        string
	OwnerID      string
	Participants []string
	Mode         tally.Mode
	MaxChoices   int
	EndTime      time.Time
	CreatedAt    time.Time
	FinalizedAt  *time.Time
	Tally        []uint64
	VoterCount   int
}

// Ballot is one accepted vote. Points is aligned with the session's
// participant order.
type Ballot struct {
	BallotID  string
	SessionID string
	VoterID   string
	Choices   []string
	Ranks     []int
	Points    []uint64
	CastAt    time.Time
}

// Status is the derived Active/Closed view. Remaining is clamped to zero once
// the session is closed.
type Status struct {
	SessionID string
	Active    bool
	Remaining time.Duration
	EndTime   time.Time
}

type Results struct {
	SessionID    string
	Mode         tally.Mode
	Participants []string
	Tallies      []uint64
	VoterCount   int
	Active       bool
}

type SessionSummary struct {
	SessionID    string
	Title        string
	OwnerID      string
	Mode         tally.Mode
	MaxChoices   int
	Participants []string
	EndTime      time.Time
	CreatedAt    time.Time
	Active       bool
	VoterCount   int
}
