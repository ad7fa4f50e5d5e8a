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
	"votex/contexts/election-core/vote-ledger/ports"
	contractsv1 "votex/contracts/gen/events/v1"
)

// CastVoteCommand is one ballot submission. Ranks is only read in ranked
// sessions and must align with Choices.
type CastVoteCommand struct {
	SessionID string
	VoterID   string
	Choices   []string
	Ranks     []int
}

// CastVoteResult carries the accepted ballot and the results it produced.
type CastVoteResult struct {
	Ballot  entities.Ballot
	Results entities.Results
}

// VoteUseCase accepts ballots. Persistence and outbox append run inside the
// session critical section, so a storage failure rejects the ballot.
type VoteUseCase struct {
	Registry  *ledger.Registry
	Sessions  ports.SessionRepository
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	BallotIDs ports.BallotIDGenerator
	Metrics   ports.Metrics
	Logger    *slog.Logger
}

func (uc VoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	metrics := application.ResolveMetrics(uc.Metrics)
	sessionID := strings.TrimSpace(cmd.SessionID)
	voterID := strings.TrimSpace(cmd.VoterID)
	logger.Info("vote cast processing started",
		"event", "ledger_vote_cast_started",
		"module", "election-core/vote-ledger",
		"layer", "application",
		"session_id", sessionID,
		"voter_id", voterID,
		"choices", len(cmd.Choices),
	)

	session, ok := uc.Registry.Get(sessionID)
	if !ok {
		metrics.BallotRejected(RejectionReason(domainerrors.ErrSessionNotFound))
		logger.Warn("vote cast session not found",
			"event", "ledger_vote_cast_session_not_found",
			"module", "election-core/vote-ledger",
			"layer", "application",
			"session_id", sessionID,
			"voter_id", voterID,
		)
		return CastVoteResult{}, domainerrors.ErrSessionNotFound
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CastVoteResult{}, err
	}
	ballotID := eventID
	if uc.BallotIDs != nil {
		ballotID, err = uc.BallotIDs.NewBallotID(ctx, uc.now())
		if err != nil {
			return CastVoteResult{}, err
		}
	}

	ballot, err := session.CastWith(ledger.Vote{
		BallotID: ballotID,
		VoterID:  voterID,
		Choices:  cmd.Choices,
		Ranks:    cmd.Ranks,
	}, func(commit ledger.Commit) error {
		if uc.Sessions == nil {
			return nil
		}
		event, err := application.NewLedgerEnvelope(
			eventID,
			contractsv1.TopicVoteCast,
			commit.Ballot.SessionID,
			commit.Ballot.CastAt,
			contractsv1.VoteCastData{
				SessionID:    commit.Ballot.SessionID,
				BallotID:     commit.Ballot.BallotID,
				VoterID:      commit.Ballot.VoterID,
				Participants: session.Participants(),
				Tallies:      commit.Tally,
				VoterCount:   commit.VoterCount,
				CastAt:       commit.Ballot.CastAt,
			},
		)
		if err != nil {
			return err
		}
		return uc.Sessions.AppendBallotWithOutbox(ctx, commit.Ballot, commit.Tally, event)
	})
	if err != nil {
		reason := RejectionReason(err)
		metrics.BallotRejected(reason)
		if reason == "internal" {
			logger.Error("vote cast failed",
				"event", "ledger_vote_cast_failed",
				"module", "election-core/vote-ledger",
				"layer", "application",
				"session_id", sessionID,
				"voter_id", voterID,
				"error", err.Error(),
			)
			return CastVoteResult{}, err
		}
		logger.Warn("vote cast rejected",
			"event", "ledger_vote_cast_rejected",
			"module", "election-core/vote-ledger",
			"layer", "application",
			"session_id", sessionID,
			"voter_id", voterID,
			"reason", reason,
			"error", err.Error(),
		)
		return CastVoteResult{}, err
	}

	metrics.BallotAccepted(session.Mode().String())
	logger.Info("vote cast accepted",
		"event", "ledger_vote_cast_accepted",
		"module", "election-core/vote-ledger",
		"layer", "application",
		"session_id", sessionID,
		"voter_id", voterID,
		"ballot_id", ballot.BallotID,
	)
	return CastVoteResult{
		Ballot:  ballot,
		Results: session.Results(),
	}, nil
}

// RejectionReason maps a cast error to a low-cardinality metrics label.
func RejectionReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domainerrors.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, domainerrors.ErrSessionClosed):
		return "session_closed"
	case errors.Is(err, domainerrors.ErrAlreadyVoted):
		return "already_voted"
	case errors.Is(err, domainerrors.ErrInvalidChoice):
		return "invalid_choice"
	case errors.Is(err, domainerrors.ErrWrongChoiceCount):
		return "wrong_choice_count"
	case errors.Is(err, domainerrors.ErrTooManyChoices):
		return "too_many_choices"
	case errors.Is(err, domainerrors.ErrInvalidRankSet):
		return "invalid_rank_set"
	case errors.Is(err, domainerrors.ErrDuplicateChoice):
		return "duplicate_choice"
	case errors.Is(err, domainerrors.ErrInvalidVoteInput):
		return "invalid_input"
	default:
		return "internal"
	}
}

func (uc VoteUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
