package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"votex/contexts/election-core/vote-ledger/application/commands"
	"votex/contexts/election-core/vote-ledger/application/queries"
	"votex/contexts/election-core/vote-ledger/domain/entities"
	httptransport "votex/contexts/election-core/vote-ledger/transport/http"
)

type Handler struct {
	Sessions commands.SessionUseCase
	Votes    commands.VoteUseCase
	Results  queries.ResultsUseCase
	Logger   *slog.Logger
}

func (h Handler) CreateSessionHandler(
	ctx context.Context,
	req httptransport.CreateSessionRequest,
) (httptransport.SessionResponse, error) {
	summary, err := h.Sessions.CreateSession(ctx, commands.CreateSessionCommand{
		SessionID:    req.SessionID,
		Title:        req.Title,
		OwnerID:      req.OwnerID,
		Participants: req.Participants,
		Mode:         req.Mode,
		MaxChoices:   req.MaxChoices,
		EndTime:      req.EndTime,
		Duration:     time.Duration(req.DurationSeconds) * time.Second,
	})
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return mapSession(summary), nil
}

// ListSessionsHandler lists every session id, or only the owner's sessions
// when ownerID is set.
func (h Handler) ListSessionsHandler(ctx context.Context, ownerID string) (httptransport.SessionListResponse, error) {
	if strings.TrimSpace(ownerID) == "" {
		ids, err := h.Results.ListSessionIDs(ctx)
		if err != nil {
			return httptransport.SessionListResponse{}, err
		}
		return httptransport.SessionListResponse{SessionIDs: ids}, nil
	}
	summaries, err := h.Results.ListSessionsByOwner(ctx, ownerID)
	if err != nil {
		return httptransport.SessionListResponse{}, err
	}
	resp := httptransport.SessionListResponse{
		SessionIDs: make([]string, 0, len(summaries)),
		Items:      make([]httptransport.SessionResponse, 0, len(summaries)),
	}
	for _, summary := range summaries {
		resp.SessionIDs = append(resp.SessionIDs, summary.SessionID)
		resp.Items = append(resp.Items, mapSession(summary))
	}
	return resp, nil
}

func (h Handler) GetSessionHandler(ctx context.Context, sessionID string) (httptransport.SessionResponse, error) {
	summary, err := h.Results.GetSession(ctx, sessionID)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return mapSession(summary), nil
}

func (h Handler) StatusHandler(ctx context.Context, sessionID string) (httptransport.StatusResponse, error) {
	status, err := h.Results.GetStatus(ctx, sessionID)
	if err != nil {
		return httptransport.StatusResponse{}, err
	}
	return httptransport.StatusResponse{
		SessionID:        status.SessionID,
		Active:           status.Active,
		RemainingSeconds: int64(status.Remaining / time.Second),
		EndTime:          status.EndTime,
	}, nil
}

func (h Handler) ResultsHandler(ctx context.Context, sessionID string) (httptransport.ResultsResponse, error) {
	results, err := h.Results.GetResults(ctx, sessionID)
	if err != nil {
		return httptransport.ResultsResponse{}, err
	}
	return MapResults(results), nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	sessionID string,
	voterID string,
	req httptransport.CastVoteRequest,
) (httptransport.CastVoteResponse, error) {
	result, err := h.Votes.CastVote(ctx, commands.CastVoteCommand{
		SessionID: sessionID,
		VoterID:   voterID,
		Choices:   req.Choices,
		Ranks:     req.Ranks,
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		BallotID:  result.Ballot.BallotID,
		SessionID: result.Ballot.SessionID,
		VoterID:   result.Ballot.VoterID,
		CastAt:    result.Ballot.CastAt,
		Results:   MapResults(result.Results),
	}, nil
}

func (h Handler) VoterStatusHandler(
	ctx context.Context,
	sessionID string,
	voterID string,
) (httptransport.VoterStatusResponse, error) {
	voted, err := h.Results.CheckVoted(ctx, sessionID, voterID)
	if err != nil {
		return httptransport.VoterStatusResponse{}, err
	}
	return httptransport.VoterStatusResponse{
		SessionID: strings.TrimSpace(sessionID),
		VoterID:   strings.TrimSpace(voterID),
		HasVoted:  voted,
	}, nil
}

func (h Handler) BallotHandler(ctx context.Context, sessionID string, voterID string) (httptransport.BallotResponse, error) {
	ballot, err := h.Results.GetBallot(ctx, sessionID, voterID)
	if err != nil {
		return httptransport.BallotResponse{}, err
	}
	return httptransport.BallotResponse{
		BallotID:  ballot.BallotID,
		SessionID: ballot.SessionID,
		VoterID:   ballot.VoterID,
		Choices:   ballot.Choices,
		Ranks:     ballot.Ranks,
		Points:    ballot.Points,
		CastAt:    ballot.CastAt,
	}, nil
}

func MapResults(results entities.Results) httptransport.ResultsResponse {
	return httptransport.ResultsResponse{
		SessionID:    results.SessionID,
		Mode:         results.Mode.String(),
		Participants: results.Participants,
		Tallies:      results.Tallies,
		VoterCount:   results.VoterCount,
		Active:       results.Active,
	}
}

func mapSession(summary entities.SessionSummary) httptransport.SessionResponse {
	return httptransport.SessionResponse{
		SessionID:    summary.SessionID,
		Title:        summary.Title,
		OwnerID:      summary.OwnerID,
		Mode:         summary.Mode.String(),
		MaxChoices:   summary.MaxChoices,
		Participants: summary.Participants,
		EndTime:      summary.EndTime,
		CreatedAt:    summary.CreatedAt,
		Active:       summary.Active,
		VoterCount:   summary.VoterCount,
	}
}
