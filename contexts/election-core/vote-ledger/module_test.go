package voteledger

import (
	"context"
	"errors"
	"testing"

	domainerrors "votex/contexts/election-core/vote-ledger/domain/errors"
	httptransport "votex/contexts/election-core/vote-ledger/transport/http"
)

func TestModuleMultipleChoiceAndRestore(t *testing.T) {
	ctx := context.Background()
	module := NewInMemoryModule(nil, nil, nil)

	if _, err := module.Handler.CreateSessionHandler(ctx, httptransport.CreateSessionRequest{
		SessionID:       "board-vote",
		OwnerID:         "chair-1",
		Participants:    []string{"Candidate A", "Candidate B", "Candidate C", "Candidate D"},
		Mode:            "multiple",
		MaxChoices:      2,
		DurationSeconds: 3600,
	}); err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	if _, err := module.Handler.CastVoteHandler(ctx, "board-vote", "v1", httptransport.CastVoteRequest{
		Choices: []string{"Candidate A", "Candidate C"},
	}); err != nil {
		t.Fatalf("cast v1 failed: %v", err)
	}
	_, err := module.Handler.CastVoteHandler(ctx, "board-vote", "v2", httptransport.CastVoteRequest{
		Choices: []string{"Candidate A", "Candidate B", "Candidate C"},
	})
	if !errors.Is(err, domainerrors.ErrTooManyChoices) {
		t.Fatalf("expected too many choices, got %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, "board-vote", "v2", httptransport.CastVoteRequest{
		Choices: []string{"Candidate C"},
	}); err != nil {
		t.Fatalf("cast v2 failed: %v", err)
	}

	restored := NewModule(Dependencies{
		Sessions:  module.Store,
		Outbox:    module.Store,
		Clock:     module.Store,
		IDGen:     module.Store,
		BallotIDs: module.Store,
	})
	count, err := restored.Restore(ctx)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one restored session, got %d", count)
	}

	results, err := restored.Handler.ResultsHandler(ctx, "board-vote")
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	want := []uint64{1, 0, 2, 0}
	for i := range want {
		if results.Tallies[i] != want[i] {
			t.Fatalf("expected tallies %v, got %v", want, results.Tallies)
		}
	}
	if results.VoterCount != 2 {
		t.Fatalf("expected voter count 2, got %d", results.VoterCount)
	}

	_, err = restored.Handler.CastVoteHandler(ctx, "board-vote", "v1", httptransport.CastVoteRequest{
		Choices: []string{"Candidate D"},
	})
	if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("restored ledger must remember voters, got %v", err)
	}
}

func TestModuleRankedScoring(t *testing.T) {
	ctx := context.Background()
	module := NewInMemoryModule(nil, nil, nil)

	if _, err := module.Handler.CreateSessionHandler(ctx, httptransport.CreateSessionRequest{
		SessionID:       "ranked-poll",
		Participants:    []string{"Candidate A", "Candidate B", "Candidate C"},
		Mode:            "ranked",
		MaxChoices:      3,
		DurationSeconds: 3600,
	}); err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	resp, err := module.Handler.CastVoteHandler(ctx, "ranked-poll", "v1", httptransport.CastVoteRequest{
		Choices: []string{"Candidate C", "Candidate A", "Candidate B"},
		Ranks:   []int{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("cast failed: %v", err)
	}
	want := []uint64{2, 1, 3}
	for i := range want {
		if resp.Results.Tallies[i] != want[i] {
			t.Fatalf("expected tallies %v, got %v", want, resp.Results.Tallies)
		}
	}

	_, err = module.Handler.CastVoteHandler(ctx, "ranked-poll", "v2", httptransport.CastVoteRequest{
		Choices: []string{"Candidate A", "Candidate B"},
		Ranks:   []int{1, 1},
	})
	if !errors.Is(err, domainerrors.ErrInvalidRankSet) {
		t.Fatalf("expected invalid rank set, got %v", err)
	}

	ballot, err := module.Handler.BallotHandler(ctx, "ranked-poll", "v1")
	if err != nil {
		t.Fatalf("ballot failed: %v", err)
	}
	if ballot.BallotID != resp.BallotID || len(ballot.Points) != 3 || ballot.Points[2] != 3 {
		t.Fatalf("unexpected stored ballot %+v", ballot)
	}
}
