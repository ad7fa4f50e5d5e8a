package commands_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"votex/contexts/election-core/vote-ledger/adapters/memory"
	"votex/contexts/election-core/vote-ledger/application/commands"
	"votex/contexts/election-core/vote-ledger/domain/entities"
	domainerrors "votex/contexts/election-core/vote-ledger/domain/errors"
	"votex/contexts/election-core/vote-ledger/domain/ledger"
	"votex/contexts/election-core/vote-ledger/ports"
	contractsv1 "votex/contracts/gen/events/v1"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingMetrics struct {
	mu       sync.Mutex
	created  []string
	accepted []string
	rejected []string
}

func (m *recordingMetrics) SessionCreated(mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, mode)
}

func (m *recordingMetrics) BallotAccepted(mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accepted = append(m.accepted, mode)
}

func (m *recordingMetrics) BallotRejected(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected = append(m.rejected, reason)
}

func (m *recordingMetrics) SessionFinalized() {}

type failingRepository struct {
	*memory.Store
	err error
}

func (r failingRepository) AppendBallotWithOutbox(
	context.Context,
	entities.Ballot,
	[]uint64,
	ports.EventEnvelope,
) error {
	return r.err
}

type fixture struct {
	clock    *fixedClock
	store    *memory.Store
	registry *ledger.Registry
	metrics  *recordingMetrics
	sessions commands.SessionUseCase
	votes    commands.VoteUseCase
}

func newFixture(repo ports.SessionRepository, store *memory.Store) fixture {
	clock := &fixedClock{now: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)}
	registry := ledger.NewRegistry(clock)
	metrics := &recordingMetrics{}
	return fixture{
		clock:    clock,
		store:    store,
		registry: registry,
		metrics:  metrics,
		sessions: commands.SessionUseCase{
			Registry: registry,
			Sessions: repo,
			Clock:    clock,
			IDGen:    store,
			Metrics:  metrics,
		},
		votes: commands.VoteUseCase{
			Registry:  registry,
			Sessions:  repo,
			Clock:     clock,
			IDGen:     store,
			BallotIDs: store,
			Metrics:   metrics,
		},
	}
}

func newMemoryFixture() fixture {
	store := memory.NewStore()
	return newFixture(store, store)
}

func TestCreateSessionPersistsSnapshotAndOutbox(t *testing.T) {
	f := newMemoryFixture()
	summary, err := f.sessions.CreateSession(context.Background(), commands.CreateSessionCommand{
		SessionID:    "poll-1",
		Title:        "Lunch",
		OwnerID:      "leader-1",
		Participants: []string{"Option A", "Option B", "Option C"},
		Mode:         "SINGLE",
		Duration:     time.Hour,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if !summary.Active || summary.MaxChoices != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if want := f.clock.Now().Add(time.Hour); !summary.EndTime.Equal(want) {
		t.Fatalf("expected end time %s, got %s", want, summary.EndTime)
	}

	stored, err := f.store.ListSessions(context.Background())
	if err != nil || len(stored) != 1 || stored[0].SessionID != "poll-1" {
		t.Fatalf("expected persisted session, got %+v err=%v", stored, err)
	}
	pending, err := f.store.ListPendingOutbox(context.Background(), 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one outbox row, got %d err=%v", len(pending), err)
	}
	var envelope contractsv1.Envelope
	if err := json.Unmarshal(pending[0].Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.EventType != contractsv1.TopicSessionCreated || envelope.PartitionKey != "poll-1" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
	if len(f.metrics.created) != 1 || f.metrics.created[0] != "single" {
		t.Fatalf("expected session created metric, got %v", f.metrics.created)
	}
}

func TestCreateSessionRejectsDuplicatesAndInvalidModes(t *testing.T) {
	f := newMemoryFixture()
	cmd := commands.CreateSessionCommand{
		SessionID:    "dup",
		Participants: []string{"A", "B"},
		Mode:         "multiple",
		MaxChoices:   2,
		Duration:     time.Minute,
	}
	if _, err := f.sessions.CreateSession(context.Background(), cmd); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := f.sessions.CreateSession(context.Background(), cmd); !errors.Is(err, domainerrors.ErrDuplicateSessionID) {
		t.Fatalf("expected duplicate session id, got %v", err)
	}

	cmd.SessionID = "bad-mode"
	cmd.Mode = "approval"
	if _, err := f.sessions.CreateSession(context.Background(), cmd); !errors.Is(err, domainerrors.ErrInvalidSession) {
		t.Fatalf("expected invalid session, got %v", err)
	}

	pending, _ := f.store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 1 {
		t.Fatalf("expected only the first create in the outbox, got %d", len(pending))
	}
}

func TestCastVoteScenarioA(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()
	if _, err := f.sessions.CreateSession(ctx, commands.CreateSessionCommand{
		SessionID:    "poll-a",
		Participants: []string{"Option A", "Option B", "Option C"},
		Mode:         "single",
		Duration:     time.Hour,
	}); err != nil {
		t.Fatalf("create session: %v", err)
	}

	result, err := f.votes.CastVote(ctx, commands.CastVoteCommand{SessionID: "poll-a", VoterID: "v1", Choices: []string{"Option B"}})
	if err != nil {
		t.Fatalf("cast v1: %v", err)
	}
	if got := result.Results.Tallies; len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 0 {
		t.Fatalf("unexpected tallies %v", got)
	}
	if len(result.Ballot.BallotID) != 26 {
		t.Fatalf("expected ULID ballot id, got %q", result.Ballot.BallotID)
	}

	cases := []struct {
		voter   string
		choices []string
		want    error
	}{
		{voter: "v1", choices: []string{"Option A"}, want: domainerrors.ErrAlreadyVoted},
		{voter: "v2", choices: []string{"Option A", "Option B"}, want: domainerrors.ErrWrongChoiceCount},
		{voter: "v3", choices: []string{"Invalid Option"}, want: domainerrors.ErrInvalidChoice},
	}
	for _, tc := range cases {
		if _, err := f.votes.CastVote(ctx, commands.CastVoteCommand{SessionID: "poll-a", VoterID: tc.voter, Choices: tc.choices}); !errors.Is(err, tc.want) {
			t.Fatalf("voter %s: expected %v, got %v", tc.voter, tc.want, err)
		}
	}

	ballots, _ := f.store.ListBallots(ctx, "poll-a")
	if len(ballots) != 1 || ballots[0].VoterID != "v1" {
		t.Fatalf("expected one persisted ballot, got %+v", ballots)
	}
	stored, _ := f.store.ListSessions(ctx)
	if got := stored[0].Tally; got[1] != 1 || stored[0].VoterCount != 1 {
		t.Fatalf("expected persisted tally, got %+v", stored[0])
	}
	wantRejected := []string{"already_voted", "wrong_choice_count", "invalid_choice"}
	if len(f.metrics.rejected) != len(wantRejected) {
		t.Fatalf("expected rejections %v, got %v", wantRejected, f.metrics.rejected)
	}
	for i := range wantRejected {
		if f.metrics.rejected[i] != wantRejected[i] {
			t.Fatalf("expected rejections %v, got %v", wantRejected, f.metrics.rejected)
		}
	}
}

func TestCastVoteUnknownSessionAndClosedSession(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()
	if _, err := f.votes.CastVote(ctx, commands.CastVoteCommand{SessionID: "nope", VoterID: "v1", Choices: []string{"A"}}); !errors.Is(err, domainerrors.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}

	if _, err := f.sessions.CreateSession(ctx, commands.CreateSessionCommand{
		SessionID:    "short",
		Participants: []string{"A", "B", "C"},
		Mode:         "ranked",
		Duration:     time.Minute,
	}); err != nil {
		t.Fatalf("create session: %v", err)
	}
	f.clock.Advance(time.Minute)
	if _, err := f.votes.CastVote(ctx, commands.CastVoteCommand{
		SessionID: "short",
		VoterID:   "late",
		Choices:   []string{"A"},
		Ranks:     []int{1},
	}); !errors.Is(err, domainerrors.ErrSessionClosed) {
		t.Fatalf("expected session closed, got %v", err)
	}
}

func TestCastVoteStorageFailureRejectsBallot(t *testing.T) {
	store := memory.NewStore()
	boom := errors.New("connection reset")
	f := newFixture(failingRepository{Store: store, err: boom}, store)
	ctx := context.Background()
	if _, err := f.sessions.CreateSession(ctx, commands.CreateSessionCommand{
		SessionID:    "fragile",
		Participants: []string{"A", "B"},
		Mode:         "single",
		Duration:     time.Hour,
	}); err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, err := f.votes.CastVote(ctx, commands.CastVoteCommand{SessionID: "fragile", VoterID: "v1", Choices: []string{"A"}}); !errors.Is(err, boom) {
		t.Fatalf("expected storage error, got %v", err)
	}
	session, _ := f.registry.Get("fragile")
	if session.HasVoted("v1") || session.VoterCount() != 0 {
		t.Fatal("failed commit must not record the voter")
	}
	if len(f.metrics.rejected) != 1 || f.metrics.rejected[0] != "internal" {
		t.Fatalf("expected internal rejection, got %v", f.metrics.rejected)
	}
}

func TestRestoreRebuildsRegistryFromStore(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()
	for _, id := range []string{"s-2", "s-1"} {
		if _, err := f.sessions.CreateSession(ctx, commands.CreateSessionCommand{
			SessionID:    id,
			OwnerID:      "leader",
			Participants: []string{"A", "B", "C", "D"},
			Mode:         "multiple",
			MaxChoices:   2,
			Duration:     time.Hour,
		}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if _, err := f.votes.CastVote(ctx, commands.CastVoteCommand{SessionID: "s-1", VoterID: "v1", Choices: []string{"A", "C"}}); err != nil {
		t.Fatalf("cast: %v", err)
	}

	registry := ledger.NewRegistry(f.clock)
	restored, err := commands.RestoreUseCase{Registry: registry, Sessions: f.store}.Restore(ctx)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored != 2 {
		t.Fatalf("expected 2 restored sessions, got %d", restored)
	}
	ids := registry.IDs()
	if len(ids) != 2 || ids[0] != "s-2" || ids[1] != "s-1" {
		t.Fatalf("expected creation order preserved, got %v", ids)
	}
	session, _ := registry.Get("s-1")
	if !session.HasVoted("v1") {
		t.Fatal("expected restored voter")
	}
	if got := session.Results().Tallies; got[0] != 1 || got[2] != 1 {
		t.Fatalf("unexpected restored tallies %v", got)
	}
	if _, err := f.votes.CastVote(ctx, commands.CastVoteCommand{SessionID: "s-1", VoterID: "v1", Choices: []string{"B"}}); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected already voted, got %v", err)
	}
}

func TestRejectionReasonLabels(t *testing.T) {
	cases := map[error]string{
		domainerrors.ErrSessionClosed:    "session_closed",
		domainerrors.ErrTooManyChoices:   "too_many_choices",
		domainerrors.ErrInvalidRankSet:   "invalid_rank_set",
		domainerrors.ErrDuplicateChoice:  "duplicate_choice",
		domainerrors.ErrInvalidVoteInput: "invalid_input",
		errors.New("boom"):               "internal",
	}
	for err, want := range cases {
		if got := commands.RejectionReason(err); got != want {
			t.Fatalf("reason for %v: expected %q, got %q", err, want, got)
		}
	}
	if got := commands.RejectionReason(nil); got != "" {
		t.Fatalf("expected empty reason for nil, got %q", got)
	}
}
