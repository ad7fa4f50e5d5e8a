// Package ledger holds the in-process arena of voting sessions.
//
// Every Session is an exclusive-access cell: ballot acceptance runs under the
// session's write lock, so the duplicate-voter check, the durable commit hook
// and the tally update form one critical section. Sessions never share a lock,
// so votes on different sessions proceed in parallel. Readers take the read
// lock and always observe the voter set and tally of the same ballot count.
package ledger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"votex/contexts/election-core/vote-ledger/domain/entities"
	domainerrors "votex/contexts/election-core/vote-ledger/domain/errors"
	"votex/contexts/election-core/vote-ledger/domain/tally"
)

// Clock supplies wall-clock time for the Active/Closed derivation.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Vote is a ballot submission. BallotID is assigned by the caller so the
// commit hook can persist the ballot under its final identity.
type Vote struct {
	BallotID string
	VoterID  string
	Choices  []string
	Ranks    []int
}

// Commit describes an accepted ballot and the session state it produces.
type Commit struct {
	Ballot     entities.Ballot
	Tally      []uint64
	VoterCount int
}

// CommitFunc runs inside the session's critical section after validation and
// before the ballot becomes visible. Returning an error aborts the vote.
type CommitFunc func(Commit) error

type Session struct {
	id        string
	title     string
	ownerID   string
	rules     tally.Rules
	endTime   time.Time
	createdAt time.Time
	clock     Clock

	mu          sync.RWMutex
	voters      map[string]int
	ballots     []entities.Ballot
	tally       []uint64
	finalizedAt *time.Time
}

func newSession(spec entities.SessionSpec, rules tally.Rules, createdAt time.Time, clock Clock) *Session {
	return &Session{
		id:        strings.TrimSpace(spec.SessionID),
		title:     strings.TrimSpace(spec.Title),
		ownerID:   strings.TrimSpace(spec.OwnerID),
		rules:     rules,
		endTime:   spec.EndTime.UTC(),
		createdAt: createdAt.UTC(),
		clock:     clock,
		voters:    make(map[string]int),
		tally:     make([]uint64, len(rules.Participants)),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) OwnerID() string {
	return s.ownerID
}

func (s *Session) EndTime() time.Time {
	return s.endTime
}

func (s *Session) Mode() tally.Mode {
	return s.rules.Mode
}

// Participants needs no lock: the list is fixed at creation.
func (s *Session) Participants() []string {
	return append([]string(nil), s.rules.Participants...)
}

// Cast accepts a ballot with no durable commit step.
func (s *Session) Cast(vote Vote) (entities.Ballot, error) {
	return s.CastWith(vote, nil)
}

// CastWith validates and records a ballot. The session is closed at exactly
// EndTime: a vote whose clock reading equals EndTime is rejected.
func (s *Session) CastWith(vote Vote, commit CommitFunc) (entities.Ballot, error) {
	voterID := strings.TrimSpace(vote.VoterID)
	if voterID == "" {
		return entities.Ballot{}, fmt.Errorf("%w: voter id is required", domainerrors.ErrInvalidVoteInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().UTC()
	if !now.Before(s.endTime) {
		return entities.Ballot{}, domainerrors.ErrSessionClosed
	}
	if _, voted := s.voters[voterID]; voted {
		return entities.Ballot{}, domainerrors.ErrAlreadyVoted
	}

	points, err := s.rules.Score(vote.Choices, vote.Ranks)
	if err != nil {
		return entities.Ballot{}, err
	}

	ballot := entities.Ballot{
		BallotID:  strings.TrimSpace(vote.BallotID),
		SessionID: s.id,
		VoterID:   voterID,
		Choices:   normalizeChoices(vote.Choices),
		Points:    append([]uint64(nil), points...),
		CastAt:    now,
	}
	if s.rules.Mode == tally.ModeRanked {
		ballot.Ranks = append([]int(nil), vote.Ranks...)
	}

	if commit != nil {
		next := append([]uint64(nil), s.tally...)
		for i, delta := range points {
			next[i] += delta
		}
		if err := commit(Commit{
			Ballot:     cloneBallot(ballot),
			Tally:      next,
			VoterCount: len(s.voters) + 1,
		}); err != nil {
			return entities.Ballot{}, err
		}
	}

	s.apply(ballot)
	return cloneBallot(ballot), nil
}

// replay re-applies a previously accepted ballot while rebuilding state from
// durable storage. The time window is not re-checked.
func (s *Session) replay(ballot entities.Ballot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	voterID := strings.TrimSpace(ballot.VoterID)
	if _, voted := s.voters[voterID]; voted {
		return fmt.Errorf("%w: voter %q replayed twice in session %q", domainerrors.ErrConflict, voterID, s.id)
	}
	points, err := s.rules.Score(ballot.Choices, ballot.Ranks)
	if err != nil {
		return fmt.Errorf("replay ballot %q: %w", ballot.BallotID, err)
	}
	ballot.SessionID = s.id
	ballot.VoterID = voterID
	ballot.Choices = normalizeChoices(ballot.Choices)
	ballot.Points = points
	s.apply(ballot)
	return nil
}

// apply must be called with s.mu held for writing.
func (s *Session) apply(ballot entities.Ballot) {
	s.voters[ballot.VoterID] = len(s.ballots)
	s.ballots = append(s.ballots, ballot)
	for i, delta := range ballot.Points {
		s.tally[i] += delta
	}
}

// MarkFinalized records that closing side effects ran. It returns false when
// the session was already finalized.
func (s *Session) MarkFinalized(at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalizedAt != nil {
		return false
	}
	finalized := at.UTC()
	s.finalizedAt = &finalized
	return true
}

func (s *Session) Status() entities.Status {
	now := s.clock.Now().UTC()
	remaining := s.endTime.Sub(now)
	active := remaining > 0
	if !active {
		remaining = 0
	}
	return entities.Status{
		SessionID: s.id,
		Active:    active,
		Remaining: remaining,
		EndTime:   s.endTime,
	}
}

func (s *Session) HasVoted(voterID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.voters[strings.TrimSpace(voterID)]
	return ok
}

func (s *Session) VoterCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.voters)
}

func (s *Session) Ballot(voterID string) (entities.Ballot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.voters[strings.TrimSpace(voterID)]
	if !ok {
		return entities.Ballot{}, false
	}
	return cloneBallot(s.ballots[idx]), true
}

// Ballots returns accepted ballots in acceptance order.
func (s *Session) Ballots() []entities.Ballot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Ballot, 0, len(s.ballots))
	for _, ballot := range s.ballots {
		items = append(items, cloneBallot(ballot))
	}
	return items
}

func (s *Session) Results() entities.Results {
	status := s.Status()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entities.Results{
		SessionID:    s.id,
		Mode:         s.rules.Mode,
		Participants: append([]string(nil), s.rules.Participants...),
		Tallies:      append([]uint64(nil), s.tally...),
		VoterCount:   len(s.voters),
		Active:       status.Active,
	}
}

func (s *Session) Snapshot() entities.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() entities.SessionSnapshot {
	snapshot := entities.SessionSnapshot{
		SessionID:    s.id,
		Title:        s.title,
		OwnerID:      s.ownerID,
		Participants: append([]string(nil), s.rules.Participants...),
		Mode:         s.rules.Mode,
		MaxChoices:   s.rules.MaxChoices,
		EndTime:      s.endTime,
		CreatedAt:    s.createdAt,
		Tally:        append([]uint64(nil), s.tally...),
		VoterCount:   len(s.voters),
	}
	if s.finalizedAt != nil {
		finalized := *s.finalizedAt
		snapshot.FinalizedAt = &finalized
	}
	return snapshot
}

func (s *Session) Summary() entities.SessionSummary {
	status := s.Status()
	return entities.SessionSummary{
		SessionID:    s.id,
		Title:        s.title,
		OwnerID:      s.ownerID,
		Mode:         s.rules.Mode,
		MaxChoices:   s.rules.MaxChoices,
		Participants: append([]string(nil), s.rules.Participants...),
		EndTime:      s.endTime,
		CreatedAt:    s.createdAt,
		Active:       status.Active,
		VoterCount:   s.VoterCount(),
	}
}

func normalizeChoices(choices []string) []string {
	items := make([]string, 0, len(choices))
	for _, choice := range choices {
		items = append(items, strings.TrimSpace(choice))
	}
	return items
}

func cloneBallot(ballot entities.Ballot) entities.Ballot {
	ballot.Choices = append([]string(nil), ballot.Choices...)
	if ballot.Ranks != nil {
		ballot.Ranks = append([]int(nil), ballot.Ranks...)
	}
	ballot.Points = append([]uint64(nil), ballot.Points...)
	return ballot
}
