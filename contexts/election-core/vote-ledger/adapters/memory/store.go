package memory

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"votex/contexts/election-core/vote-ledger/domain/entities"
	domainerrors "votex/contexts/election-core/vote-ledger/domain/errors"
	"votex/contexts/election-core/vote-ledger/ports"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

type outboxRecord struct {
	seq       int64
	message   ports.OutboxMessage
	published bool
}

// Store is the in-process durable-store stand-in used when no database is
// configured, and in tests.
type Store struct {
	mu sync.RWMutex

	sessions map[string]entities.SessionSnapshot
	order    []string
	ballots  map[string][]entities.Ballot
	outbox   map[string]outboxRecord
	seq      int64
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]entities.SessionSnapshot),
		ballots:  make(map[string][]entities.Ballot),
		outbox:   make(map[string]outboxRecord),
	}
}

func (s *Store) CreateSessionWithOutbox(
	_ context.Context,
	session entities.SessionSnapshot,
	event ports.EventEnvelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID := strings.TrimSpace(session.SessionID)
	if _, exists := s.sessions[sessionID]; exists {
		return domainerrors.ErrDuplicateSessionID
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return err
	}
	s.sessions[sessionID] = cloneSnapshot(session)
	s.order = append(s.order, sessionID)
	return nil
}

func (s *Store) AppendBallotWithOutbox(
	_ context.Context,
	ballot entities.Ballot,
	tally []uint64,
	event ports.EventEnvelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID := strings.TrimSpace(ballot.SessionID)
	session, ok := s.sessions[sessionID]
	if !ok {
		return domainerrors.ErrSessionNotFound
	}
	for _, existing := range s.ballots[sessionID] {
		if existing.VoterID == ballot.VoterID {
			return domainerrors.ErrAlreadyVoted
		}
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return err
	}
	s.ballots[sessionID] = append(s.ballots[sessionID], cloneBallot(ballot))
	session.Tally = append([]uint64(nil), tally...)
	session.VoterCount = len(s.ballots[sessionID])
	s.sessions[sessionID] = session
	return nil
}

// ListSessions returns sessions in creation order.
func (s *Store) ListSessions(_ context.Context) ([]entities.SessionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.SessionSnapshot, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, cloneSnapshot(s.sessions[id]))
	}
	return items, nil
}

func (s *Store) ListBallots(_ context.Context, sessionID string) ([]entities.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.ballots[strings.TrimSpace(sessionID)]
	items := make([]entities.Ballot, 0, len(stored))
	for _, ballot := range stored {
		items = append(items, cloneBallot(ballot))
	}
	return items, nil
}

func (s *Store) ListExpiredSessions(_ context.Context, now time.Time, limit int) ([]entities.SessionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]entities.SessionSnapshot, 0)
	for _, session := range s.sessions {
		if session.FinalizedAt != nil || session.EndTime.After(now) {
			continue
		}
		items = append(items, cloneSnapshot(session))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].EndTime.Equal(items[j].EndTime) {
			return items[i].SessionID < items[j].SessionID
		}
		return items[i].EndTime.Before(items[j].EndTime)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) FinalizeSessionWithOutbox(
	_ context.Context,
	sessionID string,
	finalizedAt time.Time,
	event ports.EventEnvelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID = strings.TrimSpace(sessionID)
	session, ok := s.sessions[sessionID]
	if !ok {
		return domainerrors.ErrSessionNotFound
	}
	if session.FinalizedAt != nil {
		return domainerrors.ErrConflict
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return err
	}
	finalized := finalizedAt.UTC()
	session.FinalizedAt = &finalized
	s.sessions[sessionID] = session
	return nil
}

func (s *Store) appendOutboxLocked(envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.seq++
	s.outbox[outboxID] = outboxRecord{
		seq: s.seq,
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

// ListPendingOutbox returns unpublished rows in append order.
func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows := make([]outboxRecord, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].seq < rows[j].seq
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.message)
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) NewBallotID(_ context.Context, castAt time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(castAt), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func cloneSnapshot(session entities.SessionSnapshot) entities.SessionSnapshot {
	session.Participants = append([]string(nil), session.Participants...)
	session.Tally = append([]uint64(nil), session.Tally...)
	if session.FinalizedAt != nil {
		finalized := *session.FinalizedAt
		session.FinalizedAt = &finalized
	}
	return session
}

func cloneBallot(ballot entities.Ballot) entities.Ballot {
	ballot.Choices = append([]string(nil), ballot.Choices...)
	if ballot.Ranks != nil {
		ballot.Ranks = append([]int(nil), ballot.Ranks...)
	}
	ballot.Points = append([]uint64(nil), ballot.Points...)
	return ballot
}

var (
	_ ports.SessionRepository = (*Store)(nil)
	_ ports.OutboxRepository  = (*Store)(nil)
	_ ports.Clock             = (*Store)(nil)
	_ ports.IDGenerator       = (*Store)(nil)
	_ ports.BallotIDGenerator = (*Store)(nil)
)
