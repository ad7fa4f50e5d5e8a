package ledger

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"votex/contexts/election-core/vote-ledger/domain/entities"
	domainerrors "votex/contexts/election-core/vote-ledger/domain/errors"
	"votex/contexts/election-core/vote-ledger/domain/tally"
)

// SnapshotCommitFunc persists a new session before it becomes visible.
type SnapshotCommitFunc func(entities.SessionSnapshot) error

// Registry is the namespace of sessions. It only guards the id index; each
// session carries its own lock. An id in pending is reserved by a create whose
// commit has not returned yet and is not visible to readers.
type Registry struct {
	clock Clock

	mu       sync.RWMutex
	sessions map[string]*Session
	pending  map[string]struct{}
	order    []string
}

func NewRegistry(clock Clock) *Registry {
	if clock == nil {
		clock = systemClock{}
	}
	return &Registry{
		clock:    clock,
		sessions: make(map[string]*Session),
		pending:  make(map[string]struct{}),
	}
}

func (r *Registry) Create(spec entities.SessionSpec) (*Session, error) {
	return r.CreateWith(spec, nil)
}

// CreateWith validates spec and inserts the session if its id is free. commit
// runs with the id reserved but without the registry lock held. An error from
// commit releases the reservation and leaves the registry unchanged.
func (r *Registry) CreateWith(spec entities.SessionSpec, commit SnapshotCommitFunc) (*Session, error) {
	session, err := r.build(spec)
	if err != nil {
		return nil, err
	}
	if err := r.reserve(session.id); err != nil {
		return nil, err
	}

	if commit != nil {
		if err := commit(session.Snapshot()); err != nil {
			r.mu.Lock()
			delete(r.pending, session.id)
			r.mu.Unlock()
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, session.id)
	r.insertLocked(session)
	return session, nil
}

func (r *Registry) reserve(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.takenLocked(id) {
		return domainerrors.ErrDuplicateSessionID
	}
	r.pending[id] = struct{}{}
	return nil
}

// Restore rebuilds a session from durable state by replaying its ballots in
// cast order. When the snapshot carries a tally, the replayed tally must match
// it exactly.
func (r *Registry) Restore(snapshot entities.SessionSnapshot, ballots []entities.Ballot) (*Session, error) {
	spec := entities.SessionSpec{
		SessionID:    snapshot.SessionID,
		Title:        snapshot.Title,
		OwnerID:      snapshot.OwnerID,
		Participants: snapshot.Participants,
		Mode:         snapshot.Mode,
		MaxChoices:   snapshot.MaxChoices,
		EndTime:      snapshot.EndTime,
	}
	rules, err := validateSpec(spec)
	if err != nil {
		return nil, err
	}
	createdAt := snapshot.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.clock.Now()
	}
	session := newSession(spec, rules, createdAt, r.clock)
	if snapshot.FinalizedAt != nil {
		session.MarkFinalized(*snapshot.FinalizedAt)
	}

	ordered := append([]entities.Ballot(nil), ballots...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CastAt.Before(ordered[j].CastAt)
	})
	for _, ballot := range ordered {
		if err := session.replay(ballot); err != nil {
			return nil, err
		}
	}
	if len(snapshot.Tally) > 0 && !equalTally(snapshot.Tally, session.tally) {
		return nil, fmt.Errorf("%w: stored tally for session %q does not match replayed ballots",
			domainerrors.ErrConflict, session.id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.takenLocked(session.id) {
		return nil, domainerrors.ErrDuplicateSessionID
	}
	r.insertLocked(session)
	return session, nil
}

func (r *Registry) Get(sessionID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[strings.TrimSpace(sessionID)]
	return session, ok
}

// IDs returns session ids in creation order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

func (r *Registry) IDsByOwner(ownerID string) []string {
	ownerID = strings.TrimSpace(ownerID)
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]string, 0)
	for _, id := range r.order {
		if r.sessions[id].ownerID == ownerID {
			items = append(items, id)
		}
	}
	return items
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *Registry) build(spec entities.SessionSpec) (*Session, error) {
	rules, err := validateSpec(spec)
	if err != nil {
		return nil, err
	}
	return newSession(spec, rules, r.clock.Now(), r.clock), nil
}

func (r *Registry) takenLocked(id string) bool {
	if _, exists := r.sessions[id]; exists {
		return true
	}
	_, reserved := r.pending[id]
	return reserved
}

func (r *Registry) insertLocked(session *Session) {
	r.sessions[session.id] = session
	r.order = append(r.order, session.id)
}

func validateSpec(spec entities.SessionSpec) (tally.Rules, error) {
	if strings.TrimSpace(spec.SessionID) == "" {
		return tally.Rules{}, fmt.Errorf("%w: session id is required", domainerrors.ErrInvalidSession)
	}
	if spec.EndTime.IsZero() {
		return tally.Rules{}, fmt.Errorf("%w: end time is required", domainerrors.ErrInvalidSession)
	}
	return tally.NewRules(spec.Mode, spec.Participants, spec.MaxChoices)
}

func equalTally(a []uint64, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
