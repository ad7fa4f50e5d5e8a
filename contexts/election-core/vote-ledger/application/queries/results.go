package queries

import (
	"context"
	"strings"

	"votex/contexts/election-core/vote-ledger/domain/entities"
	domainerrors "votex/contexts/election-core/vote-ledger/domain/errors"
	"votex/contexts/election-core/vote-ledger/domain/ledger"
)

// ResultsUseCase is the read side of the ledger. None of its methods mutate a
// session, and all of them are valid in both Active and Closed states.
type ResultsUseCase struct {
	Registry *ledger.Registry
}

func (uc ResultsUseCase) GetStatus(ctx context.Context, sessionID string) (entities.Status, error) {
	session, err := uc.lookup(ctx, sessionID)
	if err != nil {
		return entities.Status{}, err
	}
	return session.Status(), nil
}

func (uc ResultsUseCase) GetResults(ctx context.Context, sessionID string) (entities.Results, error) {
	session, err := uc.lookup(ctx, sessionID)
	if err != nil {
		return entities.Results{}, err
	}
	return session.Results(), nil
}

func (uc ResultsUseCase) CheckVoted(ctx context.Context, sessionID string, voterID string) (bool, error) {
	session, err := uc.lookup(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return session.HasVoted(voterID), nil
}

func (uc ResultsUseCase) GetVoterCount(ctx context.Context, sessionID string) (int, error) {
	session, err := uc.lookup(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return session.VoterCount(), nil
}

func (uc ResultsUseCase) GetBallot(ctx context.Context, sessionID string, voterID string) (entities.Ballot, error) {
	session, err := uc.lookup(ctx, sessionID)
	if err != nil {
		return entities.Ballot{}, err
	}
	ballot, ok := session.Ballot(voterID)
	if !ok {
		return entities.Ballot{}, domainerrors.ErrBallotNotFound
	}
	return ballot, nil
}

func (uc ResultsUseCase) GetSession(ctx context.Context, sessionID string) (entities.SessionSummary, error) {
	session, err := uc.lookup(ctx, sessionID)
	if err != nil {
		return entities.SessionSummary{}, err
	}
	return session.Summary(), nil
}

// ListSessionIDs returns every session id in creation order.
func (uc ResultsUseCase) ListSessionIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return uc.Registry.IDs(), nil
}

func (uc ResultsUseCase) ListSessionsByOwner(ctx context.Context, ownerID string) ([]entities.SessionSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := uc.Registry.IDsByOwner(ownerID)
	items := make([]entities.SessionSummary, 0, len(ids))
	for _, id := range ids {
		session, ok := uc.Registry.Get(id)
		if !ok {
			continue
		}
		items = append(items, session.Summary())
	}
	return items, nil
}

func (uc ResultsUseCase) lookup(ctx context.Context, sessionID string) (*ledger.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	session, ok := uc.Registry.Get(strings.TrimSpace(sessionID))
	if !ok {
		return nil, domainerrors.ErrSessionNotFound
	}
	return session, nil
}
