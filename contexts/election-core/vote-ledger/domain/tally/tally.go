// Package tally validates ballots against a session's voting discipline and
// converts accepted ballots into per-participant score deltas.
//
// Everything here is pure: no clocks, no locks, no I/O. The ledger package
// owns state and calls Score before committing a ballot.
package tally

import (
	"fmt"
	"strings"

	domainerrors "votex/contexts/election-core/vote-ledger/domain/errors"
)

type Mode string

const (
	ModeSingle   Mode = "single"
	ModeMultiple Mode = "multiple"
	ModeRanked   Mode = "ranked"
)

// ParseMode accepts the canonical lower-case names as well as the upper-case
// forms used by older session-setup clients (SINGLE, MULTIPLE, RANKED).
func ParseMode(raw string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(raw)))
	if !mode.Valid() {
		return "", fmt.Errorf("%w: unknown voting mode %q", domainerrors.ErrInvalidSession, raw)
	}
	return mode, nil
}

func (m Mode) Valid() bool {
	switch m {
	case ModeSingle, ModeMultiple, ModeRanked:
		return true
	default:
		return false
	}
}

func (m Mode) String() string {
	return string(m)
}

// Rules is the immutable ballot discipline of one session.
type Rules struct {
	Mode         Mode
	Participants []string
	MaxChoices   int

	index map[string]int
}

// NewRules validates a session definition. A zero maxChoices for Multiple or
// Ranked means "up to every participant"; Single always allows exactly one.
func NewRules(mode Mode, participants []string, maxChoices int) (Rules, error) {
	if !mode.Valid() {
		return Rules{}, fmt.Errorf("%w: unknown voting mode %q", domainerrors.ErrInvalidSession, string(mode))
	}
	if len(participants) == 0 {
		return Rules{}, fmt.Errorf("%w: at least one participant is required", domainerrors.ErrInvalidSession)
	}

	index := make(map[string]int, len(participants))
	names := make([]string, 0, len(participants))
	for i, raw := range participants {
		name := strings.TrimSpace(raw)
		if name == "" {
			return Rules{}, fmt.Errorf("%w: participant %d is blank", domainerrors.ErrInvalidSession, i)
		}
		if _, exists := index[name]; exists {
			return Rules{}, fmt.Errorf("%w: participant %q is listed twice", domainerrors.ErrInvalidSession, name)
		}
		index[name] = i
		names = append(names, name)
	}

	switch mode {
	case ModeSingle:
		maxChoices = 1
	default:
		if maxChoices < 0 {
			return Rules{}, fmt.Errorf("%w: max choices must not be negative", domainerrors.ErrInvalidSession)
		}
		if maxChoices == 0 {
			maxChoices = len(names)
		}
		if maxChoices > len(names) {
			return Rules{}, fmt.Errorf("%w: max choices %d exceeds %d participants",
				domainerrors.ErrInvalidSession, maxChoices, len(names))
		}
	}

	return Rules{
		Mode:         mode,
		Participants: names,
		MaxChoices:   maxChoices,
		index:        index,
	}, nil
}

// IndexOf returns the position of a participant in the session order.
func (r Rules) IndexOf(participant string) (int, bool) {
	idx, ok := r.index[participant]
	return idx, ok
}

// Points is a score delta vector aligned with Rules.Participants.
type Points []uint64

func (p Points) Total() uint64 {
	var total uint64
	for _, v := range p {
		total += v
	}
	return total
}

// Score validates one ballot and returns the points it awards. ranks is only
// consulted in Ranked mode and must be nil or empty otherwise.
func (r Rules) Score(choices []string, ranks []int) (Points, error) {
	switch r.Mode {
	case ModeSingle:
		if len(ranks) > 0 {
			return nil, fmt.Errorf("%w: ranks are only accepted in ranked mode", domainerrors.ErrInvalidVoteInput)
		}
		return r.scoreSingle(choices)
	case ModeMultiple:
		if len(ranks) > 0 {
			return nil, fmt.Errorf("%w: ranks are only accepted in ranked mode", domainerrors.ErrInvalidVoteInput)
		}
		return r.scoreMultiple(choices)
	case ModeRanked:
		return r.scoreRanked(choices, ranks)
	default:
		return nil, fmt.Errorf("%w: unknown voting mode %q", domainerrors.ErrInvalidSession, string(r.Mode))
	}
}

func (r Rules) scoreSingle(choices []string) (Points, error) {
	if len(choices) != 1 {
		return nil, fmt.Errorf("%w: single mode takes exactly one choice, got %d",
			domainerrors.ErrWrongChoiceCount, len(choices))
	}
	idx, err := r.lookup(choices[0])
	if err != nil {
		return nil, err
	}
	points := make(Points, len(r.Participants))
	points[idx] = 1
	return points, nil
}

func (r Rules) scoreMultiple(choices []string) (Points, error) {
	if len(choices) == 0 {
		return nil, fmt.Errorf("%w: at least one choice is required", domainerrors.ErrWrongChoiceCount)
	}
	if len(choices) > r.MaxChoices {
		return nil, fmt.Errorf("%w: %d choices submitted, at most %d allowed",
			domainerrors.ErrTooManyChoices, len(choices), r.MaxChoices)
	}
	points := make(Points, len(r.Participants))
	for _, choice := range choices {
		idx, err := r.lookup(choice)
		if err != nil {
			return nil, err
		}
		if points[idx] != 0 {
			return nil, fmt.Errorf("%w: %q", domainerrors.ErrDuplicateChoice, choice)
		}
		points[idx] = 1
	}
	return points, nil
}

// scoreRanked awards k-r+1 points to the choice ranked r out of k submitted
// choices. Only the submitted subset is ranked.
func (r Rules) scoreRanked(choices []string, ranks []int) (Points, error) {
	if len(choices) != len(ranks) {
		return nil, fmt.Errorf("%w: %d choices but %d ranks",
			domainerrors.ErrInvalidRankSet, len(choices), len(ranks))
	}
	k := len(choices)
	if k == 0 {
		return nil, fmt.Errorf("%w: at least one choice is required", domainerrors.ErrWrongChoiceCount)
	}
	if k > r.MaxChoices {
		return nil, fmt.Errorf("%w: %d choices ranked, at most %d allowed",
			domainerrors.ErrTooManyChoices, k, r.MaxChoices)
	}

	positions := make([]int, k)
	chosen := make(map[int]struct{}, k)
	for i, choice := range choices {
		idx, err := r.lookup(choice)
		if err != nil {
			return nil, err
		}
		if _, dup := chosen[idx]; dup {
			return nil, fmt.Errorf("%w: %q", domainerrors.ErrDuplicateChoice, choice)
		}
		chosen[idx] = struct{}{}
		positions[i] = idx
	}

	seen := make([]bool, k+1)
	for _, rank := range ranks {
		if rank < 1 || rank > k {
			return nil, fmt.Errorf("%w: rank %d outside 1..%d", domainerrors.ErrInvalidRankSet, rank, k)
		}
		if seen[rank] {
			return nil, fmt.Errorf("%w: rank %d repeated", domainerrors.ErrInvalidRankSet, rank)
		}
		seen[rank] = true
	}

	points := make(Points, len(r.Participants))
	for i, idx := range positions {
		points[idx] = uint64(k - ranks[i] + 1)
	}
	return points, nil
}

func (r Rules) lookup(choice string) (int, error) {
	idx, ok := r.index[strings.TrimSpace(choice)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domainerrors.ErrInvalidChoice, choice)
	}
	return idx, nil
}
