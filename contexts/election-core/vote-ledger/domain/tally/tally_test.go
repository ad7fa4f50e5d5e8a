package tally

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "votex/contexts/election-core/vote-ledger/domain/errors"
)

func TestParseModeAcceptsLegacyUpperCase(t *testing.T) {
	for raw, want := range map[string]Mode{
		"single":   ModeSingle,
		"MULTIPLE": ModeMultiple,
		" Ranked ": ModeRanked,
		"SINGLE":   ModeSingle,
		"multiple": ModeMultiple,
	} {
		got, err := ParseMode(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseMode("approval")
	require.ErrorIs(t, err, domainerrors.ErrInvalidSession)
}

func TestNewRulesRejectsBadDefinitions(t *testing.T) {
	cases := []struct {
		name         string
		mode         Mode
		participants []string
		maxChoices   int
	}{
		{name: "unknown mode", mode: Mode("approval"), participants: []string{"A"}},
		{name: "no participants", mode: ModeSingle},
		{name: "blank participant", mode: ModeSingle, participants: []string{"A", "  "}},
		{name: "duplicate participant", mode: ModeMultiple, participants: []string{"A", "B", "A"}, maxChoices: 2},
		{name: "max above participants", mode: ModeMultiple, participants: []string{"A", "B"}, maxChoices: 3},
		{name: "negative max", mode: ModeRanked, participants: []string{"A", "B"}, maxChoices: -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRules(tc.mode, tc.participants, tc.maxChoices)
			require.ErrorIs(t, err, domainerrors.ErrInvalidSession)
		})
	}
}

func TestNewRulesNormalizesMaxChoices(t *testing.T) {
	single, err := NewRules(ModeSingle, []string{"A", "B", "C"}, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, single.MaxChoices)

	ranked, err := NewRules(ModeRanked, []string{"A", "B", "C"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, ranked.MaxChoices)
}

func TestSingleScoring(t *testing.T) {
	rules, err := NewRules(ModeSingle, []string{"Option A", "Option B", "Option C"}, 0)
	require.NoError(t, err)

	points, err := rules.Score([]string{"Option B"}, nil)
	require.NoError(t, err)
	assert.Equal(t, Points{0, 1, 0}, points)

	_, err = rules.Score([]string{"Option A", "Option B"}, nil)
	require.ErrorIs(t, err, domainerrors.ErrWrongChoiceCount)

	_, err = rules.Score(nil, nil)
	require.ErrorIs(t, err, domainerrors.ErrWrongChoiceCount)

	_, err = rules.Score([]string{"Invalid Option"}, nil)
	require.ErrorIs(t, err, domainerrors.ErrInvalidChoice)

	_, err = rules.Score([]string{"Option A"}, []int{1})
	require.ErrorIs(t, err, domainerrors.ErrInvalidVoteInput)
}

func TestMultipleScoring(t *testing.T) {
	rules, err := NewRules(ModeMultiple, []string{"Candidate A", "Candidate B", "Candidate C", "Candidate D"}, 2)
	require.NoError(t, err)

	points, err := rules.Score([]string{"Candidate A", "Candidate C"}, nil)
	require.NoError(t, err)
	assert.Equal(t, Points{1, 0, 1, 0}, points)
	assert.EqualValues(t, 2, points.Total())

	_, err = rules.Score([]string{"Candidate A", "Candidate B", "Candidate C"}, nil)
	require.ErrorIs(t, err, domainerrors.ErrTooManyChoices)

	_, err = rules.Score([]string{"Candidate A", "Candidate A"}, nil)
	require.ErrorIs(t, err, domainerrors.ErrDuplicateChoice)

	_, err = rules.Score([]string{"Candidate Z"}, nil)
	require.ErrorIs(t, err, domainerrors.ErrInvalidChoice)

	_, err = rules.Score([]string{}, nil)
	require.ErrorIs(t, err, domainerrors.ErrWrongChoiceCount)
}

func TestRankedScoring(t *testing.T) {
	rules, err := NewRules(ModeRanked, []string{"Candidate A", "Candidate B", "Candidate C"}, 3)
	require.NoError(t, err)

	points, err := rules.Score([]string{"Candidate C", "Candidate A", "Candidate B"}, []int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, Points{2, 1, 3}, points)

	cases := []struct {
		name    string
		choices []string
		ranks   []int
		want    error
	}{
		{name: "gap in ranks", choices: []string{"Candidate A", "Candidate B"}, ranks: []int{1, 3}, want: domainerrors.ErrInvalidRankSet},
		{name: "repeated rank", choices: []string{"Candidate A", "Candidate B"}, ranks: []int{1, 1}, want: domainerrors.ErrInvalidRankSet},
		{name: "zero rank", choices: []string{"Candidate A"}, ranks: []int{0}, want: domainerrors.ErrInvalidRankSet},
		{name: "length mismatch", choices: []string{"Candidate A", "Candidate B"}, ranks: []int{1}, want: domainerrors.ErrInvalidRankSet},
		{name: "missing ranks", choices: []string{"Candidate A"}, want: domainerrors.ErrInvalidRankSet},
		{name: "unknown choice", choices: []string{"Candidate A", "Nobody"}, ranks: []int{1, 2}, want: domainerrors.ErrInvalidChoice},
		{name: "duplicate choice", choices: []string{"Candidate A", "Candidate A"}, ranks: []int{1, 2}, want: domainerrors.ErrDuplicateChoice},
		{name: "empty ballot", want: domainerrors.ErrWrongChoiceCount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := rules.Score(tc.choices, tc.ranks)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRankedSubsetScoresByBallotLength(t *testing.T) {
	rules, err := NewRules(ModeRanked, []string{"A", "B", "C", "D"}, 0)
	require.NoError(t, err)

	points, err := rules.Score([]string{"D", "B"}, []int{2, 1})
	require.NoError(t, err)
	assert.Equal(t, Points{0, 2, 0, 1}, points)
}

func TestRankedMaxChoicesIsEnforced(t *testing.T) {
	rules, err := NewRules(ModeRanked, []string{"A", "B", "C", "D"}, 2)
	require.NoError(t, err)

	_, err = rules.Score([]string{"A", "B", "C"}, []int{1, 2, 3})
	require.ErrorIs(t, err, domainerrors.ErrTooManyChoices)
}

func TestRankedBallotTotalIsTriangular(t *testing.T) {
	participants := []string{"A", "B", "C", "D", "E", "F"}
	rules, err := NewRules(ModeRanked, participants, 0)
	require.NoError(t, err)

	for k := 1; k <= len(participants); k++ {
		choices := make([]string, 0, k)
		ranks := make([]int, 0, k)
		for i := 0; i < k; i++ {
			choices = append(choices, participants[len(participants)-1-i])
			ranks = append(ranks, k-i)
		}
		points, err := rules.Score(choices, ranks)
		require.NoError(t, err)
		assert.EqualValues(t, k*(k+1)/2, points.Total(), "k=%d", k)
	}
}
