package postgresadapter

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"votex/contexts/election-core/vote-ledger/domain/entities"
	domainerrors "votex/contexts/election-core/vote-ledger/domain/errors"
	"votex/contexts/election-core/vote-ledger/domain/tally"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestTallyCodecKeepsUnsignedRange(t *testing.T) {
	encoded := encodeTally([]uint64{0, 7, math.MaxUint64})
	decoded, err := decodeTally(encoded)
	if err != nil {
		t.Fatalf("decode tally: %v", err)
	}
	if len(decoded) != 3 || decoded[2] != math.MaxUint64 {
		t.Fatalf("expected max uint64 to survive, got %v from %s", decoded, encoded)
	}
	if encodeTally(nil) != "[]" {
		t.Fatalf("expected empty array for nil tally, got %s", encodeTally(nil))
	}
	if blank, err := decodeTally("  "); blank != nil || err != nil {
		t.Fatalf("expected nil tally for blank column, got %v err=%v", blank, err)
	}
}

func TestCorruptTallyFailsRestoreLoudly(t *testing.T) {
	if _, err := decodeTally("not json"); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict for malformed tally, got %v", err)
	}

	row := sessionModelFromSnapshot(entities.SessionSnapshot{
		SessionID:    "s-1",
		Participants: []string{"A", "B"},
		Mode:         tally.ModeSingle,
		MaxChoices:   1,
		EndTime:      time.Date(2026, 4, 2, 11, 0, 0, 0, time.UTC),
	})
	row.Tally = "[1,"
	if _, err := toSnapshots([]sessionModel{row}); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict from corrupt session row, got %v", err)
	}

	ballot := ballotModelFromEntity(entities.Ballot{BallotID: "b-1", SessionID: "s-1", VoterID: "v1"})
	ballot.Points = "{}"
	if _, err := ballot.toEntity(); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict from corrupt ballot row, got %v", err)
	}
}

func TestSessionsListedByInsertSequence(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=votex dbname=votex sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}

	var rows []sessionModel
	query := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return sessionsInInsertOrder(tx).Find(&rows)
	})
	if !strings.Contains(query, "ORDER BY seq ASC") || strings.Contains(query, "created_at") {
		t.Fatalf("expected ordering by seq only, got %s", query)
	}
}

func TestSessionModelMapping(t *testing.T) {
	local := time.FixedZone("UTC+2", 2*60*60)
	finalized := time.Date(2026, 4, 2, 12, 0, 0, 0, local)
	snapshot := entities.SessionSnapshot{
		SessionID:    " s-1 ",
		OwnerID:      "owner-1",
		Participants: []string{"A", "B", "C"},
		Mode:         tally.ModeRanked,
		MaxChoices:   2,
		EndTime:      time.Date(2026, 4, 2, 11, 0, 0, 0, local),
		CreatedAt:    time.Date(2026, 4, 2, 10, 0, 0, 0, local),
		FinalizedAt:  &finalized,
		Tally:        []uint64{2, 0, 1},
		VoterCount:   1,
	}

	row := sessionModelFromSnapshot(snapshot)
	if row.SessionID != "s-1" || row.Mode != "ranked" || row.Tally != "[2,0,1]" {
		t.Fatalf("unexpected row %+v", row)
	}
	if row.EndTime.Location() != time.UTC || row.FinalizedAt.Location() != time.UTC {
		t.Fatal("expected timestamps normalized to UTC")
	}

	back, err := row.toSnapshot()
	if err != nil {
		t.Fatalf("to snapshot: %v", err)
	}
	if back.Mode != tally.ModeRanked || back.Tally[0] != 2 || !back.EndTime.Equal(snapshot.EndTime) {
		t.Fatalf("unexpected snapshot %+v", back)
	}
	if back.FinalizedAt == nil || !back.FinalizedAt.Equal(finalized) {
		t.Fatalf("expected finalized_at preserved, got %v", back.FinalizedAt)
	}
}

func TestBallotModelMapping(t *testing.T) {
	ballot := entities.Ballot{
		BallotID:  "01J0000000000000000000000",
		SessionID: "s-1",
		VoterID:   "v1",
		Choices:   []string{"C", "A"},
		Ranks:     []int{1, 2},
		Points:    []uint64{1, 0, 2},
		CastAt:    time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC),
	}
	back, err := ballotModelFromEntity(ballot).toEntity()
	if err != nil {
		t.Fatalf("to entity: %v", err)
	}
	if back.BallotID != ballot.BallotID || back.Ranks[1] != 2 || back.Points[2] != 2 {
		t.Fatalf("unexpected ballot %+v", back)
	}

	anonymous := ballotModelFromEntity(entities.Ballot{SessionID: "s-1", VoterID: "v2"})
	if anonymous.BallotID == "" {
		t.Fatal("expected generated ballot id")
	}
	if anonymous.Ranks != nil {
		t.Fatal("expected nil ranks for non-ranked ballot")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert ballot: %w", &pgconn.PgError{Code: "23505"})
	if !isUniqueViolation(wrapped) {
		t.Fatal("expected wrapped 23505 to be detected")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "42P01"}) || isUniqueViolation(errors.New("boom")) {
		t.Fatal("expected only 23505 to match")
	}
}
