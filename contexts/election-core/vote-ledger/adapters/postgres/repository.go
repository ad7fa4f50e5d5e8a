package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"votex/contexts/election-core/vote-ledger/domain/entities"
	domainerrors "votex/contexts/election-core/vote-ledger/domain/errors"
	"votex/contexts/election-core/vote-ledger/domain/tally"
	"votex/contexts/election-core/vote-ledger/ports"
	"votex/internal/shared/outbox"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// AutoMigrate creates or updates the ledger tables.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&sessionModel{}, &ballotModel{}, &outboxModel{}); err != nil {
		return r.logError("ledger_repo_automigrate_failed", err)
	}
	return nil
}

func (r *Repository) CreateSessionWithOutbox(
	ctx context.Context,
	session entities.SessionSnapshot,
	event ports.EventEnvelope,
) error {
	row := sessionModelFromSnapshot(session)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrDuplicateSessionID
			}
			return r.logError("ledger_repo_create_session_failed", err, "session_id", row.SessionID)
		}
		return r.appendOutbox(tx, event)
	})
}

func (r *Repository) AppendBallotWithOutbox(
	ctx context.Context,
	ballot entities.Ballot,
	tally []uint64,
	event ports.EventEnvelope,
) error {
	row := ballotModelFromEntity(ballot)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session sessionModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("session_id = ?", row.SessionID).
			First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrSessionNotFound
			}
			return r.logError("ledger_repo_lock_session_failed", err, "session_id", row.SessionID)
		}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrAlreadyVoted
			}
			return r.logError("ledger_repo_insert_ballot_failed", err,
				"session_id", row.SessionID,
				"voter_id", row.VoterID,
			)
		}
		if err := tx.Model(&sessionModel{}).
			Where("session_id = ?", row.SessionID).
			Updates(map[string]any{
				"tally":       encodeTally(tally),
				"voter_count": gorm.Expr("voter_count + 1"),
			}).Error; err != nil {
			return r.logError("ledger_repo_update_tally_failed", err, "session_id", row.SessionID)
		}
		return r.appendOutbox(tx, event)
	})
}

// ListSessions returns sessions in insert order.
func (r *Repository) ListSessions(ctx context.Context) ([]entities.SessionSnapshot, error) {
	var rows []sessionModel
	if err := sessionsInInsertOrder(r.db.WithContext(ctx)).Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_sessions_failed", err)
	}
	items, err := toSnapshots(rows)
	if err != nil {
		return nil, r.logError("ledger_repo_decode_sessions_failed", err)
	}
	return items, nil
}

func (r *Repository) ListBallots(ctx context.Context, sessionID string) ([]entities.Ballot, error) {
	var rows []ballotModel
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", strings.TrimSpace(sessionID)).
		Order("cast_at ASC").
		Order("ballot_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_ballots_failed", err, "session_id", strings.TrimSpace(sessionID))
	}
	items := make([]entities.Ballot, 0, len(rows))
	for _, row := range rows {
		ballot, err := row.toEntity()
		if err != nil {
			return nil, r.logError("ledger_repo_decode_ballot_failed", err, "ballot_id", row.BallotID)
		}
		items = append(items, ballot)
	}
	return items, nil
}

func (r *Repository) ListExpiredSessions(ctx context.Context, now time.Time, limit int) ([]entities.SessionSnapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []sessionModel
	if err := r.db.WithContext(ctx).
		Where("finalized_at IS NULL").
		Where("end_time <= ?", now.UTC()).
		Order("end_time ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_expired_sessions_failed", err, "limit", limit)
	}
	items, err := toSnapshots(rows)
	if err != nil {
		return nil, r.logError("ledger_repo_decode_sessions_failed", err)
	}
	return items, nil
}

func (r *Repository) FinalizeSessionWithOutbox(
	ctx context.Context,
	sessionID string,
	finalizedAt time.Time,
	event ports.EventEnvelope,
) error {
	sessionID = strings.TrimSpace(sessionID)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&sessionModel{}).
			Where("session_id = ?", sessionID).
			Where("finalized_at IS NULL").
			Update("finalized_at", finalizedAt.UTC())
		if result.Error != nil {
			return r.logError("ledger_repo_finalize_session_failed", result.Error, "session_id", sessionID)
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrConflict
		}
		return r.appendOutbox(tx, event)
	})
}

func (r *Repository) appendOutbox(tx *gorm.DB, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("ledger_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("ledger_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := tx.Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("ledger_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("seq ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outbox.StatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("ledger_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "election-core/vote-ledger",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("ledger repository operation failed", fields...)
	return err
}

type sessionModel struct {
	Seq          int64      `gorm:"column:seq;autoIncrement;uniqueIndex"`
	SessionID    string     `gorm:"column:session_id;primaryKey"`
	Title        string     `gorm:"column:title"`
	OwnerID      string     `gorm:"column:owner_id;index"`
	Mode         string     `gorm:"column:mode"`
	MaxChoices   int        `gorm:"column:max_choices"`
	Participants []string   `gorm:"column:participants;serializer:json"`
	Tally        string     `gorm:"column:tally"`
	VoterCount   int        `gorm:"column:voter_count"`
	EndTime      time.Time  `gorm:"column:end_time;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	FinalizedAt  *time.Time `gorm:"column:finalized_at"`
}

func (sessionModel) TableName() string {
	return "ledger_sessions"
}

func sessionModelFromSnapshot(session entities.SessionSnapshot) sessionModel {
	row := sessionModel{
		SessionID:    strings.TrimSpace(session.SessionID),
		Title:        strings.TrimSpace(session.Title),
		OwnerID:      strings.TrimSpace(session.OwnerID),
		Mode:         session.Mode.String(),
		MaxChoices:   session.MaxChoices,
		Participants: append([]string(nil), session.Participants...),
		Tally:        encodeTally(session.Tally),
		VoterCount:   session.VoterCount,
		EndTime:      session.EndTime.UTC(),
		CreatedAt:    session.CreatedAt.UTC(),
		FinalizedAt:  normalizeOptionalTime(session.FinalizedAt),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (m sessionModel) toSnapshot() (entities.SessionSnapshot, error) {
	mode, err := tally.ParseMode(m.Mode)
	if err != nil {
		mode = tally.Mode(m.Mode)
	}
	values, err := decodeTally(m.Tally)
	if err != nil {
		return entities.SessionSnapshot{}, fmt.Errorf("session %q: %w", m.SessionID, err)
	}
	return entities.SessionSnapshot{
		SessionID:    m.SessionID,
		Title:        m.Title,
		OwnerID:      m.OwnerID,
		Participants: append([]string(nil), m.Participants...),
		Mode:         mode,
		MaxChoices:   m.MaxChoices,
		EndTime:      m.EndTime.UTC(),
		CreatedAt:    m.CreatedAt.UTC(),
		FinalizedAt:  normalizeOptionalTime(m.FinalizedAt),
		Tally:        values,
		VoterCount:   m.VoterCount,
	}, nil
}

type ballotModel struct {
	BallotID  string    `gorm:"column:ballot_id;primaryKey"`
	SessionID string    `gorm:"column:session_id;uniqueIndex:ux_ledger_ballots_session_voter,priority:1"`
	VoterID   string    `gorm:"column:voter_id;uniqueIndex:ux_ledger_ballots_session_voter,priority:2"`
	Choices   []string  `gorm:"column:choices;serializer:json"`
	Ranks     []int     `gorm:"column:ranks;serializer:json"`
	Points    string    `gorm:"column:points"`
	CastAt    time.Time `gorm:"column:cast_at"`
}

func (ballotModel) TableName() string {
	return "ledger_ballots"
}

func ballotModelFromEntity(ballot entities.Ballot) ballotModel {
	row := ballotModel{
		BallotID:  strings.TrimSpace(ballot.BallotID),
		SessionID: strings.TrimSpace(ballot.SessionID),
		VoterID:   strings.TrimSpace(ballot.VoterID),
		Choices:   append([]string(nil), ballot.Choices...),
		Points:    encodeTally(ballot.Points),
		CastAt:    ballot.CastAt.UTC(),
	}
	if ballot.Ranks != nil {
		row.Ranks = append([]int(nil), ballot.Ranks...)
	}
	if row.BallotID == "" {
		row.BallotID = uuid.NewString()
	}
	return row
}

func (m ballotModel) toEntity() (entities.Ballot, error) {
	points, err := decodeTally(m.Points)
	if err != nil {
		return entities.Ballot{}, fmt.Errorf("ballot %q: %w", m.BallotID, err)
	}
	return entities.Ballot{
		BallotID:  m.BallotID,
		SessionID: m.SessionID,
		VoterID:   m.VoterID,
		Choices:   append([]string(nil), m.Choices...),
		Ranks:     m.Ranks,
		Points:    points,
		CastAt:    m.CastAt.UTC(),
	}, nil
}

type outboxModel struct {
	Seq          int64      `gorm:"column:seq;autoIncrement;uniqueIndex"`
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "ledger_outbox"
}

// sessionsInInsertOrder sorts by the identity column only. Concurrent creates
// can commit in a different order than their created_at timestamps.
func sessionsInInsertOrder(tx *gorm.DB) *gorm.DB {
	return tx.Model(&sessionModel{}).Order("seq ASC")
}

func toSnapshots(rows []sessionModel) ([]entities.SessionSnapshot, error) {
	items := make([]entities.SessionSnapshot, 0, len(rows))
	for _, row := range rows {
		snapshot, err := row.toSnapshot()
		if err != nil {
			return nil, err
		}
		items = append(items, snapshot)
	}
	return items, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

var _ ports.SessionRepository = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
