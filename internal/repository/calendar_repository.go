package repository

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/repository/base"
)

// Booking locks use the single bigint form of pg_advisory_xact_lock. The top
// 16 bits carry the namespace and the low 48 bits the participant id.
const (
	participantLockNamespace int64 = 7301
	participantLockIDBits          = 48
)

func participantLockKey(id int64) int64 {
	return participantLockNamespace<<participantLockIDBits | id&(1<<participantLockIDBits-1)
}

// CalendarRepository stores busy blocks and guards bookings with advisory
// locks.
type CalendarRepository struct {
	db base.DBTX
}

func NewCalendarRepository(db base.DBTX) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// CreateBlock inserts b and fills its id and creation time. An empty title
// falls back to the default block title.
func (r *CalendarRepository) CreateBlock(ctx context.Context, b *model.CalendarBlock) error {
	if b.Title == "" {
		b.Title = model.DefaultBlockTitle
	}

	query := `
		INSERT INTO calendar_blocks (participant_id, starts_at, ends_at, title)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, b.ParticipantID, b.StartsAt, b.EndsAt, b.Title).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("create calendar block: %w", base.MapError(err))
	}
	return nil
}

// HasOverlappingBlock treats windows as half-open, so a block ending exactly
// at start does not overlap.
func (r *CalendarRepository) HasOverlappingBlock(ctx context.Context, participantID int64, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM calendar_blocks
			WHERE participant_id = $1 AND starts_at < $3 AND ends_at > $2
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, participantID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("check calendar overlap: %w", err)
	}
	return exists, nil
}

func (r *CalendarRepository) ListBlocks(ctx context.Context, participantID int64, window model.TimeWindow) ([]*model.CalendarBlock, error) {
	query := `
		SELECT id, participant_id, starts_at, ends_at, title, created_at
		FROM calendar_blocks
		WHERE participant_id = $1 AND starts_at < $3 AND ends_at > $2
		ORDER BY starts_at
	`

	rows, err := r.db.Query(ctx, query, participantID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("list calendar blocks: %w", err)
	}
	defer rows.Close()

	var blocks []*model.CalendarBlock
	for rows.Next() {
		var b model.CalendarBlock
		if err := rows.Scan(&b.ID, &b.ParticipantID, &b.StartsAt, &b.EndsAt, &b.Title, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan calendar block: %w", err)
		}
		blocks = append(blocks, &b)
	}
	return blocks, rows.Err()
}

// LockParticipants takes transaction-scoped advisory locks in ascending id
// order, so two bookings sharing panelists never wait on each other in a
// cycle. The locks are released on commit or rollback.
func (r *CalendarRepository) LockParticipants(ctx context.Context, ids []int64) error {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	for _, id := range slices.Compact(sorted) {
		if _, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, participantLockKey(id)); err != nil {
			return fmt.Errorf("lock participant %d: %w", id, err)
		}
	}
	return nil
}
