package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/repository/base"
	"github.com/Freeeeeet/interview_autopilot/internal/store"
)

// ATSRepository mirrors candidate pipeline state, one row per interview.
type ATSRepository struct {
	db base.DBTX
}

func NewATSRepository(db base.DBTX) *ATSRepository {
	return &ATSRepository{db: db}
}

func (r *ATSRepository) CreateATSRecord(ctx context.Context, rec *model.ATSRecord) error {
	query := `
		INSERT INTO ats_records (interview_id, candidate_id, status, recommendation, summary)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, updated_at
	`

	err := r.db.QueryRow(ctx, query, rec.InterviewID, rec.CandidateID, rec.Status, rec.Recommendation, rec.Summary).
		Scan(&rec.ID, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create ats record: %w", base.MapError(err))
	}
	return nil
}

// GetATSRecord returns nil, nil when the interview has no ATS row.
func (r *ATSRepository) GetATSRecord(ctx context.Context, interviewID int64) (*model.ATSRecord, error) {
	query := `
		SELECT id, interview_id, candidate_id, status, recommendation, summary, updated_at
		FROM ats_records
		WHERE interview_id = $1
	`

	var rec model.ATSRecord
	err := r.db.QueryRow(ctx, query, interviewID).Scan(
		&rec.ID,
		&rec.InterviewID,
		&rec.CandidateID,
		&rec.Status,
		&rec.Recommendation,
		&rec.Summary,
		&rec.UpdatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ats record: %w", err)
	}
	return &rec, nil
}

func (r *ATSRepository) UpdateATSRecord(ctx context.Context, rec *model.ATSRecord) error {
	query := `
		UPDATE ats_records
		SET status = $2, recommendation = $3, summary = $4, updated_at = NOW()
		WHERE interview_id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query, rec.InterviewID, rec.Status, rec.Recommendation, rec.Summary).Scan(&rec.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("update ats record for interview %d: %w", rec.InterviewID, store.ErrNotFound)
		}
		return fmt.Errorf("update ats record: %w", err)
	}
	return nil
}
