package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/repository/base"
)

type FeedbackRepository struct {
	db base.DBTX
}

func NewFeedbackRepository(db base.DBTX) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// UpsertFeedback keeps one row per (interview, participant); a resubmission
// overwrites decision, comment and submission time.
func (r *FeedbackRepository) UpsertFeedback(ctx context.Context, f *model.Feedback) error {
	query := `
		INSERT INTO feedback (interview_id, participant_id, decision, comment, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (interview_id, participant_id)
		DO UPDATE SET decision = EXCLUDED.decision, comment = EXCLUDED.comment, submitted_at = EXCLUDED.submitted_at
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query, f.InterviewID, f.ParticipantID, f.Decision, f.Comment, f.SubmittedAt).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("upsert feedback: %w", base.MapError(err))
	}
	return nil
}

// ListFeedback joins the participant name onto each submission.
func (r *FeedbackRepository) ListFeedback(ctx context.Context, interviewID int64) ([]*model.Feedback, error) {
	query := `
		SELECT f.id, f.interview_id, f.participant_id, f.decision, f.comment, f.submitted_at, p.name
		FROM feedback f
		JOIN participants p ON p.id = f.participant_id
		WHERE f.interview_id = $1
		ORDER BY f.participant_id
	`

	rows, err := r.db.Query(ctx, query, interviewID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var items []*model.Feedback
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.ID, &f.InterviewID, &f.ParticipantID, &f.Decision, &f.Comment, &f.SubmittedAt, &f.ParticipantName); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		items = append(items, &f)
	}
	return items, rows.Err()
}
