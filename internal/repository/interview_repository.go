package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/repository/base"
	"github.com/Freeeeeet/interview_autopilot/internal/store"
)

const interviewColumns = `
	id, candidate_id, job_title, recruiter_name, recruiter_email, starts_at, ends_at,
	meeting_link, status, reminder_sent_at, feedback_requested_at, consolidated_at, created_at`

type InterviewRepository struct {
	db base.DBTX
}

func NewInterviewRepository(db base.DBTX) *InterviewRepository {
	return &InterviewRepository{db: db}
}

func scanInterview(row pgx.Row) (*model.Interview, error) {
	var i model.Interview
	err := row.Scan(
		&i.ID,
		&i.CandidateID,
		&i.JobTitle,
		&i.RecruiterName,
		&i.RecruiterEmail,
		&i.StartsAt,
		&i.EndsAt,
		&i.MeetingLink,
		&i.Status,
		&i.ReminderSentAt,
		&i.FeedbackRequestedAt,
		&i.ConsolidatedAt,
		&i.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *InterviewRepository) listInterviews(ctx context.Context, query string, args ...any) ([]*model.Interview, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	defer rows.Close()

	var interviews []*model.Interview
	for rows.Next() {
		i, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interview: %w", err)
		}
		interviews = append(interviews, i)
	}
	return interviews, rows.Err()
}

func (r *InterviewRepository) CreateInterview(ctx context.Context, i *model.Interview) error {
	query := `
		INSERT INTO interviews (candidate_id, job_title, recruiter_name, recruiter_email, starts_at, ends_at, meeting_link, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		i.CandidateID,
		i.JobTitle,
		i.RecruiterName,
		i.RecruiterEmail,
		i.StartsAt,
		i.EndsAt,
		i.MeetingLink,
		i.Status,
	).Scan(&i.ID, &i.CreatedAt)
	if err != nil {
		return fmt.Errorf("create interview: %w", base.MapError(err))
	}
	return nil
}

func (r *InterviewRepository) SetMeetingLink(ctx context.Context, interviewID int64, link string) error {
	affected, err := base.ExecAffected(ctx, r.db, `UPDATE interviews SET meeting_link = $2 WHERE id = $1`, interviewID, link)
	if err != nil {
		return fmt.Errorf("set meeting link: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("set meeting link for interview %d: %w", interviewID, store.ErrNotFound)
	}
	return nil
}

// GetInterview returns nil, nil when the interview does not exist.
func (r *InterviewRepository) GetInterview(ctx context.Context, id int64) (*model.Interview, error) {
	i, err := scanInterview(r.db.QueryRow(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get interview: %w", err)
	}
	return i, nil
}

func (r *InterviewRepository) AddInterviewParticipant(ctx context.Context, interviewID, participantID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO interview_participants (interview_id, participant_id) VALUES ($1, $2)`,
		interviewID, participantID,
	)
	if err != nil {
		return fmt.Errorf("add interview participant: %w", base.MapError(err))
	}
	return nil
}

// ListDueForReminder returns scheduled interviews starting within lead of now
// that have not been reminded yet.
func (r *InterviewRepository) ListDueForReminder(ctx context.Context, now time.Time, lead time.Duration) ([]*model.Interview, error) {
	query := `SELECT ` + interviewColumns + `
		FROM interviews
		WHERE status = $1 AND reminder_sent_at IS NULL AND starts_at > $2 AND starts_at <= $3
		ORDER BY id`
	return r.listInterviews(ctx, query, model.InterviewStatusScheduled, now, now.Add(lead))
}

// ListDueForFeedbackRequest returns interviews that ended at least delay ago
// and are neither asked for feedback nor consolidated.
func (r *InterviewRepository) ListDueForFeedbackRequest(ctx context.Context, now time.Time, delay time.Duration) ([]*model.Interview, error) {
	query := `SELECT ` + interviewColumns + `
		FROM interviews
		WHERE feedback_requested_at IS NULL AND consolidated_at IS NULL AND status <> $1 AND ends_at <= $2
		ORDER BY id`
	return r.listInterviews(ctx, query, model.InterviewStatusFeedbackReceived, now.Add(-delay))
}

// ListDueForConsolidation returns interviews still waiting on the gate.
func (r *InterviewRepository) ListDueForConsolidation(ctx context.Context) ([]*model.Interview, error) {
	query := `SELECT ` + interviewColumns + `
		FROM interviews
		WHERE status IN ($1, $2) AND consolidated_at IS NULL
		ORDER BY id`
	return r.listInterviews(ctx, query, model.InterviewStatusFeedbackRequested, model.InterviewStatusCompleted)
}

func (r *InterviewRepository) markOnce(ctx context.Context, query string, interviewID int64, at time.Time) (bool, error) {
	affected, err := base.ExecAffected(ctx, r.db, query, interviewID, at)
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// MarkReminderSent reports false when the reminder was already marked.
func (r *InterviewRepository) MarkReminderSent(ctx context.Context, interviewID int64, at time.Time) (bool, error) {
	ok, err := r.markOnce(ctx,
		`UPDATE interviews SET reminder_sent_at = $2 WHERE id = $1 AND reminder_sent_at IS NULL`,
		interviewID, at)
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}
	return ok, nil
}

// MarkFeedbackRequested also moves the interview to feedback_requested.
func (r *InterviewRepository) MarkFeedbackRequested(ctx context.Context, interviewID int64, at time.Time) (bool, error) {
	ok, err := r.markOnce(ctx,
		`UPDATE interviews SET feedback_requested_at = $2, status = 'feedback_requested'
		 WHERE id = $1 AND feedback_requested_at IS NULL AND consolidated_at IS NULL`,
		interviewID, at)
	if err != nil {
		return false, fmt.Errorf("mark feedback requested: %w", err)
	}
	return ok, nil
}

// MarkConsolidated also moves the interview to feedback_received.
func (r *InterviewRepository) MarkConsolidated(ctx context.Context, interviewID int64, at time.Time) (bool, error) {
	ok, err := r.markOnce(ctx,
		`UPDATE interviews SET consolidated_at = $2, status = 'feedback_received'
		 WHERE id = $1 AND consolidated_at IS NULL`,
		interviewID, at)
	if err != nil {
		return false, fmt.Errorf("mark consolidated: %w", err)
	}
	return ok, nil
}
