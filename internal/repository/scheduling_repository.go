package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/repository/base"
	"github.com/Freeeeeet/interview_autopilot/internal/store"
)

// SchedulingRepository stores proposals and their candidate options.
type SchedulingRepository struct {
	db base.DBTX
}

func NewSchedulingRepository(db base.DBTX) *SchedulingRepository {
	return &SchedulingRepository{db: db}
}

// CreateSchedulingRequest inserts req and fills its id and creation time.
func (r *SchedulingRepository) CreateSchedulingRequest(ctx context.Context, req *model.SchedulingRequest) error {
	query := `
		INSERT INTO scheduling_requests (recruiter_name, recruiter_email, candidate_id, job_title, duration_minutes, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		req.RecruiterName,
		req.RecruiterEmail,
		req.CandidateID,
		req.JobTitle,
		req.DurationMinutes,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return fmt.Errorf("create scheduling request: %w", base.MapError(err))
	}
	return nil
}

func (r *SchedulingRepository) CreateSchedulingOption(ctx context.Context, o *model.SchedulingOption) error {
	query := `
		INSERT INTO scheduling_options (request_id, starts_at, ends_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	if err := r.db.QueryRow(ctx, query, o.RequestID, o.StartsAt, o.EndsAt).Scan(&o.ID); err != nil {
		return fmt.Errorf("create scheduling option: %w", base.MapError(err))
	}
	return nil
}

// GetSchedulingRequest locks the row until the transaction ends so two
// approvals of the same request serialise.
func (r *SchedulingRepository) GetSchedulingRequest(ctx context.Context, id int64) (*model.SchedulingRequest, error) {
	query := `
		SELECT id, recruiter_name, recruiter_email, candidate_id, job_title, duration_minutes,
		       status, approved_option_id, interview_id, created_at
		FROM scheduling_requests
		WHERE id = $1
		FOR UPDATE
	`

	var req model.SchedulingRequest
	err := r.db.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.RecruiterName,
		&req.RecruiterEmail,
		&req.CandidateID,
		&req.JobTitle,
		&req.DurationMinutes,
		&req.Status,
		&req.ApprovedOptionID,
		&req.InterviewID,
		&req.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get scheduling request: %w", err)
	}
	return &req, nil
}

func (r *SchedulingRepository) GetSchedulingOption(ctx context.Context, id int64) (*model.SchedulingOption, error) {
	var o model.SchedulingOption
	err := r.db.QueryRow(ctx, `SELECT id, request_id, starts_at, ends_at FROM scheduling_options WHERE id = $1`, id).
		Scan(&o.ID, &o.RequestID, &o.StartsAt, &o.EndsAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get scheduling option: %w", err)
	}
	return &o, nil
}

// ListSchedulingOptions returns the options of a request, earliest first.
func (r *SchedulingRepository) ListSchedulingOptions(ctx context.Context, requestID int64) ([]*model.SchedulingOption, error) {
	query := `
		SELECT id, request_id, starts_at, ends_at
		FROM scheduling_options
		WHERE request_id = $1
		ORDER BY starts_at
	`

	rows, err := r.db.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("list scheduling options: %w", err)
	}
	defer rows.Close()

	var options []*model.SchedulingOption
	for rows.Next() {
		var o model.SchedulingOption
		if err := rows.Scan(&o.ID, &o.RequestID, &o.StartsAt, &o.EndsAt); err != nil {
			return nil, fmt.Errorf("scan scheduling option: %w", err)
		}
		options = append(options, &o)
	}
	return options, rows.Err()
}

// UpdateSchedulingRequest returns store.ErrNotFound when no row matches.
func (r *SchedulingRepository) UpdateSchedulingRequest(ctx context.Context, req *model.SchedulingRequest) error {
	query := `
		UPDATE scheduling_requests
		SET status = $2, approved_option_id = $3, interview_id = $4
		WHERE id = $1
	`

	affected, err := base.ExecAffected(ctx, r.db, query, req.ID, req.Status, req.ApprovedOptionID, req.InterviewID)
	if err != nil {
		return fmt.Errorf("update scheduling request: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update scheduling request %d: %w", req.ID, store.ErrNotFound)
	}
	return nil
}
