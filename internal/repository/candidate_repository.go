package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/repository/base"
)

type CandidateRepository struct {
	db base.DBTX
}

func NewCandidateRepository(db base.DBTX) *CandidateRepository {
	return &CandidateRepository{db: db}
}

func (r *CandidateRepository) CreateCandidate(ctx context.Context, c *model.Candidate) error {
	query := `
		INSERT INTO candidates (name, email, resume_text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, c.Name, c.Email, c.ResumeText).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create candidate: %w", base.MapError(err))
	}
	return nil
}

// GetCandidateByID returns nil, nil when the candidate does not exist.
func (r *CandidateRepository) GetCandidateByID(ctx context.Context, id int64) (*model.Candidate, error) {
	query := `
		SELECT id, name, email, resume_text, created_at
		FROM candidates
		WHERE id = $1
	`

	var c model.Candidate
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Email, &c.ResumeText, &c.CreatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get candidate by id: %w", err)
	}
	return &c, nil
}

// ListCandidates returns every candidate ordered by id.
func (r *CandidateRepository) ListCandidates(ctx context.Context) ([]*model.Candidate, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, email, resume_text, created_at FROM candidates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*model.Candidate
	for rows.Next() {
		var c model.Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.ResumeText, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, &c)
	}
	return candidates, rows.Err()
}
