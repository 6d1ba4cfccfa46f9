package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/repository/base"
)

const participantColumns = `id, name, email, role, chat_handle, created_at`

// ParticipantRepository stores panelists and recruiters.
type ParticipantRepository struct {
	db base.DBTX
}

func NewParticipantRepository(db base.DBTX) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func scanParticipants(rows pgx.Rows) ([]*model.Participant, error) {
	defer rows.Close()

	var participants []*model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Role, &p.ChatHandle, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, &p)
	}
	return participants, rows.Err()
}

func (r *ParticipantRepository) CreateParticipant(ctx context.Context, p *model.Participant) error {
	query := `
		INSERT INTO participants (name, email, role, chat_handle)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, p.Name, p.Email, p.Role, p.ChatHandle).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create participant: %w", base.MapError(err))
	}
	return nil
}

// GetParticipantsByIDs silently skips unknown ids; callers compare lengths.
func (r *ParticipantRepository) GetParticipantsByIDs(ctx context.Context, ids []int64) ([]*model.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = ANY($1) ORDER BY id`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get participants by ids: %w", err)
	}
	return scanParticipants(rows)
}

// ListParticipants returns every participant ordered by id.
func (r *ParticipantRepository) ListParticipants(ctx context.Context) ([]*model.Participant, error) {
	rows, err := r.db.Query(ctx, `SELECT `+participantColumns+` FROM participants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return scanParticipants(rows)
}

func (r *ParticipantRepository) ListInterviewParticipants(ctx context.Context, interviewID int64) ([]*model.Participant, error) {
	query := `
		SELECT p.id, p.name, p.email, p.role, p.chat_handle, p.created_at
		FROM participants p
		JOIN interview_participants ip ON ip.participant_id = p.id
		WHERE ip.interview_id = $1
		ORDER BY p.id
	`

	rows, err := r.db.Query(ctx, query, interviewID)
	if err != nil {
		return nil, fmt.Errorf("list interview participants: %w", err)
	}
	return scanParticipants(rows)
}

// HasAnyParticipant checks for the first participant row only.
func (r *ParticipantRepository) HasAnyParticipant(ctx context.Context) (bool, error) {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT id FROM participants ORDER BY id LIMIT 1`).Scan(&id)
	if err != nil {
		if base.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check participants: %w", err)
	}
	return true, nil
}
