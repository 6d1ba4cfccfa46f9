package model

import "time"

type ParticipantRole string

const (
	RoleRecruiter     ParticipantRole = "recruiter"
	RoleEngineer      ParticipantRole = "engineer"
	RoleTechLead      ParticipantRole = "tech_lead"
	RoleHiringManager ParticipantRole = "hiring_manager"
)

func (r ParticipantRole) IsValid() bool {
	switch r {
	case RoleRecruiter, RoleEngineer, RoleTechLead, RoleHiringManager:
		return true
	}
	return false
}

// Participant is an internal user that can sit on an interview panel.
type Participant struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Role       ParticipantRole `json:"role"`
	ChatHandle string          `json:"chat_handle,omitempty"` // handle in the broadcast channel
	CreatedAt  time.Time       `json:"created_at"`
}
