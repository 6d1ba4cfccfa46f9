package model

import "time"

type SchedulingRequestStatus string

const (
	RequestStatusProposed  SchedulingRequestStatus = "proposed"
	RequestStatusApproved  SchedulingRequestStatus = "approved"
	RequestStatusCancelled SchedulingRequestStatus = "cancelled"
)

// SchedulingRequest is a proposal of candidate slots awaiting recruiter approval.
type SchedulingRequest struct {
	ID               int64                   `json:"id"`
	RecruiterName    string                  `json:"recruiter_name"`
	RecruiterEmail   string                  `json:"recruiter_email"`
	CandidateID      int64                   `json:"candidate_id"`
	JobTitle         string                  `json:"job_title"`
	DurationMinutes  int                     `json:"duration_minutes"`
	Status           SchedulingRequestStatus `json:"status"`
	ApprovedOptionID *int64                  `json:"approved_option_id"`
	InterviewID      *int64                  `json:"interview_id"`
	CreatedAt        time.Time               `json:"created_at"`

	Options []*SchedulingOption `json:"options,omitempty"`
}

type SchedulingOption struct {
	ID        int64     `json:"id"`
	RequestID int64     `json:"request_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
}

func (o *SchedulingOption) Window() TimeWindow {
	return TimeWindow{Start: o.StartsAt, End: o.EndsAt}
}
