package model

import "time"

type InterviewStatus string

const (
	InterviewStatusScheduled         InterviewStatus = "scheduled"
	InterviewStatusCompleted         InterviewStatus = "completed" // recognised, never produced
	InterviewStatusFeedbackRequested InterviewStatus = "feedback_requested"
	InterviewStatusFeedbackReceived  InterviewStatus = "feedback_received"
)

type Interview struct {
	ID                  int64           `json:"id"`
	CandidateID         int64           `json:"candidate_id"`
	JobTitle            string          `json:"job_title"`
	RecruiterName       string          `json:"recruiter_name"`
	RecruiterEmail      string          `json:"recruiter_email"`
	StartsAt            time.Time       `json:"starts_at"`
	EndsAt              time.Time       `json:"ends_at"`
	MeetingLink         string          `json:"meeting_link"`
	Status              InterviewStatus `json:"status"`
	ReminderSentAt      *time.Time      `json:"reminder_sent_at"`
	FeedbackRequestedAt *time.Time      `json:"feedback_requested_at"`
	ConsolidatedAt      *time.Time      `json:"consolidated_at"`
	CreatedAt           time.Time       `json:"created_at"`
}

// IsConsolidationCandidate reports whether the consolidation gate may run.
func (i *Interview) IsConsolidationCandidate() bool {
	if i.ConsolidatedAt != nil {
		return false
	}
	return i.Status == InterviewStatusFeedbackRequested || i.Status == InterviewStatusCompleted
}

// IsReminderDue reports whether a reminder should fire at now.
func (i *Interview) IsReminderDue(now time.Time, lead time.Duration) bool {
	if i.Status != InterviewStatusScheduled || i.ReminderSentAt != nil {
		return false
	}
	return i.StartsAt.After(now) && !i.StartsAt.After(now.Add(lead))
}

// IsFeedbackRequestDue reports whether feedback should be requested at now.
// A consolidated interview is never pulled back into the feedback flow.
func (i *Interview) IsFeedbackRequestDue(now time.Time, delay time.Duration) bool {
	if i.FeedbackRequestedAt != nil || i.ConsolidatedAt != nil || i.Status == InterviewStatusFeedbackReceived {
		return false
	}
	return !i.EndsAt.After(now.Add(-delay))
}

func (i *Interview) Window() TimeWindow {
	return TimeWindow{Start: i.StartsAt, End: i.EndsAt}
}
