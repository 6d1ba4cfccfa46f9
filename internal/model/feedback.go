package model

import "time"

type FeedbackDecision string

const (
	DecisionPass         FeedbackDecision = "pass"
	DecisionFail         FeedbackDecision = "fail"
	DecisionNeedMoreInfo FeedbackDecision = "need_more_info"
)

func (d FeedbackDecision) IsValid() bool {
	switch d {
	case DecisionPass, DecisionFail, DecisionNeedMoreInfo:
		return true
	}
	return false
}

// Feedback is unique per (InterviewID, ParticipantID); resubmission overwrites.
type Feedback struct {
	ID            int64            `json:"id"`
	InterviewID   int64            `json:"interview_id"`
	ParticipantID int64            `json:"participant_id"`
	Decision      FeedbackDecision `json:"decision"`
	Comment       string           `json:"comment"`
	SubmittedAt   time.Time        `json:"submitted_at"`

	ParticipantName string `json:"participant_name,omitempty"`
}
