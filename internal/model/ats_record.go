package model

import "time"

type ATSStatus string

const (
	ATSStatusInterviewScheduled ATSStatus = "interview_scheduled"
	ATSStatusInterviewCompleted ATSStatus = "interview_completed"
	ATSStatusFeedbackReceived   ATSStatus = "feedback_received"
)

func (s ATSStatus) Label() string {
	switch s {
	case ATSStatusInterviewScheduled:
		return "Interview Scheduled"
	case ATSStatusInterviewCompleted:
		return "Interview Completed"
	case ATSStatusFeedbackReceived:
		return "Feedback Received"
	}
	return string(s)
}

type Recommendation string

const (
	RecommendationHire             Recommendation = "hire"
	RecommendationNoHire           Recommendation = "no_hire"
	RecommendationMixed            Recommendation = "mixed"
	RecommendationInsufficientData Recommendation = "insufficient_data"
)

func (r Recommendation) IsValid() bool {
	switch r {
	case RecommendationHire, RecommendationNoHire, RecommendationMixed, RecommendationInsufficientData:
		return true
	}
	return false
}

func (r Recommendation) Label() string {
	switch r {
	case RecommendationHire:
		return "Hire"
	case RecommendationNoHire:
		return "No Hire"
	case RecommendationMixed:
		return "Mixed / Need debrief"
	case RecommendationInsufficientData:
		return "Insufficient data"
	}
	return string(r)
}

// ATSRecord mirrors the applicant tracking system; exactly one per interview.
type ATSRecord struct {
	ID             int64           `json:"id"`
	InterviewID    int64           `json:"interview_id"`
	CandidateID    int64           `json:"candidate_id"`
	Status         ATSStatus       `json:"status"`
	Recommendation *Recommendation `json:"recommendation"`
	Summary        string          `json:"summary"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
