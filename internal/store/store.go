// Package store defines the persistence contract used by the services.
//
// Every service operation runs inside a single Store.InTx call; reads,
// writes and marker updates of one operation commit or roll back together.
// Lookups that find nothing return (nil, nil).
package store

import (
	"context"
	"time"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
)

type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

type Tx interface {
	ParticipantStore
	CandidateStore
	CalendarStore
	SchedulingStore
	InterviewStore
	FeedbackStore
	ATSStore
}

type ParticipantStore interface {
	CreateParticipant(ctx context.Context, p *model.Participant) error
	// GetParticipantsByIDs returns the participants that exist, ordered by id.
	GetParticipantsByIDs(ctx context.Context, ids []int64) ([]*model.Participant, error)
	ListParticipants(ctx context.Context) ([]*model.Participant, error)
	ListInterviewParticipants(ctx context.Context, interviewID int64) ([]*model.Participant, error)
	HasAnyParticipant(ctx context.Context) (bool, error)
}

type CandidateStore interface {
	CreateCandidate(ctx context.Context, c *model.Candidate) error
	GetCandidateByID(ctx context.Context, id int64) (*model.Candidate, error)
	ListCandidates(ctx context.Context) ([]*model.Candidate, error)
}

type CalendarStore interface {
	CreateBlock(ctx context.Context, b *model.CalendarBlock) error
	// HasOverlappingBlock reports whether any block of the participant
	// satisfies block.start < end && block.end > start.
	HasOverlappingBlock(ctx context.Context, participantID int64, start, end time.Time) (bool, error)
	ListBlocks(ctx context.Context, participantID int64, window model.TimeWindow) ([]*model.CalendarBlock, error)
	// LockParticipants serialises bookings touching any of the given
	// participants until the surrounding transaction ends.
	LockParticipants(ctx context.Context, ids []int64) error
}

type SchedulingStore interface {
	CreateSchedulingRequest(ctx context.Context, r *model.SchedulingRequest) error
	CreateSchedulingOption(ctx context.Context, o *model.SchedulingOption) error
	GetSchedulingRequest(ctx context.Context, id int64) (*model.SchedulingRequest, error)
	GetSchedulingOption(ctx context.Context, id int64) (*model.SchedulingOption, error)
	ListSchedulingOptions(ctx context.Context, requestID int64) ([]*model.SchedulingOption, error)
	UpdateSchedulingRequest(ctx context.Context, r *model.SchedulingRequest) error
}

type InterviewStore interface {
	CreateInterview(ctx context.Context, i *model.Interview) error
	SetMeetingLink(ctx context.Context, interviewID int64, link string) error
	GetInterview(ctx context.Context, id int64) (*model.Interview, error)
	AddInterviewParticipant(ctx context.Context, interviewID, participantID int64) error

	ListDueForReminder(ctx context.Context, now time.Time, lead time.Duration) ([]*model.Interview, error)
	ListDueForFeedbackRequest(ctx context.Context, now time.Time, delay time.Duration) ([]*model.Interview, error)
	ListDueForConsolidation(ctx context.Context) ([]*model.Interview, error)

	// Mark* set a write-once marker; they report false when it was already set.
	// MarkFeedbackRequested also refuses a consolidated interview.
	MarkReminderSent(ctx context.Context, interviewID int64, at time.Time) (bool, error)
	MarkFeedbackRequested(ctx context.Context, interviewID int64, at time.Time) (bool, error)
	MarkConsolidated(ctx context.Context, interviewID int64, at time.Time) (bool, error)
}

type FeedbackStore interface {
	UpsertFeedback(ctx context.Context, f *model.Feedback) error
	ListFeedback(ctx context.Context, interviewID int64) ([]*model.Feedback, error)
}

type ATSStore interface {
	CreateATSRecord(ctx context.Context, r *model.ATSRecord) error
	GetATSRecord(ctx context.Context, interviewID int64) (*model.ATSRecord, error)
	UpdateATSRecord(ctx context.Context, r *model.ATSRecord) error
}
