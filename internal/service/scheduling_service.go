package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/interview_autopilot/internal/availability"
	"github.com/Freeeeeet/interview_autopilot/internal/lock"
	"github.com/Freeeeeet/interview_autopilot/internal/metrics"
	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/notify"
	"github.com/Freeeeeet/interview_autopilot/internal/store"
)

// MaxProposalOptions caps how many alternatives one proposal may carry.
const MaxProposalOptions = 5

type SchedulingConfig struct {
	BaseURL        string
	MeetingBaseURL string
	Location       *time.Location
}

// SchedulingService books interviews, either directly or through a
// proposal the recruiter approves later.
type SchedulingService struct {
	store         store.Store
	engine        *availability.Engine
	locker        lock.Locker
	notifications *notifications
	meetingBase   string
	logger        *zap.Logger
}

func NewSchedulingService(
	st store.Store,
	engine *availability.Engine,
	locker lock.Locker,
	notifier notify.Notifier,
	cfg SchedulingConfig,
	logger *zap.Logger,
) *SchedulingService {
	meetingBase := strings.TrimRight(cfg.MeetingBaseURL, "/")
	if meetingBase == "" {
		meetingBase = "https://meet.jit.si"
	}
	return &SchedulingService{
		store:         st,
		engine:        engine,
		locker:        locker,
		notifications: newNotifications(notifier, cfg.BaseURL, cfg.Location, logger),
		meetingBase:   meetingBase,
		logger:        logger,
	}
}

type StartInterviewInput struct {
	RecruiterName   string
	RecruiterEmail  string
	CandidateID     int64
	JobTitle        string
	InterviewerIDs  []int64
	Window          model.TimeWindow
	DurationMinutes int
}

type ProposeScheduleInput struct {
	RecruiterName   string
	RecruiterEmail  string
	CandidateID     int64
	JobTitle        string
	InterviewerIDs  []int64
	Window          model.TimeWindow
	DurationMinutes int
	OptionLimit     int
}

type ApproveScheduleInput struct {
	RequestID      int64
	OptionID       int64
	InterviewerIDs []int64
}

// booking is everything a freshly materialized interview needs for its
// notifications.
type booking struct {
	interview    *model.Interview
	candidate    *model.Candidate
	participants []*model.Participant
}

func validateSearch(window model.TimeWindow, durationMinutes int) error {
	if durationMinutes <= 0 {
		return ErrInvalidDuration
	}
	if !window.IsValid() {
		return ErrInvalidWindow
	}
	return nil
}

// loadPanel resolves the candidate and the interviewer list in the order
// callers see the errors: candidate, empty list, duplicates, unknown ids.
func loadPanel(ctx context.Context, tx store.Tx, candidateID int64, interviewerIDs []int64) (*model.Candidate, []*model.Participant, error) {
	candidate, err := tx.GetCandidateByID(ctx, candidateID)
	if err != nil {
		return nil, nil, fmt.Errorf("get candidate: %w", err)
	}
	if candidate == nil {
		return nil, nil, ErrCandidateNotFound
	}

	participants, err := loadInterviewers(ctx, tx, interviewerIDs)
	if err != nil {
		return nil, nil, err
	}
	return candidate, participants, nil
}

func loadInterviewers(ctx context.Context, tx store.Tx, ids []int64) ([]*model.Participant, error) {
	if len(ids) == 0 {
		return nil, ErrNoInterviewers
	}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateInterviewer, id)
		}
		seen[id] = true
	}

	participants, err := tx.GetParticipantsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get participants: %w", err)
	}
	if len(participants) != len(ids) {
		return nil, ErrInterviewerNotFound
	}
	return participants, nil
}

// StartInterview books the earliest common slot in the window directly.
func (s *SchedulingService) StartInterview(ctx context.Context, in StartInterviewInput) (*model.Interview, error) {
	if err := validateSearch(in.Window, in.DurationMinutes); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lock.ParticipantKeys(in.InterviewerIDs)...)
	if err != nil {
		return nil, fmt.Errorf("lock participants: %w", err)
	}
	defer unlock()

	var b *booking
	err = s.store.InTx(ctx, func(tx store.Tx) error {
		candidate, participants, err := loadPanel(ctx, tx, in.CandidateID, in.InterviewerIDs)
		if err != nil {
			return err
		}
		if err := tx.LockParticipants(ctx, in.InterviewerIDs); err != nil {
			return err
		}

		duration := time.Duration(in.DurationMinutes) * time.Minute
		slot, err := s.engine.FindCommonSlot(ctx, tx, in.InterviewerIDs, in.Window, duration)
		if err != nil {
			return fmt.Errorf("find common slot: %w", err)
		}
		if slot == nil {
			return ErrNoCommonSlot
		}

		b, err = s.materialize(ctx, tx, materializeInput{
			candidate:      candidate,
			participants:   participants,
			slot:           *slot,
			jobTitle:       in.JobTitle,
			recruiterName:  in.RecruiterName,
			recruiterEmail: in.RecruiterEmail,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.InterviewsBooked.WithLabelValues(metrics.SourceDirect).Inc()
	s.logger.Info("Interview booked",
		zap.Int64("interview_id", b.interview.ID),
		zap.Int64("candidate_id", b.candidate.ID),
		zap.Time("starts_at", b.interview.StartsAt),
	)

	s.notifications.interviewScheduled(ctx, b)
	return b.interview, nil
}

type materializeInput struct {
	candidate      *model.Candidate
	participants   []*model.Participant
	slot           model.Slot
	jobTitle       string
	recruiterName  string
	recruiterEmail string
}

// materialize writes the interview, its panel, the ATS record and one
// calendar block per participant. The caller's transaction holds the
// participant locks.
func (s *SchedulingService) materialize(ctx context.Context, tx store.Tx, in materializeInput) (*booking, error) {
	interview := &model.Interview{
		CandidateID:    in.candidate.ID,
		JobTitle:       in.jobTitle,
		RecruiterName:  in.recruiterName,
		RecruiterEmail: in.recruiterEmail,
		StartsAt:       in.slot.Start,
		EndsAt:         in.slot.End,
		Status:         model.InterviewStatusScheduled,
	}
	if err := tx.CreateInterview(ctx, interview); err != nil {
		return nil, err
	}

	interview.MeetingLink = s.meetingLink(interview.ID)
	if err := tx.SetMeetingLink(ctx, interview.ID, interview.MeetingLink); err != nil {
		return nil, err
	}

	for _, p := range in.participants {
		if err := tx.AddInterviewParticipant(ctx, interview.ID, p.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.CreateATSRecord(ctx, &model.ATSRecord{
		InterviewID: interview.ID,
		CandidateID: in.candidate.ID,
		Status:      model.ATSStatusInterviewScheduled,
	}); err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Interview: %s (%s)", in.candidate.Name, in.jobTitle)
	for _, p := range in.participants {
		if err := tx.CreateBlock(ctx, &model.CalendarBlock{
			ParticipantID: p.ID,
			StartsAt:      in.slot.Start,
			EndsAt:        in.slot.End,
			Title:         title,
		}); err != nil {
			return nil, err
		}
	}

	return &booking{interview: interview, candidate: in.candidate, participants: in.participants}, nil
}

func (s *SchedulingService) meetingLink(interviewID int64) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/interview-%d-%s", s.meetingBase, interviewID, suffix)
}

// ProposeSchedule stores up to OptionLimit free slots for later approval.
func (s *SchedulingService) ProposeSchedule(ctx context.Context, in ProposeScheduleInput) (*model.SchedulingRequest, error) {
	if err := validateSearch(in.Window, in.DurationMinutes); err != nil {
		return nil, err
	}
	if in.OptionLimit < 1 || in.OptionLimit > MaxProposalOptions {
		return nil, ErrInvalidOptionLimit
	}

	var req *model.SchedulingRequest
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		if _, _, err := loadPanel(ctx, tx, in.CandidateID, in.InterviewerIDs); err != nil {
			return err
		}

		duration := time.Duration(in.DurationMinutes) * time.Minute
		slots, err := s.engine.FindCommonSlots(ctx, tx, in.InterviewerIDs, in.Window, duration, in.OptionLimit)
		if err != nil {
			return fmt.Errorf("find common slots: %w", err)
		}
		if len(slots) == 0 {
			return ErrNoCommonSlot
		}

		req = &model.SchedulingRequest{
			RecruiterName:   in.RecruiterName,
			RecruiterEmail:  in.RecruiterEmail,
			CandidateID:     in.CandidateID,
			JobTitle:        in.JobTitle,
			DurationMinutes: in.DurationMinutes,
			Status:          model.RequestStatusProposed,
		}
		if err := tx.CreateSchedulingRequest(ctx, req); err != nil {
			return err
		}

		for _, slot := range slots {
			option := &model.SchedulingOption{RequestID: req.ID, StartsAt: slot.Start, EndsAt: slot.End}
			if err := tx.CreateSchedulingOption(ctx, option); err != nil {
				return err
			}
			req.Options = append(req.Options, option)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Schedule proposed",
		zap.Int64("request_id", req.ID),
		zap.Int64("candidate_id", req.CandidateID),
		zap.Int("options", len(req.Options)),
	)
	return req, nil
}

// ApproveSchedule books the chosen option and closes the request. The
// option's interval is re-checked under the participant locks because
// calendars may have changed since the proposal.
func (s *SchedulingService) ApproveSchedule(ctx context.Context, in ApproveScheduleInput) (*model.Interview, error) {
	unlock, err := s.locker.Lock(ctx, lock.ParticipantKeys(in.InterviewerIDs)...)
	if err != nil {
		return nil, fmt.Errorf("lock participants: %w", err)
	}
	defer unlock()

	var b *booking
	err = s.store.InTx(ctx, func(tx store.Tx) error {
		req, err := tx.GetSchedulingRequest(ctx, in.RequestID)
		if err != nil {
			return fmt.Errorf("get scheduling request: %w", err)
		}
		if req == nil {
			return ErrRequestNotFound
		}
		if req.Status != model.RequestStatusProposed {
			return ErrRequestNotProposed
		}

		option, err := tx.GetSchedulingOption(ctx, in.OptionID)
		if err != nil {
			return fmt.Errorf("get scheduling option: %w", err)
		}
		if option == nil || option.RequestID != req.ID {
			return ErrOptionNotFound
		}

		candidate, err := tx.GetCandidateByID(ctx, req.CandidateID)
		if err != nil {
			return fmt.Errorf("get candidate: %w", err)
		}
		if candidate == nil {
			return &IntegrityError{Entity: "scheduling_request", ID: req.ID, Reason: "candidate is missing"}
		}

		participants, err := loadInterviewers(ctx, tx, in.InterviewerIDs)
		if err != nil {
			return err
		}
		if err := tx.LockParticipants(ctx, in.InterviewerIDs); err != nil {
			return err
		}

		free, err := s.engine.IsFree(ctx, tx, in.InterviewerIDs, option.StartsAt, option.EndsAt)
		if err != nil {
			return fmt.Errorf("check option availability: %w", err)
		}
		if !free {
			return ErrSlotUnavailable
		}

		b, err = s.materialize(ctx, tx, materializeInput{
			candidate:      candidate,
			participants:   participants,
			slot:           option.Window(),
			jobTitle:       req.JobTitle,
			recruiterName:  req.RecruiterName,
			recruiterEmail: req.RecruiterEmail,
		})
		if err != nil {
			return err
		}

		req.Status = model.RequestStatusApproved
		req.ApprovedOptionID = &option.ID
		req.InterviewID = &b.interview.ID
		return tx.UpdateSchedulingRequest(ctx, req)
	})
	if err != nil {
		if IsIntegrityError(err) {
			s.logger.Error("Data integrity violation", zap.Int64("request_id", in.RequestID), zap.Error(err))
		}
		return nil, err
	}

	metrics.InterviewsBooked.WithLabelValues(metrics.SourceApproval).Inc()
	s.logger.Info("Schedule approved",
		zap.Int64("request_id", in.RequestID),
		zap.Int64("option_id", in.OptionID),
		zap.Int64("interview_id", b.interview.ID),
	)

	s.notifications.interviewScheduled(ctx, b)
	return b.interview, nil
}

// CancelProposal withdraws a proposal that has not been approved yet.
func (s *SchedulingService) CancelProposal(ctx context.Context, requestID int64) error {
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		req, err := tx.GetSchedulingRequest(ctx, requestID)
		if err != nil {
			return fmt.Errorf("get scheduling request: %w", err)
		}
		if req == nil {
			return ErrRequestNotFound
		}
		if req.Status != model.RequestStatusProposed {
			return ErrRequestNotProposed
		}
		req.Status = model.RequestStatusCancelled
		return tx.UpdateSchedulingRequest(ctx, req)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Proposal cancelled", zap.Int64("request_id", requestID))
	return nil
}

// GetProposal returns the request with its options in start order. An
// option that points at another request is reported as an IntegrityError.
func (s *SchedulingService) GetProposal(ctx context.Context, requestID int64) (*model.SchedulingRequest, error) {
	var req *model.SchedulingRequest
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		req, err = tx.GetSchedulingRequest(ctx, requestID)
		if err != nil {
			return fmt.Errorf("get scheduling request: %w", err)
		}
		if req == nil {
			return ErrRequestNotFound
		}
		req.Options, err = tx.ListSchedulingOptions(ctx, requestID)
		if err != nil {
			return fmt.Errorf("list scheduling options: %w", err)
		}
		for _, o := range req.Options {
			if o.RequestID != req.ID {
				return &IntegrityError{Entity: "scheduling_option", ID: o.ID, Reason: "request is missing"}
			}
		}
		return nil
	})
	if err != nil {
		if IsIntegrityError(err) {
			s.logger.Error("Data integrity violation", zap.Int64("request_id", requestID), zap.Error(err))
		}
		return nil, err
	}
	return req, nil
}

type InterviewDetails struct {
	Interview    *model.Interview     `json:"interview"`
	Candidate    *model.Candidate     `json:"candidate"`
	Participants []*model.Participant `json:"participants"`
}

// GetInterview returns ErrInterviewNotFound for an unknown id.
func (s *SchedulingService) GetInterview(ctx context.Context, interviewID int64) (*InterviewDetails, error) {
	details := &InterviewDetails{}
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		details.Interview, details.Candidate, details.Participants, err = interviewContext(ctx, tx, interviewID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

// ListParticipants returns everyone who can sit on a panel, ordered by id.
func (s *SchedulingService) ListParticipants(ctx context.Context) ([]*model.Participant, error) {
	var participants []*model.Participant
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		participants, err = tx.ListParticipants(ctx)
		if err != nil {
			return fmt.Errorf("list participants: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func (s *SchedulingService) ListCandidates(ctx context.Context) ([]*model.Candidate, error) {
	var candidates []*model.Candidate
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		candidates, err = tx.ListCandidates(ctx)
		if err != nil {
			return fmt.Errorf("list candidates: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}
