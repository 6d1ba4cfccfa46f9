package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/interview_autopilot/internal/metrics"
	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/notify"
	"github.com/Freeeeeet/interview_autopilot/internal/store"
)

type TokenCodec interface {
	Sign(interviewID, participantID int64) (string, error)
	Verify(token string) (interviewID, participantID int64, err error)
}

type LifecycleConfig struct {
	BaseURL              string
	Location             *time.Location
	ReminderLead         time.Duration
	FeedbackRequestDelay time.Duration
}

// LifecycleService runs the time-driven interview transitions. Each one
// writes its marker conditionally inside a transaction and notifies only
// after the commit, so a transition fires at most once.
type LifecycleService struct {
	store         store.Store
	codec         TokenCodec
	notifications *notifications
	cfg           LifecycleConfig
	logger        *zap.Logger
}

func NewLifecycleService(st store.Store, codec TokenCodec, notifier notify.Notifier, cfg LifecycleConfig, logger *zap.Logger) *LifecycleService {
	return &LifecycleService{
		store:         st,
		codec:         codec,
		notifications: newNotifications(notifier, cfg.BaseURL, cfg.Location, logger),
		cfg:           cfg,
		logger:        logger,
	}
}

// interviewContext loads what every lifecycle notification needs.
func interviewContext(ctx context.Context, tx store.Tx, interviewID int64) (*model.Interview, *model.Candidate, []*model.Participant, error) {
	iv, err := tx.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("get interview: %w", err)
	}
	if iv == nil {
		return nil, nil, nil, ErrInterviewNotFound
	}

	candidate, err := tx.GetCandidateByID(ctx, iv.CandidateID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("get candidate: %w", err)
	}
	if candidate == nil {
		return nil, nil, nil, &IntegrityError{Entity: "interview", ID: iv.ID, Reason: "candidate is missing"}
	}

	participants, err := tx.ListInterviewParticipants(ctx, iv.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list interview participants: %w", err)
	}
	return iv, candidate, participants, nil
}

// SendReminder reminds the panel of an upcoming interview. It reports
// whether the reminder fired on this call.
func (s *LifecycleService) SendReminder(ctx context.Context, interviewID int64, now time.Time) (bool, error) {
	var (
		iv           *model.Interview
		candidate    *model.Candidate
		participants []*model.Participant
		fired        bool
	)
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		iv, candidate, participants, err = interviewContext(ctx, tx, interviewID)
		if err != nil {
			return err
		}
		if !iv.IsReminderDue(now, s.cfg.ReminderLead) {
			return nil
		}
		fired, err = tx.MarkReminderSent(ctx, iv.ID, now)
		return err
	})
	if err != nil || !fired {
		return false, err
	}

	metrics.LifecycleTransitions.WithLabelValues(metrics.TransitionReminder).Inc()
	s.logger.Info("Reminder sent", zap.Int64("interview_id", iv.ID), zap.Int("participants", len(participants)))

	s.notifications.reminder(ctx, iv, candidate, participants)
	return true, nil
}

// RequestFeedback issues one signed feedback link per participant once the
// interview is over, moving it to feedback_requested and the ATS record to
// interview_completed.
func (s *LifecycleService) RequestFeedback(ctx context.Context, interviewID int64, now time.Time) (bool, error) {
	var (
		iv        *model.Interview
		candidate *model.Candidate
		links     []feedbackLink
		fired     bool
	)
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var (
			participants []*model.Participant
			err          error
		)
		iv, candidate, participants, err = interviewContext(ctx, tx, interviewID)
		if err != nil {
			return err
		}
		if !iv.IsFeedbackRequestDue(now, s.cfg.FeedbackRequestDelay) {
			return nil
		}

		ats, err := tx.GetATSRecord(ctx, iv.ID)
		if err != nil {
			return fmt.Errorf("get ats record: %w", err)
		}
		if ats == nil {
			return &IntegrityError{Entity: "interview", ID: iv.ID, Reason: "ats record is missing"}
		}

		links = make([]feedbackLink, 0, len(participants))
		for _, p := range participants {
			token, err := s.codec.Sign(iv.ID, p.ID)
			if err != nil {
				return err
			}
			links = append(links, feedbackLink{participant: p, token: token})
		}

		fired, err = tx.MarkFeedbackRequested(ctx, iv.ID, now)
		if err != nil || !fired {
			return err
		}

		ats.Status = model.ATSStatusInterviewCompleted
		return tx.UpdateATSRecord(ctx, ats)
	})
	if err != nil || !fired {
		return false, err
	}

	metrics.LifecycleTransitions.WithLabelValues(metrics.TransitionFeedbackRequest).Inc()
	s.logger.Info("Feedback requested", zap.Int64("interview_id", iv.ID), zap.Int("participants", len(links)))

	s.notifications.feedbackRequested(ctx, iv, candidate, links)
	return true, nil
}
