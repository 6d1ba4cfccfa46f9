package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/interview_autopilot/internal/metrics"
	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/notify"
	"github.com/Freeeeeet/interview_autopilot/internal/store"
	"github.com/Freeeeeet/interview_autopilot/internal/summary"
)

// GateOutcome is what one run of the consolidation gate did.
type GateOutcome string

const (
	GateNotEligible         GateOutcome = "not_eligible"
	GatePending             GateOutcome = "pending"
	GateConsolidated        GateOutcome = "consolidated"
	GateAlreadyConsolidated GateOutcome = "already_consolidated"
)

type FeedbackConfig struct {
	BaseURL  string
	Location *time.Location
	// ConsolidationDelay holds consolidation back for this long after
	// feedback was requested. Zero consolidates as soon as the panel is
	// complete.
	ConsolidationDelay time.Duration
}

type FeedbackService struct {
	store         store.Store
	codec         TokenCodec
	summarizer    summary.Summarizer
	notifications *notifications
	cfg           FeedbackConfig
	logger        *zap.Logger
	now           func() time.Time
}

func NewFeedbackService(
	st store.Store,
	codec TokenCodec,
	summarizer summary.Summarizer,
	notifier notify.Notifier,
	cfg FeedbackConfig,
	logger *zap.Logger,
) *FeedbackService {
	return &FeedbackService{
		store:         st,
		codec:         codec,
		summarizer:    summarizer,
		notifications: newNotifications(notifier, cfg.BaseURL, cfg.Location, logger),
		cfg:           cfg,
		logger:        logger,
		now:           time.Now,
	}
}

type SubmitFeedbackInput struct {
	Token    string
	Decision model.FeedbackDecision
	Comment  string
}

// SubmitFeedback stores (or overwrites) the participant's feedback and then
// gives the consolidation gate a chance to run.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, in SubmitFeedbackInput) (*model.Feedback, error) {
	interviewID, participantID, err := s.codec.Verify(in.Token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	now := s.now()
	fb := &model.Feedback{
		InterviewID:   interviewID,
		ParticipantID: participantID,
		Decision:      in.Decision,
		Comment:       in.Comment,
		SubmittedAt:   now,
	}

	err = s.store.InTx(ctx, func(tx store.Tx) error {
		iv, err := tx.GetInterview(ctx, interviewID)
		if err != nil {
			return fmt.Errorf("get interview: %w", err)
		}
		if iv == nil {
			return ErrInterviewNotFound
		}
		if !in.Decision.IsValid() {
			return ErrInvalidDecision
		}

		panel, err := tx.ListInterviewParticipants(ctx, interviewID)
		if err != nil {
			return fmt.Errorf("list interview participants: %w", err)
		}
		if !containsParticipant(panel, participantID) {
			s.logger.Warn("Feedback from outside the interview panel",
				zap.Int64("interview_id", interviewID),
				zap.Int64("participant_id", participantID),
			)
		}

		return tx.UpsertFeedback(ctx, fb)
	})
	if err != nil {
		if errors.Is(err, store.ErrForeignKey) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	s.logger.Info("Feedback submitted",
		zap.Int64("interview_id", interviewID),
		zap.Int64("participant_id", participantID),
		zap.String("decision", string(in.Decision)),
	)

	if _, err := s.MaybeConsolidate(ctx, interviewID, now); err != nil {
		s.logger.Error("Consolidation after feedback failed", zap.Int64("interview_id", interviewID), zap.Error(err))
	}
	return fb, nil
}

func containsParticipant(panel []*model.Participant, id int64) bool {
	for _, p := range panel {
		if p.ID == id {
			return true
		}
	}
	return false
}

// MaybeConsolidate summarizes the panel's feedback once every participant
// has submitted. It applies at most once per interview.
//
// The summarizer runs between two short transactions: the first decides
// eligibility and snapshots the feedback, the second commits through the
// write-once consolidation marker. Concurrent gates may both summarize; only
// one of them commits.
func (s *FeedbackService) MaybeConsolidate(ctx context.Context, interviewID int64, now time.Time) (GateOutcome, error) {
	var (
		outcome   GateOutcome
		iv        *model.Interview
		candidate *model.Candidate
		feedback  []*model.Feedback
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

		if iv.ConsolidatedAt != nil {
			outcome = GateAlreadyConsolidated
			return nil
		}
		if !iv.IsConsolidationCandidate() {
			outcome = GateNotEligible
			return nil
		}
		if s.cfg.ConsolidationDelay > 0 && iv.FeedbackRequestedAt != nil &&
			now.Before(iv.FeedbackRequestedAt.Add(s.cfg.ConsolidationDelay)) {
			outcome = GatePending
			return nil
		}

		feedback, err = tx.ListFeedback(ctx, iv.ID)
		if err != nil {
			return fmt.Errorf("list feedback: %w", err)
		}
		if !panelComplete(participants, feedback) {
			outcome = GatePending
			return nil
		}

		ats, err := tx.GetATSRecord(ctx, iv.ID)
		if err != nil {
			return fmt.Errorf("get ats record: %w", err)
		}
		if ats == nil {
			return &IntegrityError{Entity: "interview", ID: iv.ID, Reason: "ats record is missing"}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if outcome != "" {
		return outcome, nil
	}

	result := s.summarize(ctx, iv, summary.Request{
		CandidateName: candidate.Name,
		JobTitle:      iv.JobTitle,
		Items:         summaryItems(feedback),
	})

	outcome, err = s.commitConsolidation(ctx, iv.ID, result, now)
	if err != nil || outcome != GateConsolidated {
		return outcome, err
	}

	metrics.LifecycleTransitions.WithLabelValues(metrics.TransitionConsolidation).Inc()
	s.logger.Info("Feedback consolidated",
		zap.Int64("interview_id", iv.ID),
		zap.String("recommendation", string(result.Recommendation)),
	)

	s.notifications.reportReady(ctx, iv, candidate, result)
	return outcome, nil
}

// commitConsolidation sets the consolidation marker and writes the result to
// the ATS record in one transaction. Losing the marker race leaves the ATS
// record untouched.
func (s *FeedbackService) commitConsolidation(ctx context.Context, interviewID int64, result *summary.Result, now time.Time) (GateOutcome, error) {
	outcome := GateAlreadyConsolidated
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		applied, err := tx.MarkConsolidated(ctx, interviewID, now)
		if err != nil {
			return err
		}
		if !applied {
			return nil
		}

		ats, err := tx.GetATSRecord(ctx, interviewID)
		if err != nil {
			return fmt.Errorf("get ats record: %w", err)
		}
		if ats == nil {
			return &IntegrityError{Entity: "interview", ID: interviewID, Reason: "ats record is missing"}
		}

		recommendation := result.Recommendation
		ats.Status = model.ATSStatusFeedbackReceived
		ats.Recommendation = &recommendation
		ats.Summary = result.Narrative
		if err := tx.UpdateATSRecord(ctx, ats); err != nil {
			return err
		}

		outcome = GateConsolidated
		return nil
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// panelComplete reports whether every participant has at least one
// submission. Submissions from outside the panel do not count.
func panelComplete(panel []*model.Participant, feedback []*model.Feedback) bool {
	received := make(map[int64]bool, len(feedback))
	for _, f := range feedback {
		received[f.ParticipantID] = true
	}
	for _, p := range panel {
		if !received[p.ID] {
			return false
		}
	}
	return true
}

func summaryItems(feedback []*model.Feedback) []summary.Item {
	items := make([]summary.Item, 0, len(feedback))
	for _, f := range feedback {
		name := f.ParticipantName
		if name == "" {
			name = fmt.Sprintf("Participant %d", f.ParticipantID)
		}
		items = append(items, summary.Item{ParticipantName: name, Decision: f.Decision, Comment: f.Comment})
	}
	return items
}

// summarize never fails: any summarizer error or unusable answer falls back
// to the rule-based policy.
func (s *FeedbackService) summarize(ctx context.Context, iv *model.Interview, req summary.Request) *summary.Result {
	res, err := s.summarizer.Summarize(ctx, req)
	if err == nil && res != nil && res.Recommendation.IsValid() {
		return res
	}
	if err == nil {
		err = errors.New("summarizer returned no usable recommendation")
	}

	metrics.SummarizerFallbacks.Inc()
	s.logger.Warn("Summarizer failed, using rule-based summary", zap.Int64("interview_id", iv.ID), zap.Error(err))
	return summary.Summarize(req.Items)
}

type InterviewReport struct {
	Interview    *model.Interview     `json:"interview"`
	Candidate    *model.Candidate     `json:"candidate"`
	Participants []*model.Participant `json:"participants"`
	Feedback     []*model.Feedback    `json:"feedback"`
	ATS          *model.ATSRecord     `json:"ats"`
}

// GetReport returns the interview with its panel, feedback and ATS record.
// A missing ATS record is an integrity error.
func (s *FeedbackService) GetReport(ctx context.Context, interviewID int64) (*InterviewReport, error) {
	report := &InterviewReport{}
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		report.Interview, report.Candidate, report.Participants, err = interviewContext(ctx, tx, interviewID)
		if err != nil {
			return err
		}
		report.ATS, err = tx.GetATSRecord(ctx, interviewID)
		if err != nil {
			return fmt.Errorf("get ats record: %w", err)
		}
		if report.ATS == nil {
			return &IntegrityError{Entity: "interview", ID: interviewID, Reason: "ats record is missing"}
		}
		report.Feedback, err = tx.ListFeedback(ctx, interviewID)
		if err != nil {
			return fmt.Errorf("list feedback: %w", err)
		}
		return nil
	})
	if err != nil {
		if IsIntegrityError(err) {
			s.logger.Error("Data integrity violation", zap.Int64("interview_id", interviewID), zap.Error(err))
		}
		return nil, err
	}
	return report, nil
}
