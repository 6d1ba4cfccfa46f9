package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/interview_autopilot/internal/metrics"
	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/store"
)

type TickReport struct {
	Reminders        int
	FeedbackRequests int
	Consolidations   int
	Failures         int
}

type OrchestratorConfig struct {
	ReminderLead         time.Duration
	FeedbackRequestDelay time.Duration
}

// Orchestrator performs one polling pass over all interviews. The three
// scans are independent and every interview is processed in isolation, so
// one failure never stops the rest of the tick.
type Orchestrator struct {
	store     store.Store
	lifecycle *LifecycleService
	feedback  *FeedbackService
	cfg       OrchestratorConfig
	logger    *zap.Logger
}

func NewOrchestrator(st store.Store, lifecycle *LifecycleService, feedback *FeedbackService, cfg OrchestratorConfig, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:     st,
		lifecycle: lifecycle,
		feedback:  feedback,
		cfg:       cfg,
		logger:    logger,
	}
}

// Tick runs the reminder, feedback request and consolidation scans at now
// and reports how many transitions fired.
func (o *Orchestrator) Tick(ctx context.Context, now time.Time) TickReport {
	started := time.Now()
	defer func() { metrics.TickDuration.Observe(time.Since(started).Seconds()) }()

	var report TickReport

	o.scan(ctx, metrics.TransitionReminder, &report,
		func(tx store.Tx) ([]*model.Interview, error) {
			return tx.ListDueForReminder(ctx, now, o.cfg.ReminderLead)
		},
		func(id int64) (bool, error) {
			return o.lifecycle.SendReminder(ctx, id, now)
		},
		&report.Reminders,
	)

	o.scan(ctx, metrics.TransitionFeedbackRequest, &report,
		func(tx store.Tx) ([]*model.Interview, error) {
			return tx.ListDueForFeedbackRequest(ctx, now, o.cfg.FeedbackRequestDelay)
		},
		func(id int64) (bool, error) {
			return o.lifecycle.RequestFeedback(ctx, id, now)
		},
		&report.FeedbackRequests,
	)

	o.scan(ctx, metrics.TransitionConsolidation, &report,
		func(tx store.Tx) ([]*model.Interview, error) {
			return tx.ListDueForConsolidation(ctx)
		},
		func(id int64) (bool, error) {
			outcome, err := o.feedback.MaybeConsolidate(ctx, id, now)
			return outcome == GateConsolidated, err
		},
		&report.Consolidations,
	)

	if report.Reminders+report.FeedbackRequests+report.Consolidations+report.Failures > 0 {
		o.logger.Info("Tick processed",
			zap.Int("reminders", report.Reminders),
			zap.Int("feedback_requests", report.FeedbackRequests),
			zap.Int("consolidations", report.Consolidations),
			zap.Int("failures", report.Failures),
		)
	}
	return report
}

func (o *Orchestrator) scan(
	ctx context.Context,
	transition string,
	report *TickReport,
	list func(tx store.Tx) ([]*model.Interview, error),
	apply func(id int64) (bool, error),
	counter *int,
) {
	var due []*model.Interview
	err := o.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		due, err = list(tx)
		return err
	})
	if err != nil {
		report.Failures++
		metrics.LifecycleFailures.WithLabelValues(transition).Inc()
		o.logger.Error("Scan failed", zap.String("transition", transition), zap.Error(fmt.Errorf("list due interviews: %w", err)))
		return
	}

	for _, iv := range due {
		if ctx.Err() != nil {
			return
		}
		fired, err := apply(iv.ID)
		if err != nil {
			report.Failures++
			metrics.LifecycleFailures.WithLabelValues(transition).Inc()
			o.logger.Error("Transition failed",
				zap.String("transition", transition),
				zap.Int64("interview_id", iv.ID),
				zap.Error(err),
			)
			continue
		}
		if fired {
			*counter++
		}
	}
}
