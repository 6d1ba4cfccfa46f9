package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/interview_autopilot/internal/metrics"
	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/notify"
	"github.com/Freeeeeet/interview_autopilot/internal/summary"
)

// notifications renders and dispatches every outbound message. Delivery is
// best-effort: failures are logged and counted, never returned.
type notifications struct {
	notifier notify.Notifier
	baseURL  string
	location *time.Location
	logger   *zap.Logger
}

func newNotifications(notifier notify.Notifier, baseURL string, location *time.Location, logger *zap.Logger) *notifications {
	if location == nil {
		location = time.UTC
	}
	return &notifications{
		notifier: notifier,
		baseURL:  strings.TrimRight(baseURL, "/"),
		location: location,
		logger:   logger,
	}
}

func (n *notifications) message(ctx context.Context, to, subject, body string) {
	if err := n.notifier.SendMessage(ctx, to, subject, body); err != nil {
		metrics.NotificationFailures.WithLabelValues(metrics.ChannelMessage).Inc()
		n.logger.Warn("Failed to send message", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
	}
}

func (n *notifications) broadcast(ctx context.Context, text string) {
	if err := n.notifier.SendBroadcast(ctx, text); err != nil {
		metrics.NotificationFailures.WithLabelValues(metrics.ChannelBroadcast).Inc()
		n.logger.Warn("Failed to send broadcast", zap.Error(err))
	}
}

func (n *notifications) when(iv *model.Interview) string {
	start := iv.StartsAt.In(n.location)
	end := iv.EndsAt.In(n.location)
	return fmt.Sprintf("%s-%s (%s)", start.Format("2006-01-02 15:04"), end.Format("15:04"), n.location)
}

func (n *notifications) feedbackURL(token string) string {
	return n.baseURL + "/f/" + token
}

func (n *notifications) reportURL(interviewID int64) string {
	return fmt.Sprintf("%s/reports/%d", n.baseURL, interviewID)
}

func (n *notifications) interviewScheduled(ctx context.Context, b *booking) {
	when := n.when(b.interview)
	subject := fmt.Sprintf("Interview scheduled: %s - %s", b.candidate.Name, b.interview.JobTitle)
	body := fmt.Sprintf("Candidate: %s\nJob: %s\nWhen: %s\nLink: %s\nATS: %s\n\nResume (short):\n%s\n",
		b.candidate.Name, b.interview.JobTitle, when, b.interview.MeetingLink,
		model.ATSStatusInterviewScheduled.Label(), b.candidate.ResumeText)

	n.message(ctx, b.candidate.Email, subject, body)
	for _, p := range b.participants {
		n.message(ctx, p.Email, subject, body)
	}
	n.broadcast(ctx, fmt.Sprintf("Interview scheduled: %s - %s, %s. Link: %s",
		b.candidate.Name, b.interview.JobTitle, when, b.interview.MeetingLink))
}

func (n *notifications) reminder(ctx context.Context, iv *model.Interview, candidate *model.Candidate, participants []*model.Participant) {
	when := n.when(iv)
	body := fmt.Sprintf("Candidate: %s\nJob: %s\nWhen: %s\nLink: %s\nResume:\n%s",
		candidate.Name, iv.JobTitle, when, iv.MeetingLink, candidate.ResumeText)

	for _, p := range participants {
		n.message(ctx, p.Email, "Reminder: "+candidate.Name, body)
	}
	n.broadcast(ctx, fmt.Sprintf("Reminder: %s @ %s -> %s", candidate.Name, when, iv.MeetingLink))
}

type feedbackLink struct {
	participant *model.Participant
	token       string
}

func (n *notifications) feedbackRequested(ctx context.Context, iv *model.Interview, candidate *model.Candidate, links []feedbackLink) {
	subject := fmt.Sprintf("Feedback requested: %s - %s", candidate.Name, iv.JobTitle)
	for _, l := range links {
		url := n.feedbackURL(l.token)
		body := fmt.Sprintf("Please leave your interview feedback.\n\nCandidate: %s\nJob: %s\nFeedback form: %s\n",
			candidate.Name, iv.JobTitle, url)
		n.message(ctx, l.participant.Email, subject, body)
		n.broadcast(ctx, fmt.Sprintf("Feedback: %s -> %s", l.participant.Name, url))
	}
}

func (n *notifications) reportReady(ctx context.Context, iv *model.Interview, candidate *model.Candidate, res *summary.Result) {
	subject := fmt.Sprintf("Interview report: %s - %s", candidate.Name, iv.JobTitle)
	body := fmt.Sprintf("Report generated.\n\nCandidate: %s\nJob: %s\nATS: %s\nRecommendation: %s\n\n%s\n\nReport link: %s\n",
		candidate.Name, iv.JobTitle, model.ATSStatusFeedbackReceived.Label(), res.Recommendation.Label(),
		res.Narrative, n.reportURL(iv.ID))

	n.message(ctx, iv.RecruiterEmail, subject, body)
	n.broadcast(ctx, fmt.Sprintf("Report ready: %s - %s", candidate.Name, res.Recommendation.Label()))
}
