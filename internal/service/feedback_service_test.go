package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/summary"
)

func TestConsolidationGateWaitsForWholePanel(t *testing.T) {
	f := newFixture(t, 2)
	iv := f.book(2*time.Hour, 2)

	outcome, err := f.feedback.MaybeConsolidate(f.ctx, iv.ID, iv.EndsAt)
	require.NoError(t, err)
	assert.Equal(t, GateNotEligible, outcome, "feedback not requested yet")

	f.requestFeedback(iv)
	f.clock = iv.EndsAt.Add(10 * time.Minute)

	f.submit(iv, f.panel[0], model.DecisionPass, "Strong system design")
	outcome, err = f.feedback.MaybeConsolidate(f.ctx, iv.ID, f.clock)
	require.NoError(t, err)
	assert.Equal(t, GatePending, outcome)
	assert.Equal(t, model.ATSStatusInterviewCompleted, f.ats(iv.ID).Status)
	assert.Nil(t, f.interview(iv.ID).ConsolidatedAt)

	f.submit(iv, f.panel[1], model.DecisionPass, "Clean code")

	stored := f.interview(iv.ID)
	assert.Equal(t, model.InterviewStatusFeedbackReceived, stored.Status)
	require.NotNil(t, stored.ConsolidatedAt)
	assert.True(t, stored.ConsolidatedAt.Equal(f.clock))

	ats := f.ats(iv.ID)
	assert.Equal(t, model.ATSStatusFeedbackReceived, ats.Status)
	require.NotNil(t, ats.Recommendation)
	assert.Equal(t, model.RecommendationHire, *ats.Recommendation)
	assert.Contains(t, ats.Summary, "Pass: 2, Fail: 0, Need more info: 0")
	assert.Contains(t, ats.Summary, "Interviewer 1: pass - Strong system design")

	reports := f.notifier.subjects("Interview report: Jane Candidate")
	require.Len(t, reports, 1)
	assert.Equal(t, recruiterEmail, reports[0].to)
	assert.Contains(t, reports[0].body, "Recommendation: Hire")
	assert.Contains(t, reports[0].body, "ATS: Feedback Received")
	assert.Contains(t, reports[0].body, "http://autopilot.test/reports/")

	outcome, err = f.feedback.MaybeConsolidate(f.ctx, iv.ID, f.clock.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, GateAlreadyConsolidated, outcome)
	assert.True(t, f.interview(iv.ID).ConsolidatedAt.Equal(f.clock), "marker is write-once")
	assert.Len(t, f.notifier.subjects("Interview report:"), 1)
}

func TestSubmitFeedbackOverwritesPreviousDecision(t *testing.T) {
	f := newFixture(t, 2)
	iv := f.book(2*time.Hour, 2)
	f.requestFeedback(iv)

	f.submit(iv, f.panel[0], model.DecisionPass, "first take")
	f.clock = f.clock.Add(time.Minute)
	f.submit(iv, f.panel[0], model.DecisionFail, "second take")

	feedback := f.feedbackFor(iv.ID)
	require.Len(t, feedback, 1)
	assert.Equal(t, model.DecisionFail, feedback[0].Decision)
	assert.Equal(t, "second take", feedback[0].Comment)
	assert.True(t, feedback[0].SubmittedAt.Equal(f.clock))
	assert.Equal(t, "Interviewer 1", feedback[0].ParticipantName)
}

func TestSubmitFeedbackValidationOrder(t *testing.T) {
	f := newFixture(t, 1)
	iv := f.book(2*time.Hour, 1)
	p := f.panel[0]

	tests := []struct {
		name     string
		token    string
		decision model.FeedbackDecision
		want     error
	}{
		{"garbage token wins over bad decision", "not-a-token", "maybe", ErrInvalidToken},
		{"unknown interview wins over bad decision", f.token(999, p.ID), "maybe", ErrInterviewNotFound},
		{"bad decision", f.token(iv.ID, p.ID), "maybe", ErrInvalidDecision},
		{"unknown participant", f.token(iv.ID, 999), model.DecisionPass, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, err := f.feedback.SubmitFeedback(f.ctx, SubmitFeedbackInput{Token: tt.token, Decision: tt.decision})
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, fb)
		})
	}
	assert.Empty(t, f.feedbackFor(iv.ID))
}

func TestFeedbackFromOutsidePanelDoesNotCompleteIt(t *testing.T) {
	f := newFixture(t, 3)
	iv := f.book(2*time.Hour, 2)
	f.requestFeedback(iv)

	outsider := f.panel[2]
	f.submit(iv, outsider, model.DecisionPass, "sat in")
	f.submit(iv, f.panel[0], model.DecisionPass, "")

	outcome, err := f.feedback.MaybeConsolidate(f.ctx, iv.ID, f.clock)
	require.NoError(t, err)
	assert.Equal(t, GatePending, outcome)
	assert.Len(t, f.feedbackFor(iv.ID), 2)
}

func TestConsolidationFallsBackWhenSummarizerFails(t *testing.T) {
	f := newFixture(t, 2)
	failing := &failingSummarizer{}
	f.wire(f.store, failing, 0)
	iv := f.book(2*time.Hour, 2)
	f.requestFeedback(iv)

	f.submit(iv, f.panel[0], model.DecisionFail, "Weak on concurrency")
	f.submit(iv, f.panel[1], model.DecisionFail, "")

	assert.Equal(t, 1, failing.calls)
	ats := f.ats(iv.ID)
	require.NotNil(t, ats.Recommendation)
	assert.Equal(t, model.RecommendationNoHire, *ats.Recommendation)
	assert.Contains(t, ats.Summary, "Automatic summary (mock):")
	assert.Equal(t, model.InterviewStatusFeedbackReceived, f.interview(iv.ID).Status)
}

func TestConsolidationDelay(t *testing.T) {
	f := newFixture(t, 1)
	f.wire(f.store, summary.NewMock(), time.Hour)
	iv := f.book(2*time.Hour, 1)
	f.requestFeedback(iv)

	f.clock = iv.EndsAt.Add(10 * time.Minute)
	f.submit(iv, f.panel[0], model.DecisionNeedMoreInfo, "")
	assert.Nil(t, f.interview(iv.ID).ConsolidatedAt)

	outcome, err := f.feedback.MaybeConsolidate(f.ctx, iv.ID, iv.EndsAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, GateConsolidated, outcome)
	assert.Equal(t, model.RecommendationMixed, *f.ats(iv.ID).Recommendation)
}

func TestConsolidationWithoutATSRecordIsIntegrityError(t *testing.T) {
	f := newFixture(t, 1)
	iv := f.book(2*time.Hour, 1)
	f.requestFeedback(iv)
	f.wire(hiddenATSStore{Store: f.store, interviewID: iv.ID}, summary.NewMock(), 0)

	// Submission itself succeeds; the gate failure is logged.
	f.submit(iv, f.panel[0], model.DecisionPass, "")
	assert.Nil(t, f.interview(iv.ID).ConsolidatedAt)

	_, err := f.feedback.MaybeConsolidate(f.ctx, iv.ID, f.clock)
	require.Error(t, err)
	assert.True(t, IsIntegrityError(err))

	_, err = f.feedback.GetReport(f.ctx, iv.ID)
	assert.True(t, IsIntegrityError(err))
}

func TestGetReport(t *testing.T) {
	f := newFixture(t, 2)
	iv := f.book(2*time.Hour, 2)
	f.requestFeedback(iv)
	f.submit(iv, f.panel[0], model.DecisionPass, "good")
	f.submit(iv, f.panel[1], model.DecisionFail, "bad")

	report, err := f.feedback.GetReport(f.ctx, iv.ID)
	require.NoError(t, err)
	assert.Equal(t, iv.ID, report.Interview.ID)
	assert.Equal(t, f.candidate.Name, report.Candidate.Name)
	assert.Len(t, report.Participants, 2)
	require.Len(t, report.Feedback, 2)
	assert.Equal(t, "Interviewer 2", report.Feedback[1].ParticipantName)
	assert.Equal(t, model.RecommendationMixed, *report.ATS.Recommendation)

	_, err = f.feedback.GetReport(f.ctx, 999)
	require.ErrorIs(t, err, ErrInterviewNotFound)
}

func TestSlowSummaryDoesNotBlockBookings(t *testing.T) {
	f := newFixture(t, 3)
	slow := newBlockingSummarizer()
	f.wire(f.store, slow, 0)

	iv := f.book(2*time.Hour, 2)
	f.requestFeedback(iv)
	f.submit(iv, f.panel[0], model.DecisionPass, "")

	last := f.token(iv.ID, f.panel[1].ID)
	submitted := make(chan error, 1)
	go func() {
		_, err := f.feedback.SubmitFeedback(f.ctx, SubmitFeedbackInput{Token: last, Decision: model.DecisionPass})
		submitted <- err
	}()
	slow.waitStarted(t)

	booked := make(chan error, 1)
	go func() {
		_, err := f.scheduling.StartInterview(f.ctx, StartInterviewInput{
			RecruiterEmail:  recruiterEmail,
			CandidateID:     f.candidate.ID,
			JobTitle:        "Backend Engineer",
			InterviewerIDs:  []int64{f.panel[2].ID},
			Window:          model.TimeWindow{Start: base.Add(5 * time.Hour), End: base.Add(6 * time.Hour)},
			DurationMinutes: 60,
		})
		booked <- err
	}()

	select {
	case err := <-booked:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("booking waited for the summarizer")
	}

	close(slow.release)
	require.NoError(t, <-submitted)
	assert.Equal(t, model.InterviewStatusFeedbackReceived, f.interview(iv.ID).Status)
	assert.Equal(t, model.ATSStatusFeedbackReceived, f.ats(iv.ID).Status)
}

func TestConcurrentGatesConsolidateOnce(t *testing.T) {
	f := newFixture(t, 2)
	slow := newBlockingSummarizer()
	f.wire(f.store, slow, 0)

	iv := f.book(2*time.Hour, 2)
	f.requestFeedback(iv)
	f.writeFeedback(iv, model.DecisionPass, f.panel...)

	outcomes := make(chan GateOutcome, 2)
	for i := 0; i < 2; i++ {
		go func() {
			outcome, err := f.feedback.MaybeConsolidate(f.ctx, iv.ID, f.clock)
			assert.NoError(t, err)
			outcomes <- outcome
		}()
	}
	slow.waitStarted(t)
	slow.waitStarted(t)
	close(slow.release)

	got := []GateOutcome{<-outcomes, <-outcomes}
	assert.ElementsMatch(t, []GateOutcome{GateConsolidated, GateAlreadyConsolidated}, got)
	assert.Len(t, f.notifier.subjects("Interview report:"), 1)

	ats := f.ats(iv.ID)
	assert.Equal(t, model.ATSStatusFeedbackReceived, ats.Status)
	require.NotNil(t, ats.Recommendation)
	assert.Equal(t, model.RecommendationHire, *ats.Recommendation)
}
