package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/interview_autopilot/internal/availability"
	"github.com/Freeeeeet/interview_autopilot/internal/lock"
	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/store"
	"github.com/Freeeeeet/interview_autopilot/internal/store/memstore"
	"github.com/Freeeeeet/interview_autopilot/internal/summary"
	"github.com/Freeeeeet/interview_autopilot/internal/token"
)

// base sits on the 15 minute grid; tests express times as offsets from it.
var base = time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC)

const recruiterEmail = "recruiter@example.com"

type sentMessage struct {
	to      string
	subject string
	body    string
}

type recordingNotifier struct {
	mu         sync.Mutex
	messages   []sentMessage
	broadcasts []string
	err        error
}

func (n *recordingNotifier) SendMessage(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, sentMessage{to: to, subject: subject, body: body})
	return n.err
}

func (n *recordingNotifier) SendBroadcast(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts = append(n.broadcasts, text)
	return n.err
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = nil
	n.broadcasts = nil
}

func (n *recordingNotifier) subjects(prefix string) []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentMessage
	for _, m := range n.messages {
		if strings.HasPrefix(m.subject, prefix) {
			out = append(out, m)
		}
	}
	return out
}

type failingSummarizer struct {
	calls int
}

func (s *failingSummarizer) Summarize(context.Context, summary.Request) (*summary.Result, error) {
	s.calls++
	return nil, errors.New("upstream timeout")
}

// hiddenATSStore hides the ATS record of one interview to simulate damaged
// data.
type hiddenATSStore struct {
	store.Store
	interviewID int64
}

func (s hiddenATSStore) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.Store.InTx(ctx, func(tx store.Tx) error {
		return fn(hiddenATSTx{Tx: tx, interviewID: s.interviewID})
	})
}

type hiddenATSTx struct {
	store.Tx
	interviewID int64
}

func (t hiddenATSTx) GetATSRecord(ctx context.Context, interviewID int64) (*model.ATSRecord, error) {
	if interviewID == t.interviewID {
		return nil, nil
	}
	return t.Tx.GetATSRecord(ctx, interviewID)
}

// heldElsewhereStore reports one scheduled interview as completed, the way
// an external tool would record an interview it ran itself.
type heldElsewhereStore struct {
	store.Store
	interviewID int64
}

func (s heldElsewhereStore) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.Store.InTx(ctx, func(tx store.Tx) error {
		return fn(heldElsewhereTx{Tx: tx, interviewID: s.interviewID})
	})
}

type heldElsewhereTx struct {
	store.Tx
	interviewID int64
}

func (t heldElsewhereTx) GetInterview(ctx context.Context, id int64) (*model.Interview, error) {
	iv, err := t.Tx.GetInterview(ctx, id)
	if err == nil && iv != nil && id == t.interviewID && iv.Status == model.InterviewStatusScheduled {
		iv.Status = model.InterviewStatusCompleted
	}
	return iv, err
}

// blockingSummarizer parks every call until release is closed.
type blockingSummarizer struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingSummarizer() *blockingSummarizer {
	return &blockingSummarizer{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (s *blockingSummarizer) Summarize(ctx context.Context, req summary.Request) (*summary.Result, error) {
	s.started <- struct{}{}
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return summary.Summarize(req.Items), nil
}

func (s *blockingSummarizer) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-s.started:
	case <-time.After(2 * time.Second):
		t.Fatal("summarizer was never called")
	}
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *memstore.Store
	notifier *recordingNotifier
	codec    *token.Codec

	candidate *model.Candidate
	panel     []*model.Participant
	clock     time.Time

	scheduling   *SchedulingService
	lifecycle    *LifecycleService
	feedback     *FeedbackService
	orchestrator *Orchestrator
}

// newFixture seeds one candidate and the given number of interviewers and
// wires every service against an in-memory store.
func newFixture(t *testing.T, interviewers int) *fixture {
	t.Helper()

	codec, err := token.NewCodec("test-secret", time.Hour)
	require.NoError(t, err)

	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    memstore.New(),
		notifier: &recordingNotifier{},
		codec:    codec,
		clock:    base,
	}

	err = f.store.InTx(f.ctx, func(tx store.Tx) error {
		f.candidate = &model.Candidate{Name: "Jane Candidate", Email: "jane@example.com", ResumeText: "Go, PostgreSQL"}
		if err := tx.CreateCandidate(f.ctx, f.candidate); err != nil {
			return err
		}
		for i := 1; i <= interviewers; i++ {
			p := &model.Participant{
				Name:  fmt.Sprintf("Interviewer %d", i),
				Email: fmt.Sprintf("interviewer%d@example.com", i),
				Role:  model.RoleEngineer,
			}
			if err := tx.CreateParticipant(f.ctx, p); err != nil {
				return err
			}
			f.panel = append(f.panel, p)
		}
		return nil
	})
	require.NoError(t, err)

	f.wire(f.store, summary.NewMock(), 0)
	return f
}

func (f *fixture) wire(st store.Store, summarizer summary.Summarizer, consolidationDelay time.Duration) {
	logger := zap.NewNop()

	f.scheduling = NewSchedulingService(st, availability.NewEngine(15*time.Minute), lock.NewLocal(), f.notifier,
		SchedulingConfig{BaseURL: "http://autopilot.test", MeetingBaseURL: "https://meet.test"}, logger)
	f.lifecycle = NewLifecycleService(st, f.codec, f.notifier,
		LifecycleConfig{BaseURL: "http://autopilot.test", ReminderLead: time.Hour}, logger)
	f.feedback = NewFeedbackService(st, f.codec, summarizer, f.notifier,
		FeedbackConfig{BaseURL: "http://autopilot.test", ConsolidationDelay: consolidationDelay}, logger)
	f.feedback.now = func() time.Time { return f.clock }
	f.orchestrator = NewOrchestrator(st, f.lifecycle, f.feedback, OrchestratorConfig{ReminderLead: time.Hour}, logger)
}

func (f *fixture) panelIDs(n int) []int64 {
	ids := make([]int64, 0, n)
	for _, p := range f.panel[:n] {
		ids = append(ids, p.ID)
	}
	return ids
}

func (f *fixture) addBlock(participantID int64, start, end time.Time) {
	f.t.Helper()
	err := f.store.InTx(f.ctx, func(tx store.Tx) error {
		return tx.CreateBlock(f.ctx, &model.CalendarBlock{ParticipantID: participantID, StartsAt: start, EndsAt: end})
	})
	require.NoError(f.t, err)
}

// book schedules an hour-long interview for the first n interviewers at
// exactly base+offset.
func (f *fixture) book(offset time.Duration, n int) *model.Interview {
	f.t.Helper()
	iv, err := f.scheduling.StartInterview(f.ctx, StartInterviewInput{
		RecruiterName:   "Rita Recruiter",
		RecruiterEmail:  recruiterEmail,
		CandidateID:     f.candidate.ID,
		JobTitle:        "Backend Engineer",
		InterviewerIDs:  f.panelIDs(n),
		Window:          model.TimeWindow{Start: base.Add(offset), End: base.Add(offset + time.Hour)},
		DurationMinutes: 60,
	})
	require.NoError(f.t, err)
	return iv
}

func (f *fixture) interview(id int64) *model.Interview {
	f.t.Helper()
	var iv *model.Interview
	err := f.store.InTx(f.ctx, func(tx store.Tx) error {
		var err error
		iv, err = tx.GetInterview(f.ctx, id)
		return err
	})
	require.NoError(f.t, err)
	require.NotNil(f.t, iv)
	return iv
}

// allInterviews lists every interview whose feedback was never requested.
func (f *fixture) allInterviews() []*model.Interview {
	f.t.Helper()
	var out []*model.Interview
	err := f.store.InTx(f.ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.ListDueForFeedbackRequest(f.ctx, base.AddDate(10, 0, 0), 0)
		return err
	})
	require.NoError(f.t, err)
	return out
}

func (f *fixture) blocks(participantID int64) []*model.CalendarBlock {
	f.t.Helper()
	var out []*model.CalendarBlock
	err := f.store.InTx(f.ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.ListBlocks(f.ctx, participantID, model.TimeWindow{Start: base.AddDate(0, 0, -1), End: base.AddDate(0, 0, 7)})
		return err
	})
	require.NoError(f.t, err)
	return out
}

func (f *fixture) ats(interviewID int64) *model.ATSRecord {
	f.t.Helper()
	var rec *model.ATSRecord
	err := f.store.InTx(f.ctx, func(tx store.Tx) error {
		var err error
		rec, err = tx.GetATSRecord(f.ctx, interviewID)
		return err
	})
	require.NoError(f.t, err)
	require.NotNil(f.t, rec)
	return rec
}

func (f *fixture) feedbackFor(interviewID int64) []*model.Feedback {
	f.t.Helper()
	var out []*model.Feedback
	err := f.store.InTx(f.ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.ListFeedback(f.ctx, interviewID)
		return err
	})
	require.NoError(f.t, err)
	return out
}

func (f *fixture) token(interviewID, participantID int64) string {
	f.t.Helper()
	raw, err := f.codec.Sign(interviewID, participantID)
	require.NoError(f.t, err)
	return raw
}

// requestFeedback moves the interview to feedback_requested at its end.
func (f *fixture) requestFeedback(iv *model.Interview) {
	f.t.Helper()
	fired, err := f.lifecycle.RequestFeedback(f.ctx, iv.ID, iv.EndsAt)
	require.NoError(f.t, err)
	require.True(f.t, fired)
}

func (f *fixture) submit(iv *model.Interview, p *model.Participant, decision model.FeedbackDecision, comment string) {
	f.t.Helper()
	_, err := f.feedback.SubmitFeedback(f.ctx, SubmitFeedbackInput{
		Token:    f.token(iv.ID, p.ID),
		Decision: decision,
		Comment:  comment,
	})
	require.NoError(f.t, err)
}

// writeFeedback stores feedback behind the service, so no gate runs.
func (f *fixture) writeFeedback(iv *model.Interview, decision model.FeedbackDecision, panel ...*model.Participant) {
	f.t.Helper()
	err := f.store.InTx(f.ctx, func(tx store.Tx) error {
		for _, p := range panel {
			if err := tx.UpsertFeedback(f.ctx, &model.Feedback{
				InterviewID:   iv.ID,
				ParticipantID: p.ID,
				Decision:      decision,
				SubmittedAt:   iv.EndsAt,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(f.t, err)
}

// orphanedOptionStore rewrites the options of one request so they point at
// a request that does not exist.
type orphanedOptionStore struct {
	store.Store
	requestID int64
}

func (s orphanedOptionStore) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.Store.InTx(ctx, func(tx store.Tx) error {
		return fn(orphanedOptionTx{Tx: tx, requestID: s.requestID})
	})
}

type orphanedOptionTx struct {
	store.Tx
	requestID int64
}

func (t orphanedOptionTx) ListSchedulingOptions(ctx context.Context, requestID int64) ([]*model.SchedulingOption, error) {
	options, err := t.Tx.ListSchedulingOptions(ctx, requestID)
	if err != nil || requestID != t.requestID {
		return options, err
	}
	out := make([]*model.SchedulingOption, 0, len(options))
	for _, o := range options {
		orphan := *o
		orphan.RequestID = requestID + 1000
		out = append(out, &orphan)
	}
	return out, nil
}
