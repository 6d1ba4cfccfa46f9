// Package memstore is an in-memory store.Store used in development mode
// and by the service tests.
package memstore

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/store"
)

type feedbackKey struct {
	interviewID   int64
	participantID int64
}

type state struct {
	seq int64

	participants map[int64]model.Participant
	candidates   map[int64]model.Candidate
	blocks       map[int64]model.CalendarBlock
	requests     map[int64]model.SchedulingRequest
	options      map[int64]model.SchedulingOption
	interviews   map[int64]model.Interview
	members      map[int64][]int64
	feedback     map[feedbackKey]model.Feedback
	ats          map[int64]model.ATSRecord
}

func newState() *state {
	return &state{
		participants: map[int64]model.Participant{},
		candidates:   map[int64]model.Candidate{},
		blocks:       map[int64]model.CalendarBlock{},
		requests:     map[int64]model.SchedulingRequest{},
		options:      map[int64]model.SchedulingOption{},
		interviews:   map[int64]model.Interview{},
		members:      map[int64][]int64{},
		feedback:     map[feedbackKey]model.Feedback{},
		ats:          map[int64]model.ATSRecord{},
	}
}

func (s *state) clone() *state {
	c := &state{
		seq:          s.seq,
		participants: maps.Clone(s.participants),
		candidates:   maps.Clone(s.candidates),
		blocks:       maps.Clone(s.blocks),
		requests:     maps.Clone(s.requests),
		options:      maps.Clone(s.options),
		interviews:   maps.Clone(s.interviews),
		members:      make(map[int64][]int64, len(s.members)),
		feedback:     maps.Clone(s.feedback),
		ats:          maps.Clone(s.ats),
	}
	for k, v := range s.members {
		c.members[k] = append([]int64(nil), v...)
	}
	return c
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

// Store serialises transactions with a single mutex. A transaction works on
// a copy of the state that replaces the committed state only when fn
// returns nil.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

func New() *Store {
	return &Store{state: newState(), now: time.Now}
}

// InTx runs fn against a private copy of the state and publishes it only
// when fn succeeds.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.state.clone()
	if err := fn(&tx{state: work, now: s.now}); err != nil {
		return err
	}
	s.state = work
	return nil
}

type tx struct {
	state *state
	now   func() time.Time
}

var _ store.Tx = (*tx)(nil)

// participants

func (t *tx) CreateParticipant(_ context.Context, p *model.Participant) error {
	p.ID = t.state.nextID()
	p.CreatedAt = t.now()
	t.state.participants[p.ID] = *p
	return nil
}

func (t *tx) GetParticipantsByIDs(_ context.Context, ids []int64) ([]*model.Participant, error) {
	seen := make(map[int64]bool, len(ids))
	var out []*model.Participant
	for _, id := range ids {
		p, ok := t.state.participants[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) ListParticipants(_ context.Context) ([]*model.Participant, error) {
	out := make([]*model.Participant, 0, len(t.state.participants))
	for _, p := range t.state.participants {
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) ListInterviewParticipants(ctx context.Context, interviewID int64) ([]*model.Participant, error) {
	return t.GetParticipantsByIDs(ctx, t.state.members[interviewID])
}

func (t *tx) HasAnyParticipant(_ context.Context) (bool, error) {
	return len(t.state.participants) > 0, nil
}

// candidates

func (t *tx) CreateCandidate(_ context.Context, c *model.Candidate) error {
	c.ID = t.state.nextID()
	c.CreatedAt = t.now()
	t.state.candidates[c.ID] = *c
	return nil
}

func (t *tx) GetCandidateByID(_ context.Context, id int64) (*model.Candidate, error) {
	c, ok := t.state.candidates[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (t *tx) ListCandidates(_ context.Context) ([]*model.Candidate, error) {
	out := make([]*model.Candidate, 0, len(t.state.candidates))
	for _, c := range t.state.candidates {
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// calendar

func (t *tx) CreateBlock(_ context.Context, b *model.CalendarBlock) error {
	if _, ok := t.state.participants[b.ParticipantID]; !ok {
		return store.ErrForeignKey
	}
	if b.Title == "" {
		b.Title = model.DefaultBlockTitle
	}
	b.ID = t.state.nextID()
	b.CreatedAt = t.now()
	t.state.blocks[b.ID] = *b
	return nil
}

func (t *tx) HasOverlappingBlock(_ context.Context, participantID int64, start, end time.Time) (bool, error) {
	for _, b := range t.state.blocks {
		if b.ParticipantID == participantID && b.Window().Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) ListBlocks(_ context.Context, participantID int64, window model.TimeWindow) ([]*model.CalendarBlock, error) {
	var out []*model.CalendarBlock
	for _, b := range t.state.blocks {
		if b.ParticipantID == participantID && b.Window().Overlaps(window.Start, window.End) {
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

// LockParticipants is a no-op: InTx already runs one transaction at a time.
func (t *tx) LockParticipants(_ context.Context, _ []int64) error {
	return nil
}

// scheduling

func (t *tx) CreateSchedulingRequest(_ context.Context, r *model.SchedulingRequest) error {
	if _, ok := t.state.candidates[r.CandidateID]; !ok {
		return store.ErrForeignKey
	}
	r.ID = t.state.nextID()
	r.CreatedAt = t.now()
	stored := *r
	stored.Options = nil
	t.state.requests[r.ID] = stored
	return nil
}

func (t *tx) CreateSchedulingOption(_ context.Context, o *model.SchedulingOption) error {
	if _, ok := t.state.requests[o.RequestID]; !ok {
		return store.ErrForeignKey
	}
	for _, existing := range t.state.options {
		if existing.RequestID == o.RequestID && existing.StartsAt.Equal(o.StartsAt) && existing.EndsAt.Equal(o.EndsAt) {
			return store.ErrConflict
		}
	}
	o.ID = t.state.nextID()
	t.state.options[o.ID] = *o
	return nil
}

func (t *tx) GetSchedulingRequest(_ context.Context, id int64) (*model.SchedulingRequest, error) {
	r, ok := t.state.requests[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (t *tx) GetSchedulingOption(_ context.Context, id int64) (*model.SchedulingOption, error) {
	o, ok := t.state.options[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (t *tx) ListSchedulingOptions(_ context.Context, requestID int64) ([]*model.SchedulingOption, error) {
	var out []*model.SchedulingOption
	for _, o := range t.state.options {
		if o.RequestID == requestID {
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (t *tx) UpdateSchedulingRequest(_ context.Context, r *model.SchedulingRequest) error {
	if _, ok := t.state.requests[r.ID]; !ok {
		return store.ErrNotFound
	}
	stored := *r
	stored.Options = nil
	t.state.requests[r.ID] = stored
	return nil
}

// interviews

func (t *tx) CreateInterview(_ context.Context, i *model.Interview) error {
	if _, ok := t.state.candidates[i.CandidateID]; !ok {
		return store.ErrForeignKey
	}
	i.ID = t.state.nextID()
	i.CreatedAt = t.now()
	t.state.interviews[i.ID] = *i
	return nil
}

func (t *tx) SetMeetingLink(_ context.Context, interviewID int64, link string) error {
	i, ok := t.state.interviews[interviewID]
	if !ok {
		return store.ErrNotFound
	}
	i.MeetingLink = link
	t.state.interviews[interviewID] = i
	return nil
}

func (t *tx) GetInterview(_ context.Context, id int64) (*model.Interview, error) {
	i, ok := t.state.interviews[id]
	if !ok {
		return nil, nil
	}
	return &i, nil
}

func (t *tx) AddInterviewParticipant(_ context.Context, interviewID, participantID int64) error {
	if _, ok := t.state.interviews[interviewID]; !ok {
		return store.ErrForeignKey
	}
	if _, ok := t.state.participants[participantID]; !ok {
		return store.ErrForeignKey
	}
	for _, id := range t.state.members[interviewID] {
		if id == participantID {
			return store.ErrConflict
		}
	}
	t.state.members[interviewID] = append(t.state.members[interviewID], participantID)
	return nil
}

func (t *tx) listInterviews(match func(i *model.Interview) bool) []*model.Interview {
	var out []*model.Interview
	for _, i := range t.state.interviews {
		if match(&i) {
			out = append(out, &i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

func (t *tx) ListDueForReminder(_ context.Context, now time.Time, lead time.Duration) ([]*model.Interview, error) {
	return t.listInterviews(func(i *model.Interview) bool { return i.IsReminderDue(now, lead) }), nil
}

func (t *tx) ListDueForFeedbackRequest(_ context.Context, now time.Time, delay time.Duration) ([]*model.Interview, error) {
	return t.listInterviews(func(i *model.Interview) bool { return i.IsFeedbackRequestDue(now, delay) }), nil
}

func (t *tx) ListDueForConsolidation(_ context.Context) ([]*model.Interview, error) {
	return t.listInterviews(func(i *model.Interview) bool { return i.IsConsolidationCandidate() }), nil
}

func (t *tx) MarkReminderSent(_ context.Context, interviewID int64, at time.Time) (bool, error) {
	i, ok := t.state.interviews[interviewID]
	if !ok || i.ReminderSentAt != nil {
		return false, nil
	}
	i.ReminderSentAt = &at
	t.state.interviews[interviewID] = i
	return true, nil
}

func (t *tx) MarkFeedbackRequested(_ context.Context, interviewID int64, at time.Time) (bool, error) {
	i, ok := t.state.interviews[interviewID]
	if !ok || i.FeedbackRequestedAt != nil || i.ConsolidatedAt != nil {
		return false, nil
	}
	i.FeedbackRequestedAt = &at
	i.Status = model.InterviewStatusFeedbackRequested
	t.state.interviews[interviewID] = i
	return true, nil
}

func (t *tx) MarkConsolidated(_ context.Context, interviewID int64, at time.Time) (bool, error) {
	i, ok := t.state.interviews[interviewID]
	if !ok || i.ConsolidatedAt != nil {
		return false, nil
	}
	i.ConsolidatedAt = &at
	i.Status = model.InterviewStatusFeedbackReceived
	t.state.interviews[interviewID] = i
	return true, nil
}

// feedback

func (t *tx) UpsertFeedback(_ context.Context, f *model.Feedback) error {
	if _, ok := t.state.interviews[f.InterviewID]; !ok {
		return store.ErrForeignKey
	}
	if _, ok := t.state.participants[f.ParticipantID]; !ok {
		return store.ErrForeignKey
	}
	key := feedbackKey{interviewID: f.InterviewID, participantID: f.ParticipantID}
	if existing, ok := t.state.feedback[key]; ok {
		f.ID = existing.ID
	} else {
		f.ID = t.state.nextID()
	}
	stored := *f
	stored.ParticipantName = ""
	t.state.feedback[key] = stored
	return nil
}

func (t *tx) ListFeedback(_ context.Context, interviewID int64) ([]*model.Feedback, error) {
	var out []*model.Feedback
	for key, f := range t.state.feedback {
		if key.interviewID != interviewID {
			continue
		}
		f.ParticipantName = t.state.participants[key.participantID].Name
		out = append(out, &f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantID < out[j].ParticipantID })
	return out, nil
}

// ats

func (t *tx) CreateATSRecord(_ context.Context, r *model.ATSRecord) error {
	if _, ok := t.state.interviews[r.InterviewID]; !ok {
		return store.ErrForeignKey
	}
	if _, ok := t.state.ats[r.InterviewID]; ok {
		return store.ErrConflict
	}
	r.ID = t.state.nextID()
	r.UpdatedAt = t.now()
	t.state.ats[r.InterviewID] = *r
	return nil
}

func (t *tx) GetATSRecord(_ context.Context, interviewID int64) (*model.ATSRecord, error) {
	r, ok := t.state.ats[interviewID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (t *tx) UpdateATSRecord(_ context.Context, r *model.ATSRecord) error {
	if _, ok := t.state.ats[r.InterviewID]; !ok {
		return store.ErrNotFound
	}
	r.UpdatedAt = t.now()
	t.state.ats[r.InterviewID] = *r
	return nil
}
