package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/store"
)

var base = time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)

func TestInTxRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.CreateParticipant(ctx, &model.Participant{Name: "Ann"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.InTx(ctx, func(tx store.Tx) error {
		ok, err := tx.HasAnyParticipant(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestHasOverlappingBlockIsStrict(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.InTx(ctx, func(tx store.Tx) error {
		p := &model.Participant{Name: "Ann"}
		require.NoError(t, tx.CreateParticipant(ctx, p))
		require.NoError(t, tx.CreateBlock(ctx, &model.CalendarBlock{
			ParticipantID: p.ID, StartsAt: base, EndsAt: base.Add(time.Hour),
		}))

		touchingBefore, err := tx.HasOverlappingBlock(ctx, p.ID, base.Add(-time.Hour), base)
		require.NoError(t, err)
		assert.False(t, touchingBefore)

		touchingAfter, err := tx.HasOverlappingBlock(ctx, p.ID, base.Add(time.Hour), base.Add(2*time.Hour))
		require.NoError(t, err)
		assert.False(t, touchingAfter)

		inside, err := tx.HasOverlappingBlock(ctx, p.ID, base.Add(59*time.Minute), base.Add(2*time.Hour))
		require.NoError(t, err)
		assert.True(t, inside)
		return nil
	})
	require.NoError(t, err)
}

func TestMarkersAreWriteOnce(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.InTx(ctx, func(tx store.Tx) error {
		c := &model.Candidate{Name: "Bob"}
		require.NoError(t, tx.CreateCandidate(ctx, c))
		iv := &model.Interview{CandidateID: c.ID, StartsAt: base, EndsAt: base.Add(time.Hour), Status: model.InterviewStatusScheduled}
		require.NoError(t, tx.CreateInterview(ctx, iv))

		applied, err := tx.MarkFeedbackRequested(ctx, iv.ID, base)
		require.NoError(t, err)
		assert.True(t, applied)

		applied, err = tx.MarkFeedbackRequested(ctx, iv.ID, base.Add(time.Minute))
		require.NoError(t, err)
		assert.False(t, applied)

		got, err := tx.GetInterview(ctx, iv.ID)
		require.NoError(t, err)
		assert.Equal(t, model.InterviewStatusFeedbackRequested, got.Status)
		assert.True(t, got.FeedbackRequestedAt.Equal(base))
		return nil
	})
	require.NoError(t, err)
}

func TestConsolidatedInterviewLeavesFeedbackFlow(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.InTx(ctx, func(tx store.Tx) error {
		c := &model.Candidate{Name: "Bob"}
		require.NoError(t, tx.CreateCandidate(ctx, c))
		iv := &model.Interview{CandidateID: c.ID, StartsAt: base, EndsAt: base.Add(time.Hour), Status: model.InterviewStatusCompleted}
		require.NoError(t, tx.CreateInterview(ctx, iv))

		applied, err := tx.MarkConsolidated(ctx, iv.ID, base.Add(time.Hour))
		require.NoError(t, err)
		require.True(t, applied)

		due, err := tx.ListDueForFeedbackRequest(ctx, base.Add(24*time.Hour), 0)
		require.NoError(t, err)
		assert.Empty(t, due)

		applied, err = tx.MarkFeedbackRequested(ctx, iv.ID, base.Add(2*time.Hour))
		require.NoError(t, err)
		assert.False(t, applied)

		got, err := tx.GetInterview(ctx, iv.ID)
		require.NoError(t, err)
		assert.Equal(t, model.InterviewStatusFeedbackReceived, got.Status)
		assert.Nil(t, got.FeedbackRequestedAt)
		return nil
	})
	require.NoError(t, err)
}

func TestUniqueConstraints(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.InTx(ctx, func(tx store.Tx) error {
		c := &model.Candidate{Name: "Bob"}
		require.NoError(t, tx.CreateCandidate(ctx, c))
		p := &model.Participant{Name: "Ann"}
		require.NoError(t, tx.CreateParticipant(ctx, p))
		iv := &model.Interview{CandidateID: c.ID}
		require.NoError(t, tx.CreateInterview(ctx, iv))

		require.NoError(t, tx.AddInterviewParticipant(ctx, iv.ID, p.ID))
		assert.ErrorIs(t, tx.AddInterviewParticipant(ctx, iv.ID, p.ID), store.ErrConflict)

		require.NoError(t, tx.CreateATSRecord(ctx, &model.ATSRecord{InterviewID: iv.ID, CandidateID: c.ID}))
		assert.ErrorIs(t, tx.CreateATSRecord(ctx, &model.ATSRecord{InterviewID: iv.ID, CandidateID: c.ID}), store.ErrConflict)

		first := &model.Feedback{InterviewID: iv.ID, ParticipantID: p.ID, Decision: model.DecisionFail}
		require.NoError(t, tx.UpsertFeedback(ctx, first))
		second := &model.Feedback{InterviewID: iv.ID, ParticipantID: p.ID, Decision: model.DecisionPass}
		require.NoError(t, tx.UpsertFeedback(ctx, second))
		assert.Equal(t, first.ID, second.ID)

		all, err := tx.ListFeedback(ctx, iv.ID)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, model.DecisionPass, all[0].Decision)
		assert.Equal(t, "Ann", all[0].ParticipantName)
		return nil
	})
	require.NoError(t, err)
}
