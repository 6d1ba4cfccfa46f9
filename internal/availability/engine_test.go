package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
)

type fakeCalendar map[int64][]model.TimeWindow

func (f fakeCalendar) HasOverlappingBlock(_ context.Context, participantID int64, start, end time.Time) (bool, error) {
	for _, w := range f[participantID] {
		if w.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

type failingCalendar struct{}

func (failingCalendar) HasOverlappingBlock(context.Context, int64, time.Time, time.Time) (bool, error) {
	return false, errors.New("db down")
}

func at(hour, minute int) time.Time {
	return time.Date(2030, 3, 4, hour, minute, 0, 0, time.UTC)
}

func TestCeilToStep(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"on boundary", at(10, 0), at(10, 0)},
		{"one minute past", at(10, 1), at(10, 15)},
		{"just before boundary", at(10, 14), at(10, 15)},
		{"seconds", at(10, 0).Add(time.Second), at(10, 15)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(CeilToStep(tt.in, 15*time.Minute)))
		})
	}
}

func TestCeilToStepFollowsLocalGrid(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+30*60)

	got := CeilToStep(time.Date(2030, 3, 4, 10, 10, 0, 0, kolkata), time.Hour)
	assert.True(t, time.Date(2030, 3, 4, 11, 0, 0, 0, kolkata).Equal(got), got.String())
	assert.Equal(t, kolkata, got.Location())

	onHour := time.Date(2030, 3, 4, 10, 0, 0, 0, kolkata)
	assert.True(t, onHour.Equal(CeilToStep(onHour, time.Hour)))

	// Quarter-hour grids coincide for UTC and half-hour offsets.
	assert.True(t, time.Date(2030, 3, 4, 10, 15, 0, 0, kolkata).Equal(
		CeilToStep(time.Date(2030, 3, 4, 10, 1, 0, 0, kolkata), 15*time.Minute)))
}

func TestFindCommonSlotFreeCalendars(t *testing.T) {
	e := NewEngine(15 * time.Minute)
	window := model.TimeWindow{Start: at(10, 7), End: at(12, 0)}

	slot, err := e.FindCommonSlot(context.Background(), fakeCalendar{}, []int64{1, 2}, window, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.True(t, slot.Start.Equal(at(10, 15)))
	assert.True(t, slot.End.Equal(at(11, 15)))
}

func TestFindCommonSlotSkipsBusyParticipant(t *testing.T) {
	e := NewEngine(15 * time.Minute)
	cal := fakeCalendar{2: {{Start: at(10, 0), End: at(10, 30)}}}
	window := model.TimeWindow{Start: at(10, 0), End: at(12, 0)}

	slot, err := e.FindCommonSlot(context.Background(), cal, []int64{1, 2}, window, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.True(t, slot.Start.Equal(at(10, 30)), "block end touching slot start is not an overlap")
}

func TestFindCommonSlotWholeWindowBusy(t *testing.T) {
	e := NewEngine(15 * time.Minute)
	cal := fakeCalendar{1: {{Start: at(9, 0), End: at(13, 0)}}}
	window := model.TimeWindow{Start: at(10, 0), End: at(12, 0)}

	slot, err := e.FindCommonSlot(context.Background(), cal, []int64{1}, window, 30*time.Minute)
	require.NoError(t, err)
	assert.Nil(t, slot)
}

func TestFindCommonSlotExactFit(t *testing.T) {
	e := NewEngine(15 * time.Minute)
	window := model.TimeWindow{Start: at(10, 0), End: at(11, 0)}

	slot, err := e.FindCommonSlot(context.Background(), fakeCalendar{}, []int64{1}, window, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.True(t, slot.End.Equal(window.End))

	slot, err = e.FindCommonSlot(context.Background(), fakeCalendar{}, []int64{1}, window, 61*time.Minute)
	require.NoError(t, err)
	assert.Nil(t, slot)
}

func TestFindCommonSlotsOrderingAndLimit(t *testing.T) {
	e := NewEngine(15 * time.Minute)
	cal := fakeCalendar{1: {{Start: at(10, 45), End: at(11, 10)}}}
	window := model.TimeWindow{Start: at(10, 0), End: at(13, 0)}

	slots, err := e.FindCommonSlots(context.Background(), cal, []int64{1}, window, 30*time.Minute, 3)
	require.NoError(t, err)
	require.Len(t, slots, 3)

	// 10:30 and later collide with the 10:45 block until it ends at 11:10.
	want := []time.Time{at(10, 0), at(10, 15), at(11, 15)}
	for i, s := range slots {
		assert.True(t, want[i].Equal(s.Start), "slot %d starts at %s", i, s.Start)
		assert.Equal(t, 30*time.Minute, s.Duration())
	}
}

func TestFindCommonSlotsDegenerateInputs(t *testing.T) {
	e := NewEngine(15 * time.Minute)
	window := model.TimeWindow{Start: at(10, 0), End: at(12, 0)}
	ctx := context.Background()

	slots, err := e.FindCommonSlots(ctx, fakeCalendar{}, []int64{1}, window, time.Hour, 0)
	require.NoError(t, err)
	assert.Empty(t, slots)

	slots, err = e.FindCommonSlots(ctx, fakeCalendar{}, nil, window, time.Hour, 3)
	require.NoError(t, err)
	assert.Empty(t, slots)

	slots, err = e.FindCommonSlots(ctx, fakeCalendar{}, []int64{1}, model.TimeWindow{Start: at(12, 0), End: at(10, 0)}, time.Hour, 3)
	require.NoError(t, err)
	assert.Empty(t, slots)
	short := model.TimeWindow{Start: at(10, 0), End: at(10, 45)}
	slots, err = e.FindCommonSlots(ctx, failingCalendar{}, []int64{1}, short, time.Hour, 3)
	require.NoError(t, err, "a window shorter than the meeting never reaches the calendar")
	assert.Empty(t, slots)
}

func TestIsFreePropagatesStoreErrors(t *testing.T) {
	e := NewEngine(0)
	assert.Equal(t, DefaultStep, e.Step())

	_, err := e.IsFree(context.Background(), failingCalendar{}, []int64{1}, at(10, 0), at(11, 0))
	require.Error(t, err)
}
