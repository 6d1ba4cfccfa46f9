// Package availability finds meeting slots that are free for every
// participant of an interview panel.
package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
)

const DefaultStep = 15 * time.Minute

// BusyChecker answers whether a participant has a calendar block strictly
// overlapping [start, end).
type BusyChecker interface {
	HasOverlappingBlock(ctx context.Context, participantID int64, start, end time.Time) (bool, error)
}

type Engine struct {
	step time.Duration
}

func NewEngine(step time.Duration) *Engine {
	if step <= 0 {
		step = DefaultStep
	}
	return &Engine{step: step}
}

// Step is the spacing of candidate slot starts.
func (e *Engine) Step() time.Duration {
	return e.step
}

// CeilToStep rounds t up to the next multiple of step counted from the
// epoch in t's own zone, so hourly steps land on local whole hours. Values
// already on a boundary are returned unchanged.
func CeilToStep(t time.Time, step time.Duration) time.Time {
	if step <= 0 {
		return t
	}
	_, offset := t.Zone()
	ns := t.UnixNano() + int64(offset)*int64(time.Second)
	rem := ns % int64(step)
	if rem < 0 {
		rem += int64(step)
	}
	if rem == 0 {
		return t
	}
	return t.Add(step - time.Duration(rem))
}

// IsFree reports whether every participant is free over [start, end).
func (e *Engine) IsFree(ctx context.Context, busy BusyChecker, participantIDs []int64, start, end time.Time) (bool, error) {
	for _, id := range participantIDs {
		overlapping, err := busy.HasOverlappingBlock(ctx, id, start, end)
		if err != nil {
			return false, fmt.Errorf("check participant %d: %w", id, err)
		}
		if overlapping {
			return false, nil
		}
	}
	return true, nil
}

// FindCommonSlot returns the earliest slot of the given duration inside the
// window that is free for all participants, or nil when none exists.
func (e *Engine) FindCommonSlot(ctx context.Context, busy BusyChecker, participantIDs []int64, window model.TimeWindow, duration time.Duration) (*model.Slot, error) {
	slots, err := e.FindCommonSlots(ctx, busy, participantIDs, window, duration, 1)
	if err != nil || len(slots) == 0 {
		return nil, err
	}
	return &slots[0], nil
}

// FindCommonSlots returns up to limit free slots in ascending start order.
// Every candidate start sits on the step grid, so consecutive results may
// overlap each other; they are alternatives, not a sequence.
func (e *Engine) FindCommonSlots(ctx context.Context, busy BusyChecker, participantIDs []int64, window model.TimeWindow, duration time.Duration, limit int) ([]model.Slot, error) {
	if limit <= 0 || len(participantIDs) == 0 || duration <= 0 || window.Duration() < duration {
		return nil, nil
	}

	var found []model.Slot
	cursor := CeilToStep(window.Start, e.step)
	for !cursor.Add(duration).After(window.End) && len(found) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := cursor.Add(duration)
		free, err := e.IsFree(ctx, busy, participantIDs, cursor, end)
		if err != nil {
			return nil, err
		}
		if free {
			found = append(found, model.Slot{Start: cursor, End: end})
		}
		cursor = cursor.Add(e.step)
	}
	return found, nil
}
