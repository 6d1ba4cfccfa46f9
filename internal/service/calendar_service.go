package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Freeeeeet/interview_autopilot/internal/metrics"
	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/store"
)

const ExternalBlockTitle = "External busy"

// BusySource reports busy periods of an external calendar.
type BusySource interface {
	BusyIntervals(ctx context.Context, calendarID string, window model.TimeWindow) ([]model.TimeWindow, error)
}

type CalendarService struct {
	store  store.Store
	source BusySource
	logger *zap.Logger
}

// NewCalendarService accepts a nil source; imports then fail with
// ErrImportDisabled.
func NewCalendarService(st store.Store, source BusySource, logger *zap.Logger) *CalendarService {
	return &CalendarService{store: st, source: source, logger: logger}
}

// ImportBusy copies the participant's external busy time inside window
// into calendar blocks and returns the blocks it created. Intervals that
// already exist as blocks are skipped, so repeated imports are harmless.
func (s *CalendarService) ImportBusy(ctx context.Context, participantID int64, window model.TimeWindow) ([]*model.CalendarBlock, error) {
	if s.source == nil {
		return nil, ErrImportDisabled
	}
	if !window.IsValid() {
		return nil, ErrInvalidWindow
	}

	var participant *model.Participant
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		found, err := tx.GetParticipantsByIDs(ctx, []int64{participantID})
		if err != nil {
			return fmt.Errorf("get participant: %w", err)
		}
		if len(found) == 0 {
			return ErrParticipantNotFound
		}
		participant = found[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	busy, err := s.source.BusyIntervals(ctx, participant.Email, window)
	if err != nil {
		return nil, fmt.Errorf("fetch busy intervals for participant %d: %w", participantID, err)
	}

	var created []*model.CalendarBlock
	err = s.store.InTx(ctx, func(tx store.Tx) error {
		existing, err := tx.ListBlocks(ctx, participantID, window)
		if err != nil {
			return fmt.Errorf("list blocks: %w", err)
		}
		seen := make(map[[2]int64]bool, len(existing))
		for _, b := range existing {
			seen[windowKey(b.Window())] = true
		}

		for _, w := range busy {
			key := windowKey(w)
			if seen[key] {
				continue
			}
			seen[key] = true

			block := &model.CalendarBlock{
				ParticipantID: participantID,
				StartsAt:      w.Start,
				EndsAt:        w.End,
				Title:         ExternalBlockTitle,
			}
			if err := tx.CreateBlock(ctx, block); err != nil {
				return err
			}
			created = append(created, block)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CalendarBlocksImported.Add(float64(len(created)))
	s.logger.Info("Calendar imported",
		zap.Int64("participant_id", participantID),
		zap.Int("busy", len(busy)),
		zap.Int("created", len(created)),
	)
	return created, nil
}

func windowKey(w model.TimeWindow) [2]int64 {
	return [2]int64{w.Start.UnixNano(), w.End.UnixNano()}
}
