package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/interview_autopilot/internal/service"
)

type Ticker interface {
	Tick(ctx context.Context, now time.Time) service.TickReport
}

// Scheduler drives the orchestration tick from a single goroutine, so two
// ticks never overlap.
type Scheduler struct {
	ticker   Ticker
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	done     chan struct{}
}

func NewScheduler(ticker Ticker, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		ticker:   ticker,
		interval: interval,
		now:      time.Now,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background loop and returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	go s.run(ctx)
}

// Stop signals the loop and waits for the in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	if s.started.Load() {
		<-s.done
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	// First tick runs right away.
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-s.stopChan:
			s.logger.Info("Orchestration loop stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Orchestration loop cancelled")
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Tick panicked", zap.Any("panic", r))
		}
	}()

	s.ticker.Tick(ctx, s.now())
}
