package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/interview_autopilot/internal/repository/base"
	"github.com/Freeeeeet/interview_autopilot/internal/store"
)

// Repositories bundles every table repository bound to one connection or
// transaction. Together they satisfy store.Tx.
type Repositories struct {
	*ParticipantRepository
	*CandidateRepository
	*CalendarRepository
	*SchedulingRepository
	*InterviewRepository
	*FeedbackRepository
	*ATSRepository
}

var _ store.Tx = (*Repositories)(nil)

// NewRepositories binds every table repository to db.
func NewRepositories(db base.DBTX) *Repositories {
	return &Repositories{
		ParticipantRepository: NewParticipantRepository(db),
		CandidateRepository:   NewCandidateRepository(db),
		CalendarRepository:    NewCalendarRepository(db),
		SchedulingRepository:  NewSchedulingRepository(db),
		InterviewRepository:   NewInterviewRepository(db),
		FeedbackRepository:    NewFeedbackRepository(db),
		ATSRepository:         NewATSRepository(db),
	}
}

// TxStarter is satisfied by *pgxpool.Pool.
type TxStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is the PostgreSQL implementation of store.Store.
type Store struct {
	pool TxStarter
}

// NewStore returns a store whose transactions are started on pool.
func NewStore(pool TxStarter) *Store {
	return &Store{pool: pool}
}

// InTx runs fn in a READ COMMITTED transaction; fn's error rolls it back.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(NewRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
