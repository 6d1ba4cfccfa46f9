package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/store"
)

// Seed fills an empty store with a demo panel, a candidate and a few busy
// blocks. It does nothing once any participant exists.
func Seed(ctx context.Context, st store.Store, now time.Time, logger *zap.Logger) error {
	seeded := false
	err := st.InTx(ctx, func(tx store.Tx) error {
		exists, err := tx.HasAnyParticipant(ctx)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		panel := []*model.Participant{
			{Name: "Ivan Engineer", Email: "ivan.engineer@example.com", Role: model.RoleEngineer, ChatHandle: "@ivan"},
			{Name: "Olga Engineer", Email: "olga.engineer@example.com", Role: model.RoleEngineer, ChatHandle: "@olga"},
			{Name: "Max TechLead", Email: "max.techlead@example.com", Role: model.RoleTechLead, ChatHandle: "@max"},
			{Name: "Rita Recruiter", Email: "rita.recruiter@example.com", Role: model.RoleRecruiter, ChatHandle: "@rita"},
		}
		for _, p := range panel {
			if err := tx.CreateParticipant(ctx, p); err != nil {
				return fmt.Errorf("seed participant: %w", err)
			}
		}

		candidate := &model.Candidate{
			Name:       "Test Candidate",
			Email:      "candidate@example.com",
			ResumeText: "Synthetic demo resume.\n- 5 years of Go\n- PostgreSQL, gRPC\n- System design (basic)\n",
		}
		if err := tx.CreateCandidate(ctx, candidate); err != nil {
			return fmt.Errorf("seed candidate: %w", err)
		}

		base := now.Truncate(time.Hour).Add(2 * time.Hour)
		blocks := []*model.CalendarBlock{
			{ParticipantID: panel[0].ID, StartsAt: base.Add(time.Hour), EndsAt: base.Add(2 * time.Hour), Title: "Focus"},
			{ParticipantID: panel[1].ID, StartsAt: base.Add(2 * time.Hour), EndsAt: base.Add(3 * time.Hour), Title: "Meeting"},
			{ParticipantID: panel[2].ID, StartsAt: base.Add(90 * time.Minute), EndsAt: base.Add(150 * time.Minute), Title: "1:1"},
		}
		for _, b := range blocks {
			if err := tx.CreateBlock(ctx, b); err != nil {
				return fmt.Errorf("seed calendar block: %w", err)
			}
		}

		seeded = true
		return nil
	})
	if err != nil {
		return err
	}

	if seeded {
		logger.Info("Seeded demo data")
	}
	return nil
}
