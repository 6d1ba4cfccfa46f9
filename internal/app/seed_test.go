package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/store"
	"github.com/Freeeeeet/interview_autopilot/internal/store/memstore"
)

func TestSeedOnlyWhenEmpty(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	now := time.Date(2030, 5, 6, 9, 20, 0, 0, time.UTC)
	logger := zaptest.NewLogger(t)

	require.NoError(t, Seed(ctx, st, now, logger))
	require.NoError(t, Seed(ctx, st, now, logger))

	err := st.InTx(ctx, func(tx store.Tx) error {
		participants, err := tx.ListParticipants(ctx)
		require.NoError(t, err)
		assert.Len(t, participants, 4)

		candidates, err := tx.ListCandidates(ctx)
		require.NoError(t, err)
		assert.Len(t, candidates, 1)

		blocks, err := tx.ListBlocks(ctx, participants[0].ID, model.TimeWindow{Start: now, End: now.Add(24 * time.Hour)})
		require.NoError(t, err)
		require.Len(t, blocks, 1)
		assert.Equal(t, "Focus", blocks[0].Title)
		assert.True(t, blocks[0].StartsAt.Equal(time.Date(2030, 5, 6, 12, 0, 0, 0, time.UTC)))
		return nil
	})
	require.NoError(t, err)
}
