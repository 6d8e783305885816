package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/umbralith/userpulse/store"
)

func TestLearningEventStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	created, err := ts.CreateLearningEvent(ctx, &store.LearningEvent{
		UID:                "learn-0001",
		UserID:             "user-7",
		Feedback:           "the answer was way too long",
		SatisfactionScore:  2,
		ImprovementSignals: `{"too_long": true, "too_short": false, "not_helpful": false, "inaccurate": false, "tone_issue": false}`,
		CreatedTs:          time.Now().Unix(),
	})
	require.NoError(t, err)
	require.Greater(t, created.ID, int32(0))

	userID := "user-7"
	list, err := ts.ListLearningEvents(ctx, &store.FindLearningEvent{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "the answer was way too long", list[0].Feedback)
	require.Equal(t, 2.0, list[0].SatisfactionScore)
	require.Contains(t, list[0].ImprovementSignals, `"too_long": true`)

	// Signals default to an empty object
	created, err = ts.CreateLearningEvent(ctx, &store.LearningEvent{
		UID:    "learn-0002",
		UserID: "user-7",
	})
	require.NoError(t, err)

	uid := "learn-0002"
	list, err = ts.ListLearningEvents(ctx, &store.FindLearningEvent{UID: &uid})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "{}", list[0].ImprovementSignals)

	// Retention delete by cutoff
	cutoff := time.Now().Unix() + 1
	err = ts.DeleteLearningEvent(ctx, &store.DeleteLearningEvent{CreatedTsBefore: &cutoff})
	require.NoError(t, err)

	list, err = ts.ListLearningEvents(ctx, &store.FindLearningEvent{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, list, 0)

	err = ts.DeleteLearningEvent(ctx, &store.DeleteLearningEvent{})
	require.Error(t, err)
}
