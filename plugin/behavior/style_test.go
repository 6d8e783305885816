package behavior

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestStyleDataFloor tests that fewer than three interactions always yield
// balanced.
func TestStyleDataFloor(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(nil, nil)

	tracker.Record(ctx, RecordInteraction{UserID: "user-1", Kind: KindMessage, InputText: "keep it short"})
	tracker.Record(ctx, RecordInteraction{UserID: "user-1", Kind: KindMessage, InputText: "just a quick summary"})
	require.Equal(t, StyleBalanced, tracker.ResponseStyleFor(ctx, "user-1"))

	tracker.Record(ctx, RecordInteraction{UserID: "user-1", Kind: KindMessage, InputText: "brief answer please"})
	require.Equal(t, StyleConcise, tracker.ResponseStyleFor(ctx, "user-1"))
}

// TestStyleDetailed tests detection of detail-seeking phrasing.
func TestStyleDetailed(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(nil, nil)

	for _, input := range []string{
		"can you explain how this works?",
		"tell me more about the sync engine",
		"please elaborate on that last point",
	} {
		tracker.Record(ctx, RecordInteraction{UserID: "user-1", Kind: KindMessage, InputText: input})
	}

	require.Equal(t, StyleDetailed, tracker.ResponseStyleFor(ctx, "user-1"))
}

// TestStyleTieBalanced tests that an interaction may count toward both sets
// and that ties resolve to balanced.
func TestStyleTieBalanced(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(nil, nil)

	for i := 0; i < 3; i++ {
		tracker.Record(ctx, RecordInteraction{
			UserID:    "user-1",
			Kind:      KindMessage,
			InputText: "give me a brief summary with more details on the edge cases",
		})
	}

	require.Equal(t, StyleBalanced, tracker.ResponseStyleFor(ctx, "user-1"))
}

// TestStyleWindowExcludesOld tests that interactions older than seven days
// do not vote.
func TestStyleWindowExcludesOld(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(nil, nil)

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		tracker.Record(ctx, RecordInteraction{UserID: "user-1", Kind: KindMessage, InputText: "short answer please"})
	}
	require.Equal(t, StyleConcise, tracker.ResponseStyleFor(ctx, "user-1"))

	clock = clock.Add(8 * 24 * time.Hour)
	tracker.Record(ctx, RecordInteraction{UserID: "user-1", Kind: KindMessage, InputText: "explain the details"})

	require.Equal(t, StyleDetailed, tracker.ResponseStyleFor(ctx, "user-1"))
}

// TestStyleWindowBoundary tests the exact seven-day edge: an interaction
// exactly that old is excluded, one second younger still votes.
func TestStyleWindowBoundary(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(nil, nil)

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		tracker.Record(ctx, RecordInteraction{UserID: "user-1", Kind: KindMessage, InputText: "quick one"})
	}

	clock = clock.Add(7*24*time.Hour - time.Second)
	require.Equal(t, StyleConcise, tracker.ResponseStyleFor(ctx, "user-1"))

	clock = clock.Add(time.Second)
	require.Equal(t, StyleBalanced, tracker.ResponseStyleFor(ctx, "user-1"))
}

// TestStylePerUserIsolation tests that users never vote on each other.
func TestStylePerUserIsolation(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(nil, nil)

	for i := 0; i < 3; i++ {
		tracker.Record(ctx, RecordInteraction{UserID: "alice", Kind: KindMessage, InputText: "keep it brief"})
		tracker.Record(ctx, RecordInteraction{UserID: "bob", Kind: KindMessage, InputText: "explain it to me"})
	}

	require.Equal(t, StyleConcise, tracker.ResponseStyleFor(ctx, "alice"))
	require.Equal(t, StyleDetailed, tracker.ResponseStyleFor(ctx, "bob"))
	require.Equal(t, StyleBalanced, tracker.ResponseStyleFor(ctx, "carol"))
}
