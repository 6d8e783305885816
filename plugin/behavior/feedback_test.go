package behavior

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestExtractFeedbackSignals tests the phrase-to-signal mapping.
func TestExtractFeedbackSignals(t *testing.T) {
	tests := []struct {
		name     string
		feedback string
		want     FeedbackSignals
	}{
		{name: "too long", feedback: "way too long", want: FeedbackSignals{TooLong: true}},
		{name: "verbose", feedback: "a bit Verbose for my taste", want: FeedbackSignals{TooLong: true}},
		{name: "too short", feedback: "that was too short", want: FeedbackSignals{TooShort: true}},
		{name: "brief", feedback: "too brief, give me more next time", want: FeedbackSignals{TooShort: true}},
		{name: "not helpful", feedback: "not helpful at all", want: FeedbackSignals{NotHelpful: true}},
		{name: "useless", feedback: "this was useless", want: FeedbackSignals{NotHelpful: true}},
		{name: "wrong", feedback: "the numbers are wrong", want: FeedbackSignals{Inaccurate: true}},
		{name: "incorrect", feedback: "Incorrect, the API differs", want: FeedbackSignals{Inaccurate: true}},
		{name: "rude", feedback: "that came across as rude", want: FeedbackSignals{ToneIssue: true}},
		{name: "inappropriate", feedback: "inappropriate tone", want: FeedbackSignals{ToneIssue: true}},
		{name: "combined", feedback: "too long and wrong", want: FeedbackSignals{TooLong: true, Inaccurate: true}},
		{name: "neutral", feedback: "great answer, thanks", want: FeedbackSignals{}},
		{name: "empty", feedback: "", want: FeedbackSignals{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, extractFeedbackSignals(tt.feedback))
		})
	}
}

// TestLearnUpdatesPreferences tests the signal-to-preference mapping.
func TestLearnUpdatesPreferences(t *testing.T) {
	ctx := context.Background()

	t.Run("too long shortens responses", func(t *testing.T) {
		tracker := NewTracker(nil, nil)
		tracker.LearnFromFeedback(ctx, "user-1", "too long and rambling", 2)
		profile := tracker.GetProfile(ctx, "user-1")
		require.Equal(t, "shorter", profile.Preferences["response_length"])
	})

	t.Run("too short lengthens responses", func(t *testing.T) {
		tracker := NewTracker(nil, nil)
		tracker.LearnFromFeedback(ctx, "user-1", "too brief", 3)
		profile := tracker.GetProfile(ctx, "user-1")
		require.Equal(t, "longer", profile.Preferences["response_length"])
	})

	t.Run("too long wins over too short", func(t *testing.T) {
		tracker := NewTracker(nil, nil)
		tracker.LearnFromFeedback(ctx, "user-1", "too long yet somehow too brief where it mattered", 2)
		profile := tracker.GetProfile(ctx, "user-1")
		require.Equal(t, "shorter", profile.Preferences["response_length"])
	})

	t.Run("tone issue sets professional tone", func(t *testing.T) {
		tracker := NewTracker(nil, nil)
		tracker.LearnFromFeedback(ctx, "user-1", "honestly a bit rude", 2)
		profile := tracker.GetProfile(ctx, "user-1")
		require.Equal(t, "more_professional", profile.Preferences["tone"])
	})

	t.Run("accuracy signals record without preference changes", func(t *testing.T) {
		tracker := NewTracker(nil, nil)
		tracker.LearnFromFeedback(ctx, "user-1", "not helpful and plain wrong", 1)
		profile := tracker.GetProfile(ctx, "user-1")
		require.Empty(t, profile.Preferences)
	})

	t.Run("later feedback overwrites the preference", func(t *testing.T) {
		tracker := NewTracker(nil, nil)
		tracker.LearnFromFeedback(ctx, "user-1", "too long", 2)
		tracker.LearnFromFeedback(ctx, "user-1", "now too short", 3)
		profile := tracker.GetProfile(ctx, "user-1")
		require.Equal(t, "longer", profile.Preferences["response_length"])
	})
}

// TestLearnCreatesProfile tests that feedback for an unseen user creates
// their profile.
func TestLearnCreatesProfile(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(nil, nil)

	tracker.LearnFromFeedback(ctx, "newcomer", "too verbose", 2)

	tracker.mu.RLock()
	_, ok := tracker.profiles["newcomer"]
	tracker.mu.RUnlock()
	require.True(t, ok)
}

// TestLearnLeavesHistoryAlone tests that feedback touches preferences only,
// not the interaction counters.
func TestLearnLeavesHistoryAlone(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(nil, nil)

	tracker.Record(ctx, RecordInteraction{UserID: "user-1", Kind: KindMessage, SatisfactionScore: ptr(4.0)})
	tracker.LearnFromFeedback(ctx, "user-1", "too long", 2)

	profile := tracker.GetProfile(ctx, "user-1")
	require.Equal(t, 1, profile.InteractionCount)
	require.Equal(t, []float64{4.0}, profile.SatisfactionHistory)
}
