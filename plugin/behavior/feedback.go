package behavior

import (
	"context"
	"log/slog"
	"strings"
)

// LearnFromFeedback maps free-text feedback to structured preference
// updates on the user's profile and mirrors the extracted signals. It
// always succeeds locally; the mirror outcome never affects the profile
// mutation already applied.
func (t *Tracker) LearnFromFeedback(ctx context.Context, userID string, feedback string, satisfactionScore float64) {
	ctx, span := t.tracer.StartSpan(ctx, "user_behavior.learn_from_feedback")
	defer t.tracer.EndSpan(span)
	span.SetAttribute("user_id", userID)
	span.SetAttribute("satisfaction_score", satisfactionScore)

	signals := extractFeedbackSignals(feedback)

	t.mu.Lock()
	profile := t.profileLocked(userID)
	signals.apply(profile.Preferences)
	t.mu.Unlock()

	slog.Debug("learned from feedback",
		"user_id", userID,
		"too_long", signals.TooLong,
		"too_short", signals.TooShort,
		"not_helpful", signals.NotHelpful,
		"inaccurate", signals.Inaccurate,
		"tone_issue", signals.ToneIssue,
	)

	t.mirrorLearningAsync(userID, feedback, satisfactionScore, signals)
}

// extractFeedbackSignals evaluates the five improvement signals with
// case-insensitive substring checks.
func extractFeedbackSignals(feedback string) FeedbackSignals {
	feedbackLower := strings.ToLower(feedback)
	has := func(sub string) bool { return strings.Contains(feedbackLower, sub) }

	return FeedbackSignals{
		TooLong:    has("too long") || has("verbose"),
		TooShort:   has("too short") || has("brief"),
		NotHelpful: has("not helpful") || has("useless"),
		Inaccurate: has("wrong") || has("incorrect"),
		ToneIssue:  has("rude") || has("inappropriate"),
	}
}

// apply folds the signals into a preference map. TooLong wins over TooShort
// when both match. NotHelpful and Inaccurate stay signals only: they are
// recorded but drive no preference yet.
func (s FeedbackSignals) apply(preferences map[string]string) {
	if s.TooLong {
		preferences["response_length"] = "shorter"
	} else if s.TooShort {
		preferences["response_length"] = "longer"
	}

	if s.ToneIssue {
		preferences["tone"] = "more_professional"
	}
}
