package behavior

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// offTrackScoreThreshold marks an interaction off-track when its
	// satisfaction score falls strictly below it.
	offTrackScoreThreshold = 3.0

	// offTrackPromptThreshold is the counter level the personalizer checks
	// before adding a corrective directive. Intentionally separate from
	// offTrackScoreThreshold; the two govern different decisions.
	offTrackPromptThreshold = 2
)

// offTrackIndicators signal confusion or rejection. Checked in order
// against input and feedback text; the first hit ends the scan.
var offTrackIndicators = []string{
	"i don't understand",
	"that's not what i asked",
	"wrong",
	"no, that's not right",
	"you're not helping",
	"this is useless",
}

// detectOffTrackLocked runs the off-track heuristic against a freshly
// recorded interaction and bumps the user's counter when it fires. At most
// one increment happens per call even if several conditions hold. Caller
// must hold the write lock.
func (t *Tracker) detectOffTrackLocked(ctx context.Context, interaction *Interaction) bool {
	_, span := t.tracer.StartSpan(ctx, "detect_off_track")
	defer t.tracer.EndSpan(span)

	indicator, ok := offTrackTrigger(interaction)
	if !ok {
		return false
	}

	t.offTrack[interaction.UserID]++
	span.SetAttribute("indicator", indicator)
	slog.Debug("user appears off-track", "user_id", interaction.UserID, "indicator", indicator)
	return true
}

// offTrackTrigger reports whether the interaction signals the user is
// off-track and which indicator fired. Phrase matches are substring based,
// case-insensitive, and take precedence over the low-score check.
func offTrackTrigger(interaction *Interaction) (string, bool) {
	inputLower := strings.ToLower(interaction.InputText)
	feedbackLower := ""
	if interaction.Feedback != nil {
		feedbackLower = strings.ToLower(*interaction.Feedback)
	}

	for _, indicator := range offTrackIndicators {
		if strings.Contains(inputLower, indicator) || strings.Contains(feedbackLower, indicator) {
			return indicator, true
		}
	}

	if interaction.SatisfactionScore != nil && *interaction.SatisfactionScore < offTrackScoreThreshold {
		return "low_satisfaction_score", true
	}

	return "", false
}
