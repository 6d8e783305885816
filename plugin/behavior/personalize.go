package behavior

import (
	"context"
	"strings"
)

const (
	promptNotesHeader = "\n\nPERSONALIZATION NOTES:\n"

	conciseDirective         = "Be concise and to the point. Avoid unnecessary details."
	detailedDirective        = "Provide detailed explanations and context."
	offTrackDirective        = "The user seems confused or off-track. Be extra clear, ask clarifying questions if needed, and ensure you're addressing their actual question."
	lowSatisfactionDirective = "Previous interactions had low satisfaction. Be more helpful, accurate, and empathetic."

	// lowSatisfactionThreshold flags a user when the mean of their recent
	// scores falls below it.
	lowSatisfactionThreshold = 4.0

	// recentScoreWindow bounds how many trailing scores feed the mean.
	recentScoreWindow = 5
)

// PersonalizePrompt appends personalization directives to basePrompt, in
// fixed precedence: response style, off-track handling, low satisfaction.
// When no directive applies the base prompt comes back unchanged.
func (t *Tracker) PersonalizePrompt(ctx context.Context, userID string, basePrompt string) string {
	ctx, span := t.tracer.StartSpan(ctx, "personalize_prompt")
	defer t.tracer.EndSpan(span)
	span.SetAttribute("user_id", userID)

	style := t.ResponseStyleFor(ctx, userID)

	t.mu.Lock()
	profile := t.profileLocked(userID)
	history := append([]float64(nil), profile.SatisfactionHistory...)
	offTrackCount := t.offTrack[userID]
	t.mu.Unlock()

	adjustments := buildAdjustments(style, offTrackCount, history)
	span.SetAttribute("adjustments", len(adjustments))
	return renderPrompt(basePrompt, adjustments)
}

func buildAdjustments(style ResponseStyle, offTrackCount int, history []float64) []string {
	var adjustments []string

	switch style {
	case StyleConcise:
		adjustments = append(adjustments, conciseDirective)
	case StyleDetailed:
		adjustments = append(adjustments, detailedDirective)
	}

	if offTrackCount > offTrackPromptThreshold {
		adjustments = append(adjustments, offTrackDirective)
	}

	if len(history) > 0 && recentAverage(history, recentScoreWindow) < lowSatisfactionThreshold {
		adjustments = append(adjustments, lowSatisfactionDirective)
	}

	return adjustments
}

// recentAverage returns the mean of the trailing n scores.
func recentAverage(scores []float64, n int) float64 {
	if len(scores) == 0 {
		return 0
	}
	start := len(scores) - n
	if start < 0 {
		start = 0
	}
	recent := scores[start:]

	sum := 0.0
	for _, score := range recent {
		sum += score
	}
	return sum / float64(len(recent))
}

func renderPrompt(basePrompt string, adjustments []string) string {
	if len(adjustments) == 0 {
		return basePrompt
	}

	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString(promptNotesHeader)
	for i, adjustment := range adjustments {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(adjustment)
	}
	return b.String()
}
