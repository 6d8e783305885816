package behavior

import (
	"context"
	"strings"
	"time"
)

const (
	// minInteractionsForStyle is the data floor below which style
	// inference always answers balanced.
	minInteractionsForStyle = 3

	// styleWindow restricts style inference to recent interactions.
	styleWindow = 7 * 24 * time.Hour
)

var (
	conciseIndicators  = []string{"short", "brief", "quick", "summary"}
	detailedIndicators = []string{"more", "details", "explain", "elaborate"}
)

// ResponseStyleFor derives the user's preferred response style from their
// interactions inside the trailing seven-day window. An interaction may
// count toward both indicator sets; ties resolve to balanced.
func (t *Tracker) ResponseStyleFor(_ context.Context, userID string) ResponseStyle {
	t.mu.Lock()
	defer t.mu.Unlock()

	profile := t.profileLocked(userID)
	if profile.InteractionCount < minInteractionsForStyle {
		return StyleBalanced
	}

	now := t.now()
	conciseCount := 0
	detailedCount := 0
	for _, interaction := range t.interactions {
		if interaction.UserID != userID || now.Sub(interaction.CreateTime) >= styleWindow {
			continue
		}
		inputLower := strings.ToLower(interaction.InputText)
		if containsAny(inputLower, conciseIndicators) {
			conciseCount++
		}
		if containsAny(inputLower, detailedIndicators) {
			detailedCount++
		}
	}

	switch {
	case conciseCount > detailedCount:
		return StyleConcise
	case detailedCount > conciseCount:
		return StyleDetailed
	default:
		return StyleBalanced
	}
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
