// Package behavior tracks per-user interaction history and derives the
// signals used to personalize agent prompts: off-track detection, response
// style preference, and satisfaction trend. The in-memory model is the
// source of truth; the row store is a best-effort mirror.
package behavior

import (
	"context"
	"time"
)

// Service defines the behavior tracking surface consumed by agents and the
// HTTP layer.
type Service interface {
	// Record logs one user-agent exchange, updates the user's profile and
	// runs off-track detection. It never fails: mirror errors are absorbed.
	Record(ctx context.Context, rec RecordInteraction)

	// GetProfile returns a snapshot of the user's profile, creating an
	// empty one for unseen users.
	GetProfile(ctx context.Context, userID string) UserProfile

	// ResponseStyleFor derives the user's preferred response style from
	// recent interactions.
	ResponseStyleFor(ctx context.Context, userID string) ResponseStyle

	// PersonalizePrompt appends personalization directives to basePrompt.
	// Without applicable signals the prompt is returned unchanged.
	PersonalizePrompt(ctx context.Context, userID string, basePrompt string) string

	// LearnFromFeedback maps free-text feedback to preference updates on
	// the user's profile.
	LearnFromFeedback(ctx context.Context, userID string, feedback string, satisfactionScore float64)

	// ReliabilityMetrics aggregates store-wide metrics. Returns ErrNoData
	// when nothing has been recorded yet.
	ReliabilityMetrics(ctx context.Context) (*ReliabilityReport, error)
}

// InteractionKind categorizes an interaction. Open-ended: callers may pass
// kinds beyond the predefined ones.
type InteractionKind string

const (
	KindMessage    InteractionKind = "message"
	KindResponse   InteractionKind = "response"
	KindSubmission InteractionKind = "submission"
)

// ResponseStyle is a user's preferred response verbosity.
type ResponseStyle string

const (
	StyleConcise  ResponseStyle = "concise"
	StyleDetailed ResponseStyle = "detailed"
	StyleBalanced ResponseStyle = "balanced"
)

// RecordInteraction carries the inputs for Record. Empty or out-of-range
// fields are accepted as-is; the tracker performs no validation.
type RecordInteraction struct {
	UserID            string
	Kind              InteractionKind
	AgentName         string
	InputText         string
	OutputText        string
	SatisfactionScore *float64
	Feedback          *string
	Metadata          map[string]any
}

// Interaction is one logged user-agent exchange. Immutable once recorded.
type Interaction struct {
	UID               string          `json:"uid"`
	UserID            string          `json:"user_id"`
	Kind              InteractionKind `json:"interaction_type"`
	AgentName         string          `json:"agent_name"`
	InputText         string          `json:"input_text"`
	OutputText        string          `json:"output_text"`
	CreateTime        time.Time       `json:"timestamp"`
	SatisfactionScore *float64        `json:"satisfaction_score,omitempty"`
	Feedback          *string         `json:"feedback,omitempty"`
	Metadata          map[string]any  `json:"metadata,omitempty"`
}

// UserProfile aggregates a single user's interaction statistics and learned
// preferences. Snapshots returned by the tracker are copies; mutating them
// does not affect tracker state.
type UserProfile struct {
	UserID              string            `json:"user_id"`
	InteractionCount    int               `json:"interaction_count"`
	PreferredStyle      ResponseStyle     `json:"preferred_style"`
	SatisfactionHistory []float64         `json:"satisfaction_history"`
	LastInteraction     time.Time         `json:"last_interaction"`
	Preferences         map[string]string `json:"preferences"`
}

// FeedbackSignals are the improvement signals extracted from one piece of
// feedback. NotHelpful and Inaccurate are recorded and mirrored but do not
// drive a preference update yet.
type FeedbackSignals struct {
	TooLong    bool `json:"too_long"`
	TooShort   bool `json:"too_short"`
	NotHelpful bool `json:"not_helpful"`
	Inaccurate bool `json:"inaccurate"`
	ToneIssue  bool `json:"tone_issue"`
}

// AgentPerformance summarizes one agent's recorded interactions.
// AverageSatisfaction is 0 when the agent has no scored interactions.
type AgentPerformance struct {
	Count               int     `json:"count"`
	AverageSatisfaction float64 `json:"avg_satisfaction"`
}

// ReliabilityReport is the store-wide metrics snapshot.
type ReliabilityReport struct {
	TotalInteractions   int                         `json:"total_interactions"`
	UniqueUsers         int                         `json:"unique_users"`
	AverageSatisfaction float64                     `json:"average_satisfaction"`
	OffTrackRate        float64                     `json:"off_track_rate"`
	AgentPerformance    map[string]AgentPerformance `json:"agent_performance"`
	GeneratedAt         time.Time                   `json:"timestamp"`
}
