package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/umbralith/userpulse/plugin/behavior"
	apierrors "github.com/umbralith/userpulse/server/internal/errors"
)

// ErrorResponse is the JSON envelope for request failures.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorJSON(c echo.Context, status int, err *apierrors.APIError) error {
	return c.JSON(status, ErrorResponse{Code: string(err.Code), Message: err.Message})
}

// RecordInteractionRequest represents one user-agent exchange to log.
type RecordInteractionRequest struct {
	UserID            string         `json:"user_id"`
	Kind              string         `json:"interaction_type"`
	AgentName         string         `json:"agent_name"`
	InputText         string         `json:"input_text"`
	OutputText        string         `json:"output_text"`
	SatisfactionScore *float64       `json:"satisfaction_score"`
	Feedback          *string        `json:"feedback"`
	Metadata          map[string]any `json:"metadata"`
}

// RecordInteractionResponse acknowledges a logged interaction.
type RecordInteractionResponse struct {
	Status string `json:"status"`
}

// RecordInteraction logs one user-agent exchange.
// POST /api/v1/interactions
func (s *APIV1Service) RecordInteraction(c echo.Context) error {
	var req RecordInteractionRequest
	if err := c.Bind(&req); err != nil {
		slog.Warn("Invalid interaction payload", "error", err)
		return errorJSON(c, http.StatusBadRequest, apierrors.InvalidArgument("malformed request body"))
	}
	if req.UserID == "" {
		slog.Warn("Interaction request missing user_id")
		return errorJSON(c, http.StatusBadRequest, apierrors.InvalidArgument("user_id is required"))
	}

	kind := behavior.InteractionKind(req.Kind)
	if kind == "" {
		kind = behavior.KindMessage
	}
	s.Behavior.Record(c.Request().Context(), behavior.RecordInteraction{
		UserID:            req.UserID,
		Kind:              kind,
		AgentName:         req.AgentName,
		InputText:         req.InputText,
		OutputText:        req.OutputText,
		SatisfactionScore: req.SatisfactionScore,
		Feedback:          req.Feedback,
		Metadata:          req.Metadata,
	})

	return c.JSON(http.StatusOK, RecordInteractionResponse{Status: "recorded"})
}

// GetUserProfile returns the tracked profile for one user. Unseen users get
// an empty profile rather than a 404 so agents can call this unconditionally.
// GET /api/v1/users/:user/profile
func (s *APIV1Service) GetUserProfile(c echo.Context) error {
	userID := c.Param("user")
	if userID == "" {
		return errorJSON(c, http.StatusBadRequest, apierrors.InvalidArgument("user is required"))
	}

	userProfile := s.Behavior.GetProfile(c.Request().Context(), userID)
	return c.JSON(http.StatusOK, userProfile)
}

// ResponseStyleResponse represents a user's derived response style.
type ResponseStyleResponse struct {
	UserID         string                 `json:"user_id"`
	PreferredStyle behavior.ResponseStyle `json:"preferred_style"`
}

// GetResponseStyle returns the response style derived from the user's recent
// interactions.
// GET /api/v1/users/:user/style
func (s *APIV1Service) GetResponseStyle(c echo.Context) error {
	userID := c.Param("user")
	if userID == "" {
		return errorJSON(c, http.StatusBadRequest, apierrors.InvalidArgument("user is required"))
	}

	style := s.Behavior.ResponseStyleFor(c.Request().Context(), userID)
	return c.JSON(http.StatusOK, ResponseStyleResponse{UserID: userID, PreferredStyle: style})
}

// PersonalizePromptRequest carries the base prompt to personalize.
type PersonalizePromptRequest struct {
	BasePrompt string `json:"base_prompt"`
}

// PersonalizePromptResponse carries the personalized prompt.
type PersonalizePromptResponse struct {
	Prompt string `json:"prompt"`
}

// PersonalizePrompt appends per-user directives to a base system prompt.
// POST /api/v1/users/:user/personalize
func (s *APIV1Service) PersonalizePrompt(c echo.Context) error {
	userID := c.Param("user")
	if userID == "" {
		return errorJSON(c, http.StatusBadRequest, apierrors.InvalidArgument("user is required"))
	}

	var req PersonalizePromptRequest
	if err := c.Bind(&req); err != nil {
		slog.Warn("Invalid personalize payload", "user_id", userID, "error", err)
		return errorJSON(c, http.StatusBadRequest, apierrors.InvalidArgument("malformed request body"))
	}

	prompt := s.Behavior.PersonalizePrompt(c.Request().Context(), userID, req.BasePrompt)
	return c.JSON(http.StatusOK, PersonalizePromptResponse{Prompt: prompt})
}

// LearnFromFeedbackRequest carries explicit user feedback on an interaction.
type LearnFromFeedbackRequest struct {
	Feedback          string  `json:"feedback"`
	SatisfactionScore float64 `json:"satisfaction_score"`
}

// LearnFromFeedbackResponse returns the preferences after the update.
type LearnFromFeedbackResponse struct {
	Status      string            `json:"status"`
	Preferences map[string]string `json:"preferences"`
}

// LearnFromFeedback folds explicit feedback into the user's preferences.
// POST /api/v1/users/:user/feedback
func (s *APIV1Service) LearnFromFeedback(c echo.Context) error {
	userID := c.Param("user")
	if userID == "" {
		return errorJSON(c, http.StatusBadRequest, apierrors.InvalidArgument("user is required"))
	}

	var req LearnFromFeedbackRequest
	if err := c.Bind(&req); err != nil {
		slog.Warn("Invalid feedback payload", "user_id", userID, "error", err)
		return errorJSON(c, http.StatusBadRequest, apierrors.InvalidArgument("malformed request body"))
	}
	if req.Feedback == "" {
		return errorJSON(c, http.StatusBadRequest, apierrors.InvalidArgument("feedback is required"))
	}

	ctx := c.Request().Context()
	s.Behavior.LearnFromFeedback(ctx, userID, req.Feedback, req.SatisfactionScore)

	userProfile := s.Behavior.GetProfile(ctx, userID)
	return c.JSON(http.StatusOK, LearnFromFeedbackResponse{
		Status:      "recorded",
		Preferences: userProfile.Preferences,
	})
}

// GetReliabilityMetrics returns store-wide satisfaction and off-track
// aggregates.
// GET /api/v1/metrics/reliability
func (s *APIV1Service) GetReliabilityMetrics(c echo.Context) error {
	report, err := s.Behavior.ReliabilityMetrics(c.Request().Context())
	if err != nil {
		if errors.Is(err, behavior.ErrNoData) {
			return errorJSON(c, http.StatusNotFound, apierrors.NoData("no interaction data available"))
		}
		slog.Error("Reliability metrics failed", "error", err)
		return errorJSON(c, http.StatusServiceUnavailable, apierrors.ServiceUnavailable("metrics unavailable"))
	}
	return c.JSON(http.StatusOK, report)
}
