package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/umbralith/userpulse/plugin/behavior"
)

// TestRecordInteractionHandler tests the interaction logging endpoint.
func TestRecordInteractionHandler(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		mock := behavior.NewMockService()
		svc := newTestService(mock)

		body := `{
			"user_id": "alice",
			"agent_name": "support-bot",
			"input_text": "give me a quick summary",
			"output_text": "Here it is.",
			"satisfaction_score": 4.5,
			"metadata": {"channel": "web"}
		}`
		c, rec := newEchoContext(http.MethodPost, "/api/v1/interactions", body)

		require.NoError(t, svc.RecordInteraction(c))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"status": "recorded"}`, rec.Body.String())

		require.Len(t, mock.RecordedInteractions, 1)
		got := mock.RecordedInteractions[0]
		require.Equal(t, "alice", got.UserID)
		require.Equal(t, behavior.KindMessage, got.Kind)
		require.Equal(t, "support-bot", got.AgentName)
		require.Equal(t, "give me a quick summary", got.InputText)
		require.NotNil(t, got.SatisfactionScore)
		require.Equal(t, 4.5, *got.SatisfactionScore)
		require.Nil(t, got.Feedback)
		require.Equal(t, map[string]any{"channel": "web"}, got.Metadata)
	})

	t.Run("explicit kind is preserved", func(t *testing.T) {
		mock := behavior.NewMockService()
		svc := newTestService(mock)

		body := `{"user_id": "alice", "interaction_type": "submission"}`
		c, rec := newEchoContext(http.MethodPost, "/api/v1/interactions", body)

		require.NoError(t, svc.RecordInteraction(c))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, mock.RecordedInteractions, 1)
		require.Equal(t, behavior.KindSubmission, mock.RecordedInteractions[0].Kind)
	})

	t.Run("missing user_id", func(t *testing.T) {
		mock := behavior.NewMockService()
		svc := newTestService(mock)

		body := `{"input_text": "hello"}`
		c, rec := newEchoContext(http.MethodPost, "/api/v1/interactions", body)

		require.NoError(t, svc.RecordInteraction(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "INVALID_ARGUMENT", decodeError(t, rec).Code)
		require.Empty(t, mock.RecordedInteractions)
	})

	t.Run("malformed body", func(t *testing.T) {
		mock := behavior.NewMockService()
		svc := newTestService(mock)

		c, rec := newEchoContext(http.MethodPost, "/api/v1/interactions", `{"user_id": `)

		require.NoError(t, svc.RecordInteraction(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "INVALID_ARGUMENT", decodeError(t, rec).Code)
		require.Empty(t, mock.RecordedInteractions)
	})
}

// TestGetUserProfileHandler tests profile retrieval, including the lazy
// empty profile for unseen users.
func TestGetUserProfileHandler(t *testing.T) {
	mock := behavior.NewMockService()
	mock.Profiles["alice"] = behavior.UserProfile{
		UserID:              "alice",
		InteractionCount:    3,
		PreferredStyle:      behavior.StyleConcise,
		SatisfactionHistory: []float64{4, 5},
		Preferences:         map[string]string{"response_length": "shorter"},
	}
	svc := newTestService(mock)

	t.Run("known user", func(t *testing.T) {
		c, rec := newEchoContext(http.MethodGet, "/api/v1/users/alice/profile", "")
		c.SetParamNames("user")
		c.SetParamValues("alice")

		require.NoError(t, svc.GetUserProfile(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var got behavior.UserProfile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Equal(t, "alice", got.UserID)
		require.Equal(t, 3, got.InteractionCount)
		require.Equal(t, behavior.StyleConcise, got.PreferredStyle)
		require.Equal(t, []float64{4, 5}, got.SatisfactionHistory)
		require.Equal(t, "shorter", got.Preferences["response_length"])
	})

	t.Run("unseen user", func(t *testing.T) {
		c, rec := newEchoContext(http.MethodGet, "/api/v1/users/ghost/profile", "")
		c.SetParamNames("user")
		c.SetParamValues("ghost")

		require.NoError(t, svc.GetUserProfile(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var got behavior.UserProfile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Equal(t, "ghost", got.UserID)
		require.Zero(t, got.InteractionCount)
		require.Equal(t, behavior.StyleBalanced, got.PreferredStyle)
	})
}

// TestGetResponseStyleHandler tests the derived style endpoint.
func TestGetResponseStyleHandler(t *testing.T) {
	mock := behavior.NewMockService()
	mock.Styles["alice"] = behavior.StyleConcise
	svc := newTestService(mock)

	c, rec := newEchoContext(http.MethodGet, "/api/v1/users/alice/style", "")
	c.SetParamNames("user")
	c.SetParamValues("alice")

	require.NoError(t, svc.GetResponseStyle(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"user_id": "alice", "preferred_style": "concise"}`, rec.Body.String())
}

// TestPersonalizePromptHandler tests prompt personalization passthrough.
func TestPersonalizePromptHandler(t *testing.T) {
	t.Run("no signals returns base prompt", func(t *testing.T) {
		mock := behavior.NewMockService()
		svc := newTestService(mock)

		body := `{"base_prompt": "You are a helpful assistant."}`
		c, rec := newEchoContext(http.MethodPost, "/api/v1/users/alice/personalize", body)
		c.SetParamNames("user")
		c.SetParamValues("alice")

		require.NoError(t, svc.PersonalizePrompt(c))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"prompt": "You are a helpful assistant."}`, rec.Body.String())
	})

	t.Run("personalized prompt is returned", func(t *testing.T) {
		mock := behavior.NewMockService()
		mock.PersonalizeFn = func(userID, basePrompt string) string {
			return basePrompt + "\n\nPERSONALIZATION NOTES:\n- Be concise and to the point. Avoid unnecessary details."
		}
		svc := newTestService(mock)

		body := `{"base_prompt": "You are a helpful assistant."}`
		c, rec := newEchoContext(http.MethodPost, "/api/v1/users/alice/personalize", body)
		c.SetParamNames("user")
		c.SetParamValues("alice")

		require.NoError(t, svc.PersonalizePrompt(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var got PersonalizePromptResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Contains(t, got.Prompt, "PERSONALIZATION NOTES:")
	})
}

// TestLearnFromFeedbackHandler tests the feedback endpoint and its updated
// preferences response.
func TestLearnFromFeedbackHandler(t *testing.T) {
	t.Run("valid feedback", func(t *testing.T) {
		mock := behavior.NewMockService()
		mock.Profiles["alice"] = behavior.UserProfile{
			UserID:      "alice",
			Preferences: map[string]string{"response_length": "shorter"},
		}
		svc := newTestService(mock)

		body := `{"feedback": "way too long", "satisfaction_score": 2}`
		c, rec := newEchoContext(http.MethodPost, "/api/v1/users/alice/feedback", body)
		c.SetParamNames("user")
		c.SetParamValues("alice")

		require.NoError(t, svc.LearnFromFeedback(c))
		require.Equal(t, http.StatusOK, rec.Code)

		require.Len(t, mock.LearnedFeedback, 1)
		require.Equal(t, "alice", mock.LearnedFeedback[0].UserID)
		require.Equal(t, "way too long", mock.LearnedFeedback[0].Feedback)
		require.Equal(t, 2.0, mock.LearnedFeedback[0].SatisfactionScore)

		var got LearnFromFeedbackResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Equal(t, "recorded", got.Status)
		require.Equal(t, "shorter", got.Preferences["response_length"])
	})

	t.Run("missing feedback", func(t *testing.T) {
		mock := behavior.NewMockService()
		svc := newTestService(mock)

		body := `{"satisfaction_score": 2}`
		c, rec := newEchoContext(http.MethodPost, "/api/v1/users/alice/feedback", body)
		c.SetParamNames("user")
		c.SetParamValues("alice")

		require.NoError(t, svc.LearnFromFeedback(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "INVALID_ARGUMENT", decodeError(t, rec).Code)
		require.Empty(t, mock.LearnedFeedback)
	})
}

// TestGetReliabilityMetricsHandler tests the metrics endpoint, including the
// no-data and failure envelopes.
func TestGetReliabilityMetricsHandler(t *testing.T) {
	t.Run("report", func(t *testing.T) {
		mock := behavior.NewMockService()
		mock.Report = &behavior.ReliabilityReport{
			TotalInteractions:   10,
			UniqueUsers:         4,
			AverageSatisfaction: 4.2,
			OffTrackRate:        0.25,
			AgentPerformance: map[string]behavior.AgentPerformance{
				"support-bot": {Count: 6, AverageSatisfaction: 4.5},
			},
			GeneratedAt: time.Now(),
		}
		svc := newTestService(mock)

		c, rec := newEchoContext(http.MethodGet, "/api/v1/metrics/reliability", "")

		require.NoError(t, svc.GetReliabilityMetrics(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var got behavior.ReliabilityReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Equal(t, 10, got.TotalInteractions)
		require.Equal(t, 4, got.UniqueUsers)
		require.Equal(t, 4.2, got.AverageSatisfaction)
		require.Equal(t, 0.25, got.OffTrackRate)
		require.Equal(t, 6, got.AgentPerformance["support-bot"].Count)
	})

	t.Run("no data", func(t *testing.T) {
		mock := behavior.NewMockService()
		mock.ReportErr = behavior.ErrNoData
		svc := newTestService(mock)

		c, rec := newEchoContext(http.MethodGet, "/api/v1/metrics/reliability", "")

		require.NoError(t, svc.GetReliabilityMetrics(c))
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "NO_DATA", decodeError(t, rec).Code)
	})
}

// newEchoContext builds an echo context around a recorded request.
func newEchoContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// newTestService creates an APIV1Service backed by the mock tracker.
func newTestService(mock behavior.Service) *APIV1Service {
	return &APIV1Service{Behavior: mock}
}
