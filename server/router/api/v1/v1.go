package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/umbralith/userpulse/internal/profile"
	"github.com/umbralith/userpulse/plugin/behavior"
	"github.com/umbralith/userpulse/server/internal/observability"
	"github.com/umbralith/userpulse/store"
)

type APIV1Service struct {
	Profile  *profile.Profile
	Store    *store.Store
	Behavior behavior.Service
	Metrics  *observability.Metrics
}

// NewAPIV1Service wires the behavior service and the mirror store into the
// HTTP surface. Store may be nil when mirroring is disabled; Metrics may be
// nil when the server runs without serving counters.
func NewAPIV1Service(profile *profile.Profile, store *store.Store, behaviorService behavior.Service, metrics *observability.Metrics) *APIV1Service {
	return &APIV1Service{
		Profile:  profile,
		Store:    store,
		Behavior: behaviorService,
		Metrics:  metrics,
	}
}

// RegisterRoutes registers the v1 API routes with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	apiV1 := echoServer.Group("/api/v1")

	apiV1.POST("/interactions", s.RecordInteraction)
	apiV1.GET("/users/:user/profile", s.GetUserProfile)
	apiV1.GET("/users/:user/style", s.GetResponseStyle)
	apiV1.POST("/users/:user/personalize", s.PersonalizePrompt)
	apiV1.POST("/users/:user/feedback", s.LearnFromFeedback)
	apiV1.GET("/metrics/reliability", s.GetReliabilityMetrics)
}
