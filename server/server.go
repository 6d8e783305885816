package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/umbralith/userpulse/internal/profile"
	"github.com/umbralith/userpulse/plugin/behavior"
	apierrors "github.com/umbralith/userpulse/server/internal/errors"
	"github.com/umbralith/userpulse/server/internal/observability"
	"github.com/umbralith/userpulse/server/middleware"
	apiv1 "github.com/umbralith/userpulse/server/router/api/v1"
	"github.com/umbralith/userpulse/store"
)

const (
	// metricsWindow is how many recent request durations feed the latency
	// average per route.
	metricsWindow = 1000

	limiterCleanupInterval = 5 * time.Minute
	limiterMaxIdle         = 15 * time.Minute

	healthPingTimeout = 2 * time.Second
)

// Server is the HTTP surface of the behavior tracker. The tracker itself and
// the mirror store are owned by the caller; the server only serves them.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	behavior   behavior.Service
	metrics    *observability.Metrics
	limiter    *middleware.RateLimiter
}

// NewServer assembles the echo instance, middleware chain and v1 routes.
// store may be nil when mirroring is disabled.
func NewServer(profile *profile.Profile, store *store.Store, behaviorService behavior.Service) *Server {
	s := &Server{
		Profile:  profile,
		Store:    store,
		behavior: behaviorService,
		metrics:  observability.NewMetrics(metricsWindow),
		limiter:  middleware.NewRateLimiter(0, 0),
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true

	echoServer.Use(echomw.Recover())
	echoServer.Use(s.requestMiddleware())
	echoServer.Use(s.rateLimitMiddleware())

	echoServer.GET("/healthz", s.healthzHandler)

	apiV1Service := apiv1.NewAPIV1Service(profile, store, behaviorService, s.metrics)
	apiV1Service.RegisterRoutes(echoServer)

	s.echoServer = echoServer
	return s
}

// Start begins serving and blocks until the listener fails or the server is
// shut down. The context bounds the background limiter janitor.
func (s *Server) Start(ctx context.Context) error {
	go s.limiterJanitor(ctx)

	if s.Profile.UNIXSock != "" {
		if err := os.Remove(s.Profile.UNIXSock); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to remove stale socket %s", s.Profile.UNIXSock)
		}
		listener, err := net.Listen("unix", s.Profile.UNIXSock)
		if err != nil {
			return errors.Wrapf(err, "failed to listen on %s", s.Profile.UNIXSock)
		}
		s.echoServer.Listener = listener
		return s.echoServer.Start("")
	}

	return s.echoServer.Start(fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port))
}

// Shutdown stops accepting requests and drains in-flight ones. The tracker
// and the store are closed by the caller, after this returns.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
}

// requestMiddleware installs a request-scoped logging context, echoes the
// request ID back to the client and feeds the serving metrics.
func (s *Server) requestMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var reqCtx *observability.RequestContext
			if requestID := c.Request().Header.Get(echo.HeaderXRequestID); requestID != "" {
				reqCtx = observability.NewRequestContextWithID(nil, requestID, "", "")
			} else {
				reqCtx = observability.NewRequestContext(nil, "", "")
			}
			c.Response().Header().Set(echo.HeaderXRequestID, reqCtx.RequestID)
			c.SetRequest(c.Request().WithContext(observability.WithRequestContext(c.Request().Context(), reqCtx)))

			route := c.Path()
			s.metrics.RecordRequest(route)

			err := next(c)

			s.metrics.RecordDuration(route, reqCtx.Duration())
			status := c.Response().Status
			if err != nil || status >= http.StatusInternalServerError {
				s.metrics.RecordFailure(route)
			}
			reqCtx.Info("request completed",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.Int("status", status),
				slog.Int64("duration_ms", reqCtx.DurationMs()),
			)
			return err
		}
	}
}

// rateLimitMiddleware rejects callers that exceed the per-client allowance.
// Health checks are exempt so orchestrators are never throttled.
func (s *Server) rateLimitMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/healthz" {
				return next(c)
			}
			if !s.limiter.Allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, apiv1.ErrorResponse{
					Code:    string(apierrors.ErrCodeRateLimitExceeded),
					Message: "rate limit exceeded",
				})
			}
			return next(c)
		}
	}
}

// limiterJanitor drops per-client limiter state that has gone idle.
func (s *Server) limiterJanitor(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.limiter.CleanupStale(limiterMaxIdle); removed > 0 {
				slog.Debug("cleaned up idle rate limiters", slog.Int("removed", removed))
			}
		}
	}
}

// HealthResponse reports liveness plus a serving snapshot.
type HealthResponse struct {
	Status      string                         `json:"status"`
	Version     string                         `json:"version"`
	Mode        string                         `json:"mode"`
	Store       string                         `json:"store"`
	SuccessRate float64                        `json:"success_rate"`
	Serving     *observability.MetricsSnapshot `json:"serving"`
}

// healthzHandler reports liveness. A reachable mirror store is not required
// for "ok": mirroring is best-effort and may be disabled outright.
func (s *Server) healthzHandler(c echo.Context) error {
	resp := HealthResponse{
		Status:  "ok",
		Version: s.Profile.Version,
		Mode:    s.Profile.Mode,
		Store:   "disabled",
	}

	if s.Store != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthPingTimeout)
		defer cancel()
		if err := s.Store.Ping(ctx); err != nil {
			slog.Warn("healthz store ping failed", slog.String("error", err.Error()))
			resp.Status = "degraded"
			resp.Store = "unavailable"
		} else {
			resp.Store = "ok"
		}
	}

	snapshot := s.metrics.Snapshot()
	resp.SuccessRate = snapshot.SuccessRate()
	resp.Serving = snapshot

	return c.JSON(http.StatusOK, resp)
}
