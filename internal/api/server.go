// Package api exposes the autopilot services over a JSON HTTP API.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Freeeeeet/interview_autopilot/internal/service"
)

// Server adapts the services to HTTP. It holds no state of its own.
type Server struct {
	scheduling *service.SchedulingService
	feedback   *service.FeedbackService
	calendar   *service.CalendarService
	logger     *zap.Logger
}

func NewServer(
	scheduling *service.SchedulingService,
	feedback *service.FeedbackService,
	calendar *service.CalendarService,
	logger *zap.Logger,
) *Server {
	return &Server{
		scheduling: scheduling,
		feedback:   feedback,
		calendar:   calendar,
		logger:     logger,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router(production bool) *gin.Engine {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	s.RegisterRoutes(router)
	return router
}

// RegisterRoutes mounts the health, metrics and /api routes on router.
func (s *Server) RegisterRoutes(router gin.IRouter) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		interviews := api.Group("/interviews")
		{
			interviews.POST("/start", s.handleStartInterview)
			interviews.GET("/:id", s.handleGetInterview)
		}

		scheduling := api.Group("/scheduling")
		{
			scheduling.POST("/propose", s.handlePropose)
			scheduling.POST("/approve", s.handleApprove)
			scheduling.GET("/:id", s.handleGetProposal)
			scheduling.POST("/:id/cancel", s.handleCancelProposal)
		}

		api.GET("/participants", s.handleListParticipants)
		api.GET("/candidates", s.handleListCandidates)
		api.POST("/participants/:id/calendar/import", s.handleCalendarImport)

		api.POST("/feedback/submit", s.handleSubmitFeedback)
		api.GET("/reports/:id", s.handleGetReport)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(started)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Error("Request failed", fields...)
			return
		}
		s.logger.Debug("Request served", fields...)
	}
}
