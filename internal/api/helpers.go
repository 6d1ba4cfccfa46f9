package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Freeeeeet/interview_autopilot/internal/service"
)

// requireID parses the :id path parameter and answers 400 when it is not a
// positive integer.
func requireID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body and answers 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// sendError maps service errors to status codes. Anything that is not a
// caller-facing rejection is logged and hidden behind a generic message.
func (s *Server) sendError(c *gin.Context, err error) {
	if !service.IsDomainError(err) {
		s.logger.Error("Request handling failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusBadRequest
	switch {
	case service.IsNotFound(err):
		status = http.StatusNotFound
	case service.IsConflict(err):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
