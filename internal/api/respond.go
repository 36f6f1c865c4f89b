package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Path parameter parsing

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library

	"notes_system/internal/events" // Lifecycle events
)

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// internalError logs err and answers 500 with a generic message
func internalError(c *gin.Context, msg string, err error) {
	logrus.WithFields(logrus.Fields{
		"path":  c.Request.URL.Path, // Request path
		"error": err.Error(),        // Error message
	}).Error(msg)
	c.String(http.StatusInternalServerError, msg)
}

// publish sends a lifecycle event; failures are logged and never fail the request
func publish(c *gin.Context, pub events.Publisher, event events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(c.Request.Context(), event); err != nil {
		logrus.WithFields(logrus.Fields{
			"event": event.Type,  // Event type
			"id":    event.ID,    // Entity ID
			"error": err.Error(), // Error message
		}).Warn("Failed to publish event")
	}
}
