package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker is implemented by the database pool
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves the service info and liveness endpoints
type HealthHandler struct {
	db      HealthChecker
	name    string
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db HealthChecker, name, version string) *HealthHandler {
	return &HealthHandler{db: db, name: name, version: version}
}

// Root describes the service
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "name": h.name, "version": h.version})
}

// DBHealth pings the database
func (h *HealthHandler) DBHealth(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "database not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "database unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "db": "connected"})
}
