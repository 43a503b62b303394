package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClientCounter reports the number of live connections.
type ClientCounter interface {
	Count() int
}

// HealthHandler answers liveness checks.
type HealthHandler struct {
	clients ClientCounter
	done    <-chan struct{}
}

// NewHealthHandler returns a liveness handler. done is closed when the event loop
// stops.
func NewHealthHandler(clients ClientCounter, done <-chan struct{}) *HealthHandler {
	return &HealthHandler{clients: clients, done: done}
}

// Healthz reports ok while the event loop runs.
func (h *HealthHandler) Healthz(c *gin.Context) {
	select {
	case <-h.done:
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "stopping"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": h.clients.Count()})
	}
}
