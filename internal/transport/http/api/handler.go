// Package api provides the REST and telephony trigger handlers.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/callassist/orchestrator/internal/service"
)

// ConnectionCounter reports live WebSocket connections.
type ConnectionCounter interface {
	GetConnectionCount() int
}

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	conns   ConnectionCounter
}

// NewHandler creates a new handler. conns may be nil.
func NewHandler(service *service.Service, conns ConnectionCounter) *Handler {
	return &Handler{
		service: service,
		conns:   conns,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/api/health", h.Health)

	// Calls
	e.GET("/api/calls", h.ListCalls)
	e.GET("/api/calls/:call_id", h.GetCall)
	e.POST("/api/calls/:call_id/audio/:speaker", h.IngestAudio)

	// Telephony triggers
	e.GET("/agi/call_start", h.AGICallStart)
	e.GET("/agi/call_answer", h.AGICallAnswer)
	e.GET("/agi/call_end", h.AGICallEnd)

	// Demo
	e.POST("/api/demo/call", h.StartDemoCall)
	e.POST("/api/demo/end/:call_id", h.EndDemoCall)
}

// Root returns a liveness banner.
func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Call Assist API",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	wsConns := 0
	if h.conns != nil {
		wsConns = h.conns.GetConnectionCount()
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"version":        "0.1.0",
		"active_calls":   h.service.ActiveCallCount(),
		"subscribers":    h.service.SubscriberCount(),
		"ws_connections": wsConns,
	})
}

// writeError maps service errors to status codes.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrCallNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "call not found"})
	case errors.Is(err, service.ErrCallExists):
		return c.JSON(http.StatusConflict, map[string]string{"error": "call already active"})
	case errors.Is(err, service.ErrInvalidCallID):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "id is required"})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
