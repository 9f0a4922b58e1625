// Package http provides the HTTP server implementation for the orchestrator.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/callassist/orchestrator/internal/hub"
	"github.com/callassist/orchestrator/internal/service"
	"github.com/callassist/orchestrator/internal/transport/http/api"
	"github.com/callassist/orchestrator/internal/transport/ws"
)

// NewServer creates the HTTP server: REST API, telephony triggers and the
// /ws event stream.
func NewServer(svc *service.Service, h *hub.Hub, wsServer *ws.Server) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	apiHandler := api.NewHandler(svc, h)

	// Register Routes
	apiHandler.RegisterRoutes(e)
	e.GET("/ws", wsServer.HandleWebSocket)

	return e
}
