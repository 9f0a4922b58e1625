package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// StartDemoCall starts a scripted demo call.
func (h *Handler) StartDemoCall(c echo.Context) error {
	call, err := h.service.StartDemoCall(context.Background())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"call_id": call.ID,
		"status":  "started",
	})
}

// EndDemoCall ends a call early.
func (h *Handler) EndDemoCall(c echo.Context) error {
	if _, err := h.service.End(c.Request().Context(), c.Param("call_id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ended"})
}
