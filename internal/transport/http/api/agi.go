package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/callassist/orchestrator/internal/domain"
)

// AGICallStart is called by the PBX dialplan when a call begins.
func (h *Handler) AGICallStart(c echo.Context) error {
	direction, err := domain.ParseDirection(c.QueryParam("direction"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	_, err = h.service.Start(c.Request().Context(), c.QueryParam("id"), c.QueryParam("caller"), c.QueryParam("called"), direction)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// AGICallAnswer is called when the operator picks up.
func (h *Handler) AGICallAnswer(c echo.Context) error {
	if _, err := h.service.Answer(c.Request().Context(), c.QueryParam("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// AGICallEnd is called when either side hangs up.
func (h *Handler) AGICallEnd(c echo.Context) error {
	if _, err := h.service.End(c.Request().Context(), c.QueryParam("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
