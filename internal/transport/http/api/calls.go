package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/callassist/orchestrator/internal/audio"
	"github.com/callassist/orchestrator/internal/domain"
)

// maxAudioBody caps one ingest request at ten seconds of 16 kHz audio.
const maxAudioBody = 16000 * 2 * 10

// ListCalls returns every active call.
func (h *Handler) ListCalls(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.GetActiveCalls())
}

// GetCall returns one active call.
func (h *Handler) GetCall(c echo.Context) error {
	call := h.service.GetCall(c.Param("call_id"))
	if call == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "call not found"})
	}
	return c.JSON(http.StatusOK, call)
}

// IngestAudio appends the raw PCM16 body to one speaker of a call.
func (h *Handler) IngestAudio(c echo.Context) error {
	speaker, err := domain.ParseSpeaker(c.Param("speaker"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	body := http.MaxBytesReader(c.Response(), c.Request().Body, maxAudioBody)
	pcm, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "audio body too large"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "failed to read body"})
	}
	if len(pcm)%2 != 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "pcm16 body must have an even length"})
	}

	if err := h.service.IngestAudio(c.Param("call_id"), speaker, pcm); err != nil {
		if errors.Is(err, audio.ErrUnknownSpeaker) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return writeError(c, err)
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"status": "accepted",
		"bytes":  len(pcm),
	})
}
