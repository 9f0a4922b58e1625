package stt

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/callassist/orchestrator/internal/audio"
)

// Client transcribes through an OpenAI-compatible /audio/transcriptions endpoint.
type Client struct {
	client   *openai.Client
	model    string
	language string
}

// NewClient creates a transcription client.
func NewClient(baseURL, apiKey, model, language string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		language: language,
	}
}

// Transcribe uploads pcm as a WAV file and returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		FilePath: "chunk.wav",
		Reader:   bytes.NewReader(audio.EncodeWAV(pcm, sampleRate)),
		Language: c.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", &TranscriptionError{StatusCode: statusCode(err), Err: err}
	}
	return strings.TrimSpace(resp.Text), nil
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
