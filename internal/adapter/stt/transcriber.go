// Package stt turns PCM chunks into text through a speech-to-text backend.
package stt

import (
	"context"
	"fmt"
)

// Transcriber converts one chunk of 16-bit mono PCM into text.
// An empty string means nothing intelligible was said.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error)
}

// Ensure implementations satisfy Transcriber.
var (
	_ Transcriber = (*Client)(nil)
	_ Transcriber = (*MockClient)(nil)
)

// TranscriptionError wraps any failure from the backend.
type TranscriptionError struct {
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	Err        error
}

func (e *TranscriptionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transcription failed [%d]: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }
