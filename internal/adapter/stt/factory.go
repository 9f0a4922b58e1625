package stt

import (
	"log"
	"time"
)

// ModeMock selects the mock transcriber.
const ModeMock = "MOCK"

// NewTranscriber returns a MockClient when mode is MOCK, otherwise a Client.
func NewTranscriber(mode, baseURL, apiKey, model, language string, timeout time.Duration) Transcriber {
	if mode == ModeMock {
		log.Println("CALLASSIST_MODE=MOCK detected, using mock transcriber")
		return NewMockClient()
	}
	return NewClient(baseURL, apiKey, model, language, timeout)
}
