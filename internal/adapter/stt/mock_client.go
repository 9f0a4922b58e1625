package stt

import (
	"context"
	"sync"
)

var defaultMockLines = []string{
	"Здравствуйте, я звоню по поводу вашего предложения.",
	"Честно говоря, это дороговато для нас.",
	"Мне нужно подумать.",
}

// MockClient returns scripted lines in order, one per non-silent chunk.
type MockClient struct {
	mu    sync.Mutex
	lines []string
	next  int
}

// NewMockClient creates a mock transcriber. With no lines a built-in script is used.
func NewMockClient(lines ...string) *MockClient {
	if len(lines) == 0 {
		lines = defaultMockLines
	}
	return &MockClient{lines: lines}
}

// Transcribe returns the next scripted line, or "" for pure silence.
func (m *MockClient) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &TranscriptionError{Err: err}
	}
	if silent(pcm) {
		return "", nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	line := m.lines[m.next%len(m.lines)]
	m.next++
	return line, nil
}

func silent(pcm []byte) bool {
	for _, b := range pcm {
		if b != 0 {
			return false
		}
	}
	return true
}
