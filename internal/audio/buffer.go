// Package audio accumulates raw per-speaker PCM for active calls.
package audio

import (
	"errors"
	"sync"
	"time"

	"github.com/callassist/orchestrator/internal/domain"
)

const bytesPerSample = 2

var (
	// ErrUnknownCall is returned when audio targets a call that is not open.
	ErrUnknownCall = errors.New("unknown call")
	// ErrUnknownSpeaker is returned when audio targets a speaker the call was not opened with.
	ErrUnknownSpeaker = errors.New("unknown speaker")
)

// ChunkSize returns the byte length of duration worth of 16-bit mono samples.
func ChunkSize(sampleRate int, duration time.Duration) int {
	return sampleRate * bytesPerSample * int(duration/time.Millisecond) / 1000
}

// Buffer holds one append-only accumulator per (call, speaker).
type Buffer struct {
	mu    sync.RWMutex
	calls map[string]map[domain.Speaker]*track
}

// track is a single speaker's bytes plus the cursor of consumed bytes.
type track struct {
	mu     sync.Mutex
	data   []byte
	cursor int
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{calls: make(map[string]map[domain.Speaker]*track)}
}

// Open creates empty accumulators for callID. Reopening an open call resets it.
func (b *Buffer) Open(callID string, speakers []domain.Speaker) {
	tracks := make(map[domain.Speaker]*track, len(speakers))
	for _, sp := range speakers {
		tracks[sp] = &track{}
	}
	b.mu.Lock()
	b.calls[callID] = tracks
	b.mu.Unlock()
}

// Close drops every accumulator for callID, including any partial chunk.
func (b *Buffer) Close(callID string) {
	b.mu.Lock()
	delete(b.calls, callID)
	b.mu.Unlock()
}

// Append adds pcm to the speaker's accumulator.
func (b *Buffer) Append(callID string, speaker domain.Speaker, pcm []byte) error {
	t, err := b.track(callID, speaker)
	if err != nil {
		return err
	}
	if len(pcm) == 0 {
		return nil
	}
	t.mu.Lock()
	t.data = append(t.data, pcm...)
	t.mu.Unlock()
	return nil
}

// DrainReady removes and returns exactly chunkSize bytes from the front of the
// speaker's accumulator, or nil if fewer than chunkSize bytes are pending.
func (b *Buffer) DrainReady(callID string, speaker domain.Speaker, chunkSize int) []byte {
	if chunkSize <= 0 {
		return nil
	}
	t, err := b.track(callID, speaker)
	if err != nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.data)-t.cursor < chunkSize {
		return nil
	}
	chunk := make([]byte, chunkSize)
	copy(chunk, t.data[t.cursor:t.cursor+chunkSize])
	t.cursor += chunkSize

	// Compact once the consumed prefix dominates the slice.
	if t.cursor >= len(t.data)/2 {
		rest := copy(t.data, t.data[t.cursor:])
		t.data = t.data[:rest]
		t.cursor = 0
	}
	return chunk
}

// Pending reports how many unconsumed bytes the speaker has.
func (b *Buffer) Pending(callID string, speaker domain.Speaker) int {
	t, err := b.track(callID, speaker)
	if err != nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.data) - t.cursor
}

// Calls returns the number of open calls.
func (b *Buffer) Calls() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.calls)
}

func (b *Buffer) track(callID string, speaker domain.Speaker) (*track, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	tracks, ok := b.calls[callID]
	if !ok {
		return nil, ErrUnknownCall
	}
	t, ok := tracks[speaker]
	if !ok {
		return nil, ErrUnknownSpeaker
	}
	return t, nil
}
