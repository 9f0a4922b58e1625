// Package service implements the call session orchestrator.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/callassist/orchestrator/internal/adapter/stt"
	"github.com/callassist/orchestrator/internal/audio"
	"github.com/callassist/orchestrator/internal/config"
	"github.com/callassist/orchestrator/internal/eventbus"
	"github.com/callassist/orchestrator/internal/policy"
	"github.com/callassist/orchestrator/internal/suggest"
)

var (
	// ErrInvalidCallID is returned when a call id is empty.
	ErrInvalidCallID = errors.New("call id is required")
	// ErrCallExists is returned when starting a call that is already active.
	ErrCallExists = errors.New("call already active")
	// ErrCallNotFound is returned for operations on calls that are not active.
	ErrCallNotFound = errors.New("call not found")
)

const (
	defaultChunkDuration = 3 * time.Second
	defaultSampleRate    = 16000
	defaultEndGrace      = 5 * time.Second
)

// Service owns every active call session.
type Service struct {
	config       *config.Config
	bus          *eventbus.Bus
	buffers      *audio.Buffer
	transcriber  stt.Transcriber
	suggester    *suggest.Engine
	policyEngine *policy.Engine

	sampleRate int
	chunkSize  int
	cadence    time.Duration
	endGrace   time.Duration

	mu       sync.RWMutex
	sessions map[string]*session
	seq      uint64

	now func() time.Time
}

// New creates the orchestrator. policyEngine may be nil, in which case every
// suggestion is delivered.
func New(cfg *config.Config, bus *eventbus.Bus, buffers *audio.Buffer, transcriber stt.Transcriber, suggester *suggest.Engine, policyEngine *policy.Engine) *Service {
	chunkDuration := cfg.ChunkDuration
	if chunkDuration <= 0 {
		chunkDuration = defaultChunkDuration
	}
	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	cadence := cfg.CadenceInterval
	if cadence <= 0 {
		cadence = chunkDuration
	}
	endGrace := cfg.EndGrace
	if endGrace <= 0 {
		endGrace = defaultEndGrace
	}

	return &Service{
		config:       cfg,
		bus:          bus,
		buffers:      buffers,
		transcriber:  transcriber,
		suggester:    suggester,
		policyEngine: policyEngine,
		sampleRate:   sampleRate,
		chunkSize:    audio.ChunkSize(sampleRate, chunkDuration),
		cadence:      cadence,
		endGrace:     endGrace,
		sessions:     make(map[string]*session),
		now:          time.Now,
	}
}

// Subscribe registers h on the event bus. h is invoked while the call's
// publish lock is held, so it must hand any Answer or End for that call off
// to another goroutine.
func (s *Service) Subscribe(h eventbus.Handler) *eventbus.Subscription {
	return s.bus.Subscribe(h)
}

// Unsubscribe removes a subscription from the event bus.
func (s *Service) Unsubscribe(sub *eventbus.Subscription) {
	s.bus.Unsubscribe(sub)
}

// SubscriberCount returns the number of bus subscribers.
func (s *Service) SubscriberCount() int {
	return s.bus.Len()
}

// Shutdown ends every active call.
func (s *Service) Shutdown(ctx context.Context) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		_, _ = s.End(ctx, id)
	}
}

// withTimeout bounds ctx by d; a non-positive d only adds cancellation.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
