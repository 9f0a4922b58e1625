package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/callassist/orchestrator/internal/audio"
	"github.com/callassist/orchestrator/internal/domain"
)

// Start registers a new ringing call, publishes call_start and launches its
// cadence task.
func (s *Service) Start(ctx context.Context, callID, caller, called string, direction domain.CallDirection) (*domain.Call, error) {
	_, snap, err := s.startSession(callID, caller, called, direction)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Service) startSession(callID, caller, called string, direction domain.CallDirection) (*session, domain.Call, error) {
	if callID == "" {
		return nil, domain.Call{}, ErrInvalidCallID
	}
	if direction == "" {
		direction = domain.CallDirectionIncoming
	}
	ext := s.config.OperatorExtension
	if ext == "" {
		ext = domain.DefaultOperatorExtension
	}

	s.mu.Lock()
	if _, ok := s.sessions[callID]; ok {
		s.mu.Unlock()
		return nil, domain.Call{}, ErrCallExists
	}
	s.seq++
	sess := newSession(domain.Call{
		ID:                callID,
		CallerNumber:      caller,
		CalledNumber:      called,
		Direction:         direction,
		Status:            domain.CallStatusRinging,
		StartedAt:         s.now(),
		OperatorExtension: ext,
	}, s.seq)
	// Held until call_start is out so a concurrent End cannot publish first.
	sess.pubMu.Lock()
	s.sessions[callID] = sess
	s.mu.Unlock()

	s.buffers.Open(sess.key, domain.Speakers)
	snap := sess.snapshot()
	s.bus.Publish(domain.NewCallStartEvent(snap))
	go s.runCadence(sess)
	sess.pubMu.Unlock()

	log.Printf("INFO: call %s started (%s, %s -> %s)", callID, direction, caller, called)
	return sess, snap, nil
}

// Answer moves a ringing call to answered and publishes call_answer.
// Answering an already answered call is a no-op.
func (s *Service) Answer(ctx context.Context, callID string) (*domain.Call, error) {
	sess := s.lookup(callID)
	if sess == nil {
		return nil, ErrCallNotFound
	}

	sess.pubMu.Lock()
	defer sess.pubMu.Unlock()
	if !sess.live() {
		return nil, ErrCallNotFound
	}

	sess.stateMu.Lock()
	if sess.call.Status != domain.CallStatusRinging {
		snap := sess.call.Clone()
		sess.stateMu.Unlock()
		return &snap, nil
	}
	at := s.now()
	sess.call.Status = domain.CallStatusAnswered
	sess.call.AnsweredAt = &at
	snap := sess.call.Clone()
	sess.stateMu.Unlock()

	s.bus.Publish(domain.NewCallAnswerEvent(snap))
	log.Printf("INFO: call %s answered", callID)
	return &snap, nil
}

// End tears a call down. call_end is the last event published for the call.
// The id can be reused as soon as End starts.
func (s *Service) End(ctx context.Context, callID string) (*domain.Call, error) {
	sess := s.detach(callID, nil)
	if sess == nil {
		return nil, ErrCallNotFound
	}
	snap := s.endSession(ctx, sess)
	return &snap, nil
}

func (s *Service) endSession(ctx context.Context, sess *session) domain.Call {
	sess.cancel()

	sess.pubMu.Lock()
	sess.ended = true
	sess.stateMu.Lock()
	at := s.now()
	sess.call.Status = domain.CallStatusEnded
	sess.call.EndedAt = &at
	snap := sess.call.Clone()
	sess.stateMu.Unlock()
	s.bus.Publish(domain.NewCallEndEvent(snap))
	sess.pubMu.Unlock()

	timer := time.NewTimer(s.endGrace)
	defer timer.Stop()
	select {
	case <-sess.done:
	case <-ctx.Done():
		log.Printf("WARN: call %s: stopped waiting for cadence task: %v", sess.id, ctx.Err())
	case <-timer.C:
		log.Printf("WARN: call %s: cadence task still running after %s", sess.id, s.endGrace)
	}

	s.buffers.Close(sess.key)
	s.suggester.Clear(sess.key)

	log.Printf("INFO: call %s ended", sess.id)
	return snap
}

// IngestAudio appends raw PCM for one speaker of an active call. Audio for
// unknown or ended calls is dropped.
func (s *Service) IngestAudio(callID string, speaker domain.Speaker, pcm []byte) error {
	sess := s.lookup(callID)
	if sess == nil || sess.ctx.Err() != nil {
		return ErrCallNotFound
	}
	if err := s.buffers.Append(sess.key, speaker, pcm); err != nil {
		if errors.Is(err, audio.ErrUnknownCall) {
			return ErrCallNotFound
		}
		return fmt.Errorf("ingest audio for call %s: %w", callID, err)
	}
	return nil
}

// GetCall returns a snapshot of an active call, or nil.
func (s *Service) GetCall(callID string) *domain.Call {
	sess := s.lookup(callID)
	if sess == nil {
		return nil
	}
	snap := sess.snapshot()
	return &snap
}

// GetActiveCalls returns snapshots of every active call, oldest first.
func (s *Service) GetActiveCalls() []domain.Call {
	s.mu.RLock()
	calls := make([]domain.Call, 0, len(s.sessions))
	for _, sess := range s.sessions {
		calls = append(calls, sess.snapshot())
	}
	s.mu.RUnlock()

	sort.Slice(calls, func(i, j int) bool {
		if calls[i].StartedAt.Equal(calls[j].StartedAt) {
			return calls[i].ID < calls[j].ID
		}
		return calls[i].StartedAt.Before(calls[j].StartedAt)
	})
	return calls
}

// ActiveCallCount returns the number of active calls.
func (s *Service) ActiveCallCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
