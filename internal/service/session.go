package service

import (
	"context"
	"strconv"
	"sync"

	"github.com/callassist/orchestrator/internal/domain"
)

// session is the live state of one call.
//
// pubMu serializes every publish for the call and guards ended. Once ended is
// set nothing else is published for the call. stateMu guards call.
type session struct {
	id string
	// key names the call's audio buffers and suggestion context. It differs
	// between two calls that reuse the same id.
	key string

	pubMu sync.Mutex
	ended bool

	stateMu sync.RWMutex
	call    domain.Call

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newSession(call domain.Call, seq uint64) *session {
	ctx, cancel := context.WithCancel(context.Background())
	return &session{
		id:     call.ID,
		key:    call.ID + "#" + strconv.FormatUint(seq, 10),
		call:   call,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (sess *session) snapshot() domain.Call {
	sess.stateMu.RLock()
	defer sess.stateMu.RUnlock()
	return sess.call.Clone()
}

func (sess *session) direction() domain.CallDirection {
	sess.stateMu.RLock()
	defer sess.stateMu.RUnlock()
	return sess.call.Direction
}

// live reports whether events may still be published. Callers hold pubMu.
func (sess *session) live() bool {
	return !sess.ended && sess.ctx.Err() == nil
}

// lookup returns the active session for callID.
func (s *Service) lookup(callID string) *session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[callID]
}

// detach removes callID from the active table. When want is non-nil the
// entry is only removed if it is still want.
func (s *Service) detach(callID string, want *session) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[callID]
	if !ok || (want != nil && sess != want) {
		return nil
	}
	delete(s.sessions, callID)
	return sess
}

// publish delivers ev if the session is still live.
func (s *Service) publish(sess *session, ev domain.CallEvent) bool {
	sess.pubMu.Lock()
	defer sess.pubMu.Unlock()
	if !sess.live() {
		return false
	}
	s.bus.Publish(ev)
	return true
}
