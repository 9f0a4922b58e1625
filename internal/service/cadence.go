package service

import (
	"log"
	"strings"
	"time"

	"github.com/callassist/orchestrator/internal/domain"
	"github.com/callassist/orchestrator/internal/policy"
)

// runCadence drains ready audio on every tick until the call ends.
func (s *Service) runCadence(sess *session) {
	defer close(sess.done)

	ticker := time.NewTicker(s.cadence)
	defer ticker.Stop()

	for {
		select {
		case <-sess.ctx.Done():
			return
		case <-ticker.C:
			s.processTick(sess)
		}
	}
}

func (s *Service) processTick(sess *session) {
	for _, speaker := range domain.Speakers {
		if sess.ctx.Err() != nil {
			return
		}
		chunk := s.buffers.DrainReady(sess.key, speaker, s.chunkSize)
		if chunk == nil {
			continue
		}
		s.processChunk(sess, speaker, chunk)
	}
}

func (s *Service) processChunk(sess *session, speaker domain.Speaker, chunk []byte) {
	ctx, cancel := withTimeout(sess.ctx, s.config.STTTimeout)
	text, err := s.transcriber.Transcribe(ctx, chunk, s.sampleRate)
	cancel()
	if err != nil {
		if sess.ctx.Err() == nil {
			log.Printf("WARN: call %s: transcription of %s audio failed: %v", sess.id, speaker, err)
		}
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s.handleSegment(sess, domain.NewTranscriptSegment(sess.id, speaker, text, s.now()))
}

// handleSegment publishes a transcript and any suggestion it yields.
func (s *Service) handleSegment(sess *session, seg domain.TranscriptSegment) {
	if !s.publish(sess, domain.NewTranscriptEvent(seg)) {
		return
	}

	ctx, cancel := withTimeout(sess.ctx, s.config.LLMTimeout)
	sug := s.suggester.Evaluate(ctx, sess.key, seg)
	cancel()
	if sug == nil {
		return
	}

	if s.policyEngine != nil && !s.policyEngine.Allow(sess.ctx, policy.Input{
		Type:      sug.Type,
		Priority:  sug.Priority,
		Speaker:   seg.Speaker,
		Direction: sess.direction(),
	}) {
		log.Printf("INFO: call %s: suggestion %q dropped by policy", sess.id, sug.Title)
		return
	}

	s.publish(sess, domain.NewSuggestionEvent(*sug))
}
