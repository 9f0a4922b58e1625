// Package suggest keeps per-call conversation context and asks the language
// model whether the operator needs a hint.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/callassist/orchestrator/internal/adapter/llm"
	"github.com/callassist/orchestrator/internal/domain"
)

// DefaultLookback is the number of recent segments kept per call.
const DefaultLookback = 10

// Options configures the model request.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Lookback    int
}

// Engine holds the rolling context of every live call.
type Engine struct {
	client llm.LLMClient
	opts   Options

	mu       sync.Mutex
	contexts map[string][]domain.TranscriptSegment

	now func() time.Time
}

// NewEngine creates a suggestion engine.
func NewEngine(client llm.LLMClient, opts Options) *Engine {
	if opts.Lookback <= 0 {
		opts.Lookback = DefaultLookback
	}
	return &Engine{
		client:   client,
		opts:     opts,
		contexts: make(map[string][]domain.TranscriptSegment),
		now:      time.Now,
	}
}

// Record appends seg to the context stored under key and returns a copy of
// the trimmed context. Nothing is recorded once ctx is done.
func (e *Engine) Record(ctx context.Context, key string, seg domain.TranscriptSegment) []domain.TranscriptSegment {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ctx.Err() != nil {
		return nil
	}
	segs := append(e.contexts[key], seg)
	if len(segs) > e.opts.Lookback {
		segs = append([]domain.TranscriptSegment(nil), segs[len(segs)-e.opts.Lookback:]...)
	}
	e.contexts[key] = segs

	out := make([]domain.TranscriptSegment, len(segs))
	copy(out, segs)
	return out
}

// Evaluate records seg under key and asks the model for a suggestion. It
// returns nil when the model declines, answers malformed output or fails.
// The suggestion carries seg's call id.
func (e *Engine) Evaluate(ctx context.Context, key string, seg domain.TranscriptSegment) *domain.Suggestion {
	segs := e.Record(ctx, key, seg)
	if segs == nil {
		return nil
	}

	resp, err := e.client.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model: e.opts.Model,
		Messages: []llm.ChatMessage{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: contextMessage(segs)},
			{Role: llm.RoleUser, Content: latestMessage(seg)},
		},
		Temperature: e.opts.Temperature,
		MaxTokens:   e.opts.MaxTokens,
		JSONObject:  true,
	})
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
		case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
			log.Printf("WARN: suggestion request timed out for call %s", seg.CallID)
		default:
			log.Printf("ERROR: suggestion request failed for call %s: %v", seg.CallID, err)
		}
		return nil
	}

	s, err := ParseSuggestion(resp.Content)
	if err != nil {
		log.Printf("WARN: discarding suggestion for call %s: %v", seg.CallID, err)
		return nil
	}
	if s == nil {
		return nil
	}
	s.CallID = seg.CallID
	s.CreatedAt = e.now()
	return s
}

// Clear discards the context stored under key.
func (e *Engine) Clear(key string) {
	e.mu.Lock()
	delete(e.contexts, key)
	e.mu.Unlock()
}

// Contexts returns the number of calls with live context.
func (e *Engine) Contexts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.contexts)
}

// ErrInvalidSuggestion marks model output that parsed but broke the schema.
var ErrInvalidSuggestion = errors.New("invalid suggestion")

type rawSuggestion struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Priority string `json:"priority"`
}

// ParseSuggestion decodes model output. "null", empty and unparsable output
// yield (nil, nil); schema violations yield ErrInvalidSuggestion.
func ParseSuggestion(raw string) (*domain.Suggestion, error) {
	text := stripFences(raw)
	if text == "" || text == "null" {
		return nil, nil
	}

	var r rawSuggestion
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return nil, nil
	}

	kind := domain.SuggestionKind(strings.ToLower(strings.TrimSpace(r.Type)))
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidSuggestion, r.Type)
	}
	content := strings.TrimSpace(r.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: missing content", ErrInvalidSuggestion)
	}
	prio := domain.PriorityMedium
	if p := strings.TrimSpace(r.Priority); p != "" {
		prio = domain.Priority(strings.ToLower(p))
		if !prio.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidSuggestion, r.Priority)
		}
	}
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = defaultTitles[kind]
	}

	return &domain.Suggestion{
		Type:     kind,
		Title:    title,
		Content:  content,
		Priority: prio,
	}, nil
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
