package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/callassist/orchestrator/internal/adapter/llm"
	"github.com/callassist/orchestrator/internal/adapter/stt"
	"github.com/callassist/orchestrator/internal/audio"
	"github.com/callassist/orchestrator/internal/config"
	"github.com/callassist/orchestrator/internal/eventbus"
	"github.com/callassist/orchestrator/internal/service"
	"github.com/callassist/orchestrator/internal/suggest"
)

// TestConfig returns a config with fast cadence and short timeouts.
func TestConfig() *config.Config {
	return &config.Config{
		SampleRate:        16000,
		ChunkDuration:     3 * time.Second,
		CadenceInterval:   10 * time.Millisecond,
		EndGrace:          100 * time.Millisecond,
		STTTimeout:        time.Second,
		LLMTimeout:        time.Second,
		OperatorExtension: "1001",
		DemoAnswerDelay:   time.Hour,
		DemoLineInterval:  time.Hour,
	}
}

// NewTestService builds a service backed by mock transcription and LLM clients.
// Every call still active when the test ends is shut down.
func NewTestService(t *testing.T, lines ...string) *service.Service {
	t.Helper()

	cfg := TestConfig()
	engine := suggest.NewEngine(llm.NewMockClient(), suggest.Options{Model: "mock"})
	svc := service.New(cfg, eventbus.New(), audio.NewBuffer(), stt.NewMockClient(lines...), engine, nil)

	t.Cleanup(func() {
		svc.Shutdown(context.Background())
	})

	return svc
}
