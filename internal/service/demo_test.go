package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callassist/orchestrator/internal/adapter/llm"
	"github.com/callassist/orchestrator/internal/domain"
)

func TestStartDemoCallPlaysScriptAndEnds(t *testing.T) {
	cfg := testConfig()
	cfg.DemoAnswerDelay = time.Millisecond
	cfg.DemoLineInterval = time.Millisecond
	f := newFixture(t, cfg, silentTranscriber(), llm.NewMockClient(), nil)

	call, err := f.svc.StartDemoCall(context.Background())
	require.NoError(t, err)
	assert.Len(t, call.ID, 8)

	require.Eventually(t, func() bool {
		return f.svc.GetCall(call.ID) == nil
	}, 2*time.Second, 5*time.Millisecond)

	types := f.rec.types(call.ID)
	require.NotEmpty(t, types)
	assert.Equal(t, domain.EventTypeCallStart, types[0])
	assert.Equal(t, domain.EventTypeCallAnswer, types[1])
	assert.Equal(t, domain.EventTypeCallEnd, types[len(types)-1])

	transcripts, suggestions := 0, 0
	for _, typ := range types {
		switch typ {
		case domain.EventTypeTranscript:
			transcripts++
		case domain.EventTypeSuggestion:
			suggestions++
		}
	}
	assert.Equal(t, len(demoDialog), transcripts)
	assert.GreaterOrEqual(t, suggestions, 2)
}

func TestDemoCallStopsWhenEndedEarly(t *testing.T) {
	cfg := testConfig()
	cfg.DemoAnswerDelay = time.Hour
	f := newFixture(t, cfg, silentTranscriber(), llm.NewMockClient(), nil)
	ctx := context.Background()

	call, err := f.svc.StartDemoCall(ctx)
	require.NoError(t, err)
	_, err = f.svc.End(ctx, call.ID)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []domain.EventType{domain.EventTypeCallStart, domain.EventTypeCallEnd}, f.rec.types(call.ID))
}
