package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callassist/orchestrator/internal/domain"
)

func TestDefaultPolicy_DeliversEverythingAtLow(t *testing.T) {
	ctx := context.Background()
	e, err := NewEngine(ctx, DefaultPolicy, domain.PriorityLow)
	require.NoError(t, err)

	for _, p := range []domain.Priority{domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh} {
		decision, err := e.Evaluate(ctx, Input{Type: domain.SuggestionInfo, Priority: p})
		require.NoError(t, err)
		assert.Equal(t, DecisionDeliver, decision, p)
	}
}

func TestDefaultPolicy_MinPriority(t *testing.T) {
	ctx := context.Background()
	e, err := NewEngine(ctx, DefaultPolicy, domain.PriorityHigh)
	require.NoError(t, err)

	assert.False(t, e.Allow(ctx, Input{Type: domain.SuggestionUpsell, Priority: domain.PriorityMedium}))
	assert.True(t, e.Allow(ctx, Input{Type: domain.SuggestionObjection, Priority: domain.PriorityHigh}))
}

func TestCustomPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.rego")
	require.NoError(t, os.WriteFile(path, []byte(`
package suggestion_policy

default decision = "deliver"

decision = "drop" {
	input.type == "upsell"
	input.direction == "outgoing"
}
`), 0o600))

	ctx := context.Background()
	e, err := LoadEngine(ctx, path, domain.PriorityLow)
	require.NoError(t, err)

	assert.False(t, e.Allow(ctx, Input{Type: domain.SuggestionUpsell, Priority: domain.PriorityHigh, Direction: domain.CallDirectionOutgoing}))
	assert.True(t, e.Allow(ctx, Input{Type: domain.SuggestionUpsell, Priority: domain.PriorityHigh, Direction: domain.CallDirectionIncoming}))
}

func TestLoadEngine_Errors(t *testing.T) {
	ctx := context.Background()
	_, err := LoadEngine(ctx, filepath.Join(t.TempDir(), "missing.rego"), domain.PriorityLow)
	assert.Error(t, err)

	_, err = NewEngine(ctx, "package broken\n decision = {", domain.PriorityLow)
	assert.Error(t, err)
}

func TestAllow_FailsOpenOnUnexpectedResult(t *testing.T) {
	ctx := context.Background()
	e, err := NewEngine(ctx, "package suggestion_policy\n\ndecision = 42\n", domain.PriorityLow)
	require.NoError(t, err)

	_, err = e.Evaluate(ctx, Input{Type: domain.SuggestionInfo, Priority: domain.PriorityLow})
	assert.Error(t, err)
	assert.True(t, e.Allow(ctx, Input{Type: domain.SuggestionInfo, Priority: domain.PriorityLow}))
}
