// Package policy gates suggestions through an OPA rego policy.
package policy

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/open-policy-agent/opa/rego"

	"github.com/callassist/orchestrator/internal/domain"
)

// Decisions a policy may return.
const (
	DecisionDeliver = "deliver"
	DecisionDrop    = "drop"
)

// Engine is the OPA policy engine.
type Engine struct {
	query   rego.PreparedEvalQuery
	minRank int
}

// Input is what the policy sees for one suggestion.
type Input struct {
	Type      domain.SuggestionKind
	Priority  domain.Priority
	Speaker   domain.Speaker
	Direction domain.CallDirection
}

// NewEngine prepares policyContent. minPriority is exposed to the policy as
// input.min_priority_rank; an unknown value means low.
func NewEngine(ctx context.Context, policyContent string, minPriority domain.Priority) (*Engine, error) {
	r := rego.New(
		rego.Query("data.suggestion_policy.decision"),
		rego.Module("suggestion_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	rank := minPriority.Rank()
	if rank == 0 {
		rank = domain.PriorityLow.Rank()
	}
	return &Engine{query: query, minRank: rank}, nil
}

// LoadEngine reads the policy from path, or uses DefaultPolicy when path is empty.
func LoadEngine(ctx context.Context, path string, minPriority domain.Priority) (*Engine, error) {
	content := DefaultPolicy
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read policy file: %w", err)
		}
		content = string(b)
	}
	return NewEngine(ctx, content, minPriority)
}

// Evaluate returns the policy decision for in.
func (e *Engine) Evaluate(ctx context.Context, in Input) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"type":              string(in.Type),
		"priority":          string(in.Priority),
		"priority_rank":     in.Priority.Rank(),
		"min_priority_rank": e.minRank,
		"speaker":           string(in.Speaker),
		"direction":         string(in.Direction),
	}))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	// The policy is expected to define a default.
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionDeliver, nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("unexpected policy result %v", results[0].Expressions[0].Value)
}

// Allow reports whether the suggestion should be published. Evaluation
// errors deliver.
func (e *Engine) Allow(ctx context.Context, in Input) bool {
	decision, err := e.Evaluate(ctx, in)
	if err != nil {
		log.Printf("WARN: suggestion policy failed, delivering: %v", err)
		return true
	}
	return decision != DecisionDrop
}

// DefaultPolicy drops suggestions below the configured minimum priority.
const DefaultPolicy = `
package suggestion_policy

default decision = "deliver"

decision = "drop" {
	input.priority_rank < input.min_priority_rank
}
`
