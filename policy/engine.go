// Package policy decides how provider failures surface to users.
package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"
)

// Decision is the outcome of evaluating a failure.
type Decision string

const (
	// DecisionRethrow returns the classified error to the caller.
	DecisionRethrow Decision = "rethrow"
	// DecisionFallback replaces the failure with the fallback reply.
	DecisionFallback Decision = "fallback"
)

// FailureInput is the policy input for one provider failure.
type FailureInput struct {
	Kind     string `json:"kind"`
	Status   int    `json:"status"`
	Provider string `json:"provider"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
// The module must define data.companion.failure.decision.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.companion.failure.decision"),
		rego.Module("failure_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Load reads the policy from path, or uses DefaultPolicy when path is empty.
func Load(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return NewEngine(ctx, DefaultPolicy)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return NewEngine(ctx, string(content))
}

// Evaluate returns the decision for a failure. A policy that yields nothing or an
// unknown value falls back.
func (e *Engine) Evaluate(ctx context.Context, in FailureInput) (Decision, error) {
	input := map[string]interface{}{
		"kind":     in.Kind,
		"status":   in.Status,
		"provider": in.Provider,
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionFallback, nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		switch Decision(s) {
		case DecisionRethrow:
			return DecisionRethrow, nil
		case DecisionFallback:
			return DecisionFallback, nil
		}
	}
	return DecisionFallback, nil
}

// DefaultPolicy rethrows failures the caller must act on and falls back otherwise.
const DefaultPolicy = `
package companion.failure

import rego.v1

default decision := "fallback"

rethrow_kinds := {"configuration", "unauthorized", "rate_limited"}

decision := "rethrow" if {
	input.kind in rethrow_kinds
}
`
