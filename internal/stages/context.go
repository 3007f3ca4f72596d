// Package stages implements the three orchestrators — Objective
// Identification, Structure Abstraction, Solution Composition — each
// driving an Agent through a bounded build -> call -> parse -> validate ->
// (apply/execute) -> reset -> retry-on-feedback cycle.
package stages

import (
	"github.com/halligan-ai/halligan/internal/agent"
	"github.com/halligan-ai/halligan/internal/runtimeconfig"
	"github.com/halligan-ai/halligan/internal/toolregistry"
)

// ExecutionContext threads every collaborator Stage 3 (and its tool calls)
// needs explicitly, replacing the original implementation's module-global
// mutable agent reference — a documented bug where the global was set on a
// local variable that had already been rebound to a prompt-fragment string.
type ExecutionContext struct {
	Agent    agent.Agent
	Config   *runtimeconfig.Config
	Registry *toolregistry.Registry

	// PromptVariant, when non-empty, is appended to the stage 3 prompt as an
	// extra instruction line. Callers set it from internal/routing's
	// SessionRouter, keyed on the benchmark kind/attempt being solved.
	PromptVariant string
}

// retryBudget tracks a bounded number of attempts, following the teacher's
// RetryBudget.CanRetry/UseRetry bookkeeping shape (this one has no Reset).
type retryBudget struct {
	max  int
	used int
}

func newRetryBudget(max int) *retryBudget {
	return &retryBudget{max: max}
}

func (b *retryBudget) CanRetry() bool { return b.used < b.max }
func (b *retryBudget) UseRetry()      { b.used++ }
func (b *retryBudget) Remaining() int { return b.max - b.used }
func (b *retryBudget) Used() int      { return b.used }
