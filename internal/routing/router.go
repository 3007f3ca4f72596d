// Package routing selects a prompt-template variant for a benchmark
// CAPTCHA kind/attempt pair, the Go analogue of per-kind prompt hint
// injection in the original implementation's vision tools.
package routing

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Rule pairs a boolean expr-lang condition with the template variant name
// to select when it matches. Rules are tried in order; the first match
// wins.
type Rule struct {
	Condition string
	Variant   string
}

// SessionRouter evaluates a small ordered set of boolean routing
// expressions against session variables (kind, attempt, objective, ...) to
// choose a prompt-template variant, compiling and caching each condition's
// expr.Program the way the teacher's ConditionEvaluator caches conditional
// edges. Deliberately NOT used for the Stage-3 DSL itself — see DESIGN.md's
// Open Question on why that interpreter is a hand-rolled tagged union
// rather than an expr-lang program.
type SessionRouter struct {
	mu      sync.RWMutex
	rules   []Rule
	cache   map[string]*vm.Program
	fallback string
}

// NewSessionRouter constructs a router over rules, trying them in order and
// falling back to fallbackVariant if none match.
func NewSessionRouter(rules []Rule, fallbackVariant string) *SessionRouter {
	return &SessionRouter{
		rules:    rules,
		cache:    make(map[string]*vm.Program),
		fallback: fallbackVariant,
	}
}

// Route evaluates each rule's condition against vars in order, returning
// the first matching rule's Variant, or the router's fallback if none
// match.
func (r *SessionRouter) Route(vars map[string]any) (string, error) {
	for _, rule := range r.rules {
		program, err := r.compiled(rule.Condition)
		if err != nil {
			return "", fmt.Errorf("compile routing rule %q: %w", rule.Condition, err)
		}

		result, err := expr.Run(program, vars)
		if err != nil {
			continue
		}
		matched, ok := result.(bool)
		if ok && matched {
			return rule.Variant, nil
		}
	}
	return r.fallback, nil
}

func (r *SessionRouter) compiled(condition string) (*vm.Program, error) {
	r.mu.RLock()
	program, ok := r.cache[condition]
	r.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(condition, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[condition] = program
	r.mu.Unlock()
	return program, nil
}
