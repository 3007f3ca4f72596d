// Package stage3 validates the Solution Composition response: a restricted,
// JSON-encoded program. Validation here is deliberately shallow — each step
// must be an object carrying a string "op" — because which tools and
// methods a step may legally reference depends on what Stage 2 discovered,
// and that is checked at execution time by internal/interp.
package stage3

import (
	"fmt"

	"github.com/halligan-ai/halligan/internal/haligerr"
)

// Program is the validated Stage-3 response: an ordered list of steps, each
// a raw JSON object with at least an "op" field.
type Program struct {
	Steps []map[string]any
}

// Validate checks that data has a "steps" array of step objects, each
// carrying a string "op" field. It does not interpret op or its operands.
func Validate(data map[string]any) (*Program, error) {
	stepsRaw, ok := data["steps"].([]any)
	if !ok {
		return nil, haligerr.NewValidationError("$.steps", fmt.Sprintf("expected array, got %s", typeName(data["steps"])))
	}

	steps := make([]map[string]any, 0, len(stepsRaw))
	for i, item := range stepsRaw {
		path := fmt.Sprintf("$.steps[%d]", i)
		step, ok := item.(map[string]any)
		if !ok {
			return nil, haligerr.NewValidationError(path, fmt.Sprintf("expected object, got %s", typeName(item)))
		}
		if _, ok := step["op"].(string); !ok {
			return nil, haligerr.NewValidationError(path+".op", fmt.Sprintf("expected string, got %s", typeName(step["op"])))
		}
		steps = append(steps, step)
	}

	return &Program{Steps: steps}, nil
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case string:
		return "string"
	case float64, int:
		return "number"
	case bool:
		return "bool"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
