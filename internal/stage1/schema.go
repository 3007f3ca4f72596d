// Package stage1 validates the Objective Identification response: per-frame
// descriptions, optional pairwise relations, and the solving objective.
package stage1

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/halligan-ai/halligan/internal/haligerr"
)

// Relation is a directed, optionally-dangling edge between two frames
// ("dst" is absent when a description only relates a frame to itself or to
// an unnamed neighbour).
type Relation struct {
	Src          int
	Dst          int
	HasDst       bool
	Relationship string
}

// Result is the validated Stage-1 response.
type Result struct {
	Descriptions []string
	Relations    []Relation
	Objective    string
}

// Validate checks data against the Stage-1 schema: descriptions must have
// exactly `frames` entries, every relation's frame indices must be in
// range, and objective must be a non-empty string.
func Validate(data map[string]any, frames int) (*Result, error) {
	descriptionsRaw, err := requireList(data, "descriptions", "$.descriptions")
	if err != nil {
		return nil, err
	}
	if len(descriptionsRaw) != frames {
		return nil, haligerr.NewValidationError("$.descriptions",
			fmt.Sprintf("length mismatch: expected %d, got %d", frames, len(descriptionsRaw)))
	}
	descriptions := make([]string, len(descriptionsRaw))
	for i, d := range descriptionsRaw {
		s, err := requireStr(d, fmt.Sprintf("$.descriptions[%d]", i))
		if err != nil {
			return nil, err
		}
		descriptions[i] = strings.TrimSpace(s)
	}

	relationsRaw, _ := data["relations"].([]any)
	relations := make([]Relation, 0, len(relationsRaw))
	for i, item := range relationsRaw {
		path := fmt.Sprintf("$.relations[%d]", i)
		relObj, err := requireDict(item, path)
		if err != nil {
			return nil, err
		}

		src, err := requireInt(relObj["from"], path+".from")
		if err != nil {
			return nil, err
		}
		dst, hasDst, err := requireOptionalInt(relObj["to"], path+".to")
		if err != nil {
			return nil, err
		}
		relationship, _ := relObj["relationship"].(string)
		relationship = strings.TrimSpace(relationship)

		if src < 0 || src >= frames {
			return nil, haligerr.NewValidationError(path+".from", fmt.Sprintf("out of range: %d", src))
		}
		if hasDst && (dst < 0 || dst >= frames) {
			return nil, haligerr.NewValidationError(path+".to", fmt.Sprintf("out of range: %d", dst))
		}

		relations = append(relations, Relation{Src: src, Dst: dst, HasDst: hasDst, Relationship: relationship})
	}

	objectiveRaw, ok := data["objective"]
	if !ok {
		return nil, haligerr.NewValidationError("$.objective", "expected string, got <missing>")
	}
	objective, err := requireStr(objectiveRaw, "$.objective")
	if err != nil {
		return nil, err
	}
	objective = strings.TrimSpace(objective)
	if objective == "" {
		return nil, haligerr.NewValidationError("$.objective", "must be non-empty")
	}

	return &Result{Descriptions: descriptions, Relations: relations, Objective: objective}, nil
}

func requireDict(v any, path string) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, haligerr.NewValidationError(path, fmt.Sprintf("expected object, got %s", typeName(v)))
	}
	return m, nil
}

func requireList(data map[string]any, key, path string) ([]any, error) {
	v, ok := data[key]
	if !ok {
		return nil, haligerr.NewValidationError(path, fmt.Sprintf("expected array, got %s", typeName(nil)))
	}
	list, ok := v.([]any)
	if !ok {
		return nil, haligerr.NewValidationError(path, fmt.Sprintf("expected array, got %s", typeName(v)))
	}
	return list, nil
}

func requireStr(v any, path string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", haligerr.NewValidationError(path, fmt.Sprintf("expected string, got %s", typeName(v)))
	}
	return s, nil
}

func requireInt(v any, path string) (int, error) {
	n, ok := asInt(v)
	if !ok {
		return 0, haligerr.NewValidationError(path, fmt.Sprintf("expected integer, got %s", typeName(v)))
	}
	return n, nil
}

func requireOptionalInt(v any, path string) (int, bool, error) {
	if v == nil {
		return 0, false, nil
	}
	n, err := requireInt(v, path)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// asInt accepts json.Number, integral float64, and int — the shapes
// json.Decoder and plain map[string]any literals can produce — and rejects
// anything else, including a float64 with a fractional part, and bool
// (Go's type system already keeps bool out of the float64/
// json.Number paths, so no special-case is needed to match Python's
// isinstance(x, int) rejecting True/False... Go has no such ambiguity).
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case string:
		return "string"
	case float64, int, json.Number:
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
