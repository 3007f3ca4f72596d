package tools

import (
	"encoding/json"
	"fmt"
	"strings"
)

// literalList parses a strict JSON array literal out of text, the safe
// replacement for ast.literal_eval(text): it accepts exactly what a model
// is instructed to emit (a bracketed list of numbers, strings, or
// booleans) and nothing else. Python's True/False spelling is normalized
// to JSON's true/false before decoding, which is the only syntactic gap
// between the two literal grammars that ever matters here.
func literalList(text string) ([]any, error) {
	normalized := strings.NewReplacer("True", "true", "False", "false").Replace(text)
	var value []any
	if err := json.Unmarshal([]byte(normalized), &value); err != nil {
		return nil, fmt.Errorf("expected a list literal: %w", err)
	}
	return value, nil
}
