// Package jsonx extracts a JSON object from raw model output, trying
// progressively looser strategies until one produces a value that at least
// parses as JSON. It never validates the value's shape — that is
// internal/stage1, internal/stage2 and internal/stage3's job.
package jsonx

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/halligan-ai/halligan/internal/haligerr"
)

var fenceRE = regexp.MustCompile("(?is)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ParseObject extracts the first JSON object found in raw, trying direct
// decode, then a fenced ```json code block, then the widest {...} span in
// the text, in that order. The first strategy to produce valid JSON wins.
func ParseObject(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, haligerr.NewParseError("response was empty", nil)
	}

	if obj, err := decode(trimmed); err == nil {
		return obj, nil
	}

	if m := fenceRE.FindStringSubmatch(raw); m != nil {
		if obj, err := decode(m[1]); err == nil {
			return obj, nil
		}
	}

	if span, ok := braceSpan(raw); ok {
		obj, err := decode(span)
		if err != nil {
			return nil, haligerr.NewParseError("no JSON object could be extracted from response", err)
		}
		return obj, nil
	}

	return nil, haligerr.NewParseError("no JSON object could be extracted from response", nil)
}

func decode(s string) (map[string]any, error) {
	var obj map[string]any
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// braceSpan returns the substring from the first '{' to the last '}',
// inclusive. This is deliberately naive (no brace-depth tracking): it
// mirrors the original implementation's str.find/str.rfind approach, which
// is only ever reached after both stricter strategies have failed.
func braceSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return s[start : end+1], true
}
