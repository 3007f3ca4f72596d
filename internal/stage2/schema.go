// Package stage2 validates the Structure Abstraction response: a sequence
// of frame-mutating actions (set_frame, split_frame, grid_frame,
// get_element), each tagged with a target interactable classification.
package stage2

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/halligan-ai/halligan/internal/haligerr"
	"github.com/halligan-ai/halligan/internal/tags"
)

// ActionType is one of the four Stage-2 action kinds.
type ActionType string

const (
	SetFrame   ActionType = "set_frame"
	SplitFrame ActionType = "split_frame"
	GridFrame  ActionType = "grid_frame"
	GetElement ActionType = "get_element"
)

var actionTypes = map[ActionType]struct{}{
	SetFrame: {}, SplitFrame: {}, GridFrame: {}, GetElement: {},
}

var positions = map[string]struct{}{
	"up": {}, "down": {}, "left": {}, "right": {}, "all": {},
}

// Action is one validated Stage-2 step. Only the fields relevant to its
// Type are populated; callers switch on Type before reading them.
type Action struct {
	Type ActionType
	Frame int

	// set_frame
	Interactable tags.Tag

	// split_frame
	Rows, Columns int
	MarkAsFrame   tags.Tag

	// grid_frame
	Tiles int

	// get_element
	Position string
	Details  string
	MarkAsElement tags.Tag
}

// Plan is the validated Stage-2 response.
type Plan struct {
	Actions []Action
}

// Validate checks data against the Stage-2 schema. frames bounds the
// frame-index range every action's "frame" field must fall within.
func Validate(data map[string]any, frames int) (*Plan, error) {
	actionsRaw, ok := data["actions"].([]any)
	if !ok {
		return nil, haligerr.NewValidationError("$.actions", fmt.Sprintf("expected array, got %s", typeName(data["actions"])))
	}

	actions := make([]Action, 0, len(actionsRaw))
	for i, item := range actionsRaw {
		path := fmt.Sprintf("$.actions[%d]", i)
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, haligerr.NewValidationError(path, fmt.Sprintf("expected object, got %s", typeName(item)))
		}

		typeStr, ok := obj["type"].(string)
		if !ok {
			return nil, haligerr.NewValidationError(path+".type", fmt.Sprintf("expected string, got %s", typeName(obj["type"])))
		}
		actionType := ActionType(typeStr)
		if _, ok := actionTypes[actionType]; !ok {
			return nil, haligerr.NewValidationError(path+".type", fmt.Sprintf("unknown action type: %q", typeStr))
		}

		frameID, ok := asInt(obj["frame"])
		if !ok {
			return nil, haligerr.NewValidationError(path+".frame", fmt.Sprintf("expected integer, got %s", typeName(obj["frame"])))
		}
		if frameID < 0 || frameID >= frames {
			return nil, haligerr.NewValidationError(path+".frame", fmt.Sprintf("out of range: %d", frameID))
		}

		var action Action
		var err error
		switch actionType {
		case SetFrame:
			action, err = validateSetFrame(obj, frameID, path)
		case SplitFrame:
			action, err = validateSplitFrame(obj, frameID, path)
		case GridFrame:
			action, err = validateGridFrame(obj, frameID, path)
		case GetElement:
			action, err = validateGetElement(obj, frameID, path)
		}
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}

	return &Plan{Actions: actions}, nil
}

func validateSetFrame(obj map[string]any, frameID int, path string) (Action, error) {
	tag, err := requireOneOfFrame(obj["interactable"], path+".interactable")
	if err != nil {
		return Action{}, err
	}
	return Action{Type: SetFrame, Frame: frameID, Interactable: tag}, nil
}

func validateSplitFrame(obj map[string]any, frameID int, path string) (Action, error) {
	rows, ok := asInt(obj["rows"])
	if !ok {
		return Action{}, haligerr.NewValidationError(path+".rows", fmt.Sprintf("expected integer, got %s", typeName(obj["rows"])))
	}
	columns, ok := asInt(obj["columns"])
	if !ok {
		return Action{}, haligerr.NewValidationError(path+".columns", fmt.Sprintf("expected integer, got %s", typeName(obj["columns"])))
	}
	markAs, err := requireOneOfFrame(obj["mark_as"], path+".mark_as")
	if err != nil {
		return Action{}, err
	}
	if rows <= 0 || columns <= 0 {
		return Action{}, haligerr.NewValidationError(path, "rows/columns must be positive")
	}
	return Action{Type: SplitFrame, Frame: frameID, Rows: rows, Columns: columns, MarkAsFrame: markAs}, nil
}

func validateGridFrame(obj map[string]any, frameID int, path string) (Action, error) {
	tiles, ok := asInt(obj["tiles"])
	if !ok {
		return Action{}, haligerr.NewValidationError(path+".tiles", fmt.Sprintf("expected integer, got %s", typeName(obj["tiles"])))
	}
	markAs, err := requireOneOfElement(obj["mark_as"], path+".mark_as")
	if err != nil {
		return Action{}, err
	}
	if tiles <= 0 {
		return Action{}, haligerr.NewValidationError(path+".tiles", "must be positive")
	}
	return Action{Type: GridFrame, Frame: frameID, Tiles: tiles, MarkAsElement: markAs}, nil
}

func validateGetElement(obj map[string]any, frameID int, path string) (Action, error) {
	position, ok := obj["position"].(string)
	if !ok {
		return Action{}, haligerr.NewValidationError(path+".position", fmt.Sprintf("expected string, got %s", typeName(obj["position"])))
	}
	if _, ok := positions[position]; !ok {
		return Action{}, haligerr.NewValidationError(path+".position", fmt.Sprintf("invalid value: %q", position))
	}
	details, ok := obj["details"].(string)
	if !ok {
		return Action{}, haligerr.NewValidationError(path+".details", fmt.Sprintf("expected string, got %s", typeName(obj["details"])))
	}
	details = strings.TrimSpace(details)
	if details == "" {
		return Action{}, haligerr.NewValidationError(path+".details", "must be non-empty")
	}
	markAs, err := requireOneOfElement(obj["mark_as"], path+".mark_as")
	if err != nil {
		return Action{}, err
	}
	return Action{Type: GetElement, Frame: frameID, Position: position, Details: details, MarkAsElement: markAs}, nil
}

func requireOneOfFrame(v any, path string) (tags.Tag, error) {
	s, ok := v.(string)
	if !ok {
		return "", haligerr.NewValidationError(path, fmt.Sprintf("expected string, got %s", typeName(v)))
	}
	tag := tags.Tag(s)
	if !tags.IsValidFrameTag(tag) {
		return "", haligerr.NewValidationError(path, fmt.Sprintf("invalid value: %q; allowed: %v", s, tags.FrameTagNames()))
	}
	return tag, nil
}

func requireOneOfElement(v any, path string) (tags.Tag, error) {
	s, ok := v.(string)
	if !ok {
		return "", haligerr.NewValidationError(path, fmt.Sprintf("expected string, got %s", typeName(v)))
	}
	tag := tags.Tag(s)
	if !tags.IsValidElementTag(tag) {
		return "", haligerr.NewValidationError(path, fmt.Sprintf("invalid value: %q; allowed: %v", s, tags.ElementTagNames()))
	}
	return tag, nil
}

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
