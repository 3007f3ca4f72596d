// Package interp is the Stage-3 restricted DSL: a tagged-expression
// evaluator and a six-op statement runner that replace the original
// eval()-based execution primitive. Every dynamic value the program can
// produce is dispatched by explicit class identity — a type switch, never
// reflection over arbitrary attribute names — so the allowed surface is
// exactly the one enumerated in this package.
package interp

import (
	"encoding/json"
	"fmt"

	"github.com/halligan-ai/halligan/internal/frame"
	"github.com/halligan-ai/halligan/internal/haligerr"
)

// Env is the Stage-3 program's variable environment, populated by assign,
// foreach, and every step's save_as.
type Env map[string]any

// evalExpr evaluates one Stage-3 expression. Expressions are raw JSON
// values with three special object forms: {"var": ...}, {"ref": ..., ...},
// {"op": ..., ...}. A string, number, bool or null evaluates to itself; a
// plain array evaluates each item in turn. Any other object or value type is
// a ToolError.
func evalExpr(expr any, env Env, frames []frame.Frame) (any, error) {
	switch v := expr.(type) {
	case nil, string, bool, float64, json.Number, int:
		return v, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			val, err := evalExpr(item, env, frames)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	case map[string]any:
		return evalForm(v, env, frames)
	default:
		return nil, haligerr.NewToolError(fmt.Sprintf("unsupported expression: %v", expr), nil)
	}
}

func evalForm(expr map[string]any, env Env, frames []frame.Frame) (any, error) {
	if name, ok := expr["var"]; ok {
		nameStr, ok := name.(string)
		if !ok {
			return nil, haligerr.NewToolError("expression var name must be string", nil)
		}
		val, ok := env[nameStr]
		if !ok {
			return nil, haligerr.NewToolError(fmt.Sprintf("undefined variable: %s", nameStr), nil)
		}
		return val, nil
	}

	if ref, ok := expr["ref"].(string); ok {
		switch ref {
		case "frame":
			return evalRefFrame(expr, frames)
		case "interactable":
			return evalRefInteractable(expr, frames)
		case "keypoint":
			return evalRefKeypoint(expr, frames)
		case "neighbour":
			return evalRefNeighbour(expr, env, frames)
		case "attr":
			return evalRefAttr(expr, env, frames)
		case "index":
			return evalRefIndex(expr, env, frames)
		default:
			return nil, haligerr.NewToolError(fmt.Sprintf("unsupported ref: %s", ref), nil)
		}
	}

	if op, ok := expr["op"].(string); ok {
		switch op {
		case "map_attr":
			return evalOpMapAttr(expr, env, frames)
		case "filter_mask":
			return evalOpFilterMask(expr, env, frames)
		case "len":
			return evalOpLen(expr, env, frames)
		case "sum":
			return evalOpSum(expr, env, frames)
		default:
			return nil, haligerr.NewToolError(fmt.Sprintf("unsupported op: %s", op), nil)
		}
	}

	return nil, haligerr.NewToolError(fmt.Sprintf("unsupported expression: %v", expr), nil)
}

func evalRefFrame(expr map[string]any, frames []frame.Frame) (any, error) {
	id, ok := asInt(expr["id"])
	if !ok || id < 0 || id >= len(frames) {
		return nil, haligerr.NewToolError(fmt.Sprintf("invalid frame id: %v", expr["id"]), nil)
	}
	return frames[id], nil
}

func evalRefInteractable(expr map[string]any, frames []frame.Frame) (any, error) {
	frameID, ok := asInt(expr["frame"])
	if !ok || frameID < 0 || frameID >= len(frames) {
		return nil, haligerr.NewToolError(fmt.Sprintf("invalid frame id: %v", expr["frame"]), nil)
	}
	id, ok := asInt(expr["id"])
	if !ok || id < 0 {
		return nil, haligerr.NewToolError(fmt.Sprintf("invalid interactable id: %v", expr["id"]), nil)
	}
	return frames[frameID].GetInteractable(id)
}

func evalRefKeypoint(expr map[string]any, frames []frame.Frame) (any, error) {
	frameID, ok := asInt(expr["frame"])
	if !ok || frameID < 0 || frameID >= len(frames) {
		return nil, haligerr.NewToolError(fmt.Sprintf("invalid frame id: %v", expr["frame"]), nil)
	}
	id, ok := asInt(expr["id"])
	if !ok || id < 0 {
		return nil, haligerr.NewToolError(fmt.Sprintf("invalid keypoint id: %v", expr["id"]), nil)
	}
	return frames[frameID].GetKeypoint(id)
}

func evalRefNeighbour(expr map[string]any, env Env, frames []frame.Frame) (any, error) {
	pointVal, err := evalExpr(expr["point"], env, frames)
	if err != nil {
		return nil, err
	}
	point, ok := pointVal.(*frame.Point)
	if !ok {
		return nil, haligerr.NewToolError("neighbour.point must evaluate to a Point", nil)
	}
	id, ok := asInt(expr["id"])
	if !ok || id < 0 {
		return nil, haligerr.NewToolError(fmt.Sprintf("invalid neighbour id: %v", expr["id"]), nil)
	}
	return point.GetNeighbour(id)
}

func evalRefAttr(expr map[string]any, env Env, frames []frame.Frame) (any, error) {
	obj, err := evalExpr(expr["obj"], env, frames)
	if err != nil {
		return nil, err
	}
	name, ok := expr["name"].(string)
	if !ok {
		return nil, haligerr.NewToolError("attr.name must be string", nil)
	}
	return getAttr(obj, name)
}

func evalRefIndex(expr map[string]any, env Env, frames []frame.Frame) (any, error) {
	list, err := evalExpr(expr["list"], env, frames)
	if err != nil {
		return nil, err
	}
	idxVal, err := evalExpr(expr["index"], env, frames)
	if err != nil {
		return nil, err
	}
	idx, ok := asInt(idxVal)
	if !ok {
		return nil, haligerr.NewToolError("index.index must evaluate to int", nil)
	}
	items, ok := list.([]any)
	if !ok {
		return nil, haligerr.NewToolError("index.list must evaluate to a list", nil)
	}
	if idx < 0 || idx >= len(items) {
		return nil, haligerr.NewToolError(fmt.Sprintf("index out of range: %d", idx), nil)
	}
	return items[idx], nil
}

func evalOpMapAttr(expr map[string]any, env Env, frames []frame.Frame) (any, error) {
	listVal, err := evalExpr(expr["list"], env, frames)
	if err != nil {
		return nil, err
	}
	items, ok := listVal.([]any)
	if !ok {
		return nil, haligerr.NewToolError("map_attr.list must evaluate to a list", nil)
	}
	attr, ok := expr["attr"].(string)
	if !ok {
		return nil, haligerr.NewToolError("map_attr.attr must be a non-dunder string", nil)
	}
	out := make([]any, len(items))
	for i, item := range items {
		val, err := getAttr(item, attr)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

func evalOpFilterMask(expr map[string]any, env Env, frames []frame.Frame) (any, error) {
	itemsVal, err := evalExpr(expr["items"], env, frames)
	if err != nil {
		return nil, err
	}
	maskVal, err := evalExpr(expr["mask"], env, frames)
	if err != nil {
		return nil, err
	}
	items, ok := itemsVal.([]any)
	if !ok {
		return nil, haligerr.NewToolError("filter_mask requires list items", nil)
	}
	mask, ok := maskVal.([]any)
	if !ok {
		return nil, haligerr.NewToolError("filter_mask requires list mask", nil)
	}
	if len(items) != len(mask) {
		return nil, haligerr.NewToolError("filter_mask items and mask must be same length", nil)
	}
	out := make([]any, 0, len(items))
	for i, item := range items {
		flag, ok := mask[i].(bool)
		if !ok {
			return nil, haligerr.NewToolError("filter_mask mask must contain booleans", nil)
		}
		if flag {
			out = append(out, item)
		}
	}
	return out, nil
}

func evalOpLen(expr map[string]any, env Env, frames []frame.Frame) (any, error) {
	val, err := evalExpr(expr["value"], env, frames)
	if err != nil {
		return nil, err
	}
	switch v := val.(type) {
	case []any:
		return float64(len(v)), nil
	case string:
		return float64(len(v)), nil
	default:
		return nil, haligerr.NewToolError("len requires a list or string", nil)
	}
}

func evalOpSum(expr map[string]any, env Env, frames []frame.Frame) (any, error) {
	val, err := evalExpr(expr["value"], env, frames)
	if err != nil {
		return nil, err
	}
	items, ok := val.([]any)
	if !ok {
		return nil, haligerr.NewToolError("sum requires a list", nil)
	}
	total := 0.0
	for _, item := range items {
		n, ok := asFloat(item)
		if !ok {
			return nil, haligerr.NewToolError("sum requires a list of numbers", nil)
		}
		total += n
	}
	return total, nil
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
