package interp

import (
	"context"
	"errors"
	"fmt"

	"github.com/halligan-ai/halligan/internal/frame"
	"github.com/halligan-ai/halligan/internal/haligerr"
	"github.com/halligan-ai/halligan/internal/stage3"
	"github.com/halligan-ai/halligan/internal/toolregistry"
)

// errBreak is a sentinel propagated up from a "break" step and caught only
// by the innermost enclosing foreach — it never escapes Execute: a break
// outside any foreach is reported as a ToolError.
var errBreak = errors.New("break")

// Execute runs a validated Stage-3 program against frames, dispatching
// "call" steps through registry and "call_method" steps through the
// class-keyed method allowlist in methods.go.
func Execute(ctx context.Context, frames []frame.Frame, program *stage3.Program, registry *toolregistry.Registry) error {
	r := &runner{ctx: ctx, frames: frames, registry: registry, env: Env{}}
	err := r.runSteps(program.Steps)
	if errors.Is(err, errBreak) {
		return haligerr.NewToolError("break outside of foreach", nil)
	}
	return err
}

type runner struct {
	ctx      context.Context
	frames   []frame.Frame
	registry *toolregistry.Registry
	env      Env
}

func (r *runner) runSteps(steps []map[string]any) error {
	for _, step := range steps {
		if err := r.runStep(step); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) runStep(step map[string]any) error {
	op, _ := step["op"].(string)
	switch op {
	case "call":
		return r.runCall(step)
	case "call_method":
		return r.runCallMethod(step)
	case "assign":
		return r.runAssign(step)
	case "foreach":
		return r.runForeach(step)
	case "if":
		return r.runIf(step)
	case "break":
		return errBreak
	default:
		return haligerr.NewToolError(fmt.Sprintf("unknown step op: %q", op), nil)
	}
}

func (r *runner) runCall(step map[string]any) error {
	toolName, ok := step["tool"].(string)
	if !ok {
		return haligerr.NewToolError("call.tool must be string", nil)
	}
	fn, ok := r.registry.Get(toolName)
	if !ok {
		return haligerr.NewToolError(fmt.Sprintf("tool not allowed: %s", toolName), nil)
	}

	args, err := r.evalArgs(step["args"])
	if err != nil {
		return err
	}

	result, err := fn(r.ctx, args)
	if err != nil {
		return haligerr.NewToolError(fmt.Sprintf("tool call failed: %s", toolName), err)
	}

	return r.saveAs(step, result)
}

func (r *runner) runCallMethod(step map[string]any) error {
	target, err := evalExpr(step["target"], r.env, r.frames)
	if err != nil {
		return err
	}
	method, ok := step["method"].(string)
	if !ok || method == "" {
		return haligerr.NewToolError("call_method.method must be string", nil)
	}

	fn, err := ensureAllowedMethod(target, method)
	if err != nil {
		return err
	}

	args, err := r.evalArgs(step["args"])
	if err != nil {
		return err
	}

	result, err := fn(r.ctx, target, args)
	if err != nil {
		return haligerr.NewToolError(fmt.Sprintf("method call failed: %s.%s", className(target), method), err)
	}

	return r.saveAs(step, result)
}

func (r *runner) runAssign(step map[string]any) error {
	name, ok := step["var"].(string)
	if !ok || name == "" {
		return haligerr.NewToolError("assign.var must be non-empty string", nil)
	}
	val, err := evalExpr(step["value"], r.env, r.frames)
	if err != nil {
		return err
	}
	r.env[name] = val
	return nil
}

func (r *runner) runForeach(step map[string]any) error {
	varName, ok := step["var"].(string)
	if !ok || varName == "" {
		return haligerr.NewToolError("foreach.var must be non-empty string", nil)
	}
	iterableVal, err := evalExpr(step["in"], r.env, r.frames)
	if err != nil {
		return err
	}
	items, ok := iterableVal.([]any)
	if !ok {
		return haligerr.NewToolError("foreach.in must evaluate to a list", nil)
	}
	body, err := stepsFromAny(step["do"], "foreach.do")
	if err != nil {
		return err
	}

	for _, item := range items {
		r.env[varName] = item
		if err := r.runSteps(body); err != nil {
			if errors.Is(err, errBreak) {
				break
			}
			return err
		}
	}
	return nil
}

func (r *runner) runIf(step map[string]any) error {
	cond, err := evalExpr(step["cond"], r.env, r.frames)
	if err != nil {
		return err
	}
	thenSteps, err := stepsFromAny(step["then"], "if.then")
	if err != nil {
		return err
	}
	elseSteps, err := stepsFromAny(step["else"], "if.else")
	if err != nil {
		return err
	}
	if truthy(cond) {
		return r.runSteps(thenSteps)
	}
	return r.runSteps(elseSteps)
}

func (r *runner) evalArgs(raw any) (map[string]any, error) {
	if raw == nil {
		return map[string]any{}, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, haligerr.NewToolError("args must be object", nil)
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		val, err := evalExpr(v, r.env, r.frames)
		if err != nil {
			return nil, err
		}
		out[k] = val
	}
	return out, nil
}

func (r *runner) saveAs(step map[string]any, result any) error {
	saveAsRaw, ok := step["save_as"]
	if !ok || saveAsRaw == nil {
		return nil
	}
	name, ok := saveAsRaw.(string)
	if !ok || name == "" {
		return haligerr.NewToolError("save_as must be non-empty string", nil)
	}
	r.env[name] = result
	return nil
}

func stepsFromAny(raw any, path string) ([]map[string]any, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, haligerr.NewToolError(fmt.Sprintf("%s must be a list of steps", path), nil)
	}
	out := make([]map[string]any, len(items))
	for i, item := range items {
		step, ok := item.(map[string]any)
		if !ok {
			return nil, haligerr.NewToolError(fmt.Sprintf("%s[%d] must be an object", path, i), nil)
		}
		out[i] = step
	}
	return out, nil
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case nil:
		return false
	default:
		return true
	}
}
