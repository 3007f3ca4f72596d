package interp

import (
	"context"
	"fmt"

	"github.com/halligan-ai/halligan/internal/frame"
	"github.com/halligan-ai/halligan/internal/haligerr"
)

// methodFn invokes one allowlisted method on target with already-evaluated
// args.
type methodFn func(ctx context.Context, target any, args map[string]any) (any, error)

// allowedMethods is the full call_method surface: class name -> method name
// -> invoker. A target whose class isn't a key here, or a method not a key
// of that class's map, is rejected by ensureAllowedMethod before this table
// is even consulted for the call.
var allowedMethods = map[string]map[string]methodFn{
	"Frame": {
		"show_keypoints": func(ctx context.Context, target any, args map[string]any) (any, error) {
			f := target.(frame.Frame)
			ids, err := intSliceArg(args, "ids")
			if err != nil {
				return nil, err
			}
			return nil, f.ShowKeypoints(ids)
		},
		"get_keypoint": func(ctx context.Context, target any, args map[string]any) (any, error) {
			f := target.(frame.Frame)
			id, err := intArg(args, "id")
			if err != nil {
				return nil, err
			}
			return f.GetKeypoint(id)
		},
		"get_interactable": func(ctx context.Context, target any, args map[string]any) (any, error) {
			f := target.(frame.Frame)
			id, err := intArg(args, "id")
			if err != nil {
				return nil, err
			}
			return f.GetInteractable(id)
		},
	},
	"Point": {
		"show_neighbours": func(ctx context.Context, target any, args map[string]any) (any, error) {
			p := target.(*frame.Point)
			ids, err := intSliceArg(args, "ids")
			if err != nil {
				return nil, err
			}
			return nil, p.ShowNeighbours(ids)
		},
		"get_neighbour": func(ctx context.Context, target any, args map[string]any) (any, error) {
			p := target.(*frame.Point)
			id, err := intArg(args, "id")
			if err != nil {
				return nil, err
			}
			return p.GetNeighbour(id)
		},
	},
	"SelectChoice": {
		"select": func(ctx context.Context, target any, args map[string]any) (any, error) {
			return nil, target.(*frame.SelectChoice).Select(ctx)
		},
	},
	"SlideChoice": {
		"refine": func(ctx context.Context, target any, args map[string]any) (any, error) {
			direction, err := stringArg(args, "direction")
			if err != nil {
				return nil, err
			}
			return nil, target.(*frame.SlideChoice).Refine(ctx, direction)
		},
		"release": func(ctx context.Context, target any, args map[string]any) (any, error) {
			return nil, target.(*frame.SlideChoice).Release(ctx)
		},
	},
	"SwapChoice": {
		"swap": func(ctx context.Context, target any, args map[string]any) (any, error) {
			return nil, target.(*frame.SwapChoice).Swap(ctx)
		},
	},
	"DragChoice": {
		"drop": func(ctx context.Context, target any, args map[string]any) (any, error) {
			return nil, target.(*frame.DragChoice).Drop(ctx)
		},
	},
	"Choice": {
		"release": func(ctx context.Context, target any, args map[string]any) (any, error) {
			return nil, target.(*frame.Choice).Release(ctx)
		},
	},
}

// className returns obj's allowlist key via an explicit type switch — never
// via reflection — so the set of recognized classes is exactly the one
// enumerated here.
func className(obj any) string {
	switch obj.(type) {
	case frame.Frame:
		return "Frame"
	case *frame.Point:
		return "Point"
	case *frame.SelectChoice:
		return "SelectChoice"
	case *frame.SlideChoice:
		return "SlideChoice"
	case *frame.SwapChoice:
		return "SwapChoice"
	case *frame.DragChoice:
		return "DragChoice"
	case *frame.Choice:
		return "Choice"
	default:
		return fmt.Sprintf("%T", obj)
	}
}

func ensureAllowedMethod(target any, method string) (methodFn, error) {
	cls := className(target)
	methods, ok := allowedMethods[cls]
	if !ok {
		return nil, haligerr.NewToolError(fmt.Sprintf("method not allowed: %s.%s", cls, method), nil)
	}
	fn, ok := methods[method]
	if !ok {
		return nil, haligerr.NewToolError(fmt.Sprintf("method not allowed: %s.%s", cls, method), nil)
	}
	return fn, nil
}

func intArg(args map[string]any, key string) (int, error) {
	v, ok := args[key]
	if !ok {
		return 0, haligerr.NewToolError(fmt.Sprintf("missing argument: %s", key), nil)
	}
	n, ok := asInt(v)
	if !ok {
		return 0, haligerr.NewToolError(fmt.Sprintf("argument %s must be an integer", key), nil)
	}
	return n, nil
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", haligerr.NewToolError(fmt.Sprintf("missing argument: %s", key), nil)
	}
	s, ok := v.(string)
	if !ok {
		return "", haligerr.NewToolError(fmt.Sprintf("argument %s must be a string", key), nil)
	}
	return s, nil
}

func intSliceArg(args map[string]any, key string) ([]int, error) {
	v, ok := args[key]
	if !ok {
		return nil, haligerr.NewToolError(fmt.Sprintf("missing argument: %s", key), nil)
	}
	items, ok := v.([]any)
	if !ok {
		return nil, haligerr.NewToolError(fmt.Sprintf("argument %s must be a list", key), nil)
	}
	out := make([]int, len(items))
	for i, item := range items {
		n, ok := asInt(item)
		if !ok {
			return nil, haligerr.NewToolError(fmt.Sprintf("argument %s must be a list of integers", key), nil)
		}
		out[i] = n
	}
	return out, nil
}
