package tools

import (
	"context"
	"image"

	"github.com/halligan-ai/halligan/internal/frame"
	"github.com/halligan-ai/halligan/internal/haligerr"
	"github.com/halligan-ai/halligan/internal/toolregistry"
)

// BuildDefault registers every action and vision tool a Stage-3 program may
// call by its fixed name, mirroring build_default_registry(agent) from the
// original implementation: ten action tools bound to browser, six vision
// tools bound to a (ExecutionContext's) Agent. compatOverrides gates ask()'s
// two literal question/answer overrides (runtimeconfig.Config.CompatOverrides).
func BuildDefault(registry *toolregistry.Registry, browser *BrowserClient, a VisionAgent, compatOverrides bool) {
	registry.Register("click", browser.click)
	registry.Register("get_all_choices", browser.getAllChoices)
	registry.Register("drag", browser.drag)
	registry.Register("draw", browser.draw)
	registry.Register("enter", browser.enter)
	registry.Register("point", browser.point)
	registry.Register("select", browser.selectFinal)
	registry.Register("slide_x", browser.slideX)
	registry.Register("slide_y", browser.slideY)
	registry.Register("explore", browser.explore)

	registry.Register("ask", func(ctx context.Context, args map[string]any) (any, error) {
		images, err := imagesArg(args, "images")
		if err != nil {
			return nil, err
		}
		question, err := stringArg(args, "question")
		if err != nil {
			return nil, err
		}
		answerType, err := stringArg(args, "answer_type")
		if err != nil {
			return nil, err
		}
		return ask(ctx, a, images, question, answerType, compatOverrides)
	})

	registry.Register("rank", func(ctx context.Context, args map[string]any) (any, error) {
		images, err := imagesArg(args, "images")
		if err != nil {
			return nil, err
		}
		objective, err := stringArg(args, "task_objective")
		if err != nil {
			return nil, err
		}
		ids, err := rank(ctx, a, images, objective)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(ids))
		for i, id := range ids {
			out[i] = id
		}
		return out, nil
	})

	registry.Register("compare", func(ctx context.Context, args map[string]any) (any, error) {
		images, err := imagesArg(args, "images")
		if err != nil {
			return nil, err
		}
		objective, err := stringArg(args, "task_objective")
		if err != nil {
			return nil, err
		}
		reference, err := imageArg(args, "reference")
		if err != nil {
			return nil, err
		}
		results, err := compare(ctx, a, images, objective, reference)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(results))
		for i, v := range results {
			out[i] = v
		}
		return out, nil
	})

	registry.Register("mark", func(ctx context.Context, args map[string]any) (any, error) {
		images, err := imagesArg(args, "images")
		if err != nil {
			return nil, err
		}
		object, err := stringArg(args, "object")
		if err != nil {
			return nil, err
		}
		return mark(images, object)
	})

	registry.Register("focus", func(ctx context.Context, args map[string]any) (any, error) {
		img, err := imageArg(args, "image")
		if err != nil {
			return nil, err
		}
		description, err := stringArg(args, "description")
		if err != nil {
			return nil, err
		}
		return focus(img, description)
	})

	registry.Register("match", func(ctx context.Context, args map[string]any) (any, error) {
		e1, err := elementArg(args, "e1")
		if err != nil {
			return nil, err
		}
		e2, err := elementArg(args, "e2")
		if err != nil {
			return nil, err
		}
		return match(e1, e2), nil
	})
}

func imageOf(v any) (image.Image, error) {
	switch val := v.(type) {
	case image.Image:
		return val, nil
	case *frame.Element:
		return val.Image, nil
	case frame.Frame:
		return val.Image(), nil
	default:
		return nil, haligerr.NewToolError("expected a frame or element carrying an image", nil)
	}
}

func imageArg(args map[string]any, name string) (image.Image, error) {
	v, ok := args[name]
	if !ok {
		return nil, haligerr.NewToolError("missing argument: "+name, nil)
	}
	return imageOf(v)
}

func imagesArg(args map[string]any, name string) ([]image.Image, error) {
	v, ok := args[name]
	if !ok {
		return nil, haligerr.NewToolError("missing argument: "+name, nil)
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, haligerr.NewToolError("argument "+name+" must be a list", nil)
	}
	out := make([]image.Image, len(raw))
	for i, item := range raw {
		img, err := imageOf(item)
		if err != nil {
			return nil, err
		}
		out[i] = img
	}
	return out, nil
}

func elementArg(args map[string]any, name string) (*frame.Element, error) {
	v, ok := args[name]
	if !ok {
		return nil, haligerr.NewToolError("missing argument: "+name, nil)
	}
	el, ok := v.(*frame.Element)
	if !ok {
		return nil, haligerr.NewToolError("argument "+name+" must be an element", nil)
	}
	return el, nil
}
