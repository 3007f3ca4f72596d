package interp

import (
	"fmt"
	"strings"

	"github.com/halligan-ai/halligan/internal/frame"
	"github.com/halligan-ai/halligan/internal/haligerr"
)

// getAttr resolves a named, read-only attribute off obj. Only the attrs
// listed here are reachable — there is no reflect-based fallback, so a
// program can never read a field this switch doesn't name, dunder-prefixed
// or not. Dunder names are still rejected explicitly first so the error
// message matches the documented contract regardless of type.
func getAttr(obj any, name string) (any, error) {
	if strings.HasPrefix(name, "__") {
		return nil, haligerr.NewToolError("dunder attribute access is not allowed", nil)
	}

	switch v := obj.(type) {
	case *frame.Element:
		switch name {
		case "image":
			return v.Image, nil
		case "position":
			return v.Position, nil
		case "details":
			return v.Details, nil
		case "id":
			return float64(v.ID), nil
		}
	case frame.Frame:
		switch name {
		case "image":
			return v.Image(), nil
		case "description":
			return v.Description(), nil
		case "id":
			return float64(v.ID()), nil
		}
	case *frame.Point:
		switch name {
		case "x":
			return float64(v.X), nil
		case "y":
			return float64(v.Y), nil
		case "id":
			return float64(v.ID), nil
		}
	}

	return nil, haligerr.NewToolError(fmt.Sprintf("attribute not allowed: %s.%s", className(obj), name), nil)
}
