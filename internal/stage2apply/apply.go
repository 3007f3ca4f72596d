// Package stage2apply executes a validated Stage-2 plan against a frame
// tree and enforces the global post-condition invariant every plan must
// leave the tree in: exactly one non-NEXT interactable type discovered
// anywhere in the tree, and at most one NEXT.
package stage2apply

import (
	"fmt"
	"sort"

	"github.com/halligan-ai/halligan/internal/frame"
	"github.com/halligan-ai/halligan/internal/haligerr"
	"github.com/halligan-ai/halligan/internal/stage2"
	"github.com/halligan-ai/halligan/internal/tags"
)

// Apply executes each action in plan against frames in order, then
// validates the post-condition invariant across the whole tree.
func Apply(frames []frame.Frame, plan *stage2.Plan) error {
	for i, action := range plan.Actions {
		if action.Frame < 0 || action.Frame >= len(frames) {
			return haligerr.NewToolError(fmt.Sprintf("action %d: frame index out of range: %d", i, action.Frame), nil)
		}
		f := frames[action.Frame]

		switch action.Type {
		case stage2.SetFrame:
			if err := f.SetFrameAs(action.Interactable); err != nil {
				return err
			}

		case stage2.SplitFrame:
			subs, err := f.Split(action.Rows, action.Columns)
			if err != nil {
				return err
			}
			for _, sub := range subs {
				if err := sub.SetFrameAs(action.MarkAsFrame); err != nil {
					return err
				}
			}

		case stage2.GridFrame:
			grid, err := f.Grid(action.Tiles)
			if err != nil {
				return err
			}
			for _, row := range grid {
				for _, el := range row {
					if err := el.SetElementAs(action.MarkAsElement); err != nil {
						return err
					}
				}
			}

		case stage2.GetElement:
			el, err := f.GetElement(action.Position, action.Details)
			if err != nil {
				return err
			}
			if err := el.SetElementAs(action.MarkAsElement); err != nil {
				return err
			}

		default:
			return haligerr.NewValidationError("", fmt.Sprintf("unknown Stage 2 action: %s", action.Type))
		}
	}

	return checkInvariant(frames)
}

// checkInvariant walks the whole frame tree breadth-first, collecting every
// distinct interactable type discovered on frames and elements, and
// enforces that exactly one non-NEXT type exists and NEXT appears at most
// once.
func checkInvariant(frames []frame.Frame) error {
	types := make(map[tags.Tag]struct{})
	nextCount := 0

	queue := append([]frame.Frame{}, frames...)
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]

		if t, ok := f.Interactable(); ok {
			types[t] = struct{}{}
			if t == tags.NEXT {
				nextCount++
			}
		}

		for _, el := range f.Interactables() {
			if t, ok := el.Interactable(); ok {
				types[t] = struct{}{}
				if t == tags.NEXT {
					nextCount++
				}
			}
		}

		queue = append(queue, f.Subframes()...)
	}

	nonNext := make([]string, 0, len(types))
	for t := range types {
		if t != tags.NEXT {
			nonNext = append(nonNext, string(t))
		}
	}
	sort.Strings(nonNext)

	if len(nonNext) != 1 {
		return haligerr.NewValidationError("",
			fmt.Sprintf("Stage 2 must result in exactly one non-NEXT interactable type (found: %v)", nonNext))
	}
	if nextCount > 1 {
		return haligerr.NewValidationError("", "Stage 2 must have at most one NEXT interactable")
	}
	return nil
}
