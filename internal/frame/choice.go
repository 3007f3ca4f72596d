package frame

import "context"

// The *Choice types below are never constructed by the core: they arise as
// the return value of registered action tools (get_all_choices, drag, and
// friends) and flow back into a Stage-3 program as opaque values. The only
// operations a program may perform on them are the ones named here — the
// interpreter's method allowlist is keyed on these exact type names.

// SelectChoice is one option returned by get_all_choices for a SELECTABLE
// element.
type SelectChoice struct {
	ID     string
	Label  string
	driver Driver
}

// NewSelectChoice constructs a SelectChoice bound to the driver that will
// carry out Select.
func NewSelectChoice(id, label string, driver Driver) *SelectChoice {
	return &SelectChoice{ID: id, Label: label, driver: driver}
}

// Select clicks the option this choice represents.
func (c *SelectChoice) Select(ctx context.Context) error {
	return c.driver.Click(ctx, c.ID)
}

// SlideChoice is a handle on a SLIDEABLE_X/SLIDEABLE_Y frame.
type SlideChoice struct {
	Handle string
	driver Driver
}

func NewSlideChoice(handle string, driver Driver) *SlideChoice {
	return &SlideChoice{Handle: handle, driver: driver}
}

// Refine moves the slider handle one step in direction ("up", "down",
// "left", "right").
func (c *SlideChoice) Refine(ctx context.Context, direction string) error {
	return c.driver.SlideTo(ctx, c.Handle, direction)
}

// Release lets go of the slider handle at its current position.
func (c *SlideChoice) Release(ctx context.Context) error {
	return c.driver.SlideTo(ctx, c.Handle, "release")
}

// SwapChoice is a pair of swappable elements.
type SwapChoice struct {
	A, B   string
	driver Driver
}

func NewSwapChoice(a, b string, driver Driver) *SwapChoice {
	return &SwapChoice{A: a, B: b, driver: driver}
}

// Swap exchanges the two elements' positions.
func (c *SwapChoice) Swap(ctx context.Context) error {
	return c.driver.Swap(ctx, c.A, c.B)
}

// DragChoice is a draggable element paired with its drop target.
type DragChoice struct {
	Start, End string
	driver     Driver
}

func NewDragChoice(start, end string, driver Driver) *DragChoice {
	return &DragChoice{Start: start, End: end, driver: driver}
}

// Drop releases the dragged element onto its target.
func (c *DragChoice) Drop(ctx context.Context) error {
	return c.driver.Drag(ctx, c.Start, c.End)
}

// Choice is a generic held element (e.g. a picked-up POINTABLE target)
// whose only allowed follow-up is releasing it.
type Choice struct {
	ID     string
	driver Driver
}

func NewChoice(id string, driver Driver) *Choice {
	return &Choice{ID: id, driver: driver}
}

// Release lets go of the held element without completing a drop.
func (c *Choice) Release(ctx context.Context) error {
	return c.driver.Click(ctx, c.ID)
}
