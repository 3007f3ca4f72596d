// Package frame implements the in-memory Frame tree: the external data
// model Stage 2 mutates and Stage 3 reads. Per the Design Notes' "Frame tree
// ownership" guidance, every frame is allocated into and owned by one flat
// arena; subframes are held as pointers into that arena and an Element
// points back to its parent frame.
package frame

import (
	"context"
	"fmt"
	"image"

	"github.com/halligan-ai/halligan/internal/haligerr"
	"github.com/halligan-ai/halligan/internal/tags"
)

// Driver is implemented by the action-tool transport (the reference
// implementation is tools.BrowserClient) and invoked by *Choice result
// methods when a Stage-3 program calls them through call_method. Frame
// itself never talks to a Driver directly — only the Choice types returned
// by tool calls do, keeping this package free of any HTTP/transport
// dependency.
type Driver interface {
	Click(ctx context.Context, target string) error
	Drag(ctx context.Context, start, end string) error
	SlideTo(ctx context.Context, handle, direction string) error
	Swap(ctx context.Context, a, b string) error
}

// Point is a keypoint on a Frame's image, arranged in a coarse grid so that
// get_neighbour has well-defined up/down/left/right semantics.
type Point struct {
	ID         int
	Row, Col   int
	X, Y       int
	neighbours []*Point
}

// GetNeighbour returns the id-th neighbour recorded for this point
// (typically 0=up, 1=down, 2=left, 3=right, skipping directions that fall
// outside the keypoint grid).
func (p *Point) GetNeighbour(id int) (*Point, error) {
	if id < 0 || id >= len(p.neighbours) {
		return nil, haligerr.NewToolError(fmt.Sprintf("invalid neighbour id: %d", id), nil)
	}
	return p.neighbours[id], nil
}

// ShowNeighbours validates that every id names a recorded neighbour. The
// real rendering of neighbour markers onto the frame image is a tool-level
// concern; this method only validates the ids the interpreter is allowed to
// reference afterward via further get_neighbour calls.
func (p *Point) ShowNeighbours(ids []int) error {
	for _, id := range ids {
		if id < 0 || id >= len(p.neighbours) {
			return haligerr.NewToolError(fmt.Sprintf("invalid neighbour id: %d", id), nil)
		}
	}
	return nil
}

// Element is a child region of a Frame: either hand-picked (get_element) or
// carved out of a uniform grid (grid_frame).
type Element struct {
	ID          int
	Parent      *MemoryFrame
	Position    string
	Details     string
	Image       image.Image
	interactable tags.Tag
	hasTag       bool
}

// SetElementAs tags the element and appends it to its parent's
// interactables list, maintaining invariant I2.
func (e *Element) SetElementAs(t tags.Tag) error {
	if !tags.IsValidElementTag(t) {
		return haligerr.NewValidationError("", fmt.Sprintf("invalid element tag: %s", t))
	}
	e.interactable = t
	e.hasTag = true
	e.Parent.interactables = append(e.Parent.interactables, e)
	return nil
}

// Interactable returns the element's tag, if any.
func (e *Element) Interactable() (tags.Tag, bool) {
	return e.interactable, e.hasTag
}

// Frame is the capability surface the core depends on. MemoryFrame is the
// only implementation in this module; it is modeled as an interface so that
// Stage 2/3 code never assumes a concrete representation (spec.md §3).
type Frame interface {
	ID() int
	Image() image.Image
	Description() string
	SetDescription(string)
	SetRelation(dst int, hasDst bool, relationship string)
	Relation(dst int) (string, bool)
	Interactable() (tags.Tag, bool)
	SetFrameAs(t tags.Tag) error
	Split(rows, columns int) ([]Frame, error)
	Grid(tiles int) ([][]*Element, error)
	GetElement(position, details string) (*Element, error)
	GetInteractable(id int) (any, error)
	GetKeypoint(id int) (*Point, error)
	ShowKeypoints(ids []int) error
	Interactables() []*Element
	Subframes() []Frame
}

// MemoryFrame is the arena-friendly Frame implementation: every frame it
// produces via Split is appended to the same Arena, and all of a Frame's
// state lives in exported-free fields reachable only through the Frame
// interface, per invariant I3 (no partial mutation visible before success).
type MemoryFrame struct {
	id            int
	image         image.Image
	description   string
	relations     map[int]string
	interactable  tags.Tag
	hasTag        bool
	interactables []*Element
	subframes     []Frame
	keypoints     []*Point

	arena *Arena
}

// Arena owns the lifetime of every Frame created during a solving session.
// Split() allocates new MemoryFrames into the same Arena that owns the
// parent, so the whole tree can be walked/flattened without pointer-graph
// ownership questions.
type Arena struct {
	frames []*MemoryFrame
}

// NewArena seeds an Arena with the top-level frames of a solving session,
// each wrapping an already-decoded image.
func NewArena(images []image.Image) *Arena {
	a := &Arena{}
	for _, img := range images {
		a.newFrame(img)
	}
	return a
}

func (a *Arena) newFrame(img image.Image) *MemoryFrame {
	f := &MemoryFrame{
		id:        len(a.frames),
		image:     img,
		relations: make(map[int]string),
		arena:     a,
	}
	a.frames = append(a.frames, f)
	return f
}

// Frames returns the top-level frames in id order, the slice Stage 1/2/3
// operate over.
func (a *Arena) Frames() []Frame {
	out := make([]Frame, 0, len(a.frames))
	for _, f := range a.frames {
		out = append(out, f)
	}
	return out
}

// All returns every frame in the arena, top-level and nested, in allocation
// order. (stage2apply's tree walk follows Subframes instead.)
func (a *Arena) All() []*MemoryFrame {
	return a.frames
}

func (f *MemoryFrame) ID() int                { return f.id }
func (f *MemoryFrame) Image() image.Image     { return f.image }
func (f *MemoryFrame) Description() string    { return f.description }
func (f *MemoryFrame) SetDescription(d string) { f.description = d }

func (f *MemoryFrame) SetRelation(dst int, hasDst bool, relationship string) {
	if !hasDst {
		return
	}
	f.relations[dst] = relationship
}

func (f *MemoryFrame) Relation(dst int) (string, bool) {
	r, ok := f.relations[dst]
	return r, ok
}

func (f *MemoryFrame) Interactable() (tags.Tag, bool) { return f.interactable, f.hasTag }

func (f *MemoryFrame) SetFrameAs(t tags.Tag) error {
	if !tags.IsValidFrameTag(t) {
		return haligerr.NewValidationError("", fmt.Sprintf("invalid frame tag: %s", t))
	}
	f.interactable = t
	f.hasTag = true
	return nil
}

// Split partitions the frame's image into rows*columns equal-sized
// subframes, allocated into the same arena, and returns them in
// row-major order.
func (f *MemoryFrame) Split(rows, columns int) ([]Frame, error) {
	if rows <= 0 || columns <= 0 {
		return nil, haligerr.NewValidationError("", "rows and columns must be positive")
	}
	bounds := f.image.Bounds()
	w, h := bounds.Dx()/columns, bounds.Dy()/rows
	out := make([]Frame, 0, rows*columns)
	for r := 0; r < rows; r++ {
		for c := 0; c < columns; c++ {
			rect := image.Rect(bounds.Min.X+c*w, bounds.Min.Y+r*h, bounds.Min.X+(c+1)*w, bounds.Min.Y+(r+1)*h)
			sub := f.arena.newFrame(subImage(f.image, rect))
			out = append(out, sub)
		}
	}
	f.subframes = out
	return out, nil
}

// Grid carves the frame's image into `tiles` elements arranged in a single
// row, the layout this module's Stage 2 applier and tests rely on.
func (f *MemoryFrame) Grid(tiles int) ([][]*Element, error) {
	if tiles <= 0 {
		return nil, haligerr.NewValidationError("", "tiles must be positive")
	}
	bounds := f.image.Bounds()
	w := bounds.Dx() / tiles
	row := make([]*Element, 0, tiles)
	for i := 0; i < tiles; i++ {
		rect := image.Rect(bounds.Min.X+i*w, bounds.Min.Y, bounds.Min.X+(i+1)*w, bounds.Max.Y)
		row = append(row, &Element{ID: len(f.interactables) + i, Parent: f, Image: subImage(f.image, rect)})
	}
	return [][]*Element{row}, nil
}

// GetElement returns a single new element for the frame, recording the
// requested position and detail string. The image is not cropped: the
// element's Image is the whole frame image.
func (f *MemoryFrame) GetElement(position, details string) (*Element, error) {
	el := &Element{
		ID:       len(f.interactables),
		Parent:   f,
		Position: position,
		Details:  details,
		Image:    f.image,
	}
	return el, nil
}

// GetInteractable resolves a previously-tagged Element by its index into
// this frame's interactables list.
func (f *MemoryFrame) GetInteractable(id int) (any, error) {
	if id < 0 || id >= len(f.interactables) {
		return nil, haligerr.NewToolError(fmt.Sprintf("invalid interactable id: %d", id), nil)
	}
	return f.interactables[id], nil
}

// GetKeypoint returns the id-th keypoint, lazily laying out a 3x3 grid of
// keypoints over the frame's image on first use.
func (f *MemoryFrame) GetKeypoint(id int) (*Point, error) {
	f.ensureKeypoints()
	if id < 0 || id >= len(f.keypoints) {
		return nil, haligerr.NewToolError(fmt.Sprintf("invalid keypoint id: %d", id), nil)
	}
	return f.keypoints[id], nil
}

// ShowKeypoints validates that every id names a laid-out keypoint.
func (f *MemoryFrame) ShowKeypoints(ids []int) error {
	f.ensureKeypoints()
	for _, id := range ids {
		if id < 0 || id >= len(f.keypoints) {
			return haligerr.NewToolError(fmt.Sprintf("invalid keypoint id: %d", id), nil)
		}
	}
	return nil
}

func (f *MemoryFrame) Interactables() []*Element { return f.interactables }
func (f *MemoryFrame) Subframes() []Frame        { return f.subframes }

const keypointGridSize = 3

func (f *MemoryFrame) ensureKeypoints() {
	if f.keypoints != nil {
		return
	}
	bounds := f.image.Bounds()
	stepX := bounds.Dx() / keypointGridSize
	stepY := bounds.Dy() / keypointGridSize

	points := make([]*Point, 0, keypointGridSize*keypointGridSize)
	for r := 0; r < keypointGridSize; r++ {
		for c := 0; c < keypointGridSize; c++ {
			points = append(points, &Point{
				ID:  len(points),
				Row: r, Col: c,
				X: bounds.Min.X + c*stepX,
				Y: bounds.Min.Y + r*stepY,
			})
		}
	}
	for _, p := range points {
		p.neighbours = neighboursOf(points, p, keypointGridSize)
	}
	f.keypoints = points
}

// neighboursOf returns up/down/left/right neighbours that exist within the
// grid, in that order, skipping directions that fall off the edge.
func neighboursOf(points []*Point, p *Point, size int) []*Point {
	var out []*Point
	at := func(r, c int) *Point {
		if r < 0 || r >= size || c < 0 || c >= size {
			return nil
		}
		return points[r*size+c]
	}
	for _, n := range []*Point{at(p.Row-1, p.Col), at(p.Row+1, p.Col), at(p.Row, p.Col-1), at(p.Row, p.Col+1)} {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// subImage crops img to rect using the stdlib SubImager interface where
// available, falling back to returning img unmodified for image types that
// don't support it (e.g. a hand-rolled test double).
func subImage(img image.Image, rect image.Rectangle) image.Image {
	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	if si, ok := img.(subImager); ok {
		return si.SubImage(rect)
	}
	return img
}
