package frame

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halligan-ai/halligan/internal/tags"
)

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 90, 90))
}

func TestSplitAllocatesIntoSharedArena(t *testing.T) {
	arena := NewArena([]image.Image{testImage()})
	root := arena.Frames()[0]

	subs, err := root.Split(3, 3)
	require.NoError(t, err)
	assert.Len(t, subs, 9)

	t.Run("subframes are registered in the arena", func(t *testing.T) {
		assert.Len(t, arena.All(), 10)
	})

	t.Run("subframe ids are unique and sequential", func(t *testing.T) {
		for i, sub := range subs {
			assert.Equal(t, i+1, sub.ID())
		}
	})
}

func TestGridProducesSingleRow(t *testing.T) {
	arena := NewArena([]image.Image{testImage()})
	root := arena.Frames()[0]

	grid, err := root.Grid(4)
	require.NoError(t, err)
	require.Len(t, grid, 1)
	assert.Len(t, grid[0], 4)
}

func TestSetElementAsAppendsToParentInteractables(t *testing.T) {
	arena := NewArena([]image.Image{testImage()})
	root := arena.Frames()[0]

	el, err := root.GetElement("top-left", "the submit button")
	require.NoError(t, err)

	t.Run("untagged element reports no tag", func(t *testing.T) {
		_, ok := el.Interactable()
		assert.False(t, ok)
	})

	t.Run("tagging appends to parent interactables", func(t *testing.T) {
		require.NoError(t, el.SetElementAs(tags.CLICKABLE))
		assert.Len(t, root.Interactables(), 1)
		assert.Same(t, el, root.Interactables()[0])
	})

	t.Run("rejects a frame-only tag", func(t *testing.T) {
		other, err := root.GetElement("bottom-right", "")
		require.NoError(t, err)
		err = other.SetElementAs(tags.SLIDEABLE_X)
		assert.Error(t, err)
	})
}

func TestGetInteractableBoundsChecked(t *testing.T) {
	arena := NewArena([]image.Image{testImage()})
	root := arena.Frames()[0]

	el, err := root.GetElement("center", "")
	require.NoError(t, err)
	require.NoError(t, el.SetElementAs(tags.SELECTABLE))

	t.Run("valid id resolves the element", func(t *testing.T) {
		got, err := root.GetInteractable(0)
		require.NoError(t, err)
		assert.Same(t, el, got)
	})

	t.Run("out of range id is a ToolError", func(t *testing.T) {
		_, err := root.GetInteractable(5)
		assert.Error(t, err)
	})
}

func TestKeypointNeighbours(t *testing.T) {
	arena := NewArena([]image.Image{testImage()})
	root := arena.Frames()[0]

	center, err := root.GetKeypoint(4) // middle of the 3x3 grid
	require.NoError(t, err)
	assert.Len(t, center.neighbours, 4)

	corner, err := root.GetKeypoint(0)
	require.NoError(t, err)
	assert.Len(t, corner.neighbours, 2)

	t.Run("get_neighbour resolves by index", func(t *testing.T) {
		n, err := center.GetNeighbour(0)
		require.NoError(t, err)
		assert.NotNil(t, n)
	})

	t.Run("out of range neighbour id errors", func(t *testing.T) {
		_, err := corner.GetNeighbour(3)
		assert.Error(t, err)
	})

	t.Run("show_keypoints validates ids", func(t *testing.T) {
		assert.NoError(t, root.ShowKeypoints([]int{0, 4, 8}))
		assert.Error(t, root.ShowKeypoints([]int{99}))
	})
}

func TestFrameTaggingAndRelations(t *testing.T) {
	arena := NewArena([]image.Image{testImage(), testImage()})
	frames := arena.Frames()

	require.NoError(t, frames[0].SetFrameAs(tags.NEXT))
	tag, ok := frames[0].Interactable()
	assert.True(t, ok)
	assert.Equal(t, tags.NEXT, tag)

	assert.Error(t, frames[1].SetFrameAs(tags.Tag("NOT_A_TAG")))

	frames[0].SetRelation(1, true, "is the image next to")
	rel, ok := frames[0].Relation(1)
	assert.True(t, ok)
	assert.Equal(t, "is the image next to", rel)

	_, ok = frames[1].Relation(0)
	assert.False(t, ok)
}

type stubDriver struct {
	clicked  []string
	dragged  [][2]string
	slid     [][2]string
	swapped  [][2]string
}

func (s *stubDriver) Click(_ context.Context, target string) error {
	s.clicked = append(s.clicked, target)
	return nil
}

func (s *stubDriver) Drag(_ context.Context, start, end string) error {
	s.dragged = append(s.dragged, [2]string{start, end})
	return nil
}

func (s *stubDriver) SlideTo(_ context.Context, handle, direction string) error {
	s.slid = append(s.slid, [2]string{handle, direction})
	return nil
}

func (s *stubDriver) Swap(_ context.Context, a, b string) error {
	s.swapped = append(s.swapped, [2]string{a, b})
	return nil
}

func TestChoiceMethodsDelegateToDriver(t *testing.T) {
	driver := &stubDriver{}
	ctx := context.Background()

	t.Run("SelectChoice.Select clicks its id", func(t *testing.T) {
		require.NoError(t, NewSelectChoice("opt-3", "the red car", driver).Select(ctx))
		assert.Equal(t, []string{"opt-3"}, driver.clicked)
	})

	t.Run("SlideChoice.Refine slides toward direction", func(t *testing.T) {
		require.NoError(t, NewSlideChoice("handle-1", driver).Refine(ctx, "right"))
		assert.Equal(t, [2]string{"handle-1", "right"}, driver.slid[len(driver.slid)-1])
	})

	t.Run("SwapChoice.Swap exchanges both elements", func(t *testing.T) {
		require.NoError(t, NewSwapChoice("a", "b", driver).Swap(ctx))
		assert.Equal(t, [2]string{"a", "b"}, driver.swapped[len(driver.swapped)-1])
	})

	t.Run("DragChoice.Drop drags start to end", func(t *testing.T) {
		require.NoError(t, NewDragChoice("p1", "p2", driver).Drop(ctx))
		assert.Equal(t, [2]string{"p1", "p2"}, driver.dragged[len(driver.dragged)-1])
	})
}
