package stage2apply

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halligan-ai/halligan/internal/frame"
	"github.com/halligan-ai/halligan/internal/stage2"
	"github.com/halligan-ai/halligan/internal/tags"
)

func testFrames(n int) []frame.Frame {
	imgs := make([]image.Image, n)
	for i := range imgs {
		imgs[i] = image.NewRGBA(image.Rect(0, 0, 90, 90))
	}
	return frame.NewArena(imgs).Frames()
}

func TestApplySetFrameSatisfiesInvariant(t *testing.T) {
	frames := testFrames(2)
	plan := &stage2.Plan{Actions: []stage2.Action{
		{Type: stage2.SetFrame, Frame: 0, Interactable: tags.CLICKABLE},
		{Type: stage2.SetFrame, Frame: 1, Interactable: tags.NEXT},
	}}
	require.NoError(t, Apply(frames, plan))
}

func TestApplyRejectsMultipleNonNextTypes(t *testing.T) {
	frames := testFrames(2)
	plan := &stage2.Plan{Actions: []stage2.Action{
		{Type: stage2.SetFrame, Frame: 0, Interactable: tags.CLICKABLE},
		{Type: stage2.SetFrame, Frame: 1, Interactable: tags.SELECTABLE},
	}}
	err := Apply(frames, plan)
	assert.Error(t, err)
}

func TestApplyRejectsMultipleNext(t *testing.T) {
	frames := testFrames(2)
	plan := &stage2.Plan{Actions: []stage2.Action{
		{Type: stage2.SetFrame, Frame: 0, Interactable: tags.NEXT},
		{Type: stage2.SetFrame, Frame: 1, Interactable: tags.NEXT},
	}}
	err := Apply(frames, plan)
	assert.Error(t, err)
}

func TestApplyGridFrameTagsElements(t *testing.T) {
	frames := testFrames(1)
	plan := &stage2.Plan{Actions: []stage2.Action{
		{Type: stage2.GridFrame, Frame: 0, Tiles: 3, MarkAsElement: tags.CLICKABLE},
	}}
	require.NoError(t, Apply(frames, plan))
	assert.Len(t, frames[0].Interactables(), 3)
}

func TestApplySplitFrameThenSetFrameOnSubframe(t *testing.T) {
	frames := testFrames(1)
	plan := &stage2.Plan{Actions: []stage2.Action{
		{Type: stage2.SplitFrame, Frame: 0, Rows: 1, Columns: 2, MarkAsFrame: tags.CLICKABLE},
	}}
	require.NoError(t, Apply(frames, plan))
	assert.Len(t, frames[0].Subframes(), 2)
}

func TestApplyRejectsZeroInteractableTypes(t *testing.T) {
	frames := testFrames(1)
	plan := &stage2.Plan{Actions: []stage2.Action{}}
	err := Apply(frames, plan)
	assert.Error(t, err)
}
