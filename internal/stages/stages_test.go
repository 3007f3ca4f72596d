package stages

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	halAgent "github.com/halligan-ai/halligan/internal/agent"
	"github.com/halligan-ai/halligan/internal/frame"
	"github.com/halligan-ai/halligan/internal/toolregistry"
)

type scriptedAgent struct {
	responses []string
	calls     int
	resets    int
}

func (a *scriptedAgent) Call(ctx context.Context, prompt string, images []halAgent.Image) (string, halAgent.Metadata, error) {
	resp := a.responses[a.calls]
	a.calls++
	return resp, nil, nil
}

func (a *scriptedAgent) Reset() { a.resets++ }

func testFrames(n int) []frame.Frame {
	imgs := make([]image.Image, n)
	for i := range imgs {
		imgs[i] = image.NewRGBA(image.Rect(0, 0, 90, 90))
	}
	return frame.NewArena(imgs).Frames()
}

func TestObjectiveIdentificationSucceedsFirstTry(t *testing.T) {
	frames := testFrames(2)
	a := &scriptedAgent{responses: []string{
		`{"descriptions": ["a", "b"], "relations": [], "objective": "pick one"}`,
	}}

	objective, err := ObjectiveIdentification(context.Background(), a, frames, "")
	require.NoError(t, err)
	assert.Equal(t, "pick one", objective)
	assert.Equal(t, "a", frames[0].Description())
	assert.Equal(t, 1, a.resets)
}

func TestObjectiveIdentificationRetriesOnBadJSON(t *testing.T) {
	frames := testFrames(1)
	a := &scriptedAgent{responses: []string{
		`not json at all`,
		`{"descriptions": ["a"], "relations": [], "objective": "pick it"}`,
	}}

	objective, err := ObjectiveIdentification(context.Background(), a, frames, "")
	require.NoError(t, err)
	assert.Equal(t, "pick it", objective)
	assert.Equal(t, 2, a.calls)
	assert.Equal(t, 2, a.resets, "agent history must be reset before the retry prompt and again on success")
}

func TestObjectiveIdentificationExhaustsRetries(t *testing.T) {
	frames := testFrames(1)
	a := &scriptedAgent{responses: []string{"nope", "still nope", "nope again"}}

	_, err := ObjectiveIdentification(context.Background(), a, frames, "")
	assert.Error(t, err)
	assert.Equal(t, 3, a.calls)
}

func TestStructureAbstractionAppliesPlan(t *testing.T) {
	frames := testFrames(1)
	a := &scriptedAgent{responses: []string{
		`{"actions": [{"type": "set_frame", "frame": 0, "interactable": "CLICKABLE"}]}`,
	}}

	err := StructureAbstraction(context.Background(), a, frames, "pick it", "")
	require.NoError(t, err)
	tag, ok := frames[0].Interactable()
	assert.True(t, ok)
	assert.Equal(t, "CLICKABLE", string(tag))
	assert.Equal(t, 1, a.resets)
}

func TestStructureAbstractionResetsBeforeRetryOnBadJSON(t *testing.T) {
	frames := testFrames(1)
	a := &scriptedAgent{responses: []string{
		`not json at all`,
		`{"actions": [{"type": "set_frame", "frame": 0, "interactable": "CLICKABLE"}]}`,
	}}

	err := StructureAbstraction(context.Background(), a, frames, "pick it", "")
	require.NoError(t, err)
	assert.Equal(t, 2, a.calls)
	assert.Equal(t, 2, a.resets, "agent history must be reset before the retry prompt and again on success")
}

func TestStructureAbstractionResetsBeforeRetryOnApplyError(t *testing.T) {
	frames := testFrames(1)
	a := &scriptedAgent{responses: []string{
		`{"actions": [{"type": "set_frame", "frame": 0, "interactable": "NEXT"}]}`,
		`{"actions": [{"type": "set_frame", "frame": 0, "interactable": "CLICKABLE"}]}`,
	}}

	err := StructureAbstraction(context.Background(), a, frames, "pick it", "")
	require.NoError(t, err)
	assert.Equal(t, 2, a.calls)
	assert.Equal(t, 2, a.resets, "agent history must be reset before the retry prompt and again on success")
}

func TestSolutionCompositionExecutesProgram(t *testing.T) {
	frames := testFrames(1)
	a := &scriptedAgent{responses: []string{
		`{"steps": [{"op": "assign", "var": "x", "value": "done"}]}`,
	}}
	ec := ExecutionContext{Agent: a, Registry: toolregistry.New()}

	err := SolutionComposition(context.Background(), ec, frames, "pick it")
	require.NoError(t, err)
}
