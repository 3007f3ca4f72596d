package interp

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halligan-ai/halligan/internal/frame"
	"github.com/halligan-ai/halligan/internal/stage3"
	"github.com/halligan-ai/halligan/internal/toolregistry"
)

func testFrames(n int) []frame.Frame {
	imgs := make([]image.Image, n)
	for i := range imgs {
		imgs[i] = image.NewRGBA(image.Rect(0, 0, 90, 90))
	}
	return frame.NewArena(imgs).Frames()
}

func TestExecuteCallsRegisteredTool(t *testing.T) {
	frames := testFrames(1)
	reg := toolregistry.New()
	var calledWith map[string]any
	reg.Register("click", func(ctx context.Context, args map[string]any) (any, error) {
		calledWith = args
		return "ok", nil
	})

	program := &stage3.Program{Steps: []map[string]any{
		{"op": "call", "tool": "click", "args": map[string]any{"target": "ref:0"}, "save_as": "result"},
	}}

	require.NoError(t, Execute(context.Background(), frames, program, reg))
	assert.Equal(t, "ref:0", calledWith["target"])
}

func TestExecuteBlocksUnknownTool(t *testing.T) {
	frames := testFrames(1)
	reg := toolregistry.New()
	program := &stage3.Program{Steps: []map[string]any{
		{"op": "call", "tool": "does_not_exist", "args": map[string]any{}},
	}}
	err := Execute(context.Background(), frames, program, reg)
	assert.Error(t, err)
}

func TestExecuteAssignAndVarLookup(t *testing.T) {
	frames := testFrames(1)
	reg := toolregistry.New()
	program := &stage3.Program{Steps: []map[string]any{
		{"op": "assign", "var": "x", "value": "hello"},
		{"op": "assign", "var": "y", "value": map[string]any{"var": "x"}},
	}}
	r := &runner{ctx: context.Background(), frames: frames, registry: reg, env: Env{}}
	require.NoError(t, r.runSteps(program.Steps))
	assert.Equal(t, "hello", r.env["y"])
}

func TestExecuteForeachWithIf(t *testing.T) {
	frames := testFrames(1)
	reg := toolregistry.New()
	var seen []any
	reg.Register("record", func(ctx context.Context, args map[string]any) (any, error) {
		seen = append(seen, args["v"])
		return nil, nil
	})

	program := &stage3.Program{Steps: []map[string]any{
		{
			"op":  "foreach",
			"var": "item",
			"in":  []any{float64(1), float64(2), float64(3)},
			"do": []any{
				map[string]any{
					"op": "if",
					"cond": map[string]any{
						"op":    "len",
						"value": []any{map[string]any{"var": "item"}},
					},
					"then": []any{
						map[string]any{"op": "call", "tool": "record", "args": map[string]any{"v": map[string]any{"var": "item"}}},
					},
				},
			},
		},
	}}
	require.NoError(t, Execute(context.Background(), frames, program, reg))
	assert.Len(t, seen, 3)
}

func TestExecuteBreakStopsForeach(t *testing.T) {
	frames := testFrames(1)
	reg := toolregistry.New()
	var seen []any
	reg.Register("record", func(ctx context.Context, args map[string]any) (any, error) {
		seen = append(seen, args["v"])
		return nil, nil
	})

	program := &stage3.Program{Steps: []map[string]any{
		{
			"op":  "foreach",
			"var": "item",
			"in":  []any{float64(1), float64(2), float64(3)},
			"do": []any{
				map[string]any{"op": "call", "tool": "record", "args": map[string]any{"v": map[string]any{"var": "item"}}},
				map[string]any{"op": "break"},
			},
		},
	}}
	require.NoError(t, Execute(context.Background(), frames, program, reg))
	assert.Len(t, seen, 1)
}

func TestCallMethodRespectsAllowlist(t *testing.T) {
	frames := testFrames(1)
	reg := toolregistry.New()

	program := &stage3.Program{Steps: []map[string]any{
		{
			"op":     "call_method",
			"target": map[string]any{"ref": "frame", "id": float64(0)},
			"method": "get_keypoint",
			"args":   map[string]any{"id": float64(4)},
			"save_as": "kp",
		},
	}}
	require.NoError(t, Execute(context.Background(), frames, program, reg))
}

func TestCallMethodRejectsDisallowedMethod(t *testing.T) {
	frames := testFrames(1)
	reg := toolregistry.New()

	program := &stage3.Program{Steps: []map[string]any{
		{
			"op":     "call_method",
			"target": map[string]any{"ref": "frame", "id": float64(0)},
			"method": "set_frame_as",
			"args":   map[string]any{},
		},
	}}
	err := Execute(context.Background(), frames, program, reg)
	assert.Error(t, err)
}

func TestEvalRefAttrRejectsDunder(t *testing.T) {
	frames := testFrames(1)
	_, err := evalExpr(map[string]any{
		"ref": "attr",
		"obj": map[string]any{"ref": "frame", "id": float64(0)},
		"name": "__class__",
	}, Env{}, frames)
	assert.Error(t, err)
}

func TestEvalOpLenAndSum(t *testing.T) {
	frames := testFrames(1)
	lenVal, err := evalExpr(map[string]any{"op": "len", "value": []any{float64(1), float64(2), float64(3)}}, Env{}, frames)
	require.NoError(t, err)
	assert.Equal(t, float64(3), lenVal)

	sumVal, err := evalExpr(map[string]any{"op": "sum", "value": []any{float64(1), float64(2), float64(3)}}, Env{}, frames)
	require.NoError(t, err)
	assert.Equal(t, 6.0, sumVal)
}

func TestEvalOpFilterMask(t *testing.T) {
	frames := testFrames(1)
	val, err := evalExpr(map[string]any{
		"op":    "filter_mask",
		"items": []any{"a", "b", "c"},
		"mask":  []any{true, false, true},
	}, Env{}, frames)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "c"}, val)
}
