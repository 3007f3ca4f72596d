package stage3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsArbitraryStepShapes(t *testing.T) {
	data := map[string]any{
		"steps": []any{
			map[string]any{"op": "call", "tool": "click", "args": map[string]any{"target": "ref:keypoint:0:0"}},
			map[string]any{"op": "assign", "name": "x", "value": map[string]any{"kind": "var", "name": "y"}},
		},
	}
	program, err := Validate(data)
	require.NoError(t, err)
	assert.Len(t, program.Steps, 2)
}

func TestValidateRejectsMissingOp(t *testing.T) {
	data := map[string]any{
		"steps": []any{
			map[string]any{"tool": "click"},
		},
	}
	_, err := Validate(data)
	assert.Error(t, err)
}

func TestValidateRejectsNonObjectStep(t *testing.T) {
	data := map[string]any{
		"steps": []any{"not-an-object"},
	}
	_, err := Validate(data)
	assert.Error(t, err)
}

func TestValidateRejectsMissingSteps(t *testing.T) {
	_, err := Validate(map[string]any{})
	assert.Error(t, err)
}
