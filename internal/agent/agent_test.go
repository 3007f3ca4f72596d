package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGPTAgentRejectsEmptyAPIKey(t *testing.T) {
	_, err := NewGPTAgent("", "")
	assert.Error(t, err)
}

func TestNewGPTAgentDefaultsModel(t *testing.T) {
	a, err := NewGPTAgent("sk-test", "")
	assert.NoError(t, err)
	assert.Equal(t, defaultModel, a.model)
}
