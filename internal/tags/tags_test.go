package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameVsElementTags(t *testing.T) {
	t.Run("SLIDEABLE_X is frame-only", func(t *testing.T) {
		assert.True(t, IsValidFrameTag(SLIDEABLE_X))
		assert.False(t, IsValidElementTag(SLIDEABLE_X))
	})

	t.Run("CLICKABLE is valid on both", func(t *testing.T) {
		assert.True(t, IsValidFrameTag(CLICKABLE))
		assert.True(t, IsValidElementTag(CLICKABLE))
	})

	t.Run("unknown tag is invalid on both", func(t *testing.T) {
		assert.False(t, IsValidFrameTag(Tag("BOGUS")))
		assert.False(t, IsValidElementTag(Tag("BOGUS")))
	})

	t.Run("element enumeration excludes both slide axes", func(t *testing.T) {
		names := ElementTagNames()
		assert.NotContains(t, names, string(SLIDEABLE_X))
		assert.NotContains(t, names, string(SLIDEABLE_Y))
	})
}
