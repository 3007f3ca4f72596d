package jsonx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObjectDirect(t *testing.T) {
	obj, err := ParseObject(`{"objective": "click the odd one out"}`)
	require.NoError(t, err)
	assert.Equal(t, "click the odd one out", obj["objective"])
}

func TestParseObjectFencedCodeBlock(t *testing.T) {
	raw := "Sure, here you go:\n```json\n{\"objective\": \"find the cat\"}\n```\nLet me know if that helps."
	obj, err := ParseObject(raw)
	require.NoError(t, err)
	assert.Equal(t, "find the cat", obj["objective"])
}

func TestParseObjectFencedWithoutLanguageTag(t *testing.T) {
	raw := "```\n{\"objective\": \"find the dog\"}\n```"
	obj, err := ParseObject(raw)
	require.NoError(t, err)
	assert.Equal(t, "find the dog", obj["objective"])
}

func TestParseObjectBraceSpanFallback(t *testing.T) {
	raw := "The answer is {\"objective\": \"select all squares\"} as shown above."
	obj, err := ParseObject(raw)
	require.NoError(t, err)
	assert.Equal(t, "select all squares", obj["objective"])
}

func TestParseObjectNoJSON(t *testing.T) {
	_, err := ParseObject("there is no JSON here at all")
	assert.Error(t, err)
}

func TestParseObjectEmpty(t *testing.T) {
	_, err := ParseObject("   ")
	assert.Error(t, err)
}
