package tools

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	halAgent "github.com/halligan-ai/halligan/internal/agent"
)

type stubAgent struct {
	responses []string
	calls     int
	resets    int
}

func (a *stubAgent) Call(ctx context.Context, prompt string, images []halAgent.Image) (string, halAgent.Metadata, error) {
	resp := a.responses[a.calls]
	a.calls++
	return resp, nil, nil
}

func (a *stubAgent) Reset() { a.resets++ }

func solidImage(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestLiteralListParsesNumbersAndPythonBooleans(t *testing.T) {
	values, err := literalList("[1, 2, 3]")
	require.NoError(t, err)
	assert.Len(t, values, 3)

	values, err = literalList("[True, False]")
	require.NoError(t, err)
	assert.Equal(t, []any{true, false}, values)
}

func TestLiteralListRejectsGarbage(t *testing.T) {
	_, err := literalList("not a list")
	assert.Error(t, err)
}

func TestAskBoolParsesAnswer(t *testing.T) {
	a := &stubAgent{responses: []string{"I think answer(true) is right."}}
	out, err := ask(context.Background(), a, []image.Image{solidImage(color.White)}, "is this true?", "bool", true)
	require.NoError(t, err)
	assert.Equal(t, []any{true}, out)
	assert.Equal(t, 1, a.resets)
}

func TestAskHonorsLiteralOverride(t *testing.T) {
	a := &stubAgent{responses: []string{"unused"}}
	out, err := ask(context.Background(), a, nil, "Point to the letter", "int", true)
	require.NoError(t, err)
	assert.Equal(t, []any{7}, out)
	assert.Equal(t, 0, a.calls)
}

func TestAskIgnoresLiteralOverrideWhenDisabled(t *testing.T) {
	a := &stubAgent{responses: []string{"answer(numbers=[3])"}}
	out, err := ask(context.Background(), a, []image.Image{solidImage(color.White)}, "Point to the letter", "int", false)
	require.NoError(t, err)
	assert.Equal(t, []any{3}, out)
	assert.Equal(t, 1, a.calls)
}

func TestAskBoolFallsBackToFalseWhenNoMatch(t *testing.T) {
	images := []image.Image{solidImage(color.White), solidImage(color.Black)}
	a := &stubAgent{responses: []string{"no usable answer here"}}
	out, err := ask(context.Background(), a, images, "is this true?", "bool", true)
	require.NoError(t, err)
	assert.Equal(t, []any{false, false}, out)
}

func TestAskIntFallsBackToZeroWhenNoMatch(t *testing.T) {
	images := []image.Image{solidImage(color.White), solidImage(color.Black)}
	a := &stubAgent{responses: []string{"no usable answer here"}}
	out, err := ask(context.Background(), a, images, "how many?", "int", true)
	require.NoError(t, err)
	assert.Equal(t, []any{0, 0}, out)
}

func TestCompareDefaultsFalseWhenNoMatch(t *testing.T) {
	a := &stubAgent{responses: []string{"no usable answer here"}}
	out, err := compare(context.Background(), a, []image.Image{solidImage(color.White)}, "same shape", solidImage(color.Black))
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, out)
}

func TestRankSingleBatch(t *testing.T) {
	a := &stubAgent{responses: []string{"rank(ids=[2, 0, 1])"}}
	ids, err := rank(context.Background(), a, []image.Image{solidImage(color.White), solidImage(color.Black), solidImage(color.RGBA{R: 255, A: 255})}, "pick reddest")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 1}, ids)
}

func TestRankFallsBackToRandomPermutationWhenNoMatch(t *testing.T) {
	a := &stubAgent{responses: []string{"no usable ranking here"}}
	ids, err := rank(context.Background(), a, []image.Image{solidImage(color.White), solidImage(color.Black), solidImage(color.RGBA{R: 255, A: 255})}, "pick reddest")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1, 2}, ids)
}

func TestMatchIdenticalImages(t *testing.T) {
	h1 := averageHash(solidImage(color.White))
	h2 := averageHash(solidImage(color.White))
	assert.Equal(t, 0, hammingDistance(h1, h2))
}

func TestMatchDissimilarImages(t *testing.T) {
	leftWhite := image.NewRGBA(image.Rect(0, 0, 16, 16))
	rightWhite := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if x < 8 {
				leftWhite.Set(x, y, color.White)
				rightWhite.Set(x, y, color.Black)
			} else {
				leftWhite.Set(x, y, color.Black)
				rightWhite.Set(x, y, color.White)
			}
		}
	}
	h1 := averageHash(leftWhite)
	h2 := averageHash(rightWhite)
	assert.Greater(t, hammingDistance(h1, h2), matchHammingThreshold)
}
