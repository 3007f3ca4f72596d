package tools

import (
	"image"

	"github.com/halligan-ai/halligan/internal/frame"
)

// match compares two elements for visual similarity. The original
// implementation used cv2/skimage moment and color-histogram comparison;
// no computer-vision library of any kind was retrieved anywhere in this
// pack (not in the teacher, not in the rest of the corpus), so this is a
// documented standard-library substitute: an 8x8 average-hash perceptual
// hash compared by Hamming distance, built entirely on the stdlib image
// package. Two elements match when their hashes differ in at most
// matchHammingThreshold of the 64 bits.
const matchHammingThreshold = 8

func match(e1, e2 *frame.Element) bool {
	h1 := averageHash(e1.Image)
	h2 := averageHash(e2.Image)
	return hammingDistance(h1, h2) <= matchHammingThreshold
}

const hashGridSize = 8

// averageHash reduces img to an 8x8 grayscale grid, then sets one bit per
// cell according to whether that cell's luminance is at or above the grid's
// mean. A uniform image of any colour therefore hashes to all ones.
func averageHash(img image.Image) uint64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	var cells [hashGridSize * hashGridSize]float64
	var total float64
	for r := 0; r < hashGridSize; r++ {
		for c := 0; c < hashGridSize; c++ {
			x := bounds.Min.X + c*w/hashGridSize
			y := bounds.Min.Y + r*h/hashGridSize
			r16, g16, b16, _ := img.At(x, y).RGBA()
			lum := 0.299*float64(r16) + 0.587*float64(g16) + 0.114*float64(b16)
			cells[r*hashGridSize+c] = lum
			total += lum
		}
	}
	mean := total / float64(len(cells))

	var hash uint64
	for i, v := range cells {
		if v >= mean {
			hash |= 1 << uint(i)
		}
	}
	return hash
}

func hammingDistance(a, b uint64) int {
	x := a ^ b
	count := 0
	for x != 0 {
		count++
		x &= x - 1
	}
	return count
}
