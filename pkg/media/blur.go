package media

import (
	"image"
	"math"

	"github.com/platinummonkey/veil/pkg/pii"
)

// minBlurKernel is the smallest kernel applied to a face region. Small faces
// blurred with a proportional kernel stay recognizable; the floor keeps the
// blur irreversible regardless of face size.
const minBlurKernel = 51

// BlurKernel returns the odd Gaussian kernel size for a face box:
// one third of the shorter side, floored at minBlurKernel.
func BlurKernel(box pii.Box) int {
	short := box.Width()
	if box.Height() < short {
		short = box.Height()
	}
	k := short / 3
	if k%2 == 0 {
		k++
	}
	if k < minBlurKernel {
		k = minBlurKernel
	}
	return k
}

// blurBox applies a separable Gaussian blur to the box region in place,
// clamped to the image bounds. Sigma follows the usual kernel/6 rule so the
// kernel covers roughly three standard deviations each side.
func blurBox(img *image.RGBA, box pii.Box, kernel int) {
	rect := image.Rect(box.X0, box.Y0, box.X1, box.Y1).Intersect(img.Bounds())
	if rect.Empty() || kernel < 3 {
		return
	}

	weights := gaussianWeights(kernel)
	radius := kernel / 2

	w := rect.Dx()
	h := rect.Dy()

	// Horizontal pass into a scratch buffer, vertical pass back into img.
	scratch := make([][4]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [4]float64
			var total float64
			for k := -radius; k <= radius; k++ {
				sx := x + k
				if sx < 0 || sx >= w {
					continue
				}
				weight := weights[k+radius]
				offset := img.PixOffset(rect.Min.X+sx, rect.Min.Y+y)
				for c := 0; c < 4; c++ {
					acc[c] += weight * float64(img.Pix[offset+c])
				}
				total += weight
			}
			for c := 0; c < 4; c++ {
				acc[c] /= total
			}
			scratch[y*w+x] = acc
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [4]float64
			var total float64
			for k := -radius; k <= radius; k++ {
				sy := y + k
				if sy < 0 || sy >= h {
					continue
				}
				weight := weights[k+radius]
				src := scratch[sy*w+x]
				for c := 0; c < 4; c++ {
					acc[c] += weight * src[c]
				}
				total += weight
			}
			offset := img.PixOffset(rect.Min.X+x, rect.Min.Y+y)
			for c := 0; c < 4; c++ {
				img.Pix[offset+c] = uint8(acc[c]/total + 0.5)
			}
		}
	}
}

func gaussianWeights(kernel int) []float64 {
	sigma := float64(kernel) / 6
	radius := kernel / 2
	weights := make([]float64, kernel)
	for i := range weights {
		d := float64(i - radius)
		weights[i] = math.Exp(-d * d / (2 * sigma * sigma))
	}
	return weights
}
