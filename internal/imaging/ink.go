package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/segment"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultInkLightness is the CIE L* (0 to 1) under which a pixel is ink.
const DefaultInkLightness = 0.5

// InkCoverage returns the fraction of pixels of img darker than
// maxLightness. Fully transparent pixels count as paper.
//
// Lightness is measured in CIE L*, so colored pens are judged by how dark
// they look rather than by their raw channel values.
func InkCoverage(img image.Image, maxLightness float64) float64 {
	b := img.Bounds()
	if b.Empty() {
		return 0
	}

	ink := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			if l, _, _ := c.Lab(); l < maxLightness {
				ink++
			}
		}
	}
	return float64(ink) / float64(b.Dx()*b.Dy())
}

// Binarize maps img to black ink on white paper: pixels with a gray level
// under level become 0, the rest 255.
func Binarize(img image.Image, level uint8) *image.Gray {
	return segment.Threshold(img, level)
}

// IsInk reports whether the binarized pixel at (x, y) is ink.
func IsInk(mask *image.Gray, x, y int) bool {
	return mask.GrayAt(x, y).Y == 0
}
