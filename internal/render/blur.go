// Package render applies destructive regional blurs to a decoded image.
package render

import (
	"image"
	"math"
	"sync"

	"github.com/andresmejia3/facemask/internal/types"
	xdraw "golang.org/x/image/draw"
)

// gaussPasses is the number of box blurs used to approximate one Gaussian.
const gaussPasses = 3

// blurBufferPool recycles the intermediate buffer between the horizontal and vertical passes.
var blurBufferPool = sync.Pool{
	New: func() interface{} { return make([]uint8, 0, 1024*1024) }, // Start with 1MB capacity
}

// colSumsPool recycles column accumulators for the vertical pass.
var colSumsPool = sync.Pool{
	New: func() interface{} { return make([]uint32, 0, 1024) },
}

// Clamp restricts rect to a surface of width x height. Fully outside or
// inverted rectangles come back with a zero width or height.
func Clamp(rect types.Rectangle, width, height int) types.Rectangle {
	x := max(0, rect.X)
	y := max(0, rect.Y)
	return types.Rectangle{
		X:      x,
		Y:      y,
		Width:  max(0, min(rect.Width, width-x)),
		Height: max(0, min(rect.Height, height-y)),
	}
}

// BlurRegion blurs rect on surface in place. The region is copied into a
// scratch image, blurred there and written back, so pixels outside the
// clamped rectangle are never touched. radius is the Gaussian standard
// deviation in pixels; radius <= 0 is a no-op, as is a rectangle that clamps
// to nothing.
func BlurRegion(surface *image.RGBA, rect types.Rectangle, radius int) {
	if radius <= 0 {
		return
	}
	b := surface.Bounds()
	r := Clamp(rect, b.Dx(), b.Dy())
	if r.Empty() {
		return
	}

	region := image.Rect(b.Min.X+r.X, b.Min.Y+r.Y, b.Min.X+r.X+r.Width, b.Min.Y+r.Y+r.Height)
	scratch := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	xdraw.Copy(scratch, image.Point{}, surface, region, xdraw.Src, nil)

	gaussianBlur(scratch, radius)

	xdraw.Copy(surface, region.Min, scratch, scratch.Bounds(), xdraw.Src, nil)
}

// gaussianBlur approximates a Gaussian of standard deviation sigma with
// successive separable box blurs. Edges clamp to the scratch image.
func gaussianBlur(img *image.RGBA, sigma int) {
	w, h := img.Rect.Dx(), img.Rect.Dy()

	neededSize := w * h * 4
	bufPtr := blurBufferPool.Get().([]uint8)
	if cap(bufPtr) < neededSize {
		bufPtr = make([]uint8, neededSize)
	}
	buf := bufPtr[:neededSize]
	defer blurBufferPool.Put(bufPtr)

	neededCols := w * 4
	csPtr := colSumsPool.Get().([]uint32)
	if cap(csPtr) < neededCols {
		csPtr = make([]uint32, neededCols)
	}
	colSums := csPtr[:neededCols]
	defer colSumsPool.Put(csPtr)

	for _, radius := range boxRadii(float64(sigma), gaussPasses) {
		if radius == 0 {
			continue
		}
		boxBlurH(buf, img.Pix, w, h, radius)
		boxBlurV(img.Pix, buf, colSums, w, h, radius)
	}
}

// boxRadii returns the radii of n box filters whose sequential application
// approximates a Gaussian of standard deviation sigma.
func boxRadii(sigma float64, n int) []int {
	fn := float64(n)
	wIdeal := math.Sqrt(12*sigma*sigma/fn + 1)
	wl := int(math.Floor(wIdeal))
	if wl%2 == 0 {
		wl--
	}
	wu := wl + 2

	fl := float64(wl)
	mIdeal := (12*sigma*sigma - fn*fl*fl - 4*fn*fl - 3*fn) / (-4*fl - 4)
	m := int(math.Round(mIdeal))

	radii := make([]int, n)
	for i := range radii {
		size := wu
		if i < m {
			size = wl
		}
		radii[i] = (size - 1) / 2
	}
	return radii
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// boxBlurH reads rows of src and writes the horizontally averaged rows to dst.
// Both buffers are tightly packed RGBA with stride w*4.
func boxBlurH(dst, src []uint8, w, h, radius int) {
	count := uint32(2*radius + 1)
	half := count / 2

	for y := 0; y < h; y++ {
		row := y * w * 4

		var sums [4]uint32
		for k := -radius; k <= radius; k++ {
			off := row + clampIndex(k, w)*4
			for c := 0; c < 4; c++ {
				sums[c] += uint32(src[off+c])
			}
		}

		for x := 0; x < w; x++ {
			off := row + x*4
			for c := 0; c < 4; c++ {
				dst[off+c] = uint8((sums[c] + half) / count)
			}

			// Slide window: drop the leaving pixel, add the entering one
			offRemove := row + clampIndex(x-radius, w)*4
			offAdd := row + clampIndex(x+radius+1, w)*4
			for c := 0; c < 4; c++ {
				sums[c] = sums[c] - uint32(src[offRemove+c]) + uint32(src[offAdd+c])
			}
		}
	}
}

// boxBlurV averages src vertically into dst. It walks row by row keeping a
// running sum per column, which stays cache friendly on wide regions.
func boxBlurV(dst, src []uint8, colSums []uint32, w, h, radius int) {
	for i := range colSums {
		colSums[i] = 0
	}

	for k := -radius; k <= radius; k++ {
		rowOffset := clampIndex(k, h) * w * 4
		for i := 0; i < w*4; i++ {
			colSums[i] += uint32(src[rowOffset+i])
		}
	}

	count := uint32(2*radius + 1)
	half := count / 2

	for y := 0; y < h; y++ {
		dstRow := y * w * 4
		removeRow := clampIndex(y-radius, h) * w * 4
		addRow := clampIndex(y+radius+1, h) * w * 4

		for i := 0; i < w*4; i++ {
			dst[dstRow+i] = uint8((colSums[i] + half) / count)
			colSums[i] = colSums[i] - uint32(src[removeRow+i]) + uint32(src[addRow+i])
		}
	}
}

// RadiusFor derives the blur radius used for a surface of the given size.
func RadiusFor(width, height int) int {
	return int(math.Round(float64(min(width, height)) * 0.015))
}
