// Package geometry converts detector boxes into pixel rectangles.
package geometry

import (
	"math"

	"github.com/andresmejia3/facemask/internal/types"
)

// IsNormalized reports whether a box is treated as fractions of the image
// size. The detector does not say which space it reports in, so any box whose
// far corner lies within [0,1] on both axes is taken as normalized. A genuine
// pixel box inside the top-left 1x1 pixel would be misread; detectors never
// report boxes that small.
func IsNormalized(b types.FaceBox) bool {
	return b.XMax <= 1 && b.YMax <= 1
}

// coordLimit bounds converted coordinates so that int conversion and the
// width/height subtraction cannot overflow, even with a 32-bit int.
const coordLimit = 1 << 30

// ToPixelRect maps a detector box onto a surface of the given size.
// No clipping to the surface happens here; inverted boxes yield negative
// sizes and non-finite input yields a zero rectangle, both of which the
// renderer skips. Coordinates beyond ±2^30 are pinned to that range, which
// lies outside any real surface, so the renderer's clamp gives the same result.
func ToPixelRect(b types.FaceBox, width, height int) types.Rectangle {
	sx, sy := 1.0, 1.0
	if IsNormalized(b) {
		sx, sy = float64(width), float64(height)
	}

	x1 := math.Round(b.XMin * sx)
	y1 := math.Round(b.YMin * sy)
	x2 := math.Round(b.XMax * sx)
	y2 := math.Round(b.YMax * sy)
	if !finite(x1, y1, x2, y2) {
		return types.Rectangle{}
	}

	x1, y1, x2, y2 = pin(x1), pin(y1), pin(x2), pin(y2)

	return types.Rectangle{
		X:      int(x1),
		Y:      int(y1),
		Width:  int(x2) - int(x1),
		Height: int(y2) - int(y1),
	}
}

func pin(v float64) float64 {
	return math.Max(-coordLimit, math.Min(coordLimit, v))
}

// PixelRects converts every box, keeping detector order.
func PixelRects(boxes []types.FaceBox, width, height int) []types.Rectangle {
	rects := make([]types.Rectangle, 0, len(boxes))
	for _, b := range boxes {
		rects = append(rects, ToPixelRect(b, width, height))
	}
	return rects
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
