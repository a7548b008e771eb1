package render

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // registers the webp decoder
)

// Decode reads an uploaded image into a fresh RGBA surface anchored at the
// origin. The returned format is the name the decoder registered under.
func Decode(r io.Reader) (*image.RGBA, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	surface := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Copy(surface, image.Point{}, img, b, xdraw.Src, nil)
	return surface, format, nil
}

// FormatForPath picks an output encoding from a file extension, defaulting to png.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	default:
		return "png"
	}
}

// Encode writes the surface in the given format. webp has no encoder and is
// written as png.
func Encode(w io.Writer, surface *image.RGBA, format string) error {
	switch format {
	case "jpeg":
		return jpeg.Encode(w, surface, &jpeg.Options{Quality: 92})
	case "gif":
		return gif.Encode(w, surface, nil)
	default:
		return png.Encode(w, surface)
	}
}
