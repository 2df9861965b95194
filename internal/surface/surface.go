// Package surface packages a finished pixel buffer into an opaque handle
// for the rendering layer. A Surface owns its pixels outright; how the
// renderer draws it is not this package's concern.
package surface

import (
	"image"

	"github.com/veilock/veilock/internal/pixel"
)

// Surface is a finished, renderer-ready image.
type Surface struct {
	img *pixel.Image
}

// New wraps a pixel image. Ownership of the image transfers to the
// surface.
func New(img *pixel.Image) *Surface {
	return &Surface{img: img}
}

// Pix returns the raw little-endian ARGB bytes.
func (s *Surface) Pix() []byte {
	return s.img.Pix
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int {
	return s.img.Width
}

// Height returns the surface height in pixels.
func (s *Surface) Height() int {
	return s.img.Height
}

// Stride returns the bytes per row.
func (s *Surface) Stride() int {
	return s.img.Stride
}

// RGBA converts the surface to a stdlib image for encoders.
func (s *Surface) RGBA() *image.RGBA {
	return s.img.ToRGBA()
}
