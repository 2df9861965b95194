// Package pixel provides the 32-bit ARGB image views the blur pipeline
// operates on. Pixels are stored little-endian, so the in-memory byte
// order per pixel is B, G, R, A.
package pixel

import (
	"fmt"
	"image"
)

// Image is a mutable width×height pixel array with an explicit stride in
// bytes. It is exclusively owned by whichever routine operates on it;
// parallel blur passes share an Image only through disjoint row/column
// partitions.
type Image struct {
	Pix    []byte
	Width  int
	Height int
	Stride int
}

// New allocates a packed image (stride == width*4).
func New(width, height int) *Image {
	return &Image{
		Pix:    make([]byte, width*height*4),
		Width:  width,
		Height: height,
		Stride: width * 4,
	}
}

// Wrap builds an Image view over an existing buffer.
func Wrap(pix []byte, width, height, stride int) (*Image, error) {
	if stride < width*4 {
		return nil, fmt.Errorf("stride %d too small for width %d", stride, width)
	}
	if len(pix) < stride*height {
		return nil, fmt.Errorf("buffer of %d bytes too small for %dx%d stride %d", len(pix), width, height, stride)
	}
	return &Image{Pix: pix, Width: width, Height: height, Stride: stride}, nil
}

// ClampX clamps a column index into [0, Width).
func (im *Image) ClampX(x int) int {
	if x < 0 {
		return 0
	}
	if x >= im.Width {
		return im.Width - 1
	}
	return x
}

// ClampY clamps a row index into [0, Height).
func (im *Image) ClampY(y int) int {
	if y < 0 {
		return 0
	}
	if y >= im.Height {
		return im.Height - 1
	}
	return y
}

// Offset returns the byte offset of the pixel at (x, y). Coordinates are
// clamped to the nearest edge, never read out of bounds.
func (im *Image) Offset(x, y int) int {
	return im.ClampY(y)*im.Stride + im.ClampX(x)*4
}

// Sample returns the channels of the pixel at (x, y) with edge clamping.
func (im *Image) Sample(x, y int) (b, g, r, a uint8) {
	o := im.Offset(x, y)
	return im.Pix[o], im.Pix[o+1], im.Pix[o+2], im.Pix[o+3]
}

// SetOpaque writes an opaque pixel at (x, y). Out-of-range writes are
// dropped rather than clamped so a worker can never scribble outside its
// partition.
func (im *Image) SetOpaque(x, y int, b, g, r uint8) {
	if x < 0 || y < 0 || x >= im.Width || y >= im.Height {
		return
	}
	o := y*im.Stride + x*4
	im.Pix[o] = b
	im.Pix[o+1] = g
	im.Pix[o+2] = r
	im.Pix[o+3] = 0xFF
}

// Row returns the pixel bytes of row y, clamped, width*4 bytes long.
func (im *Image) Row(y int) []byte {
	o := im.ClampY(y) * im.Stride
	return im.Pix[o : o+im.Width*4]
}

// Clone returns a packed deep copy.
func (im *Image) Clone() *Image {
	out := New(im.Width, im.Height)
	for y := 0; y < im.Height; y++ {
		copy(out.Row(y), im.Row(y))
	}
	return out
}

// FromImage converts a stdlib image into the pipeline's BGRA layout.
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	out := New(bounds.Dx(), bounds.Dy())
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			out.SetOpaque(x, y, uint8(b>>8), uint8(g>>8), uint8(r>>8))
		}
	}
	return out
}

// ToRGBA converts to a stdlib RGBA image, forcing full opacity.
func (im *Image) ToRGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, im.Width, im.Height))
	for y := 0; y < im.Height; y++ {
		row := im.Row(y)
		for x := 0; x < im.Width; x++ {
			o := x * 4
			d := out.PixOffset(x, y)
			out.Pix[d] = row[o+2]
			out.Pix[d+1] = row[o+1]
			out.Pix[d+2] = row[o]
			out.Pix[d+3] = 0xFF
		}
	}
	return out
}
