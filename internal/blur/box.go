// Package blur implements the parallel separable box-blur engine used to
// produce the lock-screen backdrop. Three box-blur passes per axis
// approximate a Gaussian; a running per-channel sum keeps the per-pixel
// cost constant, so a whole blur is O(width·height) regardless of radius.
package blur

import "github.com/veilock/veilock/internal/pixel"

// passVertical blurs the columns [start, end) of src into dst with a
// sliding window of 2*radius+1 rows. The running sum is seeded from the
// first pixel of the column shifted left by radiusLog2, a fixed-point bias
// standing in for the half-open window at the top edge; each emitted
// channel is shifted right by radiusLog2+1 to undo it. Out-of-range rows
// clamp to the nearest edge. The alpha channel is forced opaque.
func passVertical(dst, src *pixel.Image, start, end, radius, radiusLog2 int) {
	for i := start; i < end; i++ {
		o := src.Offset(i, 0)
		b := uint32(src.Pix[o]) << radiusLog2
		g := uint32(src.Pix[o+1]) << radiusLog2
		r := uint32(src.Pix[o+2]) << radiusLog2

		for j := 0; j < src.Height+radius; j++ {
			o := src.Offset(i, j)
			b += uint32(src.Pix[o])
			g += uint32(src.Pix[o+1])
			r += uint32(src.Pix[o+2])

			if j >= radius {
				o := src.Offset(i, j-(radius<<1))
				b -= uint32(src.Pix[o])
				g -= uint32(src.Pix[o+1])
				r -= uint32(src.Pix[o+2])

				dst.SetOpaque(i, j-radius,
					uint8(b>>radiusLog2>>1),
					uint8(g>>radiusLog2>>1),
					uint8(r>>radiusLog2>>1))
			}
		}
	}
}

// passHorizontal is passVertical with the axes swapped: it blurs the rows
// [start, end) of src into dst.
func passHorizontal(dst, src *pixel.Image, start, end, radius, radiusLog2 int) {
	for j := start; j < end; j++ {
		o := src.Offset(0, j)
		b := uint32(src.Pix[o]) << radiusLog2
		g := uint32(src.Pix[o+1]) << radiusLog2
		r := uint32(src.Pix[o+2]) << radiusLog2

		for i := 0; i < src.Width+radius; i++ {
			o := src.Offset(i, j)
			b += uint32(src.Pix[o])
			g += uint32(src.Pix[o+1])
			r += uint32(src.Pix[o+2])

			if i >= radius {
				o := src.Offset(i-(radius<<1), j)
				b -= uint32(src.Pix[o])
				g -= uint32(src.Pix[o+1])
				r -= uint32(src.Pix[o+2])

				dst.SetOpaque(i-radius, j,
					uint8(b>>radiusLog2>>1),
					uint8(g>>radiusLog2>>1),
					uint8(r>>radiusLog2>>1))
			}
		}
	}
}
