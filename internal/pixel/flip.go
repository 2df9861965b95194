package pixel

import "fmt"

// FlipCopy copies src into dst row by row so that dst row 0 is the top of
// the image. When yInvert is set the source rows are stored bottom-up and
// the copy reverses their order. When swapRB is set the R and B channels
// are exchanged per pixel, normalizing ABGR/XBGR sources to the BGRA
// layout the blur engine expects.
func FlipCopy(dst, src *Image, yInvert, swapRB bool) error {
	if dst.Width != src.Width || dst.Height != src.Height {
		return fmt.Errorf("flip copy dimension mismatch: %dx%d vs %dx%d",
			dst.Width, dst.Height, src.Width, src.Height)
	}

	for y := 0; y < src.Height; y++ {
		dy := y
		if yInvert {
			dy = src.Height - y - 1
		}
		srow := src.Row(y)
		drow := dst.Row(dy)
		if !swapRB {
			copy(drow, srow)
			continue
		}
		for x := 0; x < src.Width*4; x += 4 {
			drow[x] = srow[x+2]
			drow[x+1] = srow[x+1]
			drow[x+2] = srow[x]
			drow[x+3] = srow[x+3]
		}
	}
	return nil
}
