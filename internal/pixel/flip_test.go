package pixel

import (
	"bytes"
	"testing"
)

func patternImage(w, h int) *Image {
	img := New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := y*img.Stride + x*4
			img.Pix[o] = uint8(x)
			img.Pix[o+1] = uint8(y)
			img.Pix[o+2] = uint8(x + y)
			img.Pix[o+3] = 0xFF
		}
	}
	return img
}

func TestFlipCopyRoundTrip(t *testing.T) {
	src := patternImage(7, 5)

	once := New(7, 5)
	if err := FlipCopy(once, src, true, false); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(once.Pix, src.Pix) {
		t.Fatal("single flip left the buffer unchanged")
	}

	twice := New(7, 5)
	if err := FlipCopy(twice, once, true, false); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(twice.Pix, src.Pix) {
		t.Error("double flip does not reproduce the original buffer")
	}
}

func TestFlipCopyWithoutInversionIsIdentity(t *testing.T) {
	src := patternImage(4, 4)
	dst := New(4, 4)

	if err := FlipCopy(dst, src, false, false); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dst.Pix, src.Pix) {
		t.Error("plain copy altered the pixels")
	}
}

func TestFlipCopySwapsChannels(t *testing.T) {
	src := New(2, 1)
	src.Pix[0], src.Pix[1], src.Pix[2], src.Pix[3] = 10, 20, 30, 0xFF
	src.Pix[4], src.Pix[5], src.Pix[6], src.Pix[7] = 40, 50, 60, 0xFF

	dst := New(2, 1)
	if err := FlipCopy(dst, src, false, true); err != nil {
		t.Fatal(err)
	}

	want := []byte{30, 20, 10, 0xFF, 60, 50, 40, 0xFF}
	if !bytes.Equal(dst.Pix, want) {
		t.Errorf("got %v, want %v", dst.Pix, want)
	}
}

func TestFlipCopyHonorsSourceStride(t *testing.T) {
	// 3x2 image stored with 4 bytes of row padding.
	stride := 3*4 + 4
	raw := make([]byte, stride*2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			o := y*stride + x*4
			raw[o] = uint8(10*y + x)
			raw[o+3] = 0xFF
		}
	}
	src, err := Wrap(raw, 3, 2, stride)
	if err != nil {
		t.Fatal(err)
	}

	dst := New(3, 2)
	if err := FlipCopy(dst, src, true, false); err != nil {
		t.Fatal(err)
	}

	// Row order reversed, padding gone.
	if dst.Pix[0] != 10 || dst.Pix[dst.Stride] != 0 {
		t.Errorf("rows not inverted: got first bytes %d and %d", dst.Pix[0], dst.Pix[dst.Stride])
	}
}

func TestFlipCopyRejectsDimensionMismatch(t *testing.T) {
	if err := FlipCopy(New(2, 2), New(3, 2), false, false); err == nil {
		t.Error("expected dimension mismatch error")
	}
}
