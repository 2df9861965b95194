package blur

import (
	"bytes"
	"errors"
	"testing"

	"github.com/veilock/veilock/internal/pixel"
)

func fillUniform(img *pixel.Image, b, g, r uint8) {
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			img.SetOpaque(x, y, b, g, r)
		}
	}
}

// fillPattern writes a deterministic, position-dependent pattern.
func fillPattern(img *pixel.Image) {
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			img.SetOpaque(x, y,
				uint8((x*7+y*13)%251),
				uint8((x*31+y*3)%239),
				uint8((x*5+y*17)%241))
		}
	}
}

func TestApplyRejectsNonPowerOfTwoRadius(t *testing.T) {
	img := pixel.New(8, 8)

	for _, radius := range []int{0, -1, 3, 6, 12, 33} {
		err := Apply(img, Config{Radius: radius, Workers: 1})
		if !errors.Is(err, ErrRadius) {
			t.Errorf("radius %d: got %v, want ErrRadius", radius, err)
		}
	}

	for _, radius := range []int{1, 2, 4, 32} {
		if err := Apply(pixel.New(8, 8), Config{Radius: radius, Workers: 1}); err != nil {
			t.Errorf("radius %d: unexpected error %v", radius, err)
		}
	}
}

func TestConstantColorInvariance(t *testing.T) {
	colors := []struct {
		name    string
		b, g, r uint8
	}{
		{"black", 0, 0, 0},
		{"white", 255, 255, 255},
		{"gray", 128, 128, 128},
		{"odd", 17, 203, 89},
	}

	for _, tc := range colors {
		t.Run(tc.name, func(t *testing.T) {
			for _, radius := range []int{1, 2, 8, 32} {
				img := pixel.New(16, 12)
				fillUniform(img, tc.b, tc.g, tc.r)

				if err := Apply(img, Config{Radius: radius, Workers: 2}); err != nil {
					t.Fatalf("radius %d: %v", radius, err)
				}

				for y := 0; y < img.Height; y++ {
					for x := 0; x < img.Width; x++ {
						b, g, r, a := img.Sample(x, y)
						if b != tc.b || g != tc.g || r != tc.r || a != 0xFF {
							t.Fatalf("radius %d: pixel (%d,%d) = %d,%d,%d,%d, want %d,%d,%d,255",
								radius, x, y, b, g, r, a, tc.b, tc.g, tc.r)
						}
					}
				}
			}
		})
	}
}

func TestSinglePixelImageUnchanged(t *testing.T) {
	for _, radius := range []int{1, 4, 32} {
		img := pixel.New(1, 1)
		img.SetOpaque(0, 0, 40, 80, 120)

		if err := Apply(img, Config{Radius: radius, Workers: 1}); err != nil {
			t.Fatalf("radius %d: %v", radius, err)
		}

		b, g, r, a := img.Sample(0, 0)
		if b != 40 || g != 80 || r != 120 || a != 0xFF {
			t.Errorf("radius %d: got %d,%d,%d,%d, want 40,80,120,255", radius, b, g, r, a)
		}
	}
}

func TestAllBlackStaysBlack(t *testing.T) {
	img := pixel.New(4, 4)
	fillUniform(img, 0, 0, 0)

	if err := Apply(img, Config{Radius: 1, Workers: 2}); err != nil {
		t.Fatal(err)
	}

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			b, g, r, a := img.Sample(x, y)
			if b != 0 || g != 0 || r != 0 {
				t.Errorf("pixel (%d,%d) = %d,%d,%d, want black", x, y, b, g, r)
			}
			if a != 0xFF {
				t.Errorf("pixel (%d,%d) alpha = %d, want opaque", x, y, a)
			}
		}
	}
}

func TestSingleWhitePixelSpread(t *testing.T) {
	img := pixel.New(4, 4)
	fillUniform(img, 0, 0, 0)
	img.SetOpaque(1, 1, 255, 255, 255)

	if err := Apply(img, Config{Radius: 1, Workers: 1}); err != nil {
		t.Fatal(err)
	}

	sawNonZero := false
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			b, g, r, _ := img.Sample(x, y)
			inNeighborhood := x >= 0 && x <= 2 && y >= 0 && y <= 2
			if !inNeighborhood && (b != 0 || g != 0 || r != 0) {
				t.Errorf("pixel (%d,%d) = %d,%d,%d, want black outside the 3x3 neighborhood", x, y, b, g, r)
			}
			if b == 255 || g == 255 || r == 255 {
				t.Errorf("pixel (%d,%d) = %d,%d,%d, want below white everywhere", x, y, b, g, r)
			}
			if b != 0 || g != 0 || r != 0 {
				sawNonZero = true
			}
		}
	}
	if !sawNonZero {
		t.Error("blur erased the white pixel entirely")
	}
}

func TestWorkerCountDoesNotChangeOutput(t *testing.T) {
	const size = 256

	reference := pixel.New(size, size)
	fillPattern(reference)

	single := reference.Clone()
	if err := Apply(single, Config{Radius: 8, Workers: 1}); err != nil {
		t.Fatal(err)
	}

	for _, workers := range []int{2, 3, 4, 7} {
		img := reference.Clone()
		if err := Apply(img, Config{Radius: 8, Workers: workers}); err != nil {
			t.Fatalf("workers %d: %v", workers, err)
		}
		if !bytes.Equal(img.Pix, single.Pix) {
			t.Errorf("workers %d: output differs from single-worker run", workers)
		}
	}
}

// Partition equivalence for one fixed pass: any disjoint covering of the
// column range must produce the same bytes as one full-range pass.
func TestPartitionedPassMatchesFullPass(t *testing.T) {
	const w, h = 64, 48

	src := pixel.New(w, h)
	fillPattern(src)

	full := pixel.New(w, h)
	passVertical(full, src, 0, w, 4, 2)

	partitions := [][2]int{{0, 9}, {9, 10}, {10, 40}, {40, 64}}
	split := pixel.New(w, h)
	for _, p := range partitions {
		passVertical(split, src, p[0], p[1], 4, 2)
	}

	if !bytes.Equal(full.Pix, split.Pix) {
		t.Error("partitioned vertical pass differs from full-range pass")
	}

	fullH := pixel.New(w, h)
	passHorizontal(fullH, src, 0, h, 4, 2)

	splitH := pixel.New(w, h)
	for _, p := range [][2]int{{0, 1}, {1, 17}, {17, 48}} {
		passHorizontal(splitH, src, p[0], p[1], 4, 2)
	}

	if !bytes.Equal(fullH.Pix, splitH.Pix) {
		t.Error("partitioned horizontal pass differs from full-range pass")
	}
}

func TestRadiusForScale(t *testing.T) {
	cases := []struct {
		scale int
		want  int
	}{
		{0, 32},
		{1, 32},
		{2, 64},
		{4, 128},
	}
	for _, tc := range cases {
		if got := RadiusForScale(tc.scale); got != tc.want {
			t.Errorf("RadiusForScale(%d) = %d, want %d", tc.scale, got, tc.want)
		}
	}
}
