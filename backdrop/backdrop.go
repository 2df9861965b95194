// Package backdrop produces a blurred screenshot of the current desktop,
// suitable for drawing behind a lock overlay. One call, one finished
// image: capture a frame through a screen-copy source, flip it into
// canonical row order, run the parallel box blur, and package the result
// for the rendering layer.
package backdrop

import (
	"fmt"

	"github.com/veilock/veilock/internal/blur"
	"github.com/veilock/veilock/internal/capture"
	"github.com/veilock/veilock/internal/logger"
	"github.com/veilock/veilock/internal/pixel"
	"github.com/veilock/veilock/internal/surface"
)

// Options tunes the blur stage.
type Options struct {
	// Radius overrides the blur radius; zero derives it from the
	// output's scale factor. Must be a power of two.
	Radius int

	// Workers is the total number of blur workers including the calling
	// goroutine; zero means one per CPU.
	Workers int
}

// Load captures one frame of the given output and returns it blurred.
// The capture session and its shared buffer are released before Load
// returns, on success and failure alike.
func Load(source capture.FrameSource, output capture.Output, opts Options) (*surface.Surface, error) {
	log := logger.WithComponent("backdrop")

	session := capture.NewSession(source)
	defer session.Release()

	buf, err := session.Capture(output)
	if err != nil {
		return nil, fmt.Errorf("screen capture: %w", err)
	}

	src, err := pixel.Wrap(buf.Region.Data, buf.Width, buf.Height, buf.Stride)
	if err != nil {
		return nil, fmt.Errorf("capture buffer: %w", err)
	}

	img := pixel.New(buf.Width, buf.Height)
	if err := pixel.FlipCopy(img, src, buf.YInvert, buf.Format.SwapRB()); err != nil {
		return nil, fmt.Errorf("flip copy: %w", err)
	}

	radius := opts.Radius
	if radius == 0 {
		radius = blur.RadiusForScale(output.Scale)
	}
	log.Debug().Int("radius", radius).Msg("Blur radius")

	if err := blur.Apply(img, blur.Config{Radius: radius, Workers: opts.Workers}); err != nil {
		return nil, fmt.Errorf("blur: %w", err)
	}

	return surface.New(img), nil
}
