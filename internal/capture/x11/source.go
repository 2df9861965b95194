// Package x11 implements a frame source over the core X11 GetImage
// request. The X exchange itself is synchronous; the source queues its
// results as pending events and delivers them through the pump, so the
// session sees the same buffer/flags/ready callback sequence a
// compositor-side screen-copy service would produce.
package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"golang.org/x/sys/unix"

	"github.com/veilock/veilock/internal/capture"
	"github.com/veilock/veilock/internal/logger"
)

// Source captures the root window of the default screen.
type Source struct {
	conn   *xgb.Conn
	root   xproto.Window
	screen *xproto.ScreenInfo
	events chan func()
}

// New connects to the X server.
func New() (*Source, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	return &Source{
		conn:   conn,
		root:   screen.Root,
		screen: screen,
		events: make(chan func(), 8),
	}, nil
}

// Name returns the source name.
func (s *Source) Name() string {
	return "x11"
}

// IsAvailable checks if X11 capture is usable.
func (s *Source) IsAvailable() bool {
	return s != nil && s.conn != nil
}

// Pump returns the event channel delivering this source's callbacks.
func (s *Source) Pump() capture.EventPump {
	return pump{s}
}

// Close shuts down the X connection.
func (s *Source) Close() error {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	close(s.events)
	return nil
}

// Capture requests one frame of the given output region. The root depth
// must be 24 or 32; X ZPixmap data at those depths is BGRX in memory,
// which is XRGB8888 in little-endian terms.
func (s *Source) Capture(output capture.Output, listener capture.FrameListener) (capture.Frame, error) {
	depth := int(s.screen.RootDepth)
	if depth != 24 && depth != 32 {
		return nil, fmt.Errorf("unsupported root depth %d", depth)
	}

	x, y := output.X, output.Y
	width, height := output.Width, output.Height
	if width == 0 || height == 0 {
		x, y = 0, 0
		width = int(s.screen.WidthInPixels)
		height = int(s.screen.HeightInPixels)
	}

	f := &frame{
		source:   s,
		listener: listener,
		x:        x,
		y:        y,
		width:    width,
		height:   height,
	}

	s.events <- func() {
		listener.Buffer(capture.FormatXRGB8888, width, height, width*4)
	}
	return f, nil
}

// pump drains one pending event per Dispatch call.
type pump struct {
	s *Source
}

func (p pump) Dispatch() error {
	fn, ok := <-p.s.events
	if !ok {
		return fmt.Errorf("x11 event channel closed")
	}
	fn()
	return nil
}

// frame is one in-flight root-window grab.
type frame struct {
	source   *Source
	listener capture.FrameListener
	x, y     int
	width    int
	height   int
}

// Copy fetches the image and writes it through the shared buffer's own
// mapping, then signals flags and readiness through the pump.
func (f *frame) Copy(handle capture.BufferHandle) error {
	if handle.Width != f.width || handle.Height != f.height {
		return fmt.Errorf("buffer %dx%d does not match frame %dx%d",
			handle.Width, handle.Height, f.width, f.height)
	}

	f.source.events <- func() {
		f.fill(handle)
	}
	return nil
}

func (f *frame) fill(handle capture.BufferHandle) {
	log := logger.WithComponent("x11-source")

	reply, err := xproto.GetImage(
		f.source.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(f.source.root),
		int16(f.x), int16(f.y),
		uint16(f.width), uint16(f.height),
		0xffffffff,
	).Reply()
	if err != nil {
		log.Error().Err(err).Msg("GetImage failed")
		f.listener.Failed()
		return
	}
	if len(reply.Data) < f.width*f.height*4 {
		log.Error().Int("bytes", len(reply.Data)).Msg("Short GetImage reply")
		f.listener.Failed()
		return
	}

	dst, err := unix.Mmap(handle.FD, 0, handle.Size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		log.Error().Err(err).Msg("Failed to map destination buffer")
		f.listener.Failed()
		return
	}
	for row := 0; row < f.height; row++ {
		copy(dst[row*handle.Stride:], reply.Data[row*f.width*4:(row+1)*f.width*4])
	}
	if err := unix.Munmap(dst); err != nil {
		log.Warn().Err(err).Msg("Failed to unmap destination buffer")
	}

	// X images are always stored top-down.
	f.listener.Flags(false)
	f.listener.Ready()
}

// Destroy releases frame resources; the GetImage reply is garbage
// collected, so there is nothing to tear down on the X side.
func (f *frame) Destroy() {}
