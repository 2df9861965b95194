package capture

import "github.com/veilock/veilock/internal/shm"

// PixelFormat tags the byte order of a captured buffer. All formats are
// 32-bit little-endian; the BGR-ordered ones match the blur engine's
// native layout, the others need an R/B swap during flip-copy.
type PixelFormat int

const (
	FormatARGB8888 PixelFormat = iota
	FormatXRGB8888
	FormatABGR8888
	FormatXBGR8888
)

// SwapRB reports whether pixels must have R and B exchanged to reach the
// engine's BGRA in-memory layout.
func (f PixelFormat) SwapRB() bool {
	return f == FormatABGR8888 || f == FormatXBGR8888
}

func (f PixelFormat) String() string {
	switch f {
	case FormatARGB8888:
		return "ARGB8888"
	case FormatXRGB8888:
		return "XRGB8888"
	case FormatABGR8888:
		return "ABGR8888"
	case FormatXBGR8888:
		return "XBGR8888"
	default:
		return "unknown"
	}
}

// Output identifies the display region a capture targets.
type Output struct {
	Name   string
	X, Y   int
	Width  int
	Height int
	Scale  int
}

// Buffer is the session-owned destination buffer. Format, dimensions and
// stride are fixed once the format announcement fires; Region is valid
// until the session is released.
type Buffer struct {
	Format  PixelFormat
	Width   int
	Height  int
	Stride  int
	Region  *shm.Region
	YInvert bool
}

// BufferHandle describes a destination buffer to the external service.
type BufferHandle struct {
	FD     int
	Size   int
	Format PixelFormat
	Width  int
	Height int
	Stride int
}

// FrameListener receives the asynchronous screen-copy callbacks. They are
// only ever invoked from inside EventPump.Dispatch.
type FrameListener interface {
	// Buffer announces the destination format the service will write.
	Buffer(format PixelFormat, width, height, stride int)

	// Flags reports buffer orientation; yInvert means row 0 is the
	// bottom of the image.
	Flags(yInvert bool)

	// Ready signals that the buffer is fully populated.
	Ready()

	// Failed signals terminal capture failure.
	Failed()
}

// Frame is one in-flight capture on the service side.
type Frame interface {
	// Copy instructs the service to fill the described buffer. Valid
	// once after the Buffer callback.
	Copy(handle BufferHandle) error

	// Destroy releases service-side frame resources.
	Destroy()
}

// FrameSource is a compositor-side screen-copy service. Implementations
// deliver their callbacks through an EventPump so the caller controls
// when they run.
type FrameSource interface {
	Name() string
	IsAvailable() bool

	// Capture requests one frame of the given output. Callbacks arrive
	// on the listener during subsequent Pump().Dispatch calls.
	Capture(output Output, listener FrameListener) (Frame, error)

	// Pump returns the event channel delivering this source's callbacks.
	Pump() EventPump

	Close() error
}

// EventPump processes one round of pending events from the display
// connection, blocking until at least one event has been handled. It
// returns an error only when the connection is broken.
type EventPump interface {
	Dispatch() error
}
