// Package capture drives a single request/response exchange with a
// screen-copy service: request a frame, allocate a matching shared
// buffer when the service announces its format, then pump events until
// the service reports the copy done or failed.
package capture

import (
	"errors"
	"fmt"

	"github.com/veilock/veilock/internal/logger"
	"github.com/veilock/veilock/internal/shm"
)

var (
	// ErrCaptureFailed is returned when the service reports terminal
	// failure for a frame.
	ErrCaptureFailed = errors.New("screen-copy service reported failure")

	// ErrSessionUsed is returned when a session is captured twice.
	ErrSessionUsed = errors.New("capture session is single-use")
)

// State is the capture session's position in the exchange.
type State int

const (
	StateIdle State = iota
	StateRequested
	StateBufferNegotiated
	StateCopying
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequested:
		return "requested"
	case StateBufferNegotiated:
		return "buffer-negotiated"
	case StateCopying:
		return "copying"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session owns one capture exchange end to end. It is single-use and not
// safe for concurrent use; concurrent captures each get their own
// session.
type Session struct {
	source FrameSource

	state  State
	frame  Frame
	buffer Buffer
	err    error
}

// NewSession creates a session against the given frame source.
func NewSession(source FrameSource) *Session {
	return &Session{source: source}
}

// State returns the session's current state.
func (s *Session) State() State {
	return s.state
}

// Capture runs the whole exchange and returns the populated buffer. The
// buffer stays owned by the session; it is valid until Release. There is
// no timeout: a service that never answers blocks the caller
// indefinitely, matching the event-pump contract.
func (s *Session) Capture(output Output) (*Buffer, error) {
	if s.state != StateIdle {
		return nil, ErrSessionUsed
	}

	log := logger.WithComponent("capture")

	frame, err := s.source.Capture(output, s)
	if err != nil {
		s.state = StateFailed
		return nil, fmt.Errorf("capture request: %w", err)
	}
	s.frame = frame
	s.state = StateRequested

	log.Debug().
		Str("source", s.source.Name()).
		Str("output", output.Name).
		Msg("Capture requested, waiting for frame")

	pump := s.source.Pump()
	for s.state != StateReady && s.state != StateFailed {
		if err := pump.Dispatch(); err != nil {
			s.state = StateFailed
			s.err = fmt.Errorf("event dispatch: %w", err)
			break
		}
	}

	if s.state == StateFailed {
		if s.err == nil {
			s.err = ErrCaptureFailed
		}
		return nil, s.err
	}

	log.Debug().
		Int("width", s.buffer.Width).
		Int("height", s.buffer.Height).
		Int("stride", s.buffer.Stride).
		Str("format", s.buffer.Format.String()).
		Bool("y_invert", s.buffer.YInvert).
		Msg("Frame ready")

	return &s.buffer, nil
}

// Release frees the shared buffer mapping and any service-side frame
// resources. Safe to call on every exit path, including after failure.
func (s *Session) Release() {
	if s.frame != nil {
		s.frame.Destroy()
		s.frame = nil
	}
	if s.buffer.Region != nil {
		if err := s.buffer.Region.Release(); err != nil {
			logger.WithComponent("capture").Warn().Err(err).Msg("Failed to release capture buffer")
		}
		s.buffer.Region = nil
	}
}

// Buffer implements FrameListener: the service announced the destination
// format, so allocate a matching shared region and hand it back for the
// copy. Allocation failure is fatal for the attempt.
func (s *Session) Buffer(format PixelFormat, width, height, stride int) {
	if s.state != StateRequested {
		return
	}

	region, err := shm.Allocate(stride * height)
	if err != nil {
		s.state = StateFailed
		s.err = fmt.Errorf("buffer allocation: %w", err)
		return
	}

	s.buffer = Buffer{
		Format: format,
		Width:  width,
		Height: height,
		Stride: stride,
		Region: region,
	}
	s.state = StateBufferNegotiated

	err = s.frame.Copy(BufferHandle{
		FD:     region.FD,
		Size:   region.Size(),
		Format: format,
		Width:  width,
		Height: height,
		Stride: stride,
	})
	if err != nil {
		s.state = StateFailed
		s.err = fmt.Errorf("copy request: %w", err)
		return
	}
	s.state = StateCopying
}

// Flags implements FrameListener.
func (s *Session) Flags(yInvert bool) {
	s.buffer.YInvert = yInvert
}

// Ready implements FrameListener. Only the first Ready out of Copying
// counts; the completion transition happens exactly once.
func (s *Session) Ready() {
	if s.state == StateCopying {
		s.state = StateReady
	}
}

// Failed implements FrameListener.
func (s *Session) Failed() {
	if s.state != StateReady {
		s.state = StateFailed
	}
}
