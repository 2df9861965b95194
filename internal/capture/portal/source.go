// Package portal implements a frame source over the xdg-desktop-portal
// Screenshot interface. The portal call is asynchronous: the request
// object answers with a Response signal carrying a file URI, which is
// decoded into the negotiated shared buffer. Useful on Wayland desktops
// where direct root-window capture is unavailable.
package portal

import (
	"fmt"
	"image"
	"image/png"
	"net/url"
	"os"

	"github.com/godbus/dbus/v5"
	"golang.org/x/sys/unix"

	"github.com/veilock/veilock/internal/capture"
	"github.com/veilock/veilock/internal/logger"
	"github.com/veilock/veilock/internal/pixel"
)

const (
	portalService   = "org.freedesktop.portal.Desktop"
	portalPath      = "/org/freedesktop/portal/desktop"
	screenshotIface = "org.freedesktop.portal.Screenshot"
	requestIface    = "org.freedesktop.portal.Request"
)

// Source captures via the desktop portal's Screenshot call.
type Source struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
	events  chan func()
	pending *frame
}

// New connects to the session bus and subscribes to portal Response
// signals.
func New() (*Source, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	matchRule := fmt.Sprintf("type='signal',interface='%s',member='Response'", requestIface)
	if err := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchRule).Err; err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to add match rule: %w", err)
	}

	signals := make(chan *dbus.Signal, 10)
	conn.Signal(signals)

	return &Source{
		conn:    conn,
		signals: signals,
		events:  make(chan func(), 8),
	}, nil
}

// Name returns the source name.
func (s *Source) Name() string {
	return "portal"
}

// IsAvailable checks whether the portal service answers on the bus.
func (s *Source) IsAvailable() bool {
	if s == nil || s.conn == nil {
		return false
	}
	var owner string
	err := s.conn.BusObject().Call("org.freedesktop.DBus.GetNameOwner", 0, portalService).Store(&owner)
	return err == nil && owner != ""
}

// Pump returns the event channel delivering this source's callbacks.
func (s *Source) Pump() capture.EventPump {
	return pump{s}
}

// Close shuts down the bus connection.
func (s *Source) Close() error {
	if s.conn == nil {
		return nil
	}
	s.conn.RemoveSignal(s.signals)
	err := s.conn.Close()
	s.conn = nil
	return err
}

// Capture issues the Screenshot request. The portal always captures the
// full desktop; region outputs are not supported here.
func (s *Source) Capture(output capture.Output, listener capture.FrameListener) (capture.Frame, error) {
	obj := s.conn.Object(portalService, portalPath)

	token := fmt.Sprintf("veilock%d", os.Getpid())
	options := map[string]dbus.Variant{
		"handle_token": dbus.MakeVariant(token),
		"interactive":  dbus.MakeVariant(false),
	}

	var requestPath dbus.ObjectPath
	err := obj.Call(screenshotIface+".Screenshot", 0, "", options).Store(&requestPath)
	if err != nil {
		return nil, fmt.Errorf("Screenshot call failed: %w", err)
	}

	logger.WithComponent("portal").Debug().
		Str("request_path", string(requestPath)).
		Msg("Waiting for Screenshot response")

	f := &frame{source: s, listener: listener, requestPath: requestPath}
	s.pending = f
	return f, nil
}

// pump delivers queued events and portal Response signals, one round per
// Dispatch call.
type pump struct {
	s *Source
}

func (p pump) Dispatch() error {
	select {
	case fn, ok := <-p.s.events:
		if !ok {
			return fmt.Errorf("portal event channel closed")
		}
		fn()
		return nil
	case sig, ok := <-p.s.signals:
		if !ok {
			return fmt.Errorf("session bus signal channel closed")
		}
		p.s.handleSignal(sig)
		return nil
	}
}

func (s *Source) handleSignal(sig *dbus.Signal) {
	f := s.pending
	if f == nil || sig.Path != f.requestPath || sig.Name != requestIface+".Response" {
		return
	}
	f.respond(sig)
}

// frame is one in-flight portal screenshot.
type frame struct {
	source      *Source
	listener    capture.FrameListener
	requestPath dbus.ObjectPath
	img         *pixel.Image
	path        string
}

// respond parses the Response signal and announces the decoded buffer
// format to the listener.
func (f *frame) respond(sig *dbus.Signal) {
	log := logger.WithComponent("portal")

	if len(sig.Body) < 2 {
		log.Error().Msg("Invalid portal response")
		f.listener.Failed()
		return
	}
	code, _ := sig.Body[0].(uint32)
	results, _ := sig.Body[1].(map[string]dbus.Variant)
	if code != 0 {
		log.Error().Uint32("code", code).Msg("Portal request denied")
		f.listener.Failed()
		return
	}

	uriVariant, ok := results["uri"]
	if !ok {
		log.Error().Msg("No uri in portal response")
		f.listener.Failed()
		return
	}
	uri, _ := uriVariant.Value().(string)

	img, path, err := loadScreenshot(uri)
	if err != nil {
		log.Error().Err(err).Str("uri", uri).Msg("Failed to load portal screenshot")
		f.listener.Failed()
		return
	}
	f.img = pixel.FromImage(img)
	f.path = path

	f.listener.Buffer(capture.FormatARGB8888, f.img.Width, f.img.Height, f.img.Stride)
}

// Copy writes the decoded pixels through the shared buffer's mapping and
// queues the flags/ready callbacks.
func (f *frame) Copy(handle capture.BufferHandle) error {
	if f.img == nil {
		return fmt.Errorf("no decoded frame to copy")
	}
	if handle.Width != f.img.Width || handle.Height != f.img.Height {
		return fmt.Errorf("buffer %dx%d does not match frame %dx%d",
			handle.Width, handle.Height, f.img.Width, f.img.Height)
	}

	dst, err := unix.Mmap(handle.FD, 0, handle.Size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("failed to map destination buffer: %w", err)
	}
	for row := 0; row < f.img.Height; row++ {
		copy(dst[row*handle.Stride:], f.img.Row(row))
	}
	if err := unix.Munmap(dst); err != nil {
		logger.WithComponent("portal").Warn().Err(err).Msg("Failed to unmap destination buffer")
	}

	f.source.events <- func() {
		f.listener.Flags(false)
		f.listener.Ready()
	}
	return nil
}

// Destroy removes the portal's temporary screenshot file.
func (f *frame) Destroy() {
	if f.source.pending == f {
		f.source.pending = nil
	}
	if f.path != "" {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			logger.WithComponent("portal").Warn().Err(err).Str("path", f.path).Msg("Failed to remove portal screenshot")
		}
		f.path = ""
	}
	f.img = nil
}

// loadScreenshot decodes the PNG file behind a portal file:// URI.
func loadScreenshot(uri string) (image.Image, string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, "", fmt.Errorf("bad uri: %w", err)
	}
	if u.Scheme != "file" {
		return nil, "", fmt.Errorf("unexpected uri scheme %q", u.Scheme)
	}

	file, err := os.Open(u.Path)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", u.Path, err)
	}
	return img, u.Path, nil
}
