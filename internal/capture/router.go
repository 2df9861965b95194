package capture

import (
	"errors"

	"github.com/veilock/veilock/internal/logger"
)

// ErrNoSource is returned when no registered frame source is usable in
// the current environment.
var ErrNoSource = errors.New("no capture backend available")

// Router picks the first available frame source from a preference-ordered
// list. Sources are registered by the caller so the router stays agnostic
// of concrete backends.
type Router struct {
	sources []FrameSource
}

// NewRouter creates a router over the given sources, most preferred
// first.
func NewRouter(sources ...FrameSource) *Router {
	return &Router{sources: sources}
}

// Pick returns the first source that reports itself available.
func (r *Router) Pick() (FrameSource, error) {
	log := logger.WithComponent("capture-router")

	for _, src := range r.sources {
		if src.IsAvailable() {
			log.Info().Str("source", src.Name()).Msg("Selected capture backend")
			return src, nil
		}
		log.Debug().Str("source", src.Name()).Msg("Capture backend not available")
	}
	return nil, ErrNoSource
}

// Sources returns the registered sources in preference order.
func (r *Router) Sources() []FrameSource {
	return r.sources
}

// Close closes every registered source, keeping the first error.
func (r *Router) Close() error {
	var first error
	for _, src := range r.sources {
		if err := src.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
