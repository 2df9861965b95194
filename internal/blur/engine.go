package blur

import (
	"fmt"
	"math/bits"
	"runtime"
	"sync"
	"time"

	"github.com/veilock/veilock/internal/logger"
	"github.com/veilock/veilock/internal/pixel"
)

// ErrRadius is returned when the requested radius cannot drive the
// shift-based fixed-point arithmetic.
var ErrRadius = fmt.Errorf("blur radius must be a power of two >= 1")

// baseRadius is the blur radius at output scale 1.
const baseRadius = 32

// Config selects the blur strength and the degree of parallelism.
type Config struct {
	// Radius is the box half-width. It must be a power of two so the
	// window division reduces to a shift.
	Radius int

	// Workers is the total number of parallel workers, including the
	// calling goroutine. Zero means one per available CPU.
	Workers int
}

// RadiusForScale returns the radius used for an output at the given
// integer scale factor. Scale factors are powers of two on every
// compositor we target, which keeps the result a power of two as well.
func RadiusForScale(scale int) int {
	if scale < 1 {
		scale = 1
	}
	return baseRadius * scale
}

func (c Config) resolve() (radius, radiusLog2, workers int, err error) {
	radius = c.Radius
	if radius < 1 || radius&(radius-1) != 0 {
		return 0, 0, 0, fmt.Errorf("%w, got %d", ErrRadius, radius)
	}
	radiusLog2 = bits.TrailingZeros(uint(radius))

	workers = c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	return radius, radiusLog2, workers, nil
}

// job carries one worker's share of the blur: the two ping-pong buffers,
// the current partition, and the fixed-point radius parameters. The
// partition is columns during the vertical stage and is rewritten to rows
// by the coordinator at the rendezvous.
type job struct {
	data, interim *pixel.Image
	start, end    int
	radius        int
	radiusLog2    int
}

func (j *job) runVertical() {
	passVertical(j.interim, j.data, j.start, j.end, j.radius, j.radiusLog2)
	passVertical(j.data, j.interim, j.start, j.end, j.radius, j.radiusLog2)
	passVertical(j.interim, j.data, j.start, j.end, j.radius, j.radiusLog2)
}

func (j *job) runHorizontal() {
	passHorizontal(j.data, j.interim, j.start, j.end, j.radius, j.radiusLog2)
	passHorizontal(j.interim, j.data, j.start, j.end, j.radius, j.radiusLog2)
	passHorizontal(j.data, j.interim, j.start, j.end, j.radius, j.radiusLog2)
}

// Apply blurs img in place: three vertical passes over column partitions,
// a rendezvous, then three horizontal passes over row partitions, always
// in that order. Workers-1 goroutines take the leading partitions while
// the calling goroutine works the last one, so every available unit does
// partition work. The pass order and the two-buffer ping-pong mean the
// final result lands back in img.
func Apply(img *pixel.Image, cfg Config) error {
	radius, radiusLog2, workers, err := cfg.resolve()
	if err != nil {
		return err
	}

	log := logger.WithComponent("blur")
	log.Debug().
		Int("radius", radius).
		Int("workers", workers).
		Int("width", img.Width).
		Int("height", img.Height).
		Msg("Starting blur")

	started := time.Now()
	interim := pixel.New(img.Width, img.Height)

	jobs := make([]job, workers-1)
	rv := newRendezvous(workers - 1)

	var wg sync.WaitGroup
	for i := range jobs {
		jobs[i] = job{
			data:       img,
			interim:    interim,
			start:      img.Width * i / workers,
			end:        img.Width * (i + 1) / workers,
			radius:     radius,
			radiusLog2: radiusLog2,
		}

		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			jobs[id].runVertical()
			rv.arrive(id)
			jobs[id].runHorizontal()
		}(i)
	}

	// The coordinator blurs the last column partition itself, which keeps
	// the spin-wait below short.
	own := job{
		data:       img,
		interim:    interim,
		start:      img.Width * (workers - 1) / workers,
		end:        img.Width,
		radius:     radius,
		radiusLog2: radiusLog2,
	}
	own.runVertical()

	rv.awaitArrivals()
	for i := range jobs {
		jobs[i].start = img.Height * i / workers
		jobs[i].end = img.Height * (i + 1) / workers
	}
	rv.releaseAll()

	own.start = img.Height * (workers - 1) / workers
	own.end = img.Height
	own.runHorizontal()

	wg.Wait()

	log.Debug().
		Int("width", img.Width).
		Int("height", img.Height).
		Dur("elapsed", time.Since(started)).
		Msg("Blur finished")
	return nil
}
