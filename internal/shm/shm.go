//go:build linux

// Package shm allocates anonymous process-shared pixel buffers.
//
// A Region is the backing store handed to a compositor-side screen-copy
// service: the service writes pixels through its own mapping of the same
// file descriptor while we read them through ours. Regions are created
// under /dev/shm with a unique name that is unlinked immediately after
// open, so nothing leaks if the process dies mid-capture.
package shm

import (
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

var regionSeq atomic.Uint64

// Region is a mapped shared-memory area. Data is valid until Release is
// called; FD can be passed to an external service to describe the region.
type Region struct {
	Data []byte
	FD   int

	released bool
}

// Allocate creates a zero-initialized shared-memory region of size bytes.
func Allocate(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid shm region size %d", size)
	}

	name := fmt.Sprintf("/dev/shm/veilock-screencopy-%d-%d", os.Getpid(), regionSeq.Add(1))
	fd, err := unix.Open(name, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL|unix.O_CLOEXEC, 0600)
	if err != nil {
		return nil, fmt.Errorf("shm open %s: %w", name, err)
	}
	// The fd keeps the region alive; the name is only a collision hazard.
	if err := unix.Unlink(name); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("shm unlink %s: %w", name, err)
	}

	for {
		err = unix.Ftruncate(fd, int64(size))
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("shm resize to %d bytes: %w", size, err)
	}

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("shm map %d bytes: %w", size, err)
	}

	return &Region{Data: data, FD: fd}, nil
}

// Release unmaps the region and closes its descriptor. Safe to call more
// than once; Data must not be touched afterwards.
func (r *Region) Release() error {
	if r == nil || r.released {
		return nil
	}
	r.released = true

	var first error
	if err := unix.Munmap(r.Data); err != nil {
		first = fmt.Errorf("shm unmap: %w", err)
	}
	r.Data = nil
	if err := unix.Close(r.FD); err != nil && first == nil {
		first = fmt.Errorf("shm close: %w", err)
	}
	r.FD = -1
	return first
}

// Size returns the mapped length in bytes, 0 after Release.
func (r *Region) Size() int {
	return len(r.Data)
}
