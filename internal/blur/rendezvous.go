package blur

import (
	"runtime"
	"sync/atomic"
)

// rendezvous is the two-phase barrier between the vertical and horizontal
// blur stages. Workers arrive once their vertical partition is done and
// block; the coordinator spin-waits for all arrivals, reassigns each
// worker a row partition, then releases everyone for the horizontal
// stage. The spin-wait is deliberate: the coordinator has just finished a
// vertical partition of its own, so the remaining wait is expected to be
// comparable to a partition's work, not worth a sleeping primitive.
//
// The channel handoff orders the coordinator's partition writes before
// the workers read them.
type rendezvous struct {
	arrived []atomic.Bool
	gate    []chan struct{}
}

func newRendezvous(workers int) *rendezvous {
	r := &rendezvous{
		arrived: make([]atomic.Bool, workers),
		gate:    make([]chan struct{}, workers),
	}
	for i := range r.gate {
		r.gate[i] = make(chan struct{}, 1)
	}
	return r
}

// arrive marks worker id as done with phase one and blocks until released.
func (r *rendezvous) arrive(id int) {
	r.arrived[id].Store(true)
	<-r.gate[id]
}

// awaitArrivals spins until every worker has arrived.
func (r *rendezvous) awaitArrivals() {
	for {
		all := true
		for i := range r.arrived {
			all = all && r.arrived[i].Load()
		}
		if all {
			return
		}
		runtime.Gosched()
	}
}

// releaseAll unblocks every worker into phase two.
func (r *rendezvous) releaseAll() {
	for i := range r.gate {
		r.gate[i] <- struct{}{}
	}
}
