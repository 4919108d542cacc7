// Package feed keeps the local copy of the remote fleet snapshot current.
//
// A Feed runs on its own goroutine and delivers Results into a channel. The
// Synchronizer owns the held snapshot and is pumped from the main loop, so
// everything it touches is only ever mutated on one goroutine.
package feed

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Garsondee/Swarm-Control/internal/fleet"
)

// Result is the outcome of one snapshot request. Seq increases with every
// request issued by a feed; a Result carries either a Snapshot or an Err.
type Result struct {
	Seq      uint64
	Snapshot fleet.Snapshot
	Err      error
	At       time.Time
}

// Source fetches one snapshot. remote.Client implements it.
type Source interface {
	State(ctx context.Context) (fleet.Snapshot, error)
}

// Feed produces Results until ctx is cancelled.
type Feed interface {
	Run(ctx context.Context, out chan<- Result) error
}

// Sequence hands out request sequence numbers. The zero value starts at 1.
type Sequence struct {
	n atomic.Uint64
}

// Next returns the next sequence number.
func (s *Sequence) Next() uint64 {
	return s.n.Add(1)
}

func deliver(ctx context.Context, out chan<- Result, r Result) {
	select {
	case out <- r:
	case <-ctx.Done():
	}
}
