package feed

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Garsondee/Swarm-Control/internal/fleet"
	"github.com/Garsondee/Swarm-Control/internal/logging"
)

// Connectivity is the link state shown in the HUD.
type Connectivity int

const (
	Connecting Connectivity = iota
	Online
	Offline
)

func (c Connectivity) String() string {
	switch c {
	case Online:
		return "ONLINE"
	case Offline:
		return "OFFLINE"
	default:
		return "CONNECTING"
	}
}

// EventHandler reacts to a mission event that has not been seen before.
type EventHandler interface {
	Handle(ev fleet.Event)
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(fleet.Event)

func (f EventHandlerFunc) Handle(ev fleet.Event) { f(ev) }

// Counters tallies what the synchronizer did with the results it saw.
type Counters struct {
	Applied  uint64
	Failed   uint64
	Dropped  uint64
	Notified uint64
}

// Synchronizer holds the latest snapshot. It is not safe for concurrent
// use; call Pump and the accessors from the main loop only.
type Synchronizer struct {
	in      chan Result
	handler EventHandler
	subs    []func(fleet.Snapshot)
	logger  *zap.Logger

	snap        fleet.Snapshot
	conn        Connectivity
	lastSeq     uint64
	lastEvent   float64
	seenEvent   bool
	lastSuccess time.Time
	lastErr     error
	counters    Counters
}

// NewSynchronizer returns a synchronizer that notifies handler of new
// events. handler may be nil.
func NewSynchronizer(handler EventHandler, logger *zap.Logger) *Synchronizer {
	if handler == nil {
		handler = EventHandlerFunc(func(fleet.Event) {})
	}
	return &Synchronizer{
		in:      make(chan Result, 64),
		handler: handler,
		logger:  logging.OrNop(logger),
		snap: fleet.Snapshot{
			Robots: []fleet.Robot{},
			Tasks:  []fleet.Task{},
			Stats:  fleet.DefaultStats(),
		},
	}
}

// Results is the channel feeds deliver into.
func (s *Synchronizer) Results() chan<- Result { return s.in }

// Start runs f on its own goroutine until ctx is cancelled. A synchronizer
// expects a single feed for its lifetime since sequence numbers are per feed.
func (s *Synchronizer) Start(ctx context.Context, f Feed) {
	go func() {
		if err := f.Run(ctx, s.in); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("feed stopped", zap.Error(err))
		}
	}()
}

// Subscribe registers fn to receive every newly held snapshot.
func (s *Synchronizer) Subscribe(fn func(fleet.Snapshot)) {
	s.subs = append(s.subs, fn)
}

// Pump applies every pending result in arrival order without blocking and
// returns how many it consumed.
func (s *Synchronizer) Pump() int {
	n := 0
	for {
		select {
		case r := <-s.in:
			s.Apply(r)
			n++
		default:
			return n
		}
	}
}

// Apply folds one result into the held state. Results that are not newer
// than the last applied one are discarded. A new event is handed to the
// handler before the snapshot replaces the held one and is published.
func (s *Synchronizer) Apply(r Result) {
	if r.Seq <= s.lastSeq {
		s.counters.Dropped++
		s.logger.Debug("dropped stale result",
			zap.Uint64("seq", r.Seq), zap.Uint64("applied", s.lastSeq), zap.Bool("failed", r.Err != nil))
		return
	}
	s.lastSeq = r.Seq

	if r.Err != nil {
		s.counters.Failed++
		s.lastErr = r.Err
		s.setConnectivity(Offline, r.Err)
		return
	}
	s.lastErr = nil
	s.setConnectivity(Online, nil)
	s.lastSuccess = r.At

	if ev := r.Snapshot.LastEvent; ev != nil && (!s.seenEvent || ev.Time > s.lastEvent) {
		s.lastEvent = ev.Time
		s.seenEvent = true
		s.counters.Notified++
		s.handler.Handle(*ev)
	}

	s.snap = r.Snapshot
	s.counters.Applied++
	for _, fn := range s.subs {
		fn(s.snap)
	}
}

func (s *Synchronizer) setConnectivity(c Connectivity, err error) {
	if s.conn == c {
		return
	}
	if c == Offline {
		s.logger.Info("remote offline", zap.Error(err))
	} else {
		s.logger.Info("remote online")
	}
	s.conn = c
}

// Snapshot returns the held snapshot. Callers must not mutate it.
func (s *Synchronizer) Snapshot() fleet.Snapshot { return s.snap }

// Connectivity returns the current link state.
func (s *Synchronizer) Connectivity() Connectivity { return s.conn }

// LastError returns the error of the most recent failed result, or nil once
// a later one succeeds.
func (s *Synchronizer) LastError() error { return s.lastErr }

// LastSuccess returns when the held snapshot arrived, zero before the first.
func (s *Synchronizer) LastSuccess() time.Time { return s.lastSuccess }

// Staleness returns how old the held snapshot is at now.
func (s *Synchronizer) Staleness(now time.Time) time.Duration {
	if s.lastSuccess.IsZero() {
		return 0
	}
	return now.Sub(s.lastSuccess)
}

// LastEventTime returns the newest event time seen, if any.
func (s *Synchronizer) LastEventTime() (float64, bool) { return s.lastEvent, s.seenEvent }

// Counters returns the running tallies.
func (s *Synchronizer) Counters() Counters { return s.counters }
