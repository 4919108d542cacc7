package feed

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Garsondee/Swarm-Control/internal/logging"
)

// DefaultInterval is the console's refresh period.
const DefaultInterval = 100 * time.Millisecond

// Poller requests a snapshot every Interval. A request is started on every
// tick even if earlier ones have not resolved yet; the Synchronizer sorts
// out ordering by sequence number.
type Poller struct {
	src      Source
	interval time.Duration
	seq      Sequence
	logger   *zap.Logger
	now      func() time.Time
}

// NewPoller returns a poller over src. A non-positive interval uses
// DefaultInterval.
func NewPoller(src Source, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		src:      src,
		interval: interval,
		logger:   logging.OrNop(logger),
		now:      time.Now,
	}
}

// Run polls until ctx is cancelled, then waits for in-flight requests.
func (p *Poller) Run(ctx context.Context, out chan<- Result) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	p.logger.Debug("poller started", zap.Duration("interval", p.interval))
	p.fetch(ctx, &wg, out)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.fetch(ctx, &wg, out)
		}
	}
}

func (p *Poller) fetch(ctx context.Context, wg *sync.WaitGroup, out chan<- Result) {
	seq := p.seq.Next()
	wg.Add(1)
	go func() {
		defer wg.Done()
		snap, err := p.src.State(ctx)
		if ctx.Err() != nil {
			return
		}
		deliver(ctx, out, Result{Seq: seq, Snapshot: snap, Err: err, At: p.now()})
	}()
}
