package feed

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/Garsondee/Swarm-Control/internal/fleet"
	"github.com/Garsondee/Swarm-Control/internal/logging"
)

const streamReadLimit = 8 << 20

// Stream receives snapshots pushed over a WebSocket. Each text message is
// one snapshot. On any dial or read failure it reports an error Result and
// reconnects after Retry.
type Stream struct {
	url    string
	retry  time.Duration
	seq    Sequence
	logger *zap.Logger
	now    func() time.Time
}

// StreamURL derives the WebSocket URL for path on an http(s) base URL.
func StreamURL(base *url.URL, path string) string {
	u := base.JoinPath(path)
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String()
}

// NewStream returns a stream feed for the given ws:// URL.
func NewStream(wsURL string, retry time.Duration, logger *zap.Logger) *Stream {
	if retry <= 0 {
		retry = DefaultInterval
	}
	return &Stream{
		url:    wsURL,
		retry:  retry,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// Run reads the stream until ctx is cancelled.
func (s *Stream) Run(ctx context.Context, out chan<- Result) error {
	for {
		err := s.session(ctx, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Debug("stream disconnected", zap.String("url", s.url), zap.Error(err))
		deliver(ctx, out, Result{Seq: s.seq.Next(), Err: err, At: s.now()})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retry):
		}
	}
}

// session holds one connection open and returns why it ended.
func (s *Stream) session(ctx context.Context, out chan<- Result) error {
	dctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	conn, _, err := websocket.Dial(dctx, s.url, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(streamReadLimit)
	s.logger.Info("stream connected", zap.String("url", s.url))

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read stream: %w", err)
		}
		if typ != websocket.MessageText {
			continue
		}
		seq := s.seq.Next()
		snap, err := fleet.Decode(data)
		deliver(ctx, out, Result{Seq: seq, Snapshot: snap, Err: err, At: s.now()})
	}
}
