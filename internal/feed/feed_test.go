package feed

import (
	"context"
	"errors"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Garsondee/Swarm-Control/internal/fleet"
	"github.com/Garsondee/Swarm-Control/internal/mockremote"
	"github.com/Garsondee/Swarm-Control/internal/remote"
)

func recvResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
		return Result{}
	}
}

type flakySource struct {
	mu    sync.Mutex
	calls int
}

func (f *flakySource) State(ctx context.Context) (fleet.Snapshot, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	if n%2 == 0 {
		return fleet.Snapshot{}, errors.New("flaky")
	}
	return fleet.Snapshot{Robots: []fleet.Robot{{ID: n}}}, nil
}

func TestPoller_IncreasingSequence(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Result, 16)
	p := NewPoller(&flakySource{}, 10*time.Millisecond, zaptest.NewLogger(t))

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, out) }()

	seen := map[uint64]bool{}
	var failures, successes int
	for len(seen) < 6 {
		r := recvResult(t, out)
		require.False(t, seen[r.Seq], "duplicate seq %d", r.Seq)
		seen[r.Seq] = true
		if r.Err != nil {
			failures++
		} else {
			successes++
		}
	}
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.Positive(t, failures)
	require.Positive(t, successes)
}

func TestPoller_AgainstMock(t *testing.T) {
	mock := mockremote.New()
	srv := httptest.NewServer(mock.Handler())
	defer srv.Close()
	client, err := remote.New(srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewSynchronizer(nil, zaptest.NewLogger(t))
	s.Start(ctx, NewPoller(client, 10*time.Millisecond, nil))

	require.Eventually(t, func() bool {
		s.Pump()
		return s.Connectivity() == Online
	}, 2*time.Second, 5*time.Millisecond)
	require.Len(t, s.Snapshot().Robots, 3)

	mock.SetFailing(true)
	require.Eventually(t, func() bool {
		s.Pump()
		return s.Connectivity() == Offline
	}, 2*time.Second, 5*time.Millisecond)
	require.Len(t, s.Snapshot().Robots, 3)
}

func TestStreamURL(t *testing.T) {
	u, _ := url.Parse("http://localhost:8000")
	require.Equal(t, "ws://localhost:8000/stream", StreamURL(u, "/stream"))
	u, _ = url.Parse("https://fleet.example/api")
	require.Equal(t, "wss://fleet.example/api/stream", StreamURL(u, "stream"))
}

func TestStream_MatchesPoll(t *testing.T) {
	mock := mockremote.New(mockremote.WithStreamInterval(10 * time.Millisecond))
	srv := httptest.NewServer(mock.Handler())
	defer srv.Close()
	base, _ := url.Parse(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan Result, 16)
	go func() { _ = NewStream(StreamURL(base, "/stream"), 10*time.Millisecond, zaptest.NewLogger(t)).Run(ctx, out) }()

	first := recvResult(t, out)
	require.NoError(t, first.Err)
	second := recvResult(t, out)
	require.Greater(t, second.Seq, first.Seq)

	client, err := remote.New(srv.URL)
	require.NoError(t, err)
	polled, err := client.State(ctx)
	require.NoError(t, err)
	require.Equal(t, polled, first.Snapshot)
}

func TestStream_ReportsDialFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan Result, 4)
	go func() { _ = NewStream("ws://127.0.0.1:1/stream", time.Hour, nil).Run(ctx, out) }()

	r := recvResult(t, out)
	require.Error(t, r.Err)
	require.Equal(t, uint64(1), r.Seq)
}
