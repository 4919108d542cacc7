package feed

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/Garsondee/Swarm-Control/internal/fleet"
)

type recorder struct {
	events []fleet.Event
	trace  *[]string
}

func (r *recorder) Handle(ev fleet.Event) {
	r.events = append(r.events, ev)
	if r.trace != nil {
		*r.trace = append(*r.trace, "notify")
	}
}

func snapshotWith(ev *fleet.Event, robots ...fleet.Robot) fleet.Snapshot {
	return fleet.Snapshot{
		Robots:    robots,
		Tasks:     []fleet.Task{},
		Stats:     fleet.FleetStats{AvgEnergy: 80, FleetSize: len(robots)},
		LastEvent: ev,
	}
}

func event(typ fleet.EventType, at float64) *fleet.Event {
	return &fleet.Event{Type: typ, Time: at}
}

// --- Connectivity ---

func TestApply_SuccessGoesOnline(t *testing.T) {
	s := NewSynchronizer(nil, zaptest.NewLogger(t))
	if s.Connectivity() != Connecting {
		t.Fatalf("expected CONNECTING before the first result, got %s", s.Connectivity())
	}
	at := time.Unix(100, 0)
	s.Apply(Result{Seq: 1, Snapshot: snapshotWith(nil, fleet.Robot{ID: 1}), At: at})
	if s.Connectivity() != Online {
		t.Fatalf("expected ONLINE, got %s", s.Connectivity())
	}
	if len(s.Snapshot().Robots) != 1 {
		t.Fatalf("expected held snapshot to have 1 robot, got %d", len(s.Snapshot().Robots))
	}
	if !s.LastSuccess().Equal(at) {
		t.Fatalf("expected last success %v, got %v", at, s.LastSuccess())
	}
	if got := s.Staleness(at.Add(3 * time.Second)); got != 3*time.Second {
		t.Fatalf("expected 3s staleness, got %v", got)
	}
}

func TestApply_FailureKeepsSnapshot(t *testing.T) {
	s := NewSynchronizer(nil, zaptest.NewLogger(t))
	good := snapshotWith(nil, fleet.Robot{ID: 7, X: 1, Y: 2, Energy: 50, IsActive: true, Status: "Idle"})
	s.Apply(Result{Seq: 1, Snapshot: good})
	before := s.Snapshot().Clone()

	boom := errors.New("connection refused")
	s.Apply(Result{Seq: 2, Err: boom})

	if s.Connectivity() != Offline {
		t.Fatalf("expected OFFLINE after failure, got %s", s.Connectivity())
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Fatalf("expected snapshot unchanged after failure")
	}
	if !errors.Is(s.LastError(), boom) {
		t.Fatalf("expected last error to be kept, got %v", s.LastError())
	}

	s.Apply(Result{Seq: 3, Snapshot: good})
	if s.Connectivity() != Online || s.LastError() != nil {
		t.Fatalf("expected recovery to ONLINE with no error, got %s / %v", s.Connectivity(), s.LastError())
	}
}

func TestInitialSnapshot_DefaultStats(t *testing.T) {
	s := NewSynchronizer(nil, nil)
	if s.Snapshot().Stats.AvgEnergy != 100 {
		t.Fatalf("expected avg energy 100 before the first poll, got %v", s.Snapshot().Stats.AvgEnergy)
	}
}

// --- Events ---

func TestEvents_NotifiedOnceAndInOrder(t *testing.T) {
	rec := &recorder{}
	s := NewSynchronizer(rec, zaptest.NewLogger(t))

	s.Apply(Result{Seq: 1, Snapshot: snapshotWith(event(fleet.EventDeploy, 10))})
	s.Apply(Result{Seq: 2, Snapshot: snapshotWith(event(fleet.EventDeploy, 10))})
	s.Apply(Result{Seq: 3, Snapshot: snapshotWith(event(fleet.EventReset, 9))})
	s.Apply(Result{Seq: 4, Snapshot: snapshotWith(event(fleet.EventReset, 11))})

	if len(rec.events) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(rec.events))
	}
	if rec.events[0].Time != 10 || rec.events[1].Time != 11 {
		t.Fatalf("expected events at 10 then 11, got %v then %v", rec.events[0].Time, rec.events[1].Time)
	}
	if at, ok := s.LastEventTime(); !ok || at != 11 {
		t.Fatalf("expected last event time 11, got %v (%v)", at, ok)
	}
}

func TestEvents_NullDoesNotRewindTime(t *testing.T) {
	rec := &recorder{}
	s := NewSynchronizer(rec, nil)
	s.Apply(Result{Seq: 1, Snapshot: snapshotWith(event(fleet.EventFailure, 5))})
	s.Apply(Result{Seq: 2, Snapshot: snapshotWith(nil)})
	s.Apply(Result{Seq: 3, Snapshot: snapshotWith(event(fleet.EventFailure, 5))})
	if len(rec.events) != 1 {
		t.Fatalf("expected the old event not to fire again, got %d notifications", len(rec.events))
	}
}

func TestEvents_NotifyBeforePublish(t *testing.T) {
	var trace []string
	rec := &recorder{trace: &trace}
	s := NewSynchronizer(rec, nil)
	s.Subscribe(func(snap fleet.Snapshot) {
		trace = append(trace, "publish")
		if len(rec.events) != 1 {
			t.Fatalf("expected the handler to have run before publish")
		}
	})
	s.Apply(Result{Seq: 1, Snapshot: snapshotWith(event(fleet.EventClearTasks, 1))})
	if !reflect.DeepEqual(trace, []string{"notify", "publish"}) {
		t.Fatalf("expected notify then publish, got %v", trace)
	}
}

func TestEvents_FailedResultNotifiesNothing(t *testing.T) {
	rec := &recorder{}
	s := NewSynchronizer(rec, nil)
	s.Apply(Result{Seq: 1, Snapshot: snapshotWith(event(fleet.EventFailure, 1)), Err: errors.New("500")})
	if len(rec.events) != 0 {
		t.Fatalf("expected no notification from a failed result, got %d", len(rec.events))
	}
}

// --- Stale results ---

func TestApply_DropsStale(t *testing.T) {
	rec := &recorder{}
	s := NewSynchronizer(rec, zaptest.NewLogger(t))

	newer := snapshotWith(event(fleet.EventDeploy, 20), fleet.Robot{ID: 2})
	older := snapshotWith(event(fleet.EventFailure, 19), fleet.Robot{ID: 1})

	s.Apply(Result{Seq: 2, Snapshot: newer})
	s.Apply(Result{Seq: 1, Snapshot: older})
	s.Apply(Result{Seq: 2, Err: errors.New("late failure")})

	if got := s.Snapshot().Robots[0].ID; got != 2 {
		t.Fatalf("expected the newer snapshot to be held, got robot %d", got)
	}
	if s.Connectivity() != Online {
		t.Fatalf("expected a stale failure not to flip connectivity, got %s", s.Connectivity())
	}
	if len(rec.events) != 1 {
		t.Fatalf("expected only the newer event, got %d", len(rec.events))
	}
	c := s.Counters()
	if c.Applied != 1 || c.Dropped != 2 || c.Failed != 0 {
		t.Fatalf("expected applied=1 dropped=2 failed=0, got %+v", c)
	}
}

// --- Pump ---

func TestPump_DrainsInArrivalOrder(t *testing.T) {
	s := NewSynchronizer(nil, nil)
	var seen []int
	s.Subscribe(func(snap fleet.Snapshot) { seen = append(seen, snap.Robots[0].ID) })

	s.Results() <- Result{Seq: 1, Snapshot: snapshotWith(nil, fleet.Robot{ID: 1})}
	s.Results() <- Result{Seq: 3, Snapshot: snapshotWith(nil, fleet.Robot{ID: 3})}
	s.Results() <- Result{Seq: 2, Snapshot: snapshotWith(nil, fleet.Robot{ID: 2})}

	if n := s.Pump(); n != 3 {
		t.Fatalf("expected 3 results pumped, got %d", n)
	}
	if !reflect.DeepEqual(seen, []int{1, 3}) {
		t.Fatalf("expected publishes for 1 and 3, got %v", seen)
	}
	if n := s.Pump(); n != 0 {
		t.Fatalf("expected empty pump, got %d", n)
	}
}
