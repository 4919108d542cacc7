// Package fleet holds the read-only view of the remote robot fleet: the
// snapshot returned by each poll and the mission events it carries.
package fleet

import (
	"encoding/json"
	"fmt"
	"strings"
)

// lowEnergy is the threshold under which a robot or the fleet average is
// shown with the warning colour.
const lowEnergy = 20

// EventType names a mission event.
type EventType string

const (
	EventFailure    EventType = "failure"
	EventDeploy     EventType = "deploy"
	EventReset      EventType = "reset"
	EventClearTasks EventType = "clear_tasks"
)

// Known reports whether t is one of the event types the client acts on.
func (t EventType) Known() bool {
	switch t {
	case EventFailure, EventDeploy, EventReset, EventClearTasks:
		return true
	}
	return false
}

// Robot is one fleet member as reported by the remote simulation.
type Robot struct {
	ID       int     `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Energy   float64 `json:"energy"`
	IsActive bool    `json:"is_active"`
	Status   string  `json:"status"`
}

// LowEnergy reports whether the robot is under the warning threshold.
func (r Robot) LowEnergy() bool { return r.Energy < lowEnergy }

// Executing reports whether the robot is actively working a task.
func (r Robot) Executing() bool {
	return r.IsActive && strings.Contains(r.Status, "Executing")
}

// Task is a point of work on the map.
type Task struct {
	ID         int     `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Priority   int     `json:"priority"`
	AssignedTo *int    `json:"assigned_to"`
}

// High reports whether the task is drawn with the urgent colour.
func (t Task) High() bool { return t.Priority > 3 }

// FleetStats is the aggregate summary shown in the HUD.
type FleetStats struct {
	AvgEnergy      float64 `json:"avg_energy"`
	CompletedCount int     `json:"completed_count"`
	ActiveTasks    int     `json:"active_tasks"`
	FleetSize      int     `json:"fleet_size"`
}

// LowEnergy reports whether the fleet average is under the warning threshold.
func (s FleetStats) LowEnergy() bool { return s.AvgEnergy < lowEnergy }

// Event is a discrete mission event. Time is a monotonic timestamp set by
// the remote; the optional fields are only present for some types.
type Event struct {
	Type EventType `json:"type"`
	Time float64   `json:"time"`
	ID   *int      `json:"id,omitempty"`
	X    *float64  `json:"x,omitempty"`
	Y    *float64  `json:"y,omitempty"`
}

// Position returns the event coordinates if both are present.
func (e Event) Position() (x, y float64, ok bool) {
	if e.X == nil || e.Y == nil {
		return 0, 0, false
	}
	return *e.X, *e.Y, true
}

// RobotLabel renders the robot id for log lines, or "?" when absent.
func (e Event) RobotLabel() string {
	if e.ID == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *e.ID)
}

// Snapshot is the complete remote state as of one poll. A new snapshot
// replaces the previous one wholesale.
type Snapshot struct {
	Robots    []Robot    `json:"robots"`
	Tasks     []Task     `json:"tasks"`
	Stats     FleetStats `json:"stats"`
	LastEvent *Event     `json:"last_event"`
}

// DefaultStats mirrors what the console shows before the first poll lands.
func DefaultStats() FleetStats {
	return FleetStats{AvgEnergy: 100}
}

// TaskAssignedTo returns the task assigned to robotID, if any.
func (s *Snapshot) TaskAssignedTo(robotID int) (Task, bool) {
	if s == nil {
		return Task{}, false
	}
	for _, t := range s.Tasks {
		if t.AssignedTo != nil && *t.AssignedTo == robotID {
			return t, true
		}
	}
	return Task{}, false
}

// Decode parses a snapshot body. Unknown fields are ignored and null
// collections come back empty.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Robots == nil {
		s.Robots = []Robot{}
	}
	if s.Tasks == nil {
		s.Tasks = []Task{}
	}
	return s, nil
}

// Clone returns a deep copy so the held snapshot cannot be mutated through
// a shared slice.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Robots: append([]Robot(nil), s.Robots...),
		Tasks:  make([]Task, len(s.Tasks)),
		Stats:  s.Stats,
	}
	for i, t := range s.Tasks {
		if t.AssignedTo != nil {
			id := *t.AssignedTo
			t.AssignedTo = &id
		}
		out.Tasks[i] = t
	}
	if s.LastEvent != nil {
		ev := *s.LastEvent
		out.LastEvent = &ev
	}
	return out
}
