// Package effects keeps the transient, purely cosmetic decorations drawn
// over the map (failure rings). Decay is measured in frames: one Tick per
// render pass, so a faster frame rate plays the animation faster.
package effects

const (
	growPerTick = 2.0
	fadePerTick = 0.02
)

// Effect is an expanding, fading ring centred on a world point.
type Effect struct {
	X, Y   float64
	Radius float64
	Alpha  float64
}

// Manager owns the live effect list.
type Manager struct {
	effects []Effect
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// Spawn appends a fresh ring at (x, y).
func (m *Manager) Spawn(x, y float64) {
	m.effects = append(m.effects, Effect{X: x, Y: y, Radius: 0, Alpha: 1})
}

// Tick advances every effect by one frame and prunes the fully faded ones.
func (m *Manager) Tick() {
	kept := m.effects[:0]
	for _, e := range m.effects {
		e.Radius += growPerTick
		e.Alpha -= fadePerTick
		if e.Alpha > 0 {
			kept = append(kept, e)
		}
	}
	m.effects = kept
}

// Clear drops every effect.
func (m *Manager) Clear() {
	m.effects = m.effects[:0]
}

// Effects returns the live effects. The slice is only valid until the next
// Spawn, Tick or Clear.
func (m *Manager) Effects() []Effect {
	return m.effects
}

// Len returns the number of live effects.
func (m *Manager) Len() int { return len(m.effects) }
