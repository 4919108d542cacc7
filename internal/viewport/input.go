package viewport

// clickSlop is how far (screen px) a press may travel and still count as a
// click rather than a pan.
const clickSlop = 4.0

// InputKind tags an InputEvent.
type InputKind int

const (
	PointerDown InputKind = iota
	PointerMove
	PointerUp
	Wheel
	Touches
)

// InputEvent is one captured pointer, wheel or touch sample. Capture code
// queues these once per frame and Apply consumes them in order.
type InputEvent struct {
	Kind   InputKind
	Point  Point   // PointerDown/Move/Up, Wheel: cursor position
	Delta  float64 // Wheel: positive zooms out, like a DOM deltaY
	Points []Point // Touches: every active touch this frame
}

// gesture tracks a single press so a release close to where it started can
// be reported as a click.
type gesture struct {
	active bool
	start  Point
	moved  bool
}

func (g *gesture) begin(p Point) {
	*g = gesture{active: true, start: p}
}

func (g *gesture) track(p Point) {
	if g.active && p.Dist(g.start) > clickSlop {
		g.moved = true
	}
}

// end reports whether the finished gesture was a click.
func (g *gesture) end() bool {
	click := g.active && !g.moved
	g.active = false
	return click
}

// InputState is the click recognition state kept alongside the controller.
type InputState struct {
	mouse   gesture
	touch   gesture
	lastTap Point
}

// Apply consumes queued input events, mutating only the viewport, and
// returns the world points of clicks (or taps) on the map. Each click is
// converted with the viewport as it stood when the press was released, so
// later events in the same queue do not move it.
func (c *Controller) Apply(in *InputState, events []InputEvent) []Point {
	var clicks []Point
	for _, ev := range events {
		switch ev.Kind {
		case PointerDown:
			c.BeginPan(ev.Point)
			in.mouse.begin(ev.Point)
		case PointerMove:
			in.mouse.track(ev.Point)
			c.ContinuePan(ev.Point)
		case PointerUp:
			in.mouse.track(ev.Point)
			c.EndPan()
			if in.mouse.end() {
				clicks = append(clicks, c.state.ToWorld(ev.Point))
			}
		case Wheel:
			if ev.Delta != 0 {
				c.ZoomAt(ev.Delta, ev.Point)
			}
		case Touches:
			clicks = c.applyTouches(in, ev.Points, clicks)
		}
	}
	return clicks
}

func (c *Controller) applyTouches(in *InputState, points []Point, clicks []Point) []Point {
	prev := c.touchCount
	switch {
	case prev == 0 && len(points) == 1:
		in.touch.begin(points[0])
		in.lastTap = points[0]
	case len(points) == 1:
		in.touch.track(points[0])
		in.lastTap = points[0]
	case len(points) > 1:
		// A pinch is never a tap.
		in.touch.moved = true
	}
	c.Touches(points)
	if len(points) == 0 && prev > 0 && in.touch.end() {
		clicks = append(clicks, c.state.ToWorld(in.lastTap))
	}
	return clicks
}
