package viewport

// Controller owns the viewport state plus the transient pan and pinch state.
// It is driven from the main loop only and never touches the network.
type Controller struct {
	state State

	panning bool
	anchor  Point

	touchCount    int
	lastTouchDist float64
}

// NewController returns a controller at the default camera.
func NewController() *Controller {
	return &Controller{state: DefaultState()}
}

// State returns the current viewport state.
func (c *Controller) State() State { return c.state }

// Panning reports whether a pan gesture is in progress.
func (c *Controller) Panning() bool { return c.panning }

// BeginPan anchors a pan at screen point p.
func (c *Controller) BeginPan(p Point) {
	c.anchor = p.Sub(Point{c.state.OffsetX, c.state.OffsetY})
	c.panning = true
}

// ContinuePan moves the offset so the anchor stays under p. No-op unless
// panning.
func (c *Controller) ContinuePan(p Point) {
	if !c.panning {
		return
	}
	c.state.OffsetX = p.X - c.anchor.X
	c.state.OffsetY = p.Y - c.anchor.Y
}

// EndPan finishes the current pan gesture.
func (c *Controller) EndPan() {
	c.panning = false
}

// ZoomAt zooms out for positive delta and in otherwise, keeping the world
// point under center fixed on screen.
func (c *Controller) ZoomAt(delta float64, center Point) {
	old := c.state.Zoom
	factor := zoomInFactor
	if delta > 0 {
		factor = zoomOutFactor
	}
	c.state.Zoom = clampZoom(old * factor)

	ratio := c.state.Zoom/old - 1
	c.state.OffsetX -= (center.X - c.state.OffsetX) * ratio
	c.state.OffsetY -= (center.Y - c.state.OffsetY) * ratio
}

// Touches applies the set of active touch points for this frame.
// One touch pans; two touches pinch-zoom around their midpoint. Other
// counts end any gesture.
func (c *Controller) Touches(points []Point) {
	n := len(points)
	if n != c.touchCount {
		prev := c.touchCount
		c.touchCount = n
		if prev == 2 {
			c.lastTouchDist = 0
		}
		switch n {
		case 1:
			c.BeginPan(points[0])
		case 2:
			c.EndPan()
			c.lastTouchDist = points[0].Dist(points[1])
		default:
			c.EndPan()
		}
		return
	}

	switch n {
	case 1:
		c.ContinuePan(points[0])
	case 2:
		dist := points[0].Dist(points[1])
		if dist == c.lastTouchDist {
			return
		}
		c.ZoomAt(c.lastTouchDist-dist, points[0].Mid(points[1]))
		c.lastTouchDist = dist
	}
}
