package render

import (
	"image/color"
	"math"
	"strconv"

	"github.com/Garsondee/Swarm-Control/internal/effects"
	"github.com/Garsondee/Swarm-Control/internal/fleet"
	"github.com/Garsondee/Swarm-Control/internal/viewport"
)

// World-space sizes.
const (
	GridSize     = 50.0
	taskRadius   = 6.0
	robotSize    = 30.0
	centroidSize = 4.0
	barOffset    = 18.0
	barHeightPx  = 3.0
)

// Screen-space stroke widths and dash lengths.
const (
	gridWidth      = 1.0
	robotWidth     = 2.0
	effectWidth    = 3.0
	inactiveDash   = 2.0
	connectorDash  = 5.0
	connectorWidth = 2.0
)

// Render draws one frame of the map onto c and then advances fx by one
// tick. s and fx may be nil.
func Render(c Canvas, s *fleet.Snapshot, v viewport.State, fx *effects.Manager) {
	c.Clear(Background)
	w, h := c.Size()
	if v.Zoom <= 0 || math.IsNaN(v.Zoom) {
		v = viewport.DefaultState()
	}

	drawGrid(c, v, w, h)
	if s != nil {
		drawTasks(c, s, v)
		drawRobots(c, s, v)
	}
	if fx != nil {
		drawEffects(c, fx, v)
		fx.Tick()
	}
}

// GridLines returns the world x and y positions of the grid lines covering
// a w by h surface, plus the world extent they span.
func GridLines(v viewport.State, w, h float64) (xs, ys []float64, start, end viewport.Point) {
	start = viewport.Point{
		X: math.Floor(-v.OffsetX/v.Zoom/GridSize) * GridSize,
		Y: math.Floor(-v.OffsetY/v.Zoom/GridSize) * GridSize,
	}
	end = viewport.Point{
		X: start.X + w/v.Zoom + GridSize*2,
		Y: start.Y + h/v.Zoom + GridSize*2,
	}
	if math.IsNaN(start.X+start.Y+end.X+end.Y) || math.IsInf(start.X+start.Y+end.X+end.Y, 0) {
		return nil, nil, start, end
	}
	for x := start.X; x < end.X; x += GridSize {
		xs = append(xs, x)
	}
	for y := start.Y; y < end.Y; y += GridSize {
		ys = append(ys, y)
	}
	return xs, ys, start, end
}

func drawGrid(c Canvas, v viewport.State, w, h float64) {
	xs, ys, start, end := GridLines(v, w, h)
	top, bottom := v.ToScreen(start), v.ToScreen(end)
	for _, x := range xs {
		sx := x*v.Zoom + v.OffsetX
		c.Line(sx, top.Y, sx, bottom.Y, gridWidth, GridColor)
	}
	for _, y := range ys {
		sy := y*v.Zoom + v.OffsetY
		c.Line(top.X, sy, bottom.X, sy, gridWidth, GridColor)
	}
}

// TaskColor is the marker colour for a task.
func TaskColor(t fleet.Task) color.RGBA {
	if t.High() {
		return Alert
	}
	return Warning
}

func drawTasks(c Canvas, s *fleet.Snapshot, v viewport.State) {
	for _, t := range s.Tasks {
		p := v.ToScreen(viewport.Point{X: t.X, Y: t.Y})
		c.FillCircle(p.X, p.Y, taskRadius*v.Zoom, TaskColor(t))
		l := v.ToScreen(viewport.Point{X: t.X + 10, Y: t.Y - 10})
		c.Text("T"+strconv.Itoa(t.ID), l.X, l.Y-LineHeight, Label)
	}
}

func drawRobots(c Canvas, s *fleet.Snapshot, v viewport.State) {
	for _, r := range s.Robots {
		p := v.ToScreen(viewport.Point{X: r.X, Y: r.Y})
		half := robotSize / 2 * v.Zoom

		outline, dash := Accent, 0.0
		if !r.IsActive {
			outline, dash = Alert, inactiveDash
		}
		strokeRect(c, p.X-half, p.Y-half, 2*half, 2*half, dash, robotWidth, outline)

		if r.Executing() {
			if t, ok := s.TaskAssignedTo(r.ID); ok {
				q := v.ToScreen(viewport.Point{X: t.X, Y: t.Y})
				dashedLine(c, p.X, p.Y, q.X, q.Y, connectorDash, connectorWidth, Connector)
			}
		}

		c.FillCircle(p.X, p.Y, centroidSize*v.Zoom, outline)

		bar := v.ToScreen(viewport.Point{X: r.X - robotSize/2, Y: r.Y + barOffset})
		c.FillRect(bar.X, bar.Y, 2*half, barHeightPx, BarTrack)
		c.FillRect(bar.X, bar.Y, 2*half*EnergyFraction(r.Energy), barHeightPx, EnergyColor(r.Energy))

		l := v.ToScreen(viewport.Point{X: r.X - 10, Y: r.Y + 30})
		c.Text("R"+strconv.Itoa(r.ID), l.X, l.Y-LineHeight, Label)
	}
}

func drawEffects(c Canvas, fx *effects.Manager, v viewport.State) {
	for _, e := range fx.Effects() {
		p := v.ToScreen(viewport.Point{X: e.X, Y: e.Y})
		c.StrokeCircle(p.X, p.Y, e.Radius*v.Zoom, effectWidth, EffectColor(e.Alpha))
	}
}

// EnergyFraction clamps an energy percentage to [0, 1].
func EnergyFraction(energy float64) float64 {
	if math.IsNaN(energy) {
		return 0
	}
	return math.Max(0, math.Min(100, energy)) / 100
}
