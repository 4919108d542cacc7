package game

import (
	"runtime"
	"slices"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/time/rate"

	"github.com/Garsondee/Swarm-Control/internal/viewport"
)

var isWasm = runtime.GOOS == "js" && runtime.GOARCH == "wasm"

// capture turns ebiten's polled input state into a queue of viewport
// events once per frame.
type capture struct {
	mouseDown  bool
	last       viewport.Point
	touchCount int
	touchIDs   []ebiten.TouchID
	wheel      *rate.Limiter
}

func newCapture() *capture {
	return &capture{
		// Browsers deliver bursts of wheel events per notch.
		wheel: rate.NewLimiter(rate.Every(125*time.Millisecond), 1),
	}
}

// poll samples input for a frame whose map area is mapW by mapH pixels at
// the screen origin.
func (c *capture) poll(mapW, mapH float64) []viewport.InputEvent {
	var events []viewport.InputEvent

	c.touchIDs = ebiten.AppendTouchIDs(c.touchIDs[:0])
	if len(c.touchIDs) > 0 || c.touchCount > 0 {
		slices.Sort(c.touchIDs)
		points := make([]viewport.Point, 0, len(c.touchIDs))
		for _, id := range c.touchIDs {
			x, y := ebiten.TouchPosition(id)
			points = append(points, viewport.Point{X: float64(x), Y: float64(y)})
		}
		// A gesture has to start on the map; once started it is followed
		// anywhere.
		if c.touchCount > 0 || inMap(points[0], mapW, mapH) {
			events = append(events, viewport.InputEvent{Kind: viewport.Touches, Points: points})
			c.touchCount = len(points)
		}
		return events
	}

	x, y := ebiten.CursorPosition()
	p := viewport.Point{X: float64(x), Y: float64(y)}
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	switch {
	case pressed && !c.mouseDown && inMap(p, mapW, mapH):
		events = append(events, viewport.InputEvent{Kind: viewport.PointerDown, Point: p})
		c.mouseDown = true
	case pressed && c.mouseDown && p != c.last:
		events = append(events, viewport.InputEvent{Kind: viewport.PointerMove, Point: p})
	case !pressed && c.mouseDown:
		events = append(events, viewport.InputEvent{Kind: viewport.PointerUp, Point: p})
		c.mouseDown = false
	}
	c.last = p

	if _, wy := ebiten.Wheel(); wy != 0 && inMap(p, mapW, mapH) {
		if d := wheelDelta(wy, isWasm, c.wheel); d != 0 {
			events = append(events, viewport.InputEvent{Kind: viewport.Wheel, Point: p, Delta: d})
		}
	}
	return events
}

// wheelDelta converts an ebiten wheel offset (positive when scrolling up)
// into a zoom delta (positive zooms out). On wasm the rate is limited.
func wheelDelta(wy float64, wasm bool, lim *rate.Limiter) float64 {
	if wy == 0 {
		return 0
	}
	if wasm && !lim.Allow() {
		return 0
	}
	return -wy
}

func inMap(p viewport.Point, w, h float64) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < w && p.Y < h
}
