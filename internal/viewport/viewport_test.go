package viewport

import (
	"math"
	"math/rand"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// --- Transform ---

func TestRoundTrip_ScreenWorldScreen(t *testing.T) {
	rng := rand.New(rand.NewSource(7)) // #nosec G404 -- test data
	for i := 0; i < 500; i++ {
		v := State{
			Zoom:    MinZoom + rng.Float64()*(MaxZoom-MinZoom),
			OffsetX: rng.Float64()*4000 - 2000,
			OffsetY: rng.Float64()*4000 - 2000,
		}
		p := Point{rng.Float64() * 1920, rng.Float64() * 1080}
		back := v.ToScreen(v.ToWorld(p))
		if !near(back.X, p.X) || !near(back.Y, p.Y) {
			t.Fatalf("round trip drifted: %+v -> %+v (viewport %+v)", p, back, v)
		}
	}
}

func TestToWorld_Formula(t *testing.T) {
	v := State{Zoom: 2, OffsetX: 100, OffsetY: -50}
	w := v.ToWorld(Point{300, 150})
	if w.X != 100 || w.Y != 100 {
		t.Fatalf("expected (100,100), got %+v", w)
	}
}

func TestVisibleWorld(t *testing.T) {
	v := State{Zoom: 0.5, OffsetX: 0, OffsetY: 0}
	min, max := v.VisibleWorld(800, 600)
	if min.X != 0 || min.Y != 0 || max.X != 1600 || max.Y != 1200 {
		t.Fatalf("expected 0,0..1600,1200, got %+v..%+v", min, max)
	}
}

// --- Zoom ---

func TestZoomAt_ClampedAfterAnySequence(t *testing.T) {
	rng := rand.New(rand.NewSource(3)) // #nosec G404 -- test data
	c := NewController()
	for i := 0; i < 2000; i++ {
		delta := rng.Float64()*2 - 1
		c.ZoomAt(delta, Point{rng.Float64() * 800, rng.Float64() * 600})
		z := c.State().Zoom
		if z < MinZoom-eps || z > MaxZoom+eps {
			t.Fatalf("zoom escaped clamp: %.4f after %d steps", z, i)
		}
	}
}

func TestZoomAt_Direction(t *testing.T) {
	c := NewController()
	c.ZoomAt(1, Point{})
	if z := c.State().Zoom; !(z < 1) {
		t.Fatalf("positive delta should zoom out, got %.4f", z)
	}
	before := c.State().Zoom
	c.ZoomAt(-1, Point{})
	if z := c.State().Zoom; !(z > before) {
		t.Fatalf("negative delta should zoom in, got %.4f (before %.4f)", z, before)
	}
}

func TestZoomAt_KeepsCenterFixed(t *testing.T) {
	c := NewController()
	c.BeginPan(Point{0, 0})
	c.ContinuePan(Point{37, -12})
	c.EndPan()

	center := Point{420, 310}
	before := c.State().ToWorld(center)
	for i := 0; i < 5; i++ {
		c.ZoomAt(-3, center)
	}
	c.ZoomAt(2, center)
	after := c.State().ToWorld(center)
	if !near(before.X, after.X) || !near(before.Y, after.Y) {
		t.Fatalf("world point under cursor moved: %+v -> %+v", before, after)
	}
}

func TestZoomAt_AtClampDoesNotShift(t *testing.T) {
	c := NewController()
	for i := 0; i < 100; i++ {
		c.ZoomAt(-1, Point{10, 10})
	}
	s := c.State()
	c.ZoomAt(-1, Point{500, 500})
	if c.State() != s {
		t.Fatalf("zoom at max should be a no-op, got %+v from %+v", c.State(), s)
	}
}

// --- Pan ---

func TestPan_AnchorFollowsPointer(t *testing.T) {
	c := NewController()
	c.BeginPan(Point{100, 100})
	c.ContinuePan(Point{150, 80})
	s := c.State()
	if s.OffsetX != 50 || s.OffsetY != -20 {
		t.Fatalf("expected offset (50,-20), got (%v,%v)", s.OffsetX, s.OffsetY)
	}
	c.EndPan()
	c.ContinuePan(Point{999, 999})
	if c.State() != s {
		t.Fatal("continuePan after endPan should be a no-op")
	}
}

// --- Touch ---

func TestTouches_OneFingerPans(t *testing.T) {
	c := NewController()
	c.Touches([]Point{{10, 10}})
	c.Touches([]Point{{30, 40}})
	s := c.State()
	if s.OffsetX != 20 || s.OffsetY != 30 {
		t.Fatalf("expected offset (20,30), got (%v,%v)", s.OffsetX, s.OffsetY)
	}
	c.Touches(nil)
	if c.Panning() {
		t.Fatal("lifting the finger should end the pan")
	}
}

func TestTouches_PinchOutZoomsIn(t *testing.T) {
	c := NewController()
	c.Touches([]Point{{100, 100}, {200, 100}})
	c.Touches([]Point{{90, 100}, {210, 100}})
	if z := c.State().Zoom; !(z > 1) {
		t.Fatalf("spreading fingers should zoom in, got %.4f", z)
	}
	c.Touches([]Point{{95, 100}, {205, 100}})
	if z := c.State().Zoom; !near(z, 1.1*0.9) {
		t.Fatalf("pinching should zoom out once, got %.4f", z)
	}
}

func TestTouches_DistanceResetsLeavingTwo(t *testing.T) {
	c := NewController()
	c.Touches([]Point{{0, 0}, {100, 0}})
	c.Touches([]Point{{0, 0}})
	if c.lastTouchDist != 0 {
		t.Fatalf("expected distance reset, got %v", c.lastTouchDist)
	}
	if !c.Panning() {
		t.Fatal("dropping to one finger should start a pan")
	}
}

// --- Input queue ---

func TestApply_ClickWithoutMovement(t *testing.T) {
	c := NewController()
	var in InputState
	clicks := c.Apply(&in, []InputEvent{
		{Kind: PointerDown, Point: Point{200, 200}},
		{Kind: PointerMove, Point: Point{202, 201}},
		{Kind: PointerUp, Point: Point{202, 201}},
	})
	if len(clicks) != 1 || clicks[0] != (Point{202, 201}) {
		t.Fatalf("expected one click at (202,201), got %+v", clicks)
	}
}

func TestApply_ClickUsesViewportAtRelease(t *testing.T) {
	c := NewController()
	var in InputState
	clicks := c.Apply(&in, []InputEvent{
		{Kind: PointerDown, Point: Point{400, 300}},
		{Kind: PointerUp, Point: Point{400, 300}},
		{Kind: Wheel, Point: Point{0, 0}, Delta: -1},
	})
	if len(clicks) != 1 || clicks[0] != (Point{400, 300}) {
		t.Fatalf("expected click at world (400,300) before the zoom, got %+v", clicks)
	}
	if z := c.State().Zoom; !near(z, 1.1) {
		t.Fatalf("wheel should still zoom to 1.1, got %.4f", z)
	}
}

func TestApply_ClickIsInWorldCoordinates(t *testing.T) {
	c := NewController()
	c.ZoomAt(-1, Point{0, 0})
	var in InputState
	clicks := c.Apply(&in, []InputEvent{
		{Kind: PointerDown, Point: Point{110, 55}},
		{Kind: PointerUp, Point: Point{110, 55}},
	})
	if len(clicks) != 1 || !near(clicks[0].X, 100) || !near(clicks[0].Y, 50) {
		t.Fatalf("expected world (100,50) at zoom 1.1, got %+v", clicks)
	}
}

func TestApply_DragIsNotAClick(t *testing.T) {
	c := NewController()
	var in InputState
	clicks := c.Apply(&in, []InputEvent{
		{Kind: PointerDown, Point: Point{200, 200}},
		{Kind: PointerMove, Point: Point{260, 230}},
		{Kind: PointerUp, Point: Point{260, 230}},
	})
	if len(clicks) != 0 {
		t.Fatalf("drag should not click, got %+v", clicks)
	}
	s := c.State()
	if s.OffsetX != 60 || s.OffsetY != 30 {
		t.Fatalf("expected pan by (60,30), got (%v,%v)", s.OffsetX, s.OffsetY)
	}
}

func TestApply_WheelZooms(t *testing.T) {
	c := NewController()
	var in InputState
	c.Apply(&in, []InputEvent{{Kind: Wheel, Point: Point{10, 10}, Delta: 1}})
	if z := c.State().Zoom; !near(z, 0.9) {
		t.Fatalf("expected zoom 0.9, got %.4f", z)
	}
}

func TestApply_TapAndPinch(t *testing.T) {
	c := NewController()
	var in InputState
	clicks := c.Apply(&in, []InputEvent{
		{Kind: Touches, Points: []Point{{50, 60}}},
		{Kind: Touches, Points: nil},
	})
	if len(clicks) != 1 || clicks[0] != (Point{50, 60}) {
		t.Fatalf("expected tap at (50,60), got %+v", clicks)
	}

	clicks = c.Apply(&in, []InputEvent{
		{Kind: Touches, Points: []Point{{50, 60}}},
		{Kind: Touches, Points: []Point{{50, 60}, {150, 60}}},
		{Kind: Touches, Points: []Point{{40, 60}, {160, 60}}},
		{Kind: Touches, Points: nil},
	})
	if len(clicks) != 0 {
		t.Fatalf("pinch should not tap, got %+v", clicks)
	}
}
