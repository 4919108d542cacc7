// Package render draws the fleet map and its side panels onto an abstract
// Canvas. It holds no state between frames: every call works only from the
// snapshot, viewport and effects it is given.
package render

import (
	"image/color"
	"math"
)

// Canvas is a drawing surface in screen pixels. Coordinates are float64
// and may fall outside the surface.
type Canvas interface {
	Size() (w, h float64)
	Clear(c color.Color)
	Line(x0, y0, x1, y1, width float64, c color.Color)
	FillRect(x, y, w, h float64, c color.Color)
	FillCircle(x, y, r float64, c color.Color)
	StrokeCircle(x, y, r, width float64, c color.Color)
	// Text draws s with its top-left corner at (x, y).
	Text(s string, x, y float64, c color.Color)
}

// Fixed-pitch text metrics the panels lay out with.
const (
	GlyphWidth = 7
	LineHeight = 13
)

var (
	Background = color.RGBA{R: 0x0a, G: 0x0b, B: 0x10, A: 0xff}
	GridColor  = color.NRGBA{R: 255, G: 255, B: 255, A: 13}
	Alert      = color.RGBA{R: 0xff, G: 0x44, B: 0x44, A: 0xff}
	Warning    = color.RGBA{R: 0xff, G: 0x8c, B: 0x00, A: 0xff}
	Accent     = color.RGBA{R: 0x00, G: 0xd2, B: 0xff, A: 0xff}
	Healthy    = color.RGBA{R: 0x00, G: 0xff, B: 0x88, A: 0xff}
	Connector  = color.NRGBA{R: 0, G: 210, B: 255, A: 102}
	Label      = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	Muted      = color.RGBA{R: 0xb0, G: 0xb0, B: 0xc0, A: 0xff}
	PanelFill  = color.RGBA{R: 0x12, G: 0x14, B: 0x1c, A: 0xf0}
	PanelEdge  = color.RGBA{R: 0x2a, G: 0x30, B: 0x40, A: 0xff}
	BarTrack   = color.RGBA{R: 0x22, G: 0x26, B: 0x30, A: 0xff}
)

// EffectColor is the ring colour at the given opacity.
func EffectColor(alpha float64) color.NRGBA {
	a := math.Max(0, math.Min(1, alpha))
	return color.NRGBA{R: 255, G: 68, B: 68, A: uint8(math.Round(a * 255))}
}

// dashedLine strokes a line as alternating on/off segments of dash pixels.
func dashedLine(c Canvas, x0, y0, x1, y1, dash, width float64, col color.Color) {
	length := math.Hypot(x1-x0, y1-y0)
	if length == 0 || dash <= 0 || math.IsNaN(length) || math.IsInf(length, 0) {
		return
	}
	ux, uy := (x1-x0)/length, (y1-y0)/length
	for d := 0.0; d < length; d += 2 * dash {
		e := math.Min(d+dash, length)
		c.Line(x0+ux*d, y0+uy*d, x0+ux*e, y0+uy*e, width, col)
	}
}

// strokeRect outlines a rectangle, solid when dash is zero.
func strokeRect(c Canvas, x, y, w, h, dash, width float64, col color.Color) {
	edges := [4][4]float64{
		{x, y, x + w, y},
		{x + w, y, x + w, y + h},
		{x + w, y + h, x, y + h},
		{x, y + h, x, y},
	}
	for _, e := range edges {
		if dash > 0 {
			dashedLine(c, e[0], e[1], e[2], e[3], dash, width, col)
		} else {
			c.Line(e[0], e[1], e[2], e[3], width, col)
		}
	}
}

// truncate shortens s to fit in px pixels of fixed-pitch text.
func truncate(s string, px float64) string {
	n := int(px / GlyphWidth)
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return string(r[:1])
	}
	return string(r[:n-1]) + "~"
}
