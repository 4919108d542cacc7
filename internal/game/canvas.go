package game

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/gomono"
)

// fontSize makes Go Mono advance 7px per glyph, matching render.GlyphWidth.
const fontSize = 11.67

func loadFace() (text.Face, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(gomono.TTF))
	if err != nil {
		return nil, fmt.Errorf("load mono font: %w", err)
	}
	return &text.GoTextFace{Source: src, Size: fontSize}, nil
}

// canvas draws onto an ebiten image. For a sub-image the extent is its
// bottom-right corner, since sub-images keep the parent's coordinates.
type canvas struct {
	img  *ebiten.Image
	face text.Face
	w, h float64
}

func newCanvas(img *ebiten.Image, face text.Face) *canvas {
	b := img.Bounds()
	return &canvas{img: img, face: face, w: float64(b.Max.X), h: float64(b.Max.Y)}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (c *canvas) Size() (float64, float64) { return c.w, c.h }

func (c *canvas) Clear(col color.Color) { c.img.Fill(col) }

func (c *canvas) Line(x0, y0, x1, y1, width float64, col color.Color) {
	if !finite(x0, y0, x1, y1, width) {
		return
	}
	vector.StrokeLine(c.img, float32(x0), float32(y0), float32(x1), float32(y1), float32(width), col, true)
}

func (c *canvas) FillRect(x, y, w, h float64, col color.Color) {
	if !finite(x, y, w, h) || w <= 0 || h <= 0 {
		return
	}
	vector.FillRect(c.img, float32(x), float32(y), float32(w), float32(h), col, false)
}

func (c *canvas) FillCircle(x, y, r float64, col color.Color) {
	if !finite(x, y, r) || r <= 0 {
		return
	}
	vector.FillCircle(c.img, float32(x), float32(y), float32(r), col, true)
}

func (c *canvas) StrokeCircle(x, y, r, width float64, col color.Color) {
	if !finite(x, y, r, width) || r <= 0 {
		return
	}
	vector.StrokeCircle(c.img, float32(x), float32(y), float32(r), float32(width), col, true)
}

func (c *canvas) Text(s string, x, y float64, col color.Color) {
	if s == "" || !finite(x, y) {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(col)
	text.Draw(c.img, s, c.face, op)
}
