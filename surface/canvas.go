// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"image"

	"github.com/gogpu/gg"
)

// Canvas is a stateful 2D raster drawing target modelled on the HTML canvas
// 2D context: a save/restore stack, a current transform, style properties,
// path construction, clipping and image compositing.
//
// Canvases are NOT thread-safe. Each canvas must be used from a single
// goroutine, or external synchronization must be used.
type Canvas interface {
	// Width returns the canvas width in pixels.
	Width() int

	// Height returns the canvas height in pixels.
	Height() int

	// Save pushes transform, style and clip onto the state stack.
	Save()

	// Restore pops the state stack. Restore on an empty stack is a no-op.
	Restore()

	// Reset drops the state stack and returns transform, style, clip and
	// path to their initial values. Pixels are kept.
	Reset()

	// Transform returns the current transformation matrix.
	Transform() gg.Matrix

	// SetTransform replaces the current transformation matrix.
	SetTransform(m gg.Matrix)

	// Translate post-multiplies the transform with a translation.
	Translate(x, y float64)

	// Rotate post-multiplies the transform with a rotation in radians.
	Rotate(angle float64)

	// Style returns the mutable current style. The pointer is only valid
	// until the next Save or Restore.
	Style() *Style

	// BeginPath discards the current path.
	BeginPath()

	// MoveTo starts a new subpath; the point is transformed immediately.
	MoveTo(x, y float64)

	// LineTo adds a segment; the point is transformed immediately.
	LineTo(x, y float64)

	// QuadraticCurveTo adds a quadratic Bezier segment.
	QuadraticCurveTo(cx, cy, x, y float64)

	// BezierCurveTo adds a cubic Bezier segment.
	BezierCurveTo(c1x, c1y, c2x, c2y, x, y float64)

	// ClosePath closes the current subpath.
	ClosePath()

	// Fill fills the current path with the fill color. The path is kept.
	Fill()

	// Stroke strokes the current path with the stroke style. The path is kept.
	Stroke()

	// Clip intersects the clip region with the current path. The path is kept.
	Clip()

	// Clear makes every pixel transparent, ignoring transform and clip.
	Clear()

	// ClearRect makes the transformed rectangle transparent, honoring clip.
	ClearRect(x, y, w, h float64)

	// DrawImage draws img scaled into the rectangle (x, y, w, h) under the
	// current transform, clip, alpha and composite operation.
	DrawImage(img image.Image, x, y, w, h float64)

	// DrawCanvas composites src onto this canvas at the device origin,
	// ignoring the current transform.
	DrawCanvas(src Canvas)

	// Image returns the live pixel buffer. Callers must not modify it.
	Image() *image.RGBA

	// Snapshot returns a copy of the current pixels.
	Snapshot() *image.RGBA
}

// Factory creates a canvas of the given size.
type Factory func(width, height int) Canvas

// New creates a software canvas backed by gg.
func New(width, height int) Canvas {
	return NewGGCanvas(width, height)
}

// Style holds the canvas properties that are saved and restored with the
// state stack.
type Style struct {
	Fill       gg.RGBA
	Stroke     gg.RGBA
	LineWidth  float64
	LineCap    gg.LineCap
	LineJoin   gg.LineJoin
	MiterLimit float64
	Dash       []float64
	DashOffset float64
	FillRule   gg.FillRule

	// Alpha scales the opacity of everything drawn (globalAlpha).
	Alpha     float64
	Composite CompositeOp

	ImageSmoothing bool

	// Text and shadow properties are kept as state only; no drawing
	// operation consumes them yet.
	Font          string
	TextAlign     string
	TextBaseline  string
	ShadowBlur    float64
	ShadowColor   gg.RGBA
	ShadowOffsetX float64
	ShadowOffsetY float64
}

// DefaultStyle returns the initial style of a new canvas.
func DefaultStyle() Style {
	return Style{
		Fill:           gg.Black,
		Stroke:         gg.Black,
		LineWidth:      1,
		LineCap:        gg.LineCapButt,
		LineJoin:       gg.LineJoinMiter,
		MiterLimit:     10,
		FillRule:       gg.FillRuleNonZero,
		Alpha:          1,
		Composite:      CompositeSourceOver,
		ImageSmoothing: true,
		Font:           "10px sans-serif",
		TextAlign:      "start",
		TextBaseline:   "alphabetic",
		ShadowColor:    gg.Transparent,
	}
}

// clone returns a copy that does not share the dash slice.
func (s Style) clone() Style {
	if s.Dash != nil {
		s.Dash = append([]float64(nil), s.Dash...)
	}
	return s
}
