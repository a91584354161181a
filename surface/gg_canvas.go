// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"image"
	"math"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// GGCanvas is a software Canvas.
//
// Paths are rasterized by a gg.Context used as a transparent scratch buffer
// with an identity transform; the result is then composited onto the
// canvas pixels with the current clip, alpha and composite operation. Only
// the bounding box of each operation is touched.
//
// Example:
//
//	c := surface.NewGGCanvas(256, 256)
//	c.Style().Fill = gg.Red
//	c.MoveTo(10, 10)
//	c.LineTo(100, 10)
//	c.LineTo(50, 80)
//	c.ClosePath()
//	c.Fill()
//	img := c.Snapshot()
type GGCanvas struct {
	width  int
	height int
	pix    *image.RGBA

	scratch    *gg.Context
	imgScratch *image.RGBA

	matrix gg.Matrix
	style  Style
	clip   []uint8
	path   *Path
	stack  []canvasState
}

type canvasState struct {
	matrix gg.Matrix
	style  Style
	clip   []uint8
}

// Ensure GGCanvas implements Canvas.
var _ Canvas = (*GGCanvas)(nil)

// NewGGCanvas creates a transparent software canvas.
// Non-positive dimensions are raised to 1.
func NewGGCanvas(width, height int) *GGCanvas {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return &GGCanvas{
		width:   width,
		height:  height,
		pix:     image.NewRGBA(image.Rect(0, 0, width, height)),
		scratch: gg.NewContext(width, height),
		matrix:  gg.Identity(),
		style:   DefaultStyle(),
		path:    NewPath(),
	}
}

// Width returns the canvas width.
func (c *GGCanvas) Width() int { return c.width }

// Height returns the canvas height.
func (c *GGCanvas) Height() int { return c.height }

// Save pushes the current state.
func (c *GGCanvas) Save() {
	c.stack = append(c.stack, canvasState{
		matrix: c.matrix,
		style:  c.style.clone(),
		clip:   c.clip,
	})
}

// Restore pops the last saved state.
func (c *GGCanvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	st := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.matrix = st.matrix
	c.style = st.style
	c.clip = st.clip
}

// Reset returns the canvas state to its initial values.
func (c *GGCanvas) Reset() {
	c.stack = c.stack[:0]
	c.matrix = gg.Identity()
	c.style = DefaultStyle()
	c.clip = nil
	c.path.Clear()
}

// Transform returns the current transform.
func (c *GGCanvas) Transform() gg.Matrix { return c.matrix }

// SetTransform replaces the current transform.
func (c *GGCanvas) SetTransform(m gg.Matrix) { c.matrix = m }

// Translate post-multiplies the transform with a translation.
func (c *GGCanvas) Translate(x, y float64) {
	c.matrix = c.matrix.Multiply(gg.Translate(x, y))
}

// Rotate post-multiplies the transform with a rotation.
func (c *GGCanvas) Rotate(angle float64) {
	c.matrix = c.matrix.Multiply(gg.Rotate(angle))
}

// Style returns the mutable current style.
func (c *GGCanvas) Style() *Style { return &c.style }

// BeginPath discards the current path.
func (c *GGCanvas) BeginPath() { c.path.Clear() }

// MoveTo starts a subpath.
func (c *GGCanvas) MoveTo(x, y float64) {
	p := c.matrix.TransformPoint(gg.Pt(x, y))
	c.path.MoveTo(p.X, p.Y)
}

// LineTo adds a line segment.
func (c *GGCanvas) LineTo(x, y float64) {
	p := c.matrix.TransformPoint(gg.Pt(x, y))
	c.path.LineTo(p.X, p.Y)
}

// QuadraticCurveTo adds a quadratic Bezier segment.
func (c *GGCanvas) QuadraticCurveTo(cx, cy, x, y float64) {
	cp := c.matrix.TransformPoint(gg.Pt(cx, cy))
	p := c.matrix.TransformPoint(gg.Pt(x, y))
	c.path.QuadTo(cp.X, cp.Y, p.X, p.Y)
}

// BezierCurveTo adds a cubic Bezier segment.
func (c *GGCanvas) BezierCurveTo(c1x, c1y, c2x, c2y, x, y float64) {
	cp1 := c.matrix.TransformPoint(gg.Pt(c1x, c1y))
	cp2 := c.matrix.TransformPoint(gg.Pt(c2x, c2y))
	p := c.matrix.TransformPoint(gg.Pt(x, y))
	c.path.CubicTo(cp1.X, cp1.Y, cp2.X, cp2.Y, p.X, p.Y)
}

// ClosePath closes the current subpath.
func (c *GGCanvas) ClosePath() { c.path.Close() }

// Fill fills the current path.
func (c *GGCanvas) Fill() {
	if c.path.IsEmpty() {
		return
	}
	dc := c.scratch
	dc.SetFillRule(c.style.FillRule)
	dc.SetFillBrush(gg.Solid(c.style.Fill))
	c.path.replay(dc)
	if err := dc.Fill(); err != nil {
		Logger().Debug("surface: fill failed", "err", err)
	}
	c.flushScratch(c.path.Bounds(0))
}

// Stroke strokes the current path. Line width and dashes are scaled by
// the current transform.
func (c *GGCanvas) Stroke() {
	if c.path.IsEmpty() {
		return
	}
	scale := scaleFactor(c.matrix)
	width := c.style.LineWidth * scale
	if width <= 0 {
		return
	}

	dc := c.scratch
	dc.SetLineWidth(width)
	dc.SetLineCap(c.style.LineCap)
	dc.SetLineJoin(c.style.LineJoin)
	dc.SetMiterLimit(c.style.MiterLimit)
	if len(c.style.Dash) > 0 {
		dash := make([]float64, len(c.style.Dash))
		for i, d := range c.style.Dash {
			dash[i] = d * scale
		}
		dc.SetDash(dash...)
		dc.SetDashOffset(c.style.DashOffset * scale)
	} else {
		dc.ClearDash()
	}
	dc.SetStrokeBrush(gg.Solid(c.style.Stroke))
	c.path.replay(dc)
	if err := dc.Stroke(); err != nil {
		Logger().Debug("surface: stroke failed", "err", err)
	}

	pad := width / 2
	if c.style.LineJoin == gg.LineJoinMiter {
		pad *= math.Max(1, c.style.MiterLimit)
	}
	c.flushScratch(c.path.Bounds(pad))
}

// Clip intersects the clip region with the current path.
func (c *GGCanvas) Clip() {
	n := c.width * c.height
	next := make([]uint8, n)
	if !c.path.IsEmpty() {
		dc := c.scratch
		dc.SetFillRule(c.style.FillRule)
		dc.SetFillBrush(gg.Solid(gg.White))
		c.path.replay(dc)
		if err := dc.Fill(); err != nil {
			Logger().Debug("surface: clip fill failed", "err", err)
		}

		r := c.path.Bounds(0).Intersect(c.pix.Rect)
		pm := dc.ResizeTarget()
		data := pm.Data()
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				i := y*c.width + x
				a := data[i*4+3]
				if c.clip != nil {
					a = uint8((uint32(a)*uint32(c.clip[i]) + 127) / 255)
				}
				next[i] = a
			}
		}
		clearRegion(data, c.width*4, c.pix.Rect, r)
	}
	// Saved states keep their own slice; the clip is never mutated in place.
	c.clip = next
}

// Clear makes the whole canvas transparent.
func (c *GGCanvas) Clear() {
	clear(c.pix.Pix)
}

// ClearRect makes the transformed rectangle transparent.
func (c *GGCanvas) ClearRect(x, y, w, h float64) {
	r := c.deviceRect(x, y, w, h).Intersect(c.pix.Rect)
	if r.Empty() {
		return
	}
	if c.clip == nil {
		clearRegion(c.pix.Pix, c.pix.Stride, c.pix.Rect, r)
		return
	}
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			k := 255 - uint32(c.clip[py*c.width+px])
			i := c.pix.PixOffset(px, py)
			for j := 0; j < 4; j++ {
				c.pix.Pix[i+j] = uint8((uint32(c.pix.Pix[i+j])*k + 127) / 255)
			}
		}
	}
}

// DrawImage draws img into the rectangle (x, y, w, h).
func (c *GGCanvas) DrawImage(img image.Image, x, y, w, h float64) {
	b := img.Bounds()
	if b.Empty() || w == 0 || h == 0 {
		return
	}
	m := c.matrix.
		Multiply(gg.Translate(x, y)).
		Multiply(gg.Scale(w/float64(b.Dx()), h/float64(b.Dy()))).
		Multiply(gg.Translate(float64(-b.Min.X), float64(-b.Min.Y)))

	if rgba, ok := img.(*image.RGBA); ok && isPixelTranslation(m) {
		off := image.Pt(int(m.C), int(m.F))
		r := rgba.Rect.Sub(rgba.Rect.Min).Add(off)
		c.paint(source{
			pix:    rgba.Pix,
			stride: rgba.Stride,
			origin: off,
		}, r)
		return
	}

	if c.imgScratch == nil {
		c.imgScratch = image.NewRGBA(c.pix.Rect)
	}
	var interp draw.Interpolator = draw.BiLinear
	if !c.style.ImageSmoothing {
		interp = draw.NearestNeighbor
	}
	s2d := f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}
	interp.Transform(c.imgScratch, s2d, img, b, draw.Src, nil)

	r := quadBounds(m, float64(b.Dx()), float64(b.Dy()))
	c.paint(source{pix: c.imgScratch.Pix, stride: c.imgScratch.Stride}, r)
	clearRegion(c.imgScratch.Pix, c.imgScratch.Stride, c.imgScratch.Rect, r)
}

// DrawCanvas composites src at the device origin.
func (c *GGCanvas) DrawCanvas(src Canvas) {
	img := src.Image()
	c.paint(source{pix: img.Pix, stride: img.Stride}, img.Rect)
}

// Image returns the live pixel buffer.
func (c *GGCanvas) Image() *image.RGBA { return c.pix }

// Snapshot returns a copy of the pixels.
func (c *GGCanvas) Snapshot() *image.RGBA {
	out := image.NewRGBA(c.pix.Rect)
	copy(out.Pix, c.pix.Pix)
	return out
}

// flushScratch composites the gg scratch buffer inside r and clears it.
func (c *GGCanvas) flushScratch(r image.Rectangle) {
	data := c.scratch.ResizeTarget().Data()
	c.paint(source{pix: data, stride: c.width * 4}, r)
	clearRegion(data, c.width*4, c.pix.Rect, r)
}

func (c *GGCanvas) paint(src source, r image.Rectangle) {
	composite(c.pix, src, r, c.clip, c.style.Alpha, c.style.Composite)
}

// deviceRect returns the integer bounding box of a transformed rectangle.
func (c *GGCanvas) deviceRect(x, y, w, h float64) image.Rectangle {
	m := c.matrix.Multiply(gg.Translate(x, y))
	return quadBounds(m, w, h)
}

// quadBounds returns the device bounding box of the rectangle (0, 0, w, h)
// mapped through m.
func quadBounds(m gg.Matrix, w, h float64) image.Rectangle {
	p := NewPath()
	for _, pt := range [4]gg.Point{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}} {
		q := m.TransformPoint(pt)
		p.LineTo(q.X, q.Y)
	}
	r := p.Bounds(0)
	// Bounds pads by one pixel for anti-aliasing; rectangles are exact.
	return r.Inset(1)
}

// isPixelTranslation reports whether m is an integer translation.
func isPixelTranslation(m gg.Matrix) bool {
	return m.A == 1 && m.B == 0 && m.D == 0 && m.E == 1 &&
		m.C == math.Trunc(m.C) && m.F == math.Trunc(m.F)
}
