// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"image"
	"math"

	"github.com/gogpu/gg"
)

// Verb identifies one path construction step.
type Verb uint8

const (
	// VerbMoveTo starts a new subpath.
	VerbMoveTo Verb = iota

	// VerbLineTo adds a straight segment.
	VerbLineTo

	// VerbQuadTo adds a quadratic Bezier segment (1 control point).
	VerbQuadTo

	// VerbCubicTo adds a cubic Bezier segment (2 control points).
	VerbCubicTo

	// VerbClose closes the current subpath.
	VerbClose
)

// Path is a path in device space.
//
// Canvas transforms every point with the current transformation matrix when
// it is added, the same way an HTML canvas does, so a Path can be replayed
// later under an identity transform regardless of what happened to the
// canvas transform in between.
type Path struct {
	verbs  []Verb
	points []gg.Point
	start  gg.Point
	cur    gg.Point
}

// NewPath creates a new empty path.
func NewPath() *Path {
	return &Path{
		verbs:  make([]Verb, 0, 16),
		points: make([]gg.Point, 0, 32),
	}
}

// MoveTo starts a new subpath at the given point.
func (p *Path) MoveTo(x, y float64) {
	pt := gg.Pt(x, y)
	p.verbs = append(p.verbs, VerbMoveTo)
	p.points = append(p.points, pt)
	p.start, p.cur = pt, pt
}

// LineTo adds a line from the current point to (x, y).
// A LineTo on an empty path behaves like MoveTo.
func (p *Path) LineTo(x, y float64) {
	if len(p.verbs) == 0 {
		p.MoveTo(x, y)
		return
	}
	pt := gg.Pt(x, y)
	p.verbs = append(p.verbs, VerbLineTo)
	p.points = append(p.points, pt)
	p.cur = pt
}

// QuadTo adds a quadratic Bezier curve from the current point.
func (p *Path) QuadTo(cx, cy, x, y float64) {
	if len(p.verbs) == 0 {
		p.MoveTo(cx, cy)
	}
	pt := gg.Pt(x, y)
	p.verbs = append(p.verbs, VerbQuadTo)
	p.points = append(p.points, gg.Pt(cx, cy), pt)
	p.cur = pt
}

// CubicTo adds a cubic Bezier curve from the current point.
func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	if len(p.verbs) == 0 {
		p.MoveTo(c1x, c1y)
	}
	pt := gg.Pt(x, y)
	p.verbs = append(p.verbs, VerbCubicTo)
	p.points = append(p.points, gg.Pt(c1x, c1y), gg.Pt(c2x, c2y), pt)
	p.cur = pt
}

// Close closes the current subpath by connecting to its start point.
func (p *Path) Close() {
	if len(p.verbs) == 0 {
		return
	}
	p.verbs = append(p.verbs, VerbClose)
	p.cur = p.start
}

// Clear removes all elements from the path.
func (p *Path) Clear() {
	p.verbs = p.verbs[:0]
	p.points = p.points[:0]
	p.start, p.cur = gg.Point{}, gg.Point{}
}

// IsEmpty reports whether the path has no elements.
func (p *Path) IsEmpty() bool {
	return len(p.verbs) == 0
}

// Verbs returns the verb slice.
func (p *Path) Verbs() []Verb {
	return p.verbs
}

// Points returns the point slice. Curves contribute their control points.
func (p *Path) Points() []gg.Point {
	return p.points
}

// CurrentPoint returns the current point.
func (p *Path) CurrentPoint() gg.Point {
	return p.cur
}

// Clone creates a deep copy of the path.
func (p *Path) Clone() *Path {
	clone := &Path{
		verbs:  make([]Verb, len(p.verbs)),
		points: make([]gg.Point, len(p.points)),
		start:  p.start,
		cur:    p.cur,
	}
	copy(clone.verbs, p.verbs)
	copy(clone.points, p.points)
	return clone
}

// Bounds returns the integer bounding box of all points, including control
// points, grown by pad on every side. The result is not clipped.
func (p *Path) Bounds(pad float64) image.Rectangle {
	if len(p.points) == 0 {
		return image.Rectangle{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range p.points {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	return image.Rect(
		int(math.Floor(minX-pad))-1,
		int(math.Floor(minY-pad))-1,
		int(math.Ceil(maxX+pad))+1,
		int(math.Ceil(maxY+pad))+1,
	)
}

// replay feeds the path into dc, which is expected to carry an identity
// transform.
func (p *Path) replay(dc *gg.Context) {
	dc.ClearPath()
	i := 0
	for _, v := range p.verbs {
		switch v {
		case VerbMoveTo:
			dc.MoveTo(p.points[i].X, p.points[i].Y)
			i++
		case VerbLineTo:
			dc.LineTo(p.points[i].X, p.points[i].Y)
			i++
		case VerbQuadTo:
			c, e := p.points[i], p.points[i+1]
			dc.QuadraticTo(c.X, c.Y, e.X, e.Y)
			i += 2
		case VerbCubicTo:
			c1, c2, e := p.points[i], p.points[i+1], p.points[i+2]
			dc.CubicTo(c1.X, c1.Y, c2.X, c2.Y, e.X, e.Y)
			i += 3
		case VerbClose:
			dc.ClosePath()
		}
	}
}
