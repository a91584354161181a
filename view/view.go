// Package view maps a projected extent onto a pixel surface.
//
// A View holds the surface size and the visible extent in Web Mercator
// coordinates. Its transform maps projected coordinates to pixels with the
// y axis pointing down, scaled uniformly so the whole extent fits.
package view

import (
	"math"
	"sync"

	"github.com/gogpu/gg"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// World is the WGS84 extent a Web Mercator map can show.
var World = orb.Bound{
	Min: orb.Point{-180, -85.0511287798},
	Max: orb.Point{180, 85.0511287798},
}

// View is the visible part of a map. It is safe for concurrent use.
type View struct {
	mu        sync.RWMutex
	width     int
	height    int
	extent    orb.Bound
	transform gg.Matrix

	lmu       sync.Mutex
	listeners map[int]func()
	nextID    int
}

// New creates a view of width x height pixels showing the projected extent.
func New(width, height int, extent orb.Bound) *View {
	v := &View{
		width:     max(width, 1),
		height:    max(height, 1),
		extent:    extent,
		listeners: make(map[int]func()),
	}
	v.updateTransform()
	return v
}

// Project converts a WGS84 bound to Web Mercator.
func Project(b orb.Bound) orb.Bound {
	return project.Bound(b, project.WGS84.ToMercator)
}

// Size returns the surface size in pixels.
func (v *View) Size() (width, height int) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.width, v.height
}

// Transform returns the projected-to-pixel transform.
func (v *View) Transform() gg.Matrix {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.transform
}

// Extent returns the projected extent.
func (v *View) Extent() orb.Bound {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.extent
}

// SetExtent shows the projected extent e. The extent is grown along one
// axis to match the aspect ratio of the surface, keeping its centre.
func (v *View) SetExtent(e orb.Bound) {
	v.mu.Lock()
	w, h := float64(v.width), float64(v.height)
	ew, eh := math.Abs(e.Max[0]-e.Min[0]), math.Abs(e.Max[1]-e.Min[1])
	if ew > 0 && eh > 0 {
		sx, sy := w/ew, h/eh
		c := e.Center()
		if sx < sy {
			half := h / sx / 2
			e.Min[1], e.Max[1] = c[1]-half, c[1]+half
		} else {
			half := w / sy / 2
			e.Min[0], e.Max[0] = c[0]-half, c[0]+half
		}
	}
	v.extent = e
	v.updateTransform()
	v.mu.Unlock()
	v.notify()
}

// Resize changes the surface size. The extent is kept.
func (v *View) Resize(width, height int) {
	v.mu.Lock()
	v.width, v.height = max(width, 1), max(height, 1)
	v.updateTransform()
	v.mu.Unlock()
	v.notify()
}

// updateTransform is called with mu held.
func (v *View) updateTransform() {
	w, h := float64(v.width), float64(v.height)
	ew, eh := math.Abs(v.extent.Max[0]-v.extent.Min[0]), math.Abs(v.extent.Max[1]-v.extent.Min[1])
	if ew == 0 || eh == 0 {
		v.transform = gg.Identity()
		return
	}
	s := min(w/ew, h/eh)
	c := v.extent.Center()
	v.transform = gg.Matrix{
		A: s, B: 0, C: w/2 - s*c[0],
		D: 0, E: -s, F: h/2 + s*c[1],
	}
}

// GeoExtent returns the visible extent in WGS84 as minLon, minLat,
// maxLon, maxLat, bounded by World.
func (v *View) GeoExtent() [4]float64 {
	v.mu.RLock()
	e := v.extent
	v.mu.RUnlock()

	w := Project(World)
	e.Min[0], e.Min[1] = max(e.Min[0], w.Min[0]), max(e.Min[1], w.Min[1])
	e.Max[0], e.Max[1] = min(e.Max[0], w.Max[0]), min(e.Max[1], w.Max[1])
	lo := project.Mercator.ToWGS84(e.Min)
	hi := project.Mercator.ToWGS84(e.Max)
	return [4]float64{lo[0], lo[1], hi[0], hi[1]}
}

// ToPixel maps a projected point to pixels.
func (v *View) ToPixel(p orb.Point) orb.Point {
	q := v.Transform().TransformPoint(gg.Pt(p[0], p[1]))
	return orb.Point{q.X, q.Y}
}

// FromPixel maps a pixel to a projected point.
func (v *View) FromPixel(x, y float64) orb.Point {
	q := v.Transform().Invert().TransformPoint(gg.Pt(x, y))
	return orb.Point{q.X, q.Y}
}

// CoordinateToPixel maps a WGS84 coordinate to pixels.
func (v *View) CoordinateToPixel(c orb.Point) orb.Point {
	return v.ToPixel(project.WGS84.ToMercator(c))
}

// PixelToCoordinate maps a pixel to a WGS84 coordinate.
func (v *View) PixelToCoordinate(x, y float64) orb.Point {
	return project.Mercator.ToWGS84(v.FromPixel(x, y))
}

// OnChange registers fn to run after every extent or size change and
// returns a function that removes it.
func (v *View) OnChange(fn func()) (unsubscribe func()) {
	v.lmu.Lock()
	defer v.lmu.Unlock()
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	return func() {
		v.lmu.Lock()
		defer v.lmu.Unlock()
		delete(v.listeners, id)
	}
}

func (v *View) notify() {
	v.lmu.Lock()
	fns := make([]func(), 0, len(v.listeners))
	for id := 0; id < v.nextID; id++ {
		if fn, ok := v.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	v.lmu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
