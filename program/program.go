// Package program provides the default layer rendering program.
//
// The program is registered as builtin:default. It reads each feature's
// style and params properties and draws:
//
//   - polygons filled and stroked, or covered by params.image;
//   - lines stroked;
//   - points as squares of params.size pixels.
//
// A style.halo object ({"width": 4, "color": "#fff"}) strokes a wider
// outline below the feature through a texture.
package program

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"

	"github.com/gogpu/ggmap/painter"
	"github.com/gogpu/ggmap/worker"
)

// Name is the builtin program name of Default.
const Name = "default"

// URL is the program URL of Default.
const URL = "builtin:" + Name

// DefaultPointSize is the side of a point square in pixels.
const DefaultPointSize = 6.0

// checkEvery is how many features are drawn between cancellation checks.
const checkEvery = 64

func init() {
	worker.RegisterProgram(Name, Default{})
}

// Default draws features in pixel space using the frame transform.
type Default struct{}

// Render implements worker.Program.
func (Default) Render(ctx context.Context, f *worker.Frame) (painter.Batch, error) {
	m := f.Transform
	toPixel := func(p orb.Point) orb.Point {
		q := project.WGS84.ToMercator(p)
		return orb.Point{m[0]*q[0] + m[2]*q[1] + m[4], m[1]*q[0] + m[3]*q[1] + m[5]}
	}
	visible := orb.Bound{Min: orb.Point{f.Extent[0], f.Extent[1]}, Max: orb.Point{f.Extent[2], f.Extent[3]}}
	cull := f.Extent != [4]float64{}

	batch := painter.Batch{painter.TransformCommand{Matrix: [6]float64{1, 0, 0, 1, 0, 0}}}
	for i, feat := range f.Features {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if feat == nil || feat.Geometry == nil {
			continue
		}
		if cull && !feat.Geometry.Bound().Intersects(visible) {
			continue
		}
		g := project.Geometry(orb.Clone(feat.Geometry), toPixel)
		batch = appendFeature(batch, feat, g)
	}
	return batch, nil
}

func appendFeature(batch painter.Batch, feat *geojson.Feature, g orb.Geometry) painter.Batch {
	style := props(feat.Properties, "style")
	params := props(feat.Properties, "params")

	batch = append(batch, painter.SaveCommand{})
	if halo, ok := style["halo"].(map[string]any); ok {
		batch = appendHalo(batch, fmt.Sprintf("halo:%v", feat.ID), halo, g)
	}
	batch = appendStyle(batch, style)

	switch g := g.(type) {
	case orb.Polygon:
		batch = appendPolygon(batch, g, style, params)
	case orb.MultiPolygon:
		for _, p := range g {
			batch = appendPolygon(batch, p, style, params)
		}
	case orb.Ring:
		batch = appendPolygon(batch, orb.Polygon{g}, style, params)
	case orb.LineString:
		batch = append(batch, painter.LineCommand{Coords: g})
	case orb.MultiLineString:
		for _, ls := range g {
			batch = append(batch, painter.LineCommand{Coords: ls})
		}
	case orb.Point:
		batch = appendPoint(batch, g, params)
	case orb.MultiPoint:
		for _, p := range g {
			batch = appendPoint(batch, p, params)
		}
	}
	return append(batch, painter.RestoreCommand{})
}

// appendStyle emits the style properties in key order. The halo object is
// not a canvas property.
func appendStyle(batch painter.Batch, style map[string]any) painter.Batch {
	keys := make([]string, 0, len(style))
	for k := range style {
		if k != "halo" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		batch = append(batch, painter.SetCommand{Prop: k, Value: style[k]})
	}
	return batch
}

func appendPolygon(batch painter.Batch, p orb.Polygon, style, params map[string]any) painter.Batch {
	if name, ok := params["image"].(string); ok && name != "" {
		opts := painter.ImageOptions{
			Image:    name,
			Adjust:   painter.AdjustFit,
			Clip:     boolValue(params["clip"]),
			Rotation: floatValue(params["rotation"], 0),
		}
		if a, ok := params["adjust"].(string); ok {
			opts.Adjust = painter.Adjust(a)
		}
		return append(batch, painter.ImageCommand{
			Rings:   p,
			Extent:  painter.ExtentFromBound(p.Bound()),
			Options: opts,
		})
	}

	ends := []painter.PolygonEnd{painter.EndClosePath}
	if _, ok := style["fillStyle"]; ok {
		ends = append(ends, painter.EndFill)
	}
	ends = append(ends, painter.EndStroke)
	return append(batch, painter.PolygonCommand{Rings: p, Ends: ends})
}

func appendPoint(batch painter.Batch, p orb.Point, params map[string]any) painter.Batch {
	h := floatValue(params["size"], DefaultPointSize) / 2
	square := orb.Polygon{{
		{p[0] - h, p[1] - h}, {p[0] + h, p[1] - h},
		{p[0] + h, p[1] + h}, {p[0] - h, p[1] + h},
	}}
	return append(batch, painter.PolygonCommand{
		Rings: square,
		Ends:  []painter.PolygonEnd{painter.EndClosePath, painter.EndFill, painter.EndStroke},
	})
}

// appendHalo strokes the outline of g on a texture and composites it, so
// the feature drawn next sits on top of it.
func appendHalo(batch painter.Batch, id string, halo map[string]any, g orb.Geometry) painter.Batch {
	color, _ := halo["color"].(string)
	if color == "" {
		color = "#ffffff"
	}
	batch = append(batch,
		painter.StartTextureCommand{ID: id},
		painter.SetCommand{Prop: "strokeStyle", Value: color},
		painter.SetCommand{Prop: "lineWidth", Value: floatValue(halo["width"], 4)},
		painter.SetCommand{Prop: "lineJoin", Value: "round"},
		painter.SetCommand{Prop: "lineCap", Value: "round"},
	)
	for _, ls := range outlines(g) {
		batch = append(batch, painter.LineCommand{Coords: ls})
	}
	return append(batch, painter.EndTextureCommand{}, painter.ApplyTextureCommand{ID: id})
}

// outlines returns the lines tracing g. Points have no outline.
func outlines(g orb.Geometry) []orb.LineString {
	var out []orb.LineString
	switch g := g.(type) {
	case orb.LineString:
		out = append(out, g)
	case orb.MultiLineString:
		out = append(out, g...)
	case orb.Ring:
		out = append(out, closed(g))
	case orb.Polygon:
		for _, r := range g {
			out = append(out, closed(r))
		}
	case orb.MultiPolygon:
		for _, p := range g {
			for _, r := range p {
				out = append(out, closed(r))
			}
		}
	}
	return out
}

func closed(r orb.Ring) orb.LineString {
	ls := orb.LineString(r)
	if len(r) > 1 && !r.Closed() {
		ls = append(append(orb.LineString(nil), r...), r[0])
	}
	return ls
}

func props(p geojson.Properties, key string) map[string]any {
	switch m := p[key].(type) {
	case map[string]any:
		return m
	case geojson.Properties:
		return m
	}
	return nil
}

func floatValue(v any, def float64) float64 {
	switch n := v.(type) {
	case float64:
		if !math.IsNaN(n) && !math.IsInf(n, 0) {
			return n
		}
	case int:
		return float64(n)
	}
	return def
}

func boolValue(v any) bool {
	b, _ := v.(bool)
	return b
}
