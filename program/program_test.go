package program

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/gogpu/ggmap/painter"
	"github.com/gogpu/ggmap/view"
	"github.com/gogpu/ggmap/worker"
)

// worldFrame returns a 256x256 frame showing the whole world.
func worldFrame(features ...*geojson.Feature) *worker.Frame {
	v := view.New(256, 256, view.Project(view.World))
	m := v.Transform()
	return &worker.Frame{
		ID:        "l.1",
		Transform: [6]float64{m.A, m.D, m.B, m.E, m.C, m.F},
		Extent:    v.GeoExtent(),
		Features:  features,
	}
}

func feature(g orb.Geometry, style, params map[string]any) *geojson.Feature {
	f := geojson.NewFeature(g)
	f.ID = "f"
	if style != nil {
		f.Properties["style"] = style
	}
	if params != nil {
		f.Properties["params"] = params
	}
	return f
}

func count[T painter.Command](b painter.Batch) int {
	n := 0
	for _, c := range b {
		if _, ok := c.(T); ok {
			n++
		}
	}
	return n
}

func render(t *testing.T, f *worker.Frame) painter.Batch {
	t.Helper()
	b, err := Default{}.Render(context.Background(), f)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if _, ok := b[0].(painter.TransformCommand); !ok {
		t.Fatalf("first command = %T, want TransformCommand", b[0])
	}
	return b
}

func TestPointSquare(t *testing.T) {
	b := render(t, worldFrame(feature(orb.Point{0, 0}, map[string]any{"fillStyle": "red"}, map[string]any{"size": 10.0})))

	var poly painter.PolygonCommand
	found := false
	for _, c := range b {
		if p, ok := c.(painter.PolygonCommand); ok {
			poly, found = p, true
		}
	}
	if !found {
		t.Fatal("no polygon for point")
	}
	bound := poly.Rings.Bound()
	want := orb.Bound{Min: orb.Point{123, 123}, Max: orb.Point{133, 133}}
	for i := 0; i < 2; i++ {
		if math.Abs(bound.Min[i]-want.Min[i]) > 1e-6 || math.Abs(bound.Max[i]-want.Max[i]) > 1e-6 {
			t.Fatalf("square = %v, want %v", bound, want)
		}
	}
	if count[painter.SetCommand](b) != 1 {
		t.Errorf("set commands = %d, want 1", count[painter.SetCommand](b))
	}
	if count[painter.SaveCommand](b) != count[painter.RestoreCommand](b) {
		t.Error("unbalanced save/restore")
	}
}

func TestGeometryKinds(t *testing.T) {
	square := orb.Polygon{{{-10, -10}, {10, -10}, {10, 10}, {-10, 10}, {-10, -10}}}
	tests := []struct {
		name     string
		feat     *geojson.Feature
		polygons int
		lines    int
		images   int
		textures int
	}{
		{"polygon", feature(square, map[string]any{"fillStyle": "#eee"}, nil), 1, 0, 0, 0},
		{"line", feature(orb.LineString{{0, 0}, {10, 10}}, nil, nil), 0, 1, 0, 0},
		{"multi line", feature(orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}, {3, 3}}}, nil, nil), 0, 2, 0, 0},
		{"image", feature(square, nil, map[string]any{"image": "forest", "adjust": "cover"}), 0, 0, 1, 0},
		{"halo", feature(orb.LineString{{0, 0}, {10, 10}}, map[string]any{"halo": map[string]any{"width": 6.0}}, nil), 0, 2, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := render(t, worldFrame(tt.feat))
			if got := count[painter.PolygonCommand](b); got != tt.polygons {
				t.Errorf("polygons = %d, want %d", got, tt.polygons)
			}
			if got := count[painter.LineCommand](b); got != tt.lines {
				t.Errorf("lines = %d, want %d", got, tt.lines)
			}
			if got := count[painter.ImageCommand](b); got != tt.images {
				t.Errorf("images = %d, want %d", got, tt.images)
			}
			if got := count[painter.StartTextureCommand](b); got != tt.textures {
				t.Errorf("textures = %d, want %d", got, tt.textures)
			}
			if got := count[painter.ApplyTextureCommand](b); got != tt.textures {
				t.Errorf("applied textures = %d, want %d", got, tt.textures)
			}
		})
	}
}

func TestImageOptions(t *testing.T) {
	square := orb.Polygon{{{-10, -10}, {10, -10}, {10, 10}, {-10, 10}, {-10, -10}}}
	b := render(t, worldFrame(feature(square, nil, map[string]any{"image": "forest", "clip": true, "rotation": 45.0})))
	for _, c := range b {
		img, ok := c.(painter.ImageCommand)
		if !ok {
			continue
		}
		want := painter.ImageOptions{Image: "forest", Adjust: painter.AdjustFit, Clip: true, Rotation: 45}
		if img.Options != want {
			t.Errorf("options = %+v, want %+v", img.Options, want)
		}
		if img.Extent.Width() <= 0 || img.Extent.Height() <= 0 {
			t.Errorf("empty extent %v", img.Extent)
		}
		return
	}
	t.Fatal("no image command")
}

func TestCullsOutsideExtent(t *testing.T) {
	f := worldFrame(feature(orb.Point{10, 10}, nil, nil))
	f.Extent = [4]float64{-5, -5, 5, 5}
	b := render(t, f)
	if len(b) != 1 {
		t.Errorf("batch = %d commands, want only the transform", len(b))
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Default{}.Render(ctx, worldFrame(feature(orb.Point{0, 0}, nil, nil)))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRegistered(t *testing.T) {
	found := false
	for _, name := range worker.Programs() {
		if name == Name {
			found = true
		}
	}
	if !found {
		t.Errorf("%s not registered: %v", Name, worker.Programs())
	}
}
