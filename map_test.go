package ggmap

import (
	"context"
	"errors"
	"image/color"
	"slices"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/gogpu/ggmap/source"
	"github.com/gogpu/ggmap/view"
)

// area returns a layer with one polygon covering most of the world.
func area(id, fill string) *source.Source {
	f := geojson.NewFeature(orb.Polygon{{{-120, -60}, {120, -60}, {120, 60}, {-120, 60}, {-120, -60}}})
	f.ID = id + "-area"
	return source.New(source.Layer{
		ID:    id,
		Style: map[string]any{"fillStyle": fill},
	}, f)
}

func waitMap(t *testing.T, m *Map) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	if err := m.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestMapRendersWithDefaultProgram(t *testing.T) {
	v := view.New(64, 64, view.Project(view.World))
	m := NewMap(v)
	defer m.Close()

	if _, err := m.AddLayer(context.Background(), area("land", "#00ff00")); err != nil {
		t.Fatalf("AddLayer: %v", err)
	}
	waitMap(t, m)

	img := m.Snapshot()
	if got := img.RGBAAt(32, 32); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("centre = %v, want green", got)
	}
	if got := img.RGBAAt(1, 1); got.A != 0 {
		t.Errorf("corner = %v, want transparent", got)
	}
}

func TestMapLayersAndVisibility(t *testing.T) {
	v := view.New(64, 64, view.Project(view.World))
	m := NewMap(v)
	defer m.Close()

	ctx := context.Background()
	for _, l := range []struct{ id, fill string }{{"a", "#ff0000"}, {"b", "#0000ff"}} {
		if _, err := m.AddLayer(ctx, area(l.id, l.fill)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := m.AddLayer(ctx, area("a", "#fff")); !errors.Is(err, ErrLayerExists) {
		t.Errorf("duplicate AddLayer err = %v, want ErrLayerExists", err)
	}
	if got := m.Layers(); !slices.Equal(got, []string{"b", "a"}) {
		t.Errorf("Layers() = %v, want [b a]", got)
	}
	waitMap(t, m)

	// b is on top.
	if got := m.Snapshot().RGBAAt(32, 32); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("centre = %v, want blue", got)
	}

	m.SetVisibility([]string{"a"})
	waitMap(t, m)
	if m.Layer("b").IsVisible() {
		t.Error("b still visible")
	}
	if got := m.Layers(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Layers() = %v, want [a b]", got)
	}
	if got := m.Snapshot().RGBAAt(32, 32); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("centre = %v, want red", got)
	}

	m.RemoveLayer("a")
	if m.Layer("a") != nil || len(m.Layers()) != 1 {
		t.Errorf("after RemoveLayer: %v", m.Layers())
	}
}

func TestMapRerendersOnViewChange(t *testing.T) {
	v := view.New(64, 64, view.Project(view.World))
	m := NewMap(v)
	defer m.Close()

	if _, err := m.AddLayer(context.Background(), area("land", "#00ff00")); err != nil {
		t.Fatal(err)
	}
	waitMap(t, m)

	// Zoom far outside the polygon: the centre becomes empty.
	v.SetExtent(view.Project(orb.Bound{Min: orb.Point{170, 70}, Max: orb.Point{175, 75}}))
	waitMap(t, m)
	if got := m.Snapshot().RGBAAt(32, 32); got.A != 0 {
		t.Errorf("centre = %v, want transparent", got)
	}
}

func TestMapClose(t *testing.T) {
	v := view.New(16, 16, view.Project(view.World))
	m := NewMap(v, WithAckTimeout(time.Second))
	r, err := m.AddLayer(context.Background(), area("x", "#000"))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	select {
	case <-r.Done():
	default:
		t.Error("renderer still running after Close")
	}
	if len(m.Layers()) != 0 {
		t.Errorf("layers after Close: %v", m.Layers())
	}
}
