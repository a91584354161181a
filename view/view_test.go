package view

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

const eps = 1e-6

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestTransformMapsExtentToSurface(t *testing.T) {
	v := New(200, 100, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{20, 10}})

	tests := []struct {
		name string
		in   orb.Point
		want orb.Point
	}{
		{"bottom-left", orb.Point{0, 0}, orb.Point{0, 100}},
		{"top-right", orb.Point{20, 10}, orb.Point{200, 0}},
		{"centre", orb.Point{10, 5}, orb.Point{100, 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.ToPixel(tt.in)
			if !near(got[0], tt.want[0]) || !near(got[1], tt.want[1]) {
				t.Errorf("ToPixel(%v) = %v, want %v", tt.in, got, tt.want)
			}
			back := v.FromPixel(got[0], got[1])
			if !near(back[0], tt.in[0]) || !near(back[1], tt.in[1]) {
				t.Errorf("FromPixel round trip = %v, want %v", back, tt.in)
			}
		})
	}
}

func TestSetExtentFitsAspect(t *testing.T) {
	tests := []struct {
		name string
		in   orb.Bound
		want orb.Bound
	}{
		{
			name: "too wide grows height",
			in:   orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{40, 10}},
			want: orb.Bound{Min: orb.Point{0, -5}, Max: orb.Point{40, 15}},
		},
		{
			name: "too tall grows width",
			in:   orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}},
			want: orb.Bound{Min: orb.Point{-5, 0}, Max: orb.Point{15, 10}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(200, 100, orb.Bound{Max: orb.Point{1, 1}})
			v.SetExtent(tt.in)
			got := v.Extent()
			if !near(got.Min[0], tt.want.Min[0]) || !near(got.Min[1], tt.want.Min[1]) ||
				!near(got.Max[0], tt.want.Max[0]) || !near(got.Max[1], tt.want.Max[1]) {
				t.Errorf("Extent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOnChange(t *testing.T) {
	v := New(10, 10, orb.Bound{Max: orb.Point{1, 1}})
	calls := 0
	unsubscribe := v.OnChange(func() { calls++ })

	v.Resize(20, 20)
	v.SetExtent(orb.Bound{Max: orb.Point{2, 2}})
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if w, h := v.Size(); w != 20 || h != 20 {
		t.Errorf("Size() = %d, %d, want 20, 20", w, h)
	}

	unsubscribe()
	v.Resize(30, 30)
	if calls != 2 {
		t.Errorf("calls after unsubscribe = %d, want 2", calls)
	}
}

func TestGeoExtentBoundedByWorld(t *testing.T) {
	whole := Project(World)
	v := New(100, 100, whole.Pad(1e7))

	got := v.GeoExtent()
	want := [4]float64{World.Min[0], World.Min[1], World.Max[0], World.Max[1]}
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-3 {
			t.Fatalf("GeoExtent() = %v, want %v", got, want)
		}
	}
}

func TestCoordinateRoundTrip(t *testing.T) {
	v := New(256, 256, Project(World))
	c := orb.Point{4.35, 50.85}
	px := v.CoordinateToPixel(c)
	back := v.PixelToCoordinate(px[0], px[1])
	if math.Abs(back[0]-c[0]) > 1e-6 || math.Abs(back[1]-c[1]) > 1e-6 {
		t.Errorf("round trip = %v, want %v", back, c)
	}
	// The origin of the projection is the centre of a world view.
	if o := v.CoordinateToPixel(orb.Point{0, 0}); !near(o[0], 128) || !near(o[1], 128) {
		t.Errorf("origin = %v, want (128, 128)", o)
	}
}
