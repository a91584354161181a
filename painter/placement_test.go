package painter

import "testing"

func TestPlaceFit(t *testing.T) {
	r := Place(AdjustFit, Extent{0, 0, 100, 100}, 200, 100)
	want := Rect{X: 0, Y: 25, W: 100, H: 50}
	if r != want {
		t.Errorf("Place(fit) = %+v, want %+v", r, want)
	}
}

func TestPlaceFitTall(t *testing.T) {
	r := Place(AdjustFit, Extent{10, 10, 110, 110}, 50, 100)
	want := Rect{X: 35, Y: 10, W: 50, H: 100}
	if r != want {
		t.Errorf("Place(fit) = %+v, want %+v", r, want)
	}
}

func TestPlaceCover(t *testing.T) {
	r := Place(AdjustCover, Extent{0, 0, 100, 100}, 200, 100)
	want := Rect{X: -50, Y: 0, W: 200, H: 100}
	if r != want {
		t.Errorf("Place(cover) = %+v, want %+v", r, want)
	}
	// The overflow is symmetric.
	if left, right := -r.X, r.X+r.W-100; left != right {
		t.Errorf("overflow left %v, right %v", left, right)
	}
}

func TestPlaceCoverTall(t *testing.T) {
	r := Place(AdjustCover, Extent{0, 0, 100, 100}, 100, 400)
	want := Rect{X: 0, Y: -150, W: 100, H: 400}
	if r != want {
		t.Errorf("Place(cover) = %+v, want %+v", r, want)
	}
}

func TestPlaceNone(t *testing.T) {
	r := Place(AdjustNone, Extent{100, 50, 0, 0}, 200, 100)
	want := Rect{X: 0, Y: 0, W: 100, H: 50}
	if r != want {
		t.Errorf("Place(none) = %+v, want %+v", r, want)
	}
}

func TestPlaceUnknownKeepsNaturalSize(t *testing.T) {
	r := Place("", Extent{5, 5, 100, 100}, 30, 20)
	want := Rect{X: 5, Y: 5, W: 30, H: 20}
	if r != want {
		t.Errorf("Place(\"\") = %+v, want %+v", r, want)
	}
}

func TestSizeBucket(t *testing.T) {
	tests := []struct {
		size float64
		want int
	}{
		{0, 4},
		{3.2, 4},
		{4, 4},
		{4.01, 8},
		{100, 128},
		{128, 128},
		{513, 1024},
		{1024, 1024},
		{5000, 1024},
	}
	for _, tt := range tests {
		if got := SizeBucket(tt.size); got != tt.want {
			t.Errorf("SizeBucket(%v) = %d, want %d", tt.size, got, tt.want)
		}
	}
}
