package painter

import (
	"bytes"
	"encoding/json"
	"image/color"
	"reflect"
	"testing"

	"github.com/gogpu/gg"
	"github.com/paulmach/orb"

	"github.com/gogpu/ggmap/surface"
)

type testView struct {
	w, h int
	m    gg.Matrix
}

func (v testView) Size() (int, int)     { return v.w, v.h }
func (v testView) Transform() gg.Matrix { return v.m }

func newTestPainter(t *testing.T, opts ...Option) *Painter {
	t.Helper()
	return New(testView{w: 64, h: 64, m: gg.Identity()}, opts...)
}

func square(x, y, size float64) orb.Polygon {
	return orb.Polygon{{{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}}}
}

func decodeBatch(t *testing.T, s string) Batch {
	t.Helper()
	b, err := Decode([]byte(s))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return b
}

func TestClearUnwindsDepth(t *testing.T) {
	p := newTestPainter(t)
	p.Save()
	p.Save()
	p.Save()
	if got := p.Depth(); got != 3 {
		t.Fatalf("Depth() = %d, want 3", got)
	}

	p.Clear()
	if got := p.Depth(); got != 0 {
		t.Errorf("Depth() after Clear = %d, want 0", got)
	}

	p.Restore()
	if got := p.Depth(); got != 0 {
		t.Errorf("Depth() after Restore at zero = %d, want 0", got)
	}
}

func TestClearInsideBatch(t *testing.T) {
	p := newTestPainter(t)
	p.ProcessCommands(decodeBatch(t, `[["save"],["save"],["startTexture","t"],["clear"],["restore"]]`))

	if got := p.Depth(); got != 0 {
		t.Errorf("Depth() = %d, want 0", got)
	}
	if p.active != p.base {
		t.Error("Clear did not restore the base canvas as target")
	}
	if len(p.textures) != 0 {
		t.Errorf("textures after Clear = %d, want 0", len(p.textures))
	}
}

func TestClearState(t *testing.T) {
	m := gg.Translate(5, 7)
	p := New(testView{w: 16, h: 16, m: m})
	p.Set("fillStyle", "red")
	p.DrawPolygon(square(0, 0, 16), []PolygonEnd{EndFill})
	p.Clear()

	if got := p.base.Transform(); got != m {
		t.Errorf("transform after Clear = %v, want view transform %v", got, m)
	}
	if got := p.base.Style().Composite; got != surface.CompositeMultiply {
		t.Errorf("composite after Clear = %v, want multiply", got)
	}
	if got := p.base.Style().Fill; got != gg.Black {
		t.Errorf("fill after Clear = %v, want default", got)
	}
	if got := p.Snapshot().RGBAAt(8, 8); got.A != 0 {
		t.Errorf("pixel after Clear = %v, want transparent", got)
	}
}

const sampleBatch = `[
	["save"],
	["transform", 1, 0, 0, 1, 0, 0],
	["set", "fillStyle", "#336699"],
	["set", "strokeStyle", "rgba(200, 0, 0, 0.8)"],
	["set", "lineWidth", 3],
	["polygon", [[[4,4],[40,4],[40,30],[4,30]]], ["closePath", "fill", "stroke"]],
	["line", [[2,50],[60,40],[30,60]]],
	["startTexture", "halo"],
	["set", "strokeStyle", "white"],
	["set", "lineWidth", 6],
	["instructions", [["beginPath"],["moveTo",10,10],["quadraticCurveTo",30,0,50,20],["stroke"]]],
	["endTexture"],
	["applyTexture", "halo"],
	["restore"]
]`

func TestProcessCommandsIdempotentModuloClear(t *testing.T) {
	p := newTestPainter(t)
	batch := decodeBatch(t, sampleBatch)

	p.ProcessCommands(batch)
	first := p.Snapshot()
	if bytes.Equal(first.Pix, make([]byte, len(first.Pix))) {
		t.Fatal("batch drew nothing")
	}

	p.Clear()
	p.ProcessCommands(batch)
	second := p.Snapshot()

	if !bytes.Equal(first.Pix, second.Pix) {
		t.Error("second run after Clear differs from the first")
	}
	if got := p.Depth(); got != 0 {
		t.Errorf("Depth() = %d, want 0", got)
	}
}

func TestTextureRoundTrip(t *testing.T) {
	direct := newTestPainter(t)
	direct.ProcessCommands(decodeBatch(t, `[
		["set", "fillStyle", "rgba(40, 120, 200, 0.7)"],
		["polygon", [[[3.5,3.5],[50,10],[30,60]]], ["fill"]]
	]`))

	viaTexture := newTestPainter(t)
	viaTexture.ProcessCommands(decodeBatch(t, `[
		["startTexture", "t"],
		["set", "fillStyle", "rgba(40, 120, 200, 0.7)"],
		["polygon", [[[3.5,3.5],[50,10],[30,60]]], ["fill"]],
		["endTexture"],
		["applyTexture", "t"]
	]`))

	want, got := direct.Snapshot(), viaTexture.Snapshot()
	if !bytes.Equal(want.Pix, got.Pix) {
		t.Error("texture round trip differs from direct drawing")
	}
}

func TestStartTextureRedirects(t *testing.T) {
	p := newTestPainter(t)
	p.StartTexture("t")
	p.Set("fillStyle", "red")
	p.DrawPolygon(square(0, 0, 64), []PolygonEnd{EndFill})
	p.EndTexture()

	if got := p.Snapshot().RGBAAt(10, 10); got.A != 0 {
		t.Errorf("base pixel before applyTexture = %v, want transparent", got)
	}

	p.ApplyTexture("missing")
	if got := p.Snapshot().RGBAAt(10, 10); got.A != 0 {
		t.Errorf("unknown texture drew %v", got)
	}

	p.ApplyTexture("t")
	if got := p.Snapshot().RGBAAt(10, 10); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("base pixel after applyTexture = %v, want red", got)
	}
}

func TestClearRect(t *testing.T) {
	p := newTestPainter(t)
	p.Set("fillStyle", "blue")
	p.DrawPolygon(square(0, 0, 64), []PolygonEnd{EndFill})
	p.Save()
	p.ClearRect(Extent{10, 10, 20, 30})

	snap := p.Snapshot()
	if got := snap.RGBAAt(15, 25); got.A != 0 {
		t.Errorf("cleared pixel = %v, want transparent", got)
	}
	if got := snap.RGBAAt(25, 25); got.A != 255 {
		t.Errorf("pixel outside extent alpha = %d, want 255", got.A)
	}
	if got := p.Depth(); got != 1 {
		t.Errorf("ClearRect changed depth to %d", got)
	}
}

func TestDrawPolygonEndsOrder(t *testing.T) {
	p := newTestPainter(t)
	p.Set("fillStyle", "red")

	// The fill happens before the clip, so it is not clipped itself, but
	// everything after it is.
	p.DrawPolygon(square(0, 0, 10), []PolygonEnd{EndClosePath, EndFill, EndClip})
	p.DrawPolygon(square(0, 0, 64), []PolygonEnd{EndFill})

	snap := p.Snapshot()
	if got := snap.RGBAAt(5, 5); got.A != 255 {
		t.Errorf("pixel inside clip alpha = %d, want 255", got.A)
	}
	if got := snap.RGBAAt(30, 30); got.A != 0 {
		t.Errorf("pixel outside clip alpha = %d, want 0", got.A)
	}
}

func TestDrawPolygonDefaultEnds(t *testing.T) {
	p := newTestPainter(t)
	p.Set("strokeStyle", "black")
	p.Set("lineWidth", 2)
	p.DrawPolygon(square(10, 10, 40), nil)

	snap := p.Snapshot()
	if got := snap.RGBAAt(30, 30); got.A != 0 {
		t.Errorf("interior pixel alpha = %d, want 0 (stroke only)", got.A)
	}
	if got := snap.RGBAAt(30, 10); got.A == 0 {
		t.Error("edge pixel not stroked")
	}
	// closePath: the closing edge is stroked too.
	if got := snap.RGBAAt(10, 30); got.A == 0 {
		t.Error("closing edge not stroked")
	}
}

func TestDrawLineIsOpen(t *testing.T) {
	p := newTestPainter(t)
	p.Set("lineWidth", 2)
	p.DrawLine(orb.LineString{{10, 10}, {50, 10}, {50, 50}})

	snap := p.Snapshot()
	if got := snap.RGBAAt(30, 10); got.A == 0 {
		t.Error("first segment not stroked")
	}
	if got := snap.RGBAAt(30, 30); got.A != 0 {
		t.Errorf("line was closed: alpha at diagonal = %d", got.A)
	}
}

func TestSetTransformCommand(t *testing.T) {
	p := newTestPainter(t)
	p.SetTransform(2, 0, 0, 2, 10, 0)
	p.Set("fillStyle", "red")
	p.DrawPolygon(square(0, 0, 5), []PolygonEnd{EndFill})

	snap := p.Snapshot()
	if got := snap.RGBAAt(15, 5); got.A != 255 {
		t.Errorf("scaled pixel alpha = %d, want 255", got.A)
	}
	if got := snap.RGBAAt(5, 5); got.A != 0 {
		t.Errorf("untranslated pixel alpha = %d, want 0", got.A)
	}
}

func TestResetTransform(t *testing.T) {
	v := &mutableView{testView{w: 8, h: 8, m: gg.Identity()}}
	p := New(v)
	v.m = gg.Scale(2, 2)
	p.ResetTransform()
	if got := p.base.Transform(); !got.IsIdentity() {
		t.Errorf("ResetTransform changed the canvas transform to %v", got)
	}
	p.Clear()
	if got := p.base.Transform(); got != gg.Scale(2, 2) {
		t.Errorf("transform after Clear = %v, want view transform", got)
	}
}

type mutableView struct{ testView }

func TestClearKeepsTransformUntilReset(t *testing.T) {
	v := &mutableView{testView{w: 8, h: 8, m: gg.Identity()}}
	p := New(v)
	v.m = gg.Scale(2, 2)
	p.Clear()
	if got := p.base.Transform(); !got.IsIdentity() {
		t.Errorf("Clear picked up %v before ResetTransform", got)
	}
	p.ResetTransform()
	p.Clear()
	if got := p.base.Transform(); got != gg.Scale(2, 2) {
		t.Errorf("transform after ResetTransform and Clear = %v, want view transform", got)
	}
}

func TestClearResizesCanvas(t *testing.T) {
	v := &mutableView{testView{w: 8, h: 8, m: gg.Identity()}}
	p := New(v)
	v.w, v.h = 20, 10
	p.Clear()
	if p.base.Width() != 20 || p.base.Height() != 10 {
		t.Errorf("canvas size = %dx%d, want 20x10", p.base.Width(), p.base.Height())
	}
}

func TestWithCanvas(t *testing.T) {
	c := surface.NewGGCanvas(10, 10)
	p := New(testView{w: 50, h: 50, m: gg.Identity()}, WithCanvas(c))
	p.Set("fillStyle", "red")
	p.DrawPolygon(square(0, 0, 10), []PolygonEnd{EndFill})
	p.Clear()
	if p.base != surface.Canvas(c) {
		t.Error("Clear replaced a caller-provided canvas")
	}
}

func TestDrawTo(t *testing.T) {
	p := newTestPainter(t)
	p.Set("fillStyle", "lime")
	p.DrawPolygon(square(0, 0, 64), []PolygonEnd{EndFill})

	dst := surface.NewGGCanvas(64, 64)
	p.DrawTo(dst)
	if got := dst.Image().RGBAAt(3, 3); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("DrawTo pixel = %v, want lime", got)
	}
}

func TestBatchJSONRoundTrip(t *testing.T) {
	batch := decodeBatch(t, sampleBatch)
	data, err := json.Marshal(batch)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	again := decodeBatch(t, string(data))
	if !reflect.DeepEqual(batch, again) {
		t.Errorf("round trip mismatch:\n got %#v\nwant %#v", again, batch)
	}
}
