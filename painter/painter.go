package painter

import (
	"image"
	"sync"

	"github.com/gogpu/gg"
	"github.com/paulmach/orb"

	"github.com/gogpu/ggmap/surface"
)

// View is what a Painter needs from the map view.
type View interface {
	// Size returns the surface size in pixels.
	Size() (width, height int)

	// Transform returns the current projected-to-pixel transform.
	Transform() gg.Matrix
}

// Option configures a Painter.
type Option func(*options)

type options struct {
	canvas    surface.Canvas
	newCanvas surface.Factory
	fetcher   Fetcher
	mediaURL  string
}

// WithCanvas makes the painter draw on c instead of a canvas of its own.
// The canvas is never resized.
func WithCanvas(c surface.Canvas) Option {
	return func(o *options) {
		o.canvas = c
	}
}

// WithCanvasFactory sets the factory for the base canvas and for textures.
// The default is surface.New.
func WithCanvasFactory(f surface.Factory) Option {
	return func(o *options) {
		if f != nil {
			o.newCanvas = f
		}
	}
}

// WithFetcher sets the image fetcher. Without one, image commands are
// ignored.
func WithFetcher(f Fetcher) Option {
	return func(o *options) {
		o.fetcher = f
	}
}

// WithMediaURL sets the base URL that image names are resolved against.
func WithMediaURL(url string) Option {
	return func(o *options) {
		o.mediaURL = url
	}
}

// Painter executes drawing commands against a surface.
//
// The painter owns a base canvas, the textures of the frame being drawn
// and the image loads it started. Clear resets all of them.
type Painter struct {
	mu sync.Mutex

	view      View
	newCanvas surface.Factory
	fixed     bool
	fetcher   Fetcher
	mediaURL  string

	base      surface.Canvas
	active    surface.Canvas
	textures  map[string]surface.Canvas
	depth     int
	loads     map[*ImageLoader]struct{}
	transform gg.Matrix

	// loading counts image loads whose fetch has not returned. loaded is
	// closed and replaced each time one returns.
	loading int
	loaded  chan struct{}
}

// New creates a painter for view and clears it.
func New(view View, opts ...Option) *Painter {
	o := options{newCanvas: surface.New}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Painter{
		view:      view,
		newCanvas: o.newCanvas,
		fetcher:   o.fetcher,
		mediaURL:  o.mediaURL,
		loads:     make(map[*ImageLoader]struct{}),
		loaded:    make(chan struct{}),
		transform: view.Transform(),
	}
	if o.canvas != nil {
		p.base = o.canvas
		p.fixed = true
	} else {
		w, h := view.Size()
		p.base = p.newCanvas(w, h)
	}
	p.active = p.base
	p.Clear()
	return p
}

// Clear cancels pending image loads, drops textures, unwinds the state
// stack, restores the transform last taken from the view, clears the
// surface and sets the composite operation to multiply.
func (p *Painter) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clear()
}

func (p *Painter) clear() {
	for l := range p.loads {
		l.cancelled = true
	}
	clear(p.loads)
	p.textures = nil

	if !p.fixed {
		w, h := p.view.Size()
		if w != p.base.Width() || h != p.base.Height() {
			p.base = p.newCanvas(w, h)
		}
	}
	p.active = p.base
	p.depth = 0

	p.base.Reset()
	p.base.Clear()
	p.base.SetTransform(p.transform)
	p.base.Style().Composite = surface.CompositeMultiply
}

// ClearRect clears the device rectangle of e under the current transform.
func (p *Painter) ClearRect(e Extent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearRect(e)
}

func (p *Painter) clearRect(e Extent) {
	bl := e.BottomLeft()
	p.active.ClearRect(bl[0], bl[1], e.Width(), e.Height())
}

// Save pushes the state of the active canvas.
func (p *Painter) Save() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.save()
}

func (p *Painter) save() {
	p.active.Save()
	p.depth++
}

// Restore pops the state of the active canvas. It is a no-op at depth 0.
func (p *Painter) Restore() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.restore()
}

func (p *Painter) restore() {
	if p.depth == 0 {
		return
	}
	p.active.Restore()
	p.depth--
}

// Depth returns the number of outstanding saves.
func (p *Painter) Depth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.depth
}

// SetTransform replaces the transform of the active canvas.
func (p *Painter) SetTransform(a, b, c, d, e, f float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active.SetTransform(surface.MatrixFromFlat(a, b, c, d, e, f))
}

// ResetTransform picks up the current view transform. Clear applies it; until
// then the canvas keeps drawing with the previous one.
func (p *Painter) ResetTransform() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transform = p.view.Transform()
}

// StartTexture creates a texture the size of the base canvas and makes it
// the drawing target. The texture starts with the active transform.
// Textures do not nest: a second StartTexture replaces the target.
func (p *Painter) StartTexture(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startTexture(id)
}

func (p *Painter) startTexture(id string) {
	t := p.newCanvas(p.base.Width(), p.base.Height())
	t.SetTransform(p.active.Transform())
	if p.textures == nil {
		p.textures = make(map[string]surface.Canvas)
	}
	p.textures[id] = t
	p.active = t
}

// EndTexture makes the base canvas the drawing target.
func (p *Painter) EndTexture() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = p.base
}

// ApplyTexture composites a texture onto the active canvas at the origin.
// Unknown ids are ignored.
func (p *Painter) ApplyTexture(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyTexture(id)
}

func (p *Painter) applyTexture(id string) {
	t, ok := p.textures[id]
	if !ok {
		Logger().Debug("painter: unknown texture", "id", id)
		return
	}
	p.active.DrawCanvas(t)
}

// DrawPolygon builds one path from all rings and applies ends in order.
// A nil ends applies DefaultEnds.
func (p *Painter) DrawPolygon(rings orb.Polygon, ends []PolygonEnd) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drawPolygon(rings, ends)
}

func (p *Painter) drawPolygon(rings orb.Polygon, ends []PolygonEnd) {
	if ends == nil {
		ends = DefaultEnds
	}
	c := p.active
	tracePolygon(c, rings)
	for _, end := range ends {
		switch end {
		case EndClosePath:
			c.ClosePath()
		case EndStroke:
			c.Stroke()
		case EndFill:
			c.Fill()
		case EndClip:
			c.Clip()
		}
	}
}

func tracePolygon(c surface.Canvas, rings orb.Polygon) {
	c.BeginPath()
	for _, ring := range rings {
		for i, pt := range ring {
			if i == 0 {
				c.MoveTo(pt[0], pt[1])
			} else {
				c.LineTo(pt[0], pt[1])
			}
		}
	}
}

// DrawLine strokes an open path through coords.
func (p *Painter) DrawLine(coords orb.LineString) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drawLine(coords)
}

func (p *Painter) drawLine(coords orb.LineString) {
	c := p.active
	c.BeginPath()
	for i, pt := range coords {
		if i == 0 {
			c.MoveTo(pt[0], pt[1])
		} else {
			c.LineTo(pt[0], pt[1])
		}
	}
	c.Stroke()
}

// ProcessInstructions replays raw path instructions. Unknown operations
// are skipped.
func (p *Painter) ProcessInstructions(list []Instruction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processInstructions(list)
}

func (p *Painter) processInstructions(list []Instruction) {
	c := p.active
	for _, in := range list {
		switch in.Op {
		case OpBeginPath:
			c.BeginPath()
		case OpMoveTo:
			c.MoveTo(in.arg(0), in.arg(1))
		case OpLineTo:
			c.LineTo(in.arg(0), in.arg(1))
		case OpBezierCurveTo:
			c.BezierCurveTo(in.arg(0), in.arg(1), in.arg(2), in.arg(3), in.arg(4), in.arg(5))
		case OpQuadraticCurveTo:
			c.QuadraticCurveTo(in.arg(0), in.arg(1), in.arg(2), in.arg(3))
		case OpClosePath:
			c.ClosePath()
		case OpStroke:
			c.Stroke()
		case OpFill:
			c.Fill()
		default:
			Logger().Debug("painter: unknown instruction", "op", in.Op)
		}
	}
}

// ProcessCommands executes commands in order under a single lock, so no
// image load can draw in the middle of a batch.
func (p *Painter) ProcessCommands(cmds []Command) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, cmd := range cmds {
		p.process(cmd)
	}
}

func (p *Painter) process(cmd Command) {
	switch c := cmd.(type) {
	case SetCommand:
		p.set(c.Prop, c.Value)
	case ImageCommand:
		p.image(c.Rings, c.Extent, c.Options)
	case InstructionsCommand:
		p.processInstructions(c.Instructions)
	case SaveCommand:
		p.save()
	case RestoreCommand:
		p.restore()
	case TransformCommand:
		m := c.Matrix
		p.active.SetTransform(surface.MatrixFromFlat(m[0], m[1], m[2], m[3], m[4], m[5]))
	case ClearCommand:
		p.clear()
	case ClearRectCommand:
		p.clearRect(c.Extent)
	case StartTextureCommand:
		p.startTexture(c.ID)
	case EndTextureCommand:
		p.active = p.base
	case ApplyTextureCommand:
		p.applyTexture(c.ID)
	case LineCommand:
		p.drawLine(c.Coords)
	case PolygonCommand:
		p.drawPolygon(c.Rings, c.Ends)
	default:
		Logger().Debug("painter: unhandled command", "type", cmd.Type())
	}
}

// DrawTo composites the base canvas onto dst at the origin.
func (p *Painter) DrawTo(dst surface.Canvas) {
	p.mu.Lock()
	defer p.mu.Unlock()
	dst.DrawCanvas(p.base)
}

// Snapshot returns a copy of the base canvas pixels.
func (p *Painter) Snapshot() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.base.Snapshot()
}

// Wait blocks until every image load started so far has finished or been
// abandoned.
func (p *Painter) Wait() {
	for {
		p.mu.Lock()
		n, loaded := p.loading, p.loaded
		p.mu.Unlock()
		if n == 0 {
			return
		}
		<-loaded
	}
}
