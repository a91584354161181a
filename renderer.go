package ggmap

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gogpu/gg"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/gogpu/ggmap/assets"
	"github.com/gogpu/ggmap/painter"
	_ "github.com/gogpu/ggmap/program" // register builtin:default
	"github.com/gogpu/ggmap/source"
	"github.com/gogpu/ggmap/surface"
	"github.com/gogpu/ggmap/view"
	"github.com/gogpu/ggmap/worker"
)

// Source is the data source of a layer. source.Source implements it.
type Source interface {
	ID() string
	Layer() source.Layer
	Snapshots(features ...*geojson.Feature) []*geojson.Feature
	Subscribe(l source.Listener) (unsubscribe func())
}

// View is the view a layer is drawn for. view.View implements it.
type View interface {
	painter.View

	// GeoExtent returns the visible WGS84 extent.
	GeoExtent() [4]float64

	// OnChange registers fn to run after the view changed.
	OnChange(fn func()) (unsubscribe func())
}

// Renderer keeps one layer surface in step with its data source and view.
//
// It owns the layer's worker channel and painter. Data changes are sent to
// the program and acknowledged; renders request frames, and only the batch
// answering the latest request reaches the painter.
type Renderer struct {
	mu sync.Mutex

	id      string
	src     Source
	view    View
	painter *painter.Painter
	ch      *worker.Channel
	opts    options

	ready   bool
	pending bool
	visible bool
	stopped bool

	current  FrameID
	inFlight bool
	gen      uint64
	ackSeq   uint64
	acks     map[string]*time.Timer
	err      error
	changed  chan struct{}

	unsubscribe []func()
}

// NewRenderer starts the program of src's layer and sends it the initial
// data load. The layer becomes ready when the program acknowledges it; a
// render requested before that is held and issued once. The renderer
// renders again whenever the view changes.
//
// The program URL is the layer's Program or the default program, with the
// layer id appended as the l query parameter.
func NewRenderer(ctx context.Context, src Source, v View, opts ...Option) (*Renderer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.fetcher == nil {
		o.fetcher = assets.NewFetcher()
	}

	id := src.ID()
	program := src.Layer().Program
	if program == "" {
		program = o.defaultProgram
	}
	conn, err := worker.Dial(ctx, programURL(program, id))
	if err != nil {
		return nil, fmt.Errorf("ggmap: layer %q: %w", id, err)
	}

	r := &Renderer{
		id:   id,
		src:  src,
		view: v,
		painter: painter.New(v,
			painter.WithCanvasFactory(o.newCanvas),
			painter.WithFetcher(o.fetcher),
			painter.WithMediaURL(o.mediaURL)),
		ch:      worker.NewChannel(conn, worker.WithQueueSize(o.queueSize)),
		opts:    o,
		visible: true,
		acks:    make(map[string]*time.Timer),
		changed: make(chan struct{}),
	}
	r.ch.OnFrame(r.onFrame)
	go r.watch()

	// Subscribed before the snapshot is taken, so no change is missed.
	unsubscribe := []func(){src.Subscribe(r), v.OnChange(r.viewChanged)}

	r.mu.Lock()
	if r.stopped {
		fault := r.err
		r.mu.Unlock()
		for _, fn := range unsubscribe {
			fn()
		}
		return nil, fmt.Errorf("ggmap: layer %q: %w", id, errors.Join(ErrStopped, fault))
	}
	r.unsubscribe = unsubscribe
	err = r.load(worker.MsgInit, src.Snapshots(), func() {
		r.ready = true
		if r.pending {
			r.pending = false
			r.render()
		}
	})
	r.mu.Unlock()
	if err != nil {
		r.Stop()
		return nil, fmt.Errorf("ggmap: layer %q: initial load: %w", id, err)
	}

	Logger().Info("ggmap: renderer started", "layer", id, "program", program)
	return r, nil
}

func programURL(program, layer string) string {
	sep := "?"
	if strings.Contains(program, "?") {
		sep = "&"
	}
	return program + sep + "l=" + url.QueryEscape(layer)
}

// ID returns the layer id.
func (r *Renderer) ID() string { return r.id }

// Painter returns the layer's painter.
func (r *Renderer) Painter() *painter.Painter { return r.painter }

// viewChanged picks up the new view transform and renders.
func (r *Renderer) viewChanged() {
	r.painter.ResetTransform()
	r.Render()
}

// OnSourceUpdate sends the full snapshot set to the program and renders
// once it is acknowledged.
func (r *Renderer) OnSourceUpdate() {
	if err := r.Reload(); err != nil {
		Logger().Warn("ggmap: full update not sent", "layer", r.id, "err", err)
	}
}

// Reload re-sends the full data set. An acknowledged reload makes the
// layer ready and renders it, so Reload also recovers a layer whose
// initial load timed out.
func (r *Renderer) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrStopped
	}
	return r.load(worker.MsgInit, r.src.Snapshots(), func() {
		r.ready = true
		r.pending = false
		r.render()
	})
}

// OnFeatureUpdate sends the snapshot of f to the program and renders once
// it is acknowledged.
func (r *Renderer) OnFeatureUpdate(f *geojson.Feature) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	err := r.load(worker.MsgUpdate, r.src.Snapshots(f), r.render)
	if err != nil {
		Logger().Warn("ggmap: feature update not sent", "layer", r.id, "err", err)
	}
}

// load posts a data load and arms its acknowledgement. onAck runs with
// mu held. Called with mu held.
func (r *Renderer) load(name string, models []*geojson.Feature, onAck func()) error {
	r.ackSeq++
	ack := fmt.Sprintf("%s.ack.%d", r.id, r.ackSeq)

	r.ch.Once(ack, func(worker.Response) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if t := r.acks[ack]; t != nil {
			t.Stop()
		}
		delete(r.acks, ack)
		if !r.stopped {
			onAck()
		}
		r.signal()
	})
	var timer *time.Timer
	if r.opts.ackTimeout > 0 {
		timer = time.AfterFunc(r.opts.ackTimeout, func() { r.ackExpired(ack) })
	}
	r.acks[ack] = timer

	if err := r.ch.Post(&worker.Request{Name: name, Models: models, Ack: ack}); err != nil {
		r.ch.Forget(ack)
		if timer != nil {
			timer.Stop()
		}
		delete(r.acks, ack)
		return err
	}
	return nil
}

func (r *Renderer) ackExpired(ack string) {
	if !r.ch.Forget(ack) {
		return // acknowledged meanwhile
	}
	r.mu.Lock()
	stopped := r.stopped
	r.mu.Unlock()
	if !stopped {
		Logger().Warn("ggmap: ack timeout", "layer", r.id, "ack", ack)
		r.report(fmt.Errorf("%w: layer %q, ack %s", ErrAckTimeout, r.id, ack))
	}

	// Report before waking Wait, so a waiter sees the error.
	r.mu.Lock()
	delete(r.acks, ack)
	r.signal()
	r.mu.Unlock()
}

// SetVisibility sets whether the layer is shown. It does not render.
func (r *Renderer) SetVisibility(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visible = v
}

// IsVisible reports whether the layer is shown.
func (r *Renderer) IsVisible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible
}

// Render requests a new frame for the current view.
//
// An invisible layer is cleared without asking the program. A layer that
// is not ready yet remembers the request and renders once when it becomes
// ready.
func (r *Renderer) Render() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.render()
}

// render is called with mu held.
func (r *Renderer) render() {
	if r.stopped {
		return
	}
	if !r.visible {
		r.abandon()
		r.painter.Clear()
		r.signal()
		return
	}
	if !r.ready {
		r.pending = true
		return
	}

	r.abandon()
	r.painter.Clear()

	r.gen++
	r.current = FrameID{Layer: r.id, Gen: r.gen}
	req := &worker.Request{
		Name:      worker.MsgFrame,
		ID:        r.current.String(),
		Transform: surface.FlatMatrix(r.view.Transform()),
		Extent:    r.view.GeoExtent(),
	}
	if err := r.ch.Post(req); err != nil {
		Logger().Warn("ggmap: frame request not sent", "layer", r.id, "frame", req.ID, "err", err)
		r.signal()
		return
	}
	r.inFlight = true
	r.signal()
}

// abandon cancels the frame in flight, if any. Called with mu held.
func (r *Renderer) abandon() {
	if !r.inFlight {
		return
	}
	stale := r.current.String()
	r.inFlight = false
	r.current = FrameID{}
	if err := r.ch.Post(&worker.Request{Name: worker.MsgCancel, ID: stale}); err != nil {
		Logger().Debug("ggmap: cancel not sent", "frame", stale, "err", err)
	}
}

func (r *Renderer) onFrame(resp worker.Response) {
	batch, err := painter.Decode(resp.Commands)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || !r.inFlight || resp.ID != r.current.String() {
		Logger().Debug("ggmap: stale frame discarded", "layer", r.id, "frame", resp.ID)
		return
	}
	r.inFlight = false
	defer r.signal()
	if err != nil {
		Logger().Warn("ggmap: batch dropped", "layer", r.id, "frame", resp.ID, "err", err)
		return
	}
	r.painter.ProcessCommands(batch)
}

// DrawBackground outlines the world extent on the layer surface: a grey
// stroke around a white fill.
func (r *Renderer) DrawBackground() {
	r.mu.Lock()
	defer r.mu.Unlock()

	world := view.Project(view.World)
	m := r.view.Transform()
	ring := make(orb.Ring, 0, 4)
	for _, p := range []orb.Point{
		{world.Min[0], world.Max[1]}, {world.Max[0], world.Max[1]},
		{world.Max[0], world.Min[1]}, {world.Min[0], world.Min[1]},
	} {
		q := m.TransformPoint(gg.Pt(p[0], p[1]))
		ring = append(ring, orb.Point{q.X, q.Y})
	}

	p := r.painter
	p.Save()
	p.SetTransform(1, 0, 0, 1, 0, 0)
	p.Set("strokeStyle", "#888")
	p.Set("lineWidth", 0.5)
	p.Set("fillStyle", "#FFF")
	p.DrawPolygon(orb.Polygon{ring}, []painter.PolygonEnd{painter.EndClosePath, painter.EndStroke, painter.EndFill})
	p.Restore()
}

// Stop terminates the worker. Afterwards renders and source changes are
// ignored and late batches are dropped.
func (r *Renderer) Stop() {
	if r.shutdown(nil) {
		Logger().Info("ggmap: renderer stopped", "layer", r.id)
	}
}

// shutdown marks the renderer stopped and releases its resources. It
// reports whether this call did it.
func (r *Renderer) shutdown(fault error) bool {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return false
	}
	r.stopped = true
	r.inFlight = false
	if fault != nil {
		r.err = &WorkerFaultError{Layer: r.id, Err: fault}
	}
	for ack, t := range r.acks {
		if t != nil {
			t.Stop()
		}
		delete(r.acks, ack)
	}
	unsubscribe := r.unsubscribe
	r.unsubscribe = nil
	r.signal()
	r.mu.Unlock()

	for _, fn := range unsubscribe {
		fn()
	}
	r.ch.Stop()
	return true
}

// watch turns an abnormal end of the channel into a worker fault.
func (r *Renderer) watch() {
	<-r.ch.Done()
	err := r.ch.Err()
	if err == nil {
		return
	}
	if !r.shutdown(err) {
		return
	}
	Logger().Error("ggmap: worker fault", "layer", r.id, "err", err)
	r.report(r.Err())
}

// Done is closed once the worker channel has terminated.
func (r *Renderer) Done() <-chan struct{} {
	return r.ch.Done()
}

// Err returns the *WorkerFaultError that stopped the renderer, or nil.
func (r *Renderer) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Renderer) report(err error) {
	if fn := r.opts.errorHandler; fn != nil {
		fn(err)
	}
}

// signal wakes Wait callers. Called with mu held.
func (r *Renderer) signal() {
	close(r.changed)
	r.changed = make(chan struct{})
}

// idle reports whether no acknowledgement or frame is outstanding. Called
// with mu held.
func (r *Renderer) idle() bool {
	return r.stopped || (len(r.acks) == 0 && !r.inFlight)
}

// Wait blocks until the renderer has no outstanding acknowledgement or
// frame and every image load of the current frame has finished. It
// returns the renderer's fault, if any, or ctx's error.
func (r *Renderer) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		idle, changed := r.idle(), r.changed
		r.mu.Unlock()
		if idle {
			break
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.painter.Wait()
	return r.Err()
}
