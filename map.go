package ggmap

import (
	"context"
	"fmt"
	"image"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/ggmap/assets"
)

// Map hosts the renderers of a set of layers sharing one view.
//
// Layers are ordered top first. A view change re-renders every layer.
type Map struct {
	mu        sync.Mutex
	view      View
	opts      []Option
	o         options
	renderers map[string]*Renderer
	order     []string
}

// NewMap creates an empty map for v. The options apply to every layer
// renderer; layers share one image fetcher.
func NewMap(v View, opts ...Option) *Map {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.fetcher == nil {
		o.fetcher = assets.NewFetcher()
	}
	return &Map{
		view:      v,
		opts:      append(slices.Clone(opts), WithFetcher(o.fetcher)),
		o:         o,
		renderers: make(map[string]*Renderer),
	}
}

// AddLayer starts a renderer for src, puts it on top and renders it.
func (m *Map) AddLayer(ctx context.Context, src Source) (*Renderer, error) {
	id := src.ID()
	m.mu.Lock()
	if _, ok := m.renderers[id]; ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrLayerExists, id)
	}
	m.mu.Unlock()

	r, err := NewRenderer(ctx, src, m.view, m.opts...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if _, ok := m.renderers[id]; ok {
		m.mu.Unlock()
		r.Stop()
		return nil, fmt.Errorf("%w: %q", ErrLayerExists, id)
	}
	m.renderers[id] = r
	m.order = append([]string{id}, m.order...)
	m.mu.Unlock()

	r.Render()
	return r, nil
}

// RemoveLayer stops and forgets the renderer of layer id.
func (m *Map) RemoveLayer(id string) {
	m.mu.Lock()
	r, ok := m.renderers[id]
	delete(m.renderers, id)
	m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == id })
	m.mu.Unlock()
	if ok {
		r.Stop()
	}
}

// Layer returns the renderer of layer id, or nil.
func (m *Map) Layer(id string) *Renderer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renderers[id]
}

// Layers returns the layer ids, top first.
func (m *Map) Layers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.order)
}

// SetVisibility shows exactly the listed layers. Layers whose visibility
// changes are re-rendered. The listed layers move to the top in the given
// order.
func (m *Map) SetVisibility(ids []string) {
	for _, r := range m.snapshot() {
		show := slices.Contains(ids, r.ID())
		if show != r.IsVisible() {
			r.SetVisibility(show)
			r.Render()
		}
	}
	m.Reorder(ids)
}

// Reorder puts the listed layers on top, first id topmost. Unlisted layers
// keep their relative order below them. Unknown ids are ignored.
func (m *Map) Reorder(ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order := make([]string, 0, len(m.order))
	for _, id := range ids {
		if _, ok := m.renderers[id]; ok && !slices.Contains(order, id) {
			order = append(order, id)
		}
	}
	for _, id := range m.order {
		if !slices.Contains(order, id) {
			order = append(order, id)
		}
	}
	m.order = order
}

// Render renders every layer.
func (m *Map) Render() {
	for _, r := range m.snapshot() {
		r.Render()
	}
}

// Wait waits for every layer, see Renderer.Wait.
func (m *Map) Wait(ctx context.Context) error {
	for _, r := range m.snapshot() {
		if err := r.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot composites the visible layers, bottom first, into a new image
// the size of the view.
func (m *Map) Snapshot() *image.RGBA {
	w, h := m.view.Size()
	dst := m.o.newCanvas(w, h)
	rs := m.snapshot()
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i].IsVisible() {
			rs[i].Painter().DrawTo(dst)
		}
	}
	return dst.Snapshot()
}

// snapshot returns the renderers top first.
func (m *Map) snapshot() []*Renderer {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs := make([]*Renderer, 0, len(m.order))
	for _, id := range m.order {
		rs = append(rs, m.renderers[id])
	}
	return rs
}

// Close stops every renderer, which detaches them from the view. It
// returns the first worker fault among the layers.
func (m *Map) Close() error {
	var g errgroup.Group
	for _, r := range m.snapshot() {
		g.Go(func() error {
			r.Stop()
			<-r.Done()
			return r.Err()
		})
	}
	err := g.Wait()

	m.mu.Lock()
	clear(m.renderers)
	m.order = nil
	m.mu.Unlock()
	return err
}
