// Package source holds the features of a map layer and turns them into the
// snapshots handed to layer programs.
package source

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Layer describes a map layer.
type Layer struct {
	ID string `json:"id" yaml:"id"`

	// Program is the URL of the layer's rendering program. Empty means
	// the map's default program.
	Program string `json:"program,omitempty" yaml:"program,omitempty"`

	// Style and Params are defaults for the properties of the same name
	// on every feature.
	Style  map[string]any `json:"style,omitempty" yaml:"style,omitempty"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Listener receives source changes.
type Listener interface {
	// OnSourceUpdate is called after the feature set or the layer style
	// changed as a whole.
	OnSourceUpdate()

	// OnFeatureUpdate is called after a single feature changed.
	OnFeatureUpdate(f *geojson.Feature)
}

// Source is an in-memory feature store for one layer. It is safe for
// concurrent use. Listeners are called without internal locks held.
type Source struct {
	mu       sync.RWMutex
	layer    Layer
	features []*geojson.Feature
	index    map[string]int
	seq      int

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// New creates a source for layer holding features. Features without an
// id get one.
func New(layer Layer, features ...*geojson.Feature) *Source {
	s := &Source{
		layer:     cloneLayer(layer),
		listeners: make(map[int]Listener),
	}
	s.reset(features)
	return s
}

// Load creates a source from a GeoJSON feature collection.
func Load(layer Layer, r io.Reader) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("source: %s: %w", layer.ID, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("source: %s: %w", layer.ID, err)
	}
	return New(layer, fc.Features...), nil
}

// ID returns the layer id.
func (s *Source) ID() string {
	return s.layer.ID
}

// Layer returns a copy of the layer description.
func (s *Source) Layer() Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneLayer(s.layer)
}

// Features returns the features in insertion order.
func (s *Source) Features() []*geojson.Feature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*geojson.Feature(nil), s.features...)
}

// Len returns the number of features.
func (s *Source) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.features)
}

// Add appends features and signals a full update.
func (s *Source) Add(features ...*geojson.Feature) {
	s.mu.Lock()
	for _, f := range features {
		s.put(f)
	}
	s.mu.Unlock()
	s.emit(nil)
}

// Replace swaps the whole feature set and signals a full update.
func (s *Source) Replace(features ...*geojson.Feature) {
	s.mu.Lock()
	s.reset(features)
	s.mu.Unlock()
	s.emit(nil)
}

// SetFeature replaces the feature with the same id, or adds it, and
// signals a feature update.
func (s *Source) SetFeature(f *geojson.Feature) {
	if f == nil {
		return
	}
	s.mu.Lock()
	s.put(f)
	s.mu.Unlock()
	s.emit(f)
}

// Set changes a layer attribute addressed by a dotted key such as
// "style.strokeStyle", "params.image" or "program". Changes below style
// or params signal a full update.
func (s *Source) Set(key string, value any) {
	prefix, rest, _ := strings.Cut(key, ".")

	s.mu.Lock()
	switch prefix {
	case "style":
		s.layer.Style = setPath(s.layer.Style, rest, value)
	case "params":
		s.layer.Params = setPath(s.layer.Params, rest, value)
	case "program":
		if v, ok := value.(string); ok {
			s.layer.Program = v
		}
	}
	s.mu.Unlock()

	if prefix == "style" || prefix == "params" {
		s.emit(nil)
	}
}

// Snapshots returns detached copies of features, or of all features when
// none are given. Each copy carries style and params properties with the
// missing keys filled in from the layer.
func (s *Source) Snapshots(features ...*geojson.Feature) []*geojson.Feature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(features) == 0 {
		features = s.features
	}
	out := make([]*geojson.Feature, 0, len(features))
	for _, f := range features {
		if f == nil {
			continue
		}
		out = append(out, s.snapshot(f))
	}
	return out
}

func (s *Source) snapshot(f *geojson.Feature) *geojson.Feature {
	c := &geojson.Feature{
		ID:         f.ID,
		Type:       "Feature",
		BBox:       append(geojson.BBox(nil), f.BBox...),
		Properties: cloneMap(f.Properties),
	}
	if f.Geometry != nil {
		c.Geometry = orb.Clone(f.Geometry)
	}
	c.Properties["style"] = withDefaults(c.Properties["style"], s.layer.Style)
	c.Properties["params"] = withDefaults(c.Properties["params"], s.layer.Params)
	return c
}

// Subscribe registers l and returns a function that removes it.
func (s *Source) Subscribe(l Listener) (unsubscribe func()) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		delete(s.listeners, id)
	}
}

// emit notifies listeners of a full update, or of a feature update when
// f is not nil.
func (s *Source) emit(f *geojson.Feature) {
	s.lmu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if l, ok := s.listeners[id]; ok {
			ls = append(ls, l)
		}
	}
	s.lmu.Unlock()

	for _, l := range ls {
		if f == nil {
			l.OnSourceUpdate()
		} else {
			l.OnFeatureUpdate(f)
		}
	}
}

// reset and put are called with mu held.
func (s *Source) reset(features []*geojson.Feature) {
	s.features = make([]*geojson.Feature, 0, len(features))
	s.index = make(map[string]int, len(features))
	for _, f := range features {
		s.put(f)
	}
}

func (s *Source) put(f *geojson.Feature) {
	if f == nil {
		return
	}
	if f.ID == nil {
		s.seq++
		f.ID = fmt.Sprintf("%s-%d", s.layer.ID, s.seq)
	}
	if f.Properties == nil {
		f.Properties = make(geojson.Properties)
	}
	key := fmt.Sprint(f.ID)
	if i, ok := s.index[key]; ok {
		s.features[i] = f
		return
	}
	s.index[key] = len(s.features)
	s.features = append(s.features, f)
}
