// Package config reads map descriptions from YAML files.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/ggmap/source"
	"github.com/gogpu/ggmap/surface"
)

// Defaults applied by Parse.
const (
	DefaultWidth      = 512
	DefaultHeight     = 512
	DefaultProgram    = "builtin:default"
	DefaultAckTimeout = 10 * time.Second
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Config describes a map to render.
type Config struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Extent is the visible area in WGS84: minLon, minLat, maxLon, maxLat.
	// Empty means the whole world.
	Extent []float64 `yaml:"extent"`

	// Canvas names the surface backend. Empty selects the preferred one.
	Canvas string `yaml:"canvas"`

	MediaURL       string        `yaml:"mediaURL"`
	DefaultProgram string        `yaml:"defaultProgram"`
	AckTimeout     time.Duration `yaml:"ackTimeout"`
	QueueSize      int           `yaml:"queueSize"`

	Layers []Layer `yaml:"layers"`
}

// Layer describes one map layer.
type Layer struct {
	source.Layer `yaml:",inline"`

	// Data is the path of a GeoJSON feature collection, relative to the
	// configuration file.
	Data string `yaml:"data"`

	// Visible defaults to true.
	Visible *bool `yaml:"visible"`
}

// IsVisible reports whether the layer starts visible.
func (l Layer) IsVisible() bool {
	return l.Visible == nil || *l.Visible
}

// Load reads and validates the configuration file at path. Relative layer
// data paths are resolved against the file's directory.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range c.Layers {
		if d := c.Layers[i].Data; d != "" && !filepath.IsAbs(d) {
			c.Layers[i].Data = filepath.Join(dir, d)
		}
	}
	return c, nil
}

// Parse decodes a configuration, applies defaults and validates it.
func Parse(r io.Reader) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.DefaultProgram == "" {
		c.DefaultProgram = DefaultProgram
	}
	if c.AckTimeout == 0 {
		c.AckTimeout = DefaultAckTimeout
	}
}

// Validate checks sizes, the extent and layer ids.
func (c *Config) Validate() error {
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalid, c.Width, c.Height)
	}
	if c.AckTimeout < 0 {
		return fmt.Errorf("%w: negative ackTimeout", ErrInvalid)
	}
	if len(c.Extent) != 0 {
		if len(c.Extent) != 4 {
			return fmt.Errorf("%w: extent needs 4 numbers, got %d", ErrInvalid, len(c.Extent))
		}
		if c.Extent[0] >= c.Extent[2] || c.Extent[1] >= c.Extent[3] {
			return fmt.Errorf("%w: empty extent %v", ErrInvalid, c.Extent)
		}
	}
	if _, err := surface.Lookup(c.Canvas); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	seen := make(map[string]bool, len(c.Layers))
	for i, l := range c.Layers {
		if l.ID == "" {
			return fmt.Errorf("%w: layer %d has no id", ErrInvalid, i)
		}
		if seen[l.ID] {
			return fmt.Errorf("%w: duplicate layer id %q", ErrInvalid, l.ID)
		}
		seen[l.ID] = true
	}
	return nil
}
