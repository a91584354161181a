package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sample = `
width: 800
height: 600
canvas: software
extent: [2.5, 49.5, 6.4, 51.5]
mediaURL: https://media.example.com
ackTimeout: 3s
layers:
  - id: roads
    data: roads.geojson
    style:
      strokeStyle: "#888"
      lineWidth: 2
  - id: parks
    program: ws://localhost:8080/render
    visible: false
    params:
      image: grass
`

func TestParse(t *testing.T) {
	c, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Width != 800 || c.Height != 600 {
		t.Errorf("size = %dx%d", c.Width, c.Height)
	}
	if c.AckTimeout != 3*time.Second {
		t.Errorf("AckTimeout = %v, want 3s", c.AckTimeout)
	}
	if c.DefaultProgram != DefaultProgram {
		t.Errorf("DefaultProgram = %q", c.DefaultProgram)
	}
	if len(c.Layers) != 2 {
		t.Fatalf("layers = %d, want 2", len(c.Layers))
	}
	roads, parks := c.Layers[0], c.Layers[1]
	if roads.Style["strokeStyle"] != "#888" || roads.Style["lineWidth"] != 2 {
		t.Errorf("roads style = %v", roads.Style)
	}
	if !roads.IsVisible() || parks.IsVisible() {
		t.Errorf("visibility = %v, %v, want true, false", roads.IsVisible(), parks.IsVisible())
	}
	if parks.Program != "ws://localhost:8080/render" || parks.Params["image"] != "grass" {
		t.Errorf("parks = %+v", parks)
	}
}

func TestParseDefaults(t *testing.T) {
	c, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Width != DefaultWidth || c.Height != DefaultHeight || c.AckTimeout != DefaultAckTimeout {
		t.Errorf("defaults not applied: %+v", c)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"short extent", "extent: [1, 2, 3]"},
		{"empty extent", "extent: [1, 1, 1, 2]"},
		{"negative size", "width: -1"},
		{"missing id", "layers: [{data: a.json}]"},
		{"duplicate id", "layers: [{id: a}, {id: a}]"},
		{"unknown canvas", "canvas: vulkan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}

	if _, err := Parse(strings.NewReader("colour: red")); err == nil {
		t.Error("unknown field accepted")
	}
}

func TestLoadResolvesData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "map.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(dir, "roads.geojson"); c.Layers[0].Data != want {
		t.Errorf("Data = %q, want %q", c.Layers[0].Data, want)
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load of missing file succeeded")
	}
}
