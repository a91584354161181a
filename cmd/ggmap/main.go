// Command ggmap renders the layers described by a YAML file into a PNG.
//
// Layers are listed bottom first. Each layer names a GeoJSON file and the
// program that draws it:
//
//	width: 1024
//	height: 512
//	extent: [-30, 30, 45, 72]
//	layers:
//	  - id: land
//	    data: land.geojson
//	    style: {fillStyle: "#cfc"}
//	  - id: cities
//	    data: cities.geojson
//	    program: exec:ggmap-worker
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/paulmach/orb"

	"github.com/gogpu/ggmap"
	"github.com/gogpu/ggmap/config"
	"github.com/gogpu/ggmap/source"
	"github.com/gogpu/ggmap/surface"
	"github.com/gogpu/ggmap/view"
)

func main() {
	var (
		output     = flag.String("output", "map.png", "output file")
		verbose    = flag.Bool("v", false, "log to stderr")
		background = flag.Bool("background", false, "outline the world below the bottom layer")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] map.yaml\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if *verbose {
		ggmap.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, flag.Arg(0), *output, *background); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, path, output string, background bool) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	extent := view.World
	if len(cfg.Extent) == 4 {
		extent = orb.Bound{
			Min: orb.Point{cfg.Extent[0], cfg.Extent[1]},
			Max: orb.Point{cfg.Extent[2], cfg.Extent[3]},
		}
	}
	v := view.New(cfg.Width, cfg.Height, view.Project(extent))
	newCanvas, err := surface.Lookup(cfg.Canvas)
	if err != nil {
		return err
	}

	m := ggmap.NewMap(v,
		ggmap.WithDefaultProgram(cfg.DefaultProgram),
		ggmap.WithMediaURL(cfg.MediaURL),
		ggmap.WithAckTimeout(cfg.AckTimeout),
		ggmap.WithQueueSize(cfg.QueueSize),
		ggmap.WithCanvasFactory(newCanvas),
		ggmap.WithErrorHandler(func(err error) {
			log.Printf("layer error: %v", err)
		}))
	defer m.Close()

	var shown []string
	for i := len(cfg.Layers) - 1; i >= 0; i-- {
		if l := cfg.Layers[i]; l.IsVisible() {
			shown = append(shown, l.ID)
		}
	}
	for _, l := range cfg.Layers {
		src, err := openSource(l)
		if err != nil {
			return err
		}
		if _, err := m.AddLayer(ctx, src); err != nil {
			return err
		}
	}
	m.SetVisibility(shown)
	if err := m.Wait(ctx); err != nil {
		return err
	}

	if ids := m.Layers(); background && len(ids) > 0 {
		m.Layer(ids[len(ids)-1]).DrawBackground()
	}
	return save(output, m)
}

func openSource(l config.Layer) (*source.Source, error) {
	if l.Data == "" {
		return source.New(l.Layer), nil
	}
	f, err := os.Open(l.Data)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", l.ID, err)
	}
	defer f.Close()
	src, err := source.Load(l.Layer, f)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", l.ID, err)
	}
	return src, nil
}

func save(path string, m *ggmap.Map) error {
	img := m.Snapshot()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("map saved to %s (%dx%d)", path, img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}
