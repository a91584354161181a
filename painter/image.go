package painter

import (
	"context"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/paulmach/orb"
)

// Fetcher loads decoded images by URL. assets.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (image.Image, error)
}

// ImageLoader draws one image once it has been fetched.
//
// A loader belongs to the painter that started it. Clear cancels it; a
// cancelled loader never draws, although its fetch runs to completion.
type ImageLoader struct {
	painter *Painter
	url     string
	rings   orb.Polygon
	extent  Extent
	opts    ImageOptions

	// cancelled is guarded by painter.mu.
	cancelled bool
}

// URL returns the asset URL, including the size bucket.
func (l *ImageLoader) URL() string { return l.url }

// Cancel prevents the loader from drawing.
func (l *ImageLoader) Cancel() {
	l.painter.mu.Lock()
	defer l.painter.mu.Unlock()
	l.cancelled = true
	delete(l.painter.loads, l)
}

// Cancelled reports whether the loader was cancelled.
func (l *ImageLoader) Cancelled() bool {
	l.painter.mu.Lock()
	defer l.painter.mu.Unlock()
	return l.cancelled
}

// ImageURL returns the URL of an asset at the bucket size for a target of
// width x height.
func ImageURL(mediaURL, name string, width, height float64) string {
	return fmt.Sprintf("%s/%s/%d", strings.TrimRight(mediaURL, "/"), name, SizeBucket(math.Max(width, height)))
}

// Image starts loading an image for the extent and returns its loader. It
// returns nil when the painter has no fetcher.
func (p *Painter) Image(rings orb.Polygon, extent Extent, opts ImageOptions) *ImageLoader {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.image(rings, extent, opts)
}

func (p *Painter) image(rings orb.Polygon, extent Extent, opts ImageOptions) *ImageLoader {
	if p.fetcher == nil {
		Logger().Debug("painter: no fetcher, image skipped", "image", opts.Image)
		return nil
	}
	l := &ImageLoader{
		painter: p,
		url:     ImageURL(p.mediaURL, opts.Image, extent.Width(), extent.Height()),
		rings:   rings,
		extent:  extent,
		opts:    opts,
	}
	p.loads[l] = struct{}{}
	p.loading++
	go l.load(p.fetcher)
	return l
}

func (l *ImageLoader) load(f Fetcher) {
	img, err := f.Fetch(context.Background(), l.url)

	p := l.painter
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.loads, l)
	defer func() {
		p.loading--
		close(p.loaded)
		p.loaded = make(chan struct{})
	}()

	if l.cancelled {
		Logger().Debug("painter: image load cancelled", "url", l.url)
		return
	}
	if err != nil {
		Logger().Debug("painter: image load failed", "url", l.url, "err", err)
		return
	}
	l.draw(img)
}

// draw places img on the painter's active canvas. Called with painter.mu held.
func (l *ImageLoader) draw(img image.Image) {
	b := img.Bounds()
	r := Place(l.opts.Adjust, l.extent, float64(b.Dx()), float64(b.Dy()))

	c := l.painter.active
	c.Save()
	defer c.Restore()

	if l.opts.Clip {
		tracePolygon(c, l.rings)
		c.Clip()
	}
	if l.opts.Rotation != 0 {
		rot := l.opts.Rotation * math.Pi / 180
		cx, cy := r.X+r.W/2, r.Y+r.H/2
		c.Translate(cx, cy)
		c.Rotate(rot)
		c.Translate(-cx, -cy)
	}
	c.DrawImage(img, r.X, r.Y, r.W, r.H)
}
