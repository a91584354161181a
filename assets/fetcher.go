// Package assets fetches and decodes the raster images drawn by map layers.
//
// A Fetcher resolves URLs over HTTP(S) or from the local file system,
// decodes PNG, JPEG, GIF, WebP, BMP and TIFF, keeps decoded images in a
// sharded LRU cache and collapses concurrent requests for the same URL into
// one.
//
// Media URLs built by the painter end in a size bucket, for example
// "media/icons/marker/64". For local files the fetcher falls back to the
// name without the bucket, then to the name with a known image extension,
// so a plain directory of images can serve as a media root.
package assets

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned when an asset does not exist.
var ErrNotFound = errors.New("assets: not found")

// DefaultTimeout bounds a single HTTP fetch.
const DefaultTimeout = 30 * time.Second

// extensions tried for local files without one.
var extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tif", ".tiff"}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the client used for http and https URLs.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithCacheCapacity sets the number of decoded images cached per shard.
// The total capacity is 16 times larger.
func WithCacheCapacity(n int) Option {
	return func(f *Fetcher) {
		f.cache = newCache[image.Image](n)
	}
}

// WithTimeout bounds every fetch. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// Fetcher loads and decodes images. It is safe for concurrent use.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	cache   *cache[image.Image]
	group   singleflight.Group
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  http.DefaultClient,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.cache == nil {
		f.cache = newCache[image.Image](DefaultCacheCapacity)
	}
	return f
}

// Fetch returns the decoded image at rawURL. Successful results are cached;
// failures are not.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (image.Image, error) {
	if img, ok := f.cache.get(rawURL); ok {
		return img, nil
	}

	v, err, shared := f.group.Do(rawURL, func() (any, error) {
		img, err := f.load(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		f.cache.set(rawURL, img)
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		Logger().Debug("assets: shared fetch", "url", rawURL)
	}
	return v.(image.Image), nil
}

// Stats returns cache statistics.
func (f *Fetcher) Stats() CacheStats {
	return f.cache.stats()
}

// Purge empties the cache.
func (f *Fetcher) Purge() {
	f.cache.purge()
}

func (f *Fetcher) load(ctx context.Context, rawURL string) (image.Image, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		return f.loadHTTP(ctx, rawURL)
	case "file":
		return loadFile(u.Path)
	case "":
		return loadFile(rawURL)
	}
	return nil, fmt.Errorf("assets: unsupported scheme %q", u.Scheme)
}

func (f *Fetcher) loadHTTP(ctx context.Context, rawURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("assets: %s: %s", rawURL, resp.Status)
	}
	return decode(resp.Body, rawURL)
}

func loadFile(name string) (image.Image, error) {
	p, err := resolveFile(filepath.FromSlash(name))
	if err != nil {
		return nil, err
	}
	file, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}
	defer file.Close()
	return decode(file, p)
}

// resolveFile finds the file serving name: name itself, then name without
// a trailing size bucket, then either of those with a known extension.
func resolveFile(name string) (string, error) {
	candidates := []string{name}
	dir, last := filepath.Split(name)
	if _, err := strconv.Atoi(last); err == nil && dir != "" {
		candidates = append(candidates, filepath.Clean(dir))
	}
	bases := append([]string(nil), candidates...)
	for _, c := range bases {
		if filepath.Ext(c) != "" {
			continue
		}
		for _, ext := range extensions {
			candidates = append(candidates, c+ext)
		}
	}

	for _, c := range candidates {
		// A bucketed name below a regular file fails with ENOTDIR, so any
		// stat error just moves on to the next candidate.
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

func decode(r io.Reader, name string) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("assets: decode %s: %w", name, err)
	}
	Logger().Debug("assets: decoded", "name", name, "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return img, nil
}
