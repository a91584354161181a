package ggmap

import (
	"time"

	"github.com/gogpu/ggmap/painter"
	"github.com/gogpu/ggmap/surface"
	"github.com/gogpu/ggmap/worker"
)

// DefaultProgram is the program URL used for layers that name none.
const DefaultProgram = "builtin:default"

// DefaultAckTimeout bounds the wait for a program to acknowledge a data
// load.
const DefaultAckTimeout = 10 * time.Second

// Option configures a Renderer or a Map.
//
// Example:
//
//	m := ggmap.NewMap(v,
//	    ggmap.WithMediaURL("https://media.example.com"),
//	    ggmap.WithAckTimeout(5*time.Second))
type Option func(*options)

type options struct {
	defaultProgram string
	mediaURL       string
	ackTimeout     time.Duration
	errorHandler   func(error)
	queueSize      int
	fetcher        painter.Fetcher
	newCanvas      surface.Factory
}

func defaultOptions() options {
	return options{
		defaultProgram: DefaultProgram,
		ackTimeout:     DefaultAckTimeout,
		queueSize:      worker.DefaultQueueSize,
		newCanvas:      surface.New,
	}
}

// WithDefaultProgram sets the program URL for layers without one.
func WithDefaultProgram(url string) Option {
	return func(o *options) {
		if url != "" {
			o.defaultProgram = url
		}
	}
}

// WithMediaURL sets the base URL image names are resolved against.
func WithMediaURL(url string) Option {
	return func(o *options) {
		o.mediaURL = url
	}
}

// WithAckTimeout sets how long a data load may stay unacknowledged before
// ErrAckTimeout is reported. Zero disables the timeout.
func WithAckTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.ackTimeout = d
		}
	}
}

// WithErrorHandler sets the function receiving asynchronous errors: ack
// timeouts and worker faults. It is called on an internal goroutine.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithQueueSize sets the capacity of each worker's outbound queue.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithFetcher sets the image fetcher. The default is an assets.Fetcher.
func WithFetcher(f painter.Fetcher) Option {
	return func(o *options) {
		o.fetcher = f
	}
}

// WithCanvasFactory sets the factory for layer surfaces and textures.
func WithCanvasFactory(f surface.Factory) Option {
	return func(o *options) {
		if f != nil {
			o.newCanvas = f
		}
	}
}
