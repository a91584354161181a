package worker

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
)

// ErrUnknownScheme is returned by Dial for a URL whose scheme has no
// registered transport.
var ErrUnknownScheme = errors.New("worker: unknown program scheme")

// Dialer opens a connection to the program addressed by u.
type Dialer func(ctx context.Context, u *url.URL) (Conn, error)

var (
	transportsMu sync.RWMutex
	transports   = make(map[string]Dialer)
)

// Register makes a transport available for a URL scheme. Registering a
// scheme twice replaces the earlier dialer. Register panics if d is nil.
func Register(scheme string, d Dialer) {
	if d == nil {
		panic("worker: Register dialer is nil")
	}
	transportsMu.Lock()
	defer transportsMu.Unlock()
	transports[scheme] = d
}

// Schemes returns the registered schemes in sorted order.
func Schemes() []string {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	out := make([]string, 0, len(transports))
	for s := range transports {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Dial connects to the program at rawURL.
func Dial(ctx context.Context, rawURL string) (Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("worker: %w", err)
	}
	transportsMu.RLock()
	d, ok := transports[u.Scheme]
	transportsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, u.Scheme)
	}
	conn, err := d(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("worker: dial %s: %w", rawURL, err)
	}
	Logger().Info("worker: connected", "url", rawURL)
	return conn, nil
}

// Layer returns the layer id carried in the l query parameter of a program
// URL.
func Layer(u *url.URL) string {
	return u.Query().Get("l")
}

// target returns the opaque part of a URL such as builtin:default or
// exec:/bin/prog.
func target(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	return u.Path
}

func init() {
	Register("builtin", dialBuiltin)
	Register("exec", dialExec)
	Register("ws", dialWebsocket)
	Register("wss", dialWebsocket)
}
