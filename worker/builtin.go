package worker

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sort"
	"sync"
)

var (
	programsMu sync.RWMutex
	programs   = make(map[string]Program)
)

// RegisterProgram makes p available as builtin:<name>. Registering a name
// twice replaces the earlier program.
func RegisterProgram(name string, p Program) {
	if p == nil {
		panic("worker: RegisterProgram program is nil")
	}
	programsMu.Lock()
	defer programsMu.Unlock()
	programs[name] = p
}

// Programs returns the names of the registered builtin programs.
func Programs() []string {
	programsMu.RLock()
	defer programsMu.RUnlock()
	out := make([]string, 0, len(programs))
	for name := range programs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// dialBuiltin runs the program on its own goroutine at the far end of an
// in-memory pipe. Messages cross the pipe encoded, so the program never
// shares memory with the host.
func dialBuiltin(_ context.Context, u *url.URL) (Conn, error) {
	name := target(u)
	programsMu.RLock()
	p, ok := programs[name]
	programsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no builtin program %q", name)
	}

	host, prog := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer cancel()
		err := Serve(ctx, NewStreamConn(prog, prog, prog.Close), p, WithLayer(Layer(u)))
		if err != nil {
			Logger().Debug("worker: builtin program exited", "program", name, "err", err)
		}
	}()
	return NewStreamConn(host, host, func() error {
		cancel()
		return host.Close()
	}), nil
}
