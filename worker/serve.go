package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/paulmach/orb/geojson"

	"github.com/gogpu/ggmap/painter"
)

// Frame is one frame request as seen by a program.
type Frame struct {
	ID        string
	Layer     string
	Transform [6]float64
	Extent    [4]float64

	// Features is the program's current data set. Programs must not modify
	// the features.
	Features []*geojson.Feature
}

// Program computes drawing commands for frames. Render may be called
// concurrently for different frames; ctx is cancelled when the host
// cancels the frame or the session ends.
type Program interface {
	Render(ctx context.Context, f *Frame) (painter.Batch, error)
}

// ProgramFunc adapts a function to the Program interface.
type ProgramFunc func(ctx context.Context, f *Frame) (painter.Batch, error)

// Render calls fn(ctx, f).
func (fn ProgramFunc) Render(ctx context.Context, f *Frame) (painter.Batch, error) {
	return fn(ctx, f)
}

// ServeOption configures Serve.
type ServeOption func(*session)

// WithLayer sets the layer id reported to the program in each Frame.
func WithLayer(id string) ServeOption {
	return func(s *session) {
		s.layer = id
	}
}

// Serve runs p against the host at the other end of conn until the host
// disconnects or ctx is done. It keeps the data set sent by init and
// update messages, acknowledges them, and renders frames on their own
// goroutines. A clean disconnect returns nil.
func Serve(ctx context.Context, conn Conn, p Program, opts ...ServeOption) error {
	s := &session{
		conn:   conn,
		prog:   p,
		frames: make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		b, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return fmt.Errorf("worker: read: %w", err)
		}
		var req Request
		if err := json.Unmarshal(b, &req); err != nil {
			Logger().Warn("worker: malformed request", "err", err)
			continue
		}
		s.handle(ctx, &req, &wg)
	}
}

type session struct {
	conn  Conn
	prog  Program
	layer string
	data  dataset

	mu     sync.Mutex
	frames map[string]context.CancelFunc
}

func (s *session) handle(ctx context.Context, req *Request, wg *sync.WaitGroup) {
	switch req.Name {
	case MsgInit:
		s.data.replace(req.Models)
		s.send(Response{Name: MsgAck, ID: req.Ack})
	case MsgUpdate:
		s.data.upsert(req.Models)
		s.send(Response{Name: MsgAck, ID: req.Ack})
	case MsgFrame:
		frame := &Frame{
			ID:        req.ID,
			Layer:     s.layer,
			Transform: req.Transform,
			Extent:    req.Extent,
			Features:  s.data.list(),
		}
		fctx, cancel := context.WithCancel(ctx)
		s.mu.Lock()
		s.frames[req.ID] = cancel
		s.mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				s.mu.Lock()
				delete(s.frames, frame.ID)
				s.mu.Unlock()
				cancel()
			}()
			s.render(fctx, frame)
		}()
	case MsgCancel:
		s.mu.Lock()
		cancel, ok := s.frames[req.ID]
		s.mu.Unlock()
		if ok {
			cancel()
		}
	default:
		Logger().Debug("worker: unknown request", "name", req.Name)
	}
}

func (s *session) render(ctx context.Context, f *Frame) {
	batch, err := s.prog.Render(ctx, f)
	if ctx.Err() != nil {
		Logger().Debug("worker: frame cancelled", "id", f.ID)
		return
	}
	if err != nil {
		s.send(Response{Name: MsgError, ID: f.ID, Error: err.Error()})
		return
	}
	if batch == nil {
		batch = painter.Batch{}
	}
	cmds, err := json.Marshal(batch)
	if err != nil {
		s.send(Response{Name: MsgError, ID: f.ID, Error: err.Error()})
		return
	}
	s.send(Response{Name: MsgResult, ID: f.ID, Commands: cmds})
}

func (s *session) send(resp Response) {
	b, err := json.Marshal(resp)
	if err != nil {
		Logger().Error("worker: encode response", "err", err)
		return
	}
	if err := s.conn.WriteMessage(b); err != nil {
		Logger().Debug("worker: write response", "name", resp.Name, "err", err)
	}
}

// dataset is the ordered feature set of a session. Features with an id
// are replaced in place by updates; features without one are appended.
type dataset struct {
	features []*geojson.Feature
	index    map[string]int
}

func (d *dataset) replace(fs []*geojson.Feature) {
	d.features = nil
	d.index = make(map[string]int, len(fs))
	d.upsert(fs)
}

func (d *dataset) upsert(fs []*geojson.Feature) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	for _, f := range fs {
		if f == nil {
			continue
		}
		if f.ID != nil {
			key := fmt.Sprint(f.ID)
			if i, ok := d.index[key]; ok {
				d.features[i] = f
				continue
			}
			d.index[key] = len(d.features)
		}
		d.features = append(d.features, f)
	}
}

// list returns a copy of the feature slice.
func (d *dataset) list() []*geojson.Feature {
	return append([]*geojson.Feature(nil), d.features...)
}
