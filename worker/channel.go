package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// DefaultQueueSize is the default capacity of a channel's outbound queue.
const DefaultQueueSize = 64

var (
	// ErrStopped is returned when posting to a stopped channel.
	ErrStopped = errors.New("worker: channel stopped")

	// ErrBacklog is returned when the outbound queue is full.
	ErrBacklog = errors.New("worker: outbound queue full")
)

// Option configures a Channel.
type Option func(*Channel)

// WithQueueSize sets the capacity of the outbound queue.
func WithQueueSize(n int) Option {
	return func(c *Channel) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// Channel is the host side of a program connection.
//
// Posted requests go through a bounded queue drained by one writer
// goroutine. A reader goroutine dispatches responses: acks to the handler
// registered with Once for their id, frames to the OnFrame handler.
// Handlers run on the reader goroutine and must not block.
type Channel struct {
	conn      Conn
	queueSize int
	inbox     chan []byte

	mu      sync.Mutex
	once    map[string]func(Response)
	onFrame func(Response)

	stop sync.Once
	done chan struct{}
	err  error
}

// NewChannel starts a channel over conn. The channel owns conn and closes
// it when stopped.
func NewChannel(conn Conn, opts ...Option) *Channel {
	c := &Channel{
		conn:      conn,
		queueSize: DefaultQueueSize,
		once:      make(map[string]func(Response)),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.inbox = make(chan []byte, c.queueSize)
	go c.writeLoop()
	go c.readLoop()
	return c
}

// Post queues req for the program. It never blocks: it fails with
// ErrBacklog when the queue is full and ErrStopped after Stop or a fault.
func (c *Channel) Post(req *Request) error {
	b, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("worker: encode %s: %w", req.Name, err)
	}
	select {
	case <-c.done:
		return ErrStopped
	default:
	}
	select {
	case c.inbox <- b:
		return nil
	case <-c.done:
		return ErrStopped
	default:
		return ErrBacklog
	}
}

// Once registers fn for the ack with the given id. fn is called at most
// once and is then removed.
func (c *Channel) Once(ack string, fn func(Response)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.once[ack] = fn
}

// Forget removes the handler for ack, if any, and reports whether one was
// registered.
func (c *Channel) Forget(ack string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.once[ack]
	delete(c.once, ack)
	return ok
}

// OnFrame sets the handler for frame results.
func (c *Channel) OnFrame(fn func(Response)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFrame = fn
}

// Stop terminates the channel and closes the connection. It is safe to
// call more than once.
func (c *Channel) Stop() {
	c.shutdown(nil)
}

// Done is closed when the channel has stopped, either by Stop or because
// the connection failed.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Err returns the connection failure that stopped the channel. It is nil
// while the channel runs and after a regular Stop.
func (c *Channel) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

func (c *Channel) shutdown(err error) {
	c.stop.Do(func() {
		c.err = err
		close(c.done)
		if cerr := c.conn.Close(); cerr != nil {
			Logger().Debug("worker: close", "err", cerr)
		}
		c.mu.Lock()
		clear(c.once)
		c.mu.Unlock()
		if err != nil {
			Logger().Error("worker: channel failed", "err", err)
		} else {
			Logger().Info("worker: channel stopped")
		}
	})
}

func (c *Channel) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case b := <-c.inbox:
			if err := c.conn.WriteMessage(b); err != nil {
				c.shutdown(fmt.Errorf("worker: write: %w", err))
				return
			}
		}
	}
}

func (c *Channel) readLoop() {
	for {
		b, err := c.conn.ReadMessage()
		if err != nil {
			c.shutdown(fmt.Errorf("worker: read: %w", err))
			return
		}
		var resp Response
		if err := json.Unmarshal(b, &resp); err != nil {
			Logger().Warn("worker: malformed response", "err", err)
			continue
		}
		c.dispatch(resp)
	}
}

func (c *Channel) dispatch(resp Response) {
	switch resp.Name {
	case MsgAck:
		c.mu.Lock()
		fn, ok := c.once[resp.ID]
		delete(c.once, resp.ID)
		c.mu.Unlock()
		if !ok {
			Logger().Debug("worker: unexpected ack", "id", resp.ID)
			return
		}
		fn(resp)
	case MsgResult:
		c.mu.Lock()
		fn := c.onFrame
		c.mu.Unlock()
		if fn != nil {
			fn(resp)
		}
	case MsgError:
		Logger().Warn("worker: program error", "id", resp.ID, "err", resp.Error)
	default:
		Logger().Debug("worker: unknown response", "name", resp.Name)
	}
}
