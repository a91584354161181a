package worker

import (
	"bufio"
	"bytes"
	"io"
	"sync"

	"github.com/gorilla/websocket"
)

// Conn carries whole messages between a host and a program.
//
// ReadMessage is called from one goroutine at a time. WriteMessage may be
// called concurrently with ReadMessage.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(msg []byte) error
	Close() error
}

// streamConn frames messages as newline-delimited JSON on a byte stream.
type streamConn struct {
	r      *bufio.Reader
	w      io.Writer
	closer func() error

	wmu sync.Mutex
}

// NewStreamConn returns a Conn exchanging newline-delimited messages over r
// and w. Close calls closer, which may be nil.
func NewStreamConn(r io.Reader, w io.Writer, closer func() error) Conn {
	return &streamConn{r: bufio.NewReader(r), w: w, closer: closer}
}

func (c *streamConn) ReadMessage() ([]byte, error) {
	for {
		line, err := c.r.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			return line, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (c *streamConn) WriteMessage(msg []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	buf := make([]byte, 0, len(msg)+1)
	buf = append(buf, msg...)
	buf = append(buf, '\n')
	_, err := c.w.Write(buf)
	return err
}

func (c *streamConn) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// wsConn adapts a websocket connection.
type wsConn struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn}
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	for {
		typ, msg, err := c.conn.ReadMessage()
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		if typ == websocket.TextMessage || typ == websocket.BinaryMessage {
			return msg, nil
		}
	}
}

func (c *wsConn) WriteMessage(msg []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

func (c *wsConn) Close() error {
	c.wmu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.wmu.Unlock()
	return c.conn.Close()
}
