package worker

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
)

func dialWebsocket(ctx context.Context, u *url.URL) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}
	return newWSConn(conn), nil
}

// Handler serves p to websocket clients. Each connection gets its own
// runtime state. The layer id is taken from the l query parameter.
func Handler(p Program) http.Handler {
	upgrader := websocket.Upgrader{}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			Logger().Warn("worker: upgrade", "err", err)
			return
		}
		c := newWSConn(conn)
		defer c.Close()

		if err := Serve(r.Context(), c, p, WithLayer(Layer(r.URL))); err != nil {
			Logger().Debug("worker: websocket session ended", "err", err)
		}
	})
}
