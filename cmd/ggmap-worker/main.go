// Command ggmap-worker runs the default layer program out of process.
//
// Without flags it speaks the worker protocol on stdin and stdout, which is
// how exec: program URLs start it. The layer id comes from the
// GGMAP_LAYER environment variable.
//
// With -listen it serves the protocol over WebSocket instead; layers
// connect to ws://host:port/?l=<layer>.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gogpu/ggmap/program"
	"github.com/gogpu/ggmap/worker"
)

func main() {
	var (
		listen  = flag.String("listen", "", "serve WebSocket connections on this address")
		verbose = flag.Bool("v", false, "log to stderr")
	)
	flag.Parse()

	// stdout carries protocol messages, so logs always go to stderr.
	log.SetOutput(os.Stderr)
	if *verbose {
		worker.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if *listen != "" {
		err = serveWebsocket(ctx, *listen)
	} else {
		conn := worker.NewStreamConn(os.Stdin, os.Stdout, nil)
		err = worker.Serve(ctx, conn, program.Default{}, worker.WithLayer(os.Getenv(worker.LayerEnv)))
	}
	if err != nil {
		log.Fatal(err)
	}
}

func serveWebsocket(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           worker.Handler(program.Default{}),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Printf("serving %s on %s", program.URL, addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
