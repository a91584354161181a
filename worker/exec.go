package worker

import (
	"context"
	"errors"
	"net/url"
	"os"
	"os/exec"
	"time"
)

// LayerEnv is the environment variable holding the layer id of a program
// started through the exec transport.
const LayerEnv = "GGMAP_LAYER"

// exitGrace is how long a sub-process may take to exit after its stdin
// is closed before it is killed.
const exitGrace = 2 * time.Second

// dialExec starts the program as a sub-process. Requests go to its stdin
// and responses are read from its stdout, one JSON message per line. The
// program's stderr is passed through. Repeated arg query parameters become
// the command line arguments.
func dialExec(_ context.Context, u *url.URL) (Conn, error) {
	path := target(u)
	if path == "" {
		return nil, errors.New("exec: empty program path")
	}
	cmd := exec.Command(path, u.Query()["arg"]...)
	cmd.Env = append(os.Environ(), LayerEnv+"="+Layer(u))
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	closer := func() error {
		_ = stdin.Close()
		select {
		case err := <-exited:
			return err
		case <-time.After(exitGrace):
			_ = cmd.Process.Kill()
			return <-exited
		}
	}
	return NewStreamConn(stdout, stdin, closer), nil
}
