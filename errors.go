package ggmap

import (
	"errors"
	"fmt"
)

var (
	// ErrAckTimeout is reported when a program does not acknowledge a
	// data load in time.
	ErrAckTimeout = errors.New("ggmap: acknowledgement timed out")

	// ErrStopped is returned by operations on a stopped renderer.
	ErrStopped = errors.New("ggmap: renderer stopped")

	// ErrLayerExists is returned when adding a layer twice.
	ErrLayerExists = errors.New("ggmap: layer already exists")
)

// WorkerFaultError reports that a layer's worker terminated abnormally.
// The renderer is stopped and is not restarted.
type WorkerFaultError struct {
	Layer string
	Err   error
}

func (e *WorkerFaultError) Error() string {
	return fmt.Sprintf("ggmap: worker for layer %q failed: %v", e.Layer, e.Err)
}

func (e *WorkerFaultError) Unwrap() error {
	return e.Err
}
