package ggmap

import (
	"testing"
	"time"

	"github.com/gogpu/ggmap/worker"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.defaultProgram != DefaultProgram {
		t.Errorf("defaultProgram = %q, want %q", o.defaultProgram, DefaultProgram)
	}
	if o.ackTimeout != DefaultAckTimeout {
		t.Errorf("ackTimeout = %v, want %v", o.ackTimeout, DefaultAckTimeout)
	}
	if o.queueSize != worker.DefaultQueueSize {
		t.Errorf("queueSize = %d, want %d", o.queueSize, worker.DefaultQueueSize)
	}
	if o.newCanvas == nil {
		t.Error("newCanvas is nil")
	}
}

func TestOptionsIgnoreInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		opt   Option
		check func(options) bool
	}{
		{"empty program", WithDefaultProgram(""), func(o options) bool { return o.defaultProgram == DefaultProgram }},
		{"negative timeout", WithAckTimeout(-time.Second), func(o options) bool { return o.ackTimeout == DefaultAckTimeout }},
		{"zero timeout", WithAckTimeout(0), func(o options) bool { return o.ackTimeout == 0 }},
		{"zero queue", WithQueueSize(0), func(o options) bool { return o.queueSize == worker.DefaultQueueSize }},
		{"queue", WithQueueSize(3), func(o options) bool { return o.queueSize == 3 }},
		{"nil factory", WithCanvasFactory(nil), func(o options) bool { return o.newCanvas != nil }},
		{"program", WithDefaultProgram("exec:worker"), func(o options) bool { return o.defaultProgram == "exec:worker" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			tt.opt(&o)
			if !tt.check(o) {
				t.Errorf("unexpected options %+v", o)
			}
		})
	}
}
