// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"testing"
)

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	r.Register("low", 1, New)
	r.Register("high", 100, New)
	r.Register("mid", 50, New)

	list := r.List()
	want := []string{"high", "mid", "low"}
	if len(list) != len(want) {
		t.Fatalf("List() = %v, want %v", list, want)
	}
	for i := range want {
		if list[i] != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, list[i], want[i])
		}
	}

	r.Unregister("high")
	f, err := r.Lookup("")
	if err != nil || f == nil {
		t.Fatalf("Lookup(\"\") error = %v", err)
	}
}

func TestRegistryNotFound(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Lookup(""); !errors.Is(err, ErrNoBackendAvailable) {
		t.Errorf("Lookup on empty registry error = %v, want ErrNoBackendAvailable", err)
	}

	r.Register("software", 10, New)
	_, err := r.NewByName("vulkan", 4, 4)
	var nf *BackendNotFoundError
	if !errors.As(err, &nf) || nf.Name != "vulkan" {
		t.Errorf("NewByName(vulkan) error = %v, want BackendNotFoundError", err)
	}
}

func TestSoftwareBackendRegistered(t *testing.T) {
	c, err := NewByName("software", 12, 7)
	if err != nil {
		t.Fatalf("NewByName(software) error = %v", err)
	}
	if c.Width() != 12 || c.Height() != 7 {
		t.Errorf("size = %dx%d, want 12x7", c.Width(), c.Height())
	}
}
