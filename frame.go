package ggmap

import (
	"fmt"
	"strconv"
	"strings"
)

// FrameID identifies one frame request of a layer. Gen grows with every
// request, so ids are never reused.
type FrameID struct {
	Layer string
	Gen   uint64
}

// String returns the wire form "<layer>.<gen>". The zero FrameID, which
// names no frame, returns "".
func (id FrameID) String() string {
	if id.Gen == 0 {
		return ""
	}
	return id.Layer + "." + strconv.FormatUint(id.Gen, 10)
}

// IsZero reports whether id names no frame.
func (id FrameID) IsZero() bool {
	return id.Gen == 0
}

// ParseFrameID parses the wire form of a frame id. The layer part may
// itself contain dots.
func ParseFrameID(s string) (FrameID, error) {
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		return FrameID{}, fmt.Errorf("ggmap: malformed frame id %q", s)
	}
	gen, err := strconv.ParseUint(s[i+1:], 10, 64)
	if err != nil || gen == 0 {
		return FrameID{}, fmt.Errorf("ggmap: malformed frame id %q", s)
	}
	return FrameID{Layer: s[:i], Gen: gen}, nil
}
