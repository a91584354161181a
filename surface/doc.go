// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides the drawing surface used by map layers.
//
// A Canvas follows the HTML canvas 2D context model: a state stack holding
// the transform, style and clip; paths whose points are transformed as
// they are added; fill, stroke and clip; image drawing; and compositing of
// one canvas onto another.
//
// # Software canvas
//
// GGCanvas rasterizes paths with github.com/gogpu/gg into a scratch
// buffer and composites the covered area onto a premultiplied
// *image.RGBA. Clipping, global alpha and composite operations are applied
// during that composite step, so every CompositeOp works with any path.
//
// Images are resampled with golang.org/x/image/draw. A canvas drawn onto
// another canvas at the origin is copied pixel for pixel.
//
// # Colors
//
// ParseColor accepts the CSS forms used in layer styles: hex, rgb(),
// rgba(), "transparent" and the SVG color keywords.
//
// # Registry
//
// Backends are registered by name. The "software" backend is always
// present:
//
//	c, err := surface.NewByName("software", 512, 512)
package surface
