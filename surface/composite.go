// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"image"
	"math"
)

// CompositeOp selects how drawn pixels combine with the pixels already on
// the canvas. Names follow the HTML canvas globalCompositeOperation values.
type CompositeOp uint8

const (
	// CompositeSourceOver draws new content over existing content.
	CompositeSourceOver CompositeOp = iota

	// CompositeMultiply multiplies source and destination colors.
	// Overlapping layers darken rather than occlude.
	CompositeMultiply

	// CompositeScreen is the inverse of multiply.
	CompositeScreen

	// CompositeOverlay combines multiply and screen by destination lightness.
	CompositeOverlay

	// CompositeDarken keeps the darker of source and destination.
	CompositeDarken

	// CompositeLighten keeps the lighter of source and destination.
	CompositeLighten

	// CompositeDestinationOver draws new content behind existing content.
	CompositeDestinationOver

	// CompositeDestinationIn keeps existing content where the source is opaque.
	CompositeDestinationIn

	// CompositeDestinationOut erases existing content where the source is opaque.
	CompositeDestinationOut

	// CompositeSourceAtop draws new content only where content exists.
	CompositeSourceAtop

	// CompositeXor keeps only the non-overlapping parts.
	CompositeXor

	// CompositeLighter adds source and destination.
	CompositeLighter

	// CompositeCopy replaces destination with source inside the drawn area.
	CompositeCopy
)

var compositeNames = [...]string{
	CompositeSourceOver:      "source-over",
	CompositeMultiply:        "multiply",
	CompositeScreen:          "screen",
	CompositeOverlay:         "overlay",
	CompositeDarken:          "darken",
	CompositeLighten:         "lighten",
	CompositeDestinationOver: "destination-over",
	CompositeDestinationIn:   "destination-in",
	CompositeDestinationOut:  "destination-out",
	CompositeSourceAtop:      "source-atop",
	CompositeXor:             "xor",
	CompositeLighter:         "lighter",
	CompositeCopy:            "copy",
}

// String returns the canvas name of the operation.
func (op CompositeOp) String() string {
	if int(op) < len(compositeNames) {
		return compositeNames[op]
	}
	return "unknown"
}

// ParseCompositeOp maps a canvas globalCompositeOperation name to a
// CompositeOp. The second result is false for unsupported names.
func ParseCompositeOp(name string) (CompositeOp, bool) {
	for i, n := range compositeNames {
		if n == name {
			return CompositeOp(i), true
		}
	}
	return CompositeSourceOver, false
}

// source describes the pixels being composited. Like image.RGBA and gg
// pixmaps, pix holds premultiplied RGBA.
type source struct {
	pix    []uint8
	stride int
	origin image.Point // pixel of pix that lines up with dst (0, 0)
}

// composite blends src into dst inside r. mask, when non-nil, holds one
// coverage byte per dst pixel. alpha scales the source after quantization.
func composite(dst *image.RGBA, src source, r image.Rectangle, mask []uint8, alpha float64, op CompositeOp) {
	r = r.Intersect(dst.Rect)
	if r.Empty() || alpha <= 0 {
		return
	}
	w := dst.Rect.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			si := (y-src.origin.Y)*src.stride + (x-src.origin.X)*4
			if si < 0 || si+3 >= len(src.pix) {
				continue
			}
			sa8 := src.pix[si+3]
			if sa8 == 0 && opKeepsDestOnTransparent(op) {
				continue
			}
			sr8, sg8, sb8 := src.pix[si], src.pix[si+1], src.pix[si+2]

			cov := alpha
			if mask != nil {
				cov *= float64(mask[(y-dst.Rect.Min.Y)*w+(x-dst.Rect.Min.X)]) / 255
				if cov == 0 {
					continue
				}
			}

			sr := float64(sr8) / 255 * cov
			sg := float64(sg8) / 255 * cov
			sb := float64(sb8) / 255 * cov
			sa := float64(sa8) / 255 * cov

			di := dst.PixOffset(x, y)
			dr := float64(dst.Pix[di]) / 255
			dg := float64(dst.Pix[di+1]) / 255
			db := float64(dst.Pix[di+2]) / 255
			da := float64(dst.Pix[di+3]) / 255

			rr, rg, rb, ra := blend(op, sr, sg, sb, sa, dr, dg, db, da)
			dst.Pix[di] = quantize(rr)
			dst.Pix[di+1] = quantize(rg)
			dst.Pix[di+2] = quantize(rb)
			dst.Pix[di+3] = quantize(ra)
		}
	}
}

// opKeepsDestOnTransparent reports whether a fully transparent source pixel
// leaves the destination untouched.
func opKeepsDestOnTransparent(op CompositeOp) bool {
	switch op {
	case CompositeDestinationIn, CompositeCopy:
		return false
	}
	return true
}

// blend combines premultiplied source and destination colors.
func blend(op CompositeOp, sr, sg, sb, sa, dr, dg, db, da float64) (r, g, b, a float64) {
	switch op {
	case CompositeMultiply, CompositeScreen, CompositeOverlay, CompositeDarken, CompositeLighten:
		a = sa + da - sa*da
		r = separable(op, sr, sa, dr, da)
		g = separable(op, sg, sa, dg, da)
		b = separable(op, sb, sa, db, da)
		return r, g, b, a
	case CompositeDestinationOver:
		k := 1 - da
		return sr*k + dr, sg*k + dg, sb*k + db, sa*k + da
	case CompositeDestinationIn:
		return dr * sa, dg * sa, db * sa, da * sa
	case CompositeDestinationOut:
		k := 1 - sa
		return dr * k, dg * k, db * k, da * k
	case CompositeSourceAtop:
		k := 1 - sa
		return sr*da + dr*k, sg*da + dg*k, sb*da + db*k, da
	case CompositeXor:
		ks, kd := 1-da, 1-sa
		return sr*ks + dr*kd, sg*ks + dg*kd, sb*ks + db*kd, sa*ks + da*kd
	case CompositeLighter:
		return math.Min(1, sr+dr), math.Min(1, sg+dg), math.Min(1, sb+db), math.Min(1, sa+da)
	case CompositeCopy:
		return sr, sg, sb, sa
	default:
		k := 1 - sa
		return sr + dr*k, sg + dg*k, sb + db*k, sa + da*k
	}
}

// separable applies a W3C separable blend mode to one premultiplied channel:
// (1 - Da)·Sc + (1 - Sa)·Dc + Sa·Da·B(cs, cd).
func separable(op CompositeOp, sc, sa, dc, da float64) float64 {
	var cs, cd float64
	if sa > 0 {
		cs = sc / sa
	}
	if da > 0 {
		cd = dc / da
	}
	var bv float64
	switch op {
	case CompositeMultiply:
		bv = cs * cd
	case CompositeScreen:
		bv = cs + cd - cs*cd
	case CompositeOverlay:
		if cd <= 0.5 {
			bv = 2 * cs * cd
		} else {
			bv = 1 - 2*(1-cs)*(1-cd)
		}
	case CompositeDarken:
		bv = math.Min(cs, cd)
	case CompositeLighten:
		bv = math.Max(cs, cd)
	}
	return (1-da)*sc + (1-sa)*dc + sa*da*bv
}

func quantize(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// clearRegion zeroes the pixels of an RGBA-layout buffer inside r.
func clearRegion(pix []uint8, stride int, bounds, r image.Rectangle) {
	r = r.Intersect(bounds)
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		start := (y-bounds.Min.Y)*stride + (r.Min.X-bounds.Min.X)*4
		clear(pix[start : start+r.Dx()*4])
	}
}
