// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"math"

	"github.com/gogpu/gg"
)

// FlatMatrix returns m as the six coefficients used by canvas setTransform
// and by the worker protocol: a b c d e f, where
//
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f
func FlatMatrix(m gg.Matrix) [6]float64 {
	return [6]float64{m.A, m.D, m.B, m.E, m.C, m.F}
}

// MatrixFromFlat is the inverse of FlatMatrix.
func MatrixFromFlat(a, b, c, d, e, f float64) gg.Matrix {
	return gg.Matrix{
		A: a, B: c, C: e,
		D: b, E: d, F: f,
	}
}

// scaleFactor returns the uniform scale of m, used to size strokes that are
// rasterized in device space.
func scaleFactor(m gg.Matrix) float64 {
	return math.Sqrt(math.Abs(m.A*m.E - m.B*m.D))
}
