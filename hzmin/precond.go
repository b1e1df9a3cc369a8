// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hzmin

// Preconditioner is a linear operator P approximating the objective
// curvature, used to rescale the gradient for faster convergence.
// Implementations may cache a factorization in Prepare.
type Preconditioner interface {
	// Prepare updates the operator for the point x. It may be a no-op.
	Prepare(x []float64)
	// Solve writes P⁻¹v into out. out and v have equal length and must not alias.
	Solve(out, v []float64)
	// Quad returns the forward quadratic form vᵀPv.
	Quad(v []float64) float64
}

// identity is the null preconditioner: P = I.
type identity struct{}

func (identity) Prepare([]float64) {}

func (identity) Solve(out, v []float64) {
	dcopy(len(v), v, out)
}

func (identity) Quad(v []float64) float64 {
	return ddot(len(v), v, v)
}
