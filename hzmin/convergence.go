// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hzmin

import "math"

// Convergence carries the per-criterion termination flags of one assessment
// together with the tolerances that produced them.
type Convergence struct {
	// X the sup-norm of the last step is below XTol.
	X bool
	// F the last value change is small relative to the value and FTol.
	F bool
	// G the gradient sup-norm is below GTol.
	G bool
	// Converged any single criterion suffices.
	Converged bool
	// XTol, FTol, GTol are the thresholds used.
	XTol, FTol, GTol float64
}

// AssessConvergence evaluates the position, value and gradient criteria at
// the current iterate. Pure: no state is read or written besides the
// arguments.
func AssessConvergence(x, xPrev []float64, f, fPrev float64, g []float64,
	xTol, fTol, gTol float64) (c Convergence) {

	c.XTol, c.FTol, c.GTol = xTol, fTol, gTol
	c.X = dmaxDiff(len(x), x, xPrev) <= xTol
	c.F = math.Abs(f-fPrev) <= fTol*(math.Abs(f)+fTol)
	c.G = dnrmInf(len(g), g) <= gTol
	c.Converged = c.X || c.F || c.G
	return
}
