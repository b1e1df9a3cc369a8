// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package numdiff estimates gradients and Hessians of scalar functions by
// finite differences, so value-only objectives can feed gradient-based
// minimizers.
//
// # Reference:
//
//   - https://en.wikipedia.org/wiki/Finite_difference
//   - https://github.com/scipy/scipy/blob/main/scipy/optimize/_numdiff.py
package numdiff

import (
	"errors"
	"math"
)

var sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
var cubeEps = math.Pow(math.Nextafter(1, 2)-1, float64(1)/3)

// Scalar is a real-valued function of an n-vector.
type Scalar func(x []float64) float64

type Method int

const (
	// Forward use the first order accuracy forward difference.
	Forward Method = iota
	// Central use the second order accuracy central difference.
	Central
)

// GradSpec estimates the gradient of a scalar function.
type GradSpec struct {
	N int
	// Function of which to estimate the gradient.
	Object Scalar
	// Finite difference method to use.
	Method Method
	// Relative step size used to compute the absolute step size as
	// h = RelStep × 𝚖𝚊𝚡(1, |x₀ᵢ|). Selected automatically when zero:
	// √𝚎𝚙𝚜 for Forward, ∛𝚎𝚙𝚜 for Central.
	RelStep float64
	x       []float64
}

// Check validates the parameters and sizes the scratch buffer.
func (gs *GradSpec) Check(x0, grad []float64) (err error) {
	switch {
	case gs.N <= 0:
		err = errors.New("negative dimensions")
	case gs.Method != Forward && gs.Method != Central:
		err = errors.New("unknown method")
	case gs.Object == nil:
		err = errors.New("object function is required")
	case gs.N != len(x0):
		err = errors.New("invalid x0 dimensions")
	case gs.N != len(grad):
		err = errors.New("invalid grad dimensions")
	}
	if err != nil {
		return
	}
	if len(gs.x) != gs.N {
		gs.x = make([]float64, gs.N)
	}
	return
}

func (gs *GradSpec) relStep() float64 {
	if gs.RelStep > 0 {
		return gs.RelStep
	}
	if gs.Method == Central {
		return cubeEps
	}
	return sqrtEps
}

// Grad estimates the gradient of Object at x0 into grad.
func (gs *GradSpec) Grad(x0, grad []float64) error {
	if err := gs.Check(x0, grad); err != nil {
		return err
	}

	rel := gs.relStep()
	copy(gs.x, x0)

	var f0 float64
	if gs.Method == Forward {
		f0 = gs.Object(gs.x)
	}

	for i, x := range x0 {
		h := rel * math.Max(1, math.Abs(x))
		if gs.Method == Central {
			gs.x[i] = x + h
			fp := gs.Object(gs.x)
			gs.x[i] = x - h
			fm := gs.Object(gs.x)
			grad[i] = (fp - fm) / (2 * h)
		} else {
			gs.x[i] = x + h
			grad[i] = (gs.Object(gs.x) - f0) / h
		}
		gs.x[i] = x
	}
	return nil
}

// Evaluation adapts the spec to an objective-with-gradient callback of the
// shape the minimizer consumes: the value comes from Object and the
// gradient from differencing. The returned closure reuses the spec's
// scratch buffer and is not safe for concurrent use.
func (gs *GradSpec) Evaluation() func(x, g []float64) float64 {
	return func(x, g []float64) float64 {
		if err := gs.Grad(x, g); err != nil {
			panic(err)
		}
		return gs.Object(x)
	}
}

// HessSpec estimates the Hessian of a scalar function by central second
// differences on the function values.
type HessSpec struct {
	N int
	// Function of which to estimate the Hessian.
	Object Scalar
	// Relative step size, ∛𝚎𝚙𝚜 when zero.
	RelStep float64
	x       []float64
}

// Check validates the parameters and sizes the scratch buffer.
func (hs *HessSpec) Check(x0, hess []float64) (err error) {
	switch {
	case hs.N <= 0:
		err = errors.New("negative dimensions")
	case hs.Object == nil:
		err = errors.New("object function is required")
	case hs.N != len(x0):
		err = errors.New("invalid x0 dimensions")
	case hs.N*hs.N != len(hess):
		err = errors.New("invalid hess dimensions")
	}
	if err != nil {
		return
	}
	if len(hs.x) != hs.N {
		hs.x = make([]float64, hs.N)
	}
	return
}

// Hess estimates the Hessian of Object at x0 into the n×n row-major hess.
// The result is symmetric by construction.
func (hs *HessSpec) Hess(x0, hess []float64) error {
	if err := hs.Check(x0, hess); err != nil {
		return err
	}

	rel := hs.RelStep
	if rel <= 0 {
		rel = cubeEps
	}

	n := hs.N
	copy(hs.x, x0)
	f0 := hs.Object(hs.x)

	for i := 0; i < n; i++ {
		xi := x0[i]
		hi := rel * math.Max(1, math.Abs(xi))

		// ∂²f/∂xᵢ² = (f(x+hᵢeᵢ) - 2f(x) + f(x-hᵢeᵢ)) / hᵢ²
		hs.x[i] = xi + hi
		fp := hs.Object(hs.x)
		hs.x[i] = xi - hi
		fm := hs.Object(hs.x)
		hs.x[i] = xi
		hess[i*n+i] = (fp - 2*f0 + fm) / (hi * hi)

		// ∂²f/∂xᵢ∂xⱼ by the four-point cross stencil, stored symmetrically.
		for j := i + 1; j < n; j++ {
			xj := x0[j]
			hj := rel * math.Max(1, math.Abs(xj))

			hs.x[i], hs.x[j] = xi+hi, xj+hj
			fpp := hs.Object(hs.x)
			hs.x[j] = xj - hj
			fpm := hs.Object(hs.x)
			hs.x[i] = xi - hi
			fmm := hs.Object(hs.x)
			hs.x[j] = xj + hj
			fmp := hs.Object(hs.x)
			hs.x[i], hs.x[j] = xi, xj

			d := (fpp - fpm - fmp + fmm) / (4 * hi * hj)
			hess[i*n+j] = d
			hess[j*n+i] = d
		}
	}
	return nil
}

// HessianEval adapts the spec to the Hessian callback shape the Newton
// minimizer consumes. The closure reuses the spec's scratch buffer and is
// not safe for concurrent use.
func (hs *HessSpec) HessianEval() func(x, h []float64) {
	return func(x, h []float64) {
		if err := hs.Hess(x, h); err != nil {
			panic(err)
		}
	}
}
