// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hzmin implements an unconstrained minimization engine built
// around the Hager-Zhang line search (W.W. Hager and H. Zhang,
// "Algorithm 851: CG_DESCENT", ACM TOMS 32, 2006, and "The limited memory
// conjugate gradient method", SIAM J. Optim. 23, 2013).
//
// Two direction rules consume the line search: a preconditioned nonlinear
// conjugate gradient update with the 2012 safeguard, and a Newton update
// solving against a positive-definitized LDLᵀ factor of the Hessian.
package hzmin

const (
	zero  = 0.0
	one   = 1.0
	two   = 2.0
	three = 3.0
	eps   = float64(7)/3 - float64(4)/3 - 1.
)

// IterTask reports why the optimization loop stopped.
type IterTask int

const (
	iterLoop IterTask = 0
	// IterConv convergence criteria satisfied.
	IterConv IterTask = 1 << (4 + iota)
	// IterStop designed stopping condition reached.
	IterStop
	// IterHalt contract violation, iterate may be unusable.
	IterHalt
)

const (
	// ConvCriteria one of the x/f/g tolerances is satisfied.
	ConvCriteria = IterConv | 1
	// StopOverIterLimit the number of iterations exceeds the limit.
	StopOverIterLimit = IterStop | 1
	// StopDegenerateDirection the steepest-descent reset still fails to
	// produce a descent direction.
	StopDegenerateDirection = IterStop | 2
	// HaltNonFiniteValue the objective value at an accepted point is NaN or Inf.
	HaltNonFiniteValue = IterHalt | 1
	// HaltEvalPanic the objective callback panicked.
	HaltEvalPanic = IterHalt | 2
)

// Evaluation is a function type for evaluating the objective function and gradient.
type Evaluation func(x []float64, g []float64) (f float64)

// HessianEval evaluates the Hessian at x into the n×n row-major matrix h.
// The matrix must be symmetric.
type HessianEval func(x []float64, h []float64)
