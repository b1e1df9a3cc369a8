// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hzmin

import (
	"errors"
	"math"
)

// iterState owns every vector touched during one optimization run.
// x always reflects the last accepted point. All buffers are reused in
// place across iterations, so callers must not retain aliases to them.
type iterState struct {
	n int

	f, fPrev float64
	x, xPrev []float64
	g, gPrev []float64

	// preconditioned gradient and its saved previous value
	pg, pgPrev []float64
	// search direction
	s []float64
	// gradient difference and preconditioned-gradient difference
	y, py []float64
	// line-search scratch point and gradient
	xLine, gLine []float64

	// last accepted step and the hint for the next search episode
	alpha        float64
	mayTerminate bool
	// confidence of the last line-search result
	task SearchTask

	fEvals, gEvals int
}

func (st *iterState) init(n int) {
	st.n = n
	st.x = make([]float64, n)
	st.xPrev = make([]float64, n)
	st.g = make([]float64, n)
	st.gPrev = make([]float64, n)
	st.pg = make([]float64, n)
	st.pgPrev = make([]float64, n)
	st.s = make([]float64, n)
	st.y = make([]float64, n)
	st.py = make([]float64, n)
	st.xLine = make([]float64, n)
	st.gLine = make([]float64, n)
}

// seed evaluates the objective at the initial point and primes the
// preconditioned gradient and the steepest-descent direction.
// A non-finite initial value or gradient is a fatal precondition failure.
func (st *iterState) seed(eval Evaluation, x0 []float64, p Preconditioner) error {

	n := st.n
	dcopy(n, x0, st.x)
	dcopy(n, x0, st.xPrev)

	st.fEvals, st.gEvals = 0, 0
	st.f = eval(st.x, st.g)
	st.fEvals++
	st.gEvals++

	if !isFinite(st.f) {
		return errors.New("initial objective value is not finite")
	}
	for _, g := range st.g[:n] {
		if !isFinite(g) {
			return errors.New("initial gradient is not finite")
		}
	}
	st.fPrev = math.Inf(1)

	p.Prepare(st.x)
	p.Solve(st.pg, st.g)
	dcopy(n, st.pg, st.pgPrev)
	for i := 0; i < n; i++ {
		st.s[i] = -st.pg[i]
	}

	st.alpha = AlphaInit(math.NaN(), st.x, st.g, st.f)
	st.mayTerminate = false
	st.task = 0
	return nil
}

// advance accepts the step st.alpha along st.s and re-evaluates the
// objective there. A non-finite value at an accepted point is fatal.
func (st *iterState) advance(eval Evaluation) error {
	n := st.n
	dcopy(n, st.x, st.xPrev)
	daxpy(n, st.alpha, st.s, st.x)
	dcopy(n, st.g, st.gPrev)
	st.fPrev = st.f
	st.f = eval(st.x, st.g)
	st.fEvals++
	st.gEvals++
	if !isFinite(st.f) {
		return errors.New("objective value at accepted point is not finite")
	}
	return nil
}
