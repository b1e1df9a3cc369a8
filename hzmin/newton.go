// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hzmin

import "math"

// newtonUpdater advances the iterate with a Newton direction solved against
// the positive-definitized LDLᵀ factor of the current Hessian.
type newtonUpdater struct {
	search   SearchFunc
	alphaMax float64
}

// update performs one modified Newton iteration. The Hessian h (n×n
// row-major) must hold the evaluation at st.x on entry; it is re-evaluated
// at the accepted point before returning. fac receives the factor.
//
// Because the factor is positive definite the direction is always descent,
// so unlike CG there is no reset path here.
func (nm *newtonUpdater) update(st *iterState, h, fac []float64, log *SearchLog,
	eval Evaluation, hess HessianEval) error {

	n := st.n

	// s = -F⁻¹g
	ldltPositive(n, h, fac)
	ldltSolve(n, fac, st.g, st.s)
	for i := 0; i < n; i++ {
		st.s[i] = -st.s[i]
	}

	dphi0 := ddot(n, st.g, st.s)
	log.Clear()
	log.Push(zero, st.f, dphi0)

	// The natural Newton step is 1; near the solution the search accepts it
	// outright via the approximate Wolfe test.
	var fE, gE int
	st.alpha, fE, gE, st.task = nm.search(eval, st.x, st.s, st.xLine, st.gLine, log,
		math.Min(one, nm.alphaMax), false, nm.alphaMax)
	st.fEvals += fE
	st.gEvals += gE

	if err := st.advance(eval); err != nil {
		return err
	}

	hess(st.x, h)
	return nil
}
