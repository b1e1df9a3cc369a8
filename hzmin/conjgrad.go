// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hzmin

import "math"

// defaultEta is the lower bound of the HZ 2012 beta safeguard.
const defaultEta = 0.4

// cgUpdater advances the iterate with the preconditioned nonlinear
// conjugate gradient rule of Hager and Zhang (2012).
type cgUpdater struct {
	eta      float64
	precond  Preconditioner
	search   SearchFunc
	alphaMax float64
}

// update performs one CG iteration: descent check with a steepest-descent
// reset, trial-step generation, line search, state advance, and the HZ 2012
// direction update. done reports the designed self-termination: the
// direction stayed non-descent even after the reset, which indicates the
// preconditioner/gradient relationship has degenerated.
func (cg *cgUpdater) update(st *iterState, log *SearchLog, eval Evaluation) (done bool, err error) {

	n := st.n

	// Reset the direction if it became corrupted.
	dphi0 := ddot(n, st.g, st.s)
	if dphi0 >= zero {
		for i := 0; i < n; i++ {
			st.s[i] = -st.pg[i]
		}
		dphi0 = ddot(n, st.g, st.s)
		if dphi0 >= zero {
			return true, nil
		}
	}

	// Refresh the line-search sample log with the step-0 seed.
	log.Clear()
	log.Push(zero, st.f, dphi0)

	// Trial step from the previous accepted step (HZ stages I0-I2).
	st.alpha = AlphaInit(st.alpha, st.x, st.g, st.f)
	alpha, mayTerminate, fE, gE := AlphaTry(st.alpha, eval, st.x, st.s, st.xLine, st.gLine, log, cg.alphaMax)
	st.fEvals += fE
	st.gEvals += gE

	st.alpha, fE, gE, st.task = cg.search(eval, st.x, st.s, st.xLine, st.gLine, log, alpha, mayTerminate, cg.alphaMax)
	st.fEvals += fE
	st.gEvals += gE

	if err = st.advance(eval); err != nil {
		return false, err
	}

	// HZ 2012 preconditioned beta with the eta safeguard.
	cg.precond.Prepare(st.x)
	dPd := cg.precond.Quad(st.s)
	etaK := cg.eta * ddot(n, st.s, st.gPrev) / dPd

	for i := 0; i < n; i++ {
		st.y[i] = st.g[i] - st.gPrev[i]
	}
	ydots := ddot(n, st.y, st.s)

	// One solve per iteration: the previous preconditioned gradient is a
	// saved copy, which also bounds the round-off in py.
	dcopy(n, st.pg, st.pgPrev)
	cg.precond.Solve(st.pg, st.g)
	for i := 0; i < n; i++ {
		st.py[i] = st.pg[i] - st.pgPrev[i]
	}

	betaK := (ddot(n, st.y, st.pg) - ddot(n, st.y, st.py)*ddot(n, st.g, st.s)/ydots) / ydots
	beta := math.Max(betaK, etaK)
	for i := 0; i < n; i++ {
		st.s[i] = beta*st.s[i] - st.pg[i]
	}
	return false, nil
}
