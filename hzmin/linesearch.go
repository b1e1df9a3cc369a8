// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hzmin

import (
	"math"
)

const (
	// psi0 scales the very first trial step from the problem scale (HZ stage I0).
	psi0 = 0.01
	// psi1 shrinks the previous step into the quadratic probe step (HZ stage I1).
	psi1 = 0.2
	// psi2 expands the step when the quadratic fit reports non-convexity.
	psi2 = 2.0
	// psi3 backs a step off a non-finite evaluation.
	psi3 = 0.1
)

const (
	// searchRho geometric bracket expansion factor.
	searchRho = 5.0
	// searchDelta sufficient decrease constant (HZ uses 0.1).
	searchDelta = 0.1
	// searchSigma curvature condition constant, searchDelta < searchSigma < 1.
	searchSigma = 0.9
	// searchEps relative slack on the step-0 value for the approximate Wolfe test.
	searchEps = 1e-6
	// searchGamma secant interval shrink required to avoid a bisection step.
	searchGamma = 0.66
	// searchIterMax evaluation budget of one search episode.
	searchIterMax = 50
)

// iterFiniteMax bounds the psi3 backoff: past this many halvings toward
// zero the remaining interval is below machine precision.
var iterFiniteMax = int(math.Ceil(-math.Log2(eps)))

// SearchTask reports the confidence of a line-search result.
type SearchTask int

const (
	// SearchConv the returned step satisfies the (approximate) Wolfe conditions
	// or closes a bracket of width below one ulp.
	SearchConv SearchTask = 1 << (4 + iota)
	// SearchWarn the returned step is best-effort only.
	SearchWarn
)

const (
	// SearchWarnBudget the evaluation budget ran out; the lower bracket end is returned.
	SearchWarnBudget = SearchWarn | 1
	// SearchWarnNotFinite no finite value was found along the ray; step 0 is returned.
	SearchWarnNotFinite = SearchWarn | 2
	// SearchWarnStepMax the search is pinned at alphaMax while still descending.
	SearchWarnStepMax = SearchWarn | 3
)

// SearchFunc locates a step c along s from x such that the (approximate)
// Wolfe conditions hold at x+c*s. Implementations receive the seeded log
// whose first sample is (0, f(x), <g,s>) and report the evaluations spent.
type SearchFunc func(eval Evaluation, x, s, xTry, gTry []float64, log *SearchLog,
	c float64, mayTerminate bool, alphaMax float64) (alpha float64, fEvals, gEvals int, task SearchTask)

func isFinite(x float64) bool {
	return !math.IsInf(x, 0) && !math.IsNaN(x)
}

func ulp(x float64) float64 {
	x = math.Abs(x)
	return math.Nextafter(x, math.Inf(1)) - x
}

// AlphaInit produces a scale-aware first trial step (HZ stage I0).
// After the first iteration the previously accepted step is the best guess,
// so any finite prev is passed through unchanged.
func AlphaInit(prev float64, x, g []float64, f float64) float64 {
	if isFinite(prev) && prev > zero {
		return prev
	}
	alpha := one
	if gNorm := dnrmInf(len(g), g); gNorm != zero {
		if xNorm := dnrmInf(len(x), x); xNorm != zero {
			alpha = psi0 * xNorm / gNorm
		} else if f != zero {
			alpha = psi0 * math.Abs(f) / ddot(len(g), g, g)
		}
	}
	return alpha
}

// AlphaTry proposes an initial step for the full search by fitting a
// quadratic through the step-0 sample and a cheap probe at psi1*alpha
// (HZ stages I1-I2). mayTerminate reports that the proposal is the minimum
// of a convex fit and the search may accept it on a relaxed check.
//
// A failed convexity check expands the step by psi2; a plain value
// increase instead falls back to the shrunken probe step. The asymmetry is
// deliberate: when already above the step-0 value, expanding would move
// further uphill.
func AlphaTry(alpha float64, eval Evaluation, x, s, xTry, gTry []float64,
	log *SearchLog, alphaMax float64) (alphaOut float64, mayTerminate bool, fEvals, gEvals int) {

	lf := lineFunc{eval: eval, x: x, s: s, xTry: xTry, gTry: gTry, log: log}

	phi0 := log.Value[0]
	dphi0 := log.Slope[0]

	alphaTest := math.Min(psi1*alpha, alphaMax)
	phiTest, _ := lf.phi(alphaTest)

	iterFinite := 1
	for !isFinite(phiTest) {
		if iterFinite >= iterFiniteMax {
			return zero, false, lf.fEvals, lf.gEvals
		}
		iterFinite++
		alphaTest *= psi3
		phiTest, _ = lf.phi(alphaTest)
	}

	// Coefficient of the quadratic through (0, phi0, dphi0) and (alphaTest, phiTest).
	a := ((phiTest-phi0)/alphaTest - dphi0) / alphaTest
	switch {
	case isFinite(a) && a > zero && phiTest <= phi0:
		// Convex: jump to the minimum of the fit.
		alpha = -dphi0 / (two * a)
		if alpha <= alphaMax {
			mayTerminate = true
		} else {
			alpha = alphaMax
		}
	case phiTest > phi0:
		alpha = alphaTest
	default:
		alpha *= psi2
	}

	return math.Min(alpha, alphaMax), mayTerminate, lf.fEvals, lf.gEvals
}

// lineFunc restricts the objective to the ray x + alpha*s, reusing the
// caller's scratch buffers for every evaluation.
type lineFunc struct {
	eval       Evaluation
	x, s       []float64
	xTry, gTry []float64
	log        *SearchLog
	fEvals     int
	gEvals     int
}

// phi evaluates the objective at x+alpha*s and returns its value and
// directional derivative. The slope is NaN whenever the value is not finite.
func (lf *lineFunc) phi(alpha float64) (phi, dphi float64) {
	n := len(lf.x)
	if n > len(lf.s) || n > len(lf.xTry) {
		panic("bound check error")
	}
	for i := 0; i < n; i++ {
		lf.xTry[i] = lf.x[i] + alpha*lf.s[i]
	}
	phi = lf.eval(lf.xTry, lf.gTry)
	lf.fEvals++
	lf.gEvals++
	dphi = math.NaN()
	if isFinite(phi) {
		dphi = ddot(n, lf.gTry, lf.s)
	}
	return
}

// Search is the default Hager-Zhang line search (HZ stages L0-L3 with
// bracketing B0-B3 and bracket updates U0-U3).
//
// The Wolfe conditions are verified only at steps produced by quadratic or
// secant interpolation, never at raw bisection or expansion samples: the
// interpolated estimates carry higher-quality curvature information, and
// acceptance is biased toward them on purpose.
//
// No step beyond alphaMax is ever evaluated. Non-finite values or slopes
// are treated as evidence the feasible upper end was exceeded and the
// bracket is adjusted to exclude that region.
func Search(eval Evaluation, x, s, xTry, gTry []float64, log *SearchLog,
	c float64, mayTerminate bool, alphaMax float64) (float64, int, int, SearchTask) {

	lf := lineFunc{eval: eval, x: x, s: s, xTry: xTry, gTry: gTry, log: log}

	phi0 := log.Value[0]
	dphi0 := log.Slope[0]
	phiLim := phi0 + searchEps*math.Abs(phi0)

	if !(c > zero) || !isFinite(c) {
		c = one
	}
	c = math.Min(c, alphaMax)

	phiC, dphiC := lf.phi(c)
	iterFinite := 1
	for !(isFinite(phiC) && isFinite(dphiC)) && iterFinite < iterFiniteMax {
		mayTerminate = false
		iterFinite++
		c *= psi3
		phiC, dphiC = lf.phi(c)
	}
	if !(isFinite(phiC) && isFinite(dphiC)) {
		return zero, lf.fEvals, lf.gEvals, SearchWarnNotFinite
	}
	log.Push(c, phiC, dphiC)

	// The quadratic guess from AlphaTry may already be acceptable.
	if mayTerminate && satisfiesWolfe(c, phiC, dphiC, phi0, dphi0, phiLim) {
		return c, lf.fEvals, lf.gEvals, SearchConv
	}

	// Initial bracketing (HZ stages B0-B3).
	ia, ib := 0, 1
	bracketed := false
	iter := 1
	cOld := -one
	for !bracketed && iter < searchIterMax {
		if dphiC >= zero {
			// Reached the upward slope: the last sample is b,
			// scan back for the latest a below the step-0 level.
			ib = log.Len() - 1
			for i := ib - 1; i >= 0; i-- {
				if log.Value[i] <= phiLim {
					ia = i
					break
				}
			}
			bracketed = true
		} else if log.Value[log.Len()-1] > phiLim {
			// Value above the step-0 level but slope still negative:
			// crested over a peak, narrow down by bisection.
			ib = log.Len() - 1
			ia = ib - 1
			ia, ib = lf.bisect(ia, ib, phiLim)
			bracketed = true
		} else {
			// Still going downhill, expand the interval.
			cOld = c
			c = math.Min(c*searchRho, alphaMax)
			if c <= cOld {
				// Pinned at the step bound while still descending.
				return cOld, lf.fEvals, lf.gEvals, SearchWarnStepMax
			}
			phiC, dphiC = lf.phi(c)
			iterFinite = 1
			for !(isFinite(phiC) && isFinite(dphiC)) && c > math.Nextafter(cOld, math.Inf(1)) && iterFinite < iterFiniteMax {
				// A non-finite value means the expansion overshot the
				// feasible region: pull the upper end back in.
				alphaMax = c
				iterFinite++
				c = (cOld + c) / two
				phiC, dphiC = lf.phi(c)
			}
			if !(isFinite(phiC) && isFinite(dphiC)) {
				return cOld, lf.fEvals, lf.gEvals, SearchWarnNotFinite
			}
			log.Push(c, phiC, dphiC)
		}
		iter++
	}
	if !bracketed {
		return log.Alpha[log.Len()-1], lf.fEvals, lf.gEvals, SearchWarnBudget
	}

	// Secant refinement of the bracket (HZ stages L1-L3).
	for iter < searchIterMax {
		a, b := log.Alpha[ia], log.Alpha[ib]
		if b-a <= ulp(b) {
			return a, lf.fEvals, lf.gEvals, SearchConv
		}
		wolfe, iA, iB := lf.secant2(ia, ib, phiLim)
		if wolfe {
			return log.Alpha[iA], lf.fEvals, lf.gEvals, SearchConv
		}
		if log.Alpha[iB]-log.Alpha[iA] < searchGamma*(b-a) {
			ia, ib = iA, iB
		} else {
			// Secant is converging too slowly, bisect instead.
			c = (log.Alpha[iA] + log.Alpha[iB]) / two
			phiC, dphiC = lf.phi(c)
			log.Push(c, phiC, dphiC)
			ia, ib = lf.update(iA, iB, log.Len()-1, phiLim)
		}
		iter++
	}

	// Budget exhausted: the lower bracket end is the best sample known to
	// sit at or below the step-0 level with a descending slope.
	return log.Alpha[ia], lf.fEvals, lf.gEvals, SearchWarnBudget
}

// satisfiesWolfe checks the sufficient decrease and curvature conditions,
// plus the HZ approximate variant that stays decidable when phi(c)-phi(0)
// is below round-off on nearly quadratic objectives.
func satisfiesWolfe(c, phi, dphi, phi0, dphi0, phiLim float64) bool {
	wolfe1 := searchDelta*dphi0 >= (phi-phi0)/c &&
		dphi >= searchSigma*dphi0
	wolfe2 := (two*searchDelta-one)*dphi0 >= dphi &&
		dphi >= searchSigma*dphi0 &&
		phi <= phiLim
	return wolfe1 || wolfe2
}

// secant locates the root of the linear interpolant of the slope.
func secant(a, b, dphiA, dphiB float64) float64 {
	return (a*dphiB - b*dphiA) / (dphiB - dphiA)
}

// secant2 performs the double secant step of HZ stage S1-S4.
func (lf *lineFunc) secant2(ia, ib int, phiLim float64) (wolfe bool, iA, iB int) {
	log := lf.log

	phi0 := log.Value[0]
	dphi0 := log.Slope[0]

	a, b := log.Alpha[ia], log.Alpha[ib]
	dphiA, dphiB := log.Slope[ia], log.Slope[ib]
	if !(dphiA < zero && dphiB >= zero) {
		panic("bracket slope invariant violated")
	}

	c := secant(a, b, dphiA, dphiB)
	phiC, dphiC := lf.phi(c)
	log.Push(c, phiC, dphiC)
	ic := log.Len() - 1
	if satisfiesWolfe(c, phiC, dphiC, phi0, dphi0, phiLim) {
		return true, ic, ic
	}

	iA, iB = lf.update(ia, ib, ic, phiLim)
	a, b = log.Alpha[iA], log.Alpha[iB]
	if iB == ic {
		// The new point became b, update a as well.
		c = secant(log.Alpha[ib], log.Alpha[iB], log.Slope[ib], log.Slope[iB])
	} else if iA == ic {
		c = secant(log.Alpha[ia], log.Alpha[iA], log.Slope[ia], log.Slope[iA])
	}
	if a <= c && c <= b {
		phiC, dphiC = lf.phi(c)
		log.Push(c, phiC, dphiC)
		ic = log.Len() - 1
		if satisfiesWolfe(c, phiC, dphiC, phi0, dphi0, phiLim) {
			return true, ic, ic
		}
		iA, iB = lf.update(iA, iB, ic, phiLim)
	}
	return false, iA, iB
}

// update picks, among a bracket and a third sample, the two samples that
// retain the bracket around a minimizer (HZ stages U0-U3). The bracket
// invariant is slope(a) < 0, value(a) <= phiLim, slope(b) >= 0.
func (lf *lineFunc) update(ia, ib, ic int, phiLim float64) (int, int) {
	log := lf.log

	a, b := log.Alpha[ia], log.Alpha[ib]
	c := log.Alpha[ic]
	phiC, dphiC := log.Value[ic], log.Slope[ic]

	if c < a || c > b {
		// Out of the bracketing interval.
		return ia, ib
	}
	if dphiC >= zero {
		// Replace b with a closer point.
		return ia, ic
	}
	// The slope at c is negative. Replacing a is more dangerous than
	// replacing b since it leaves the secure zone, so check the value too.
	if phiC <= phiLim {
		return ic, ib
	}
	// The value at c is above the step-0 level: a minimizer lies in (a, c).
	return lf.bisect(ia, ic, phiLim)
}

// bisect closes a bracket whose upper end has a negative slope but a value
// above the step-0 level (HZ stage U3 with theta = 1/2). A non-finite
// midpoint value compares false against phiLim and so shrinks the interval
// away from the infeasible region.
func (lf *lineFunc) bisect(ia, ib int, phiLim float64) (int, int) {
	log := lf.log

	a, b := log.Alpha[ia], log.Alpha[ib]
	for b-a > ulp(b) {
		d := (a + b) / two
		phiD, dphiD := lf.phi(d)
		log.Push(d, phiD, dphiD)
		id := log.Len() - 1
		if dphiD >= zero {
			return ia, id
		}
		if phiD <= phiLim {
			ia, a = id, d
		} else {
			ib, b = id, d
		}
	}
	return ia, ib
}
