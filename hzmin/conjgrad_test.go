// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hzmin

import (
	"math"
	"testing"
)

// fTrace records the objective value of every accepted iterate.
type fTrace struct {
	f []float64
}

func (tr *fTrace) Trace(iter int, f, gNorm float64, x, g, h []float64) {
	tr.f = append(tr.f, f)
}

func TestCGQuadratic(t *testing.T) {

	trace := new(fTrace)
	p := Problem{
		N:    2,
		Eval: quadEval,
		Stop: Termination{
			MaxIterations: 50,
			XTol:          1e-32,
			FTol:          1e-32,
			GTol:          1e-8,
		},
		Trace: trace,
	}
	o, e := p.New(nil)
	if e != nil {
		panic(e)
	}

	r, e := o.Fit([]float64{1, 1}, o.Init())
	switch {
	case e != nil:
		t.Fatal("TestCGQuadratic:", e)
	case !r.OK || !r.Conv.G:
		t.Fatal("TestCGQuadratic: not converged on gradient")
	case dnrmInf(2, r.G) > 1e-8:
		t.Fatal("TestCGQuadratic: gradient sup-norm too large")
	case r.NumIter >= 50:
		t.Fatal("TestCGQuadratic: too many iterations")
	}

	// f decreases monotonically at every accepted step (up to the
	// approximate-Wolfe round-off slack).
	prev := 11.0
	for _, f := range trace.f {
		if f > prev+searchEps*math.Abs(prev) {
			t.Fatal("TestCGQuadratic: objective increased at an accepted step")
		}
		prev = f
	}
}

func TestCGDescentDirection(t *testing.T) {

	st := new(iterState)
	st.init(2)
	if e := st.seed(quadEval, []float64{1, 1}, identity{}); e != nil {
		t.Fatal("TestCGDescentDirection:", e)
	}

	cg := cgUpdater{eta: defaultEta, precond: identity{}, search: Search, alphaMax: math.Inf(1)}
	log := new(SearchLog)

	for i := 0; i < 20; i++ {
		done, e := cg.update(st, log, quadEval)
		switch {
		case e != nil:
			t.Fatal("TestCGDescentDirection:", e)
		case done:
			t.Fatal("TestCGDescentDirection: unexpected self-termination")
		}
		if dnrmInf(2, st.g) < 1e-10 {
			return // converged, direction no longer meaningful
		}
		if ddot(2, st.g, st.s) >= 0 {
			t.Fatal("TestCGDescentDirection: direction is not descent")
		}
	}
}

func TestCGRosenbrock(t *testing.T) {

	eval := func(x, g []float64) float64 {
		a, b := 1-x[0], x[1]-x[0]*x[0]
		g[0] = -2*a - 400*b*x[0]
		g[1] = 200 * b
		return a*a + 100*b*b
	}

	p := Problem{
		N:    2,
		Eval: eval,
		Stop: Termination{
			MaxIterations: 2000,
			XTol:          1e-32,
			FTol:          1e-32,
			GTol:          1e-6,
		},
	}
	o, e := p.New(nil)
	if e != nil {
		panic(e)
	}

	r, e := o.Fit([]float64{-1.2, 1}, o.Init())
	switch {
	case e != nil:
		t.Fatal("TestCGRosenbrock:", e)
	case !r.OK:
		t.Fatal("TestCGRosenbrock: not converged")
	case r.F > 1e-10:
		t.Fatal("TestCGRosenbrock: objective too large")
	case math.Abs(r.X[0]-1) > 1e-4 || math.Abs(r.X[1]-1) > 1e-4:
		t.Fatal("TestCGRosenbrock: wrong minimizer")
	}
}

// negation is a corrupted preconditioner: P⁻¹v = -v turns the
// preconditioned gradient into an ascent direction.
type negation struct{}

func (negation) Prepare([]float64) {}
func (negation) Solve(out, v []float64) {
	for i := range v {
		out[i] = -v[i]
	}
}
func (negation) Quad(v []float64) float64 { return ddot(len(v), v, v) }

func TestCGSelfTermination(t *testing.T) {

	p := Problem{
		N:       2,
		Eval:    quadEval,
		Stop:    Termination{MaxIterations: 10},
		Precond: negation{},
	}
	o, e := p.New(nil)
	if e != nil {
		panic(e)
	}

	r, e := o.Fit([]float64{1, 1}, o.Init())
	switch {
	case e != nil:
		t.Fatal("TestCGSelfTermination: degeneracy must not be an error")
	case r.OK:
		t.Fatal("TestCGSelfTermination: must not report convergence")
	case r.Status != StopDegenerateDirection:
		t.Fatal("TestCGSelfTermination: wrong status")
	case r.NumIter != 0:
		t.Fatal("TestCGSelfTermination: no step must be accepted")
	}
}
