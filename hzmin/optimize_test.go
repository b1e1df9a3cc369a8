// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hzmin

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func TestProblemValidation(t *testing.T) {

	valid := Problem{
		N:    2,
		Eval: quadEval,
		Stop: Termination{MaxIterations: 10},
	}
	if _, e := valid.New(nil); e != nil {
		t.Fatal("TestProblemValidation: valid problem rejected:", e)
	}

	broken := []func(p *Problem){
		func(p *Problem) { p.N = 0 },
		func(p *Problem) { p.Eval = nil },
		func(p *Problem) { p.Method = ModNewton }, // missing Hess
		func(p *Problem) { p.Method = Method(42) },
		func(p *Problem) { p.Stop.MaxIterations = 0 },
		func(p *Problem) { p.Stop.GTol = -1 },
		func(p *Problem) { p.Eta = -0.1 },
		func(p *Problem) { p.AlphaMax = -1 },
	}
	for i, mutate := range broken {
		p := valid
		mutate(&p)
		if _, e := p.New(nil); e == nil {
			t.Fatal("TestProblemValidation: case accepted:", i)
		}
	}
}

func TestInitialNonFinite(t *testing.T) {

	p := Problem{
		N: 1,
		Eval: func(x, g []float64) float64 {
			g[0] = 1
			return math.NaN()
		},
		Stop: Termination{MaxIterations: 10},
	}
	o, e := p.New(nil)
	if e != nil {
		panic(e)
	}

	r, e := o.Fit([]float64{1}, o.Init())
	if e == nil || r != nil {
		t.Fatal("TestInitialNonFinite: non-finite initial value must abort")
	}

	p.Eval = func(x, g []float64) float64 {
		g[0] = math.Inf(1)
		return 1
	}
	o, _ = p.New(nil)
	if r, e := o.Fit([]float64{1}, o.Init()); e == nil || r != nil {
		t.Fatal("TestInitialNonFinite: non-finite initial gradient must abort")
	}
}

// hessTrace captures the Hessian slice handed to the tracer.
type hessTrace struct {
	iters int
	hasH  bool
}

func (tr *hessTrace) Trace(iter int, f, gNorm float64, x, g, h []float64) {
	tr.iters = iter
	tr.hasH = h != nil
}

func TestTracerHooks(t *testing.T) {

	tr := new(hessTrace)
	p := Problem{
		N:     2,
		Eval:  quadEval,
		Stop:  Termination{MaxIterations: 50},
		Trace: tr,
	}
	o, _ := p.New(nil)
	r, e := o.Fit([]float64{1, 1}, o.Init())
	switch {
	case e != nil:
		t.Fatal("TestTracerHooks:", e)
	case tr.iters != r.NumIter:
		t.Fatal("TestTracerHooks: tracer missed iterations")
	case tr.hasH:
		t.Fatal("TestTracerHooks: CG must not expose a Hessian")
	}

	tr = new(hessTrace)
	p.Method = ModNewton
	p.Hess = func(x, h []float64) {
		copy(h, []float64{2, 0, 0, 20})
	}
	p.Trace = tr
	o, _ = p.New(nil)
	if _, e := o.Fit([]float64{1, 1}, o.Init()); e != nil {
		t.Fatal("TestTracerHooks:", e)
	} else if !tr.hasH {
		t.Fatal("TestTracerHooks: newton must expose the Hessian")
	}
}

func TestWorkspaceReuse(t *testing.T) {

	p := Problem{
		N:    2,
		Eval: quadEval,
		Stop: Termination{MaxIterations: 50},
	}
	o, _ := p.New(nil)

	w := o.Init()
	r1, e1 := o.Fit([]float64{1, 1}, w)
	r2, e2 := o.Fit([]float64{-3, 2}, w)
	switch {
	case e1 != nil || e2 != nil:
		t.Fatal("TestWorkspaceReuse: run failed")
	case !r1.OK || !r2.OK:
		t.Fatal("TestWorkspaceReuse: rerun on one workspace must converge")
	case dnrmInf(2, r2.X) > 1e-7:
		t.Fatal("TestWorkspaceReuse: wrong minimizer on rerun")
	}
}

func TestLoggerOutput(t *testing.T) {

	var buf bytes.Buffer
	p := Problem{
		N:    2,
		Eval: quadEval,
		Stop: Termination{MaxIterations: 50},
	}
	o, _ := p.New(&Logger{Level: LogVerbose, Msg: &buf})
	if _, e := o.Fit([]float64{1, 1}, o.Init()); e != nil {
		t.Fatal("TestLoggerOutput:", e)
	}

	out := buf.String()
	switch {
	case !strings.Contains(out, "At iterate"):
		t.Fatal("TestLoggerOutput: missing iterate lines")
	case !strings.Contains(out, "CONVERGENCE"):
		t.Fatal("TestLoggerOutput: missing exit message")
	}
}

func TestAlreadyOptimal(t *testing.T) {

	p := Problem{
		N:    2,
		Eval: quadEval,
		Stop: Termination{MaxIterations: 10},
	}
	o, _ := p.New(nil)

	r, e := o.Fit([]float64{0, 0}, o.Init())
	switch {
	case e != nil:
		t.Fatal("TestAlreadyOptimal:", e)
	case !r.OK || r.NumIter != 0:
		t.Fatal("TestAlreadyOptimal: optimal start must converge without iterating")
	case r.NumFEval != 1 || r.NumGEval != 1:
		t.Fatal("TestAlreadyOptimal: only the seed evaluation is allowed")
	}
}
