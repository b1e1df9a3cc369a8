// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hzmin

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
)

// LogLevel controls the frequency and type of logger output
type LogLevel int

const (
	// LogNoop no output is generated (level < 0)
	LogNoop LogLevel = -1
	// LogLast print only one line at the last iteration
	LogLast LogLevel = 0
	// LogEval print f and |g| every `level` iterations for any (0 < level < 99)
	LogEval LogLevel = 1
	// LogTrace print details of every iteration except n-vectors
	LogTrace LogLevel = 99
	// LogVerbose print details of every iteration including x and g (level > 99)
	LogVerbose LogLevel = 100
)

// Logger handles logging output for the optimizer.
// Note the writers must be thread-safe.
type Logger struct {
	Level LogLevel
	Msg   io.Writer // Writer to output log messages.
}

func (l *Logger) enable(level LogLevel) bool {
	return l.Level >= level
}

func (l *Logger) log(format string, a ...any) {
	if len(a) > 0 {
		_, _ = fmt.Fprintf(l.Msg, format, a...)
	} else {
		_, _ = fmt.Fprint(l.Msg, format)
	}
}

// Method selects the direction-update rule.
type Method int

const (
	// ConjGrad preconditioned nonlinear conjugate gradient (HZ 2012).
	ConjGrad Method = iota
	// ModNewton Newton direction on a positive-definitized Hessian factor.
	ModNewton
)

// Tracer observes accepted iterates, invoked once per iteration after the
// state advance. h is nil unless the method is ModNewton. Implementations
// must not retain x, g or h across calls: the engine reuses those buffers.
type Tracer interface {
	Trace(iter int, f, gNorm float64, x, g, h []float64)
}

// Termination specifies the stopping criteria for the optimization loop.
type Termination struct {
	// The iteration stops when the number of iterations exceeds the limit.
	MaxIterations int
	// The iteration stops when the sup-norm of the last step is below XTol.
	XTol float64
	// The iteration stops when |fₖ - fₖ₊₁| ≤ 𝚏𝚝𝚘𝚕 × (|fₖ₊₁| + 𝚏𝚝𝚘𝚕).
	FTol float64
	// The iteration stops when ‖ gₖ ‖∞ ≤ 𝚐𝚝𝚘𝚕.
	GTol float64
}

// Problem specifies a minimization target for the engine.
type Problem struct {
	N      int         // The problem dimension
	Eval   Evaluation  // Objective function and gradient
	Hess   HessianEval // Hessian, required by ModNewton
	Method Method      // Direction-update rule
	Stop   Termination // Stop condition

	// Eta is the CG safeguard lower bound. Defaults to 0.4.
	Eta float64
	// AlphaMax bounds every line-search step. Defaults to +Inf.
	AlphaMax float64
	// Precond rescales the gradient. Defaults to the identity.
	Precond Preconditioner
	// Search substitutes the line search. Defaults to Search.
	Search SearchFunc
	// Trace optionally observes accepted iterates.
	Trace Tracer
}

// iterSpec is the validated, immutable configuration of one Optimizer.
type iterSpec struct {
	n        int
	method   Method
	eval     Evaluation
	hess     HessianEval
	stop     Termination
	eta      float64
	alphaMax float64
	precond  Preconditioner
	search   SearchFunc
	trace    Tracer
	logger   Logger
}

// New validates the problem and creates an optimizer for it.
func (p *Problem) New(logger *Logger) (optimizer *Optimizer, err error) {

	if logger == nil {
		logger = new(Logger)
		logger.Level = LogNoop
	}
	if logger.Msg == nil {
		logger.Msg = os.Stdout
	}

	stop := p.Stop
	if stop.XTol == 0 {
		stop.XTol = 1e-32
	}
	if stop.FTol == 0 {
		stop.FTol = 1e-8
	}
	if stop.GTol == 0 {
		stop.GTol = 1e-8
	}

	eta := p.Eta
	if eta == 0 {
		eta = defaultEta
	}

	alphaMax := p.AlphaMax
	if alphaMax == 0 {
		alphaMax = math.Inf(1)
	}

	switch {
	case p.N <= 0:
		err = errors.New("problem dimension must greater than 0")
	case p.Eval == nil:
		err = errors.New("evaluation target is required")
	case p.Method != ConjGrad && p.Method != ModNewton:
		err = errors.New("unknown direction-update method")
	case p.Method == ModNewton && p.Hess == nil:
		err = errors.New("hessian is required by the newton method")
	case stop.MaxIterations <= 0:
		err = errors.New("max iteration must greater than 0")
	case stop.XTol < zero || stop.FTol < zero || stop.GTol < zero:
		err = errors.New("tolerance must not less than 0")
	case eta < zero:
		err = errors.New("eta safeguard must not less than 0")
	case !(alphaMax > zero):
		err = errors.New("alpha bound must greater than 0")
	}
	if err != nil {
		return
	}

	precond := p.Precond
	if precond == nil {
		precond = identity{}
	}
	search := p.Search
	if search == nil {
		search = Search
	}

	optimizer = &Optimizer{
		iterSpec{
			n:        p.N,
			method:   p.Method,
			eval:     p.Eval,
			hess:     p.Hess,
			stop:     stop,
			eta:      eta,
			alphaMax: alphaMax,
			precond:  precond,
			search:   search,
			trace:    p.Trace,
			logger:   *logger,
		},
	}
	return
}

// Optimizer minimizes a fixed problem. It is stateless across runs and may
// be shared; all mutable storage lives in a Workspace.
type Optimizer struct {
	iterSpec
}

// Workspace contains the state and scratch storage of one optimization run.
// To avoid race conditions, separate workspaces need to be created for each
// goroutine. Multiple workspaces may share one optimizer.
type Workspace struct {
	n      int
	method Method
	state  iterState
	log    SearchLog
	// ModNewton only
	hess, factor []float64
}

// Init allocates a workspace sized for the optimizer.
func (o *Optimizer) Init() *Workspace {
	w := new(Workspace)
	w.n = o.n
	w.method = o.method
	w.state.init(o.n)
	if o.method == ModNewton {
		w.hess = make([]float64, o.n*o.n)
		w.factor = make([]float64, o.n*o.n)
	}
	return w
}

// Result contains the final result of the optimization process.
type Result struct {
	OK      bool        // Whether the optimization converged.
	F       float64     // Final function value.
	X, G    []float64   // Final point and gradient.
	Conv    Convergence // Per-criterion flags and the tolerances used.
	Summary             // Optimization summary.
}

// Summary contains a summary of the optimization process.
type Summary struct {
	Status   IterTask // Final task status after optimization.
	NumIter  int      // Number of iterations performed.
	NumFEval int      // Number of function evaluations performed.
	NumGEval int      // Number of gradient evaluations performed.
}

// Fit runs the optimization from the initial guess x using workspace w.
//
// Contract violations surface as errors: a non-finite objective value or
// gradient at the initial point aborts before any iteration with a nil
// Result, and a non-finite value at a later accepted point halts with the
// partial Result attached to the error return. Numerical degeneracies with
// a principled fallback (direction reset, best-effort step) never error.
func (o *Optimizer) Fit(x []float64, w *Workspace) (res *Result, err error) {

	if len(x) != o.n {
		panic("initial x dimension not match spec")
	}
	if w.n != o.n || w.method != o.method {
		panic("workspace does not match spec")
	}

	st := &w.state

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("objective evaluation panic: %v", r)
			if res != nil {
				res.Status = HaltEvalPanic
			}
		}
	}()

	if err = st.seed(o.eval, x, o.precond); err != nil {
		return nil, err
	}

	res = &Result{}
	task := o.mainLoop(st, w, res)

	res.OK = task&IterConv > 0
	res.F = st.f
	res.X = slices.Clone(st.x)
	res.G = slices.Clone(st.g)
	res.Status = task
	res.NumFEval = st.fEvals
	res.NumGEval = st.gEvals
	if task == HaltNonFiniteValue {
		return res, errors.New("objective value at accepted point is not finite")
	}
	return res, nil
}

func (o *Optimizer) mainLoop(st *iterState, w *Workspace, res *Result) (task IterTask) {

	log := o.logger
	if log.enable(LogLast) {
		log.log("RUNNING THE HZ DESCENT CODE\n")
		log.log("N = %d    METHOD = %s\n", o.n, formatMethod(o.method))
	}

	cg := cgUpdater{eta: o.eta, precond: o.precond, search: o.search, alphaMax: o.alphaMax}
	nw := newtonUpdater{search: o.search, alphaMax: o.alphaMax}
	if o.method == ModNewton {
		o.hess(st.x, w.hess)
	}

	// The initial point may already be optimal; only the gradient criterion
	// is decidable before the first step.
	task = iterLoop
	gNorm := dnrmInf(st.n, st.g)
	if gNorm <= o.stop.GTol {
		res.Conv = Convergence{
			G: true, Converged: true,
			XTol: o.stop.XTol, FTol: o.stop.FTol, GTol: o.stop.GTol,
		}
		task = ConvCriteria
	}
	if log.enable(LogEval) {
		log.log("At iterate %5d    f= %12.5e    |g|= %12.5e\n", 0, st.f, gNorm)
	}

	iter := 0
	for task == iterLoop {

		var err error
		if o.method == ModNewton {
			err = nw.update(st, w.hess, w.factor, &w.log, o.eval, o.hess)
		} else {
			var done bool
			done, err = cg.update(st, &w.log, o.eval)
			if done {
				task = StopDegenerateDirection
				break
			}
		}
		if err != nil {
			task = HaltNonFiniteValue
			break
		}
		iter++

		gNorm = dnrmInf(st.n, st.g)
		res.Conv = AssessConvergence(st.x, st.xPrev, st.f, st.fPrev, st.g,
			o.stop.XTol, o.stop.FTol, o.stop.GTol)
		if res.Conv.Converged {
			task = ConvCriteria
		} else if iter >= o.stop.MaxIterations {
			task = StopOverIterLimit
		}

		o.printIter(st, iter, gNorm)
		if o.trace != nil {
			o.trace.Trace(iter, st.f, gNorm, st.x, st.g, w.hess)
		}
	}

	res.NumIter = iter
	o.printExit(st, task, iter, gNorm)
	return task
}

func (o *Optimizer) printIter(st *iterState, iter int, gNorm float64) {
	log := o.logger
	if log.enable(LogTrace) {
		log.log("\nITERATION %5d\n", iter)
		log.log("At iterate %5d    f= %12.5e    |g|= %12.5e    alpha= %12.5e\n", iter, st.f, gNorm, st.alpha)
		switch st.task {
		case SearchWarnBudget:
			log.log("WARNING: LINE SEARCH BUDGET EXHAUSTED\n")
		case SearchWarnNotFinite:
			log.log("WARNING: NO FINITE VALUE ALONG SEARCH RAY\n")
		case SearchWarnStepMax:
			log.log("WARNING: STEP PINNED AT ALPHAMAX\n")
		}
		if log.enable(LogVerbose) {
			log.log(" X = ")
			for i, x := range st.x {
				log.log("%.2e ", x)
				if (i+1)%6 == 0 {
					log.log("\n     ")
				}
			}
			log.log("\n G = ")
			for i, g := range st.g {
				log.log("%.2e ", g)
				if (i+1)%6 == 0 {
					log.log("\n     ")
				}
			}
			log.log("\n")
		}
	} else if log.enable(LogEval) {
		if iter%int(log.Level) == 0 {
			log.log("At iterate %5d    f= %12.5e    |g|= %12.5e\n", iter, st.f, gNorm)
		}
	}
}

func (o *Optimizer) printExit(st *iterState, task IterTask, iter int, gNorm float64) {
	log := o.logger
	if !log.enable(LogLast) {
		return
	}

	log.log("\n   N    Tit    Tnf    Tng      |g|          F\n")
	log.log("%5d %6d %6d %6d %10.3e %11.5e\n",
		st.n, iter, st.fEvals, st.gEvals, gNorm, st.f)

	var msg string
	switch task {
	case ConvCriteria:
		msg = "CONVERGENCE: X/F/G TOLERANCE SATISFIED"
	case StopOverIterLimit:
		msg = "STOP: TOTAL NO. of ITERATIONS REACHED LIMIT"
	case StopDegenerateDirection:
		msg = "STOP: RESET DIRECTION IS NOT DESCENT"
	case HaltNonFiniteValue:
		msg = "HALT: OBJECTIVE VALUE IS NOT FINITE"
	default:
		msg = "UNKNOWN TASK"
	}
	log.log("\n%s\n", msg)
}

func formatMethod(m Method) string {
	switch m {
	case ConjGrad:
		return "cg"
	case ModNewton:
		return "newton"
	default:
		return "---"
	}
}
