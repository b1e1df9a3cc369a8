// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/curioloop/descent/exprfn"
	"github.com/curioloop/descent/hzmin"
	"github.com/curioloop/descent/numdiff"
)

var (
	expr     string
	dim      int
	x0Flag   string
	method   string
	iters    int
	gTol     float64
	fTol     float64
	xTol     float64
	alphaMax float64
	eta      float64
	outPath  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Minimize an expression objective",
	Long: `Parses the objective expression over x1..xn, estimates its
derivatives by finite differences and runs the selected minimizer.`,
	RunE: runMinimize,
}

func init() {
	runCmd.Flags().StringVar(&expr, "expr", "", "Objective expression over x1..xn (required)")
	runCmd.Flags().IntVar(&dim, "dim", 2, "Number of variables")
	runCmd.Flags().StringVar(&x0Flag, "x0", "", "Comma-separated initial point (default: zeros)")
	runCmd.Flags().StringVar(&method, "method", "cg", "Direction rule: cg, newton")
	runCmd.Flags().IntVar(&iters, "iters", 1000, "Max iterations")
	runCmd.Flags().Float64Var(&gTol, "gtol", 1e-8, "Gradient sup-norm tolerance")
	runCmd.Flags().Float64Var(&fTol, "ftol", 1e-8, "Relative value-change tolerance")
	runCmd.Flags().Float64Var(&xTol, "xtol", 1e-32, "Step sup-norm tolerance")
	runCmd.Flags().Float64Var(&alphaMax, "alphamax", 0, "Step bound (0 means unbounded)")
	runCmd.Flags().Float64Var(&eta, "eta", 0, "CG safeguard constant (0 means default 0.4)")
	runCmd.Flags().StringVar(&outPath, "out", "", "Write the JSON report to a file instead of stdout")

	runCmd.MarkFlagRequired("expr")
	rootCmd.AddCommand(runCmd)
}

// runReport is the JSON document emitted for one minimization run.
type runReport struct {
	RunID      string    `json:"run_id"`
	Expr       string    `json:"expr"`
	Method     string    `json:"method"`
	Converged  bool      `json:"converged"`
	ConvX      bool      `json:"conv_x"`
	ConvF      bool      `json:"conv_f"`
	ConvG      bool      `json:"conv_g"`
	F          float64   `json:"f"`
	X          []float64 `json:"x"`
	Iterations int       `json:"iterations"`
	FEvals     int       `json:"f_evals"`
	GEvals     int       `json:"g_evals"`
	DurationMs float64   `json:"duration_ms"`
}

func parseX0(s string, n int) ([]float64, error) {
	x := make([]float64, n)
	if s == "" {
		return x, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expect %d coordinates, got %d", n, len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parse coordinate %d: %w", i+1, err)
		}
		x[i] = v
	}
	return x, nil
}

func buildProblem(f *exprfn.Func) (*hzmin.Problem, error) {
	n := f.Dim()
	grad := &numdiff.GradSpec{N: n, Object: f.Eval, Method: numdiff.Central}

	p := &hzmin.Problem{
		N:    n,
		Eval: grad.Evaluation(),
		Stop: hzmin.Termination{
			MaxIterations: iters,
			XTol:          xTol,
			FTol:          fTol,
			GTol:          gTol,
		},
		Eta:      eta,
		AlphaMax: alphaMax,
	}
	switch method {
	case "cg":
		p.Method = hzmin.ConjGrad
	case "newton":
		p.Method = hzmin.ModNewton
		hess := &numdiff.HessSpec{N: n, Object: f.Eval}
		p.Hess = hess.HessianEval()
	default:
		return nil, fmt.Errorf("unknown method %q, expect cg or newton", method)
	}
	return p, nil
}

func runMinimize(cmd *cobra.Command, args []string) error {

	f, err := exprfn.New(expr, dim)
	if err != nil {
		return err
	}
	x0, err := parseX0(x0Flag, dim)
	if err != nil {
		return err
	}
	p, err := buildProblem(f)
	if err != nil {
		return err
	}

	opt, err := p.New(nil)
	if err != nil {
		return err
	}

	slog.Info("starting minimization", "expr", expr, "dim", dim, "method", method, "iters", iters)

	start := time.Now()
	res, err := opt.Fit(x0, opt.Init())
	if err != nil {
		return fmt.Errorf("minimization failed: %w", err)
	}
	elapsed := time.Since(start)

	report := runReport{
		RunID:      uuid.NewString(),
		Expr:       expr,
		Method:     method,
		Converged:  res.OK,
		ConvX:      res.Conv.X,
		ConvF:      res.Conv.F,
		ConvG:      res.Conv.G,
		F:          res.F,
		X:          res.X,
		Iterations: res.NumIter,
		FEvals:     res.NumFEval,
		GEvals:     res.NumGEval,
		DurationMs: float64(elapsed.Microseconds()) / 1e3,
	}

	slog.Info("minimization finished",
		"run_id", report.RunID, "converged", report.Converged,
		"f", report.F, "iterations", report.Iterations, "duration", elapsed)

	doc, err := json.MarshalIndent(&report, "", "  ")
	if err != nil {
		return err
	}
	if outPath != "" {
		return os.WriteFile(outPath, append(doc, '\n'), 0o644)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(doc))
	return err
}
