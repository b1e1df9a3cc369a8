// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package exprfn builds scalar objectives from expression strings over the
// variables x1..xn, e.g. "pow(x1,2) + 10*pow(x2,2)".
package exprfn

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Knetic/govaluate"
)

// Func is a scalar objective parsed from an expression string.
type Func struct {
	n      int
	expr   *govaluate.EvaluableExpression
	params map[string]interface{}
}

func toFloat(v interface{}) float64 {
	f, _ := v.(float64)
	return f
}

func mathFuncs() map[string]govaluate.ExpressionFunction {
	return map[string]govaluate.ExpressionFunction{
		"sin":  func(args ...interface{}) (interface{}, error) { return math.Sin(toFloat(args[0])), nil },
		"cos":  func(args ...interface{}) (interface{}, error) { return math.Cos(toFloat(args[0])), nil },
		"tan":  func(args ...interface{}) (interface{}, error) { return math.Tan(toFloat(args[0])), nil },
		"exp":  func(args ...interface{}) (interface{}, error) { return math.Exp(toFloat(args[0])), nil },
		"log":  func(args ...interface{}) (interface{}, error) { return math.Log(toFloat(args[0])), nil },
		"sqrt": func(args ...interface{}) (interface{}, error) { return math.Sqrt(toFloat(args[0])), nil },
		"abs":  func(args ...interface{}) (interface{}, error) { return math.Abs(toFloat(args[0])), nil },
		"pow": func(args ...interface{}) (interface{}, error) {
			return math.Pow(toFloat(args[0]), toFloat(args[1])), nil
		},
	}
}

// New parses an expression over the variables x1..xn.
func New(expr string, n int) (*Func, error) {
	if n <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", n)
	}
	parsed, err := govaluate.NewEvaluableExpressionWithFunctions(expr, mathFuncs())
	if err != nil {
		return nil, fmt.Errorf("parse expression: %w", err)
	}

	params := make(map[string]interface{}, n)
	for i := 1; i <= n; i++ {
		params["x"+strconv.Itoa(i)] = 0.0
	}
	for _, v := range parsed.Vars() {
		if _, ok := params[v]; !ok {
			return nil, fmt.Errorf("unknown variable %q, expect x1..x%d", v, n)
		}
	}
	return &Func{n: n, expr: parsed, params: params}, nil
}

// Dim reports the number of variables.
func (f *Func) Dim() int {
	return f.n
}

// EvalE evaluates the expression at x.
func (f *Func) EvalE(x []float64) (float64, error) {
	if len(x) != f.n {
		return math.NaN(), fmt.Errorf("expect %d variables, got %d", f.n, len(x))
	}
	for i, v := range x {
		f.params["x"+strconv.Itoa(i+1)] = v
	}
	v, err := f.expr.Evaluate(f.params)
	if err != nil {
		return math.NaN(), err
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	default:
		return math.NaN(), fmt.Errorf("expression did not return a number: %T", v)
	}
}

// Eval evaluates the expression at x, mapping any evaluation error to NaN
// so minimizers treat the region as infeasible.
func (f *Func) Eval(x []float64) float64 {
	v, err := f.EvalE(x)
	if err != nil {
		return math.NaN()
	}
	return v
}
