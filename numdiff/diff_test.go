// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// f(x) = x1² + 10x2² + x1x2, ∇f = (2x1+x2, 20x2+x1)
func quad(x []float64) float64 {
	return x[0]*x[0] + 10*x[1]*x[1] + x[0]*x[1]
}

func TestGradForward(t *testing.T) {
	gs := &GradSpec{N: 2, Object: quad, Method: Forward}

	x0 := []float64{1, -0.5}
	grad := make([]float64, 2)
	require.NoError(t, gs.Grad(x0, grad))

	assert.InDelta(t, 2*x0[0]+x0[1], grad[0], 1e-6)
	assert.InDelta(t, 20*x0[1]+x0[0], grad[1], 1e-6)
	assert.Equal(t, []float64{1, -0.5}, x0, "x0 must not be mutated")
}

func TestGradCentral(t *testing.T) {
	gs := &GradSpec{N: 2, Object: quad, Method: Central}

	x0 := []float64{-2, 3}
	grad := make([]float64, 2)
	require.NoError(t, gs.Grad(x0, grad))

	// central differences are exact on quadratics up to roundoff
	assert.InDelta(t, 2*x0[0]+x0[1], grad[0], 1e-8)
	assert.InDelta(t, 20*x0[1]+x0[0], grad[1], 1e-8)
}

func TestGradCheck(t *testing.T) {
	cases := []struct {
		name string
		spec GradSpec
		x, g []float64
	}{
		{"dim", GradSpec{N: 0, Object: quad}, nil, nil},
		{"method", GradSpec{N: 2, Object: quad, Method: Method(7)}, make([]float64, 2), make([]float64, 2)},
		{"object", GradSpec{N: 2}, make([]float64, 2), make([]float64, 2)},
		{"x0", GradSpec{N: 2, Object: quad}, make([]float64, 3), make([]float64, 2)},
		{"grad", GradSpec{N: 2, Object: quad}, make([]float64, 2), make([]float64, 1)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Error(t, c.spec.Grad(c.x, c.g))
		})
	}
}

func TestHess(t *testing.T) {
	hs := &HessSpec{N: 2, Object: quad}

	x0 := []float64{0.3, -1.2}
	hess := make([]float64, 4)
	require.NoError(t, hs.Hess(x0, hess))

	assert.InDelta(t, 2, hess[0], 1e-4)
	assert.InDelta(t, 20, hess[3], 1e-4)
	assert.InDelta(t, 1, hess[1], 1e-4)
	assert.Equal(t, hess[1], hess[2], "estimate must be symmetric")
}

func TestHessCheck(t *testing.T) {
	hs := &HessSpec{N: 2, Object: quad}
	assert.Error(t, hs.Hess(make([]float64, 2), make([]float64, 3)))
	assert.Error(t, hs.Hess(make([]float64, 1), make([]float64, 4)))

	hs = &HessSpec{N: 2}
	assert.Error(t, hs.Hess(make([]float64, 2), make([]float64, 4)))
}

func TestEvaluationAdapter(t *testing.T) {
	gs := &GradSpec{N: 2, Object: quad, Method: Central}
	eval := gs.Evaluation()

	x := []float64{1, 1}
	g := make([]float64, 2)
	f := eval(x, g)

	assert.InDelta(t, 12, f, 1e-12)
	assert.InDelta(t, 3, g[0], 1e-8)
	assert.InDelta(t, 21, g[1], 1e-8)

	hs := &HessSpec{N: 2, Object: quad}
	hessian := hs.HessianEval()
	h := make([]float64, 4)
	hessian(x, h)
	assert.InDelta(t, 2, h[0], 1e-4)
}
