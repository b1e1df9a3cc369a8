// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hzmin

import (
	"math"
	"testing"
)

func TestAssessConvergence(t *testing.T) {

	x := []float64{1, 2}
	xPrev := []float64{1, 2 + 1e-12}
	g := []float64{1e-10, -1e-10}

	c := AssessConvergence(x, xPrev, 1.0, 1.0+1e-12, g, 1e-8, 1e-8, 1e-8)
	switch {
	case !c.X:
		t.Fatal("TestAssessConvergence: x criterion missed")
	case !c.F:
		t.Fatal("TestAssessConvergence: f criterion missed")
	case !c.G:
		t.Fatal("TestAssessConvergence: g criterion missed")
	case !c.Converged:
		t.Fatal("TestAssessConvergence: overall flag missed")
	case c.XTol != 1e-8 || c.FTol != 1e-8 || c.GTol != 1e-8:
		t.Fatal("TestAssessConvergence: tolerances not recorded")
	}

	// Any single criterion suffices.
	c = AssessConvergence([]float64{1}, []float64{2}, 1.0, 5.0, []float64{1e-10}, 1e-8, 1e-8, 1e-8)
	switch {
	case c.X || c.F:
		t.Fatal("TestAssessConvergence: x/f criterion spurious")
	case !c.G || !c.Converged:
		t.Fatal("TestAssessConvergence: g criterion alone must converge")
	}

	// Far from optimal nothing triggers.
	c = AssessConvergence([]float64{1}, []float64{2}, 1.0, 5.0, []float64{3}, 1e-8, 1e-8, 1e-8)
	if c.X || c.F || c.G || c.Converged {
		t.Fatal("TestAssessConvergence: spurious convergence")
	}

	// The seed state uses fPrev = +Inf, which must not trigger f-convergence.
	c = AssessConvergence([]float64{1}, []float64{1}, 1.0, math.Inf(1), []float64{3}, 0, 1e-8, 1e-8)
	if c.F {
		t.Fatal("TestAssessConvergence: infinite previous value converged")
	}
}
