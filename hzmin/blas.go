// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hzmin

import "math"

// ddot computes the dot product of two contiguous vectors.
func ddot(n int, dx, dy []float64) (dot float64) {
	if n <= 0 {
		return zero
	}
	m := uint(n % 5)
	if m > uint(len(dx)) || m > uint(len(dy)) {
		panic("bound check error")
	}
	for i := uint(0); i < m; i++ {
		dot += dx[i] * dy[i]
	}
	if n < 5 {
		return dot
	}
	for i := m; i < uint(n); i += 5 {
		x := dx[i : i+5 : i+5]
		y := dy[i : i+5 : i+5]
		dot += x[0]*y[0] + x[1]*y[1] + x[2]*y[2] + x[3]*y[3] + x[4]*y[4]
	}
	return dot
}

// daxpy performs dy += da*dx on contiguous vectors.
func daxpy(n int, da float64, dx, dy []float64) {
	if n <= 0 || da == zero {
		return
	}
	m := uint(n % 4)
	if m > uint(len(dx)) || m > uint(len(dy)) {
		panic("bound check error")
	}
	for i := uint(0); i < m; i++ {
		dy[i] += da * dx[i]
	}
	if n < 4 {
		return
	}
	for i := m; i < uint(n); i += 4 {
		x := dx[i : i+4 : i+4]
		y := dy[i : i+4 : i+4]
		y[0] += da * x[0]
		y[1] += da * x[1]
		y[2] += da * x[2]
		y[3] += da * x[3]
	}
}

// dcopy copies a vector, x, to a vector, y.
func dcopy(n int, dx, dy []float64) {
	if n <= 0 {
		return
	}
	copy(dy[:n], dx[:n])
}

// dnrm2 computes the Euclidean norm of a contiguous vector.
func dnrm2(n int, dx []float64) float64 {
	return math.Sqrt(ddot(n, dx, dx))
}

// dnrmInf computes the sup-norm of a contiguous vector.
func dnrmInf(n int, dx []float64) (norm float64) {
	if n < 0 || n > len(dx) {
		panic("bound check error")
	}
	for _, v := range dx[:n] {
		norm = math.Max(norm, math.Abs(v))
	}
	return norm
}

// dmaxDiff computes the sup-norm of the difference of two vectors.
func dmaxDiff(n int, dx, dy []float64) (diff float64) {
	if n < 0 || n > len(dx) || n > len(dy) {
		panic("bound check error")
	}
	for i := 0; i < n; i++ {
		diff = math.Max(diff, math.Abs(dx[i]-dy[i]))
	}
	return diff
}
